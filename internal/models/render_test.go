package models_test

import (
	"strings"
	"testing"

	"github.com/lexvia/lexvia-web-ui/internal/models"
)

func TestRenderMarkdown(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "emphasis",
			content: "texto **importante**",
			want:    "<strong>importante</strong>",
		},
		{
			name:    "code block",
			content: "```\nart. 1281\n```",
			want:    "<pre",
		},
		{
			name:    "raw html is not passed through",
			content: "<script>alert(1)</script>",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := models.RenderMarkdown(tt.content)
			if err != nil {
				t.Fatalf("RenderMarkdown() error = %v", err)
			}
			if tt.want != "" && !strings.Contains(string(got), tt.want) {
				t.Errorf("RenderMarkdown() = %q, want to contain %q", got, tt.want)
			}
			if strings.Contains(string(got), "<script>") {
				t.Errorf("RenderMarkdown() = %q, raw script tag leaked", got)
			}
		})
	}
}

func TestContextDocumentMetadata(t *testing.T) {
	doc := models.ContextDocument{
		PageContent: "art. 1281",
		Metadata: map[string]any{
			"source_filename": "codigo_civil.pdf",
			"page_label":      float64(12),
		},
	}

	if got := doc.Source(); got != "codigo_civil.pdf" {
		t.Errorf("Source() = %q", got)
	}
	if got := doc.PageLabel(); got != "12" {
		t.Errorf("PageLabel() = %q", got)
	}

	empty := models.ContextDocument{}
	if got := empty.Source(); got != "" {
		t.Errorf("Source() on empty metadata = %q", got)
	}
}
