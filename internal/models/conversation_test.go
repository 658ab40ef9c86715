package models_test

import (
	"testing"

	"github.com/lexvia/lexvia-web-ui/internal/models"
)

func TestAppendUserAndPlaceholder(t *testing.T) {
	conv := models.Conversation{SessionID: "sess-1"}

	userID, assistantID := conv.AppendUserAndPlaceholder("Hola")

	if len(conv.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(conv.Messages))
	}
	if userID == assistantID {
		t.Error("user and assistant IDs should differ")
	}

	user := conv.Messages[0]
	if user.ID != userID || user.Role != models.RoleUser || user.Content != "Hola" {
		t.Errorf("unexpected user message: %+v", user)
	}

	assistant := conv.Messages[1]
	if assistant.ID != assistantID || assistant.Role != models.RoleAssistant || assistant.Content != "" {
		t.Errorf("unexpected assistant placeholder: %+v", assistant)
	}
}

func TestAppendToken(t *testing.T) {
	t.Run("tokens concatenate in call order", func(t *testing.T) {
		conv := models.Conversation{}
		conv.AppendUserAndPlaceholder("hola")

		conv.AppendToken("A")
		conv.AppendToken("B")

		if len(conv.Messages) != 2 {
			t.Fatalf("got %d messages, want 2", len(conv.Messages))
		}
		if got := conv.Messages[1].Content; got != "AB" {
			t.Errorf("got %q, want %q", got, "AB")
		}
	})

	t.Run("no-op on an empty conversation", func(t *testing.T) {
		conv := models.Conversation{}
		conv.AppendToken("A")

		if len(conv.Messages) != 0 {
			t.Errorf("AppendToken should never grow the list, got %d messages", len(conv.Messages))
		}
	})

	t.Run("no-op when the trailing message is the user's", func(t *testing.T) {
		conv := models.Conversation{Messages: []models.ChatMessage{
			{ID: "1", Role: models.RoleUser, Content: "Hola"},
		}}
		conv.AppendToken("A")

		if len(conv.Messages) != 1 {
			t.Fatalf("AppendToken should never grow the list, got %d messages", len(conv.Messages))
		}
		if conv.Messages[0].Content != "Hola" {
			t.Errorf("user message mutated: %q", conv.Messages[0].Content)
		}
	})
}

func TestReplaceAll(t *testing.T) {
	conv := models.Conversation{}
	conv.AppendUserAndPlaceholder("hola")
	conv.AppendToken("partial")

	authoritative := []models.ChatMessage{
		{ID: "srv-0", Role: models.RoleUser, Content: "hola"},
		{ID: "srv-1", Role: models.RoleAssistant, Content: "respuesta completa"},
	}
	conv.ReplaceAll(authoritative)

	if len(conv.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(conv.Messages))
	}
	if conv.Messages[1].Content != "respuesta completa" {
		t.Errorf("got %q, want the authoritative content", conv.Messages[1].Content)
	}
}

func TestMarkLastAsError(t *testing.T) {
	t.Run("replaces an empty placeholder", func(t *testing.T) {
		conv := models.Conversation{}
		conv.AppendUserAndPlaceholder("hola")

		conv.MarkLastAsError("algo falló")

		if len(conv.Messages) != 2 {
			t.Fatalf("got %d messages, want 2", len(conv.Messages))
		}
		if conv.Messages[1].Content != "algo falló" {
			t.Errorf("got %q, want the error text in the placeholder", conv.Messages[1].Content)
		}
	})

	t.Run("keeps partial content and appends", func(t *testing.T) {
		conv := models.Conversation{}
		conv.AppendUserAndPlaceholder("hola")
		conv.AppendToken("respuesta a medias")

		conv.MarkLastAsError("algo falló")

		if len(conv.Messages) != 3 {
			t.Fatalf("got %d messages, want 3", len(conv.Messages))
		}
		if conv.Messages[1].Content != "respuesta a medias" {
			t.Errorf("partial content lost: %q", conv.Messages[1].Content)
		}
		if last := conv.Messages[2]; last.Role != models.RoleAssistant || last.Content != "algo falló" {
			t.Errorf("unexpected trailing message: %+v", last)
		}
	})

	t.Run("appends on an empty conversation", func(t *testing.T) {
		conv := models.Conversation{}
		conv.MarkLastAsError("algo falló")

		if len(conv.Messages) != 1 {
			t.Fatalf("got %d messages, want 1", len(conv.Messages))
		}
	})
}

func TestLast(t *testing.T) {
	conv := models.Conversation{}
	if _, ok := conv.Last(); ok {
		t.Error("Last() on an empty conversation should report false")
	}

	conv.AppendUserAndPlaceholder("hola")
	last, ok := conv.Last()
	if !ok || last.Role != models.RoleAssistant {
		t.Errorf("Last() = %+v, %v; want the assistant placeholder", last, ok)
	}
}
