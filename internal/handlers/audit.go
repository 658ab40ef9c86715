package handlers

import (
	"net/http"
	"strings"

	"github.com/lexvia/lexvia-web-ui/internal/services"
)

// The audit screens are a product preview running on canned data; no backend
// endpoint serves audits yet.

type auditRelatedDoc struct {
	Name string
	Type string
	Size string
}

type auditDocument struct {
	ID              int
	Name            string
	CaseNumber      string
	Client          string
	Category        string
	Status          string
	GeneratedAt     string
	Summary         string
	ComplianceIndex int
	Tags            []string
	RelatedDocs     []auditRelatedDoc
	CreatedBy       string
	LastReview      string
}

type auditFinding struct {
	Kind     string
	Title    string
	Location string
	Quote    string
	Analysis string
	Detail   string
}

type auditSummary struct {
	Title            string
	CaseLabel        string
	DocsAnalyzed     string
	Confidence       int
	UpdatedAt        string
	HighRisk         int
	MediumRisk       int
	Approved         int
	ExecutiveSummary string
	Findings         []auditFinding
}

var auditDocuments = []auditDocument{
	{
		ID:          1,
		Name:        "Contrato de Servicios Legales",
		CaseNumber:  "2024-001",
		Client:      "Minera San Cristóbal",
		Category:    "Abierto",
		Status:      "Auditado",
		GeneratedAt: "2025-12-10",
		Summary: "El documento presenta un índice de cumplimiento del 97%. Las cláusulas de " +
			"confidencialidad y responsabilidad están correctamente redactadas según la normativa " +
			"vigente. Se recomienda revisión menor en la sección 3.2 referente a penalidades por " +
			"incumplimiento.",
		ComplianceIndex: 97,
		Tags:            []string{"Riesgo Bajo", "Vigente"},
		RelatedDocs: []auditRelatedDoc{
			{Name: "Anexo A - Tarifario", Type: "PDF", Size: "1.8 MB"},
			{Name: "Carta de Presentación", Type: "PDF", Size: "340 KB"},
		},
		CreatedBy:  "M. García",
		LastReview: "Hoy, 10:15 AM",
	},
	{
		ID:          2,
		Name:        "Poder Notarial Amplio",
		CaseNumber:  "2024-002",
		Client:      "Banco Nacional de Bolivia",
		Category:    "Abierto",
		Status:      "Sin auditar",
		GeneratedAt: "2025-12-08",
		Summary: "Documento pendiente de revisión. Se requiere verificar la validez de las " +
			"facultades otorgadas y la correcta identificación del poderdante conforme al artículo " +
			"804 del Código Civil boliviano.",
		ComplianceIndex: 0,
		Tags:            []string{"Pendiente", "Requiere revisión"},
		RelatedDocs: []auditRelatedDoc{
			{Name: "CI Poderdante", Type: "PDF", Size: "520 KB"},
			{Name: "Testimonio Notarial", Type: "PDF", Size: "2.1 MB"},
			{Name: "Formulario de Registro", Type: "PDF", Size: "180 KB"},
		},
		CreatedBy:  "A. Thompson",
		LastReview: "Pendiente",
	},
	{
		ID:          3,
		Name:        "Demanda Civil Ordinaria",
		CaseNumber:  "2024-003",
		Client:      "Constructora Villalobos",
		Category:    "Cerrado",
		Status:      "Auditado",
		GeneratedAt: "2025-11-25",
		Summary: "El documento presenta un índice de cumplimiento del 92%. La estructura procesal " +
			"es correcta. Se identificó una observación menor en la cuantificación de daños y " +
			"perjuicios que fue subsanada en la versión final.",
		ComplianceIndex: 92,
		Tags:            []string{"Riesgo Bajo", "Cerrado"},
		RelatedDocs: []auditRelatedDoc{
			{Name: "Prueba Documental 1", Type: "PDF", Size: "3.4 MB"},
			{Name: "Sentencia", Type: "PDF", Size: "890 KB"},
		},
		CreatedBy:  "R. Mendoza",
		LastReview: "25 nov 2025, 16:30",
	},
}

var auditSummaries = map[string]auditSummary{
	"2024-001": {
		Title:        "Servicios Legales Minera Exp. 001",
		CaseLabel:    "CASO: SERVICIOS LEGALES MINERA SAN CRISTÓBAL EXP. 001",
		DocsAnalyzed: "Contrato de Servicios, Recurso de Apelación, Anexo de Tarifas, Carta de Presentación, Resolución Administrativa.",
		Confidence:   96,
		UpdatedAt:    "Actualizado hace 8 min",
		HighRisk:     2,
		MediumRisk:   3,
		Approved:     22,
		ExecutiveSummary: "La auditoría integral de los documentos presentados en el expediente 001 " +
			"revela deficiencias en el anexo de tarifas y la resolución administrativa. Las cláusulas " +
			"de confidencialidad del contrato principal están correctamente redactadas, pero el " +
			"recurso de apelación presenta argumentos que podrían ser fortalecidos con jurisprudencia " +
			"reciente.",
		Findings: []auditFinding{
			{
				Kind:     "riesgo_alto",
				Title:    "TARIFAS SIN INDEXACIÓN",
				Location: "HALLAZGO EN ANEXO TARIFARIO",
				Quote:    `"Las tarifas pactadas se mantendrán fijas durante la vigencia del contrato..."`,
				Analysis: "La ausencia de cláusulas de ajuste por inflación expone al cliente a pérdidas " +
					"significativas. La legislación boliviana (Ley 1670, Art. 42) recomienda indexación en " +
					"contratos de servicios continuos.",
				Detail: "El Anexo de Tarifas no contempla mecanismos de actualización. Diferencia estimada " +
					"acumulada: $12,500 USD en 3 años de vigencia.",
			},
			{
				Kind:     "calculo",
				Title:    "PENALIDAD MAL CALCULADA",
				Location: "HALLAZGO EN CONTRATO",
				Quote:    `"Base de cálculo utilizada: Monto base sin recargos."`,
				Analysis: "El Contrato de Servicios (Cláusula 12) establece penalidades del 5% pero la base " +
					"de cálculo excluye recargos legales. Estos debieron integrarse según Art. 568 del " +
					"Código Civil. Diferencia estimada: $4,200.",
			},
		},
	},
	"2024-002": {
		Title:        "Demanda Laboral Exp. 892",
		CaseLabel:    "CASO: DEMANDA LABORAL EXP. 892",
		DocsAnalyzed: "Contrato Laboral, Liquidación de Beneficios, Intercambio de Correos, Pruebas Testimoniales.",
		Confidence:   98,
		UpdatedAt:    "Actualizado hace 15 min",
		HighRisk:     3,
		MediumRisk:   5,
		Approved:     28,
		ExecutiveSummary: "La auditoría integral de los documentos presentados en el expediente 892 " +
			"revela discrepancias significativas en la Liquidación de Beneficios Sociales. Si bien la " +
			"defensa de la empresa se sustenta en una renuncia voluntaria, el análisis de los correos " +
			"electrónicos sugiere una posible coacción, lo que eleva el riesgo de litigio desfavorable.",
		Findings: []auditFinding{
			{
				Kind:     "riesgo_alto",
				Title:    "COACCIÓN EXPLÍCITA",
				Location: "HALLAZGO EN PRUEBA #1",
				Quote:    `"...procesaremos el despido por falta grave sin indemnización si no firma..."`,
				Analysis: "Este correo invalida el argumento de \"renuncia voluntaria\". Alta probabilidad de " +
					"que el juez desestime la renuncia y ordene indemnización por despido injustificado más daños.",
			},
			{
				Kind:     "calculo",
				Title:    "CÁLCULO ERRÓNEO",
				Location: "HALLAZGO EN LIQUIDACIÓN",
				Quote:    `"Base de cálculo utilizada: Salario básico sin bonificaciones."`,
				Analysis: "El Contrato Laboral (Cláusula 8) define bonos regulares. Estos debieron integrarse " +
					"al salario base para el cálculo de antigüedad según Art. 14 LGT. Diferencia estimada: $3,200.",
			},
		},
	},
	"2024-003": {
		Title:        "Demanda Civil Exp. 003",
		CaseLabel:    "CASO: DEMANDA CIVIL CONSTRUCTORA VILLALOBOS EXP. 003",
		DocsAnalyzed: "Demanda Civil Ordinaria, Resolución de Homologación, Prueba Documental, Sentencia Final.",
		Confidence:   99,
		UpdatedAt:    "Actualizado hace 5 min",
		HighRisk:     0,
		MediumRisk:   1,
		Approved:     35,
		ExecutiveSummary: "La auditoría confirma que todos los documentos del expediente 003 cumplen " +
			"con los requisitos procesales. La sentencia fue correctamente homologada. Se detectó una " +
			"observación menor en la cuantificación de daños que ya fue subsanada en la versión final " +
			"del acuerdo transaccional.",
		Findings: []auditFinding{
			{
				Kind:     "riesgo_medio",
				Title:    "CUANTIFICACIÓN DÉBIL",
				Location: "HALLAZGO EN DEMANDA",
				Quote:    `"El daño emergente asciende a la suma de Bs. 450,000..."`,
				Analysis: "La cuantificación no incluye respaldo documental suficiente para el lucro cesante. " +
					"Se recomienda agregar peritaje contable como respaldo adicional ante posible apelación.",
			},
		},
	},
}

func auditSummaryFor(caseNumber string) auditSummary {
	if summary, ok := auditSummaries[caseNumber]; ok {
		return summary
	}
	return auditSummary{
		Title:        "Caso Exp. " + caseNumber,
		CaseLabel:    "CASO: EXPEDIENTE " + caseNumber,
		DocsAnalyzed: "Documentos del caso analizados.",
		Confidence:   95,
		UpdatedAt:    "Actualizado recientemente",
		HighRisk:     1,
		MediumRisk:   2,
		Approved:     20,
		ExecutiveSummary: "La auditoría integral del expediente ha sido completada. Se identificaron " +
			"observaciones que requieren atención.",
	}
}

type auditPageData struct {
	Title     string
	User      services.UserProfile
	Search    string
	Documents []auditDocument
}

// HandleAudit lists the audited documents, filtered by the search box.
func (m Main) HandleAudit(w http.ResponseWriter, r *http.Request) {
	sess, _ := m.session(r)

	search := strings.TrimSpace(r.URL.Query().Get("q"))
	data := auditPageData{
		Title:  "Auditoría de casos",
		User:   sess.User,
		Search: search,
	}
	for _, doc := range auditDocuments {
		if search == "" || containsFold(doc.Name, search) ||
			containsFold(doc.Client, search) || containsFold(doc.CaseNumber, search) {
			data.Documents = append(data.Documents, doc)
		}
	}

	if err := m.templates.ExecuteTemplate(w, "audit.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type auditSummaryPageData struct {
	Title   string
	User    services.UserProfile
	Summary auditSummary
}

// HandleAuditSummary renders the consolidated audit report of one case.
func (m Main) HandleAuditSummary(w http.ResponseWriter, r *http.Request) {
	sess, _ := m.session(r)

	summary := auditSummaryFor(r.PathValue("caseNumber"))
	data := auditSummaryPageData{
		Title:   summary.Title,
		User:    sess.User,
		Summary: summary,
	}

	if err := m.templates.ExecuteTemplate(w, "audit_summary.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
