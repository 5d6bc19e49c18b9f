package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/froonn/MedicalVision/internal/backend"
	"github.com/froonn/MedicalVision/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// viewData is the envelope every template receives.
type viewData struct {
	Title   string
	User    *session.UserProfile
	Error   string
	Message string
	Form    map[string]string
	Data    any
}

// renderer holds the parsed page set. Each page is parsed against the shared
// layout so pages only define their content block.
type renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

var pageFiles = []string{
	"login.html",
	"register.html",
	"loading.html",
	"unauthorized.html",
	"notfound.html",
	"unconfigured.html",
	"diagnostician.html",
	"analysis_detail.html",
	"clinician.html",
	"admin.html",
}

var templateFuncs = template.FuncMap{
	// feedbackLabel renders the stored feedback flag; -1 means the
	// diagnostician has not reviewed the system diagnosis yet.
	"feedbackLabel": func(feedback int) string {
		switch feedback {
		case 1:
			return "confirmed correct"
		case 0:
			return "marked wrong"
		}
		return "pending review"
	},
	// patientName falls back to the MRN when the backend has no name on file.
	"patientName": func(p backend.Patient) string {
		name := strings.TrimSpace(p.FirstName + " " + p.LastName)
		if name == "" {
			return p.MedicalRecordNumber
		}
		return name
	},
}

func newRenderer(logger *slog.Logger) *renderer {
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, name := range pageFiles {
		pages[name] = template.Must(
			template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS,
				"templates/layout.html",
				"templates/"+name,
			))
	}
	return &renderer{pages: pages, logger: logger}
}

func (r *renderer) render(w http.ResponseWriter, status int, page string, data viewData) {
	tpl, ok := r.pages[page]
	if !ok {
		r.logger.Error("unknown template", "page", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tpl.ExecuteTemplate(w, "layout", data); err != nil {
		r.logger.Error("template execution failed", "page", page, "error", err)
	}
}
