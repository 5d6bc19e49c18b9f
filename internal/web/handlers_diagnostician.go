package web

import (
	"net/http"
	"strconv"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"github.com/froonn/MedicalVision/internal/backend"
	"github.com/froonn/MedicalVision/internal/guard"
)

// maxUploadBytes caps the multipart memory buffer for image uploads.
const maxUploadBytes = 32 << 20

func (h *Handler) diagnosticianDashboard(w http.ResponseWriter, r *http.Request) {
	history, err := h.gateway.Client().MyHistory(r.Context())
	if err != nil {
		if h.handleBackendError(w, r, err) {
			return
		}
		h.renderer.render(w, http.StatusBadGateway, "diagnostician.html", viewData{
			Title: "Diagnostician",
			User:  guard.UserFrom(r.Context()),
			Error: backend.Detail(err),
		})
		return
	}
	h.renderer.render(w, http.StatusOK, "diagnostician.html", viewData{
		Title:   "Diagnostician",
		User:    guard.UserFrom(r.Context()),
		Error:   r.URL.Query().Get("error"),
		Message: r.URL.Query().Get("message"),
		Data:    history,
	})
}

func (h *Handler) uploadAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		redirectWith(w, r, "/diagnostician", "error", "could not read the uploaded form")
		return
	}
	mrn := r.FormValue("patient_mrn")
	if govalidator.IsNull(mrn) {
		redirectWith(w, r, "/diagnostician", "error", "patient MRN is required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		redirectWith(w, r, "/diagnostician", "error", "an image file is required")
		return
	}
	defer file.Close()

	res, err := h.gateway.Client().UploadAnalysis(r.Context(), mrn, header.Filename, file)
	if err != nil {
		if h.handleBackendError(w, r, err) {
			return
		}
		redirectWith(w, r, "/diagnostician", "error", backend.Detail(err))
		return
	}
	http.Redirect(w, r, "/diagnostician/analyses/"+strconv.Itoa(res.AnalysisID), http.StatusSeeOther)
}

func (h *Handler) analysisDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "analysisID"))
	if err != nil {
		h.notFoundPage(w, r)
		return
	}
	analysis, err := h.gateway.Client().Analysis(r.Context(), id)
	if err != nil {
		if h.handleBackendError(w, r, err) {
			return
		}
		if backend.IsNotFound(err) {
			h.notFoundPage(w, r)
			return
		}
		redirectWith(w, r, "/diagnostician", "error", backend.Detail(err))
		return
	}
	h.renderer.render(w, http.StatusOK, "analysis_detail.html", viewData{
		Title:   "Analysis detail",
		User:    guard.UserFrom(r.Context()),
		Error:   r.URL.Query().Get("error"),
		Message: r.URL.Query().Get("message"),
		Data:    analysis,
	})
}

func (h *Handler) confirmAnalysis(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "analysisID"))
	if err != nil {
		h.notFoundPage(w, r)
		return
	}
	detailPath := "/diagnostician/analyses/" + strconv.Itoa(id)

	conclusion := r.PostFormValue("conclusion")
	if govalidator.IsNull(conclusion) {
		redirectWith(w, r, detailPath, "error", "a conclusion is required")
		return
	}
	correct := r.PostFormValue("is_correct") == "true"

	if _, err := h.gateway.Client().ConfirmDiagnosis(r.Context(), id, conclusion, correct); err != nil {
		if h.handleBackendError(w, r, err) {
			return
		}
		redirectWith(w, r, detailPath, "error", backend.Detail(err))
		return
	}
	redirectWith(w, r, detailPath, "message", "conclusion recorded")
}
