package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"github.com/froonn/MedicalVision/internal/backend"
	"github.com/froonn/MedicalVision/internal/guard"
)

func (h *Handler) clinicianDashboard(w http.ResponseWriter, r *http.Request) {
	mrn := r.URL.Query().Get("mrn")
	data := viewData{
		Title:   "Clinician",
		User:    guard.UserFrom(r.Context()),
		Error:   r.URL.Query().Get("error"),
		Message: r.URL.Query().Get("message"),
		Form:    map[string]string{"mrn": mrn},
	}
	if mrn == "" {
		h.renderer.render(w, http.StatusOK, "clinician.html", data)
		return
	}

	hist, err := h.gateway.Client().PatientHistory(r.Context(), mrn)
	if err != nil {
		if h.handleBackendError(w, r, err) {
			return
		}
		status := http.StatusBadGateway
		if backend.IsNotFound(err) {
			status = http.StatusNotFound
			data.Error = fmt.Sprintf("patient with MRN %s not found", mrn)
		} else {
			data.Error = backend.Detail(err)
		}
		h.renderer.render(w, status, "clinician.html", data)
		return
	}
	data.Data = hist
	h.renderer.render(w, http.StatusOK, "clinician.html", data)
}

func (h *Handler) prescribeTreatment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "analysisID"))
	if err != nil {
		h.notFoundPage(w, r)
		return
	}
	mrn := r.PostFormValue("mrn")
	backTo := "/clinician?mrn=" + url.QueryEscape(mrn)

	plan := r.PostFormValue("treatment_plan")
	if govalidator.IsNull(plan) {
		http.Redirect(w, r, backTo+"&error="+url.QueryEscape("a treatment plan is required"), http.StatusSeeOther)
		return
	}

	if _, err := h.gateway.Client().PrescribeTreatment(r.Context(), id, plan); err != nil {
		if h.handleBackendError(w, r, err) {
			return
		}
		http.Redirect(w, r, backTo+"&error="+url.QueryEscape(backend.Detail(err)), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, backTo+"&message="+url.QueryEscape("treatment plan recorded"), http.StatusSeeOther)
}
