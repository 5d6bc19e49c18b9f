package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/froonn/MedicalVision/internal/backend"
	"github.com/froonn/MedicalVision/internal/guard"
	"github.com/froonn/MedicalVision/internal/session"
)

// adminView is everything the administration page shows at once.
type adminView struct {
	Users    []backend.Account
	Analyses []backend.Analysis
	Metrics  backend.ModelMetrics
}

func (h *Handler) adminDashboard(w http.ResponseWriter, r *http.Request) {
	var view adminView

	// The page is all-or-nothing: a partial dashboard would misreport the
	// system, so the three fetches run together and the first failure wins.
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		users, err := h.gateway.Client().Users(ctx)
		view.Users = users
		return err
	})
	g.Go(func() error {
		analyses, err := h.gateway.Client().AllAnalyses(ctx)
		view.Analyses = analyses
		return err
	})
	g.Go(func() error {
		m, err := h.gateway.Client().FeedbackMetrics(ctx)
		view.Metrics = m
		return err
	})
	if err := g.Wait(); err != nil {
		if h.handleBackendError(w, r, err) {
			return
		}
		h.renderer.render(w, http.StatusBadGateway, "admin.html", viewData{
			Title: "Administration",
			User:  guard.UserFrom(r.Context()),
			Error: backend.Detail(err),
			Data:  adminView{},
		})
		return
	}

	h.renderer.render(w, http.StatusOK, "admin.html", viewData{
		Title:   "Administration",
		User:    guard.UserFrom(r.Context()),
		Error:   r.URL.Query().Get("error"),
		Message: r.URL.Query().Get("message"),
		Data:    view,
	})
}

func (h *Handler) changeUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		h.notFoundPage(w, r)
		return
	}
	role := session.Role(r.PostFormValue("role"))
	if !role.Known() {
		redirectWith(w, r, "/admin", "error", "unknown role")
		return
	}

	// Admins cannot demote themselves out of the admin console.
	if me := guard.UserFrom(r.Context()); me != nil && me.ID == id {
		redirectWith(w, r, "/admin", "error", "you cannot change your own role")
		return
	}

	acc, err := h.gateway.Client().UpdateUserRole(r.Context(), id, string(role))
	if err != nil {
		if h.handleBackendError(w, r, err) {
			return
		}
		redirectWith(w, r, "/admin", "error", backend.Detail(err))
		return
	}
	redirectWith(w, r, "/admin", "message", acc.Username+" is now a "+acc.Role)
}
