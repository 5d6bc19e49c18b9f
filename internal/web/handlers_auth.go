package web

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/asaskevich/govalidator"

	"github.com/froonn/MedicalVision/internal/auth"
	"github.com/froonn/MedicalVision/internal/backend"
	"github.com/froonn/MedicalVision/internal/guard"
	"github.com/froonn/MedicalVision/internal/session"
)

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	s := h.gateway.Current(r.Context(), auth.SessionIDFrom(r.Context()))
	if s.Authenticated() {
		h.redirectHome(w, r, s.User.Role)
		return
	}
	h.renderer.render(w, http.StatusOK, "login.html", viewData{
		Title:   "Sign in",
		Error:   r.URL.Query().Get("error"),
		Message: r.URL.Query().Get("message"),
	})
}

func (h *Handler) loginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	form := map[string]string{"username": username}
	if govalidator.IsNull(username) || govalidator.IsNull(password) {
		h.renderer.render(w, http.StatusBadRequest, "login.html", viewData{
			Title: "Sign in",
			Error: "username and password are required",
			Form:  form,
		})
		return
	}

	sid := auth.SessionIDFrom(r.Context())
	profile, err := h.gateway.Login(r.Context(), sid, username, password, r.UserAgent())
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.renderer.render(w, http.StatusUnauthorized, "login.html", viewData{
				Title: "Sign in",
				Error: "invalid username or password",
				Form:  form,
			})
			return
		}
		h.renderer.render(w, http.StatusBadGateway, "login.html", viewData{
			Title: "Sign in",
			Error: backend.Detail(err),
			Form:  form,
		})
		return
	}
	h.redirectHome(w, r, profile.Role)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.gateway.Logout(r.Context(), auth.SessionIDFrom(r.Context()))
	h.cookies.Drop(w)
	redirectWith(w, r, pathLogin, "message", "you have been signed out")
}

func (h *Handler) registerPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.render(w, http.StatusOK, "register.html", viewData{Title: "Register"})
}

func (h *Handler) registerSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	confirm := r.PostFormValue("confirm_password")

	form := map[string]string{"username": username}
	fail := func(status int, msg string) {
		h.renderer.render(w, status, "register.html", viewData{
			Title: "Register",
			Error: msg,
			Form:  form,
		})
	}

	switch {
	case !govalidator.StringLength(username, "3", "64"):
		fail(http.StatusBadRequest, "username must be between 3 and 64 characters")
		return
	case !govalidator.StringLength(password, "8", "128"):
		fail(http.StatusBadRequest, "password must be at least 8 characters")
		return
	case password != confirm:
		fail(http.StatusBadRequest, "passwords do not match")
		return
	}

	// Self-service accounts always start as diagnosticians. Clinician and
	// admin roles are assigned afterwards by an administrator.
	if _, err := h.gateway.Client().Register(r.Context(), username, password, string(session.RoleDiagnostician)); err != nil {
		if backend.IsValidation(err) {
			fail(http.StatusBadRequest, backend.Detail(err))
			return
		}
		fail(http.StatusBadGateway, backend.Detail(err))
		return
	}
	redirectWith(w, r, pathLogin, "message", "registration complete, please sign in")
}

// landing dispatches an authenticated user to the dashboard for their role.
func (h *Handler) landing(w http.ResponseWriter, r *http.Request) {
	user := guard.UserFrom(r.Context())
	if user == nil {
		http.Redirect(w, r, pathLogin, http.StatusSeeOther)
		return
	}
	h.redirectHome(w, r, user.Role)
}

func (h *Handler) redirectHome(w http.ResponseWriter, r *http.Request, role session.Role) {
	home, ok := guard.HomePath(role)
	if !ok {
		h.renderer.render(w, http.StatusOK, "unconfigured.html", viewData{
			Title: "Access not configured",
			Data:  string(role),
		})
		return
	}
	http.Redirect(w, r, home, http.StatusSeeOther)
}

func (h *Handler) unauthorizedPage(w http.ResponseWriter, r *http.Request) {
	s := h.gateway.Current(r.Context(), auth.SessionIDFrom(r.Context()))
	h.renderer.render(w, http.StatusForbidden, "unauthorized.html", viewData{
		Title: "Unauthorized",
		User:  s.User,
	})
}

func (h *Handler) loadingPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.render(w, http.StatusOK, "loading.html", viewData{Title: "Loading"})
}

func (h *Handler) notFoundPage(w http.ResponseWriter, r *http.Request) {
	h.renderer.render(w, http.StatusNotFound, "notfound.html", viewData{Title: "Not found"})
}

// handleBackendError maps a backend failure to the portal's standard
// responses: a 401 ends the local session and returns to sign-in, a 403
// lands on the unauthorized page, anything else is reported inline by the
// caller. Returns true when the response has been written.
func (h *Handler) handleBackendError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case backend.IsAuthFailure(err):
		h.gateway.Deauthenticate(r.Context(), auth.SessionIDFrom(r.Context()))
		h.cookies.Drop(w)
		redirectWith(w, r, pathLogin, "error", "your session has expired, please sign in again")
		return true
	case backend.IsForbidden(err):
		http.Redirect(w, r, pathUnauthorized, http.StatusSeeOther)
		return true
	}
	h.metrics.RecordBackendError("upstream")
	return false
}

func redirectWith(w http.ResponseWriter, r *http.Request, path, key, value string) {
	http.Redirect(w, r, path+"?"+key+"="+url.QueryEscape(value), http.StatusSeeOther)
}
