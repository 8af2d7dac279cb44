// Package auth implements the sign-in flow against the platform API. The
// console keeps no credentials of its own: a login exchanges the operator's
// username and password for a bearer token, which lives in the server-side
// session until logout or expiry.
package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/pulseboard/pulseboard/internal/backend"
	"github.com/pulseboard/pulseboard/internal/dialog"
	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/shared"
	"github.com/pulseboard/pulseboard/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	api            *backend.Client
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
	dialogs        dialog.Registry
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, api *backend.Client, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		api:            api,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
		dialogs: dialog.Registry{
			"change-password": {
				Title:       "Change password",
				Description: "The new password takes effect immediately.",
				Template:    "dialogs/change_password.html",
			},
		},
	}
}

// MountRoutes registers auth routes on the root router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.With(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))).
		Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/profile", h.showProfile)
	r.Post("/profile/password", h.handleChangePassword)
}

type loginForm struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

type loginPageData struct {
	Form   loginForm
	Errors map[string]string
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, loginPageData{}, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := loginForm{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	errors := make(map[string]string)
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errors[fieldErr.Field()] = "This field is required"
		}
	}

	if len(errors) == 0 {
		result, err := h.api.Login(r.Context(), form.Username, form.Password)
		if err != nil {
			if backend.IsUnauthorized(err) {
				errors["general"] = "Invalid username or password"
			} else {
				errors["general"] = backend.UserMessage(err)
			}
			h.logger.Info("login rejected", slog.String("username", form.Username))
		} else if sess != nil {
			sess.SetToken(result.AccessToken)

			// Resolve the operator identity while the token is fresh;
			// a failure here is not fatal to the login.
			if profile, err := h.api.CurrentProfile(shared.ContextWithSession(r.Context(), sess)); err == nil {
				sess.SetUser(strconv.FormatInt(profile.ID, 10))
			}
			sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Welcome back"})
			httpx.Redirect(w, r, "/")
			return
		}
	}

	form.Password = ""
	h.renderLogin(w, r, loginPageData{Form: form, Errors: errors}, http.StatusBadRequest)
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, data loginPageData, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Sign in",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	if err := h.templates.Render(w, "pages/login.html", viewData); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		// Best effort; the session is destroyed either way.
		if err := h.api.Logout(r.Context()); err != nil {
			h.logger.Warn("backend logout", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	httpx.Redirect(w, r, "/login")
}

type profilePageData struct {
	Profile *backend.Profile
	Dialog  *dialog.View
}

func (h *Handler) showProfile(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)

	profile, err := h.api.CurrentProfile(r.Context())
	if err != nil {
		if httpx.HandleError(h.logger, w, r, sess, err) {
			return
		}
	}

	data := profilePageData{Profile: profile}
	if dlg, ok := h.dialogs.Resolve(dialog.FromQuery(r.URL.Query()), "/profile"); ok {
		data.Dialog = dlg
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Profile",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, "pages/profile.html", viewData); err != nil {
		h.logger.Error("render profile", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type changePasswordForm struct {
	NewPassword string `validate:"required,min=6"`
	Confirm     string `validate:"required,eqfield=NewPassword"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	form := changePasswordForm{
		NewPassword: r.PostFormValue("new_password"),
		Confirm:     r.PostFormValue("confirm_password"),
	}
	if err := h.validator.Struct(form); err != nil {
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Passwords must match and be at least 6 characters"})
		}
		httpx.Redirect(w, r, "/profile?dialog=change-password")
		return
	}

	if err := h.api.ChangePassword(r.Context(), form.NewPassword); err != nil {
		httpx.ReportError(h.logger, w, r, sess, err, "/profile?dialog=change-password")
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Password updated"})
	}
	httpx.Redirect(w, r, "/profile")
}

// ShowLoginForTest exposes the GET handler for tests.
func (h *Handler) ShowLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.showLogin(w, r)
}

// HandleLoginForTest exposes the POST handler for tests.
func (h *Handler) HandleLoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}
