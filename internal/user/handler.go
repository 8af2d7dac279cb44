// Package user implements the end-user pages: the filterable user list,
// registration against a distributed activation code, and contact edits.
package user

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pulseboard/pulseboard/internal/backend"
	"github.com/pulseboard/pulseboard/internal/dialog"
	"github.com/pulseboard/pulseboard/internal/listing"
	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/shared"
	"github.com/pulseboard/pulseboard/internal/view"
)

// Handler wires the user management endpoints.
type Handler struct {
	logger      *slog.Logger
	api         *backend.Client
	templates   *view.Engine
	csrfManager *shared.CSRFManager
	validator   *validator.Validate
	dialogs     dialog.Registry
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, api *backend.Client, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:      logger,
		api:         api,
		templates:   templates,
		csrfManager: csrf,
		validator:   validator.New(),
		dialogs: dialog.Registry{
			"register": {
				Title:       "Register user",
				Description: "Registration consumes one distributed activation code.",
				Template:    "dialogs/user_register.html",
			},
			"edit": {
				Title:    "Edit user",
				Template: "dialogs/user_edit.html",
			},
		},
	}
}

// MountRoutes registers user routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showList)
	r.Post("/register", h.handleRegister)
	r.Post("/update", h.handleUpdate)
}

func listDefaults() listing.Filters {
	return listing.Filters{
		listing.KeyPage:   1,
		listing.KeySize:   10,
		"username":        "",
		"phone":           "",
		"email":           "",
		"activation_code": "",
	}
}

func (h *Handler) fetchPage(ctx context.Context, f listing.Filters) (listing.Page[backend.User], error) {
	q := backend.UserQuery{
		PageQuery: backend.PageQuery{
			Page: f.Int(listing.KeyPage, 1),
			Size: f.Int(listing.KeySize, 10),
		},
		Username:       f.String("username"),
		Phone:          f.String("phone"),
		Email:          f.String("email"),
		ActivationCode: f.String("activation_code"),
	}
	page, err := h.api.ListUsers(ctx, q)
	if err != nil {
		return listing.Page[backend.User]{}, err
	}
	return listing.Page[backend.User]{Items: page.Items, Pagination: page.Pagination()}, nil
}

type listPageData struct {
	Items      []backend.User
	Pagination shared.Pagination
	Filters    listing.Filters
	Query      string
	Dialog     *dialog.View
}

func (h *Handler) showList(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)

	ctrl := listing.NewController(listDefaults(), h.fetchPage)
	ctrl.Init(r.URL.Query())
	if err := ctrl.Refresh(r.Context()); err != nil {
		if httpx.HandleError(h.logger, w, r, sess, err) {
			return
		}
	}

	data := listPageData{
		Items:      ctrl.Items(),
		Pagination: ctrl.Pagination(),
		Filters:    ctrl.Filters(),
		Query:      ctrl.Query().Encode(),
	}

	closeURL := "/users"
	if data.Query != "" {
		closeURL += "?" + data.Query
	}
	st := dialog.FromQuery(r.URL.Query())
	if st.Open && st.Type == "edit" {
		if id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64); err == nil {
			for _, u := range data.Items {
				if u.ID == id {
					st.Data = u
					break
				}
			}
		}
	}
	if dlg, ok := h.dialogs.Resolve(st, closeURL); ok {
		data.Dialog = dlg
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Users",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, "pages/users.html", viewData); err != nil {
		h.logger.Error("render users", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type registerForm struct {
	Username       string `validate:"required,min=3,max=50"`
	Password       string `validate:"required,min=6"`
	ActivationCode string `validate:"required"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	back := httpx.BackURL(r, "/users")

	form := registerForm{
		Username:       r.PostFormValue("username"),
		Password:       r.PostFormValue("password"),
		ActivationCode: r.PostFormValue("activation_code"),
	}
	if err := h.validator.Struct(form); err != nil {
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Username, password (6+ characters) and activation code are required"})
		}
		httpx.Redirect(w, r, back+"?dialog=register")
		return
	}

	user, err := h.api.RegisterUser(r.Context(), backend.UserRegister{
		Username:       form.Username,
		Password:       form.Password,
		ActivationCode: form.ActivationCode,
	})
	if err != nil {
		httpx.ReportError(h.logger, w, r, sess, err, back+"?dialog=register")
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "User " + user.Username + " registered"})
	}
	httpx.Redirect(w, r, back)
}

type updateForm struct {
	Username string `validate:"omitempty,min=3,max=50"`
	Phone    string `validate:"omitempty,max=20"`
	Email    string `validate:"omitempty,email"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	back := httpx.BackURL(r, "/users")

	userID, err := strconv.ParseInt(r.PostFormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form := updateForm{
		Username: r.PostFormValue("username"),
		Phone:    r.PostFormValue("phone"),
		Email:    r.PostFormValue("email"),
	}
	if err := h.validator.Struct(form); err != nil {
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Check the username and contact fields"})
		}
		httpx.Redirect(w, r, back+"?dialog=edit&id="+strconv.FormatInt(userID, 10))
		return
	}

	_, err = h.api.UpdateUser(r.Context(), userID, backend.UserUpdate{
		Username: form.Username,
		Phone:    form.Phone,
		Email:    form.Email,
	})
	if err != nil {
		httpx.ReportError(h.logger, w, r, sess, err, back)
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "User updated"})
	}
	httpx.Redirect(w, r, back)
}
