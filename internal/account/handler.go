// Package account implements the managed-accounts pages: the paginated
// account list with its create, edit and delete dialogs, plus the
// per-account project bindings and settings overrides.
package account

import (
	"context"
	"fmt"
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

// Handler wires the account management endpoints.
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
			"create": {
				Title:    "New account",
				Template: "dialogs/account_form.html",
			},
			"edit": {
				Title:    "Edit account",
				Template: "dialogs/account_form.html",
			},
			"delete": {
				Title:    "Delete account",
				Template: "dialogs/confirm.html",
				Class:    "danger",
			},
			"bind": {
				Title:    "Bind project",
				Template: "dialogs/binding_form.html",
			},
		},
	}
}

// MountRoutes registers account routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showList)
	r.Post("/create", h.handleCreate)
	r.Post("/update", h.handleUpdate)
	r.Post("/delete", h.handleDelete)
	r.Get("/{accountID}/bindings", h.showBindings)
	r.Post("/{accountID}/bindings", h.handleBind)
	r.Post("/bindings/update", h.handleUpdateBinding)
	r.Post("/bindings/unbind", h.handleUnbind)
	r.Get("/{accountID}/settings", h.showSettings)
	r.Post("/{accountID}/settings/update", h.handleUpdateSetting)
	r.Post("/{accountID}/settings/reset", h.handleResetSetting)
}

func listDefaults() listing.Filters {
	return listing.Filters{
		listing.KeyPage: 1,
		listing.KeySize: 10,
		"name":          "",
		"user_id":       "",
	}
}

func (h *Handler) fetchPage(ctx context.Context, f listing.Filters) (listing.Page[backend.Account], error) {
	q := backend.AccountQuery{
		PageQuery: backend.PageQuery{
			Page: f.Int(listing.KeyPage, 1),
			Size: f.Int(listing.KeySize, 10),
		},
		Name: f.String("name"),
	}
	if raw := f.String("user_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			q.UserID = &id
		}
	}
	page, err := h.api.ListAccounts(ctx, q)
	if err != nil {
		return listing.Page[backend.Account]{}, err
	}
	return listing.Page[backend.Account]{Items: page.Items, Pagination: page.Pagination()}, nil
}

type listPageData struct {
	Items      []backend.Account
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

	closeURL := "/accounts"
	if data.Query != "" {
		closeURL += "?" + data.Query
	}
	st := dialog.FromQuery(r.URL.Query())
	if st.Open {
		st.Data = h.dialogData(st.Type, r.URL.Query().Get("id"), ctrl.Items())
	}
	if dlg, ok := h.dialogs.Resolve(st, closeURL); ok {
		data.Dialog = dlg
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Accounts",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, "pages/accounts.html", viewData); err != nil {
		h.logger.Error("render accounts", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// dialogData finds the record behind an edit or delete dialog in the page
// that is already loaded. A stale id simply yields a payload-less dialog.
func (h *Handler) dialogData(tag, rawID string, items []backend.Account) any {
	if tag != "edit" && tag != "delete" {
		return nil
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil
	}
	for _, acc := range items {
		if acc.ID == id {
			return acc
		}
	}
	return nil
}

type accountForm struct {
	Name             string `validate:"required,max=100"`
	PlatformAccount  string `validate:"max=100"`
	PlatformPassword string `validate:"max=100"`
	Description      string `validate:"max=500"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	back := httpx.BackURL(r, "/accounts")

	form := accountForm{
		Name:             r.PostFormValue("name"),
		PlatformAccount:  r.PostFormValue("platform_account"),
		PlatformPassword: r.PostFormValue("platform_password"),
		Description:      r.PostFormValue("description"),
	}
	if err := h.validator.Struct(form); err != nil {
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Account name is required (100 characters max)"})
		}
		httpx.Redirect(w, r, back+"?dialog=create")
		return
	}

	_, err := h.api.CreateAccount(r.Context(), backend.AccountCreate{
		Name:             form.Name,
		PlatformAccount:  form.PlatformAccount,
		PlatformPassword: form.PlatformPassword,
		Description:      form.Description,
	})
	if err != nil {
		httpx.ReportError(h.logger, w, r, sess, err, back+"?dialog=create")
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Account created"})
	}
	httpx.Redirect(w, r, back)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	back := httpx.BackURL(r, "/accounts")

	id, err := strconv.ParseInt(r.PostFormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := accountForm{
		Name:             r.PostFormValue("name"),
		PlatformAccount:  r.PostFormValue("platform_account"),
		PlatformPassword: r.PostFormValue("platform_password"),
		Description:      r.PostFormValue("description"),
	}
	if err := h.validator.Struct(form); err != nil {
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Account name is required (100 characters max)"})
		}
		httpx.Redirect(w, r, back+"?dialog=edit&id="+strconv.FormatInt(id, 10))
		return
	}

	_, err = h.api.UpdateAccount(r.Context(), backend.AccountUpdate{
		ID:               id,
		Name:             form.Name,
		PlatformAccount:  form.PlatformAccount,
		PlatformPassword: form.PlatformPassword,
		Description:      form.Description,
	})
	if err != nil {
		httpx.ReportError(h.logger, w, r, sess, err, back)
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Account updated"})
	}
	httpx.Redirect(w, r, back)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	back := httpx.BackURL(r, "/accounts")

	id, err := strconv.ParseInt(r.PostFormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var flow dialog.Confirmation
	flow.Confirm(dialog.Request{
		Description: fmt.Sprintf("Delete account %d and all of its bindings?", id),
		OnConfirm: func(ctx context.Context) error {
			return h.api.DeleteAccount(ctx, id)
		},
	})
	if err := flow.Accept(r.Context()); err != nil {
		// The prompt stays armed for a retry; send the user back to it.
		httpx.ReportError(h.logger, w, r, sess, err, back+"?dialog=delete&id="+strconv.FormatInt(id, 10))
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Account deleted"})
	}
	httpx.Redirect(w, r, back)
}

type bindingsPageData struct {
	AccountID int64
	Bindings  []backend.Binding
	Projects  []backend.EnumItem
	Channels  []backend.EnumItem
	Dialog    *dialog.View
}

func (h *Handler) showBindings(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)

	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	bindings, err := h.api.ListBindings(r.Context(), accountID)
	if err != nil {
		if httpx.HandleError(h.logger, w, r, sess, err) {
			return
		}
	}
	projects, err := h.api.Projects(r.Context())
	if err != nil {
		h.logger.Warn("load projects", slog.Any("error", err))
	}
	channels, err := h.api.Channels(r.Context())
	if err != nil {
		h.logger.Warn("load channels", slog.Any("error", err))
	}

	data := bindingsPageData{
		AccountID: accountID,
		Bindings:  bindings,
		Projects:  projects,
		Channels:  channels,
	}
	closeURL := fmt.Sprintf("/accounts/%d/bindings", accountID)
	if dlg, ok := h.dialogs.Resolve(dialog.FromQuery(r.URL.Query()), closeURL); ok {
		data.Dialog = dlg
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Account bindings",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, "pages/account_bindings.html", viewData); err != nil {
		h.logger.Error("render bindings", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleBind(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())

	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	back := fmt.Sprintf("/accounts/%d/bindings", accountID)

	projectCode, err := strconv.Atoi(r.PostFormValue("project_code"))
	if err != nil {
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Choose a project"})
		}
		httpx.Redirect(w, r, back+"?dialog=bind")
		return
	}
	channelCodes := parseChannelCodes(r.Form["channel_codes"])
	if len(channelCodes) == 0 {
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Choose at least one channel"})
		}
		httpx.Redirect(w, r, back+"?dialog=bind")
		return
	}

	_, err = h.api.CreateBinding(r.Context(), accountID, backend.BindingCreate{
		ProjectCode:  projectCode,
		ChannelCodes: channelCodes,
		BrowserID:    r.PostFormValue("browser_id"),
	})
	if err != nil {
		httpx.ReportError(h.logger, w, r, sess, err, back+"?dialog=bind")
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Project bound"})
	}
	httpx.Redirect(w, r, back)
}

func (h *Handler) handleUpdateBinding(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	back := httpx.BackURL(r, "/accounts")

	id, err := strconv.ParseInt(r.PostFormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	_, err = h.api.UpdateBinding(r.Context(), backend.BindingUpdate{
		ID:           id,
		ChannelCodes: parseChannelCodes(r.Form["channel_codes"]),
		BrowserID:    r.PostFormValue("browser_id"),
	})
	if err != nil {
		httpx.ReportError(h.logger, w, r, sess, err, back)
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Binding updated"})
	}
	httpx.Redirect(w, r, back)
}

func (h *Handler) handleUnbind(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	back := httpx.BackURL(r, "/accounts")

	id, err := strconv.ParseInt(r.PostFormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var flow dialog.Confirmation
	flow.Confirm(dialog.Request{
		Description: "Remove this project binding?",
		OnConfirm: func(ctx context.Context) error {
			return h.api.DeleteBinding(ctx, id)
		},
	})
	if err := flow.Accept(r.Context()); err != nil {
		httpx.ReportError(h.logger, w, r, sess, err, back)
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Binding removed"})
	}
	httpx.Redirect(w, r, back)
}

type settingsPageData struct {
	AccountID int64
	Groups    []backend.SettingGroup
}

func (h *Handler) showSettings(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)

	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	groups, err := h.api.AccountSettings(r.Context(), accountID)
	if err != nil {
		if httpx.HandleError(h.logger, w, r, sess, err) {
			return
		}
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Account settings",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        settingsPageData{AccountID: accountID, Groups: groups},
	}
	if err := h.templates.Render(w, "pages/account_settings.html", viewData); err != nil {
		h.logger.Error("render account settings", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleUpdateSetting(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())

	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	back := fmt.Sprintf("/accounts/%d/settings", accountID)

	settingKey, err := strconv.Atoi(r.PostFormValue("setting_key"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	_, err = h.api.UpdateAccountSetting(r.Context(), accountID, backend.SettingUpdate{
		SettingKey:   settingKey,
		SettingValue: r.PostFormValue("setting_value"),
	})
	if err != nil {
		httpx.ReportError(h.logger, w, r, sess, err, back)
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Setting saved"})
	}
	httpx.Redirect(w, r, back)
}

func (h *Handler) handleResetSetting(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())

	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	back := fmt.Sprintf("/accounts/%d/settings", accountID)

	settingKey, err := strconv.Atoi(r.PostFormValue("setting_key"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if _, err := h.api.ResetAccountSetting(r.Context(), accountID, settingKey); err != nil {
		httpx.ReportError(h.logger, w, r, sess, err, back)
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Setting restored to default"})
	}
	httpx.Redirect(w, r, back)
}

func parseChannelCodes(raw []string) []int {
	codes := make([]int, 0, len(raw))
	for _, v := range raw {
		if code, err := strconv.Atoi(v); err == nil {
			codes = append(codes, code)
		}
	}
	return codes
}
