// Package settings implements the global configuration page. Settings
// arrive from the backend grouped by section with a wire type per key;
// values are coerced back to that type before saving.
package settings

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pulseboard/pulseboard/internal/backend"
	"github.com/pulseboard/pulseboard/internal/dialog"
	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/shared"
	"github.com/pulseboard/pulseboard/internal/view"
)

// Handler wires the global settings endpoints.
type Handler struct {
	logger      *slog.Logger
	api         *backend.Client
	templates   *view.Engine
	csrfManager *shared.CSRFManager
	dialogs     dialog.Registry
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, api *backend.Client, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:      logger,
		api:         api,
		templates:   templates,
		csrfManager: csrf,
		dialogs: dialog.Registry{
			"reset": {
				Title:    "Reset setting",
				Template: "dialogs/confirm.html",
			},
		},
	}
}

// MountRoutes registers settings routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showSettings)
	r.Post("/update", h.handleUpdate)
	r.Post("/reset", h.handleReset)
}

type pageData struct {
	Groups []backend.SettingGroup
	Meta   map[int]backend.SettingMeta
	Dialog *dialog.View
}

func (h *Handler) showSettings(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)

	groups, err := h.api.AllSettings(r.Context())
	if err != nil {
		if httpx.HandleError(h.logger, w, r, sess, err) {
			return
		}
	}

	// Metadata drives form rendering (select options, defaults); the
	// page still works without it.
	meta := map[int]backend.SettingMeta{}
	if metaGroups, err := h.api.SettingsMetadata(r.Context()); err != nil {
		h.logger.Warn("load settings metadata", slog.Any("error", err))
	} else {
		for _, g := range metaGroups {
			for _, m := range g.Settings {
				meta[m.Code] = m
			}
		}
	}

	data := pageData{Groups: groups, Meta: meta}
	st := dialog.FromQuery(r.URL.Query())
	if st.Open && st.Type == "reset" {
		if key, err := strconv.Atoi(r.URL.Query().Get("key")); err == nil {
			st.Data = findSetting(groups, key)
		}
	}
	if dlg, ok := h.dialogs.Resolve(st, "/settings"); ok {
		data.Dialog = dlg
	}

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Settings",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, "pages/settings.html", viewData); err != nil {
		h.logger.Error("render settings", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	back := httpx.BackURL(r, "/settings")

	settingKey, err := strconv.Atoi(r.PostFormValue("setting_key"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	value := coerceValue(r.PostFormValue("setting_value"), r.PostFormValue("value_type"))
	setting, err := h.api.UpdateSetting(r.Context(), backend.SettingUpdate{
		SettingKey:   settingKey,
		SettingValue: value,
	})
	if err != nil {
		httpx.ReportError(h.logger, w, r, sess, err, back)
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: setting.SettingKeyName + " saved"})
	}
	httpx.Redirect(w, r, back)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	back := httpx.BackURL(r, "/settings")

	settingKey, err := strconv.Atoi(r.PostFormValue("setting_key"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var flow dialog.Confirmation
	flow.Confirm(dialog.Request{
		Description: "Restore this setting to its default value?",
		OnConfirm: func(ctx context.Context) error {
			_, err := h.api.ResetSetting(ctx, settingKey)
			return err
		},
	})
	if err := flow.Accept(r.Context()); err != nil {
		httpx.ReportError(h.logger, w, r, sess, err, back+"?dialog=reset&key="+strconv.Itoa(settingKey))
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Setting restored to default"})
	}
	httpx.Redirect(w, r, back)
}

func findSetting(groups []backend.SettingGroup, key int) *backend.Setting {
	for _, g := range groups {
		for i := range g.Settings {
			if g.Settings[i].SettingKey == key {
				return &g.Settings[i]
			}
		}
	}
	return nil
}

// coerceValue converts a form value to the declared wire type. Checkbox
// inputs post "on" for checked booleans, nothing for unchecked ones.
func coerceValue(raw, valueType string) any {
	switch valueType {
	case "bool":
		return raw == "on" || raw == "true" || raw == "1"
	case "int":
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	case "float":
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	}
	return raw
}
