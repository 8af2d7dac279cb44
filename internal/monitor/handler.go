// Package monitor implements the channel-watch pages: the config list
// with create, edit, toggle and delete flows, plus the per-config daily
// metrics view.
package monitor

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pulseboard/pulseboard/internal/backend"
	"github.com/pulseboard/pulseboard/internal/dialog"
	"github.com/pulseboard/pulseboard/internal/listing"
	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/shared"
	"github.com/pulseboard/pulseboard/internal/view"
)

// Handler wires the monitor config endpoints.
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
				Title:    "Watch a target",
				Template: "dialogs/monitor_form.html",
			},
			"edit": {
				Title:       "Change target link",
				Description: "Only the link can change; the channel is fixed.",
				Template:    "dialogs/monitor_edit.html",
			},
			"delete": {
				Title:    "Stop watching",
				Template: "dialogs/confirm.html",
				Class:    "danger",
			},
		},
	}
}

// MountRoutes registers monitor routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showList)
	r.Post("/create", h.handleCreate)
	r.Post("/update", h.handleUpdate)
	r.Post("/toggle", h.handleToggle)
	r.Post("/delete", h.handleDelete)
	r.Get("/{configID}/stats", h.showStats)
}

func listDefaults() listing.Filters {
	return listing.Filters{
		listing.KeyPage:    1,
		listing.KeySize:    10,
		"account_name":     "",
		"channel_code":     "all",
		"is_active":        "all",
		"created_at_start": "",
		"created_at_end":   "",
	}
}

func (h *Handler) fetchPage(ctx context.Context, f listing.Filters) (listing.Page[backend.MonitorConfig], error) {
	q := backend.MonitorQuery{
		PageQuery: backend.PageQuery{
			Page: f.Int(listing.KeyPage, 1),
			Size: f.Int(listing.KeySize, 10),
		},
		AccountName:    f.String("account_name"),
		CreatedAtStart: f.String("created_at_start"),
		CreatedAtEnd:   f.String("created_at_end"),
	}
	q.ChannelCode = enumFilter(f.String("channel_code"))
	q.IsActive = enumFilter(f.String("is_active"))

	page, err := h.api.ListMonitorConfigs(ctx, q)
	if err != nil {
		return listing.Page[backend.MonitorConfig]{}, err
	}
	return listing.Page[backend.MonitorConfig]{Items: page.Items, Pagination: page.Pagination()}, nil
}

func enumFilter(raw string) *int {
	if raw == "" || raw == "all" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

type listPageData struct {
	Items      []backend.MonitorConfig
	Pagination shared.Pagination
	Filters    listing.Filters
	Query      string
	Channels   []backend.EnumItem
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

	channels, err := h.api.Channels(r.Context())
	if err != nil {
		h.logger.Warn("load channels", slog.Any("error", err))
	}

	data := listPageData{
		Items:      ctrl.Items(),
		Pagination: ctrl.Pagination(),
		Filters:    ctrl.Filters(),
		Query:      ctrl.Query().Encode(),
		Channels:   channels,
	}

	closeURL := "/monitor"
	if data.Query != "" {
		closeURL += "?" + data.Query
	}
	st := dialog.FromQuery(r.URL.Query())
	if st.Open && (st.Type == "edit" || st.Type == "delete") {
		if id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64); err == nil {
			for _, cfg := range data.Items {
				if cfg.ID == id {
					st.Data = cfg
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
		Title:       "Monitors",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, "pages/monitor.html", viewData); err != nil {
		h.logger.Error("render monitor", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type createForm struct {
	ChannelCode int    `validate:"min=1,max=5"`
	TargetURL   string `validate:"required,url"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	back := httpx.BackURL(r, "/monitor")

	channelCode, err := strconv.Atoi(r.PostFormValue("channel_code"))
	form := createForm{ChannelCode: channelCode, TargetURL: r.PostFormValue("target_url")}
	if err != nil || h.validator.Struct(form) != nil {
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Pick a channel and enter a valid target link"})
		}
		httpx.Redirect(w, r, back+"?dialog=create")
		return
	}

	_, err = h.api.CreateMonitorConfig(r.Context(), backend.MonitorCreate{
		ChannelCode: form.ChannelCode,
		TargetURL:   form.TargetURL,
	})
	if err != nil {
		httpx.ReportError(h.logger, w, r, sess, err, back+"?dialog=create")
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Monitor created"})
	}
	httpx.Redirect(w, r, back)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	back := httpx.BackURL(r, "/monitor")

	id, err := strconv.ParseInt(r.PostFormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	targetURL := r.PostFormValue("target_url")
	if targetURL == "" {
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Target link is required"})
		}
		httpx.Redirect(w, r, back+"?dialog=edit&id="+strconv.FormatInt(id, 10))
		return
	}

	if _, err := h.api.UpdateMonitorConfig(r.Context(), id, targetURL); err != nil {
		httpx.ReportError(h.logger, w, r, sess, err, back)
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Monitor updated"})
	}
	httpx.Redirect(w, r, back)
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	back := httpx.BackURL(r, "/monitor")

	id, err := strconv.ParseInt(r.PostFormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	active := r.PostFormValue("is_active") == "1"

	cfg, err := h.api.ToggleMonitorConfig(r.Context(), id, active)
	if err != nil {
		httpx.ReportError(h.logger, w, r, sess, err, back)
		return
	}

	if sess != nil {
		message := "Monitor paused"
		if cfg.IsActive == 1 {
			message = "Monitor resumed"
		}
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: message})
	}
	httpx.Redirect(w, r, back)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	back := httpx.BackURL(r, "/monitor")

	id, err := strconv.ParseInt(r.PostFormValue("id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var flow dialog.Confirmation
	flow.Confirm(dialog.Request{
		Description: "Stop watching this target? Collected stats are kept.",
		OnConfirm: func(ctx context.Context) error {
			return h.api.DeleteMonitorConfig(ctx, id)
		},
	})
	if err := flow.Accept(r.Context()); err != nil {
		httpx.ReportError(h.logger, w, r, sess, err, back+"?dialog=delete&id="+strconv.FormatInt(id, 10))
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Monitor deleted"})
	}
	httpx.Redirect(w, r, back)
}

type statsPageData struct {
	ConfigID  int64
	StartDate string
	EndDate   string
	Stats     []backend.MonitorDailyStats
}

// showStats renders the per-day metrics of one config. The range defaults
// to the last 30 days.
func (h *Handler) showStats(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)

	configID, err := strconv.ParseInt(chi.URLParam(r, "configID"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	endDate := r.URL.Query().Get("end_date")
	startDate := r.URL.Query().Get("start_date")
	if endDate == "" {
		endDate = time.Now().Format("2006-01-02")
	}
	if startDate == "" {
		startDate = time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	}

	stats, err := h.api.MonitorDailyStatsRange(r.Context(), configID, startDate, endDate)
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
		Title:       "Daily stats",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data: statsPageData{
			ConfigID:  configID,
			StartDate: startDate,
			EndDate:   endDate,
			Stats:     stats,
		},
	}
	if err := h.templates.Render(w, "pages/monitor_stats.html", viewData); err != nil {
		h.logger.Error("render monitor stats", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
