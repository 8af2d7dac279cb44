// Package task implements the read-only scheduled-run list: every
// collection run with its status, timing and error detail.
package task

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pulseboard/pulseboard/internal/backend"
	"github.com/pulseboard/pulseboard/internal/listing"
	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/shared"
	"github.com/pulseboard/pulseboard/internal/view"
)

// Handler wires the task list endpoint.
type Handler struct {
	logger      *slog.Logger
	api         *backend.Client
	templates   *view.Engine
	csrfManager *shared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, api *backend.Client, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, api: api, templates: templates, csrfManager: csrf}
}

// MountRoutes registers task routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showList)
}

func listDefaults() listing.Filters {
	return listing.Filters{
		listing.KeyPage: 1,
		listing.KeySize: 10,
		"channel_code":  "all",
		"task_type":     "all",
		"task_status":   "all",
		"start_date":    "",
		"end_date":      "",
	}
}

func (h *Handler) fetchPage(ctx context.Context, f listing.Filters) (listing.Page[backend.MonitorTask], error) {
	q := backend.TaskQuery{
		PageQuery: backend.PageQuery{
			Page: f.Int(listing.KeyPage, 1),
			Size: f.Int(listing.KeySize, 10),
		},
		StartDate: f.String("start_date"),
		EndDate:   f.String("end_date"),
	}
	q.ChannelCode = enumFilter(f.String("channel_code"))
	q.TaskType = enumFilter(f.String("task_type"))
	q.TaskStatus = enumFilter(f.String("task_status"))

	page, err := h.api.ListTasks(ctx, q)
	if err != nil {
		return listing.Page[backend.MonitorTask]{}, err
	}
	return listing.Page[backend.MonitorTask]{Items: page.Items, Pagination: page.Pagination()}, nil
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
	Items      []backend.MonitorTask
	Pagination shared.Pagination
	Filters    listing.Filters
	Query      string
	Channels   []backend.EnumItem
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

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Scheduled tasks",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data: listPageData{
			Items:      ctrl.Items(),
			Pagination: ctrl.Pagination(),
			Filters:    ctrl.Filters(),
			Query:      ctrl.Query().Encode(),
			Channels:   channels,
		},
	}
	if err := h.templates.Render(w, "pages/tasks.html", viewData); err != nil {
		h.logger.Error("render tasks", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
