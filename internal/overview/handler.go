package overview

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/shared"
	"github.com/pulseboard/pulseboard/internal/view"
)

// Handler serves the dashboard landing page.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	cache       *Cache
	templates   *view.Engine
	csrfManager *shared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, cache *Cache, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		cache:       cache,
		templates:   templates,
		csrfManager: csrf,
	}
}

type pageData struct {
	Snapshot  Snapshot
	FromCache bool
}

// ShowOverview renders the cached snapshot, falling back to a live
// build when the cache is cold.
func (h *Handler) ShowOverview(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)

	data := pageData{FromCache: true}
	snap, err := h.cache.Load(r.Context())
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			h.logger.Warn("load overview snapshot", slog.Any("error", err))
		}
		data.FromCache = false
		snap, err = h.service.BuildSnapshot(r.Context())
		if err != nil {
			if httpx.HandleError(h.logger, w, r, sess, err) {
				return
			}
			// Render the degraded page with zero counters but never
			// cache them; the next visit retries the build.
		} else if storeErr := h.cache.Store(r.Context(), snap); storeErr != nil {
			h.logger.Warn("store overview snapshot", slog.Any("error", storeErr))
		}
	}
	data.Snapshot = snap

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Overview",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, "pages/overview.html", viewData); err != nil {
		h.logger.Error("render overview", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Refresher rebuilds and caches the snapshot, used by the background
// worker.
type Refresher struct {
	service *Service
	cache   *Cache
}

// NewRefresher constructs a Refresher instance.
func NewRefresher(service *Service, cache *Cache) *Refresher {
	return &Refresher{service: service, cache: cache}
}

// Refresh builds a fresh snapshot and stores it.
func (r *Refresher) Refresh(ctx context.Context) (Snapshot, error) {
	snap, err := r.service.BuildSnapshot(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if err := r.cache.Store(ctx, snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
