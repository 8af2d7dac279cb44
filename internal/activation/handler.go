// Package activation implements the license-code pages: the filterable
// code list and the dialogs that generate, distribute, inspect and void
// codes.
package activation

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/pulseboard/pulseboard/internal/backend"
	"github.com/pulseboard/pulseboard/internal/dialog"
	"github.com/pulseboard/pulseboard/internal/listing"
	"github.com/pulseboard/pulseboard/internal/platform/httpx"
	"github.com/pulseboard/pulseboard/internal/shared"
	"github.com/pulseboard/pulseboard/internal/view"
)

// Handler wires the activation code endpoints.
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
			"init": {
				Title:       "Generate codes",
				Description: "Generate a batch of unused codes per card type.",
				Template:    "dialogs/activation_init.html",
			},
			"distribute": {
				Title:       "Distribute codes",
				Description: "Hand out unused codes of one type.",
				Template:    "dialogs/activation_distribute.html",
			},
			"detail": {
				Title:    "Code detail",
				Template: "dialogs/activation_detail.html",
			},
			"invalidate": {
				Title:    "Void code",
				Template: "dialogs/confirm.html",
				Class:    "danger",
			},
		},
	}
}

// MountRoutes registers activation routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showList)
	r.Post("/init", h.handleInit)
	r.Post("/distribute", h.handleDistribute)
	r.Post("/invalidate", h.handleInvalidate)
}

func listDefaults() listing.Filters {
	return listing.Filters{
		listing.KeyPage:        1,
		listing.KeySize:        10,
		"type":                 "all",
		"status":               "all",
		"activation_code":      "",
		"distributed_at_start": "",
		"distributed_at_end":   "",
		"activated_at_start":   "",
		"activated_at_end":     "",
		"expire_time_start":    "",
		"expire_time_end":      "",
	}
}

func (h *Handler) fetchPage(ctx context.Context, f listing.Filters) (listing.Page[backend.ActivationCode], error) {
	q := backend.ActivationQuery{
		PageQuery: backend.PageQuery{
			Page: f.Int(listing.KeyPage, 1),
			Size: f.Int(listing.KeySize, 10),
		},
		ActivationCode:     f.String("activation_code"),
		DistributedAtStart: f.String("distributed_at_start"),
		DistributedAtEnd:   f.String("distributed_at_end"),
		ActivatedAtStart:   f.String("activated_at_start"),
		ActivatedAtEnd:     f.String("activated_at_end"),
		ExpireTimeStart:    f.String("expire_time_start"),
		ExpireTimeEnd:      f.String("expire_time_end"),
	}
	q.Type = enumFilter(f.String("type"))
	q.Status = enumFilter(f.String("status"))

	page, err := h.api.ListActivationCodes(ctx, q)
	if err != nil {
		return listing.Page[backend.ActivationCode]{}, err
	}
	return listing.Page[backend.ActivationCode]{Items: page.Items, Pagination: page.Pagination()}, nil
}

// enumFilter turns the "all" sentinel into an absent filter.
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
	Items      []backend.ActivationCode
	Pagination shared.Pagination
	Filters    listing.Filters
	Query      string
	Dialog     *dialog.View
	Detail     *backend.ActivationCode
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

	closeURL := "/activation"
	if data.Query != "" {
		closeURL += "?" + data.Query
	}
	st := dialog.FromQuery(r.URL.Query())
	if st.Open {
		switch st.Type {
		case "detail":
			// The detail dialog pulls the full record fresh so the
			// newest lifecycle timestamps are shown.
			if code := r.URL.Query().Get("code"); code != "" {
				detail, err := h.api.ActivationCodeDetail(r.Context(), code)
				if err != nil {
					if httpx.HandleError(h.logger, w, r, sess, err) {
						return
					}
				} else {
					data.Detail = detail
					st.Data = detail
				}
			}
		case "invalidate":
			st.Data = r.URL.Query().Get("code")
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
		Title:       "Activation codes",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, "pages/activation.html", viewData); err != nil {
		h.logger.Error("render activation", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// handleInit reads one count field per card type and generates all
// requested batches in a single backend call.
func (h *Handler) handleInit(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	back := httpx.BackURL(r, "/activation")

	var items []backend.ActivationBatchItem
	for codeType := backend.ActivationTypeDay; codeType <= backend.ActivationTypePermanent; codeType++ {
		raw := r.PostFormValue("count_" + strconv.Itoa(codeType))
		if raw == "" {
			continue
		}
		count, err := strconv.Atoi(raw)
		if err != nil || count < 1 || count > 1000 {
			if sess != nil {
				sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Counts must be between 1 and 1000"})
			}
			httpx.Redirect(w, r, back+"?dialog=init")
			return
		}
		items = append(items, backend.ActivationBatchItem{Type: codeType, Count: count})
	}
	if len(items) == 0 {
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Enter a count for at least one card type"})
		}
		httpx.Redirect(w, r, back+"?dialog=init")
		return
	}

	result, err := h.api.InitActivationCodes(r.Context(), backend.ActivationBatch{Items: items})
	if err != nil {
		httpx.ReportError(h.logger, w, r, sess, err, back+"?dialog=init")
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{
			Kind:    "success",
			Message: "Generated " + strconv.Itoa(result.TotalCount) + " codes",
		})
	}
	httpx.Redirect(w, r, back)
}

type distributeForm struct {
	Type  int `validate:"min=0,max=3"`
	Count int `validate:"min=1,max=100"`
}

func (h *Handler) handleDistribute(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	back := httpx.BackURL(r, "/activation")

	codeType, typeErr := strconv.Atoi(r.PostFormValue("type"))
	count, countErr := strconv.Atoi(r.PostFormValue("count"))
	form := distributeForm{Type: codeType, Count: count}
	if typeErr != nil || countErr != nil || h.validator.Struct(form) != nil {
		if sess != nil {
			sess.AddFlash(shared.FlashMessage{Kind: "error", Message: "Pick a card type and a count between 1 and 100"})
		}
		httpx.Redirect(w, r, back+"?dialog=distribute")
		return
	}

	codes, err := h.api.DistributeActivationCodes(r.Context(), form.Type, form.Count)
	if err != nil {
		httpx.ReportError(h.logger, w, r, sess, err, back+"?dialog=distribute")
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{
			Kind:    "success",
			Message: "Distributed " + strconv.Itoa(len(codes)) + " codes: " + strings.Join(codes, ", "),
		})
	}
	httpx.Redirect(w, r, back)
}

func (h *Handler) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	back := httpx.BackURL(r, "/activation")

	code := r.PostFormValue("activation_code")
	if code == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var flow dialog.Confirmation
	flow.Confirm(dialog.Request{
		Description: "Void code " + code + "? This cannot be undone.",
		OnConfirm: func(ctx context.Context) error {
			return h.api.InvalidateActivationCode(ctx, code)
		},
	})
	if err := flow.Accept(r.Context()); err != nil {
		httpx.ReportError(h.logger, w, r, sess, err, back+"?dialog=invalidate&code="+url.QueryEscape(code))
		return
	}

	if sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Code voided"})
	}
	httpx.Redirect(w, r, back)
}
