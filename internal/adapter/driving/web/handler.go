// Package web implements the HTML driving adapter: embeddable comment thread
// regions and their HTMX load-more endpoints, rendered with templ components.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/doccomments/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/doccomments/internal/application"
	"github.com/ericfisherdev/doccomments/internal/domain/model"
	"github.com/ericfisherdev/doccomments/internal/domain/port/driven"
)

// Handler is the web driving adapter that serves thread regions as HTML fragments.
type Handler struct {
	threadSvc *application.ThreadService
	threads   *application.ThreadRegistry
	views     viewBuilder
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies. publicBase is
// prepended to load-more URLs; pass "" to keep them host-relative.
func NewHandler(
	threadSvc *application.ThreadService,
	threads *application.ThreadRegistry,
	body *BodyRenderer,
	publicBase string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		threadSvc: threadSvc,
		threads:   threads,
		views:     viewBuilder{body: body, publicBase: strings.TrimSuffix(publicBase, "/")},
		logger:    logger,
	}
}

// EmbedIssue creates a new thread for the issue and renders its region with
// the first page of comments.
func (h *Handler) EmbedIssue(w http.ResponseWriter, r *http.Request) {
	issueID, err := positiveInt(r.PathValue("issue"))
	if err != nil {
		http.Error(w, "invalid issue number", http.StatusBadRequest)
		return
	}

	thread := h.threads.Create(issueID)

	render, err := h.threadSvc.LoadComments(r.Context(), thread, 1)
	if err != nil {
		h.handleLoadError(w, r, err)
		return
	}

	h.renderHTML(w, r, templates.ThreadRegion(h.views.toThreadViewModel(render)))
}

// LoadMore loads the requested page into an existing thread and renders the
// fragments to append, plus an out-of-band update of the load-more control.
// A thread evicted from the registry is resumed under the same ID.
func (h *Handler) LoadMore(w http.ResponseWriter, r *http.Request) {
	issueID, err := positiveInt(r.URL.Query().Get("issue"))
	if err != nil {
		http.Error(w, "invalid issue number", http.StatusBadRequest)
		return
	}

	page, err := positiveInt(r.URL.Query().Get("page"))
	if err != nil {
		http.Error(w, "invalid page number", http.StatusBadRequest)
		return
	}

	thread, err := h.threads.Resume(r.PathValue("thread"), issueID)
	if err != nil {
		if errors.Is(err, driven.ErrThreadNotFound) {
			http.Error(w, "thread not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to resume thread", "thread", r.PathValue("thread"), "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	render, err := h.threadSvc.LoadComments(r.Context(), thread, page)
	if err != nil {
		h.handleLoadError(w, r, err)
		return
	}

	h.renderHTML(w, r, templates.PageFragments(h.views.toPageViewModel(render)))
}

// RenderThread loads pages of an issue's comments into a fresh thread and
// renders the resulting region. With all set it keeps activating the
// load-more control until no next page remains.
func (h *Handler) RenderThread(ctx context.Context, issueID, page int, all bool) (templ.Component, error) {
	thread := h.threads.Create(issueID)

	render, err := h.threadSvc.LoadComments(ctx, thread, page)
	if err != nil {
		return nil, err
	}
	region := h.views.toThreadViewModel(render)

	for all && render.State == model.ThreadStateRenderedWithMore {
		render, err = h.threadSvc.LoadComments(ctx, thread, render.Control.NextPage)
		if err != nil {
			return nil, err
		}
		h.views.appendPage(&region, render)
	}

	return templates.ThreadRegion(region), nil
}

func (h *Handler) handleLoadError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, application.ErrSuperseded):
		// A newer request for this thread owns the response.
		w.WriteHeader(http.StatusNoContent)
	case r.Context().Err() != nil:
		h.logger.Debug("client went away", "path", r.URL.Path)
	default:
		h.logger.Error("failed to load comments", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) renderHTML(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render fragment", "path", r.URL.Path, "error", err)
	}
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
