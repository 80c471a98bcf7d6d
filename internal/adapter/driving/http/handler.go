package httphandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/doccomments/internal/application"
	"github.com/ericfisherdev/doccomments/internal/domain/model"
	"github.com/ericfisherdev/doccomments/internal/domain/port/driven"
)

// BodyRenderer produces the body_html of a comment under the configured
// body policy.
type BodyRenderer interface {
	Render(c model.IssueComment) string
}

// Handler is the HTTP driving adapter that serves the JSON API.
type Handler struct {
	threadSvc *application.ThreadService
	body      BodyRenderer
	repo      string
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(threadSvc *application.ThreadService, body BodyRenderer, repo string, logger *slog.Logger) *Handler {
	return &Handler{
		threadSvc: threadSvc,
		body:      body,
		repo:      repo,
		logger:    logger,
	}
}

// RegisterAPIRoutes registers the JSON API routes on the provided mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/issues/{issue}/comments", h.ListComments)
}

// ApplyMiddleware wraps handler with logging and recovery middleware.
func ApplyMiddleware(handler http.Handler, logger *slog.Logger) http.Handler {
	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, handler)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// ListComments returns one page of an issue's comments with its pagination
// links. The page query parameter defaults to 1.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	issueID, err := strconv.Atoi(r.PathValue("issue"))
	if err != nil || issueID < 1 {
		writeError(w, http.StatusBadRequest, "invalid issue number")
		return
	}

	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil || page < 1 {
			writeError(w, http.StatusBadRequest, "invalid page number")
			return
		}
	}

	result, err := h.threadSvc.FetchPage(r.Context(), issueID, page)
	if err != nil {
		var fetchErr *driven.FetchError
		if errors.As(err, &fetchErr) {
			h.logger.Warn("upstream comments request failed", "issue", issueID, "page", page, "status", fetchErr.StatusCode, "error", err)
			writeJSON(w, http.StatusBadGateway, upstreamErrorResponse{
				Error:          "comments are unavailable",
				UpstreamStatus: fetchErr.StatusCode,
			})
			return
		}
		h.logger.Error("failed to fetch comments", "issue", issueID, "page", page, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toCommentPageResponse(h.repo, issueID, page, h.threadSvc.IssueURL(issueID), result, h.body))
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Repo:   h.repo,
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
