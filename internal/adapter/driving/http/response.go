package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/doccomments/internal/application"
	"github.com/ericfisherdev/doccomments/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// upstreamErrorResponse reports a failed GitHub request and the status it returned.
type upstreamErrorResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstream_status"`
}

// HealthResponse is the JSON representation of the health check.
type HealthResponse struct {
	Status string `json:"status"`
	Repo   string `json:"repo"`
	Time   string `json:"time"`
}

// CommentPageResponse is the JSON representation of one page of issue comments.
type CommentPageResponse struct {
	Repository   string                  `json:"repository"`
	Issue        int                     `json:"issue"`
	IssueURL     string                  `json:"issue_url"`
	Page         int                     `json:"page"`
	CommentCount *int                    `json:"comment_count"` // null when the metadata request failed.
	Comments     []CommentResponse       `json:"comments"`
	Links        map[string]LinkResponse `json:"links"`
	LinkErrors   []string                `json:"link_errors"`
}

// CommentResponse is the JSON representation of a single comment.
type CommentResponse struct {
	ID         int64  `json:"id"`
	Author     string `json:"author"`
	ProfileURL string `json:"profile_url"`
	AvatarURL  string `json:"avatar_url"`
	CreatedAt  string `json:"created_at"`
	BodyHTML   string `json:"body_html"`
}

// LinkResponse is the JSON representation of one pagination link.
type LinkResponse struct {
	URL  string `json:"url"`
	Page int    `json:"page"`
}

func toCommentPageResponse(repo string, issueID, page int, issueURL string, r *application.PageResult, body BodyRenderer) CommentPageResponse {
	resp := CommentPageResponse{
		Repository: repo,
		Issue:      issueID,
		IssueURL:   issueURL,
		Page:       page,
		Comments:   make([]CommentResponse, 0, len(r.Page.Comments)),
		Links:      make(map[string]LinkResponse, len(r.Links)),
		LinkErrors: make([]string, 0, len(r.LinkErrors)),
	}

	if r.Summary != nil {
		count := r.Summary.CommentCount
		resp.CommentCount = &count
	}

	for _, c := range r.Page.Comments {
		resp.Comments = append(resp.Comments, toCommentResponse(c, body))
	}
	for rel, link := range r.Links {
		resp.Links[rel] = LinkResponse{URL: link.URL, Page: link.Page}
	}
	for _, err := range r.LinkErrors {
		resp.LinkErrors = append(resp.LinkErrors, err.Error())
	}

	return resp
}

// toCommentResponse applies the body policy, so body_html matches what the
// embedded thread shows for the same comment.
func toCommentResponse(c model.IssueComment, body BodyRenderer) CommentResponse {
	return CommentResponse{
		ID:         c.ID,
		Author:     c.Author.Login,
		ProfileURL: c.Author.ProfileURL,
		AvatarURL:  c.Author.AvatarURL,
		CreatedAt:  c.CreatedAt.UTC().Format(time.RFC3339),
		BodyHTML:   body.Render(c),
	}
}
