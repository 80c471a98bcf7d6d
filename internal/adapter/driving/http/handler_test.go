package httphandler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	httphandler "github.com/ericfisherdev/doccomments/internal/adapter/driving/http"
	"github.com/ericfisherdev/doccomments/internal/adapter/driving/web"
	"github.com/ericfisherdev/doccomments/internal/application"
	"github.com/ericfisherdev/doccomments/internal/domain/model"
	"github.com/ericfisherdev/doccomments/internal/domain/port/driven"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockCommentSource struct {
	page       *model.CommentPage
	pageErr    error
	summary    *model.IssueSummary
	summaryErr error
	gotPage    int
}

func (m *mockCommentSource) FetchIssueSummary(_ context.Context, _ int) (*model.IssueSummary, error) {
	return m.summary, m.summaryErr
}

func (m *mockCommentSource) FetchCommentPage(_ context.Context, issue, page int) (*model.CommentPage, error) {
	m.gotPage = page
	if m.pageErr != nil {
		return nil, m.pageErr
	}
	if m.page != nil {
		return m.page, nil
	}
	return &model.CommentPage{IssueNumber: issue, Page: page}, nil
}

func (m *mockCommentSource) IssueURL(issue int) string {
	return "https://github.com/octo/docs/issues/" + strconv.Itoa(issue)
}

// --- Test helpers ---

func setupMux(source *mockCommentSource) http.Handler {
	return setupMuxWithPolicy(source, model.BodyPolicyTrust)
}

func setupMuxWithPolicy(source *mockCommentSource, policy model.BodyPolicy) http.Handler {
	logger := slog.New(slog.DiscardHandler)
	svc := application.NewThreadService(source, logger)
	h := httphandler.NewHandler(svc, web.NewBodyRenderer(policy), "octo/docs", logger)

	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, h)
	return mux
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func doGet(mux http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// --- Tests ---

func TestHealth(t *testing.T) {
	mux := setupMux(&mockCommentSource{})

	rec := doGet(mux, "/api/v1/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var resp httphandler.HealthResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "octo/docs", resp.Repo)
	assert.NotEmpty(t, resp.Time)
}

func TestListComments(t *testing.T) {
	source := &mockCommentSource{
		summary: &model.IssueSummary{Number: 7, CommentCount: 31},
		page: &model.CommentPage{
			IssueNumber: 7,
			Page:        2,
			Comments: []model.IssueComment{
				{
					ID:        11,
					Author:    model.CommentAuthor{Login: "alice", ProfileURL: "u/a", AvatarURL: "a.png"},
					CreatedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC),
					BodyHTML:  "<p>hi</p>",
				},
				{ID: 12, Author: model.CommentAuthor{Login: "bob"}},
			},
			LinkHeader: `<https://api.github.com/x?page=3>; rel="next", <https://api.github.com/x?page=4>; rel="last"`,
		},
	}
	mux := setupMux(source)

	rec := doGet(mux, "/api/v1/issues/7/comments?page=2")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, source.gotPage)

	var resp httphandler.CommentPageResponse
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "octo/docs", resp.Repository)
	assert.Equal(t, 7, resp.Issue)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, "https://github.com/octo/docs/issues/7", resp.IssueURL)
	require.NotNil(t, resp.CommentCount)
	assert.Equal(t, 31, *resp.CommentCount)

	require.Len(t, resp.Comments, 2)
	assert.Equal(t, int64(11), resp.Comments[0].ID)
	assert.Equal(t, "alice", resp.Comments[0].Author)
	assert.Equal(t, "2024-03-05T10:00:00Z", resp.Comments[0].CreatedAt)
	assert.Equal(t, "<p>hi</p>", resp.Comments[0].BodyHTML)
	assert.Equal(t, "bob", resp.Comments[1].Author)

	require.Contains(t, resp.Links, "next")
	assert.Equal(t, 3, resp.Links["next"].Page)
	assert.Equal(t, "https://api.github.com/x?page=4", resp.Links["last"].URL)
	assert.Empty(t, resp.LinkErrors)
}

func TestListComments_BodyPolicy(t *testing.T) {
	comments := []model.IssueComment{
		{ID: 1, BodyHTML: `<p onclick="steal()">hi</p><script>alert(1)</script>`},
		{ID: 2, Body: "**raw** markdown"},
	}

	tests := []struct {
		name     string
		policy   model.BodyPolicy
		wantHTML string
	}{
		{"trust keeps body_html", model.BodyPolicyTrust, `<p onclick="steal()">hi</p><script>alert(1)</script>`},
		{"sanitize strips scripts", model.BodyPolicySanitize, `<p>hi</p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &mockCommentSource{page: &model.CommentPage{IssueNumber: 7, Page: 1, Comments: comments}}
			mux := setupMuxWithPolicy(source, tt.policy)

			rec := doGet(mux, "/api/v1/issues/7/comments")

			require.Equal(t, http.StatusOK, rec.Code)

			var resp httphandler.CommentPageResponse
			decodeJSON(t, rec, &resp)
			require.Len(t, resp.Comments, 2)
			assert.Equal(t, tt.wantHTML, resp.Comments[0].BodyHTML)
			assert.Contains(t, resp.Comments[1].BodyHTML, "<strong>raw</strong> markdown")
		})
	}
}

func TestListComments_DefaultsToFirstPage(t *testing.T) {
	source := &mockCommentSource{}
	mux := setupMux(source)

	rec := doGet(mux, "/api/v1/issues/7/comments")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, source.gotPage)
}

func TestListComments_EmptyCollectionsAreArrays(t *testing.T) {
	mux := setupMux(&mockCommentSource{summaryErr: errors.New("boom")})

	rec := doGet(mux, "/api/v1/issues/7/comments")

	require.Equal(t, http.StatusOK, rec.Code)

	var raw map[string]any
	decodeJSON(t, rec, &raw)
	assert.Nil(t, raw["comment_count"])
	assert.Equal(t, []any{}, raw["comments"])
	assert.Equal(t, map[string]any{}, raw["links"])
	assert.Equal(t, []any{}, raw["link_errors"])
}

func TestListComments_ReportsMalformedLinks(t *testing.T) {
	source := &mockCommentSource{page: &model.CommentPage{
		LinkHeader: `<https://api.github.com/x?page=2>; rel="next", <https://api.github.com/x>; rel="last"`,
	}}
	mux := setupMux(source)

	rec := doGet(mux, "/api/v1/issues/7/comments")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp httphandler.CommentPageResponse
	decodeJSON(t, rec, &resp)
	assert.Contains(t, resp.Links, "next")
	assert.NotContains(t, resp.Links, "last")
	assert.Len(t, resp.LinkErrors, 1)
}

func TestListComments_UpstreamFailure(t *testing.T) {
	source := &mockCommentSource{
		pageErr: &driven.FetchError{StatusCode: http.StatusNotFound, Err: errors.New("Not Found")},
	}
	mux := setupMux(source)

	rec := doGet(mux, "/api/v1/issues/7/comments")

	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp map[string]any
	decodeJSON(t, rec, &resp)
	assert.Equal(t, "comments are unavailable", resp["error"])
	assert.InDelta(t, 404, resp["upstream_status"], 0)
}

func TestListComments_InternalFailure(t *testing.T) {
	mux := setupMux(&mockCommentSource{pageErr: errors.New("decode failed")})

	rec := doGet(mux, "/api/v1/issues/7/comments")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListComments_BadRequest(t *testing.T) {
	mux := setupMux(&mockCommentSource{})

	tests := []struct {
		name string
		path string
		want string
	}{
		{"non-numeric issue", "/api/v1/issues/abc/comments", "invalid issue number"},
		{"zero issue", "/api/v1/issues/0/comments", "invalid issue number"},
		{"non-numeric page", "/api/v1/issues/7/comments?page=two", "invalid page number"},
		{"zero page", "/api/v1/issues/7/comments?page=0", "invalid page number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doGet(mux, tt.path)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]string
			decodeJSON(t, rec, &resp)
			assert.Equal(t, tt.want, resp["error"])
		})
	}
}

func TestApplyMiddleware_RecoversPanic(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	panicky := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})
	handler := httphandler.ApplyMiddleware(panicky, logger)

	rec := doGet(handler, "/embed/issues/7")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, logs.String(), `"msg":"panic recovered"`)
	assert.Contains(t, logs.String(), `"status":500`)
}

func TestApplyMiddleware_LogsRequest(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	handler := httphandler.ApplyMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}), logger)

	req := httptest.NewRequest(http.MethodGet, "/embed/threads/x/comments?issue=7&page=2", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, "/embed/threads/x/comments", entry["path"])
	assert.Equal(t, "issue=7&page=2", entry["query"])
	assert.InDelta(t, 200, entry["status"], 0)
	assert.InDelta(t, 5, entry["bytes"], 0)
	assert.Equal(t, true, entry["htmx"])
}
