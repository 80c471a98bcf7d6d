// Package github implements the CommentSource port using the go-github library.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/doccomments/internal/domain/model"
	"github.com/ericfisherdev/doccomments/internal/domain/port/driven"
)

// mediaTypeHTML asks GitHub to return comment bodies pre-rendered as body_html.
const mediaTypeHTML = "application/vnd.github.v3.html+json"

// Compile-time interface satisfaction check.
var _ driven.CommentSource = (*Client)(nil)

// Options configures a Client. Zero values fall back to github.com defaults.
type Options struct {
	Token     string        // Optional; public repositories work unauthenticated.
	APIURL    string        // REST base URL, e.g. "https://api.github.com/".
	WebURL    string        // Human-facing base URL, e.g. "https://github.com/".
	PerPage   int           // Comments per page; 0 leaves the GitHub default.
	Timeout   time.Duration // Per-request timeout; 0 means none.
	UserAgent string        // Overrides go-github's default User-Agent.
}

// Client implements the driven.CommentSource port for a single repository.
type Client struct {
	gh      *gh.Client
	owner   string
	repo    string
	webURL  *url.URL
	perPage int
}

// NewClient creates a GitHub API client for repoFullName ("owner/repo") with
// the following transport stack:
//  1. httpcache (ETag-based conditional request caching, in memory)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client, optional PAT auth)
func NewClient(repoFullName string, opts Options) (*Client, error) {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	rateLimitClient.Timeout = opts.Timeout

	client := gh.NewClient(rateLimitClient)
	if opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}

	return newClient(client, repoFullName, opts)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URLs.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, apiURL, webURL, repoFullName string, perPage int) (*Client, error) {
	return newClient(gh.NewClient(httpClient), repoFullName, Options{
		APIURL:  apiURL,
		WebURL:  webURL,
		PerPage: perPage,
	})
}

func newClient(client *gh.Client, repoFullName string, opts Options) (*Client, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	if opts.APIURL != "" {
		u, err := url.Parse(withTrailingSlash(opts.APIURL))
		if err != nil {
			return nil, fmt.Errorf("parsing API base URL: %w", err)
		}
		client.BaseURL = u
	}
	if opts.UserAgent != "" {
		client.UserAgent = opts.UserAgent
	}

	webRaw := opts.WebURL
	if webRaw == "" {
		webRaw = "https://github.com/"
	}
	webURL, err := url.Parse(withTrailingSlash(webRaw))
	if err != nil {
		return nil, fmt.Errorf("parsing web base URL: %w", err)
	}

	return &Client{
		gh:      client,
		owner:   owner,
		repo:    repo,
		webURL:  webURL,
		perPage: opts.PerPage,
	}, nil
}

// FetchIssueSummary retrieves the issue's metadata, including its total comment count.
func (c *Client) FetchIssueSummary(ctx context.Context, issueNumber int) (*model.IssueSummary, error) {
	issue, resp, err := c.gh.Issues.Get(ctx, c.owner, c.repo, issueNumber)
	if err != nil {
		return nil, fetchError(resp, fmt.Errorf("fetching issue %s#%d: %w", c.fullName(), issueNumber, err))
	}

	logRateLimit(resp, c.fullName()+"/issue", 0, 1)

	return &model.IssueSummary{
		Number:       issue.GetNumber(),
		CommentCount: issue.GetComments(),
		HTMLURL:      issue.GetHTMLURL(),
	}, nil
}

// FetchCommentPage retrieves a single page of issue comments with bodies
// rendered to HTML by GitHub. It does not follow pagination; the raw Link
// header is returned to the caller.
func (c *Client) FetchCommentPage(ctx context.Context, issueNumber int, page int) (*model.CommentPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if c.perPage > 0 {
		q.Set("per_page", strconv.Itoa(c.perPage))
	}
	path := fmt.Sprintf("repos/%s/%s/issues/%d/comments?%s", c.owner, c.repo, issueNumber, q.Encode())

	req, err := c.gh.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("building comments request for %s#%d: %w", c.fullName(), issueNumber, err)
	}
	req.Header.Set("Accept", mediaTypeHTML)

	var comments []*issueCommentJSON
	resp, err := c.gh.Do(ctx, req, &comments)
	if err != nil {
		return nil, fetchError(resp, fmt.Errorf("listing comments for %s#%d (page %d): %w", c.fullName(), issueNumber, page, err))
	}

	logRateLimit(resp, c.fullName()+"/comments", page, len(comments))

	result := &model.CommentPage{
		IssueNumber: issueNumber,
		Page:        page,
		Comments:    make([]model.IssueComment, 0, len(comments)),
		LinkHeader:  resp.Header.Get("Link"),
	}
	for _, cm := range comments {
		result.Comments = append(result.Comments, mapIssueComment(cm))
	}

	return result, nil
}

// IssueURL returns the issue's page on the GitHub web UI.
func (c *Client) IssueURL(issueNumber int) string {
	return c.webURL.JoinPath(c.owner, c.repo, "issues", strconv.Itoa(issueNumber)).String()
}

func (c *Client) fullName() string {
	return c.owner + "/" + c.repo
}

// issueCommentJSON is the subset of an issue comment returned under the HTML
// media type. go-github's IssueComment has no body_html field.
type issueCommentJSON struct {
	ID        int64         `json:"id"`
	User      *gh.User      `json:"user"`
	CreatedAt *gh.Timestamp `json:"created_at"`
	Body      string        `json:"body"`
	BodyHTML  string        `json:"body_html"`
}

// mapIssueComment converts a decoded comment to a domain model IssueComment.
// It uses GetXxx() helper methods on the user to avoid nil pointer panics.
func mapIssueComment(c *issueCommentJSON) model.IssueComment {
	var createdAt time.Time
	if c.CreatedAt != nil {
		createdAt = c.CreatedAt.Time
	}

	return model.IssueComment{
		ID: c.ID,
		Author: model.CommentAuthor{
			Login:      c.User.GetLogin(),
			ProfileURL: c.User.GetHTMLURL(),
			AvatarURL:  c.User.GetAvatarURL(),
		},
		CreatedAt: createdAt,
		BodyHTML:  c.BodyHTML,
		Body:      c.Body,
	}
}

// fetchError wraps err in a driven.FetchError carrying the response status, if any.
func fetchError(resp *gh.Response, err error) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	return &driven.FetchError{StatusCode: status, Err: err}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 10 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}

func withTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
