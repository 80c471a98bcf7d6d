package driven

import (
	"context"
	"errors"
	"fmt"

	"github.com/ericfisherdev/doccomments/internal/domain/model"
)

// ErrThreadNotFound is returned when a load-more request names a thread that
// was never created or has been evicted.
var ErrThreadNotFound = errors.New("comment thread not found")

// CommentSource defines the driven port for reading an issue's comment thread
// from the issue tracker.
type CommentSource interface {
	// FetchIssueSummary returns issue-level metadata, including the total
	// comment count.
	FetchIssueSummary(ctx context.Context, issueNumber int) (*model.IssueSummary, error)

	// FetchCommentPage returns one page of comments (1-based) with their
	// pre-rendered HTML bodies and the raw Link header of the response.
	FetchCommentPage(ctx context.Context, issueNumber int, page int) (*model.CommentPage, error)

	// IssueURL returns the human-facing URL of the issue.
	IssueURL(issueNumber int) string
}

// FetchError reports a failed upstream request. StatusCode is the HTTP status
// the upstream answered with, or 0 when no response was received.
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upstream request failed: %v", e.Err)
	}
	return fmt.Sprintf("upstream returned status %d: %v", e.StatusCode, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the upstream status code from err, or 0 if err does not
// carry one.
func StatusCode(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.StatusCode
	}
	return 0
}
