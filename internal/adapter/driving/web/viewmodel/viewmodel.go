// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// ThreadViewModel holds presentation-ready data for a whole thread region:
// the comment list container and its load-more control.
type ThreadViewModel struct {
	ID        string
	ElementID string // "gh-comments-<thread>"
	ListID    string // "gh-comments-list-<thread>"
	IssueID   int
	Fragments []FragmentViewModel
	Control   LoadMoreViewModel

	CommentCount      int
	CommentCountKnown bool
}

// PageViewModel holds the fragments appended by one load-more activation.
// Control is nil when the control must be left untouched.
type PageViewModel struct {
	Fragments []FragmentViewModel
	Control   *LoadMoreViewModel
}

// FragmentViewModel is one entry in the comment list. Exactly one of
// CallToAction, Comment and Unavailable is set.
type FragmentViewModel struct {
	CallToAction *CallToActionViewModel
	Comment      *CommentViewModel
	Unavailable  *UnavailableViewModel
}

// CallToActionViewModel links readers to the issue's new-comment form.
type CallToActionViewModel struct {
	PostURL string
}

// CommentViewModel holds presentation-ready data for a single comment.
type CommentViewModel struct {
	ID         int64
	Author     string
	ProfileURL string
	AvatarURL  string
	PostedAt   string // RFC 1123 in UTC, e.g. "Mon, 01 Jan 2024 00:00:00 GMT".
	PostedISO  string // RFC 3339, for the datetime attribute.
	BodyHTML   string
}

// UnavailableViewModel is shown in place of comments when they could not be loaded.
type UnavailableViewModel struct {
	StatusCode int
}

// LoadMoreViewModel holds the state of a thread's load-more control.
type LoadMoreViewModel struct {
	ElementID  string // "gh-load-comments-<thread>"
	ListID     string // hx-target of the control
	Actionable bool
	URL        string // hx-get target when Actionable.
	OutOfBand  bool   // Rendered as an hx-swap-oob replacement.
}
