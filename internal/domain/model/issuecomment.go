package model

import "time"

// CommentAuthor identifies the GitHub user who wrote a comment.
type CommentAuthor struct {
	Login      string
	ProfileURL string
	AvatarURL  string
}

// IssueComment is a single comment on the tracked issue, as returned by the
// GitHub Issues API. It is read-only once fetched.
type IssueComment struct {
	ID        int64
	Author    CommentAuthor
	CreatedAt time.Time
	BodyHTML  string // Pre-rendered by GitHub; present when the HTML media type is honored.
	Body      string // Raw markdown; only set when the upstream ignored the HTML media type.
}

// IssueSummary holds issue-level metadata fetched alongside the comments.
type IssueSummary struct {
	Number       int
	CommentCount int
	HTMLURL      string
}

// CommentPage is one page of comments together with the raw pagination header
// the upstream returned for it.
type CommentPage struct {
	IssueNumber int
	Page        int
	Comments    []IssueComment
	LinkHeader  string
}
