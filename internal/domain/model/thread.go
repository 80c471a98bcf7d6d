package model

// Fragment is one unit appended, in order, to a thread's comment list.
// Only the fields relevant to Kind are set.
type Fragment struct {
	Kind       FragmentKind
	Comment    IssueComment // FragmentComment
	IssueURL   string       // FragmentCallToAction
	StatusCode int          // FragmentUnavailable; 0 when no response was received.
}

// LoadMoreControl is the state of a thread's "load more" control. When
// Actionable, activating it requests NextPage.
type LoadMoreControl struct {
	Actionable bool
	NextPage   int
}

// PageRender is the outcome of loading one page into a thread.
type PageRender struct {
	ThreadID  string
	IssueID   int
	Page      int
	State     ThreadState
	Fragments []Fragment

	// Control is the thread's load-more control after this load. ControlChanged
	// is false when the load failed and the control was left untouched.
	Control        LoadMoreControl
	ControlChanged bool

	// CommentCount is the issue's total comment count, when the metadata request
	// succeeded at least once for this thread.
	CommentCount      int
	CommentCountKnown bool
}
