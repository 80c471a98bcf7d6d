package model

// ThreadState is the lifecycle state of one embedded comment thread.
type ThreadState string

const (
	ThreadStateIdle             ThreadState = "idle"
	ThreadStateRequesting       ThreadState = "requesting"
	ThreadStateRenderedWithMore ThreadState = "rendered_with_more"
	ThreadStateRenderedTerminal ThreadState = "rendered_terminal"
	ThreadStateFailed           ThreadState = "failed"
)

// FragmentKind distinguishes the units appended to a thread's comment list.
type FragmentKind string

const (
	FragmentCallToAction FragmentKind = "call_to_action" // "Post a comment" link, page 1 only.
	FragmentComment      FragmentKind = "comment"
	FragmentUnavailable  FragmentKind = "unavailable" // Comments request failed.
)

// BodyPolicy controls how comment bodies are inserted into rendered fragments.
type BodyPolicy string

const (
	BodyPolicyTrust    BodyPolicy = "trust"    // Insert body_html verbatim.
	BodyPolicySanitize BodyPolicy = "sanitize" // Run body_html through the UGC sanitizer.
)
