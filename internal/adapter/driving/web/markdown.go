package web

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ericfisherdev/doccomments/internal/domain/model"
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
}

// BodyRenderer turns a comment into the HTML inserted into its fragment.
type BodyRenderer struct {
	policy model.BodyPolicy
}

// NewBodyRenderer creates a BodyRenderer. Unknown policies behave as
// model.BodyPolicyTrust.
func NewBodyRenderer(policy model.BodyPolicy) *BodyRenderer {
	return &BodyRenderer{policy: policy}
}

// Render returns the comment body as HTML. body_html from GitHub is inserted
// verbatim under the trust policy and sanitized under the sanitize policy.
// When GitHub returned only raw markdown, it is rendered locally and always
// sanitized.
func (b *BodyRenderer) Render(c model.IssueComment) string {
	if c.BodyHTML != "" {
		if b.policy == model.BodyPolicySanitize {
			return htmlSanitizer.Sanitize(c.BodyHTML)
		}
		return c.BodyHTML
	}
	return RenderMarkdown(c.Body)
}

// RenderMarkdown converts a markdown string to sanitized HTML.
// Returns empty string for empty input.
func RenderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return htmlSanitizer.Sanitize(src)
	}

	return htmlSanitizer.Sanitize(buf.String())
}
