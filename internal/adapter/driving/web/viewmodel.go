package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	vm "github.com/ericfisherdev/doccomments/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/doccomments/internal/domain/model"
)

// newCommentAnchor is the GitHub UI fragment of the new-comment form.
const newCommentAnchor = "new_comment_field"

// viewBuilder converts domain renders to view models.
type viewBuilder struct {
	body       *BodyRenderer
	publicBase string // Prefix for load-more URLs; "" for host-relative URLs.
}

func listID(threadID string) string    { return "gh-comments-list-" + threadID }
func controlID(threadID string) string { return "gh-load-comments-" + threadID }

// toThreadViewModel converts the first render of a thread into a full region.
func (b viewBuilder) toThreadViewModel(r *model.PageRender) vm.ThreadViewModel {
	return vm.ThreadViewModel{
		ID:                r.ThreadID,
		ElementID:         "gh-comments-" + r.ThreadID,
		ListID:            listID(r.ThreadID),
		IssueID:           r.IssueID,
		Fragments:         b.toFragmentViewModels(r.Fragments),
		Control:           b.toLoadMoreViewModel(r, false),
		CommentCount:      r.CommentCount,
		CommentCountKnown: r.CommentCountKnown,
	}
}

// toPageViewModel converts a load-more render. The control is replaced out of
// band only when the load changed it.
func (b viewBuilder) toPageViewModel(r *model.PageRender) vm.PageViewModel {
	page := vm.PageViewModel{Fragments: b.toFragmentViewModels(r.Fragments)}
	if r.ControlChanged {
		control := b.toLoadMoreViewModel(r, true)
		page.Control = &control
	}
	return page
}

// appendPage merges a later render into an already built region, as the
// browser would after activating the control. Used for static rendering.
func (b viewBuilder) appendPage(t *vm.ThreadViewModel, r *model.PageRender) {
	t.Fragments = append(t.Fragments, b.toFragmentViewModels(r.Fragments)...)
	if r.ControlChanged {
		t.Control = b.toLoadMoreViewModel(r, false)
	}
	if r.CommentCountKnown {
		t.CommentCount, t.CommentCountKnown = r.CommentCount, true
	}
}

func (b viewBuilder) toLoadMoreViewModel(r *model.PageRender, oob bool) vm.LoadMoreViewModel {
	control := vm.LoadMoreViewModel{
		ElementID:  controlID(r.ThreadID),
		ListID:     listID(r.ThreadID),
		Actionable: r.Control.Actionable,
		OutOfBand:  oob,
	}
	if r.Control.Actionable {
		control.URL = b.loadMoreURL(r.ThreadID, r.IssueID, r.Control.NextPage)
	}
	return control
}

func (b viewBuilder) loadMoreURL(threadID string, issueID, page int) string {
	q := url.Values{}
	q.Set("issue", strconv.Itoa(issueID))
	q.Set("page", strconv.Itoa(page))
	return fmt.Sprintf("%s/embed/threads/%s/comments?%s", b.publicBase, url.PathEscape(threadID), q.Encode())
}

func (b viewBuilder) toFragmentViewModels(fragments []model.Fragment) []vm.FragmentViewModel {
	vms := make([]vm.FragmentViewModel, 0, len(fragments))
	for _, f := range fragments {
		switch f.Kind {
		case model.FragmentCallToAction:
			vms = append(vms, vm.FragmentViewModel{
				CallToAction: &vm.CallToActionViewModel{PostURL: f.IssueURL + "#" + newCommentAnchor},
			})
		case model.FragmentComment:
			c := b.toCommentViewModel(f.Comment)
			vms = append(vms, vm.FragmentViewModel{Comment: &c})
		case model.FragmentUnavailable:
			vms = append(vms, vm.FragmentViewModel{
				Unavailable: &vm.UnavailableViewModel{StatusCode: f.StatusCode},
			})
		}
	}
	return vms
}

func (b viewBuilder) toCommentViewModel(c model.IssueComment) vm.CommentViewModel {
	created := c.CreatedAt.UTC()
	return vm.CommentViewModel{
		ID:         c.ID,
		Author:     c.Author.Login,
		ProfileURL: c.Author.ProfileURL,
		AvatarURL:  c.Author.AvatarURL,
		PostedAt:   created.Format(http.TimeFormat),
		PostedISO:  created.Format(time.RFC3339),
		BodyHTML:   b.body.Render(c),
	}
}
