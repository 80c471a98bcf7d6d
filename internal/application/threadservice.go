// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/doccomments/internal/domain/model"
	"github.com/ericfisherdev/doccomments/internal/domain/port/driven"
	"github.com/ericfisherdev/doccomments/internal/linkheader"
)

// ErrSuperseded is returned when a newer load on the same thread started
// before this one finished. The superseded load produces no fragments.
var ErrSuperseded = errors.New("page load superseded by a newer request")

// PageResult is one page of comments with its parsed pagination links, as
// served by the JSON API.
type PageResult struct {
	Page       *model.CommentPage
	Links      model.LinkSet
	LinkErrors []error
	Summary    *model.IssueSummary // nil when the metadata request failed.
}

// ThreadService loads pages of an issue's comments into threads and decides
// the state of each thread's load-more control.
type ThreadService struct {
	source driven.CommentSource
	logger *slog.Logger
}

// NewThreadService creates a ThreadService reading from source.
func NewThreadService(source driven.CommentSource, logger *slog.Logger) *ThreadService {
	return &ThreadService{
		source: source,
		logger: logger,
	}
}

// LoadComments fetches the issue metadata and the given comment page
// concurrently and returns the fragments to append to the thread's comment
// list. Pages below 1 load page 1.
//
// A failed comments request is not returned as an error: the render holds a
// single Unavailable fragment and the load-more control is left untouched. A
// failed metadata request is logged and otherwise ignored. Starting a load
// cancels the thread's previous in-flight load, which then returns
// ErrSuperseded.
func (s *ThreadService) LoadComments(ctx context.Context, thread *Thread, page int) (*model.PageRender, error) {
	if page < 1 {
		page = 1
	}
	issueID := thread.IssueID()

	loadCtx, gen := thread.begin(ctx)

	var commentPage *model.CommentPage
	var g errgroup.Group

	g.Go(func() error {
		summary, err := s.source.FetchIssueSummary(loadCtx, issueID)
		if err != nil {
			if loadCtx.Err() == nil {
				s.logger.Warn("issue metadata request failed",
					"issue", issueID,
					"status", driven.StatusCode(err),
					"error", err,
				)
			}
			return nil
		}
		if summary != nil {
			thread.setCommentCount(summary.CommentCount)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		commentPage, err = s.source.FetchCommentPage(loadCtx, issueID, page)
		return err
	})

	pageErr := g.Wait()

	render := &model.PageRender{
		ThreadID: thread.ID(),
		IssueID:  issueID,
		Page:     page,
	}

	if pageErr != nil {
		if ctx.Err() != nil {
			thread.abort(gen)
			return nil, ctx.Err()
		}
		if !thread.finish(gen, model.ThreadStateFailed, nil) {
			return nil, ErrSuperseded
		}

		status := driven.StatusCode(pageErr)
		s.logger.Error("comments request failed",
			"issue", issueID,
			"page", page,
			"status", status,
			"error", pageErr,
		)

		render.State = model.ThreadStateFailed
		render.Fragments = []model.Fragment{{Kind: model.FragmentUnavailable, StatusCode: status}}
		render.Control = thread.Control()
		render.CommentCount, render.CommentCountKnown = thread.CommentCount()
		return render, nil
	}

	links, linkErrs := linkheader.ParseSet(commentPage.LinkHeader)
	for _, err := range linkErrs {
		s.logger.Warn("malformed pagination entry", "issue", issueID, "page", page, "error", err)
	}

	fragments := make([]model.Fragment, 0, len(commentPage.Comments)+1)
	if page == 1 {
		fragments = append(fragments, model.Fragment{
			Kind:     model.FragmentCallToAction,
			IssueURL: s.source.IssueURL(issueID),
		})
	}
	for _, c := range commentPage.Comments {
		fragments = append(fragments, model.Fragment{Kind: model.FragmentComment, Comment: c})
	}

	state := model.ThreadStateRenderedTerminal
	control := model.LoadMoreControl{}
	if links.HasNext() {
		state = model.ThreadStateRenderedWithMore
		control = model.LoadMoreControl{Actionable: true, NextPage: page + 1}
	}

	if !thread.finish(gen, state, &control) {
		return nil, ErrSuperseded
	}

	s.logger.Debug("comments page rendered",
		"issue", issueID,
		"page", page,
		"comments", len(commentPage.Comments),
		"has_next", control.Actionable,
	)

	render.State = state
	render.Fragments = fragments
	render.Control = control
	render.ControlChanged = true
	render.CommentCount, render.CommentCountKnown = thread.CommentCount()
	return render, nil
}

// FetchPage fetches one page of comments and the issue metadata concurrently
// without touching any thread. A metadata failure leaves Summary nil; a
// comments failure is returned as the error.
func (s *ThreadService) FetchPage(ctx context.Context, issueID, page int) (*PageResult, error) {
	if page < 1 {
		page = 1
	}

	var (
		result PageResult
		g      errgroup.Group
	)

	g.Go(func() error {
		summary, err := s.source.FetchIssueSummary(ctx, issueID)
		if err != nil {
			s.logger.Warn("issue metadata request failed", "issue", issueID, "error", err)
			return nil
		}
		result.Summary = summary
		return nil
	})

	g.Go(func() error {
		var err error
		result.Page, err = s.source.FetchCommentPage(ctx, issueID, page)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Links, result.LinkErrors = linkheader.ParseSet(result.Page.LinkHeader)
	return &result, nil
}

// IssueURL returns the human-facing URL of the issue.
func (s *ThreadService) IssueURL(issueID int) string {
	return s.source.IssueURL(issueID)
}
