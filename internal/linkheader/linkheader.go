// Package linkheader parses pagination headers of the form
//
//	<https://api.github.com/...?page=2>; rel="next", <...?page=5>; rel="last"
//
// into a relation-keyed set of links. Each entry parses independently: a
// malformed entry yields an error result without affecting its neighbors.
package linkheader

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ericfisherdev/doccomments/internal/domain/model"
)

// Per-entry failure reasons, wrapped by ParseError.
var (
	ErrMissingURL  = errors.New("missing <url>")
	ErrMissingRel  = errors.New("missing rel attribute")
	ErrMissingPage = errors.New("missing page parameter")
	ErrInvalidPage = errors.New("invalid page parameter")
)

// pageParam matches a page parameter in the query or as a path segment
// ("/comments/page=2"). The leading separator keeps per_page from matching.
var pageParam = regexp.MustCompile(`(?:^|[?&;/])page=(\d+)`)

// ParseError describes why a single header entry could not be parsed.
type ParseError struct {
	Index int    // Position of the entry in the header, 0-based.
	Entry string // The trimmed entry text.
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("link entry %d %q: %v", e.Index, e.Entry, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Result is the outcome of parsing one header entry. Exactly one of Entry or
// Err is meaningful.
type Result struct {
	Entry model.LinkEntry
	Err   error
}

// Parse returns one Result per non-empty entry in header, in header order.
// An empty header yields no results.
func Parse(header string) []Result {
	var results []Result

	for i, raw := range splitEntries(header) {
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}

		link, err := parseEntry(entry)
		if err != nil {
			results = append(results, Result{Err: &ParseError{Index: i, Entry: entry, Err: err}})
			continue
		}
		results = append(results, Result{Entry: link})
	}

	return results
}

// ParseSet folds the entries of header into a LinkSet. When a relation
// appears more than once the last entry wins. Entries that fail to parse are
// returned as errors and left out of the set; a missing or empty header
// yields an empty set and no errors.
func ParseSet(header string) (model.LinkSet, []error) {
	set := make(model.LinkSet)
	var errs []error

	for _, r := range Parse(header) {
		if r.Err != nil {
			errs = append(errs, r.Err)
			continue
		}
		set[r.Entry.Relation] = r.Entry
	}

	return set, errs
}

// splitEntries splits header on commas that are not inside <...>.
func splitEntries(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}

	var entries []string
	inURL := false
	start := 0

	for i := 0; i < len(header); i++ {
		switch header[i] {
		case '<':
			inURL = true
		case '>':
			inURL = false
		case ',':
			if !inURL {
				entries = append(entries, header[start:i])
				start = i + 1
			}
		}
	}

	return append(entries, header[start:])
}

func parseEntry(entry string) (model.LinkEntry, error) {
	open := strings.IndexByte(entry, '<')
	end := strings.IndexByte(entry, '>')
	if open < 0 || end < open {
		return model.LinkEntry{}, ErrMissingURL
	}

	target := strings.TrimSpace(entry[open+1 : end])
	if target == "" {
		return model.LinkEntry{}, ErrMissingURL
	}

	rel := relation(entry[end+1:])
	if rel == "" {
		return model.LinkEntry{}, ErrMissingRel
	}

	page, err := pageNumber(target)
	if err != nil {
		return model.LinkEntry{}, err
	}

	return model.LinkEntry{Relation: rel, URL: target, Page: page}, nil
}

// relation returns the first relation type named by the rel parameter in
// params, or "" if there is none.
func relation(params string) string {
	for _, p := range strings.Split(params, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "rel") {
			continue
		}

		fields := strings.Fields(strings.Trim(strings.TrimSpace(value), `"`))
		if len(fields) == 0 {
			return ""
		}
		return fields[0]
	}
	return ""
}

// pageNumber returns the value of the last page parameter in target.
func pageNumber(target string) (int, error) {
	matches := pageParam.FindAllStringSubmatch(target, -1)
	if len(matches) == 0 {
		return 0, ErrMissingPage
	}

	page, err := strconv.Atoi(matches[len(matches)-1][1])
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPage, err)
	}
	return page, nil
}
