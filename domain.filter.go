package main

import (
	"net/url"
	"sort"
	"strings"
)

// BookFilter restricts the books returned by the listing operation.
// All fields are optional and combined with a logical AND. Matching is
// case-insensitive substring matching everywhere.
type BookFilter struct {
	Search string
	Genre  string
	Author string
}

// BookFilterFromQuery builds a filter from the listing endpoint query string.
func BookFilterFromQuery(q url.Values) BookFilter {
	return BookFilter{
		Search: q.Get("search"),
		Genre:  q.Get("genre"),
		Author: q.Get("author"),
	}
}

// IsZero reports whether no filter field is set.
func (f BookFilter) IsZero() bool {
	return f == BookFilter{}
}

// Match reports whether the book satisfies every set filter field.
// Search matches against title or author. A record without a genre
// never matches a non-empty genre filter.
func (f BookFilter) Match(b Book) bool {
	if f.Search != "" {
		search := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(b.Title), search) &&
			!strings.Contains(strings.ToLower(b.Author), search) {
			return false
		}
	}
	if f.Genre != "" {
		if b.Genre == nil || !strings.Contains(strings.ToLower(*b.Genre), strings.ToLower(f.Genre)) {
			return false
		}
	}
	if f.Author != "" {
		if !strings.Contains(strings.ToLower(b.Author), strings.ToLower(f.Author)) {
			return false
		}
	}
	return true
}

// Apply returns the books matching the filter, preserving their order.
// It never mutates its input so it can be rerun on every new keystroke
// worth of filter values.
func (f BookFilter) Apply(books []Book) []Book {
	if f.IsZero() {
		return books
	}
	matched := []Book{}
	for _, b := range books {
		if f.Match(b) {
			matched = append(matched, b)
		}
	}
	return matched
}

// SortBooksByID orders books by ascending id, which equals creation
// order since ids are assigned monotonically.
func SortBooksByID(books []Book) {
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
}
