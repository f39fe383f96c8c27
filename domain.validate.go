package main

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Bounds enforced on book fields. Lengths are counted in characters,
// not bytes, and apply after trimming.
const (
	TitleMaxLength  = 200
	AuthorMaxLength = 100
	ISBNMaxLength   = 20
	GenreMaxLength  = 50
	YearMin         = 1000
	YearMax         = 2100
)

// Validator accumulates field level validation failures. An empty
// Errors map means the checked input is valid. The first failure
// recorded for a field wins, later ones are dropped.
type Validator struct {
	Errors map[string]string
}

// NewValidator returns a fresh empty validator.
func NewValidator() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid reports whether no failure was recorded.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records the message for the given field unless one exists already.
func (v *Validator) AddError(field, message string) {
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

// Check records the message for the field only when ok is false.
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.AddError(field, message)
	}
}

// ValidateBookInput checks a candidate book record against the field rules
// and returns every failure at once, keyed by field name. It never mutates
// the input and performs no I/O.
func ValidateBookInput(in BookInput) map[string]string {
	v := NewValidator()

	title := strings.TrimSpace(in.Title)
	v.Check(title != "", "title", "Title is required")
	v.Check(utf8.RuneCountInString(title) <= TitleMaxLength, "title", "Title must be less than 200 characters")

	author := strings.TrimSpace(in.Author)
	v.Check(author != "", "author", "Author is required")
	v.Check(utf8.RuneCountInString(author) <= AuthorMaxLength, "author", "Author must be less than 100 characters")

	v.Check(utf8.RuneCountInString(strings.TrimSpace(in.ISBN)) <= ISBNMaxLength, "isbn", "ISBN must be less than 20 characters")

	if year, supplied := parseYear(in.Year); supplied {
		v.Check(year != nil && *year >= YearMin && *year <= YearMax, "year", "Year must be between 1000 and 2100")
	}

	v.Check(utf8.RuneCountInString(strings.TrimSpace(in.Genre)) <= GenreMaxLength, "genre", "Genre must be less than 50 characters")

	return v.Errors
}

// NormalizeBookInput computes the canonical storage form of an already
// validated candidate: text fields trimmed, blank optional fields turned
// into absent values, year parsed to an integer. The returned book carries
// no id, identity assignment belongs to the storage layer.
func NormalizeBookInput(in BookInput) Book {
	book := Book{
		Title:  strings.TrimSpace(in.Title),
		Author: strings.TrimSpace(in.Author),
	}
	if isbn := strings.TrimSpace(in.ISBN); isbn != "" {
		book.ISBN = &isbn
	}
	if genre := strings.TrimSpace(in.Genre); genre != "" {
		book.Genre = &genre
	}
	if year, supplied := parseYear(in.Year); supplied {
		book.Year = year
	}
	return book
}

// parseYear reports whether a usable year value was supplied and, when it
// parses, its integer value. A blank raw value counts as not supplied, the
// same empty-to-absent coercion applied to optional text fields.
func parseYear(in YearInput) (*int, bool) {
	if !in.Set {
		return nil, false
	}
	raw := strings.TrimSpace(in.Raw)
	if raw == "" {
		return nil, false
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return nil, true
	}
	return &year, true
}
