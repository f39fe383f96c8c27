package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Book represents a library book record. Optional fields are pointers
// so a missing value marshals to null instead of an empty string or 0.
type Book struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	ISBN   *string `json:"isbn"`
	Year   *int    `json:"year"`
	Genre  *string `json:"genre"`
}

// BookInput is the candidate record decoded from a create or update
// request body. It carries raw client values before any validation or
// normalization happened.
type BookInput struct {
	Title  string    `json:"title"`
	Author string    `json:"author"`
	ISBN   string    `json:"isbn"`
	Year   YearInput `json:"year"`
	Genre  string    `json:"genre"`
}

// YearInput captures the publication year exactly as the client sent it.
// Clients submit the year either as a json number or as a form-sourced
// string, so decoding keeps the raw text and lets validation decide
// whether it parses and falls within the accepted range.
type YearInput struct {
	Raw string
	Set bool
}

// UnmarshalJSON accepts a number, a quoted string or null.
func (y *YearInput) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*y = YearInput{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*y = YearInput{Raw: s, Set: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("year must be a number or a string: %w", err)
	}
	*y = YearInput{Raw: n.String(), Set: true}
	return nil
}

// MarshalJSON keeps BookInput round-trippable for logging and tests.
func (y YearInput) MarshalJSON() ([]byte, error) {
	if !y.Set {
		return []byte("null"), nil
	}
	return json.Marshal(y.Raw)
}

// BookStorage defines possible operations on the books collection.
// Create assigns the record identifier: each id is strictly greater
// than any previously assigned one and is never reused, even after
// the matching record got deleted. GetAll returns records in creation
// order, meaning ascending id.
type BookStorage interface {
	Create(ctx context.Context, book Book) (Book, error)
	GetOne(ctx context.Context, id int64) (Book, error)
	Delete(ctx context.Context, id int64) error
	Update(ctx context.Context, id int64, book Book) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
}
