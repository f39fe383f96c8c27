package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAPIHandler(storage BookStorage) *APIHandler {
	bs := NewBookService(zap.NewNop(), nil, NewMockClocker(), storage, nopQueuer())
	return NewAPIHandler(zap.NewNop(), &Config{}, &Statistics{started: time.Now()}, NewMockClocker(), NewMockUIDHandler("abc"), bs)
}

// newBookRequest builds a request carrying the request id the middleware
// stack would have injected.
func newBookRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(context.WithValue(req.Context(), ContextRequestID, "r:abc"))
}

// TestCreateBookHandler ensures api handler can create a book.
//
//nolint:funlen
func TestCreateBookHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		CreateFunc: func(ctx context.Context, book Book) (Book, error) {
			book.ID = 1
			return book, nil
		},
	}
	api := newTestAPIHandler(mockRepo)

	t.Run("should pass: valid payload", func(t *testing.T) {
		payload := `{"title":"The Great Gatsby","author":"F. Scott Fitzgerald","year":1925,"genre":"Fiction"}`
		req := newBookRequest(http.MethodPost, "/api/books", bytes.NewBufferString(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, res.StatusCode)
		assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))

		expected := `{"id":1, "title":"The Great Gatsby", "author":"F. Scott Fitzgerald", "isbn":null, "year":1925, "genre":"Fiction"}`
		assert.JSONEq(t, expected, string(data))
	})

	t.Run("should fail: storage insertion failure", func(t *testing.T) {
		failingRepo := &MockBookStorage{
			CreateFunc: func(ctx context.Context, book Book) (Book, error) {
				return book, errors.New("storage failure")
			},
		}
		api := newTestAPIHandler(failingRepo)

		payload := `{"title":"The Great Gatsby","author":"F. Scott Fitzgerald"}`
		req := newBookRequest(http.MethodPost, "/api/books", bytes.NewBufferString(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
		expected := `{"requestid":"r:abc", "detail":"failed to create the book"}`
		assert.JSONEq(t, expected, string(data))
	})

	t.Run("should fail: invalid payload", func(t *testing.T) {
		payload := `{"title":1, "author":"F. Scott Fitzgerald"}`
		req := newBookRequest(http.MethodPost, "/api/books", bytes.NewBufferString(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		expected := `{"requestid":"r:abc", "detail":"failed to decode the book payload"}`
		assert.JSONEq(t, expected, string(data))
	})

	t.Run("should fail: validation errors all reported", func(t *testing.T) {
		payload := `{"title":"", "author":"", "year":"500"}`
		req := newBookRequest(http.MethodPost, "/api/books", bytes.NewBufferString(payload))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		expected := `{"requestid":"r:abc", "detail":"validation failed",
			"errors":{"title":"Title is required", "author":"Author is required", "year":"Year must be between 1000 and 2100"}}`
		assert.JSONEq(t, expected, string(data))
	})
}

// TestGetAllBooksHandler ensures listing applies the query filters and
// returns flat book records.
func TestGetAllBooksHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		GetAllFunc: func(ctx context.Context) ([]Book, error) {
			return []Book{
				{ID: 1, Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Genre: strptr("Fiction")},
				{ID: 2, Title: "Brave New World", Author: "Aldous Huxley"},
			}, nil
		},
	}
	api := newTestAPIHandler(mockRepo)

	t.Run("no filters returns everything in creation order", func(t *testing.T) {
		req := newBookRequest(http.MethodGet, "/api/books", nil)
		w := httptest.NewRecorder()
		api.GetAllBooks(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var books []Book
		require.NoError(t, json.NewDecoder(res.Body).Decode(&books))
		require.Len(t, books, 2)
		assert.Equal(t, int64(1), books[0].ID)
		assert.Equal(t, int64(2), books[1].ID)
	})

	t.Run("search filter excludes unrelated records", func(t *testing.T) {
		req := newBookRequest(http.MethodGet, "/api/books?search=gatsby", nil)
		w := httptest.NewRecorder()
		api.GetAllBooks(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)

		var books []Book
		require.NoError(t, json.NewDecoder(res.Body).Decode(&books))
		require.Len(t, books, 1)
		assert.Equal(t, "The Great Gatsby", books[0].Title)
	})

	t.Run("storage failure surfaces as 500", func(t *testing.T) {
		failingRepo := &MockBookStorage{
			GetAllFunc: func(ctx context.Context) ([]Book, error) {
				return nil, errors.New("storage failure")
			},
		}
		api := newTestAPIHandler(failingRepo)
		req := newBookRequest(http.MethodGet, "/api/books", nil)
		w := httptest.NewRecorder()
		api.GetAllBooks(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	})
}

// TestGetOneBookHandler covers fetching one record and its failure modes.
func TestGetOneBookHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		GetOneFunc: func(ctx context.Context, id int64) (Book, error) {
			if id != 7 {
				return Book{}, ErrBookNotFound
			}
			return Book{ID: 7, Title: "Dune", Author: "Frank Herbert"}, nil
		},
	}
	api := newTestAPIHandler(mockRepo)

	t.Run("should pass: existing id", func(t *testing.T) {
		req := newBookRequest(http.MethodGet, "/api/books/7", nil)
		w := httptest.NewRecorder()
		api.GetOneBook(w, req, httprouter.Params{{Key: "id", Value: "7"}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		expected := `{"id":7, "title":"Dune", "author":"Frank Herbert", "isbn":null, "year":null, "genre":null}`
		assert.JSONEq(t, expected, string(data))
	})

	t.Run("should fail: missing id", func(t *testing.T) {
		req := newBookRequest(http.MethodGet, "/api/books/42", nil)
		w := httptest.NewRecorder()
		api.GetOneBook(w, req, httprouter.Params{{Key: "id", Value: "42"}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		expected := `{"requestid":"r:abc", "detail":"Book with ID 42 not found"}`
		assert.JSONEq(t, expected, string(data))
	})

	t.Run("should fail: non numeric id", func(t *testing.T) {
		req := newBookRequest(http.MethodGet, "/api/books/abc", nil)
		w := httptest.NewRecorder()
		api.GetOneBook(w, req, httprouter.Params{{Key: "id", Value: "abc"}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		expected := `{"requestid":"r:abc", "detail":"book id provided is not valid"}`
		assert.JSONEq(t, expected, string(data))
	})
}

// TestUpdateBookHandler ensures updates are full replacements and missing
// records never get created.
func TestUpdateBookHandler(t *testing.T) {
	var updatedWith Book
	mockRepo := &MockBookStorage{
		UpdateFunc: func(ctx context.Context, id int64, book Book) (Book, error) {
			if id != 7 {
				return Book{}, ErrBookNotFound
			}
			book.ID = id
			updatedWith = book
			return book, nil
		},
	}
	api := newTestAPIHandler(mockRepo)

	t.Run("should pass: full replacement drops unsupplied optionals", func(t *testing.T) {
		payload := `{"title":"Updated Title","author":"F. Scott Fitzgerald"}`
		req := newBookRequest(http.MethodPut, "/api/books/7", bytes.NewBufferString(payload))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, httprouter.Params{{Key: "id", Value: "7"}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)

		assert.Equal(t, "Updated Title", updatedWith.Title)
		assert.Nil(t, updatedWith.ISBN)
		assert.Nil(t, updatedWith.Year)
		assert.Nil(t, updatedWith.Genre)

		data, err := io.ReadAll(res.Body)
		assert.NoError(t, err)
		expected := `{"id":7, "title":"Updated Title", "author":"F. Scott Fitzgerald", "isbn":null, "year":null, "genre":null}`
		assert.JSONEq(t, expected, string(data))
	})

	t.Run("should fail: unknown id", func(t *testing.T) {
		payload := `{"title":"Updated Title","author":"F. Scott Fitzgerald"}`
		req := newBookRequest(http.MethodPut, "/api/books/42", bytes.NewBufferString(payload))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, httprouter.Params{{Key: "id", Value: "42"}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})

	t.Run("should fail: invalid candidate", func(t *testing.T) {
		payload := `{"title":"","author":"F. Scott Fitzgerald"}`
		req := newBookRequest(http.MethodPut, "/api/books/7", bytes.NewBufferString(payload))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, httprouter.Params{{Key: "id", Value: "7"}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	})
}

// TestDeleteOneBookHandler ensures deletion answers 204 and a second
// delete on the same id fails with 404.
func TestDeleteOneBookHandler(t *testing.T) {
	deleted := map[int64]bool{}
	mockRepo := &MockBookStorage{
		DeleteFunc: func(ctx context.Context, id int64) error {
			if id != 7 || deleted[id] {
				return ErrBookNotFound
			}
			deleted[id] = true
			return nil
		},
	}
	api := newTestAPIHandler(mockRepo)

	req := newBookRequest(http.MethodDelete, "/api/books/7", nil)
	w := httptest.NewRecorder()
	api.DeleteOneBook(w, req, httprouter.Params{{Key: "id", Value: "7"}})
	res := w.Result()
	res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	// second delete on the same id.
	w = httptest.NewRecorder()
	api.DeleteOneBook(w, newBookRequest(http.MethodDelete, "/api/books/7", nil), httprouter.Params{{Key: "id", Value: "7"}})
	res = w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	data, err := io.ReadAll(res.Body)
	assert.NoError(t, err)
	expected := `{"requestid":"r:abc", "detail":"Book with ID 7 not found"}`
	assert.JSONEq(t, expected, string(data))
}
