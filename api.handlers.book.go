package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// CreateBook validates and normalizes the submitted candidate record then
// persists it with a newly assigned id.
//
// @Summary      Create a new book
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        book body BookInput true "candidate book record"
// @Success      201 {object} Book
// @Failure      400 {object} APIError
// @Failure      422 {object} APIError
// @Router       /api/books [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in BookInput
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	if err := DecodeBookInput(r, &in); err != nil {
		api.logger.Error("failed to create book", zap.String("request.id", requestID), zap.Error(err))
		if err = WriteErrorResponse(r.Context(), w, http.StatusBadRequest, NewAPIError(requestID, "failed to decode the book payload")); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	if fieldErrors := ValidateBookInput(in); len(fieldErrors) > 0 {
		api.logger.Error("failed to create book", zap.String("request.id", requestID), zap.Any("fields", fieldErrors))
		if err := WriteErrorResponse(r.Context(), w, http.StatusUnprocessableEntity, NewValidationError(requestID, fieldErrors)); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	book, err := api.bookService.Create(r.Context(), NormalizeBookInput(in))
	if err != nil {
		api.logger.Error("failed to create book", zap.String("request.id", requestID), zap.Error(err))
		if err = WriteErrorResponse(r.Context(), w, http.StatusInternalServerError, NewAPIError(requestID, "failed to create the book")); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to create book", zap.Int64("book.id", book.ID), zap.String("request.id", requestID))
	if err = WriteJSON(r.Context(), w, http.StatusCreated, book); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// GetAllBooks lists every book matching the optional search, genre and
// author query filters, in creation order.
//
// @Summary      List books with optional filters
// @Tags         books
// @Produce      json
// @Param        search query string false "substring matched against title or author"
// @Param        genre  query string false "substring matched against genre"
// @Param        author query string false "substring matched against author"
// @Success      200 {array} Book
// @Router       /api/books [get]
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	filter := BookFilterFromQuery(r.URL.Query())
	books, err := api.bookService.GetAll(r.Context(), filter)
	if err != nil {
		api.logger.Error("failed to get all books", zap.String("request.id", requestID), zap.Error(err))
		if err = WriteErrorResponse(r.Context(), w, http.StatusInternalServerError, NewAPIError(requestID, "failed to get all books")); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to get all books", zap.Int("total", len(books)), zap.String("request.id", requestID))
	if err = WriteJSON(r.Context(), w, http.StatusOK, books); err != nil {
		api.logger.Error("failed to send response", zap.Error(err))
	}
}

// GetOneBook fetches a single book by its id.
//
// @Summary      Fetch one book
// @Tags         books
// @Produce      json
// @Param        id path int true "book id"
// @Success      200 {object} Book
// @Failure      404 {object} APIError
// @Router       /api/books/{id} [get]
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id, err := ParseBookID(ps.ByName("id"))
	if err != nil {
		api.logger.Error("book id provided is not valid", zap.String("book.id", ps.ByName("id")), zap.String("request.id", requestID))
		if err = WriteErrorResponse(r.Context(), w, http.StatusBadRequest, NewAPIError(requestID, "book id provided is not valid")); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	book, err := api.bookService.GetOne(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		api.logger.Error("book does not exist", zap.Int64("book.id", id), zap.String("request.id", requestID))
		if err = WriteErrorResponse(r.Context(), w, http.StatusNotFound, NewAPIError(requestID, fmt.Sprintf("Book with ID %d not found", id))); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to get book", zap.Int64("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		if err = WriteErrorResponse(r.Context(), w, http.StatusInternalServerError, NewAPIError(requestID, "failed to get the book")); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to get book", zap.Int64("book.id", id), zap.String("request.id", requestID))
	if err = WriteJSON(r.Context(), w, http.StatusOK, book); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// UpdateBook validates the candidate record then replaces every field of the
// stored book with the new values. Full replacement, not a merge: an optional
// field left out of the payload ends up absent on the stored record.
//
// @Summary      Replace an existing book
// @Tags         books
// @Accept       json
// @Produce      json
// @Param        id path int true "book id"
// @Param        book body BookInput true "candidate book record"
// @Success      200 {object} Book
// @Failure      400 {object} APIError
// @Failure      404 {object} APIError
// @Failure      422 {object} APIError
// @Router       /api/books/{id} [put]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in BookInput
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id, err := ParseBookID(ps.ByName("id"))
	if err != nil {
		api.logger.Error("book id provided is not valid", zap.String("book.id", ps.ByName("id")), zap.String("request.id", requestID))
		if err = WriteErrorResponse(r.Context(), w, http.StatusBadRequest, NewAPIError(requestID, "book id provided is not valid")); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	if err = DecodeBookInput(r, &in); err != nil {
		api.logger.Error("failed to update book", zap.String("request.id", requestID), zap.Error(err))
		if err = WriteErrorResponse(r.Context(), w, http.StatusBadRequest, NewAPIError(requestID, "failed to decode the book payload")); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	if fieldErrors := ValidateBookInput(in); len(fieldErrors) > 0 {
		api.logger.Error("failed to update book", zap.String("request.id", requestID), zap.Any("fields", fieldErrors))
		if err = WriteErrorResponse(r.Context(), w, http.StatusUnprocessableEntity, NewValidationError(requestID, fieldErrors)); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	book, err := api.bookService.Update(r.Context(), id, NormalizeBookInput(in))
	if errors.Is(err, ErrBookNotFound) {
		api.logger.Error("book does not exist", zap.Int64("book.id", id), zap.String("request.id", requestID))
		if err = WriteErrorResponse(r.Context(), w, http.StatusNotFound, NewAPIError(requestID, fmt.Sprintf("Book with ID %d not found", id))); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to update book", zap.Int64("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		if err = WriteErrorResponse(r.Context(), w, http.StatusInternalServerError, NewAPIError(requestID, "failed to update the book")); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to update book", zap.Int64("book.id", book.ID), zap.String("request.id", requestID))
	if err = WriteJSON(r.Context(), w, http.StatusOK, book); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// DeleteOneBook permanently removes a book. The freed id is never reassigned.
//
// @Summary      Delete a book
// @Tags         books
// @Produce      json
// @Param        id path int true "book id"
// @Success      204
// @Failure      404 {object} APIError
// @Router       /api/books/{id} [delete]
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), ContextRequestID)
	id, err := ParseBookID(ps.ByName("id"))
	if err != nil {
		api.logger.Error("book id provided is not valid", zap.String("book.id", ps.ByName("id")), zap.String("request.id", requestID))
		if err = WriteErrorResponse(r.Context(), w, http.StatusBadRequest, NewAPIError(requestID, "book id provided is not valid")); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}

	err = api.bookService.Delete(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		api.logger.Error("book does not exist", zap.Int64("book.id", id), zap.String("request.id", requestID))
		if err = WriteErrorResponse(r.Context(), w, http.StatusNotFound, NewAPIError(requestID, fmt.Sprintf("Book with ID %d not found", id))); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	if err != nil {
		api.logger.Error("failed to delete book", zap.Int64("book.id", id), zap.String("request.id", requestID), zap.Error(err))
		if err = WriteErrorResponse(r.Context(), w, http.StatusInternalServerError, NewAPIError(requestID, "failed to delete the book")); err != nil {
			api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(err))
		}
		return
	}
	api.logger.Info("success to delete book", zap.Int64("book.id", id), zap.String("request.id", requestID))
	w.WriteHeader(http.StatusNoContent)
}
