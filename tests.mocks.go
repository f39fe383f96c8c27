package main

import (
	"context"
	"time"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	CreateFunc func(ctx context.Context, book Book) (Book, error)
	GetOneFunc func(ctx context.Context, id int64) (Book, error)
	DeleteFunc func(ctx context.Context, id int64) error
	UpdateFunc func(ctx context.Context, id int64, book Book) (Book, error)
	GetAllFunc func(ctx context.Context) ([]Book, error)
}

// Create mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Create(ctx context.Context, book Book) (Book, error) {
	return m.CreateFunc(ctx, book)
}

// GetOne mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) GetOne(ctx context.Context, id int64) (Book, error) {
	return m.GetOneFunc(ctx, id)
}

// Delete mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Delete(ctx context.Context, id int64) error {
	return m.DeleteFunc(ctx, id)
}

// Update mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) Update(ctx context.Context, id int64, book Book) (Book, error) {
	return m.UpdateFunc(ctx, id, book)
}

// GetAll mocks the behavior of retrieving all books by the repository.
func (m *MockBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	return m.GetAllFunc(ctx)
}

// MockQueuer implements a fake Queuer.
type MockQueuer struct {
	PushFunc func(ctx context.Context, qid string, book Book) error
	PopFunc  func(ctx context.Context, qids ...string) (string, Book, error)
}

// Push mocks enqueueing a book.
func (m *MockQueuer) Push(ctx context.Context, qid string, book Book) error {
	return m.PushFunc(ctx, qid, book)
}

// Pop mocks dequeueing a book.
func (m *MockQueuer) Pop(ctx context.Context, qids ...string) (string, Book, error) {
	return m.PopFunc(ctx, qids...)
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Sun, 02 Jul 2023 00:00:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDHandler) Generate(prefix string) string {
	return prefix + ":" + muid.MockedUID
}

// nopQueuer is a convenience queue that accepts and drops everything.
func nopQueuer() *MockQueuer {
	return &MockQueuer{
		PushFunc: func(ctx context.Context, qid string, book Book) error { return nil },
	}
}

// strptr and intptr shorten optional field setup in tests.
func strptr(s string) *string { return &s }
func intptr(i int) *int       { return &i }
