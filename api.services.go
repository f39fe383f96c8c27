package main

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type BookServiceProvider interface {
	Create(ctx context.Context, book Book) (Book, error)
	GetOne(ctx context.Context, id int64) (Book, error)
	Delete(ctx context.Context, id int64) error
	Update(ctx context.Context, id int64, book Book) (Book, error)
	GetAll(ctx context.Context, filter BookFilter) ([]Book, error)
}

// BookService persists already normalized book records on the primary
// storage and mirrors each acknowledged mutation onto the replication
// queues. Mutations hold mu so no caller ever observes one half-applied,
// reads go straight to the storage.
type BookService struct {
	logger  *zap.Logger
	config  *Config
	clock   Clocker
	storage BookStorage
	queue   Queuer
	mu      sync.Mutex
}

func NewBookService(logger *zap.Logger, config *Config, clock Clocker, storage BookStorage, queue Queuer) BookServiceProvider {
	return &BookService{
		logger:  logger,
		config:  config,
		clock:   clock,
		storage: storage,
		queue:   queue,
	}
}

func (bs *BookService) Create(ctx context.Context, book Book) (Book, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	created, err := bs.storage.Create(ctx, book)
	if err != nil {
		return created, err
	}
	if err := bs.queue.Push(ctx, CreateQueue, created); err != nil {
		bs.logger.Error("service: failed to push book to queue", zap.String("qid", CreateQueue), zap.Error(err))
	}
	return created, nil
}

func (bs *BookService) GetOne(ctx context.Context, id int64) (Book, error) {
	book, err := bs.storage.GetOne(ctx, id)
	return book, err
}

func (bs *BookService) Delete(ctx context.Context, id int64) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if err := bs.storage.Delete(ctx, id); err != nil {
		return err
	}
	if err := bs.queue.Push(ctx, DeleteQueue, Book{ID: id}); err != nil {
		bs.logger.Error("service: failed to push to queue", zap.String("qid", DeleteQueue), zap.Error(err))
	}
	return nil
}

func (bs *BookService) Update(ctx context.Context, id int64, book Book) (Book, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	updated, err := bs.storage.Update(ctx, id, book)
	if err != nil {
		return updated, err
	}
	if err := bs.queue.Push(ctx, UpdateQueue, updated); err != nil {
		bs.logger.Error("service: failed to push to queue", zap.String("qid", UpdateQueue), zap.Error(err))
	}
	return updated, nil
}

func (bs *BookService) GetAll(ctx context.Context, filter BookFilter) ([]Book, error) {
	books, err := bs.storage.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(books), nil
}
