package main

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// BookReplicator is the write surface the replication consumer needs.
// Records popped from the queues already carry their id, so creations
// and updates both land as keyed upserts.
type BookReplicator interface {
	Put(ctx context.Context, book Book) error
	Delete(ctx context.Context, id int64) error
}

type boltDBConsumer struct {
	logger  *zap.Logger
	queue   Queuer
	replica BookReplicator
}

func NewBoltDBConsumer(logger *zap.Logger, q Queuer, replica BookReplicator) Consumer {
	return &boltDBConsumer{logger, q, replica}
}

// Consume mirrors every mutation pushed on the given queues into the
// bolt replica until the context is done.
func (bc *boltDBConsumer) Consume(ctx context.Context, qids ...string) error {
	var book Book
	var err error
	var qid string
	for {
		qid, book, err = bc.queue.Pop(ctx, qids...)
		if err != nil && ctx.Err() != nil {
			bc.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
			return nil
		}

		if err != nil {
			bc.logger.Error("consumer: error on queue pop call", zap.Error(err))
			continue
		}

		switch qid {
		case CreateQueue, UpdateQueue:
			if err = bc.replica.Put(ctx, book); err != nil {
				bc.logger.Error("consumer: failed to replicate", zap.String("qid", qid), zap.Any("book", book), zap.Error(err))
			}
		case DeleteQueue:
			if err = bc.replica.Delete(ctx, book.ID); err != nil && !errors.Is(err, ErrBookNotFound) {
				bc.logger.Error("consumer: failed to delete", zap.Int64("book.id", book.ID), zap.Error(err))
			}
		default:
			bc.logger.Warn("consumer: received book on unknow queue id", zap.String("qid", qid), zap.Any("book", book))
		}
	}
}
