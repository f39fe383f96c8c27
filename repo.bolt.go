package main

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

type boltBookStorage struct {
	logger *zap.Logger
	client *bolt.DB
	config *BoltDBConfig
}

// GetBoltDBClient setup the database and the bucket then provides a ready to use client.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, errB := tx.CreateBucketIfNotExists([]byte(config.BoltDB.BucketName)); errB != nil {
			return fmt.Errorf("failed to create %s bucket: %v", config.BoltDB.BucketName, errB)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up bucket: %v", err)
	}
	return db, nil
}

// NewBoltBookStorage provides an instance of bolt-based book storage.
func NewBoltBookStorage(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB) *boltBookStorage {
	return &boltBookStorage{
		logger: logger,
		client: client,
		config: boltConfig,
	}
}

// Close shuts down the bolt-based book storage.
func (bs *boltBookStorage) Close() error {
	return bs.client.Close()
}

// bookKey encodes a book id as a fixed-width big-endian key so the
// bucket cursor walks records in ascending id order, which is the
// books creation order.
func bookKey(id int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

// Create assigns the next id from the bucket sequence then inserts the
// record. The sequence only grows, so ids of deleted books never come back.
func (bs *boltBookStorage) Create(_ context.Context, book Book) (Book, error) {
	err := bs.client.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bs.config.BucketName))
		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}
		book.ID = int64(seq)
		bookBytes, err := json.Marshal(book)
		if err != nil {
			return err
		}
		return bucket.Put(bookKey(book.ID), bookBytes)
	})
	return book, err
}

// GetOne retrieves a book record based on its ID from boltdb store.
func (bs *boltBookStorage) GetOne(_ context.Context, id int64) (Book, error) {
	var book Book
	// initialize a readable transaction.
	tx, err := bs.client.Begin(false)
	if err != nil {
		return book, err
	}
	defer tx.Rollback()

	result := tx.Bucket([]byte(bs.config.BucketName)).Get(bookKey(id))
	if result == nil {
		return book, ErrBookNotFound
	}
	err = json.Unmarshal(result, &book)
	return book, err
}

// Delete removes a book record based on its ID from boltdb store.
func (bs *boltBookStorage) Delete(_ context.Context, id int64) error {
	return bs.client.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bs.config.BucketName))
		if bucket.Get(bookKey(id)) == nil {
			return ErrBookNotFound
		}
		return bucket.Delete(bookKey(id))
	})
}

// Update replaces every field of an existing book record, keeping its id.
func (bs *boltBookStorage) Update(_ context.Context, id int64, book Book) (Book, error) {
	book.ID = id
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return book, err
	}
	err = bs.client.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bs.config.BucketName))
		if bucket.Get(bookKey(id)) == nil {
			return ErrBookNotFound
		}
		return bucket.Put(bookKey(id), bookBytes)
	})
	return book, err
}

// Put inserts or replaces a record under its existing id. It backs the
// replication consumer which receives books already carrying their id.
func (bs *boltBookStorage) Put(_ context.Context, book Book) error {
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return err
	}
	return bs.client.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bs.config.BucketName)).Put(bookKey(book.ID), bookBytes)
	})
}

// GetAll retrieves a list of all books stored in the bolt database.
// Keys are big-endian ids so cursor order is creation order already.
func (bs *boltBookStorage) GetAll(_ context.Context) ([]Book, error) {
	tx, err := bs.client.Begin(false)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Create a cursor on the books' bucket.
	c := tx.Bucket([]byte(bs.config.BucketName)).Cursor()

	books := []Book{}
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var book Book
		if err = json.Unmarshal(v, &book); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}
