package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// HBooks is the redis hash holding all book records keyed by id.
	HBooks string = "books"
	// KBooksNextID is the counter behind book ids. INCR makes each
	// assigned id strictly greater than any previous one, so deleted
	// ids are never handed out again.
	KBooksNextID string = "books:next.id"
)

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
}

// NewRedisBookStorage provides an instance of redis-based book storage.
func NewRedisBookStorage(logger *zap.Logger, client *redis.Client) BookStorage {
	return &redisBookStorage{
		logger: logger,
		client: client,
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// Create assigns the next id to the book then inserts the record.
func (rs *redisBookStorage) Create(ctx context.Context, book Book) (Book, error) {
	id, err := rs.client.Incr(ctx, KBooksNextID).Result()
	if err != nil {
		return book, fmt.Errorf("failed to assign book id: %w", err)
	}
	book.ID = id
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return book, err
	}
	if err = rs.client.HSet(ctx, HBooks, formatBookID(id), bookBytes).Err(); err != nil {
		return book, err
	}
	return book, nil
}

// GetOne retrieves a book record based on its ID.
func (rs *redisBookStorage) GetOne(ctx context.Context, id int64) (Book, error) {
	var book Book
	bookJSONString, err := rs.client.HGet(ctx, HBooks, formatBookID(id)).Result()
	if err == redis.Nil {
		return book, ErrBookNotFound
	}
	if err != nil {
		return book, err
	}
	err = json.Unmarshal([]byte(bookJSONString), &book)
	return book, err
}

// Delete removes a book record based on its ID.
func (rs *redisBookStorage) Delete(ctx context.Context, id int64) error {
	deleted, err := rs.client.HDel(ctx, HBooks, formatBookID(id)).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrBookNotFound
	}
	return nil
}

// Update replaces every field of an existing book record, keeping its id.
func (rs *redisBookStorage) Update(ctx context.Context, id int64, book Book) (Book, error) {
	exists, err := rs.client.HExists(ctx, HBooks, formatBookID(id)).Result()
	if err != nil {
		return book, err
	}
	if !exists {
		return book, ErrBookNotFound
	}
	book.ID = id
	bookBytes, err := json.Marshal(book)
	if err != nil {
		return book, err
	}
	err = rs.client.HSet(ctx, HBooks, formatBookID(id), bookBytes).Err()
	return book, err
}

// GetAll retrieves all books stored in the redis database in creation order.
// Hash values come back unordered so the result is sorted by id.
func (rs *redisBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	mapBooks, err := rs.client.HVals(ctx, HBooks).Result()
	if err != nil {
		return nil, err
	}
	books := []Book{}
	for _, bookJSONString := range mapBooks {
		var book Book
		if err = json.Unmarshal([]byte(bookJSONString), &book); err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	SortBooksByID(books)
	return books, nil
}

// formatBookID renders an id as the hash field name.
func formatBookID(id int64) string {
	return strconv.FormatInt(id, 10)
}
