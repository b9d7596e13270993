package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/marcelsud/bookcatalog/book"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

/* CachedRepository decorates a book.Repository with a Redis read cache.
 * The list and single books are cached as JSON; every write drops the list
 * key and the key of the touched book. A Redis failure never fails a request:
 * reads fall through to the wrapped repository and the error is logged.
 *
 * Every cached key has a generation counter under books:gen:<key>. Writers
 * bump it when they invalidate; a reader notes it before going to the store
 * and only caches its result if the generation is still the same.
 */

const (
	listKey   = "books:all"
	keyPrefix = "books:id:"
	genPrefix = "books:gen:"

	// generations outlive any read in flight
	genTTL = 24 * time.Hour
)

// setIfGeneration stores ARGV[2] in KEYS[2] only while KEYS[1] still holds ARGV[1]
var setIfGeneration = redis.NewScript(`
local gen = redis.call("GET", KEYS[1])
if gen == false then
	gen = "0"
end
if gen ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[2], ARGV[2])
end
return 1
`)

type CachedRepository struct {
	next   book.Repository
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewClient connects to Redis and checks the connection.
func NewClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}
	return client, nil
}

func NewCachedRepository(next book.Repository, client *redis.Client, ttl time.Duration, logger zerolog.Logger) *CachedRepository {
	return &CachedRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// cachedBook is the JSON shape stored in Redis
type cachedBook struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Author      string    `json:"author"`
	NewField    string    `json:"new_field,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toCached(b book.Book) cachedBook {
	return cachedBook(b)
}

func (c cachedBook) toBook() book.Book {
	return book.Book(c)
}

func bookKey(id int64) string {
	return fmt.Sprintf("%s%d", keyPrefix, id)
}

func genKey(key string) string {
	return genPrefix + key
}

func (r *CachedRepository) Select(ctx context.Context, id int64) (book.Book, error) {
	var cached cachedBook
	if r.get(ctx, bookKey(id), &cached) {
		return cached.toBook(), nil
	}
	gen, ok := r.generation(ctx, bookKey(id))
	b, err := r.next.Select(ctx, id)
	if err != nil {
		return book.Book{}, err
	}
	if ok {
		r.set(ctx, bookKey(id), gen, toCached(b))
	}
	return b, nil
}

func (r *CachedRepository) SelectAll(ctx context.Context) ([]book.Book, error) {
	var cached []cachedBook
	if r.get(ctx, listKey, &cached) {
		books := make([]book.Book, 0, len(cached))
		for _, c := range cached {
			books = append(books, c.toBook())
		}
		return books, nil
	}
	gen, ok := r.generation(ctx, listKey)
	books, err := r.next.SelectAll(ctx)
	if err != nil {
		return nil, err
	}
	toStore := make([]cachedBook, 0, len(books))
	for _, b := range books {
		toStore = append(toStore, toCached(b))
	}
	if ok {
		r.set(ctx, listKey, gen, toStore)
	}
	return books, nil
}

func (r *CachedRepository) Insert(ctx context.Context, b book.Book) (int64, error) {
	id, err := r.next.Insert(ctx, b)
	if err != nil {
		return 0, err
	}
	r.invalidate(ctx, listKey)
	return id, nil
}

func (r *CachedRepository) Update(ctx context.Context, b book.Book) error {
	if err := r.next.Update(ctx, b); err != nil {
		return err
	}
	r.invalidate(ctx, listKey, bookKey(b.ID))
	return nil
}

func (r *CachedRepository) Delete(ctx context.Context, id int64) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, listKey, bookKey(id))
	return nil
}

// Close closes the wrapped repository. The Redis client is owned by the caller.
func (r *CachedRepository) Close(ctx context.Context) error {
	return r.next.Close(ctx)
}

func (r *CachedRepository) get(ctx context.Context, key string, dst any) bool {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("reading book cache")
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("decoding cached books")
		return false
	}
	return true
}

// generation reads the counter for key; "0" when it was never bumped
func (r *CachedRepository) generation(ctx context.Context, key string) (string, bool) {
	gen, err := r.client.Get(ctx, genKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "0", true
	}
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("reading book cache generation")
		return "", false
	}
	return gen, true
}

func (r *CachedRepository) set(ctx context.Context, key, gen string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("encoding books for cache")
		return
	}
	keys := []string{genKey(key), key}
	if err := setIfGeneration.Run(ctx, r.client, keys, gen, data, r.ttl.Milliseconds()).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("writing book cache")
	}
}

func (r *CachedRepository) invalidate(ctx context.Context, keys ...string) {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, genKey(key))
			pipe.Expire(ctx, genKey(key), genTTL)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Strs("keys", keys).Msg("invalidating book cache")
	}
}
