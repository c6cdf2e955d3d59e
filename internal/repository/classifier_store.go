package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"

	"watson-sdk/internal/domain"
)

type memoryClassifierRepository struct {
	mu    sync.Mutex
	items map[string]domain.ClassifierRecord
}

// NewMemoryClassifierRepository guarda los clasificadores en memoria del proceso.
func NewMemoryClassifierRepository() ClassifierRepository {
	return &memoryClassifierRepository{
		items: make(map[string]domain.ClassifierRecord),
	}
}

func (r *memoryClassifierRepository) Create(_ context.Context, record domain.ClassifierRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[record.Classifier.ID]; ok {
		return fmt.Errorf("classifier %s: %w", record.Classifier.ID, ErrClassifierExists)
	}
	r.items[record.Classifier.ID] = record
	return nil
}

func (r *memoryClassifierRepository) GetByID(_ context.Context, id string) (domain.ClassifierRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.items[id]
	if !ok {
		return domain.ClassifierRecord{}, ErrClassifierNotFound
	}
	return record, nil
}

func (r *memoryClassifierRepository) List(_ context.Context) ([]domain.ClassifierRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records := make([]domain.ClassifierRecord, 0, len(r.items))
	for _, record := range r.items {
		records = append(records, record)
	}
	sortByCreated(records)
	return records, nil
}

func (r *memoryClassifierRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrClassifierNotFound
	}
	delete(r.items, id)
	return nil
}

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

type redisClassifierRepository struct {
	client redisKV
	prefix string
	index  string
}

// NewRedisClassifierRepository comparte los clasificadores entre instancias via Redis.
func NewRedisClassifierRepository(client *redis.Client) ClassifierRepository {
	if client == nil {
		return nil
	}
	return newRedisClassifierRepository(client)
}

func newRedisClassifierRepository(client redisKV) *redisClassifierRepository {
	return &redisClassifierRepository{
		client: client,
		prefix: "nlc:classifier:",
		index:  "nlc:classifiers",
	}
}

// createScript guarda el registro y lo agrega al indice en un solo paso.
// Devuelve 0 si la clave ya existia.
const createScript = `
if redis.call("SETNX", KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call("SADD", KEYS[2], ARGV[2])
return 1
`

func (r *redisClassifierRepository) Create(ctx context.Context, record domain.ClassifierRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal classifier: %w", err)
	}
	id := record.Classifier.ID
	created, err := r.client.Eval(ctx, createScript, []string{r.prefix + id, r.index}, string(payload), id).Int64()
	if err != nil {
		return err
	}
	if created == 0 {
		return fmt.Errorf("classifier %s: %w", id, ErrClassifierExists)
	}
	return nil
}

func (r *redisClassifierRepository) GetByID(ctx context.Context, id string) (domain.ClassifierRecord, error) {
	payload, err := r.client.Get(ctx, r.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ClassifierRecord{}, ErrClassifierNotFound
	}
	if err != nil {
		return domain.ClassifierRecord{}, err
	}
	var record domain.ClassifierRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return domain.ClassifierRecord{}, fmt.Errorf("unmarshal classifier %s: %w", id, err)
	}
	return record, nil
}

func (r *redisClassifierRepository) List(ctx context.Context) ([]domain.ClassifierRecord, error) {
	ids, err := r.client.SMembers(ctx, r.index).Result()
	if err != nil {
		return nil, err
	}
	records := make([]domain.ClassifierRecord, 0, len(ids))
	for _, id := range ids {
		record, err := r.GetByID(ctx, id)
		if errors.Is(err, ErrClassifierNotFound) {
			// indice desfasado: otra instancia borro el clasificador
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	sortByCreated(records)
	return records, nil
}

func (r *redisClassifierRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, r.prefix+id).Result()
	if err != nil {
		return err
	}
	if err := r.client.SRem(ctx, r.index, id).Err(); err != nil {
		return err
	}
	if n == 0 {
		return ErrClassifierNotFound
	}
	return nil
}

func sortByCreated(records []domain.ClassifierRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ci, cj := records[i].Classifier, records[j].Classifier
		if ci.Created.Equal(cj.Created) {
			return ci.ID < cj.ID
		}
		return ci.Created.Before(cj.Created)
	})
}
