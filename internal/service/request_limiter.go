package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RequestLimiter decide si un usuario puede hacer otra llamada a la API simulada.
type RequestLimiter interface {
	Allow(key string) bool
}

// quotaBackend consume una llamada de la cuota del usuario ya normalizado.
type quotaBackend interface {
	take(user string) bool
}

// quotaLimiter normaliza el usuario y delega el conteo en el backend.
// Un usuario vacio nunca tiene cuota.
type quotaLimiter struct {
	backend quotaBackend
}

func (l quotaLimiter) Allow(key string) bool {
	user := strings.ToLower(strings.TrimSpace(key))
	if user == "" {
		return false
	}
	return l.backend.take(user)
}

// La ventana se abre con el primer llamado y el corte se decide en el servidor.
const redisQuotaScript = `
local used = redis.call("INCR", KEYS[1])
if used == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if used > tonumber(ARGV[2]) then
  return 0
end
return 1
`

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisQuota struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

func (q *redisQuota) take(user string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	allowed, err := q.client.Eval(ctx, redisQuotaScript, []string{q.prefix + user}, q.window.Milliseconds(), q.max).Int()
	if err != nil {
		// sin Redis no se corta el trafico
		return true
	}
	return allowed == 1
}

type memoryQuota struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

func (q *memoryQuota) take(user string) bool {
	q.mu.Lock()
	bucket, ok := q.buckets[user]
	if !ok {
		bucket = rate.NewLimiter(q.limit, q.burst)
		q.buckets[user] = bucket
	}
	q.mu.Unlock()
	return bucket.Allow()
}

func quotaDefaults(window time.Duration, max int) (time.Duration, int) {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return window, max
}

// NewRedisRequestLimiter comparte la cuota por ventana fija entre replicas.
func NewRedisRequestLimiter(client *redis.Client, window time.Duration, max int) RequestLimiter {
	if client == nil {
		return nil
	}
	return newRedisRequestLimiter(client, window, max)
}

func newRedisRequestLimiter(client redisEvaler, window time.Duration, max int) RequestLimiter {
	window, max = quotaDefaults(window, max)
	return quotaLimiter{backend: &redisQuota{client: client, window: window, max: max, prefix: "watson:quota:"}}
}

// NewMemoryRequestLimiter reparte max llamadas por ventana con un token bucket
// por usuario dentro del proceso.
func NewMemoryRequestLimiter(window time.Duration, max int) RequestLimiter {
	window, max = quotaDefaults(window, max)
	return quotaLimiter{backend: &memoryQuota{
		buckets: make(map[string]*rate.Limiter),
		limit:   rate.Limit(float64(max) / window.Seconds()),
		burst:   max,
	}}
}
