package service

import (
	"career_coach_backend/internal/model"
	"career_coach_backend/internal/util"
	"career_coach_backend/pkg/logger"
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// SubmissionGuard 保证同一测评同一时刻只有一个评分流程
type SubmissionGuard interface {
	// Acquire 获取锁，已被占用时返回 util.ErrSubmissionInProgress
	Acquire(ctx context.Context, assessmentID string) (release func(), err error)
}

const submissionLockPrefix = "career:submit:"

// 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSubmissionGuard 多实例部署时使用
type RedisSubmissionGuard struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisSubmissionGuard(client *redis.Client, ttl time.Duration) *RedisSubmissionGuard {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisSubmissionGuard{Client: client, TTL: ttl}
}

func (g *RedisSubmissionGuard) Acquire(ctx context.Context, assessmentID string) (func(), error) {
	key := submissionLockPrefix + assessmentID
	token := model.GenerateUUID()

	ok, err := g.Client.SetNX(ctx, key, token, g.TTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrSubmissionInProgress
	}

	return func() {
		// 请求 ctx 可能已取消，释放锁用独立的 ctx
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, g.Client, []string{key}, token).Err(); err != nil {
			logger.Log.Warn("Failed to release submission lock", zap.String("assessmentId", assessmentID), zap.Error(err))
		}
	}, nil
}

// LocalSubmissionGuard 单进程内的锁
type LocalSubmissionGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewLocalSubmissionGuard() *LocalSubmissionGuard {
	return &LocalSubmissionGuard{active: make(map[string]struct{})}
}

func (g *LocalSubmissionGuard) Acquire(ctx context.Context, assessmentID string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[assessmentID]; busy {
		return nil, util.ErrSubmissionInProgress
	}
	g.active[assessmentID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, assessmentID)
			g.mu.Unlock()
		})
	}, nil
}

// NewSubmissionGuard 有 Redis 时使用分布式锁
func NewSubmissionGuard(client *redis.Client, ttl time.Duration) SubmissionGuard {
	if client != nil {
		return NewRedisSubmissionGuard(client, ttl)
	}
	return NewLocalSubmissionGuard()
}
