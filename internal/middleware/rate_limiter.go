package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// TokenBucket 令牌桶
type TokenBucket struct {
	capacity   int64
	tokens     int64
	rate       int64 // 每秒产生令牌数
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket 创建令牌桶
func NewTokenBucket(capacity, rate int64) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		rate:       rate,
		lastRefill: time.Now(),
	}
}

// Allow 尝试获取一个令牌
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens += int64(elapsed * float64(tb.rate))
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

// RateLimiterConfig 限流配置
type RateLimiterConfig struct {
	GlobalQPS      int64 `mapstructure:"global_qps"`
	IPQPSLimit     int64 `mapstructure:"ip_qps"`
	CallerQPSLimit int64 `mapstructure:"caller_qps"`
	BurstSize      int64 `mapstructure:"burst"`
}

// DefaultRateLimiterConfig 默认配置
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GlobalQPS:      1000,
		IPQPSLimit:     50,
		CallerQPSLimit: 20,
		BurstSize:      10,
	}
}

// RateLimiter 全局、单 IP、单调用方三级限流
type RateLimiter struct {
	config        RateLimiterConfig
	globalBucket  *TokenBucket
	ipBuckets     sync.Map // ip -> *TokenBucket
	callerBuckets sync.Map // callerID -> *TokenBucket
}

// NewRateLimiter 创建限流器
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		config:       config,
		globalBucket: NewTokenBucket(config.GlobalQPS+config.BurstSize, config.GlobalQPS),
	}
}

func (rl *RateLimiter) bucketFor(m *sync.Map, key string, qps int64) *TokenBucket {
	if bucket, ok := m.Load(key); ok {
		return bucket.(*TokenBucket)
	}
	bucket := NewTokenBucket(qps+rl.config.BurstSize, qps)
	actual, _ := m.LoadOrStore(key, bucket)
	return actual.(*TokenBucket)
}

// Allow 检查是否放行
func (rl *RateLimiter) Allow(ip, callerID string) bool {
	if !rl.globalBucket.Allow() {
		return false
	}
	if !rl.bucketFor(&rl.ipBuckets, ip, rl.config.IPQPSLimit).Allow() {
		return false
	}
	if callerID != "" {
		if !rl.bucketFor(&rl.callerBuckets, callerID, rl.config.CallerQPSLimit).Allow() {
			return false
		}
	}
	return true
}

// Middleware Gin 中间件
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP(), CallerID(c)) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// Cleanup 清理一小时没动过的桶，由外层定期调用
func (rl *RateLimiter) Cleanup() {
	clean := func(m *sync.Map) {
		m.Range(func(key, value interface{}) bool {
			bucket := value.(*TokenBucket)
			bucket.mu.Lock()
			idle := time.Since(bucket.lastRefill) > time.Hour
			bucket.mu.Unlock()
			if idle {
				m.Delete(key)
			}
			return true
		})
	}
	clean(&rl.ipBuckets)
	clean(&rl.callerBuckets)
}
