package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ipLimiters はクライアントIPごとのトークンバケットを保持する。
type ipLimiters struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	limiters  map[string]*limiterEntry
	now       func() time.Time
	lastSweep time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// idleTTL を超えて使われていないバケットは破棄する。
const idleTTL = 10 * time.Minute

func newIPLimiters(limit rate.Limit, burst int, now func() time.Time) *ipLimiters {
	return &ipLimiters{
		limit:     limit,
		burst:     burst,
		limiters:  make(map[string]*limiterEntry),
		now:       now,
		lastSweep: now(),
	}
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > idleTTL {
		l.sweep(now)
	}

	e, ok := l.limiters[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = e
	}
	e.lastSeen = now
	return e.limiter
}

// sweep はidleTTLを超えて使われていないバケットを破棄する。
// 呼び出し側でmuを保持していること。
func (l *ipLimiters) sweep(now time.Time) {
	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) > idleTTL {
			delete(l.limiters, k)
		}
	}
	l.lastSweep = now
}

// RateLimit は接続元IPごとにリクエストを制限するGinミドルウェアを返す。
// X-Forwarded-For などのヘッダーは送信者が自由に書き換えられるため使わず、
// TCP接続の送信元アドレスで数える。
// rpsが0以下の場合は制限しない。超過時は429で {"message": ...} を返す。
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst < 1 {
		burst = 1
	}

	l := newIPLimiters(rate.Limit(rps), burst, time.Now)

	return func(c *gin.Context) {
		if !l.get(c.RemoteIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "Too many requests",
			})
			return
		}
		c.Next()
	}
}
