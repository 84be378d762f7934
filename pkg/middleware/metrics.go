package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/postnotify/pkg/observability"
)

// unmetered はリクエストメトリクスに含めないパス。
var unmetered = map[string]struct{}{
	"/metrics": {},
	"/health":  {},
	"/ready":   {},
}

// Metrics はリクエスト数と処理時間を記録するGinミドルウェアを返す。
// endpointラベルにはルートテンプレート（例: /users/:id）を使う。
// パニックしたリクエストも記録されるよう、後続の完了後にdeferで計測する。
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, skip := unmetered[c.Request.URL.Path]; skip {
			c.Next()
			return
		}

		start := time.Now()
		defer func() {
			endpoint := c.FullPath()
			if endpoint == "" {
				endpoint = "unmatched"
			}
			m.ObserveRequest(c.Request.Method, endpoint, time.Since(start))
		}()
		c.Next()
	}
}
