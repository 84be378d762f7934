package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nao1215/postnotify/pkg/httpclient"
)

// HeaderRequestID はリクエストIDを受け渡すHTTPヘッダー。
const HeaderRequestID = httpclient.HeaderRequestID

// contextKeyRequestID はGinコンテキストにリクエストIDを保存するキー。
const contextKeyRequestID = "request_id"

// RequestLogger はリクエストの開始と終了をログに出力するGinミドルウェアを返す。
// X-Request-IDが無ければ生成し、レスポンスヘッダーにも設定する。
// IDはリクエストのcontextにも載せ、httpclientの外向き呼び出しに引き継ぐ。
func RequestLogger(logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(contextKeyRequestID, requestID)
		c.Header(HeaderRequestID, requestID)
		c.Request = c.Request.WithContext(httpclient.WithRequestID(c.Request.Context(), requestID))

		entry := logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		})
		entry.Debug("リクエスト受信")

		start := time.Now()
		c.Next()

		entry = entry.WithFields(logrus.Fields{
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Warn("リクエスト完了")
			return
		}
		entry.Info("リクエスト完了")
	}
}

// RequestID はGinコンテキストからリクエストIDを取得する。
// RequestLoggerミドルウェアが事前に適用されている必要がある。
func RequestID(c *gin.Context) string {
	return c.GetString(contextKeyRequestID)
}
