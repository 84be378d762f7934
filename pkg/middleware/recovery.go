package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// internalErrorMessage はパニック時にクライアントへ返す固定メッセージ。
const internalErrorMessage = "An internal error occurred"

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニック発生時にログを出力し、500エラーを返す。
func Recovery(logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(logrus.Fields{
					"method": c.Request.Method,
					"path":   c.Request.URL.Path,
					"panic":  fmt.Sprint(r),
				}).Error("ハンドラーでパニックが発生しました")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": internalErrorMessage,
				})
			}
		}()
		c.Next()
	}
}
