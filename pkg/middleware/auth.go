package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/postnotify/pkg/apperror"
	"github.com/nao1215/postnotify/pkg/auth"
)

// contextKeyUser はGinコンテキストに認証済みユーザーを保存するキー。
const contextKeyUser = "user"

// RequireToken はベアラートークンを検証するGinミドルウェアを返す。
// 検証に成功した場合、コンテキストに "user" を設定する。
// 失敗時は401で {"message": "Token expired" | "Invalid token"} を返す。
func RequireToken(v auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || strings.TrimSpace(tokenString) == "" {
			apperror.Respond(c, "message", apperror.New(apperror.KindInvalidToken, "Invalid token"))
			return
		}

		user, err := v.Validate(strings.TrimSpace(tokenString))
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				apperror.Respond(c, "message", apperror.Wrap(apperror.KindTokenExpired, "Token expired", err))
				return
			}
			apperror.Respond(c, "message", apperror.Wrap(apperror.KindInvalidToken, "Invalid token", err))
			return
		}

		c.Set(contextKeyUser, user)
		c.Next()
	}
}

// User はGinコンテキストから認証済みユーザーを取得する。
// RequireTokenミドルウェアが事前に適用されている必要がある。
func User(c *gin.Context) string {
	return c.GetString(contextKeyUser)
}
