package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestKindStatus は種別とHTTPステータスの対応を検証する。
func TestKindStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want int
	}{
		{KindInternal, http.StatusInternalServerError},
		{KindInvalidInput, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindInvalidCredentials, http.StatusUnauthorized},
		{KindTokenExpired, http.StatusUnauthorized},
		{KindInvalidToken, http.StatusUnauthorized},
		{KindTransport, http.StatusInternalServerError},
		{KindMailAuth, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.kind.Status())
		})
	}
}

// TestKindOf はラップされたエラーから種別を取り出せることを検証する。
func TestKindOf(t *testing.T) {
	t.Parallel()

	t.Run("ラップされたErrorの種別を返すこと", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("外側: %w", New(KindNotFound, "User not found"))
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("Errorを含まない場合はKindInternalを返すこと", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	})

	t.Run("原因エラーをerrors.Isで辿れること", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("cause")
		err := Wrap(KindTransport, "dial failed", cause)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "dial failed: cause", err.Error())
	})
}

// TestPublicMessage は内部エラーの詳細が隠されることを検証する。
func TestPublicMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "An internal error occurred", PublicMessage(errors.New("sql: connection refused")))
	assert.Equal(t, "An internal error occurred", PublicMessage(Wrap(KindInternal, "secret detail", nil)))
	assert.Equal(t, "Token expired", PublicMessage(New(KindTokenExpired, "Token expired")))
}

// TestRespond はキー名とステータスがレスポンスに反映されることを検証する。
func TestRespond(t *testing.T) {
	t.Parallel()

	router := gin.New()
	router.GET("/error", func(c *gin.Context) {
		Respond(c, "error", New(KindNotFound, "Post not found"))
	})
	router.GET("/message", func(c *gin.Context) {
		Respond(c, "message", New(KindInvalidToken, "Invalid token"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/error", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Post not found"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/message", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Invalid token"}`, w.Body.String())
}
