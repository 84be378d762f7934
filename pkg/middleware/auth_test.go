package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/postnotify/pkg/auth"
)

// stubClock はテストで進められる時計。
type stubClock struct{ t time.Time }

func (s *stubClock) Now() time.Time { return s.t }

// TestRequireToken はRequireTokenミドルウェアを検証する。
func TestRequireToken(t *testing.T) {
	t.Parallel()

	newRouter := func(t *testing.T) (*gin.Engine, *auth.Service, *stubClock) {
		t.Helper()

		clock := &stubClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
		svc, err := auth.NewService("test-secret", auth.Credentials{Username: "admin", Password: "password"},
			auth.WithClock(clock.Now))
		if err != nil {
			t.Fatalf("auth.NewService()でエラー: %v", err)
		}

		router := gin.New()
		router.GET("/protected", RequireToken(svc), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"user": User(c)})
		})
		return router, svc, clock
	}

	do := func(router *gin.Engine, header string) (int, map[string]string) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var body map[string]string
		_ = json.Unmarshal(w.Body.Bytes(), &body)
		return w.Code, body
	}

	t.Run("有効なトークンでユーザーがコンテキストに設定されること", func(t *testing.T) {
		t.Parallel()

		router, svc, _ := newRouter(t)
		token, err := svc.Issue("admin", "password")
		if err != nil {
			t.Fatalf("Issue()でエラー: %v", err)
		}

		code, body := do(router, "Bearer "+token)
		if code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", code, http.StatusOK)
		}
		if body["user"] != "admin" {
			t.Errorf("user = %q, want %q", body["user"], "admin")
		}
	})

	t.Run("期限切れトークンはToken expiredになること", func(t *testing.T) {
		t.Parallel()

		router, svc, clock := newRouter(t)
		token, err := svc.Issue("admin", "password")
		if err != nil {
			t.Fatalf("Issue()でエラー: %v", err)
		}
		clock.t = clock.t.Add(auth.DefaultTTL + time.Second)

		code, body := do(router, "Bearer "+token)
		if code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want %d", code, http.StatusUnauthorized)
		}
		if body["message"] != "Token expired" {
			t.Errorf("message = %q, want %q", body["message"], "Token expired")
		}
	})

	t.Run("ヘッダーの不備や不正トークンはInvalid tokenになること", func(t *testing.T) {
		t.Parallel()

		router, _, _ := newRouter(t)
		for _, header := range []string{"", "Basic abc", "Bearer ", "Bearer not.a.token"} {
			code, body := do(router, header)
			if code != http.StatusUnauthorized {
				t.Errorf("header=%q: ステータスコード = %d, want %d", header, code, http.StatusUnauthorized)
			}
			if body["message"] != "Invalid token" {
				t.Errorf("header=%q: message = %q, want %q", header, body["message"], "Invalid token")
			}
		}
	})
}
