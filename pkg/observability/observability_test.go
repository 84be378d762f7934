package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nao1215/postnotify/pkg/config"
)

// TestNew は設定に従ってロガーが構成されることを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("ログファイルに出力されること", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "user.log")
		o, err := New("user", config.Log{Level: "debug", Format: "json", File: path, MaxSizeMB: 1, MaxBackups: 3})
		require.NoError(t, err)

		o.Logger.Info("hello")
		require.NoError(t, o.Close())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"hello"`)
		assert.Contains(t, string(data), `"service":"user"`)
	})

	t.Run("不正なログレベルはエラーになること", func(t *testing.T) {
		t.Parallel()

		_, err := New("user", config.Log{Level: "loud", Format: "text"})
		assert.Error(t, err)
	})

	t.Run("不正なログ形式はエラーになること", func(t *testing.T) {
		t.Parallel()

		_, err := New("user", config.Log{Level: "info", Format: "xml"})
		assert.Error(t, err)
	})
}

// TestMetrics はカウンタとエクスポジションを検証する。
func TestMetrics(t *testing.T) {
	t.Parallel()

	t.Run("リクエストごとにカウンタが1ずつ増えること", func(t *testing.T) {
		t.Parallel()

		m := NewMetrics("post")
		m.ObserveRequest(http.MethodPost, "/post", 10*time.Millisecond)
		m.ObserveRequest(http.MethodPost, "/post", 20*time.Millisecond)
		m.ObserveRequest(http.MethodGet, "/post/:id", time.Millisecond)

		assert.InDelta(t, 2, testutil.ToFloat64(m.RequestCounter(http.MethodPost, "/post")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.RequestCounter(http.MethodGet, "/post/:id")), 0)
	})

	t.Run("レジストリはインスタンスごとに独立していること", func(t *testing.T) {
		t.Parallel()

		a := NewMetrics("user")
		b := NewMetrics("user")
		a.ObserveRequest(http.MethodGet, "/users", time.Millisecond)

		assert.InDelta(t, 0, testutil.ToFloat64(b.RequestCounter(http.MethodGet, "/users")), 0)
	})

	t.Run("/metricsがテキスト形式で出力されること", func(t *testing.T) {
		t.Parallel()

		m := NewMetrics("notification")
		m.Register(prometheus.NewCounter(prometheus.CounterOpts{Name: "extra_total", Help: "extra"}))
		m.ObserveRequest(http.MethodPost, "/notify", time.Millisecond)

		w := httptest.NewRecorder()
		m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		body, err := io.ReadAll(w.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain"))
		assert.Contains(t, string(body), `http_requests_total{endpoint="/notify",method="POST",service="notification"} 1`)
		assert.Contains(t, string(body), "http_request_duration_seconds_bucket")
		assert.Contains(t, string(body), "extra_total")
	})
}
