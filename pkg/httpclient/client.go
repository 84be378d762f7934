package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Policy は外向き呼び出しのタイムアウトとリトライの方針。
type Policy struct {
	// Timeout は1回の試行あたりのタイムアウト。0以下は許可しない。
	Timeout time.Duration
	// MaxRetries は通信エラー時の追加試行回数。0ならリトライしない。
	// 2xx以外のレスポンスはリトライしない。
	MaxRetries int
}

// Budget はリトライを含めた呼び出し全体にかかりうる最大時間を返す。
func (p Policy) Budget() time.Duration {
	return p.Timeout * time.Duration(p.MaxRetries+1)
}

// HeaderRequestID はリクエストIDを下流サービスへ引き継ぐHTTPヘッダー。
const HeaderRequestID = "X-Request-ID"

type requestIDKey struct{}

// WithRequestID は外向き呼び出しで引き継ぐリクエストIDをctxに設定する。
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom はctxに設定されたリクエストIDを返す。
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// NoRetry はタイムアウトのみを持ちリトライしない方針を返す。
func NoRetry(timeout time.Duration) Policy {
	return Policy{Timeout: timeout}
}

// StatusError は下流サービスが2xx以外を返したことを表す。
type StatusError struct {
	// StatusCode はレスポンスのステータスコード。
	StatusCode int
	// Body はレスポンスボディ。
	Body string
}

// Error はerrorインターフェースを実装する。
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTPエラー: status=%d, body=%s", e.StatusCode, e.Body)
}

// IsStatus はerrがStatusErrorかどうかを返す。
func IsStatus(err error) bool {
	var se *StatusError
	return errors.As(err, &se)
}

// Client はサービス間通信用のHTTPクライアント。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先サービスのベースURL。
	baseURL string
	// policy はタイムアウトとリトライの方針。
	policy Policy
}

// New は新しいサービス間通信用HTTPクライアントを生成する。
// baseURLには接続先サービスのベースURL（例: "http://user-service:5001"）を指定する。
func New(baseURL string, policy Policy) (*Client, error) {
	if policy.Timeout <= 0 {
		return nil, fmt.Errorf("タイムアウトは正の値である必要があります: %v", policy.Timeout)
	}
	if policy.MaxRetries < 0 {
		return nil, fmt.Errorf("リトライ回数は0以上である必要があります: %d", policy.MaxRetries)
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: policy.Timeout,
		},
		baseURL: baseURL,
		policy:  policy,
	}, nil
}

// Policy はクライアントの方針を返す。
func (c *Client) Policy() Policy {
	return c.policy
}

// PostJSON は指定パスにJSONボディでPOSTリクエストを送信する。
// レスポンスボディをresultにデシリアライズする。
func (c *Client) PostJSON(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, result)
}

// GetJSON は指定パスにGETリクエストを送信する。
// レスポンスボディをresultにデシリアライズする。
func (c *Client) GetJSON(ctx context.Context, path string, result any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, result)
}

// doJSON は方針に従って試行を繰り返す。
func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
		}
		payload = b
	}

	var lastErr error
	for attempt := 0; attempt <= c.policy.MaxRetries; attempt++ {
		lastErr = c.once(ctx, method, path, payload, result)
		if lastErr == nil || IsStatus(lastErr) || ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

// once はJSON形式のHTTPリクエストを1回実行する。
func (c *Client) once(ctx context.Context, method, path string, payload []byte, result any) error {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	req.Header.Set("Accept", "application/json")
	if id := RequestIDFrom(ctx); id != "" {
		req.Header.Set(HeaderRequestID, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
		}
	}
	return nil
}
