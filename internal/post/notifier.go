package post

import (
	"context"

	"github.com/nao1215/postnotify/pkg/httpclient"
	"github.com/nao1215/postnotify/pkg/model"
)

// Notifier は投稿の通知を依頼する。
type Notifier interface {
	Notify(ctx context.Context, req model.NotificationRequest) error
}

// HTTPNotifier は通知サービスの POST /notify を呼び出すNotifier。
type HTTPNotifier struct {
	client *httpclient.Client
}

// NewHTTPNotifier はHTTPNotifierを生成する。
// タイムアウトとリトライの方針はclientに設定されたものに従う。
func NewHTTPNotifier(client *httpclient.Client) *HTTPNotifier {
	return &HTTPNotifier{client: client}
}

// Notify は通知依頼を送信する。2xx以外の応答は *httpclient.StatusError で返す。
func (n *HTTPNotifier) Notify(ctx context.Context, req model.NotificationRequest) error {
	return n.client.PostJSON(ctx, "/notify", req, nil)
}
