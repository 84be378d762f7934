// Postサービスのエントリポイント。
// 投稿の登録と照会、トークンの発行と検証を提供する。
// 投稿を登録すると通知サービスに通知を依頼する。
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/nao1215/postnotify/internal/post"
	"github.com/nao1215/postnotify/internal/store"
	"github.com/nao1215/postnotify/pkg/auth"
	"github.com/nao1215/postnotify/pkg/config"
	"github.com/nao1215/postnotify/pkg/httpclient"
	"github.com/nao1215/postnotify/pkg/httpserver"
	"github.com/nao1215/postnotify/pkg/observability"
)

func main() {
	cfg, err := config.LoadPost()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	obs, err := observability.New("post", cfg.Log)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	defer obs.Close()

	if cfg.Auth.UsesDefaultSecret() {
		obs.Logger.Warn("JWT_SECRET が開発用の既定値のままです")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Store)
	if err != nil {
		obs.Logger.WithError(err).Fatal("ストアの初期化に失敗")
	}
	defer st.Close()

	if err := st.Migrate(ctx, obs.Logger); err != nil {
		obs.Logger.WithError(err).Fatal("マイグレーションに失敗")
	}

	tokens, err := auth.NewService(cfg.Auth.Secret,
		auth.Credentials{Username: cfg.Auth.Username, Password: cfg.Auth.Password},
		auth.WithTTL(cfg.Auth.TokenTTL))
	if err != nil {
		obs.Logger.WithError(err).Fatal("トークンサービスの初期化に失敗")
	}

	client, err := httpclient.New(cfg.NotificationURL, httpclient.Policy{
		Timeout:    cfg.NotifyTimeout,
		MaxRetries: cfg.NotifyMaxRetries,
	})
	if err != nil {
		obs.Logger.WithError(err).Fatal("通知クライアントの初期化に失敗")
	}

	server := post.NewServer(st, tokens, post.NewHTTPNotifier(client), obs, post.Options{
		CORSOrigins:    cfg.HTTP.Origins(),
		NotifyTimeout:  client.Policy().Budget(),
		LoginRateLimit: cfg.LoginRateLimit,
		LoginRateBurst: cfg.LoginRateBurst,
	})
	if err := httpserver.ListenAndRun(ctx, cfg.Port, server.Handler(), cfg.HTTP.ShutdownTimeout, obs.Logger); err != nil {
		obs.Logger.WithError(err).Error("Postサービスが異常終了しました")
	}
}
