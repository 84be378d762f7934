// 通知サービスのエントリポイント。
// 投稿の通知依頼を受け、投稿者の宛先をユーザーディレクトリから引いてメールを送る。
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/nao1215/postnotify/internal/notification"
	"github.com/nao1215/postnotify/pkg/config"
	"github.com/nao1215/postnotify/pkg/httpclient"
	"github.com/nao1215/postnotify/pkg/httpserver"
	"github.com/nao1215/postnotify/pkg/mailer"
	"github.com/nao1215/postnotify/pkg/observability"
)

func main() {
	cfg, err := config.LoadNotification()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	obs, err := observability.New("notification", cfg.Log)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	defer obs.Close()

	if cfg.Mail.Host == "" || cfg.Mail.From == "" {
		obs.Logger.Warn("EMAIL_SERVER_ADDRESS または EMAIL_SERVER_FROM が未設定です。通知は送信できません")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := httpclient.New(cfg.UserServiceURL, httpclient.NoRetry(cfg.UserLookupTimeout))
	if err != nil {
		obs.Logger.WithError(err).Fatal("ユーザーディレクトリクライアントの初期化に失敗")
	}

	dialer := &mailer.SMTPDialer{
		Timeout: cfg.Mail.DialTimeout,
		Policy:  mailer.TLSPolicy(cfg.Mail.TLSPolicy),
	}
	orchestrator := notification.NewOrchestrator(notification.NewHTTPUserDirectory(client), dialer, notification.Sender{
		Host: cfg.Mail.Host,
		Port: cfg.Mail.Port,
		From: cfg.Mail.From,
		Key:  cfg.Mail.Key,
	}, obs)

	server := notification.NewServer(orchestrator, obs, cfg.HTTP.Origins())
	if err := httpserver.ListenAndRun(ctx, cfg.Port, server.Handler(), cfg.HTTP.ShutdownTimeout, obs.Logger); err != nil {
		obs.Logger.WithError(err).Error("通知サービスが異常終了しました")
	}
}
