// ユーザーディレクトリサービスのエントリポイント。
// ユーザーの登録と照会を提供し、通知サービスから宛先の解決に使われる。
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/nao1215/postnotify/internal/store"
	"github.com/nao1215/postnotify/internal/user"
	"github.com/nao1215/postnotify/pkg/config"
	"github.com/nao1215/postnotify/pkg/httpserver"
	"github.com/nao1215/postnotify/pkg/observability"
)

func main() {
	cfg, err := config.LoadUser()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	obs, err := observability.New("user", cfg.Log)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	defer obs.Close()

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

	server := user.NewServer(st, obs, cfg.HTTP.Origins())
	if err := httpserver.ListenAndRun(ctx, cfg.Port, server.Handler(), cfg.HTTP.ShutdownTimeout, obs.Logger); err != nil {
		obs.Logger.WithError(err).Error("ユーザーディレクトリサービスが異常終了しました")
	}
}
