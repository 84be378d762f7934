// Package httpserver はHTTPサーバーの起動とグレースフルシャットダウンを提供する。
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Run はlnでhandlerを提供し、ctxが終了したらtimeout以内に処理中のリクエストを捌いて停止する。
func Run(ctx context.Context, ln net.Listener, handler http.Handler, timeout time.Duration, logger *logrus.Entry) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", ln.Addr().String()).Info("HTTPサーバーを起動します")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTPサーバーが停止しました: %w", err)
	case <-ctx.Done():
	}

	logger.Info("シャットダウンします")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("シャットダウンに失敗: %w", err)
	}
	return nil
}

// ListenAndRun はportで待ち受けてRunを呼ぶ。
func ListenAndRun(ctx context.Context, port string, handler http.Handler, timeout time.Duration, logger *logrus.Entry) error {
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("ポート %s での待ち受けに失敗: %w", port, err)
	}
	return Run(ctx, ln, handler, timeout, logger)
}
