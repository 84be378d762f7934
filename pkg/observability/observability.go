package observability

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nao1215/postnotify/pkg/config"
)

// Observability はサービスに注入するロガーとメトリクスの組。
type Observability struct {
	// Logger はサービス名フィールド付きの構造化ロガー。
	Logger *logrus.Entry
	// Metrics はHTTPリクエストのメトリクス。
	Metrics *Metrics
	// closers は終了時に閉じるリソース。
	closers []io.Closer
}

// New はサービス用の観測コンテキストを生成する。
// cfg.File が指定されていれば標準エラーに加えてローテーション付きファイルにも出力する。
func New(service string, cfg config.Log) (*Observability, error) {
	base := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("ログレベルが不正です: %w", err)
	}
	base.SetLevel(level)

	switch cfg.Format {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("ログ形式が不正です: %q", cfg.Format)
	}

	o := &Observability{Metrics: NewMetrics(service)}

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		base.SetOutput(io.MultiWriter(os.Stderr, rotator))
		o.closers = append(o.closers, rotator)
	} else {
		base.SetOutput(os.Stderr)
	}

	o.Logger = base.WithField("service", service)
	return o, nil
}

// NewNop はテスト用に出力を捨てる観測コンテキストを生成する。
// メトリクスは通常どおり独立したレジストリに記録される。
func NewNop(service string) *Observability {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return &Observability{
		Logger:  base.WithField("service", service),
		Metrics: NewMetrics(service),
	}
}

// Close はログファイル等のリソースを解放する。
func (o *Observability) Close() error {
	var firstErr error
	for _, c := range o.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	o.closers = nil
	return firstErr
}
