package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Log はロガーの設定。
type Log struct {
	// Level はログレベル（debug, info, warn, error）。
	Level string `env:"LOG_LEVEL,default=info"`
	// Format は出力形式（text または json）。
	Format string `env:"LOG_FORMAT,default=text"`
	// File はローテーション付きログファイルのパス。空ならファイル出力しない。
	File string `env:"LOG_FILE"`
	// MaxSizeMB はローテーションするファイルサイズ（MB）。
	MaxSizeMB int `env:"LOG_MAX_SIZE_MB,default=1"`
	// MaxBackups は保持する世代数。
	MaxBackups int `env:"LOG_MAX_BACKUPS,default=3"`
}

// HTTP はHTTPサーバー共通の設定。
type HTTP struct {
	// CORSAllowedOrigins はカンマ区切りの許可オリジン。空ならCORSを無効にする。
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS"`
	// ShutdownTimeout はグレースフルシャットダウンの待ち時間。
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
}

// Origins はCORSAllowedOriginsを分割して返す。
func (h HTTP) Origins() []string {
	var origins []string
	for _, o := range strings.Split(h.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Store はレコードストアの接続設定。
type Store struct {
	// Driver は "sqlite" または "postgres"。
	Driver string `env:"STORE_DRIVER,default=sqlite"`
	// DSN は接続文字列。空の場合はサービスごとの既定値を使う。
	DSN string `env:"STORE_DSN"`
}

// dsnOrDefault はDSNが未設定ならsqliteの既定ファイルを返す。
func (s Store) dsnOrDefault(service string) Store {
	if s.DSN == "" && s.Driver == "sqlite" {
		s.DSN = fmt.Sprintf("file:/data/%s.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", service)
	}
	return s
}

// User はユーザーディレクトリサービスの設定。
type User struct {
	// Port はリッスンポート。
	Port  string `env:"PORT,default=5001"`
	Log   Log
	HTTP  HTTP
	Store Store
}

// Post はPostサービスの設定。
type Post struct {
	// Port はリッスンポート。
	Port  string `env:"PORT,default=5002"`
	Log   Log
	HTTP  HTTP
	Store Store
	Auth  Auth
	// NotificationURL は通知サービスのベースURL。
	NotificationURL string `env:"NOTIFICATION_URL,default=http://notification-service:5003"`
	// NotifyTimeout は通知サービス呼び出しのタイムアウト。
	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT,default=5s"`
	// NotifyMaxRetries は通知サービス呼び出しのリトライ回数。0はリトライしない。
	NotifyMaxRetries int `env:"NOTIFY_MAX_RETRIES,default=0"`
	// LoginRateLimit はクライアントIPごとの /login の秒間許容数。0は無制限。
	LoginRateLimit float64 `env:"LOGIN_RATE_LIMIT,default=0"`
	// LoginRateBurst は /login のバースト許容数。
	LoginRateBurst int `env:"LOGIN_RATE_BURST,default=5"`
}

// Auth はトークン発行の設定。
type Auth struct {
	// Secret はトークン署名用の共有シークレット。
	Secret string `env:"JWT_SECRET,default=dev-secret-key"`
	// Username はログインを許可するユーザー名。
	Username string `env:"AUTH_USERNAME,default=admin"`
	// Password はログインを許可するパスワード。
	Password string `env:"AUTH_PASSWORD,default=password"`
	// TokenTTL はトークンの有効期間。
	TokenTTL time.Duration `env:"TOKEN_TTL,default=30m"`
}

// UsesDefaultSecret は開発用の既定シークレットのままかどうかを返す。
func (a Auth) UsesDefaultSecret() bool {
	return a.Secret == "dev-secret-key"
}

// Notification は通知サービスの設定。
type Notification struct {
	// Port はリッスンポート。
	Port string `env:"PORT,default=5003"`
	Log  Log
	HTTP HTTP
	Mail Mail
	// UserServiceURL はユーザーディレクトリのベースURL。
	UserServiceURL string `env:"USER_SERVICE_URL,default=http://user-service:5001"`
	// UserLookupTimeout はユーザー照会のタイムアウト。
	UserLookupTimeout time.Duration `env:"USER_LOOKUP_TIMEOUT,default=5s"`
}

// Mail はメールリレーの設定。環境変数名は既存のデプロイ環境に合わせている。
type Mail struct {
	// Host はメールリレーのホスト名。
	Host string `env:"EMAIL_SERVER_ADDRESS"`
	// Port はメールリレーのポート。
	Port int `env:"EMAIL_SERVER_PORT,default=587"`
	// From は送信元アドレス兼ログインユーザー。
	From string `env:"EMAIL_SERVER_FROM"`
	// Key は送信元アカウントのパスワード。
	Key string `env:"EMAIL_SERVER_KEY"`
	// TLSPolicy は "starttls"、"opportunistic"、"none" のいずれか。
	TLSPolicy string `env:"EMAIL_TLS_POLICY,default=starttls"`
	// DialTimeout はメールリレーとのセッション全体の期限。
	DialTimeout time.Duration `env:"EMAIL_DIAL_TIMEOUT,default=10s"`
}

// LoadUser はユーザーディレクトリサービスの設定を読み込む。
func LoadUser() (*User, error) {
	var cfg User
	if err := load(&cfg); err != nil {
		return nil, err
	}
	cfg.Store = cfg.Store.dsnOrDefault("user")
	if err := validateStore(cfg.Store); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadPost はPostサービスの設定を読み込む。
func LoadPost() (*Post, error) {
	var cfg Post
	if err := load(&cfg); err != nil {
		return nil, err
	}
	cfg.Store = cfg.Store.dsnOrDefault("post")
	if err := validateStore(cfg.Store); err != nil {
		return nil, err
	}
	if cfg.Auth.Secret == "" {
		return nil, errors.New("JWT_SECRET は空にできません")
	}
	if cfg.NotifyMaxRetries < 0 {
		return nil, fmt.Errorf("NOTIFY_MAX_RETRIES は0以上である必要があります: %d", cfg.NotifyMaxRetries)
	}
	return &cfg, nil
}

// LoadNotification は通知サービスの設定を読み込む。
func LoadNotification() (*Notification, error) {
	var cfg Notification
	if err := load(&cfg); err != nil {
		return nil, err
	}
	switch cfg.Mail.TLSPolicy {
	case "starttls", "opportunistic", "none":
	default:
		return nil, fmt.Errorf("EMAIL_TLS_POLICY が不正です: %q", cfg.Mail.TLSPolicy)
	}
	return &cfg, nil
}

// load は .env を読み込んだうえで環境変数をtargetにデコードする。
func load(target any) error {
	if err := godotenv.Load(); err != nil {
		log.Println(".env が見つからないため環境変数のみを使用します")
	}
	if err := envdecode.Decode(target); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("環境変数のデコードに失敗: %w", err)
	}
	return nil
}

// validateStore はストア設定を検証する。
func validateStore(s Store) error {
	switch s.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("STORE_DRIVER が不正です: %q", s.Driver)
	}
	if s.DSN == "" {
		return errors.New("STORE_DSN が必要です")
	}
	return nil
}
