package config

import (
	"testing"
	"time"
)

// 環境変数を書き換えるためt.Parallelは使わない。

// TestLoadPost_Defaults は既定値が設定されることを検証する。
func TestLoadPost_Defaults(t *testing.T) {
	cfg, err := LoadPost()
	if err != nil {
		t.Fatalf("LoadPost()でエラーが発生: %v", err)
	}

	if cfg.Port != "5002" {
		t.Errorf("Port = %q, want %q", cfg.Port, "5002")
	}
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Errorf("TokenTTL = %v, want 30m", cfg.Auth.TokenTTL)
	}
	if cfg.NotifyTimeout != 5*time.Second {
		t.Errorf("NotifyTimeout = %v, want 5s", cfg.NotifyTimeout)
	}
	if cfg.NotifyMaxRetries != 0 {
		t.Errorf("NotifyMaxRetries = %d, want 0", cfg.NotifyMaxRetries)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Store.DSN == "" {
		t.Errorf("Store = %+v, want sqlite with default DSN", cfg.Store)
	}
	if !cfg.Auth.UsesDefaultSecret() {
		t.Error("既定のシークレットが使われているはず")
	}
}

// TestLoadPost_FromEnv は環境変数の値が反映されることを検証する。
func TestLoadPost_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_SECRET", "prod-secret")
	t.Setenv("NOTIFY_TIMEOUT", "1500ms")
	t.Setenv("NOTIFY_MAX_RETRIES", "2")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("STORE_DSN", "postgres://u:p@db:5432/app?sslmode=disable")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example,")

	cfg, err := LoadPost()
	if err != nil {
		t.Fatalf("LoadPost()でエラーが発生: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Port = %q, want %q", cfg.Port, "9000")
	}
	if cfg.Auth.Secret != "prod-secret" || cfg.Auth.UsesDefaultSecret() {
		t.Errorf("Secret = %q, want prod-secret", cfg.Auth.Secret)
	}
	if cfg.NotifyTimeout != 1500*time.Millisecond {
		t.Errorf("NotifyTimeout = %v, want 1.5s", cfg.NotifyTimeout)
	}
	if cfg.NotifyMaxRetries != 2 {
		t.Errorf("NotifyMaxRetries = %d, want 2", cfg.NotifyMaxRetries)
	}
	if cfg.Store.Driver != "postgres" {
		t.Errorf("Driver = %q, want postgres", cfg.Store.Driver)
	}
	origins := cfg.HTTP.Origins()
	if len(origins) != 2 || origins[0] != "http://a.example" || origins[1] != "http://b.example" {
		t.Errorf("Origins = %v", origins)
	}
}

// TestLoadPost_InvalidDriver は未知のドライバを拒否することを検証する。
func TestLoadPost_InvalidDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mysql")
	t.Setenv("STORE_DSN", "whatever")

	if _, err := LoadPost(); err == nil {
		t.Fatal("不正なドライバでエラーが返るべき")
	}
}

// TestLoadNotification はメール設定の読み込みと検証を確認する。
func TestLoadNotification(t *testing.T) {
	t.Setenv("EMAIL_SERVER_ADDRESS", "smtp.example.com")
	t.Setenv("EMAIL_SERVER_PORT", "2525")
	t.Setenv("EMAIL_SERVER_FROM", "noreply@example.com")
	t.Setenv("EMAIL_SERVER_KEY", "app-password")

	cfg, err := LoadNotification()
	if err != nil {
		t.Fatalf("LoadNotification()でエラーが発生: %v", err)
	}
	if cfg.Port != "5003" {
		t.Errorf("Port = %q, want 5003", cfg.Port)
	}
	if cfg.Mail.Host != "smtp.example.com" || cfg.Mail.Port != 2525 {
		t.Errorf("Mail = %+v", cfg.Mail)
	}
	if cfg.Mail.TLSPolicy != "starttls" {
		t.Errorf("TLSPolicy = %q, want starttls", cfg.Mail.TLSPolicy)
	}
	if cfg.UserServiceURL != "http://user-service:5001" {
		t.Errorf("UserServiceURL = %q", cfg.UserServiceURL)
	}

	t.Setenv("EMAIL_TLS_POLICY", "ssl")
	if _, err := LoadNotification(); err == nil {
		t.Fatal("不正なTLSポリシーでエラーが返るべき")
	}
}

// TestLoadUser はユーザーサービスの既定値を検証する。
func TestLoadUser(t *testing.T) {
	cfg, err := LoadUser()
	if err != nil {
		t.Fatalf("LoadUser()でエラーが発生: %v", err)
	}
	if cfg.Port != "5001" {
		t.Errorf("Port = %q, want 5001", cfg.Port)
	}
	if cfg.Log.MaxSizeMB != 1 || cfg.Log.MaxBackups != 3 {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.HTTP.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.HTTP.ShutdownTimeout)
	}
}
