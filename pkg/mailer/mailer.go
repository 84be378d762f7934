package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"
)

// ErrAuthFailed はメールリレーがログインを拒否したことを表す。
var ErrAuthFailed = errors.New("mail relay rejected login")

// TLSPolicy は接続の暗号化方針。
type TLSPolicy string

const (
	// TLSMandatory はSTARTTLSを必須とする。サーバーが対応していなければ失敗する。
	TLSMandatory TLSPolicy = "starttls"
	// TLSOpportunistic はサーバーが対応していればSTARTTLSを使う。
	TLSOpportunistic TLSPolicy = "opportunistic"
	// TLSNone は暗号化しない。ローカルの開発用リレー向け。
	TLSNone TLSPolicy = "none"
)

// Dialer はメールリレーとのセッションを開く。
type Dialer interface {
	Connect(ctx context.Context, host string, port int) (Session, error)
}

// Session はメールリレーとの1回のセッション。
type Session interface {
	// Secure は接続を暗号化する。
	Secure() error
	// Authenticate は送信者の資格情報でログインする。
	Authenticate(user, secret string) error
	// Send はメッセージを送信する。
	Send(msg Message) error
	// Close はセッションを終了する。
	Close() error
}

// SMTPDialer はnet/smtpを使うDialerの実装。
type SMTPDialer struct {
	// Timeout は接続からセッション終了までの期限。
	Timeout time.Duration
	// Policy は暗号化方針。
	Policy TLSPolicy
	// TLSConfig はSTARTTLSに使う設定。nilの場合はホスト名で検証する既定の設定を使う。
	TLSConfig *tls.Config
}

// Connect はメールリレーへ接続し、挨拶応答を受け取ったセッションを返す。
func (d *SMTPDialer) Connect(ctx context.Context, host string, port int) (Session, error) {
	if host == "" {
		return nil, errors.New("メールリレーのホストが設定されていません")
	}

	nd := &net.Dialer{Timeout: d.Timeout}
	conn, err := nd.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("メールリレーへの接続に失敗: %w", err)
	}
	if d.Timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(d.Timeout)); err != nil {
			conn.Close()
			return nil, fmt.Errorf("接続期限の設定に失敗: %w", err)
		}
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("SMTPセッションの開始に失敗: %w", err)
	}

	tlsConfig := d.TLSConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	}

	policy := d.Policy
	if policy == "" {
		policy = TLSMandatory
	}

	return &smtpSession{client: client, host: host, policy: policy, tlsConfig: tlsConfig}, nil
}

// smtpSession はnet/smtpのクライアントを包むSession。
type smtpSession struct {
	client    *smtp.Client
	host      string
	policy    TLSPolicy
	tlsConfig *tls.Config
}

// Secure は方針に従ってSTARTTLSを実行する。
func (s *smtpSession) Secure() error {
	if s.policy == TLSNone {
		return nil
	}
	if ok, _ := s.client.Extension("STARTTLS"); !ok {
		if s.policy == TLSOpportunistic {
			return nil
		}
		return errors.New("メールリレーがSTARTTLSに対応していません")
	}
	if err := s.client.StartTLS(s.tlsConfig); err != nil {
		return fmt.Errorf("STARTTLSに失敗: %w", err)
	}
	return nil
}

// Authenticate はPLAIN認証でログインする。
// STARTTLS必須の方針では平文の接続で資格情報を送らない。
// サーバーが認証応答でエラーを返した場合はErrAuthFailedでラップする。
func (s *smtpSession) Authenticate(user, secret string) error {
	var a smtp.Auth
	if s.policy == TLSMandatory {
		a = smtp.PlainAuth("", user, secret, s.host)
	} else {
		a = &plainAuth{username: user, password: secret, host: s.host}
	}
	err := s.client.Auth(a)
	if err == nil {
		return nil
	}
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		return fmt.Errorf("%w: %v", ErrAuthFailed, protoErr)
	}
	return fmt.Errorf("ログイン処理に失敗: %w", err)
}

// Send はエンベロープを設定してメッセージ本文を送信する。
func (s *smtpSession) Send(msg Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}
	if err := s.client.Mail(msg.From); err != nil {
		return fmt.Errorf("MAIL FROMに失敗: %w", err)
	}
	if err := s.client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("RCPT TOに失敗: %w", err)
	}
	w, err := s.client.Data()
	if err != nil {
		return fmt.Errorf("DATAに失敗: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("本文の書き込みに失敗: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("本文の送信に失敗: %w", err)
	}
	return s.client.Quit()
}

// Close は接続を閉じる。Quit済みの場合のエラーは無視する。
func (s *smtpSession) Close() error {
	_ = s.client.Close()
	return nil
}
