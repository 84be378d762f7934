package notification

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/nao1215/postnotify/pkg/apperror"
	"github.com/nao1215/postnotify/pkg/httpclient"
	"github.com/nao1215/postnotify/pkg/mailer"
	"github.com/nao1215/postnotify/pkg/model"
	"github.com/nao1215/postnotify/pkg/observability"
)

// Outcome は通知依頼の終了状態。
type Outcome string

const (
	// Delivered はメールを送信できたことを表す。
	Delivered Outcome = "delivered"
	// UserNotFound はユーザーを解決できなかったことを表す。
	UserNotFound Outcome = "user_not_found"
	// AuthFailed はメールリレーへのログインが拒否されたことを表す。
	AuthFailed Outcome = "auth_failed"
	// TransportError はそれ以外の失敗を表す。
	TransportError Outcome = "transport_error"
)

// Sender は送信元アカウントとメールリレーの接続先。
type Sender struct {
	// Host はメールリレーのホスト名。
	Host string
	// Port はメールリレーのポート。
	Port int
	// From は送信元アドレス兼ログインユーザー。
	From string
	// Key は送信元アカウントのパスワード。
	Key string
}

// Orchestrator は通知依頼を1件ずつ処理する。依頼間で状態を持たない。
type Orchestrator struct {
	users    UserDirectory
	dialer   mailer.Dialer
	sender   Sender
	logger   *logrus.Entry
	outcomes *prometheus.CounterVec
}

// NewOrchestrator はOrchestratorを生成し、終了状態のカウンタをobsのレジストリに登録する。
func NewOrchestrator(users UserDirectory, dialer mailer.Dialer, sender Sender, obs *observability.Observability) *Orchestrator {
	outcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notification requests by terminal state",
		},
		[]string{"outcome"},
	)
	obs.Metrics.Register(outcomes)

	return &Orchestrator{
		users:    users,
		dialer:   dialer,
		sender:   sender,
		logger:   obs.Logger,
		outcomes: outcomes,
	}
}

// Notify は通知依頼を処理する。送信できた場合はnilを返す。
// 失敗時は終了状態に対応する *apperror.Error を返す。
func (o *Orchestrator) Notify(ctx context.Context, req model.NotificationRequest) error {
	outcome, err := o.run(ctx, req)
	o.outcomes.WithLabelValues(string(outcome)).Inc()

	entry := o.logger.WithFields(logrus.Fields{
		"user_id":    req.UserID,
		"outcome":    outcome,
		"request_id": httpclient.RequestIDFrom(ctx),
	})
	if err != nil {
		entry.WithError(err).Warn("通知を送信できませんでした")
		return err
	}
	entry.Info("通知を送信しました")
	return nil
}

// run は解決、組み立て、接続と認証、送信の順に進める。
func (o *Orchestrator) run(ctx context.Context, req model.NotificationRequest) (Outcome, error) {
	user, err := o.users.Lookup(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return UserNotFound, apperror.Wrap(apperror.KindNotFound, "User not found", err)
		}
		return TransportError, transportError(err)
	}

	msg := mailer.Message{
		From:    o.sender.From,
		To:      user.Email,
		Subject: req.Title,
		Body:    req.Content,
	}

	sess, err := o.dialer.Connect(ctx, o.sender.Host, o.sender.Port)
	if err != nil {
		return TransportError, transportError(err)
	}
	defer sess.Close()

	if err := sess.Secure(); err != nil {
		return TransportError, transportError(err)
	}
	if err := sess.Authenticate(o.sender.From, o.sender.Key); err != nil {
		if errors.Is(err, mailer.ErrAuthFailed) {
			return AuthFailed, apperror.Wrap(apperror.KindMailAuth, "Email Server not valid", err)
		}
		return TransportError, transportError(err)
	}
	if err := sess.Send(msg); err != nil {
		return TransportError, transportError(err)
	}
	return Delivered, nil
}

// transportError は原因のエラー文をそのままクライアント向けメッセージにする。
func transportError(err error) *apperror.Error {
	return &apperror.Error{Kind: apperror.KindTransport, Message: err.Error(), Err: err}
}
