package notification

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nao1215/postnotify/pkg/apperror"
	"github.com/nao1215/postnotify/pkg/mailer"
	"github.com/nao1215/postnotify/pkg/model"
	"github.com/nao1215/postnotify/pkg/observability"
)

var testSender = Sender{Host: "smtp.example.com", Port: 587, From: "noreply@example.com", Key: "secret"}

func newTestOrchestrator(dir UserDirectory, dialer *fakeDialer) *Orchestrator {
	return NewOrchestrator(dir, dialer, testSender, observability.NewNop(serviceName))
}

func aliceDirectory() *fakeDirectory {
	return &fakeDirectory{users: map[int64]model.User{
		1: {ID: 1, Name: "Alice", Email: "alice@example.com"},
	}}
}

func TestOrchestratorNotify(t *testing.T) {
	t.Parallel()

	req := model.NotificationRequest{Title: "T", Content: "C", UserID: 1}

	t.Run("正常系: 解決したユーザー宛てにメールを送ること", func(t *testing.T) {
		t.Parallel()

		dialer := &fakeDialer{}
		o := newTestOrchestrator(aliceDirectory(), dialer)

		if err := o.Notify(context.Background(), req); err != nil {
			t.Fatalf("Notify()でエラー: %v", err)
		}

		if len(dialer.sent) != 1 {
			t.Fatalf("送信数 = %d, want 1", len(dialer.sent))
		}
		msg := dialer.sent[0]
		want := mailer.Message{From: testSender.From, To: "alice@example.com", Subject: "T", Body: "C"}
		if msg != want {
			t.Errorf("message = %+v, want %+v", msg, want)
		}
		if _, _, closes, _ := dialer.counts(); closes != 1 {
			t.Errorf("Close回数 = %d, want 1", closes)
		}
		if got := testutil.ToFloat64(o.outcomes.WithLabelValues(string(Delivered))); got != 1 {
			t.Errorf("delivered = %v, want 1", got)
		}
	})

	t.Run("異常系: ユーザーが解決できなければメールリレーに接続しないこと", func(t *testing.T) {
		t.Parallel()

		dialer := &fakeDialer{}
		o := newTestOrchestrator(aliceDirectory(), dialer)

		err := o.Notify(context.Background(), model.NotificationRequest{Title: "T", UserID: 2})
		if apperror.KindOf(err) != apperror.KindNotFound {
			t.Fatalf("kind = %v, want not_found (err=%v)", apperror.KindOf(err), err)
		}
		if got := apperror.PublicMessage(err); got != "User not found" {
			t.Errorf("message = %q, want %q", got, "User not found")
		}
		if connects, _, _, _ := dialer.counts(); connects != 0 {
			t.Errorf("Connect回数 = %d, want 0", connects)
		}
		if got := testutil.ToFloat64(o.outcomes.WithLabelValues(string(UserNotFound))); got != 1 {
			t.Errorf("user_not_found = %v, want 1", got)
		}
	})

	t.Run("異常系: ログイン拒否は404扱いでリトライしないこと", func(t *testing.T) {
		t.Parallel()

		dialer := &fakeDialer{authErr: fmt.Errorf("%w: 535 bad credentials", mailer.ErrAuthFailed)}
		o := newTestOrchestrator(aliceDirectory(), dialer)

		err := o.Notify(context.Background(), req)
		if apperror.KindOf(err) != apperror.KindMailAuth {
			t.Fatalf("kind = %v, want mail_auth", apperror.KindOf(err))
		}
		if got := apperror.PublicMessage(err); got != "Email Server not valid" {
			t.Errorf("message = %q", got)
		}
		if got := apperror.KindOf(err).Status(); got != 404 {
			t.Errorf("status = %d, want 404", got)
		}

		connects, auths, closes, sent := dialer.counts()
		if connects != 1 || auths != 1 || sent != 0 {
			t.Errorf("connects=%d auths=%d sent=%d, want 1/1/0", connects, auths, sent)
		}
		if closes != 1 {
			t.Errorf("Close回数 = %d, want 1", closes)
		}
	})

	tests := []struct {
		name   string
		dir    UserDirectory
		dialer *fakeDialer
		want   string
	}{
		{
			name:   "ユーザー照会の通信エラー",
			dir:    &fakeDirectory{err: errors.New("dial tcp: connection refused")},
			dialer: &fakeDialer{},
			want:   "dial tcp: connection refused",
		},
		{
			name:   "メールリレーへの接続失敗",
			dir:    aliceDirectory(),
			dialer: &fakeDialer{connectErr: errors.New("i/o timeout")},
			want:   "i/o timeout",
		},
		{
			name:   "STARTTLSの失敗",
			dir:    aliceDirectory(),
			dialer: &fakeDialer{secureErr: errors.New("tls: handshake failure")},
			want:   "tls: handshake failure",
		},
		{
			name:   "認証以外のログイン処理エラー",
			dir:    aliceDirectory(),
			dialer: &fakeDialer{authErr: errors.New("connection reset")},
			want:   "connection reset",
		},
		{
			name:   "送信失敗",
			dir:    aliceDirectory(),
			dialer: &fakeDialer{sendErr: errors.New("552 message too large")},
			want:   "552 message too large",
		},
	}
	for _, tt := range tests {
		t.Run("異常系: "+tt.name+"は生のエラー文で500になること", func(t *testing.T) {
			t.Parallel()

			o := newTestOrchestrator(tt.dir, tt.dialer)
			err := o.Notify(context.Background(), req)

			if apperror.KindOf(err) != apperror.KindTransport {
				t.Fatalf("kind = %v, want transport", apperror.KindOf(err))
			}
			if got := apperror.PublicMessage(err); got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
			if got := apperror.KindOf(err).Status(); got != 500 {
				t.Errorf("status = %d, want 500", got)
			}
			if got := testutil.ToFloat64(o.outcomes.WithLabelValues(string(TransportError))); got != 1 {
				t.Errorf("transport_error = %v, want 1", got)
			}
		})
	}
}
