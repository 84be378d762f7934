package notification

import (
	"context"
	"sync"

	"github.com/nao1215/postnotify/pkg/mailer"
	"github.com/nao1215/postnotify/pkg/model"
)

// fakeDirectory はテスト用のUserDirectory。
type fakeDirectory struct {
	users map[int64]model.User
	err   error
}

func (f *fakeDirectory) Lookup(_ context.Context, userID int64) (model.User, error) {
	if f.err != nil {
		return model.User{}, f.err
	}
	u, ok := f.users[userID]
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	return u, nil
}

// fakeDialer は呼び出し回数を記録するmailer.Dialer。
type fakeDialer struct {
	connectErr error
	secureErr  error
	authErr    error
	sendErr    error

	mu       sync.Mutex
	connects int
	auths    int
	closes   int
	sent     []mailer.Message
}

func (d *fakeDialer) Connect(_ context.Context, _ string, _ int) (mailer.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connects++
	if d.connectErr != nil {
		return nil, d.connectErr
	}
	return &fakeSession{d: d}, nil
}

func (d *fakeDialer) counts() (connects, auths, closes, sent int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connects, d.auths, d.closes, len(d.sent)
}

type fakeSession struct{ d *fakeDialer }

func (s *fakeSession) Secure() error { return s.d.secureErr }

func (s *fakeSession) Authenticate(_, _ string) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.auths++
	return s.d.authErr
}

func (s *fakeSession) Send(msg mailer.Message) error {
	if s.d.sendErr != nil {
		return s.d.sendErr
	}
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.sent = append(s.d.sent, msg)
	return nil
}

func (s *fakeSession) Close() error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.closes++
	return nil
}
