package mailer

import (
	"errors"
	"net/smtp"
)

// plainAuth は暗号化されていない接続でも送信するPLAIN認証。
// smtp.PlainAuth はlocalhost以外への平文送信を拒否するため、
// opportunistic や none の方針ではこちらを使う。
type plainAuth struct {
	username string
	password string
	host     string
}

// Start はsmtp.Authを実装する。
func (a *plainAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if server.Name != a.host {
		return "", nil, errors.New("wrong host name")
	}
	resp := []byte("\x00" + a.username + "\x00" + a.password)
	return "PLAIN", resp, nil
}

// Next はsmtp.Authを実装する。PLAINでは追加の応答を返さない。
func (a *plainAuth) Next(_ []byte, more bool) ([]byte, error) {
	if more {
		return nil, errors.New("unexpected server challenge")
	}
	return nil, nil
}
