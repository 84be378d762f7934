package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"time"

	"github.com/google/uuid"
)

// Message はプレーンテキストのメール1通。
type Message struct {
	// From は送信元アドレス。
	From string
	// To は宛先アドレス。
	To string
	// Subject は件名。
	Subject string
	// Body は本文（プレーンテキスト）。
	Body string
	// Date はDateヘッダーの値。ゼロ値なら現在時刻を使う。
	Date time.Time
}

// Validate は送信元と宛先がアドレスとして解釈できるか確認する。
func (m Message) Validate() error {
	if m.From == "" {
		return errors.New("送信元アドレスが空です")
	}
	if m.To == "" {
		return errors.New("宛先アドレスが空です")
	}
	if _, err := mail.ParseAddress(m.From); err != nil {
		return fmt.Errorf("送信元アドレスが不正です: %w", err)
	}
	if _, err := mail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("宛先アドレスが不正です: %w", err)
	}
	return nil
}

// Bytes はRFC 5322形式のメッセージを組み立てる。
// 件名はQエンコード、本文はquoted-printableでエンコードする。
func (m Message) Bytes() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}

	var buf bytes.Buffer
	writeHeader := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}
	writeHeader("From", m.From)
	writeHeader("To", m.To)
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	writeHeader("Date", date.Format(time.RFC1123Z))
	writeHeader("Message-ID", fmt.Sprintf("<%s@postnotify>", uuid.NewString()))
	writeHeader("MIME-Version", "1.0")
	writeHeader("Content-Type", `text/plain; charset="utf-8"`)
	writeHeader("Content-Transfer-Encoding", "quoted-printable")
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(m.Body)); err != nil {
		return nil, fmt.Errorf("本文のエンコードに失敗: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("本文のエンコードに失敗: %w", err)
	}
	return buf.Bytes(), nil
}
