// Package mailer はメールリレーへの送信アダプタを提供する。
//
// 接続、STARTTLSによる暗号化、ログイン、送信を別々の手順として公開し、
// 呼び出し側がどの手順で失敗したかを区別できるようにする。
// ログイン失敗は ErrAuthFailed でラップして返す。
package mailer
