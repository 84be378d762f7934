// Package notification は通知サービスを提供する。
//
// 通知依頼を受けると、ユーザーディレクトリから投稿者の宛先を引き、
// メールリレーに接続して投稿タイトルを件名、本文を本文としたメールを送る。
// 1件の依頼は Delivered、UserNotFound、AuthFailed、TransportError の
// いずれかで終わり、どの段階でもリトライしない。
package notification
