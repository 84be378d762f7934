// Package post はPostサービスを提供する。
//
// 投稿の登録と取得に加え、トークンの発行（/login）と検証（/protected）を行う。
// 投稿を登録すると通知サービスを同期的に呼び出すが、その結果は
// 投稿の成否に影響しない。通知の失敗はログに残すだけで呼び出し元には返さない。
package post
