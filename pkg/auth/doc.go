// Package auth は署名付きベアラートークンの発行と検証を提供する。
//
// トークンはHS256で署名したJWTで、永続化も失効リストも持たない。
// 呼び出し側は Issuer / Validator インターフェースにのみ依存するため、
// 将来失効リストや鍵ローテーションを追加しても呼び出し側は変わらない。
package auth
