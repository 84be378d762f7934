// Package httpclient はサービス間のHTTP通信を行うクライアントを提供する。
//
// Postサービスから通知サービスへの通知依頼、通知サービスからユーザー
// ディレクトリへの照会に使用する。タイムアウトとリトライ回数は呼び出し側が
// Policy として必ず明示する。既定値に暗黙に頼らないこと。
package httpclient
