// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// パニックリカバリ、リクエストログ、リクエストメトリクス、
// ベアラートークンの検証、CORS、レート制限など、
// 全サービスで共通して使用するミドルウェアを含む。
package middleware
