// Package store はユーザーと投稿のレコードストアを提供する。
//
// SQLite（modernc.org/sqlite）とPostgreSQL（lib/pq）のどちらでも動作し、
// IDはデータベースが採番する。SQLはsquirrelで組み立て、
// ドライバーごとのプレースホルダー形式を切り替える。
package store
