// Package apperror はサービス共通のエラー表現を提供する。
//
// 各サービスは内部の失敗をすべて Error（種別 + メッセージ）として扱い、
// HTTPレスポンスへの変換はハンドラ境界の Respond でのみ行う。
// エンドポイントごとに異なるJSONキー（"error" / "message"）は
// 境界で指定するため、内部の表現は一つに統一される。
package apperror
