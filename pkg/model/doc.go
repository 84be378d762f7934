// Package model はサービス間で共有するエンティティとワイヤ形式を定義する。
//
// JSONのフィールド名は既存クライアントとの互換性のため変更しないこと。
package model
