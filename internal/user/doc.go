// Package user はユーザーディレクトリサービスを提供する。
//
// ユーザーの登録、ID指定での取得、一覧取得を行う。
// 通知サービスは投稿者の宛先アドレスをこのサービスから取得する。
package user
