// Package config は環境変数から各サービスの設定を読み込む。
//
// カレントディレクトリに .env があれば先に読み込む。存在しない場合は
// 環境変数のみを使う。フラグによる設定は行わない。
package config
