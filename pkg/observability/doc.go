// Package observability はロガーとメトリクスレジストリをまとめた観測コンテキストを提供する。
//
// プロセス起動時に一度だけ New で生成し、各コンポーネントへ明示的に渡す。
// パッケージレベルのグローバル状態は持たないため、テストごとに独立した
// レジストリでカウンタの増分を検証できる。
package observability
