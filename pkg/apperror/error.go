package apperror

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind は失敗の種別を表す。
type Kind int

const (
	// KindInternal は分類されていない内部エラー。
	KindInternal Kind = iota
	// KindInvalidInput はリクエストの形式が不正であることを表す。
	KindInvalidInput
	// KindNotFound はエンティティが存在しないことを表す。
	KindNotFound
	// KindInvalidCredentials はログイン資格情報が一致しないことを表す。
	KindInvalidCredentials
	// KindTokenExpired はトークンの有効期限切れを表す。
	KindTokenExpired
	// KindInvalidToken はトークンの署名不正・形式不正を表す。
	KindInvalidToken
	// KindTransport は下流サービス呼び出しやメール配送の失敗を表す。
	KindTransport
	// KindMailAuth はメールリレーへのログイン失敗を表す。
	KindMailAuth
)

// internalMessage はKindInternalのときクライアントに返す固定メッセージ。
const internalMessage = "An internal error occurred"

// String は種別名を返す。ログ出力用。
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindTokenExpired:
		return "token_expired"
	case KindInvalidToken:
		return "invalid_token"
	case KindTransport:
		return "transport"
	case KindMailAuth:
		return "mail_auth"
	default:
		return "internal"
	}
}

// Status は種別に対応するHTTPステータスコードを返す。
//
// KindMailAuth は互換性のため404に対応付けている。
// 本来はサーバー側の設定不備なので5xxが妥当だが、既存クライアントが
// このステータスに依存しているため変更しない。他の種別に流用しないこと。
func (k Kind) Status() int {
	switch k {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound, KindMailAuth:
		return http.StatusNotFound
	case KindInvalidCredentials, KindTokenExpired, KindInvalidToken:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Error は種別とクライアント向けメッセージを持つエラー。
type Error struct {
	// Kind は失敗の種別。
	Kind Kind
	// Message はレスポンスボディに載せるメッセージ。
	Message string
	// Err は原因となったエラー。nilの場合もある。
	Err error
}

// New は原因エラーを持たないErrorを生成する。
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap は原因エラーを保持したErrorを生成する。
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

// Unwrap は原因エラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf はエラーチェーンからKindを取り出す。Errorを含まない場合はKindInternal。
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// PublicMessage はクライアントに返してよいメッセージを返す。
// 内部エラーの詳細は隠し、固定メッセージに置き換える。
func PublicMessage(err error) string {
	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Kind == KindInternal {
		return internalMessage
	}
	return appErr.Message
}

// Respond はエラーをJSONレスポンスとして書き出し、後続ハンドラを中断する。
// keyにはエンドポイントの仕様に合わせて "error" または "message" を指定する。
func Respond(c *gin.Context, key string, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(KindOf(err).Status(), gin.H{key: PublicMessage(err)})
}
