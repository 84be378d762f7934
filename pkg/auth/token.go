package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidCredentials はユーザー名またはパスワードが一致しないことを表す。
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenExpired はトークンの有効期限が切れていることを表す。
	ErrTokenExpired = errors.New("token expired")
	// ErrInvalidToken は署名不正または形式不正のトークンを表す。
	ErrInvalidToken = errors.New("invalid token")
)

// DefaultTTL はトークンの既定の有効期間。
const DefaultTTL = 30 * time.Minute

// Issuer は資格情報を検証してトークンを発行する。
type Issuer interface {
	Issue(subject, password string) (string, error)
}

// Validator はトークンを検証してサブジェクトを返す。
type Validator interface {
	Validate(token string) (string, error)
}

// Claims はトークンのクレーム。
// サブジェクトは既存クライアントとの互換性のため "user" クレームに入れる。
type Claims struct {
	jwt.RegisteredClaims
	// User は認証済みのユーザー名。
	User string `json:"user"`
}

// Credentials はログインを許可する単一の資格情報。
type Credentials struct {
	// Username はユーザー名。
	Username string
	// Password はパスワード。
	Password string
}

// Service はIssuerとValidatorの実装。
// 署名シークレットは生成時に固定され、プロセスの生存期間中変わらない。
type Service struct {
	// secret は署名用の共有シークレット。
	secret []byte
	// credentials はログインを許可する資格情報。
	credentials Credentials
	// ttl はトークンの有効期間。
	ttl time.Duration
	// now は現在時刻を返す。テストで差し替える。
	now func() time.Time
}

// Option はServiceの設定を変更する。
type Option func(*Service)

// WithTTL はトークンの有効期間を変更する。
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService は新しいトークンサービスを生成する。
func NewService(secret string, credentials Credentials, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, errors.New("署名シークレットが空です")
	}
	s := &Service{
		secret:      []byte(secret),
		credentials: credentials,
		ttl:         DefaultTTL,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ttl <= 0 {
		return nil, fmt.Errorf("有効期間は正の値である必要があります: %v", s.ttl)
	}
	return s, nil
}

// Issue は資格情報を検証し、subjectを埋め込んだトークンを発行する。
func (s *Service) Issue(subject, password string) (string, error) {
	if !s.matches(subject, password) {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		User: subject,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// Validate は署名と有効期限を検証し、サブジェクトを返す。
// 期限切れはErrTokenExpired、それ以外の失敗はErrInvalidTokenを返す。
func (s *Service) Validate(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.User == "" {
		return "", ErrInvalidToken
	}
	return claims.User, nil
}

// matches は資格情報を定数時間で比較する。
func (s *Service) matches(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.credentials.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.credentials.Password)) == 1
	return userOK && passOK
}
