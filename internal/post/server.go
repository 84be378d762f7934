package post

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nao1215/postnotify/internal/store"
	"github.com/nao1215/postnotify/pkg/apperror"
	"github.com/nao1215/postnotify/pkg/auth"
	"github.com/nao1215/postnotify/pkg/middleware"
	"github.com/nao1215/postnotify/pkg/model"
	"github.com/nao1215/postnotify/pkg/observability"
)

// serviceName はログとメトリクスに付けるサービス名。
const serviceName = "post"

// Repository はPostサービスが必要とするストア操作。
type Repository interface {
	CreatePost(ctx context.Context, title, content string, userID int64) (int64, error)
	GetPost(ctx context.Context, id int64) (model.Post, error)
	Ping(ctx context.Context) error
}

// Tokens はトークンの発行と検証。
type Tokens interface {
	auth.Issuer
	auth.Validator
}

// Options はサーバーの動作設定。
type Options struct {
	// CORSOrigins は許可するオリジン。空ならCORSを無効にする。
	CORSOrigins []string
	// NotifyTimeout は通知呼び出し全体の期限。
	NotifyTimeout time.Duration
	// LoginRateLimit はクライアントIPごとの /login の秒間許容数。0は無制限。
	LoginRateLimit float64
	// LoginRateBurst は /login のバースト許容数。
	LoginRateBurst int
}

// Server はPostサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// repo は投稿のレコードストア。
	repo Repository
	// tokens はトークンの発行と検証。
	tokens Tokens
	// notifier は通知サービスへの依頼。
	notifier Notifier
	// opts は動作設定。
	opts Options
	// obs はロガーとメトリクス。
	obs *observability.Observability
}

// NewServer は新しいPostサーバーを生成する。
func NewServer(repo Repository, tokens Tokens, notifier Notifier, obs *observability.Observability, opts Options) *Server {
	router := gin.New()
	router.Use(middleware.Recovery(obs.Logger))
	router.Use(middleware.RequestLogger(obs.Logger))
	router.Use(middleware.Metrics(obs.Metrics))
	if len(opts.CORSOrigins) > 0 {
		router.Use(middleware.CORS(opts.CORSOrigins))
	}

	s := &Server{
		router:   router,
		repo:     repo,
		tokens:   tokens,
		notifier: notifier,
		opts:     opts,
		obs:      obs,
	}
	s.setupRoutes()
	return s
}

// Handler はHTTPハンドラーを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// トークン発行
	s.router.POST("/login", middleware.RateLimit(s.opts.LoginRateLimit, s.opts.LoginRateBurst), s.handleLogin())
	// トークン検証
	s.router.GET("/protected", middleware.RequireToken(s.tokens), s.handleProtected())
	// 投稿登録
	s.router.POST("/post", s.handleCreate())
	// 投稿取得
	s.router.GET("/post/:id", s.handleGetByID())

	s.router.GET("/metrics", gin.WrapH(s.obs.Metrics.Handler()))
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})
	s.router.GET("/ready", s.handleReady())
}

// handleReady はストアに接続できるかを返すハンドラを返す。
func (s *Server) handleReady() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.repo.Ping(c.Request.Context()); err != nil {
			s.obs.Logger.WithError(err).Warn("ストアに接続できません")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": serviceName})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "service": serviceName})
	}
}

// loginRequest はログインリクエストのJSON構造。
type loginRequest struct {
	// Username はユーザー名。
	Username string `json:"username"`
	// Password はパスワード。
	Password string `json:"password"`
}

// createPostRequest は投稿登録リクエストのJSON構造。
type createPostRequest struct {
	// Title は投稿タイトル。
	Title string `json:"title" binding:"required"`
	// Content は投稿本文。
	Content string `json:"content"`
	// UserID は投稿者のユーザーID。存在は確認しない。
	UserID int64 `json:"userid" binding:"required,gt=0"`
}

var (
	// errInvalidCredentials はログイン失敗時のレスポンス。
	errInvalidCredentials = apperror.New(apperror.KindInvalidCredentials, "Invalid credentials")
	// errPostNotFound は投稿が存在しない場合のレスポンス。
	errPostNotFound = apperror.New(apperror.KindNotFound, "Post not found")
)

// handleLogin はトークン発行を処理するハンドラを返す。
// ボディが読めない場合も資格情報の不一致として扱う。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperror.Respond(c, "message", errInvalidCredentials)
			return
		}

		token, err := s.tokens.Issue(req.Username, req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				s.obs.Logger.WithField("username", req.Username).Warn("ログインに失敗しました")
				apperror.Respond(c, "message", errInvalidCredentials)
				return
			}
			s.obs.Logger.WithError(err).Error("トークン発行エラー")
			apperror.Respond(c, "error", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

// handleProtected はトークン検証済みのリクエストに認証済みユーザーを返す。
func (s *Server) handleProtected() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Access granted",
			"user":    middleware.User(c),
		})
	}
}

// handleCreate は投稿登録を処理するハンドラを返す。
// 登録後に通知サービスを呼び出すが、その失敗は201の応答に影響しない。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createPostRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperror.Respond(c, "error", apperror.Wrap(apperror.KindInvalidInput, "title and a positive userid are required", err))
			return
		}

		id, err := s.repo.CreatePost(c.Request.Context(), req.Title, req.Content, req.UserID)
		if err != nil {
			s.obs.Logger.WithError(err).Error("投稿登録エラー")
			apperror.Respond(c, "error", err)
			return
		}
		s.obs.Logger.WithField("post_id", id).Info("投稿を登録しました")

		s.notify(c.Request.Context(), middleware.RequestID(c), model.NotificationRequestOf(model.Post{
			ID:      id,
			Title:   req.Title,
			Content: req.Content,
			UserID:  req.UserID,
		}))

		c.JSON(http.StatusCreated, model.IDResponse{ID: id})
	}
}

// notify は通知サービスを呼び出し、失敗はログに残すだけにする。
// 呼び出し元が切断しても中断せず、NotifyTimeoutで打ち切る。
// requestIDはparentに載っており、通知サービスへのヘッダーにも引き継がれる。
func (s *Server) notify(parent context.Context, requestID string, req model.NotificationRequest) {
	ctx := context.WithoutCancel(parent)
	if s.opts.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.NotifyTimeout)
		defer cancel()
	}

	entry := s.obs.Logger.WithFields(logrus.Fields{
		"user_id":    req.UserID,
		"request_id": requestID,
	})
	if err := s.notifier.Notify(ctx, req); err != nil {
		entry.WithError(err).Warn("通知サービスの呼び出しに失敗しました")
		return
	}
	entry.Info("通知サービスに依頼しました")
}

// handleGetByID は投稿取得を処理するハンドラを返す。
// 数字だけでないIDは存在しない投稿として扱う。
func (s *Server) handleGetByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := model.ParseID(c.Param("id"))
		if !ok {
			apperror.Respond(c, "error", errPostNotFound)
			return
		}

		p, err := s.repo.GetPost(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.obs.Logger.WithField("post_id", id).Warn("投稿が見つかりません")
				apperror.Respond(c, "error", errPostNotFound)
				return
			}
			s.obs.Logger.WithError(err).Error("投稿取得エラー")
			apperror.Respond(c, "error", err)
			return
		}

		c.JSON(http.StatusOK, p)
	}
}
