package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/postnotify/internal/store"
	"github.com/nao1215/postnotify/pkg/apperror"
	"github.com/nao1215/postnotify/pkg/middleware"
	"github.com/nao1215/postnotify/pkg/model"
	"github.com/nao1215/postnotify/pkg/observability"
)

// serviceName はログとメトリクスに付けるサービス名。
const serviceName = "user"

// Repository はユーザーディレクトリが必要とするストア操作。
type Repository interface {
	CreateUser(ctx context.Context, name, email string) (int64, error)
	GetUser(ctx context.Context, id int64) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	Ping(ctx context.Context) error
}

// Server はユーザーディレクトリサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// repo はユーザーのレコードストア。
	repo Repository
	// obs はロガーとメトリクス。
	obs *observability.Observability
}

// NewServer は新しいユーザーディレクトリサーバーを生成する。
func NewServer(repo Repository, obs *observability.Observability, corsOrigins []string) *Server {
	router := gin.New()
	router.Use(middleware.Recovery(obs.Logger))
	router.Use(middleware.RequestLogger(obs.Logger))
	router.Use(middleware.Metrics(obs.Metrics))
	if len(corsOrigins) > 0 {
		router.Use(middleware.CORS(corsOrigins))
	}

	s := &Server{
		router: router,
		repo:   repo,
		obs:    obs,
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
	// ユーザー登録
	s.router.POST("/users", s.handleCreate())
	// ユーザー一覧取得
	s.router.GET("/users", s.handleList())
	// ユーザー取得
	s.router.GET("/users/:id", s.handleGetByID())

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

// createUserRequest はユーザー登録リクエストのJSON構造。
type createUserRequest struct {
	// Name はユーザー名。
	Name string `json:"name" binding:"required"`
	// Email は宛先アドレス。
	Email string `json:"email" binding:"required,email"`
}

// errUserNotFound はユーザーが存在しない場合のレスポンス。
var errUserNotFound = apperror.New(apperror.KindNotFound, "User not found")

// handleCreate はユーザー登録を処理するハンドラを返す。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperror.Respond(c, "error", apperror.Wrap(apperror.KindInvalidInput, "name and a valid email are required", err))
			return
		}

		id, err := s.repo.CreateUser(c.Request.Context(), req.Name, req.Email)
		if err != nil {
			s.obs.Logger.WithError(err).Error("ユーザー登録エラー")
			apperror.Respond(c, "error", err)
			return
		}

		s.obs.Logger.WithField("user_id", id).Info("ユーザーを登録しました")
		c.JSON(http.StatusCreated, model.IDResponse{ID: id})
	}
}

// handleGetByID はユーザー取得を処理するハンドラを返す。
// 数字だけでないIDは存在しないユーザーとして扱う。
func (s *Server) handleGetByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := model.ParseID(c.Param("id"))
		if !ok {
			apperror.Respond(c, "error", errUserNotFound)
			return
		}

		u, err := s.repo.GetUser(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.obs.Logger.WithField("user_id", id).Warn("ユーザーが見つかりません")
				apperror.Respond(c, "error", errUserNotFound)
				return
			}
			s.obs.Logger.WithError(err).Error("ユーザー取得エラー")
			apperror.Respond(c, "error", err)
			return
		}

		c.JSON(http.StatusOK, u)
	}
}

// handleList はユーザー一覧取得を処理するハンドラを返す。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := s.repo.ListUsers(c.Request.Context())
		if err != nil {
			s.obs.Logger.WithError(err).Error("ユーザー一覧取得エラー")
			apperror.Respond(c, "error", err)
			return
		}

		s.obs.Logger.WithField("count", len(users)).Debug("ユーザー一覧を返します")
		c.JSON(http.StatusOK, users)
	}
}
