package notification

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/postnotify/pkg/apperror"
	"github.com/nao1215/postnotify/pkg/middleware"
	"github.com/nao1215/postnotify/pkg/model"
	"github.com/nao1215/postnotify/pkg/observability"
)

// serviceName はログとメトリクスに付けるサービス名。
const serviceName = "notification"

// Notifier は通知依頼を処理する。
type Notifier interface {
	Notify(ctx context.Context, req model.NotificationRequest) error
}

// Server は通知サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// notifier は通知依頼の処理本体。
	notifier Notifier
	// obs はロガーとメトリクス。
	obs *observability.Observability
}

// NewServer は新しい通知サーバーを生成する。
func NewServer(notifier Notifier, obs *observability.Observability, corsOrigins []string) *Server {
	router := gin.New()
	router.Use(middleware.Recovery(obs.Logger))
	router.Use(middleware.RequestLogger(obs.Logger))
	router.Use(middleware.Metrics(obs.Metrics))
	if len(corsOrigins) > 0 {
		router.Use(middleware.CORS(corsOrigins))
	}

	s := &Server{
		router:   router,
		notifier: notifier,
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
	// 通知依頼
	s.router.POST("/notify", s.handleNotify())

	s.router.GET("/metrics", gin.WrapH(s.obs.Metrics.Handler()))
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})
}

// notifyRequest は通知依頼のJSON構造。
type notifyRequest struct {
	// Title は投稿タイトル。
	Title string `json:"title" binding:"required"`
	// Content は投稿本文。
	Content string `json:"content"`
	// UserID は通知先ユーザーのID。
	UserID int64 `json:"userid" binding:"required,gt=0"`
}

// handleNotify は通知依頼を処理するハンドラを返す。
func (s *Server) handleNotify() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req notifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			apperror.Respond(c, "error", apperror.Wrap(apperror.KindInvalidInput, "title and a positive userid are required", err))
			return
		}

		// 呼び出し元が切断しても送信は最後まで進める。各段階の期限は呼び出し先の設定で決まる。
		err := s.notifier.Notify(context.WithoutCancel(c.Request.Context()), model.NotificationRequest{
			Title:   req.Title,
			Content: req.Content,
			UserID:  req.UserID,
		})
		if err != nil {
			apperror.Respond(c, "error", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "Notification sent"})
	}
}
