// Package router はHTTPルーティングとミドルウェアの構成を定義します。
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"secondchance_backend/internal/api"
	authhandler "secondchance_backend/internal/feature/auth/transport/handler"
	itemhandler "secondchance_backend/internal/feature/items/transport/handler"
	"secondchance_backend/internal/platform/http/handler"
	"secondchance_backend/internal/platform/http/middleware"
	jwtmw "secondchance_backend/internal/platform/jwt"
	"secondchance_backend/internal/platform/metrics"
)

// maxMultipartMemory はmultipartアップロードをメモリに保持する上限です。超過分は一時ファイルに書き出されます。
const maxMultipartMemory = 8 << 20

// Deps はルーターに登録するハンドラーとミドルウェアの依存関係です。
type Deps struct {
	Auth     *authhandler.AuthHandler
	Items    *itemhandler.ItemHandler
	Health   *handler.HealthHandler
	Metrics  *metrics.Metrics
	Verifier jwtmw.Verifier

	// ImageDir が空でなければ /images で静的配信します。
	ImageDir string
	// CORSOrigins が空の場合は全オリジンを許可します。
	CORSOrigins []string
	Logger      *slog.Logger
}

// NewRouter はミドルウェアとルートを登録したginエンジンを返します。
func NewRouter(d Deps) *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		api.UseJSONFieldNames(v)
		if err := api.RegisterValidations(v); err != nil {
			panic(err)
		}
	}

	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(d.Logger), corsMiddleware(d.CORSOrigins))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
		r.GET("/metrics", d.Metrics.Handler())
	}

	// 認証不要
	// 導通確認用
	health := d.Health
	if health == nil {
		health = handler.NewHealthHandler(nil)
	}
	r.GET("/healthz", health.Handle)
	r.HEAD("/healthz", health.Handle)
	r.OPTIONS("/healthz", health.Handle)

	if d.ImageDir != "" {
		r.StaticFS("/images", gin.Dir(d.ImageDir, false))
	}

	authGroup := r.Group("/api/auth")
	{
		// 新規ユーザー登録
		authGroup.POST("/register", d.Auth.Register)
		// ログイン（JWT 発行）
		authGroup.POST("/login", d.Auth.Login)
		// プロフィール更新
		// → リクエストヘッダーに JWT が必要になる
		authGroup.PUT("/update", jwtmw.AuthRequired(d.Verifier), d.Auth.Update)
	}

	sc := r.Group("/api/secondchance")
	{
		sc.GET("/items", d.Items.List)
		sc.POST("/items", d.Items.Create)
		sc.GET("/items/:id", d.Items.Get)
		sc.PUT("/items/:id", d.Items.Update)
		sc.DELETE("/items/:id", d.Items.Delete)
		sc.GET("/search", d.Items.Search)
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions, http.MethodHead},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", authhandler.EmailHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
