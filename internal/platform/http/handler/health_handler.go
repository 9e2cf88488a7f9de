// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

const checkTimeout = 2 * time.Second

// CheckFunc は依存先（ストア・キャッシュ）の疎通を確認する関数です。
type CheckFunc func(ctx context.Context) error

// HealthHandler は /healthz を処理します。登録された依存先の確認結果を集約します。
type HealthHandler struct {
	checks map[string]CheckFunc
}

// NewHealthHandler は名前付きの確認関数からHealthHandlerを生成します。確認関数なしでも動作します。
func NewHealthHandler(checks map[string]CheckFunc) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Handle はHTTPメソッドに応じてレスポンスし、キャッシュを防止します。
// GETでは依存先を確認し、いずれかが失敗した場合は503を返却します。
func (h *HealthHandler) Handle(c *gin.Context) {
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
		return
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
		return
	}

	results, ok := h.run(c.Request.Context())
	body := gin.H{"status": "ok"}
	if len(results) > 0 {
		body["checks"] = results
	}
	if !ok {
		body["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *HealthHandler) run(ctx context.Context) (map[string]string, bool) {
	if len(h.checks) == 0 {
		return nil, true
	}
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	ok := true
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			slog.Warn("health check failed", "check", name, "error", err)
			results[name] = "down"
			ok = false
			continue
		}
		results[name] = "up"
	}
	return results, ok
}
