// Package middleware はプラットフォーム共通のginミドルウェアを提供します。
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader はリクエストIDを運ぶヘッダー名です。
	RequestIDHeader = "X-Request-ID"
	// ContextRequestID はgin.ContextにリクエストIDを格納するキーです。
	ContextRequestID = "requestID"

	maxRequestIDLen = 128
)

// RequestID はリクエストごとのIDを決定し、コンテキストとレスポンスヘッダーに設定します。
// クライアントが妥当な長さのX-Request-IDを送った場合はそれを引き継ぎます。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Set(ContextRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestIDFrom はコンテキストに格納されたリクエストIDを返します。未設定なら空文字です。
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(ContextRequestID)
}
