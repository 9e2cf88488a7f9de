// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"secondchance_backend/internal/api"
	"secondchance_backend/internal/feature/auth/domain/entity"
	"secondchance_backend/internal/feature/auth/transport/http/dto"
	"secondchance_backend/internal/feature/auth/usecase"
	jwtmw "secondchance_backend/internal/platform/jwt"
)

// EmailHeader はプロフィール更新対象のメールアドレスを運ぶリクエストヘッダー名です。
const EmailHeader = "email"

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	// Register は新規ユーザーを登録し、トークンを返します。
	Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterResult, error)
	// Login はユーザーを認証し、成功時にトークンと表示名を返します。
	Login(ctx context.Context, email, password string) (*usecase.LoginResult, error)
	// Update は認証済みユーザーのプロフィールを部分更新し、新しいトークンを返します。
	Update(ctx context.Context, in usecase.UpdateInput) (string, error)
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
// AuthUsecaseインターフェースに依存し、JSONリクエスト/レスポンスを処理します。
type AuthHandler struct {
	auth AuthUsecase
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
// 依存性注入用のコンストラクタで、外部からAuthUsecaseを注入します。
func NewAuthHandler(auth AuthUsecase) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register はユーザー登録APIエンドポイントを処理します。
// - バリデーションエラー時は400とフィールド単位のエラー一覧を返却
// - メール重複時は400を返却
// - 成功時はトークン付きで200を返却
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("register validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ValidationErrors(err))
		return
	}

	res, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrDuplicateIdentity) {
			slog.Warn("register rejected: email already exists", "email", req.Email, "remote_addr", c.ClientIP())
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Email id already exists"})
			return
		}
		internalError(c, "register failed", err)
		return
	}

	slog.Info("user registered successfully", "email", req.Email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.RegisterResp{AuthToken: res.Token, Email: res.Email})
}

// Login はユーザーログインAPIエンドポイントを処理します。
// - バリデーションエラー時は400を返却
// - 未登録・パスワード不一致はどちらも同じ404を返却（ログには区別して記録）
// - 認証成功時はトークンと表示名付きで200を返却
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ValidationErrors(err))
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrUnknownIdentity):
			slog.Warn("login failed: user not found", "email", req.Email, "remote_addr", c.ClientIP())
		case errors.Is(err, usecase.ErrInvalidCredential):
			slog.Warn("login failed: password mismatch", "email", req.Email, "remote_addr", c.ClientIP())
		default:
			internalError(c, "login failed", err)
			return
		}
		// ユーザー列挙攻撃を防止するため、失敗理由を公開しない
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "invalid email or password"})
		return
	}

	slog.Info("user login successful", "email", req.Email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.LoginResp{AuthToken: res.Token, UserName: res.FirstName, UserEmail: res.Email})
}

// Update はプロフィール更新APIエンドポイントを処理します。AuthRequiredの後段で使用します。
// - バリデーションエラー時は400
// - emailヘッダーがない場合は400
// - ユーザーが存在しない場合は404、トークンの主体と異なる場合は403
// - 成功時は新しいトークン付きで200を返却
func (h *AuthHandler) Update(c *gin.Context) {
	var req dto.UpdateReq
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		slog.Warn("update validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ValidationErrors(err))
		return
	}

	email := c.GetHeader(EmailHeader)
	token, err := h.auth.Update(c.Request.Context(), usecase.UpdateInput{
		ActorID: jwtmw.UserIDFrom(c),
		Email:   email,
		Patch:   entity.ProfilePatch{FirstName: req.FirstName, LastName: req.LastName},
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrMissingIdentifier):
			slog.Warn("update rejected: email header missing", "remote_addr", c.ClientIP())
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Email not found in the request headers"})
		case errors.Is(err, usecase.ErrUnknownIdentity):
			slog.Warn("update rejected: user not found", "email", email, "remote_addr", c.ClientIP())
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "User not found"})
		case errors.Is(err, usecase.ErrIdentityMismatch):
			slog.Warn("update rejected: email does not match token", "email", email, "remote_addr", c.ClientIP())
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: usecase.ErrIdentityMismatch.Error()})
		default:
			internalError(c, "update failed", err)
		}
		return
	}

	slog.Info("user updated successfully", "email", email, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.TokenResp{AuthToken: token})
}

// internalError は予期しないエラーを記録し、詳細を含まない500を返却します。
func internalError(c *gin.Context, msg string, err error) {
	slog.Error(msg, "error", err, "remote_addr", c.ClientIP())
	c.String(http.StatusInternalServerError, api.InternalServerError)
}
