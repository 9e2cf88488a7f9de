package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondchance_backend/internal/api"
	"secondchance_backend/internal/feature/auth/usecase"
	jwtmw "secondchance_backend/internal/platform/jwt"
)

// mockAuthUsecase is a mock implementation of the AuthUsecase interface.
type mockAuthUsecase struct {
	RegisterFunc func(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterResult, error)
	LoginFunc    func(ctx context.Context, email, password string) (*usecase.LoginResult, error)
	UpdateFunc   func(ctx context.Context, in usecase.UpdateInput) (string, error)

	calls int
}

// Register is the mock implementation of the Register method.
func (m *mockAuthUsecase) Register(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterResult, error) {
	m.calls++
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, in)
	}
	return &usecase.RegisterResult{Token: "tok", Email: in.Email}, nil // Default: success
}

// Login is the mock implementation of the Login method.
func (m *mockAuthUsecase) Login(ctx context.Context, email, password string) (*usecase.LoginResult, error) {
	m.calls++
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, email, password)
	}
	return nil, usecase.ErrUnknownIdentity // Default: failure
}

// Update is the mock implementation of the Update method.
func (m *mockAuthUsecase) Update(ctx context.Context, in usecase.UpdateInput) (string, error) {
	m.calls++
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, in)
	}
	return "", usecase.ErrUnknownIdentity
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = api.RegisterValidations(v)
	}
	m.Run()
}

func doJSON(router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name             string
		requestBody      any
		mockRegisterFunc func(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterResult, error)
		expectedStatus   int
		expectedBody     string
		expectCalled     bool
	}{
		{
			name:        "success: user registration",
			requestBody: gin.H{"email": "a@b.com", "firstName": "A", "lastName": "B", "password": "pw123"},
			mockRegisterFunc: func(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterResult, error) {
				if in.FirstName != "A" || in.LastName != "B" || in.Password != "pw123" {
					return nil, errors.New("unexpected input")
				}
				return &usecase.RegisterResult{Token: "dummy-jwt-token", Email: in.Email}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"authtoken":"dummy-jwt-token","email":"a@b.com"}`,
			expectCalled:   true,
		},
		{
			name:           "failure: invalid email and missing password are both reported",
			requestBody:    gin.H{"email": "invalid-email"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"errors":[{"field":"email","message":"must be a valid email address"},{"field":"password","message":"is required"}]}`,
		},
		{
			name:           "failure: password longer than 72 bytes",
			requestBody:    gin.H{"email": "a@b.com", "password": strings.Repeat("a", 80)},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"errors":[{"field":"password","message":"must be at most 72 bytes long"}]}`,
		},
		{
			name:           "failure: malformed JSON",
			requestBody:    "not-an-object",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"errors":[{"field":"body","message":"invalid request body"}]}`,
		},
		{
			name:        "failure: duplicate email",
			requestBody: gin.H{"email": "a@b.com", "password": "pw123"},
			mockRegisterFunc: func(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterResult, error) {
				return nil, usecase.ErrDuplicateIdentity
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Email id already exists"}`,
			expectCalled:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUC := &mockAuthUsecase{RegisterFunc: tt.mockRegisterFunc}
			handler := NewAuthHandler(mockUC)

			router := gin.New()
			router.POST("/register", handler.Register)

			w := doJSON(router, http.MethodPost, "/register", tt.requestBody, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			assert.Equal(t, tt.expectCalled, mockUC.calls == 1)
		})
	}
}

func TestAuthHandler_Register_StoreFailureIsOpaque(t *testing.T) {
	mockUC := &mockAuthUsecase{
		RegisterFunc: func(ctx context.Context, in usecase.RegisterInput) (*usecase.RegisterResult, error) {
			return nil, errors.Join(usecase.ErrStore, errors.New("connection refused to 10.0.0.5"))
		},
	}
	router := gin.New()
	router.POST("/register", NewAuthHandler(mockUC).Register)

	w := doJSON(router, http.MethodPost, "/register", gin.H{"email": "a@b.com", "password": "pw123"}, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", w.Body.String())
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    gin.H
		mockLoginFunc  func(ctx context.Context, email, password string) (*usecase.LoginResult, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "success: user login",
			requestBody: gin.H{"email": "a@b.com", "password": "pw123"},
			mockLoginFunc: func(ctx context.Context, email, password string) (*usecase.LoginResult, error) {
				return &usecase.LoginResult{Token: "dummy-jwt-token", FirstName: "A", Email: email}, nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"authtoken":"dummy-jwt-token","userName":"A","userEmail":"a@b.com"}`,
		},
		{
			name:           "failure: missing password",
			requestBody:    gin.H{"email": "a@b.com"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"errors":[{"field":"password","message":"is required"}]}`,
		},
		{
			name:        "failure: unknown user",
			requestBody: gin.H{"email": "x@b.com", "password": "pw123"},
			mockLoginFunc: func(ctx context.Context, email, password string) (*usecase.LoginResult, error) {
				return nil, usecase.ErrUnknownIdentity
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"invalid email or password"}`,
		},
		{
			name:        "failure: wrong password looks the same on the wire",
			requestBody: gin.H{"email": "a@b.com", "password": "wrong"},
			mockLoginFunc: func(ctx context.Context, email, password string) (*usecase.LoginResult, error) {
				return nil, usecase.ErrInvalidCredential
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"invalid email or password"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUC := &mockAuthUsecase{LoginFunc: tt.mockLoginFunc}
			handler := NewAuthHandler(mockUC)

			router := gin.New()
			router.POST("/login", handler.Login)

			w := doJSON(router, http.MethodPost, "/login", tt.requestBody, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestAuthHandler_Login_StoreFailure(t *testing.T) {
	mockUC := &mockAuthUsecase{
		LoginFunc: func(ctx context.Context, email, password string) (*usecase.LoginResult, error) {
			return nil, usecase.ErrStore
		},
	}
	router := gin.New()
	router.POST("/login", NewAuthHandler(mockUC).Login)

	w := doJSON(router, http.MethodPost, "/login", gin.H{"email": "a@b.com", "password": "pw123"}, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", w.Body.String())
}

func TestAuthHandler_Update(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		headers        map[string]string
		mockUpdateFunc func(ctx context.Context, in usecase.UpdateInput) (string, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "success: partial update",
			requestBody: gin.H{"firstName": "Alice"},
			headers:     map[string]string{"email": "a@b.com"},
			mockUpdateFunc: func(ctx context.Context, in usecase.UpdateInput) (string, error) {
				if in.ActorID != "7" || in.Email != "a@b.com" || in.Patch.FirstName == nil || *in.Patch.FirstName != "Alice" || in.Patch.LastName != nil {
					return "", errors.New("unexpected input")
				}
				return "fresh-token", nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"authtoken":"fresh-token"}`,
		},
		{
			name:    "success: empty body is an empty patch",
			headers: map[string]string{"email": "a@b.com"},
			mockUpdateFunc: func(ctx context.Context, in usecase.UpdateInput) (string, error) {
				if !in.Patch.IsEmpty() {
					return "", errors.New("expected empty patch")
				}
				return "fresh-token", nil
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"authtoken":"fresh-token"}`,
		},
		{
			name:        "failure: name too long",
			requestBody: gin.H{"lastName": string(bytes.Repeat([]byte("x"), 101))},
			headers:     map[string]string{"email": "a@b.com"},
			mockUpdateFunc: func(ctx context.Context, in usecase.UpdateInput) (string, error) {
				t.Error("usecase must not be called on validation failure")
				return "", nil
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"errors":[{"field":"lastName","message":"must be at most 100 characters long"}]}`,
		},
		{
			name:        "failure: missing email header",
			requestBody: gin.H{"firstName": "Alice"},
			mockUpdateFunc: func(ctx context.Context, in usecase.UpdateInput) (string, error) {
				return "", usecase.ErrMissingIdentifier
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Email not found in the request headers"}`,
		},
		{
			name:        "failure: unknown user",
			requestBody: gin.H{"firstName": "Alice"},
			headers:     map[string]string{"email": "x@b.com"},
			mockUpdateFunc: func(ctx context.Context, in usecase.UpdateInput) (string, error) {
				return "", usecase.ErrUnknownIdentity
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"User not found"}`,
		},
		{
			name:        "failure: email of another user",
			requestBody: gin.H{"firstName": "Alice"},
			headers:     map[string]string{"email": "other@b.com"},
			mockUpdateFunc: func(ctx context.Context, in usecase.UpdateInput) (string, error) {
				return "", usecase.ErrIdentityMismatch
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"error":"email does not match authenticated user"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUC := &mockAuthUsecase{UpdateFunc: tt.mockUpdateFunc}
			handler := NewAuthHandler(mockUC)

			router := gin.New()
			router.PUT("/update", func(c *gin.Context) {
				c.Set(jwtmw.ContextUserID, "7")
				c.Next()
			}, handler.Update)

			w := doJSON(router, http.MethodPut, "/update", tt.requestBody, tt.headers)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestAuthHandler_Update_StoreFailure(t *testing.T) {
	mockUC := &mockAuthUsecase{
		UpdateFunc: func(ctx context.Context, in usecase.UpdateInput) (string, error) {
			return "", usecase.ErrStore
		},
	}
	router := gin.New()
	router.PUT("/update", NewAuthHandler(mockUC).Update)

	w := doJSON(router, http.MethodPut, "/update", gin.H{}, map[string]string{"email": "a@b.com"})

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", w.Body.String())
}
