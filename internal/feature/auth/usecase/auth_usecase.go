package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"secondchance_backend/internal/feature/auth/domain/entity"
)

// fallbackDummyHash はダミーダイジェストを生成できなかった場合にのみ使うcost 10のダイジェストです。
const fallbackDummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーをストレージに永続化し、採番されたIDをuser.IDに設定します。
	// 一意インデックスによりメールアドレスが重複した場合、ErrEmailAlreadyExistsを返します。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail は指定されたメールアドレスに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// UpdateByEmail はパッチに含まれるフィールドと更新日時のみを書き込み、更新後のユーザーを返します。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	UpdateByEmail(ctx context.Context, email string, patch entity.ProfilePatch, updatedAt time.Time) (*entity.User, error)
}

// PasswordHasher はパスワードのハッシュ化と検証を抽象化します。
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

// TokenIssuer は署名済みベアラートークン生成のインターフェースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（platform/jwt）ではなくコンシューマー（usecase）が定義します。
type TokenIssuer interface {
	// Issue は指定されたユーザーIDを埋め込んだトークンを生成します。
	Issue(userID string) (string, error)
}

// RegisterInput は新規登録の入力値です。
type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// RegisterResult は新規登録成功時の結果です。
type RegisterResult struct {
	Token string
	Email string
}

// LoginResult はログイン成功時の結果です。パスワードやハッシュは含みません。
type LoginResult struct {
	Token     string
	FirstName string
	Email     string
}

// UpdateInput はプロフィール更新の入力値です。
// ActorIDは検証済みトークンから取り出したユーザーID、Emailはリクエストヘッダーの値です。
type UpdateInput struct {
	ActorID string
	Email   string
	Patch   entity.ProfilePatch
}

// authUsecase は認証ビジネスロジックを実装します。
type authUsecase struct {
	users  UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	now    func() time.Time

	// dummyHash はユーザーが存在しない場合に比較するダイジェストです。
	// hasherと同じコストで生成し、未登録と登録済みの応答時間を揃えます。
	dummyHash string
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(users UserRepository, hasher PasswordHasher, tokens TokenIssuer) *authUsecase {
	dummy, err := hasher.Hash(rand.Text())
	if err != nil {
		slog.Warn("failed to derive dummy password hash; using fallback", "error", err)
		dummy = fallbackDummyHash
	}
	return &authUsecase{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		now:       time.Now,
		dummyHash: dummy,
	}
}

// Register はハッシュ化されたパスワードで新規ユーザーを登録し、トークンを発行します。
// 事前の存在確認に加え、ストアの一意制約違反もErrDuplicateIdentityとして扱います。
func (u *authUsecase) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	existing, err := u.users.FindByEmail(ctx, in.Email)
	switch {
	case err == nil && existing != nil:
		return nil, ErrDuplicateIdentity
	case err != nil && !errors.Is(err, ErrUserNotFound):
		return nil, storeErr(err)
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hashed,
		CreatedAt:    u.now(),
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, ErrDuplicateIdentity
		}
		return nil, storeErr(err)
	}

	token, err := u.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &RegisterResult{Token: token, Email: user.Email}, nil
}

// Login はユーザーを認証し、成功時にトークンと表示名を返します。
// タイミング攻撃を防止するため、ユーザーが存在しない場合でもbcrypt比較を実行します。
func (u *authUsecase) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			u.hasher.Verify(password, u.dummyHash)
			return nil, ErrUnknownIdentity
		}
		return nil, storeErr(err)
	}

	if !u.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredential
	}

	token, err := u.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &LoginResult{Token: token, FirstName: user.FirstName, Email: user.Email}, nil
}

// Update は認証済みユーザー自身のプロフィールを部分更新し、新しいトークンを返します。
// メールアドレスが空の場合はストアにアクセスせずErrMissingIdentifierを返します。
func (u *authUsecase) Update(ctx context.Context, in UpdateInput) (string, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return "", ErrMissingIdentifier
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrUnknownIdentity
		}
		return "", storeErr(err)
	}
	if in.ActorID == "" || user.ID != in.ActorID {
		return "", ErrIdentityMismatch
	}

	updated, err := u.users.UpdateByEmail(ctx, email, in.Patch, u.now())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrUnknownIdentity
		}
		return "", storeErr(err)
	}

	token, err := u.tokens.Issue(updated.ID)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStore, err)
}
