package usecase

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"secondchance_backend/internal/feature/auth/domain/entity"
	jwtmw "secondchance_backend/internal/platform/jwt"
	"secondchance_backend/internal/platform/password"
)

// mockUserRepository is a mock implementation of the UserRepository interface.
// It simulates database operations during testing and counts every store call.
type mockUserRepository struct {
	CreateFunc        func(user *entity.User) error
	FindByEmailFunc   func(email string) (*entity.User, error)
	UpdateByEmailFunc func(email string, patch entity.ProfilePatch, updatedAt time.Time) (*entity.User, error)

	calls int
}

// Create is the mock implementation of the Create method.
func (m *mockUserRepository) Create(_ context.Context, user *entity.User) error {
	m.calls++
	if m.CreateFunc != nil {
		return m.CreateFunc(user)
	}
	user.ID = "1"
	return nil // Default: success
}

// FindByEmail is the mock implementation of the FindByEmail method.
func (m *mockUserRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	m.calls++
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(email)
	}
	// Default: return user not found error
	return nil, ErrUserNotFound
}

// UpdateByEmail is the mock implementation of the UpdateByEmail method.
func (m *mockUserRepository) UpdateByEmail(_ context.Context, email string, patch entity.ProfilePatch, updatedAt time.Time) (*entity.User, error) {
	m.calls++
	if m.UpdateByEmailFunc != nil {
		return m.UpdateByEmailFunc(email, patch, updatedAt)
	}
	return nil, ErrUserNotFound
}

// mockTokenIssuer is a mock implementation of the TokenIssuer interface.
type mockTokenIssuer struct {
	IssueFunc func(userID string) (string, error)
}

// Issue is the mock implementation of the Issue method.
func (m *mockTokenIssuer) Issue(userID string) (string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(userID)
	}
	// Default: return a dummy token
	return "mock-token-" + userID, nil
}

// memUserRepository is an in-memory UserRepository that enforces the unique email index.
type memUserRepository struct {
	mu     sync.Mutex
	nextID int
	users  map[string]entity.User
}

func newMemUserRepository() *memUserRepository {
	return &memUserRepository{users: map[string]entity.User{}}
}

func (r *memUserRepository) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return ErrEmailAlreadyExists
	}
	r.nextID++
	user.ID = strconv.Itoa(r.nextID)
	r.users[user.Email] = *user
	return nil
}

func (r *memUserRepository) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *memUserRepository) UpdateByEmail(_ context.Context, email string, patch entity.ProfilePatch, updatedAt time.Time) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	patch.ApplyTo(&u)
	u.UpdatedAt = &updatedAt
	r.users[email] = u
	return &u, nil
}

func (r *memUserRepository) count(email string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[email]; ok {
		return 1
	}
	return 0
}

func newTestHasher(t *testing.T) *password.BcryptHasher {
	t.Helper()
	h, err := password.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func newTestIssuer(t *testing.T) *jwtmw.Issuer {
	t.Helper()
	iss, err := jwtmw.NewIssuer("test-secret", 0)
	require.NoError(t, err)
	return iss
}

func TestAuthUsecase_Register(t *testing.T) {
	t.Run("successful register", func(t *testing.T) {
		var stored *entity.User
		mockRepo := &mockUserRepository{
			CreateFunc: func(user *entity.User) error {
				stored = user
				user.ID = "64b7f0c2a1e4d3b2c1a09f8e"
				return nil
			},
		}
		hasher := newTestHasher(t)
		uc := NewAuthUsecase(mockRepo, hasher, &mockTokenIssuer{})
		fixed := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
		uc.now = func() time.Time { return fixed }

		res, err := uc.Register(context.Background(), RegisterInput{
			Email: "a@b.com", FirstName: "A", LastName: "B", Password: "pw123",
		})

		require.NoError(t, err)
		assert.Equal(t, "mock-token-64b7f0c2a1e4d3b2c1a09f8e", res.Token)
		assert.Equal(t, "a@b.com", res.Email)

		require.NotNil(t, stored)
		assert.Equal(t, "A", stored.FirstName)
		assert.Equal(t, "B", stored.LastName)
		assert.Equal(t, fixed, stored.CreatedAt)
		assert.Nil(t, stored.UpdatedAt)
		// Verify that the password is hashed
		assert.NotEqual(t, "pw123", stored.PasswordHash)
		assert.True(t, hasher.Verify("pw123", stored.PasswordHash))
	})

	t.Run("duplicate email found by lookup", func(t *testing.T) {
		mockRepo := &mockUserRepository{
			FindByEmailFunc: func(email string) (*entity.User, error) {
				return &entity.User{ID: "1", Email: email}, nil
			},
			CreateFunc: func(user *entity.User) error {
				t.Error("Create must not be called for a duplicate email")
				return nil
			},
		}
		uc := NewAuthUsecase(mockRepo, newTestHasher(t), &mockTokenIssuer{})

		res, err := uc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "pw123"})

		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrDuplicateIdentity)
	})

	t.Run("duplicate email rejected by unique index", func(t *testing.T) {
		mockRepo := &mockUserRepository{
			CreateFunc: func(user *entity.User) error {
				return ErrEmailAlreadyExists
			},
		}
		uc := NewAuthUsecase(mockRepo, newTestHasher(t), &mockTokenIssuer{})

		_, err := uc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "pw123"})

		assert.ErrorIs(t, err, ErrDuplicateIdentity)
	})

	t.Run("lookup failure is a store error", func(t *testing.T) {
		dbErr := errors.New("connection refused")
		mockRepo := &mockUserRepository{
			FindByEmailFunc: func(email string) (*entity.User, error) { return nil, dbErr },
		}
		uc := NewAuthUsecase(mockRepo, newTestHasher(t), &mockTokenIssuer{})

		_, err := uc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "pw123"})

		assert.ErrorIs(t, err, ErrStore)
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("insert failure is a store error", func(t *testing.T) {
		dbErr := errors.New("database error")
		mockRepo := &mockUserRepository{
			CreateFunc: func(user *entity.User) error { return dbErr },
		}
		uc := NewAuthUsecase(mockRepo, newTestHasher(t), &mockTokenIssuer{})

		_, err := uc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "pw123"})

		assert.ErrorIs(t, err, ErrStore)
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("token generation failure", func(t *testing.T) {
		uc := NewAuthUsecase(&mockUserRepository{}, newTestHasher(t), &mockTokenIssuer{
			IssueFunc: func(userID string) (string, error) { return "", errors.New("failed to sign token") },
		})

		_, err := uc.Register(context.Background(), RegisterInput{Email: "a@b.com", Password: "pw123"})

		require.Error(t, err)
		assert.Equal(t, "failed to generate token: failed to sign token", err.Error())
	})
}

func TestAuthUsecase_RegisterTwice(t *testing.T) {
	repo := newMemUserRepository()
	uc := NewAuthUsecase(repo, newTestHasher(t), newTestIssuer(t))
	in := RegisterInput{Email: "a@b.com", FirstName: "A", LastName: "B", Password: "pw123"}

	first, err := uc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.NotEmpty(t, first.Token)

	second, err := uc.Register(context.Background(), in)
	assert.Nil(t, second)
	assert.ErrorIs(t, err, ErrDuplicateIdentity)

	assert.Equal(t, 1, repo.count("a@b.com"), "store must contain exactly one record")
}

func TestAuthUsecase_Login(t *testing.T) {
	hasher := newTestHasher(t)
	hashed, err := hasher.Hash("password123")
	require.NoError(t, err)
	testUser := &entity.User{
		ID:           "1",
		Email:        "test@example.com",
		FirstName:    "Test",
		PasswordHash: hashed,
	}

	t.Run("successful login", func(t *testing.T) {
		mockRepo := &mockUserRepository{
			FindByEmailFunc: func(email string) (*entity.User, error) {
				if email == testUser.Email {
					return testUser, nil
				}
				return nil, ErrUserNotFound
			},
		}
		mockIssuer := &mockTokenIssuer{
			IssueFunc: func(userID string) (string, error) {
				if userID != testUser.ID {
					t.Errorf("unexpected userID: got %s", userID)
				}
				return "mock-jwt-token", nil
			},
		}

		uc := NewAuthUsecase(mockRepo, hasher, mockIssuer)
		res, err := uc.Login(context.Background(), "test@example.com", "password123")

		require.NoError(t, err)
		assert.Equal(t, "mock-jwt-token", res.Token)
		assert.Equal(t, "Test", res.FirstName)
		assert.Equal(t, "test@example.com", res.Email)
		assert.Equal(t, 1, mockRepo.calls, "login must not mutate the store")
	})

	t.Run("user not found", func(t *testing.T) {
		uc := NewAuthUsecase(&mockUserRepository{}, hasher, &mockTokenIssuer{})

		res, err := uc.Login(context.Background(), "wrong@example.com", "password123")

		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrUnknownIdentity)
		assert.NotErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("incorrect password", func(t *testing.T) {
		mockRepo := &mockUserRepository{
			FindByEmailFunc: func(email string) (*entity.User, error) { return testUser, nil },
		}
		uc := NewAuthUsecase(mockRepo, hasher, &mockTokenIssuer{})

		res, err := uc.Login(context.Background(), "test@example.com", "wrong-password")

		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrInvalidCredential)
		assert.NotErrorIs(t, err, ErrUnknownIdentity)
	})

	t.Run("malformed stored digest", func(t *testing.T) {
		mockRepo := &mockUserRepository{
			FindByEmailFunc: func(email string) (*entity.User, error) {
				return &entity.User{ID: "1", Email: email, PasswordHash: "not-a-digest"}, nil
			},
		}
		uc := NewAuthUsecase(mockRepo, hasher, &mockTokenIssuer{})

		_, err := uc.Login(context.Background(), "test@example.com", "password123")

		assert.ErrorIs(t, err, ErrInvalidCredential)
	})

	t.Run("store failure", func(t *testing.T) {
		mockRepo := &mockUserRepository{
			FindByEmailFunc: func(email string) (*entity.User, error) { return nil, errors.New("timeout") },
		}
		uc := NewAuthUsecase(mockRepo, hasher, &mockTokenIssuer{})

		_, err := uc.Login(context.Background(), "test@example.com", "password123")

		assert.ErrorIs(t, err, ErrStore)
	})

	t.Run("token generation failure", func(t *testing.T) {
		mockRepo := &mockUserRepository{
			FindByEmailFunc: func(email string) (*entity.User, error) { return testUser, nil },
		}
		mockIssuer := &mockTokenIssuer{
			IssueFunc: func(userID string) (string, error) { return "", errors.New("failed to sign token") },
		}

		uc := NewAuthUsecase(mockRepo, hasher, mockIssuer)
		_, err := uc.Login(context.Background(), "test@example.com", "password123")

		require.Error(t, err)
		assert.Equal(t, "failed to generate token: failed to sign token", err.Error())
	})
}

func TestAuthUsecase_LoginTokenDecodesToStoredID(t *testing.T) {
	repo := newMemUserRepository()
	issuer := newTestIssuer(t)
	uc := NewAuthUsecase(repo, newTestHasher(t), issuer)

	_, err := uc.Register(context.Background(), RegisterInput{Email: "a@b.com", FirstName: "A", LastName: "B", Password: "pw123"})
	require.NoError(t, err)

	res, err := uc.Login(context.Background(), "a@b.com", "pw123")
	require.NoError(t, err)
	assert.Equal(t, "A", res.FirstName)
	assert.Equal(t, "a@b.com", res.Email)

	stored, err := repo.FindByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)

	userID, err := issuer.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, userID)

	_, err = uc.Login(context.Background(), "a@b.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestAuthUsecase_Update(t *testing.T) {
	newName := "Alice"
	existing := &entity.User{ID: "7", Email: "a@b.com", FirstName: "A", LastName: "B", PasswordHash: "digest"}

	t.Run("missing email fails before any store access", func(t *testing.T) {
		for _, email := range []string{"", "   "} {
			mockRepo := &mockUserRepository{}
			uc := NewAuthUsecase(mockRepo, newTestHasher(t), &mockTokenIssuer{})

			token, err := uc.Update(context.Background(), UpdateInput{ActorID: "7", Email: email})

			assert.Empty(t, token)
			assert.ErrorIs(t, err, ErrMissingIdentifier)
			assert.Equal(t, 0, mockRepo.calls, "store must not be touched")
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		mockRepo := &mockUserRepository{}
		uc := NewAuthUsecase(mockRepo, newTestHasher(t), &mockTokenIssuer{})

		_, err := uc.Update(context.Background(), UpdateInput{ActorID: "7", Email: "nobody@b.com"})

		assert.ErrorIs(t, err, ErrUnknownIdentity)
		assert.Equal(t, 1, mockRepo.calls)
	})

	t.Run("email of another user", func(t *testing.T) {
		mockRepo := &mockUserRepository{
			FindByEmailFunc: func(email string) (*entity.User, error) { return existing, nil },
			UpdateByEmailFunc: func(string, entity.ProfilePatch, time.Time) (*entity.User, error) {
				t.Error("UpdateByEmail must not be called for a mismatched actor")
				return nil, nil
			},
		}
		uc := NewAuthUsecase(mockRepo, newTestHasher(t), &mockTokenIssuer{})

		_, err := uc.Update(context.Background(), UpdateInput{ActorID: "8", Email: "a@b.com"})

		assert.ErrorIs(t, err, ErrIdentityMismatch)
	})

	t.Run("successful partial update", func(t *testing.T) {
		fixed := time.Date(2026, 10, 2, 9, 30, 0, 0, time.UTC)
		mockRepo := &mockUserRepository{
			FindByEmailFunc: func(email string) (*entity.User, error) { return existing, nil },
			UpdateByEmailFunc: func(email string, patch entity.ProfilePatch, updatedAt time.Time) (*entity.User, error) {
				assert.Equal(t, "a@b.com", email)
				assert.Equal(t, fixed, updatedAt)
				require.NotNil(t, patch.FirstName)
				assert.Equal(t, "Alice", *patch.FirstName)
				assert.Nil(t, patch.LastName, "untouched fields must not be in the patch")

				out := *existing
				patch.ApplyTo(&out)
				out.UpdatedAt = &updatedAt
				return &out, nil
			},
		}
		uc := NewAuthUsecase(mockRepo, newTestHasher(t), &mockTokenIssuer{})
		uc.now = func() time.Time { return fixed }

		token, err := uc.Update(context.Background(), UpdateInput{
			ActorID: "7",
			Email:   " a@b.com ",
			Patch:   entity.ProfilePatch{FirstName: &newName},
		})

		require.NoError(t, err)
		assert.Equal(t, "mock-token-7", token)
	})

	t.Run("update store failure", func(t *testing.T) {
		mockRepo := &mockUserRepository{
			FindByEmailFunc: func(email string) (*entity.User, error) { return existing, nil },
			UpdateByEmailFunc: func(string, entity.ProfilePatch, time.Time) (*entity.User, error) {
				return nil, errors.New("write conflict")
			},
		}
		uc := NewAuthUsecase(mockRepo, newTestHasher(t), &mockTokenIssuer{})

		_, err := uc.Update(context.Background(), UpdateInput{ActorID: "7", Email: "a@b.com"})

		assert.ErrorIs(t, err, ErrStore)
	})

	t.Run("user removed between lookup and update", func(t *testing.T) {
		mockRepo := &mockUserRepository{
			FindByEmailFunc: func(email string) (*entity.User, error) { return existing, nil },
		}
		uc := NewAuthUsecase(mockRepo, newTestHasher(t), &mockTokenIssuer{})

		_, err := uc.Update(context.Background(), UpdateInput{ActorID: "7", Email: "a@b.com"})

		assert.ErrorIs(t, err, ErrUnknownIdentity)
	})
}

func TestAuthUsecase_UpdateKeepsPasswordHash(t *testing.T) {
	repo := newMemUserRepository()
	hasher := newTestHasher(t)
	issuer := newTestIssuer(t)
	uc := NewAuthUsecase(repo, hasher, issuer)

	_, err := uc.Register(context.Background(), RegisterInput{Email: "a@b.com", FirstName: "A", LastName: "B", Password: "pw123"})
	require.NoError(t, err)
	before, _ := repo.FindByEmail(context.Background(), "a@b.com")

	last := "Brown"
	token, err := uc.Update(context.Background(), UpdateInput{
		ActorID: before.ID,
		Email:   "a@b.com",
		Patch:   entity.ProfilePatch{LastName: &last},
	})
	require.NoError(t, err)

	after, _ := repo.FindByEmail(context.Background(), "a@b.com")
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	assert.Equal(t, "A", after.FirstName)
	assert.Equal(t, "Brown", after.LastName)
	assert.NotNil(t, after.UpdatedAt)

	userID, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, before.ID, userID)

	_, err = uc.Login(context.Background(), "a@b.com", "pw123")
	assert.NoError(t, err, "password must still verify after update")
}

// recordingHasher は検証に使われたダイジェストを記録します。
type recordingHasher struct {
	*password.BcryptHasher
	verified []string
}

func (h *recordingHasher) Verify(plain, digest string) bool {
	h.verified = append(h.verified, digest)
	return h.BcryptHasher.Verify(plain, digest)
}

func TestAuthUsecase_LoginUnknownUserUsesConfiguredCost(t *testing.T) {
	t.Parallel()

	hasher := &recordingHasher{BcryptHasher: newTestHasher(t)}
	uc := NewAuthUsecase(&mockUserRepository{}, hasher, &mockTokenIssuer{})

	_, err := uc.Login(context.Background(), "nobody@b.com", "pw123")
	require.ErrorIs(t, err, ErrUnknownIdentity)

	require.Len(t, hasher.verified, 1)
	cost, err := bcrypt.Cost([]byte(hasher.verified[0]))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}
