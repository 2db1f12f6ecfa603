package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/taskman/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// --- モック定義 ---

type mockUserRepo struct {
	createFn      func(ctx context.Context, user *model.User) error
	findByIDFn    func(ctx context.Context, id string) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

type mockMetrics struct {
	signups int
}

func (m *mockMetrics) RecordSignup() { m.signups++ }

// --- テスト ---

func TestService_Signup_CreatesUserWithHashedPassword(t *testing.T) {
	var created *model.User
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) error {
			created = user
			return nil
		},
	}
	metrics := &mockMetrics{}
	svc := NewService(repo, metrics)

	u, err := svc.Signup(context.Background(), "Hitoshi", "hitoshi@example.com", "secret1")
	if err != nil {
		t.Fatalf("Signup error: %v", err)
	}

	if created == nil {
		t.Fatal("expected user to be persisted")
	}
	if u.ID == "" {
		t.Error("expected generated user ID")
	}
	if u.Name != "Hitoshi" || u.Email != "hitoshi@example.com" {
		t.Errorf("user = %+v", u)
	}

	// 平文は保存されず、ハッシュから照合できること
	if created.PasswordHash == "secret1" {
		t.Error("password must not be stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret1")); err != nil {
		t.Errorf("stored hash should match original password: %v", err)
	}

	if metrics.signups != 1 {
		t.Errorf("signup metric = %d, want 1", metrics.signups)
	}
}

func TestService_Signup_DuplicateEmail_ReturnsUserExists(t *testing.T) {
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "existing", Email: email}, nil
		},
		createFn: func(ctx context.Context, user *model.User) error {
			t.Fatal("Create should not be called for duplicate email")
			return nil
		},
	}
	svc := NewService(repo, nil)

	_, err := svc.Signup(context.Background(), "Hitoshi", "taken@example.com", "whatever-password")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserExists {
		t.Fatalf("expected USER_EXISTS error, got %v", err)
	}
}

func TestService_Signup_RepoError_Propagates(t *testing.T) {
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewService(repo, nil)

	_, err := svc.Signup(context.Background(), "a", "a@example.com", "secret1")
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("store failure should not map to an APIError, got %v", apiErr)
	}
}

func TestService_Signin_Success(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash: %v", err)
	}

	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{
				ID:           "user-1",
				Email:        email,
				PasswordHash: string(hash),
				CreatedAt:    time.Now(),
			}, nil
		},
	}
	svc := NewService(repo, nil)

	u, err := svc.Signin(context.Background(), "hitoshi@example.com", "secret1")
	if err != nil {
		t.Fatalf("Signin error: %v", err)
	}
	if u.ID != "user-1" {
		t.Errorf("user ID = %q, want user-1", u.ID)
	}
}

func TestService_Signin_WrongPassword_ReturnsInvalidCredentials(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)

	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: "user-1", PasswordHash: string(hash)}, nil
		},
	}
	svc := NewService(repo, nil)

	_, err := svc.Signin(context.Background(), "hitoshi@example.com", "wrong-password")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
	}
}

func TestService_Signin_UnknownEmail_SameErrorAsWrongPassword(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewService(repo, nil)

	_, err := svc.Signin(context.Background(), "nobody@example.com", "whatever-password")

	// メール未登録とパスワード不一致が同じエラーになること（列挙攻撃対策）
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidCredentials {
		t.Fatalf("expected INVALID_CREDENTIALS, got %v", err)
	}
}

func TestService_Get_NotFound(t *testing.T) {
	svc := NewService(&mockUserRepo{}, nil)

	_, err := svc.Get(context.Background(), "missing-id")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("expected USER_NOT_FOUND, got %v", err)
	}
}

func TestService_Get_Found(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Name: "Hitoshi"}, nil
		},
	}
	svc := NewService(repo, nil)

	u, err := svc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if u.Name != "Hitoshi" {
		t.Errorf("name = %q, want Hitoshi", u.Name)
	}
}
