// Package user はユーザー登録・認証のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/taskman/internal/model"
	"github.com/hitoshi/taskman/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost はパスワードハッシュの計算コスト。
const bcryptCost = 10

// MetricsRecorder はユーザー登録メトリクスの記録インターフェース。
// metrics.Collectorの部分集合として定義する。nil可。
type MetricsRecorder interface {
	RecordSignup()
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo repository.UserRepository
	metrics  MetricsRecorder
}

// NewService はServiceを生成する。metricsはnilでもよい。
func NewService(userRepo repository.UserRepository, metrics MetricsRecorder) *Service {
	return &Service{
		userRepo: userRepo,
		metrics:  metrics,
	}
}

// Signup は新規ユーザーを登録する。
// メールアドレスが既に使われている場合はUSER_EXISTSエラーを返す。
// パスワードはbcryptでハッシュ化し、平文は保持しない。
func (s *Service) Signup(ctx context.Context, name, email, password string) (*model.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, model.NewUserExistsError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	newUser := &model.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordSignup()
	}

	slog.Info("new user created",
		slog.String("user_id", newUser.ID),
	)

	return newUser, nil
}

// Signin はメールアドレスとパスワードでユーザーを認証する。
// 未登録メールとパスワード不一致はどちらもINVALID_CREDENTIALSを返し、区別しない。
func (s *Service) Signin(ctx context.Context, email, password string) (*model.User, error) {
	found, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if found == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	slog.Info("user signed in",
		slog.String("user_id", found.ID),
	)

	return found, nil
}

// Get は指定IDのユーザーを取得する。
// 見つからない場合はUSER_NOT_FOUNDエラーを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	found, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if found == nil {
		return nil, model.NewUserNotFoundError()
	}
	return found, nil
}
