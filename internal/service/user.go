package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Isild/home-budget-backend/internal/models"
	"github.com/Isild/home-budget-backend/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateUserInput struct {
	Email    string
	Password string
	IsAdmin  bool
	IsActive bool
	Disabled bool
}

type ListUsersQuery struct {
	Page   int
	Limit  int
	Search string
}

// UserService manages accounts.
type UserService struct {
	db     *gorm.DB
	auth   *AuthService
	mailer Mailer
	log    *zap.Logger
}

func NewUserService(db *gorm.DB, auth *AuthService, mailer Mailer, log *zap.Logger) *UserService {
	return &UserService{db: db, auth: auth, mailer: mailer, log: log.Named("users")}
}

// Create stores a new user and issues its first token.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*models.User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrValidation
	}

	existing, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		UUID:         uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		IsActive:     in.IsActive,
		IsAdmin:      in.IsAdmin,
		Disabled:     in.Disabled,
	}
	// 用户和首个 token 一起提交，签发失败时不留下用户
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			// 并发注册同一邮箱时由唯一索引兜底
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEmailTaken
			}
			return fmt.Errorf("create user: %w", err)
		}
		_, err := s.auth.issueToken(tx, &user)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user created", zap.String("uuid", user.UUID), zap.Bool("admin", user.IsAdmin))
	return &user, nil
}

// Register creates an inactive, disabled account and sends the verification mail.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.Create(ctx, CreateUserInput{
		Email:    email,
		Password: password,
		IsActive: false,
		Disabled: true,
	})
	if err != nil {
		return nil, err
	}

	if err := s.mailer.Send(ctx, user.Email, "Confirm your registration",
		"Your account has been created. Confirm your registration to activate it."); err != nil {
		return nil, fmt.Errorf("send verification email: %w", err)
	}
	return user, nil
}

// SendPasswordReset mails a reset link. Unknown addresses are not reported to the caller.
func (s *UserService) SendPasswordReset(ctx context.Context, email string) error {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		s.log.Info("password reset for unknown email")
		return nil
	}
	if err := s.mailer.Send(ctx, user.Email, "Password reset",
		"Use the link in this message to reset your password."); err != nil {
		return fmt.Errorf("send password reset email: %w", err)
	}
	return nil
}

func (s *UserService) FindByUUID(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, "uuid = ?", id)
}

func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "email = ?", email)
}

func (s *UserService) FindByToken(ctx context.Context, token string) (*models.User, error) {
	return s.auth.ResolveToken(ctx, token)
}

func (s *UserService) findOne(ctx context.Context, cond string, arg interface{}) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where(cond, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// List returns one page of users ordered by email descending and the total match count.
func (s *UserService) List(ctx context.Context, q ListUsersQuery) ([]models.User, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.User{})
	if q.Search != "" {
		base = base.Where(`email LIKE ? ESCAPE '\'`, util.ContainsPattern(q.Search))
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var users []models.User
	if err := base.Session(&gorm.Session{}).
		Order("email DESC").
		Limit(q.Limit).
		Offset(util.Offset(q.Page, q.Limit)).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// Delete removes the user and everything the user owns.
func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.FindByUUID(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Session{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.AuditLog{}).Error; err != nil {
			return err
		}
		for _, m := range []interface{}{&models.Expenditure{}, &models.DayStat{}, &models.Limit{}} {
			if err := tx.Where("owner_id = ?", user.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.log.Info("user deleted", zap.String("uuid", user.UUID))
	return nil
}

// ChangePassword stores a new hash and drops all existing tokens.
func (s *UserService) ChangePassword(ctx context.Context, user *models.User, newPassword string) error {
	if newPassword == "" {
		return ErrValidation
	}
	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error; err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	user.PasswordHash = hash
	return s.auth.Revoke(ctx, user)
}
