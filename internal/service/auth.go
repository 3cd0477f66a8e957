package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Isild/home-budget-backend/internal/models"
	"github.com/Isild/home-budget-backend/internal/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthService hashes passwords, issues bearer tokens and resolves them back to users.
// Issued tokens are kept in the sessions table; a token only works while its row exists.
type AuthService struct {
	db            *gorm.DB
	signer        *util.TokenSigner
	bcryptCost    int
	singleSession bool
	log           *zap.Logger
	now           func() time.Time
}

func NewAuthService(db *gorm.DB, signer *util.TokenSigner, bcryptCost int, singleSession bool, log *zap.Logger) *AuthService {
	return &AuthService{
		db:            db,
		signer:        signer,
		bcryptCost:    bcryptCost,
		singleSession: singleSession,
		log:           log.Named("auth"),
		now:           time.Now,
	}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	return util.HashPassword(password, s.bcryptCost)
}

func (s *AuthService) VerifyPassword(password, hash string) bool {
	return util.CheckPassword(password, hash)
}

// IssueToken signs a new token for user and stores it. In single-session mode
// every earlier token of the user stops working.
func (s *AuthService) IssueToken(ctx context.Context, user *models.User) (string, error) {
	var token string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		token, err = s.issueToken(tx, user)
		return err
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// issueToken runs inside the caller's transaction.
func (s *AuthService) issueToken(tx *gorm.DB, user *models.User) (string, error) {
	token, expiresAt, err := s.signer.Generate(user.Email, s.now())
	if err != nil {
		return "", err
	}

	if s.singleSession {
		err = tx.Where("user_id = ?", user.ID).Delete(&models.Session{}).Error
	} else {
		// 顺手清理过期会话
		err = tx.Where("user_id = ? AND expires_at < ?", user.ID, s.now()).Delete(&models.Session{}).Error
	}
	if err == nil {
		err = tx.Create(&models.Session{
			Token:     token,
			UserID:    user.ID,
			ExpiresAt: expiresAt,
		}).Error
	}
	if err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// ResolveToken returns the owner of a stored token, or nil when the token is unknown.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}

	var session models.Session
	err := s.db.WithContext(ctx).Preload("User").Where("token = ?", token).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	return &session.User, nil
}

// Authenticate checks password against user. A nil user is reported the same way as a
// wrong password.
func (s *AuthService) Authenticate(user *models.User, password string) (*models.User, error) {
	if user == nil || !s.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// RequireActiveUser validates token and returns its active owner.
func (s *AuthService) RequireActiveUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.signer.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.ResolveToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Email != claims.Subject {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

// Revoke drops every stored token of user.
func (s *AuthService) Revoke(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Where("user_id = ?", user.ID).Delete(&models.Session{}).Error; err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}
