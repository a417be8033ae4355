package service

import (
	"context"
	"errors"
	"fmt"
	"langquiz_backend/internal/config"
	"langquiz_backend/internal/jobs"
	"langquiz_backend/internal/model"
	"langquiz_backend/internal/util"
	"langquiz_backend/pkg/logger"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type SignupInput struct {
	Username string
	Email    string
	Password string
}

// Profile 当前用户的账户信息
type Profile struct {
	User            *model.User        `json:"user"`
	State           model.AccountState `json:"state"`
	SolvedQuestions int64              `json:"solvedQuestions"`
}

type AccountService struct {
	Users      UserStore
	Attempts   AttemptStore
	Sessions   SessionStore
	Resets     ResetTokenStore
	Dispatcher *jobs.Dispatcher
	Cfg        *config.Config
	HashCost   int
}

func NewAccountService(users UserStore, attempts AttemptStore, sessions SessionStore, resets ResetTokenStore, dispatcher *jobs.Dispatcher, cfg *config.Config) *AccountService {
	return &AccountService{
		Users:      users,
		Attempts:   attempts,
		Sessions:   sessions,
		Resets:     resets,
		Dispatcher: dispatcher,
		Cfg:        cfg,
		HashCost:   bcrypt.DefaultCost,
	}
}

func (s *AccountService) hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.HashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Signup 创建未激活账户，账户保存成功后才投递激活邮件任务。
// 投递失败时仍返回账户，该账户无法激活，之后由 PurgeExpired 清理
func (s *AccountService) Signup(ctx context.Context, in SignupInput, site string) (*model.User, error) {
	if _, err := s.Users.FindByEmail(ctx, in.Email); err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.Users.FindByUsername(ctx, in.Username); err == nil {
		return nil, util.ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hashed,
	}

	err = s.Dispatcher.AfterCommit(ctx,
		func() error {
			if err := s.Users.Create(ctx, user); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return util.ErrUsernameTaken
				}
				return err
			}
			return nil
		},
		func() ([]jobs.Job, error) {
			job, err := jobs.New(jobs.SendActivationEmail, jobs.ActivationEmailArgs{
				UserID: user.ID,
				Email:  user.Email,
				Site:   site,
			})
			return []jobs.Job{job}, err
		},
	)
	if errors.Is(err, jobs.ErrNotEnqueued) {
		// 账户已保存，未激活的账户到期后由定时任务清理
		logger.Log.Error("Activation email not queued", zap.Uint("userID", user.ID), zap.Error(err))
	} else if err != nil {
		return nil, err
	}

	logger.Log.Info("User signed up", zap.Uint("userID", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login 校验凭证并为已激活账户签发 JWT。
// 已停用账户会收到重新激活邮件，并返回 util.ErrAccountDeactivated
func (s *AccountService) Login(ctx context.Context, username, password, site string) (string, error) {
	user, err := s.Users.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", util.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", util.ErrInvalidCredentials
	}

	switch user.State() {
	case model.StateUnconfirmed:
		return "", util.ErrUnconfirmedEmail
	case model.StateDeactivated:
		err := s.Dispatcher.Enqueue(ctx, jobs.SendActivationEmail, jobs.ActivationEmailArgs{
			UserID:     user.ID,
			Email:      user.Email,
			Site:       site,
			Reactivate: true,
		})
		if err != nil {
			return "", err
		}
		return "", util.ErrAccountDeactivated
	}

	if err := s.Users.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		return "", err
	}
	return util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
}

func (s *AccountService) Logout(ctx context.Context, claims *util.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.Sessions.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// RequestDeactivation 校验密码后排队停用任务，并注销该用户的全部会话
func (s *AccountService) RequestDeactivation(ctx context.Context, claims *util.Claims, password string) error {
	user, err := s.Users.FindByID(ctx, claims.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return util.ErrWrongPassword
	}

	if err := s.Sessions.RevokeAll(ctx, user.ID, time.Now(), s.Cfg.JWT.ExpireTime); err != nil {
		return err
	}
	if err := s.Dispatcher.Enqueue(ctx, jobs.DeactivateUser, jobs.DeactivateUserArgs{UserID: user.ID}); err != nil {
		return err
	}
	return s.Logout(ctx, claims)
}

func (s *AccountService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := s.Users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return util.ErrWrongPassword
	}

	hashed, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	return s.Users.UpdatePassword(ctx, user.ID, hashed)
}

// RequestPasswordReset 投递密码重置邮件，未注册的邮箱直接忽略
func (s *AccountService) RequestPasswordReset(ctx context.Context, email, site string) error {
	user, err := s.Users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.Dispatcher.Enqueue(ctx, jobs.SendPasswordResetEmail, jobs.PasswordResetEmailArgs{
		UserID: user.ID,
		Site:   site,
	})
}

func (s *AccountService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	userID, err := s.Resets.Consume(ctx, token)
	if err != nil {
		return err
	}
	if _, err := s.Users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrResetTokenInvalid
		}
		return err
	}

	hashed, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.Users.UpdatePassword(ctx, userID, hashed); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	logger.Log.Info("Password reset", zap.Uint("userID", userID))
	return nil
}

func (s *AccountService) Profile(ctx context.Context, userID uint) (*Profile, error) {
	user, err := s.Users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	solved, err := s.Attempts.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, State: user.State(), SolvedQuestions: solved}, nil
}
