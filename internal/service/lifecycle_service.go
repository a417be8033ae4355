package service

import (
	"context"
	"errors"
	"fmt"
	"langquiz_backend/internal/jobs"
	"langquiz_backend/internal/model"
	"langquiz_backend/internal/util"
	"langquiz_backend/pkg/logger"
	"langquiz_backend/pkg/mailer"
	"langquiz_backend/pkg/monitoring"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	activationSubject    = "Email confirmation"
	passwordResetSubject = "Password reset"
)

// LifecycleService 管理账户在未确认、已激活、已停用之间的状态转换，任务处理函数运行在后台 worker 上
type LifecycleService struct {
	Users    UserStore
	Tokens   ActivationTokenStore
	Resets   ResetTokenStore
	Mailer   mailer.Mailer
	Lifetime time.Duration
	ResetTTL time.Duration
	// BaseURL 邮件链接前缀，为空时使用 https://<site>
	BaseURL string
	Now     func() time.Time
}

func NewLifecycleService(users UserStore, tokens ActivationTokenStore, resets ResetTokenStore, m mailer.Mailer, lifetime, resetTTL time.Duration, baseURL string) *LifecycleService {
	return &LifecycleService{
		Users:    users,
		Tokens:   tokens,
		Resets:   resets,
		Mailer:   m,
		Lifetime: lifetime,
		ResetTTL: resetTTL,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Now:      time.Now,
	}
}

func (s *LifecycleService) IssueToken(ctx context.Context, userID uint) (*model.ActivationToken, error) {
	return s.Tokens.Issue(ctx, userID)
}

// Activate 消费激活令牌。令牌不存在或已使用时返回 util.ErrTokenNotFound；
// 超过有效期时删除该用户并返回 util.ErrTokenExpired。
//
// 新注册账户的有效期从注册时间 (date_joined) 起算。
// 停用后重新激活的账户例外：有效期从本次令牌签发时间起算，而不是注册时间；
// 否则注册已超过有效期的老账户会在点击链接时被直接删除。
func (s *LifecycleService) Activate(ctx context.Context, token string) (*model.User, error) {
	t, err := s.Tokens.FindWithUser(ctx, token)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	user := t.User
	since := user.DateJoined()
	if user.LastLogin != nil {
		since = t.CreatedAt
	}

	if s.Now().Sub(since) >= s.Lifetime {
		if err := s.Users.Delete(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("delete expired account: %w", err)
		}
		logger.Log.Info("Expired account deleted",
			zap.Uint("userID", user.ID),
			zap.String("username", user.Username),
		)
		return nil, util.ErrTokenExpired
	}

	if err := s.Tokens.Consume(ctx, t.Token, user.ID); err != nil {
		return nil, err
	}
	user.IsActive = true
	logger.Log.Info("Account activated", zap.Uint("userID", user.ID))
	return &user, nil
}

// Deactivate 幂等，忽略不存在的用户
func (s *LifecycleService) Deactivate(ctx context.Context, userID uint) error {
	if err := s.Users.SetActive(ctx, userID, false); err != nil {
		return err
	}
	logger.Log.Info("Account deactivated", zap.Uint("userID", userID))
	return nil
}

// PurgeExpired 删除超过有效期、从未登录的未激活账户
func (s *LifecycleService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.Users.DeleteExpiredInactive(ctx, s.Now().Add(-s.Lifetime))
	if err != nil {
		return 0, err
	}
	monitoring.AccountsPurged.Add(float64(n))
	logger.Log.Info("Unconfirmed accounts purged", zap.Int64("count", n))
	return n, nil
}

func (s *LifecycleService) ActivationLink(site, username, token string) string {
	return fmt.Sprintf("%s/api/accounts/profile/%s/activate/%s",
		s.siteURL(site), url.PathEscape(username), token)
}

func (s *LifecycleService) PasswordResetLink(site, token string) string {
	return fmt.Sprintf("%s/api/accounts/password/reset/confirm?token=%s",
		s.siteURL(site), url.QueryEscape(token))
}

func (s *LifecycleService) siteURL(site string) string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return "https://" + site
}

// SendActivationEmail 签发新令牌并发送激活链接
func (s *LifecycleService) SendActivationEmail(ctx context.Context, args jobs.ActivationEmailArgs) error {
	user, err := s.Users.FindByID(ctx, args.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Log.Warn("Activation email skipped, user is gone", zap.Uint("userID", args.UserID))
		return nil
	}
	if err != nil {
		return err
	}

	token, err := s.IssueToken(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("issue activation token: %w", err)
	}

	again := ""
	if args.Reactivate {
		again = "re"
	}
	body := fmt.Sprintf("Hello!\n\n"+
		"Your email was used to sign up at %s.\n"+
		"To %sactivate your account follow the link below.\n\n%s\n\n",
		args.Site, again, s.ActivationLink(args.Site, user.Username, token.Token))

	return s.Mailer.Send(ctx, activationSubject, body, args.Email)
}

func (s *LifecycleService) SendPasswordResetEmail(ctx context.Context, args jobs.PasswordResetEmailArgs) error {
	user, err := s.Users.FindByID(ctx, args.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := s.Resets.Create(ctx, user.ID, s.ResetTTL)
	if err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}

	body := fmt.Sprintf("Hello, %s!\n\n"+
		"A password reset was requested for your account at %s.\n"+
		"Follow the link below to choose a new password. It is valid for %s.\n\n%s\n\n"+
		"If you did not ask for this, ignore this email.\n",
		user.Username, args.Site, s.ResetTTL, s.PasswordResetLink(args.Site, token))

	return s.Mailer.Send(ctx, passwordResetSubject, body, user.Email)
}

// RegisterJobs 向 worker 注册账户相关任务
func (s *LifecycleService) RegisterJobs(w *jobs.Worker) {
	w.Register(jobs.SendActivationEmail, func(ctx context.Context, job jobs.Job) error {
		var args jobs.ActivationEmailArgs
		if err := job.Decode(&args); err != nil {
			return err
		}
		return s.SendActivationEmail(ctx, args)
	})
	w.Register(jobs.DeactivateUser, func(ctx context.Context, job jobs.Job) error {
		var args jobs.DeactivateUserArgs
		if err := job.Decode(&args); err != nil {
			return err
		}
		return s.Deactivate(ctx, args.UserID)
	})
	w.Register(jobs.DeleteDeactivatedAccounts, func(ctx context.Context, job jobs.Job) error {
		_, err := s.PurgeExpired(ctx)
		return err
	})
	w.Register(jobs.SendPasswordResetEmail, func(ctx context.Context, job jobs.Job) error {
		var args jobs.PasswordResetEmailArgs
		if err := job.Decode(&args); err != nil {
			return err
		}
		return s.SendPasswordResetEmail(ctx, args)
	})
}
