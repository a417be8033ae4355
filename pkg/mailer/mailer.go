package mailer

import (
	"context"
	"fmt"
	"langquiz_backend/internal/config"
	"langquiz_backend/pkg/logger"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Mailer 向单个收件人发送纯文本邮件
type Mailer interface {
	Send(ctx context.Context, subject, body, recipient string) error
}

const defaultTimeout = 15 * time.Second

// New 返回 SMTP 发送器；未配置 SMTP 主机时返回只写日志的 LogMailer
func New(cfg *config.MailConfig) Mailer {
	if cfg.Host == "" {
		logger.Log.Warn("SMTP host not configured, mail will only be logged")
		return LogMailer{}
	}
	return &SMTPMailer{Cfg: *cfg}
}

type SMTPMailer struct {
	Cfg config.MailConfig
}

func (m *SMTPMailer) timeout() time.Duration {
	if m.Cfg.Timeout > 0 {
		return m.Cfg.Timeout
	}
	return defaultTimeout
}

// NewMessage 构建待发送的邮件，收件人地址无效时返回错误
func (m *SMTPMailer) NewMessage(subject, body, recipient string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.Cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender email %q: %w", m.Cfg.From, err)
	}
	if err := msg.To(recipient); err != nil {
		return nil, fmt.Errorf("invalid recipient email %q: %w", recipient, err)
	}
	msg.Subject(subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (m *SMTPMailer) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(m.Cfg.Port),
		mail.WithTimeout(m.timeout()),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.Cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.Cfg.Username),
			mail.WithPassword(m.Cfg.Password),
		)
	}
	return mail.NewClient(m.Cfg.Host, opts...)
}

func (m *SMTPMailer) Send(ctx context.Context, subject, body, recipient string) error {
	msg, err := m.NewMessage(subject, body, recipient)
	if err != nil {
		return err
	}
	c, err := m.client()
	if err != nil {
		return fmt.Errorf("create mail client: %w", err)
	}

	// 发送受 ctx 与超时共同约束
	ctx, cancel := context.WithTimeout(ctx, m.timeout())
	defer cancel()
	if err := c.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", recipient, err)
	}

	logger.Log.Info("Email sent", zap.String("to", recipient), zap.String("subject", subject))
	return nil
}

// LogMailer 只把邮件写入日志
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, subject, body, recipient string) error {
	logger.Log.Info("Email (not sent)",
		zap.String("to", recipient),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
