// Package mailer sends reminder e-mails over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/config"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
)

type SMTPMailer struct {
	cfg    config.SMTP
	logger logrus.FieldLogger

	// send is e.Send unless a test replaces it
	send func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewSMTPMailer(cfg config.SMTP, logger logrus.FieldLogger) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

func (s *SMTPMailer) Send(ctx context.Context, m ports.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e, err := s.build(m)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := s.send(e, addr, auth); err != nil {
		s.logger.WithField("to", m.To).WithError(err).Error("[MAIL][ERR]")
		return fmt.Errorf("send mail: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"to": m.To, "subject": m.Subject}).Info("[MAIL][SENT]")
	return nil
}

func (s *SMTPMailer) build(m ports.Message) (*email.Email, error) {
	if len(m.To) == 0 {
		return nil, errors.New("mail without recipients")
	}
	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = m.To
	e.Subject = m.Subject
	e.Text = []byte(m.Text)
	if m.HTML != "" {
		e.HTML = []byte(m.HTML)
	}
	return e, nil
}

var _ ports.Mailer = (*SMTPMailer)(nil)
