package mailer

import (
	"fmt"
	"net/smtp"
	gosync "sync"
	"time"

	"songforge/internal/logger"
)

// Mailer sends transactional email.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTP sends through a plain SMTP relay.
type SMTP struct {
	Host     string
	Port     int
	From     string
	Username string
	Password string
	logger   *logger.Logger
}

func NewSMTP(host string, port int, from, username, password string, log *logger.Logger) *SMTP {
	return &SMTP{Host: host, Port: port, From: from, Username: username, Password: password, logger: log}
}

func (m *SMTP) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.Host, m.Port)
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s\r\n",
		m.From, to, subject, body,
	))

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}

	if err := smtp.SendMail(addr, auth, m.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}

	m.logger.LogMail("SEND", to, fmt.Sprintf("sent %q", subject))
	return nil
}

// Message is a captured outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
	SentAt  time.Time

	// Simulated marks mail that never left the process.
	Simulated bool
}

// Simulator records messages instead of sending them. Used when the email
// config has Simulate set, and in tests.
type Simulator struct {
	logger *logger.Logger

	mu       gosync.Mutex
	messages []Message
}

func NewSimulator(log *logger.Logger) *Simulator {
	return &Simulator{logger: log}
}

func (s *Simulator) Send(to, subject, body string) error {
	s.mu.Lock()
	s.messages = append(s.messages, Message{
		To:        to,
		Subject:   subject,
		Body:      body,
		SentAt:    time.Now().UTC(),
		Simulated: true,
	})
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.LogMail("SIMULATE", to, fmt.Sprintf("would send %q", subject))
	}
	return nil
}

// Messages returns the captured mail.
func (s *Simulator) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}
