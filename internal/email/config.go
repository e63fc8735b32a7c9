package email

import (
	"fmt"
	"time"
)

// SMTPConfig содержит конфигурацию SMTP сервера
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string

	// Повторы при временных сбоях SMTP
	MaxRetries  uint64
	BackoffBase time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *SMTPConfig {
	return &SMTPConfig{
		Host:        "localhost",
		Port:        587,
		FromName:    "Natours",
		MaxRetries:  2,
		BackoffBase: 500 * time.Millisecond,
	}
}

// From - заголовок отправителя "Name <email>"
func (c *SMTPConfig) From() string {
	if c.FromName == "" {
		return c.FromEmail
	}
	return fmt.Sprintf("%s <%s>", c.FromName, c.FromEmail)
}
