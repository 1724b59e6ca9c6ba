package services

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Mailer sends transactional email.
type Mailer interface {
	SendPasswordReset(to, name, resetLink string) error
}

type smtpMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPMailer(host string, port int, username, password, from string) Mailer {
	return &smtpMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (m *smtpMailer) SendPasswordReset(to, name, resetLink string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "StockMaster Password Recovery")
	msg.SetBody("text/html", fmt.Sprintf(
		`<p>Hello %s,</p>
<p>A password reset was requested for your StockMaster account. Click the
link below to choose a new password. The link expires in 30 minutes.</p>
<p><a href="%s">Reset your password</a></p>
<p>If you did not request this, you can ignore this email.</p>`,
		name, resetLink,
	))

	d := gomail.NewDialer(m.host, m.port, m.username, m.password)
	return d.DialAndSend(msg)
}
