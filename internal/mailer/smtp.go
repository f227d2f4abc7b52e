package mailer

import (
	"bytes"
	"fmt"
	"net/http"
	"text/template"
	"time"

	gomail "gopkg.in/mail.v2"
)

type SMTPMailer struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
}

func NewSMTP(host string, port int, username, password, fromEmail string) *SMTPMailer {
	return &SMTPMailer{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromEmail: fromEmail,
	}
}

// Send renders the named embedded template and delivers it, retrying
// transient failures up to maxRetries with a short backoff.
func (m *SMTPMailer) Send(templateFile, username, email string, data any) (int, error) {
	tmpl, err := template.ParseFS(FS, "templates/"+templateFile)
	if err != nil {
		return -1, fmt.Errorf("parse template %s: %w", templateFile, err)
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return -1, fmt.Errorf("render subject: %w", err)
	}

	body := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(body, "body", data); err != nil {
		return -1, fmt.Errorf("render body: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", fmt.Sprintf("%s <%s>", FromName, m.fromEmail))
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/html", body.String())

	dialer := gomail.NewDialer(m.host, m.port, m.username, m.password)

	var sendErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if sendErr = dialer.DialAndSend(msg); sendErr == nil {
			return http.StatusOK, nil
		}
		time.Sleep(time.Second * time.Duration(attempt))
	}

	return -1, fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, sendErr)
}
