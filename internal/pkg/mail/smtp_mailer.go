package mail

import (
	"fmt"
	"log"
	"net/smtp"

	"github.com/CodeFuMaster/TrustLoops/internal/pkg/env"
)

// SendMail sends a multipart/alternative email (plain text + HTML) via SMTP
func SendMail(to string, subject string, htmlBody string, textBody string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	boundary := "trustloops-alt"

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary) +
			fmt.Sprintf("--%s\r\n", boundary) +
			"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
			textBody + "\r\n" +
			fmt.Sprintf("--%s\r\n", boundary) +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			htmlBody + "\r\n" +
			fmt.Sprintf("--%s--\r\n", boundary),
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}
