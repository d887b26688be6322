package service

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"dvente/config"

	"gopkg.in/gomail.v2"
)

// CodePurpose selects the subject and wording of a code email.
type CodePurpose int

const (
	PurposeRegistration CodePurpose = iota
	PurposeCheckpoint
	PurposeEmailChange
)

// CodeMail is everything a mailer needs to deliver one verification code.
type CodeMail struct {
	To        string
	Name      string
	Code      string
	ExpiresIn time.Duration
	Purpose   CodePurpose
}

// Mailer delivers verification codes by email.
type Mailer interface {
	SendCode(mail CodeMail) error
}

type EmailService struct {
	dialer  *gomail.Dialer
	from    string
	sender  string
	appName string
}

func NewEmailService(cfg config.SMTPConfig, appName string) *EmailService {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass)

	from := cfg.User
	if from == "" {
		from = "no-reply@dvente.local"
	}

	return &EmailService{
		dialer:  dialer,
		from:    from,
		sender:  cfg.SenderName,
		appName: appName,
	}
}

var codeMailTemplate = template.Must(template.New("code").Parse(`
<div style="font-family: Arial, sans-serif; padding: 20px;">
	<h2>Hello{{if .Name}} {{.Name}}{{end}}!</h2>
	<p>{{.Intro}}</p>
	<h1 style="color: #2d89ef; letter-spacing: 5px;">{{.Code}}</h1>
	<p>This code will expire in {{.Minutes}} minutes.</p>
	<p>If you did not request this, please ignore this email.</p>
	<p>{{.AppName}}</p>
</div>
`))

func (s *EmailService) subjectAndIntro(p CodePurpose) (string, string) {
	switch p {
	case PurposeCheckpoint:
		return "Attempt to change your e-mail", "Someone asked to change the e-mail address of your " + s.appName + " account. Use this code to confirm it was you:"
	case PurposeEmailChange:
		return "Verification code - " + s.appName, "Use this code to confirm your new e-mail address:"
	default:
		return "Your verification code - " + s.appName, "Use this code to verify your e-mail address:"
	}
}

// renderCodeMail builds the subject and HTML body of a code email.
func (s *EmailService) renderCodeMail(mail CodeMail) (string, string, error) {
	subject, intro := s.subjectAndIntro(mail.Purpose)

	minutes := int(mail.ExpiresIn.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	var body bytes.Buffer
	err := codeMailTemplate.Execute(&body, map[string]interface{}{
		"Name":    mail.Name,
		"Intro":   intro,
		"Code":    mail.Code,
		"Minutes": minutes,
		"AppName": s.appName,
	})
	if err != nil {
		return "", "", fmt.Errorf("render code mail: %w", err)
	}
	return subject, body.String(), nil
}

// SendCode mails the code over SMTP.
func (s *EmailService) SendCode(mail CodeMail) error {
	subject, body, err := s.renderCodeMail(mail)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.sender)
	m.SetHeader("To", mail.To)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail to %s: %w", mail.To, err)
	}
	return nil
}
