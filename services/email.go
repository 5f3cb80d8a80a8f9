package services

import (
	"bytes"
	"fmt"
	"html/template"
	"mime"
	"net/smtp"
	"os"
	"strings"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/wheelchair-racer/wr_api/shared"
)

type EmailService struct {
	context.DefaultService

	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	fromEmail    string
	fromName     string
	baseURL      string

	templates map[string]*template.Template
	send      func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

const EMAIL_SVC = "email_svc"

// Message is a single outgoing HTML email.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	HTML    string
}

func (svc EmailService) Id() string {
	return EMAIL_SVC
}

func (svc *EmailService) Configure(ctx *context.Context) error {
	svc.smtpHost = os.Getenv("SMTP_HOST")
	svc.smtpPort = os.Getenv("SMTP_PORT")
	svc.smtpUsername = os.Getenv("SMTP_USERNAME")
	svc.smtpPassword = os.Getenv("SMTP_PASSWORD")
	svc.fromEmail = os.Getenv("FROM_EMAIL")
	svc.fromName = os.Getenv("FROM_NAME")
	svc.baseURL = os.Getenv("BASE_URL")

	// Set defaults if not provided
	if svc.smtpPort == "" {
		svc.smtpPort = "587"
	}
	if svc.fromEmail == "" {
		svc.fromEmail = "noreply@wheelchairracer.com"
	}
	if svc.fromName == "" {
		svc.fromName = shared.AppName
	}
	if svc.baseURL == "" {
		svc.baseURL = "http://localhost:5173"
	}

	svc.send = smtp.SendMail

	return svc.DefaultService.Configure(ctx)
}

func (svc *EmailService) Start() error {
	if err := svc.loadTemplates(); err != nil {
		return err
	}
	if svc.smtpHost == "" {
		log.Warn("SMTP not configured, emails will be logged and dropped")
	}
	return nil
}

// Configured reports whether an SMTP relay is set.
func (svc *EmailService) Configured() bool {
	return svc.smtpHost != ""
}

const passwordResetEmailHTML = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Reset Your Password - {{.AppName}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #2563EB; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .code { font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center; margin: 20px 0; }
        .footer { padding: 20px; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Password Reset Request</h1>
        </div>
        <div class="content">
            <h2>Hi {{.Username}},</h2>
            <p>Use the code below to reset your {{.AppName}} password:</p>
            <div class="code">{{.Code}}</div>
            <p>You can enter it at <a href="{{.ResetURL}}">{{.ResetURL}}</a>. The code expires in 1 hour.</p>
            <p>If you didn't request a password reset, you can safely ignore this email.</p>
        </div>
        <div class="footer">
            <p>&copy; {{.AppName}}</p>
        </div>
    </div>
</body>
</html>
`

const contactEmailHTML = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .field { margin-bottom: 12px; }
        .label { font-weight: bold; }
        .message { white-space: pre-wrap; background-color: #f9f9f9; padding: 12px; }
        .footer { padding-top: 20px; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <h2>New Contact Form Submission</h2>
        <div class="field"><span class="label">Name:</span> {{.Name}}</div>
        <div class="field"><span class="label">Email:</span> <a href="mailto:{{.Email}}">{{.Email}}</a></div>
        <div class="field"><span class="label">Category:</span> {{.Category}}</div>
        <div class="field"><span class="label">Subject:</span> {{.Subject}}</div>
        <div class="field"><span class="label">Message:</span></div>
        <div class="message">{{.Message}}</div>
        <div class="footer">This message was sent via the {{.AppName}} contact form</div>
    </div>
</body>
</html>
`

type PasswordResetEmailData struct {
	AppName  string
	Username string
	Code     string
	ResetURL string
}

// ContactEmailData fields are already escaped for HTML, so they are
// rendered verbatim.
type ContactEmailData struct {
	AppName  string
	Name     template.HTML
	Email    string
	Category template.HTML
	Subject  template.HTML
	Message  template.HTML
}

func (svc *EmailService) loadTemplates() error {
	svc.templates = make(map[string]*template.Template)

	for name, body := range map[string]string{
		"password_reset": passwordResetEmailHTML,
		"contact":        contactEmailHTML,
	} {
		tmpl, err := template.New(name).Parse(body)
		if err != nil {
			return fmt.Errorf("failed to parse %s email template: %v", name, err)
		}
		svc.templates[name] = tmpl
	}

	return nil
}

func (svc *EmailService) SendPasswordResetCode(email, username, code string) error {
	data := PasswordResetEmailData{
		AppName:  shared.AppName,
		Username: username,
		Code:     code,
		ResetURL: svc.baseURL + "/reset-password",
	}

	body, err := svc.render("password_reset", data)
	if err != nil {
		return err
	}

	return svc.Send(Message{
		To:      email,
		Subject: "Reset Your Password - " + shared.AppName,
		HTML:    body,
	})
}

// SendContactMessage forwards a contact form submission. Replies go to the
// sender.
func (svc *EmailService) SendContactMessage(to, subject string, data ContactEmailData) error {
	data.AppName = shared.AppName

	body, err := svc.render("contact", data)
	if err != nil {
		return err
	}

	return svc.Send(Message{
		To:      to,
		ReplyTo: data.Email,
		Subject: subject,
		HTML:    body,
	})
}

func (svc *EmailService) render(templateName string, data interface{}) (string, error) {
	tmpl, exists := svc.templates[templateName]
	if !exists {
		return "", fmt.Errorf("template %s not found", templateName)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %v", err)
	}

	return body.String(), nil
}

// Send delivers msg over SMTP. Without an SMTP host the message is logged
// and dropped.
func (svc *EmailService) Send(msg Message) error {
	if svc.smtpHost == "" {
		log.WithFields(log.Fields{"to": msg.To, "subject": msg.Subject}).Warn("SMTP not configured, skipping email")
		return nil
	}

	var auth smtp.Auth
	if svc.smtpUsername != "" {
		auth = smtp.PlainAuth("", svc.smtpUsername, svc.smtpPassword, svc.smtpHost)
	}

	err := svc.send(svc.smtpHost+":"+svc.smtpPort, auth, svc.fromEmail, []string{msg.To}, svc.compose(msg))
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"to": msg.To, "subject": msg.Subject}).Error("Failed to send email")
		return fmt.Errorf("failed to send email: %v", err)
	}

	log.WithFields(log.Fields{"to": msg.To, "subject": msg.Subject}).Info("Email sent successfully")
	return nil
}

func (svc *EmailService) compose(msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", svc.fromName), svc.fromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.ReplyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}
