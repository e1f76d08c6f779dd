package service

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"fellowship/internal/config"
)

// emailSender delivers one rendered message
type emailSender interface {
	send(ctx context.Context, toEmail, toName, subject, htmlBody, textBody string) error
}

// EmailService renders and sends account emails through SES or SendGrid
type EmailService struct {
	sender     emailSender
	appName    string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService picks the provider named by EMAIL_PROVIDER. Without a from
// address the service is created disabled and every send is skipped.
func NewEmailService(cfg *config.Config) (*EmailService, error) {
	s := &EmailService{appName: cfg.AppName, appBaseURL: cfg.AppBaseURL, debug: cfg.Debug}

	if cfg.EmailFromEmail == "" {
		log.Println("Email service disabled: EMAIL_FROM not configured")
		return s, nil
	}

	if s.debug {
		log.Printf("[DEBUG] Initializing email service: provider=%s from=%s", cfg.EmailProvider, cfg.EmailFromEmail)
	}

	switch strings.ToLower(cfg.EmailProvider) {
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("SENDGRID_API_KEY is required for the sendgrid email provider")
		}
		s.sender = &sendGridSender{
			client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
			from:   mail.NewEmail(cfg.EmailFromName, cfg.EmailFromEmail),
		}
	case "ses", "":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(), awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		from := cfg.EmailFromEmail
		if cfg.EmailFromName != "" {
			from = fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFromEmail)
		}
		s.sender = &sesSender{client: sesv2.NewFromConfig(awsCfg), from: from}
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.EmailProvider)
	}

	s.enabled = true
	log.Printf("Email service enabled: provider=%s from=%s", cfg.EmailProvider, cfg.EmailFromEmail)
	return s, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// emailContent is the body of a templated email
type emailContent struct {
	heading    string
	paragraphs []string
	buttonText string
	buttonURL  string
	note       string
}

func (s *EmailService) render(c emailContent) (string, string) {
	var h, t strings.Builder

	h.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8"></head>`)
	h.WriteString(`<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">`)
	h.WriteString(`<div style="max-width: 600px; margin: 0 auto; padding: 20px;">`)
	fmt.Fprintf(&h, `<div style="background-color: #6b4fbb; color: white; padding: 20px; text-align: center;"><h1>%s</h1></div>`, html.EscapeString(c.heading))
	h.WriteString(`<div style="background-color: #f9f9f9; padding: 30px;">`)
	for _, p := range c.paragraphs {
		fmt.Fprintf(&h, "<p>%s</p>", html.EscapeString(p))
		t.WriteString(p + "\n\n")
	}
	if c.buttonURL != "" {
		fmt.Fprintf(&h, `<p style="text-align: center;"><a href="%s" style="display: inline-block; padding: 12px 30px; background-color: #6b4fbb; color: white; text-decoration: none;">%s</a></p>`,
			html.EscapeString(c.buttonURL), html.EscapeString(c.buttonText))
		fmt.Fprintf(&h, `<p style="word-break: break-all; font-size: 12px; color: #666;">%s</p>`, html.EscapeString(c.buttonURL))
		fmt.Fprintf(&t, "%s: %s\n\n", c.buttonText, c.buttonURL)
	}
	if c.note != "" {
		fmt.Fprintf(&h, "<p><strong>%s</strong></p>", html.EscapeString(c.note))
		t.WriteString(c.note + "\n\n")
	}
	footer := fmt.Sprintf("This is an automated email from %s. Please do not reply.", s.appName)
	fmt.Fprintf(&h, `</div><div style="text-align: center; margin-top: 20px; font-size: 12px; color: #666;"><p>%s</p></div></div></body></html>`, html.EscapeString(footer))
	t.WriteString("---\n" + footer + "\n")

	return h.String(), t.String()
}

// SendPasswordResetEmail sends a password reset email with a reset link
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string) error {
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", s.appBaseURL, resetToken)
	if s.debug {
		log.Printf("[DEBUG] Reset link generated: %s", resetLink)
	}
	htmlBody, textBody := s.render(emailContent{
		heading: "Password Reset Request",
		paragraphs: []string{
			fmt.Sprintf("Hi %s,", toName),
			fmt.Sprintf("We received a request to reset the password for your %s account.", s.appName),
		},
		buttonText: "Reset Password",
		buttonURL:  resetLink,
		note:       "This link will expire in 1 hour. If you didn't request a password reset, you can safely ignore this email.",
	})
	return s.sendEmail(ctx, toEmail, toName, fmt.Sprintf("Reset your %s password", s.appName), htmlBody, textBody)
}

// SendWelcomeEmail sends a welcome email to new members
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	htmlBody, textBody := s.render(emailContent{
		heading: fmt.Sprintf("Welcome to %s!", s.appName),
		paragraphs: []string{
			fmt.Sprintf("Hi %s,", toName),
			"Thank you for joining our church family online. You can now save sermons and keep notes, share prayer requests, join a small group and connect with other members.",
		},
		buttonText: "Get Started",
		buttonURL:  s.appBaseURL,
	})
	return s.sendEmail(ctx, toEmail, toName, fmt.Sprintf("Welcome to %s!", s.appName), htmlBody, textBody)
}

// SendConnectConfirmation thanks a visitor for submitting a connect card
func (s *EmailService) SendConnectConfirmation(ctx context.Context, toEmail, toName string) error {
	htmlBody, textBody := s.render(emailContent{
		heading: "Thank you for connecting",
		paragraphs: []string{
			fmt.Sprintf("Hi %s,", toName),
			"We received your connect card and someone from our team will be in touch soon.",
		},
	})
	return s.sendEmail(ctx, toEmail, toName, "We received your connect card", htmlBody, textBody)
}

func (s *EmailService) sendEmail(ctx context.Context, toEmail, toName, subject, htmlBody, textBody string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): %q to %s", subject, toEmail)
		return nil
	}
	if s.debug {
		log.Printf("[DEBUG] Sending email: subject=%s, to=%s, html=%d bytes, text=%d bytes",
			subject, toEmail, len(htmlBody), len(textBody))
	}

	if err := s.sender.send(ctx, toEmail, toName, subject, htmlBody, textBody); err != nil {
		if s.debug {
			log.Printf("[DEBUG] Email send failed: %v", err)
		}
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}

type sesSender struct {
	client *sesv2.Client
	from   string
}

func (s *sesSender) send(ctx context.Context, toEmail, toName, subject, htmlBody, textBody string) error {
	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	return err
}

type sendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
}

func (s *sendGridSender) send(ctx context.Context, toEmail, toName, subject, htmlBody, textBody string) error {
	message := mail.NewSingleEmail(s.from, subject, mail.NewEmail(toName, toEmail), textBody, htmlBody)
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
