// Package email sends templated notification mail over SMTP.
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/Marga-Ghale/ora-projects-backend/pkg/logger"
)

// Config holds email configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	UseTLS   bool
}

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
}

// Transport delivers a fully built message.
type Transport func(cfg *Config, recipients []string, msg []byte) error

// Service renders templates and hands messages to the transport.
type Service struct {
	config    *Config
	templates map[string]*template.Template
	transport Transport
}

func NewService(config *Config) *Service {
	return NewServiceWithTransport(config, smtpTransport)
}

func NewServiceWithTransport(config *Config, transport Transport) *Service {
	s := &Service{
		config:    config,
		templates: make(map[string]*template.Template),
		transport: transport,
	}
	s.loadTemplates()
	return s
}

// Enabled reports whether an SMTP host is configured.
func (s *Service) Enabled() bool {
	return s.config.Host != ""
}

const layout = `<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #6366f1; color: white; padding: 24px; border-radius: 8px 8px 0 0; }
        .content { background: #f9fafb; padding: 24px; border-radius: 0 0 8px 8px; }
        .btn { display: inline-block; background: #6366f1; color: white; padding: 12px 20px; text-decoration: none; border-radius: 6px; margin-top: 16px; }
        .footer { margin-top: 24px; font-size: 12px; color: #6b7280; text-align: center; }
    </style>
</head>
<body>
<div class="container">
    <div class="header"><h2>{{template "title" .}}</h2></div>
    <div class="content">{{template "body" .}}</div>
    <div class="footer"><p>This email was sent from ORA Projects</p></div>
</div>
</body>
</html>`

var bodies = map[string]string{
	"project_invitation": `{{define "title"}}You've been added to {{.ProjectName}}{{end}}
{{define "body"}}<p><strong>{{.InvitedBy}}</strong> added you to <strong>{{.ProjectName}}</strong> as {{.RoleName}}.</p>
<a class="btn" href="{{.ProjectURL}}">Open project</a>{{end}}`,

	"task_assigned": `{{define "title"}}Task assigned: {{.TaskTitle}}{{end}}
{{define "body"}}<p>Hi {{.AssigneeName}}, {{.AssignerName}} assigned you a task.</p>
<p><strong>{{.TaskTitle}}</strong>{{if .Priority}} ({{.Priority}}){{end}}</p>
{{if .DueDate}}<p>Due {{.DueDate}}</p>{{end}}
<a class="btn" href="{{.TaskURL}}">View task</a>{{end}}`,

	"due_date_reminder": `{{define "title"}}Tasks due soon{{end}}
{{define "body"}}<p>Hi {{.UserName}}, these tasks are due within a day:</p>
<ul>{{range .Tasks}}<li><strong>{{.Title}}</strong> due {{.DueDate}}</li>{{end}}</ul>
<a class="btn" href="{{.DashboardURL}}">Open dashboard</a>{{end}}`,

	"mention": `{{define "title"}}{{.MentionedBy}} mentioned you{{end}}
{{define "body"}}<p>Hi {{.UserName}}, {{.MentionedBy}} mentioned you on <strong>{{.TaskTitle}}</strong>:</p>
<blockquote>{{.CommentContent}}</blockquote>
<a class="btn" href="{{.TaskURL}}">View comment</a>{{end}}`,
}

func (s *Service) loadTemplates() {
	for name, body := range bodies {
		s.templates[name] = template.Must(template.Must(template.New(name).Parse(layout)).Parse(body))
	}
}

// Send builds the MIME message and delivers it. Without a host it is a no-op.
func (s *Service) Send(email *Email) error {
	if !s.Enabled() {
		logger.Debug().Str("subject", email.Subject).Msg("[Email] not configured, skipping send")
		return nil
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", s.config.FromName, s.config.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(email.To, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", email.Subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(email.HTMLBody)

	return s.transport(s.config, email.To, msg.Bytes())
}

// SendWithTemplate sends an email using a named template
func (s *Service) SendWithTemplate(to []string, subject, templateName string, data interface{}) error {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return fmt.Errorf("template not found: %s", templateName)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	return s.Send(&Email{To: to, Subject: subject, HTMLBody: body.String()})
}

func smtpTransport(cfg *Config, recipients []string, msg []byte) error {
	auth := smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	if !cfg.UseTLS {
		return smtp.SendMail(addr, auth, cfg.From, recipients, msg)
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.Host})
	if err != nil {
		return fmt.Errorf("TLS dial error: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		return fmt.Errorf("SMTP client error: %w", err)
	}
	defer client.Close()

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("auth error: %w", err)
	}
	if err = client.Mail(cfg.From); err != nil {
		return fmt.Errorf("mail error: %w", err)
	}
	for _, rcpt := range recipients {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt error: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data error: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("close error: %w", err)
	}
	return client.Quit()
}

// ============================================
// Convenience Methods
// ============================================

type ProjectInvitationData struct {
	ProjectName string
	InvitedBy   string
	RoleName    string
	ProjectURL  string
}

func (s *Service) SendProjectInvitation(to string, data ProjectInvitationData) error {
	if data.InvitedBy == "" {
		data.InvitedBy = "Someone"
	}
	return s.SendWithTemplate([]string{to}, fmt.Sprintf("[ORA] You've been added to %s", data.ProjectName), "project_invitation", data)
}

type TaskAssignedData struct {
	AssigneeName string
	AssignerName string
	TaskTitle    string
	Priority     string
	DueDate      string
	TaskURL      string
}

func (s *Service) SendTaskAssigned(to string, data TaskAssignedData) error {
	return s.SendWithTemplate([]string{to}, fmt.Sprintf("[ORA] Task assigned: %s", data.TaskTitle), "task_assigned", data)
}

type DueDateReminderTask struct {
	Title   string
	DueDate string
}

type DueDateReminderData struct {
	UserName     string
	Tasks        []DueDateReminderTask
	DashboardURL string
}

func (s *Service) SendDueDateReminder(to string, data DueDateReminderData) error {
	return s.SendWithTemplate([]string{to}, "[ORA] Task Due Date Reminder", "due_date_reminder", data)
}

type MentionData struct {
	UserName       string
	MentionedBy    string
	TaskTitle      string
	CommentContent string
	TaskURL        string
}

func (s *Service) SendMention(to string, data MentionData) error {
	return s.SendWithTemplate([]string{to}, fmt.Sprintf("[ORA] %s mentioned you", data.MentionedBy), "mention", data)
}

// ============================================
// Async Email Queue
// ============================================

// Queue sends mail from a fixed worker pool with a bounded retry.
type Queue struct {
	service *Service
	queue   chan *queuedEmail
	done    chan struct{}
	wg      sync.WaitGroup
	backoff time.Duration
}

type queuedEmail struct {
	send    func() error
	retries int
}

const maxRetries = 3

func NewQueue(service *Service, workers int) *Queue {
	q := &Queue{
		service: service,
		queue:   make(chan *queuedEmail, 1000),
		done:    make(chan struct{}),
		backoff: 2 * time.Second,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case email := <-q.queue:
			q.process(email)
		case <-q.done:
			return
		}
	}
}

func (q *Queue) process(email *queuedEmail) {
	for {
		err := email.send()
		if err == nil {
			return
		}
		if email.retries >= maxRetries {
			logger.Error().Err(err).Int("retries", email.retries).Msg("[Email] giving up")
			return
		}
		email.retries++
		logger.Warn().Err(err).Int("retry", email.retries).Msg("[Email] send failed")

		select {
		case <-time.After(q.backoff * time.Duration(email.retries)):
		case <-q.done:
			return
		}
	}
}

// Enqueue schedules send. It drops the message when the queue is full.
func (q *Queue) Enqueue(send func(s *Service) error) {
	select {
	case q.queue <- &queuedEmail{send: func() error { return send(q.service) }}:
	default:
		logger.Warn().Msg("[Email] queue full, dropping message")
	}
}

// Stop stops the workers and waits for them to exit.
func (q *Queue) Stop() {
	close(q.done)
	q.wg.Wait()
}
