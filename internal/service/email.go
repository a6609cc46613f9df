package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/resend/resend-go/v2"
)

// queueSize bounds the in-process mail queue. Confirming a match never
// blocks on delivery; when the queue is full the notification is dropped
// and logged.
const queueSize = 64

type EmailService struct {
	client    *resend.Client
	fromEmail string
	appName   string
	isDev     bool

	queue chan MatchNotification
	wg    sync.WaitGroup
}

func NewEmailService(apiKey, fromEmail, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	s := &EmailService{
		client:    client,
		fromEmail: fromEmail,
		appName:   appName,
		isDev:     isDev,
		queue:     make(chan MatchNotification, queueSize),
	}

	s.wg.Add(1)
	go s.deliverLoop()

	return s
}

// QueueMatchFound enqueues the lost-has-found email to the finder.
// Fire-and-forget: delivery failures are logged, never surfaced to the
// confirming user.
func (s *EmailService) QueueMatchFound(n MatchNotification) {
	select {
	case s.queue <- n:
	default:
		slog.Error("mail queue full, dropping notification", "to", n.FinderEmail)
	}
}

// Close drains the queue and stops the delivery worker.
func (s *EmailService) Close() {
	close(s.queue)
	s.wg.Wait()
}

func (s *EmailService) deliverLoop() {
	defer s.wg.Done()
	for n := range s.queue {
		s.send(n)
	}
}

func (s *EmailService) send(n MatchNotification) {
	subject, html := matchFoundEmailTemplate(n, s.appName)

	if s.isDev {
		slog.Info("email sent (dev mode)", "type", "match_found", "to", n.FinderEmail, "subject", subject)
		return
	}

	if s.client == nil {
		slog.Error("email service not configured (missing RESEND_API_KEY)", "to", n.FinderEmail)
		return
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{n.FinderEmail},
		Subject: subject,
		Html:    html,
	}

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err != nil {
		slog.Error("failed to send email", "type", "match_found", "to", n.FinderEmail, "error", err)
		return
	}
	slog.Info("email sent", "type", "match_found", "to", n.FinderEmail)
}
