package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mataleao/backend/pkg/mailer"
	"github.com/mataleao/backend/pkg/queue"
)

// EmailProcessor processes verification email jobs: dequeue, render, send.
type EmailProcessor struct {
	mail   mailer.Mailer
	queue  *queue.Queue
	logger *zap.Logger
}

// NewEmailProcessor creates an email job processor.
func NewEmailProcessor(mail mailer.Mailer, q *queue.Queue, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{mail: mail, queue: q, logger: logger}
}

// Process executes one verification email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeVerificationEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.VerificationEmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	subject := "Activate your account"
	text := fmt.Sprintf(
		"Hi %s,\n\nYour activation code is %s. It expires at %s.\n\nIf you did not create this account, ignore this message.",
		payload.RecipientName, payload.Code, payload.ExpiresAt.Format(time.RFC1123))
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your activation code is <strong>%s</strong>. It expires at %s.</p><p>If you did not create this account, ignore this message.</p>",
		payload.RecipientName, payload.Code, payload.ExpiresAt.Format(time.RFC1123))

	if err := p.mail.Send(ctx, payload.RecipientName, payload.RecipientEmail, subject, text, html); err != nil {
		return err
	}
	p.logger.Info("verification email sent",
		zap.String("job_id", job.ID), zap.String("user_id", payload.UserID.String()))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
		}
	}
}
