package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KATHANJAIN1311/creative-era-event/internal/registrations"
	"github.com/KATHANJAIN1311/creative-era-event/pkg/mailer"
	"github.com/KATHANJAIN1311/creative-era-event/pkg/qr"
	"github.com/KATHANJAIN1311/creative-era-event/pkg/queue"
	"github.com/KATHANJAIN1311/creative-era-event/pkg/storage"
)

// Processor drains the worker queues: confirmation emails and QR badge
// uploads. Both are best effort followups to a registration; the registration
// itself is already durable before any job runs.
type Processor struct {
	regRepo *registrations.Repository
	mail    *mailer.Mailer
	s3      *storage.S3
	queue   *queue.Queue
	logger  *zap.Logger
}

// NewProcessor creates a worker processor. s3 may be nil (QR upload jobs are
// then skipped).
func NewProcessor(regRepo *registrations.Repository, mail *mailer.Mailer, s3 *storage.S3, q *queue.Queue, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{regRepo: regRepo, mail: mail, s3: s3, queue: q, logger: logger}
}

// Process executes one job.
func (p *Processor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeEmail:
		return p.processEmail(ctx, job)
	case queue.JobTypeQRUpload:
		return p.processQRUpload(ctx, job)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (p *Processor) processEmail(_ context.Context, job *queue.Job) error {
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if p.mail == nil || !p.mail.Enabled() {
		p.logger.Info("smtp not configured, skipping confirmation email",
			zap.String("registration_id", payload.RegistrationID))
		return nil
	}

	qrURL, err := qr.DataURL(payload.Credential)
	if err != nil {
		return fmt.Errorf("render qr: %w", err)
	}
	subject := fmt.Sprintf("Registration Successful - ID: %s", payload.RegistrationID)
	body := confirmationBody(payload, qrURL)
	if err := p.mail.Send(payload.RecipientEmail, subject, body); err != nil {
		return err
	}
	p.logger.Info("confirmation email sent",
		zap.String("registration_id", payload.RegistrationID),
		zap.String("recipient", payload.RecipientEmail))
	return nil
}

func (p *Processor) processQRUpload(ctx context.Context, job *queue.Job) error {
	var payload queue.QRUploadPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if p.s3 == nil {
		p.logger.Info("s3 not configured, skipping qr upload",
			zap.String("registration_id", payload.RegistrationID))
		return nil
	}

	reg, err := p.regRepo.GetByID(ctx, payload.RegistrationID)
	if err != nil {
		return fmt.Errorf("load registration: %w", err)
	}
	if reg == nil {
		return fmt.Errorf("registration not found: %s", payload.RegistrationID)
	}
	if reg.QRObjectKey != "" {
		p.logger.Info("qr badge already uploaded", zap.String("registration_id", reg.RegistrationID))
		return nil
	}

	png, err := qr.PNG(payload.Credential)
	if err != nil {
		return fmt.Errorf("render qr: %w", err)
	}
	key, err := p.s3.UploadQR(ctx, payload.EventID, payload.RegistrationID, png)
	if err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}
	if err := p.regRepo.SetQRObjectKey(ctx, payload.RegistrationID, key); err != nil {
		return fmt.Errorf("update registration: %w", err)
	}

	p.logger.Info("qr badge uploaded",
		zap.String("registration_id", payload.RegistrationID), zap.String("s3_key", key))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("worker stopping")
			return
		default:
		}

		job, sourceQueue, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				p.logger.Info("worker stopping")
				return
			}
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
			if reErr := p.queue.Retry(ctx, job, sourceQueue); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
		}
	}
}

func confirmationBody(p queue.EmailPayload, qrDataURL string) string {
	return fmt.Sprintf(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Hello %s,</h2>
  <p>Thank you for registering for %s. Below are your registration details:</p>
  <div style="background-color: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0;">
    <p><strong>Registration ID:</strong> %s</p>
    <p><strong>Event:</strong> %s</p>
  </div>
  <p><strong>Your QR Code:</strong></p>
  <div style="text-align: center; margin: 20px 0;">
    <img src="%s" alt="QR Code" style="border: 1px solid #ddd; padding: 10px;" />
  </div>
  <p style="color: #666; font-size: 14px;">Save this email for event check-in. Show the QR code at the venue for quick entry.</p>
</div>`,
		p.RecipientName, p.EventName, p.RegistrationID, p.EventName, qrDataURL)
}
