package engine

import (
	"context"
	"log"
	"time"

	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/diwanhq/murasalat/backend/internal/models"
)

// FanoutJob is a single failed per-recipient delivery parked for retry.
type FanoutJob struct {
	ID              string    `bson:"_id,omitempty"`
	RecipientUserID string    `bson:"recipient_user_id"`
	DocumentID      string    `bson:"document_id"`
	DepartmentID    string    `bson:"department_id"`
	Message         string    `bson:"message"`
	MessageAr       string    `bson:"message_ar"`
	Attempts        int       `bson:"attempts"`
	LastError       string    `bson:"last_error"`
	CreatedAt       time.Time `bson:"created_at"`
}

// RetryQueue parks per-recipient deliveries that failed their first insert.
// Fanout works without one; failures are then only logged.
type RetryQueue interface {
	Enqueue(ctx context.Context, job FanoutJob) error
	Pending(ctx context.Context, limit int) ([]FanoutJob, error)
	Remove(ctx context.Context, jobID string) error
	Reschedule(ctx context.Context, jobID string, lastError string) error
}

// PushSender forwards a stored notification to a push channel. Delivery is
// best-effort; the Notification row remains the hand-off point of record.
type PushSender interface {
	SendPush(ctx context.Context, token, title, body string) error
}

// Fanout turns one workflow event into one Notification row per recipient.
// Each insert is an independent operation: a failed recipient never rolls
// back rows already committed for the others.
type Fanout struct {
	db    *gorm.DB
	queue RetryQueue // optional
	push  PushSender // optional
}

func NewFanout(db *gorm.DB, queue RetryQueue, push PushSender) *Fanout {
	return &Fanout{db: db, queue: queue, push: push}
}

// Notify creates one notification per recipient and returns how many rows
// were created now. The actor is skipped unless includeActor is set.
// Failed inserts are parked in the retry queue instead of failing the call.
func (f *Fanout) Notify(ctx context.Context, recipients []models.User, documentID, departmentID, message, messageAr, actorID string, includeActor bool) int {
	created := 0
	for _, user := range recipients {
		if user.ID == actorID && !includeActor {
			continue
		}
		n := models.Notification{
			RecipientUserID: user.ID,
			DocumentID:      documentID,
			DepartmentID:    departmentID,
			Message:         message,
			MessageAr:       messageAr,
		}
		if err := f.db.WithContext(ctx).Create(&n).Error; err != nil {
			f.park(ctx, FanoutJob{
				RecipientUserID: user.ID,
				DocumentID:      documentID,
				DepartmentID:    departmentID,
				Message:         message,
				MessageAr:       messageAr,
				LastError:       err.Error(),
				CreatedAt:       time.Now(),
			})
			continue
		}
		created++
		if f.push != nil && user.FCMToken != "" {
			if err := f.push.SendPush(ctx, user.FCMToken, "New correspondence", message); err != nil {
				log.Printf("push delivery to user %s failed: %v", user.ID, err)
			}
		}
	}
	return created
}

func (f *Fanout) park(ctx context.Context, job FanoutJob) {
	if f.queue == nil {
		log.Printf("notification for user %s on document %s lost (no retry queue): %s",
			job.RecipientUserID, job.DocumentID, job.LastError)
		return
	}
	if err := f.queue.Enqueue(ctx, job); err != nil {
		log.Printf("failed to park notification for user %s: %v", job.RecipientUserID, err)
	}
}

// RunRetryWorker drains the retry queue until ctx is cancelled. Each job is
// retried with exponential backoff and removed once its row is in.
func (f *Fanout) RunRetryWorker(ctx context.Context, interval time.Duration) {
	if f.queue == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.drainOnce(ctx)
		}
	}
}

func (f *Fanout) drainOnce(ctx context.Context) {
	jobs, err := f.queue.Pending(ctx, 50)
	if err != nil {
		log.Printf("fanout retry queue read failed: %v", err)
		return
	}
	for _, job := range jobs {
		err := retry.Do(ctx, retry.WithMaxRetries(3, retry.NewExponential(100*time.Millisecond)), func(ctx context.Context) error {
			n := models.Notification{
				RecipientUserID: job.RecipientUserID,
				DocumentID:      job.DocumentID,
				DepartmentID:    job.DepartmentID,
				Message:         job.Message,
				MessageAr:       job.MessageAr,
			}
			if err := f.db.WithContext(ctx).Create(&n).Error; err != nil {
				return retry.RetryableError(err)
			}
			return nil
		})
		if err != nil {
			if rerr := f.queue.Reschedule(ctx, job.ID, err.Error()); rerr != nil {
				log.Printf("failed to reschedule fanout job %s: %v", job.ID, rerr)
			}
			continue
		}
		if err := f.queue.Remove(ctx, job.ID); err != nil {
			log.Printf("failed to remove fanout job %s: %v", job.ID, err)
		}
	}
}
