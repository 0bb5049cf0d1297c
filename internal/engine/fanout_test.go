package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diwanhq/murasalat/backend/internal/models"
)

// memoryQueue is an in-memory RetryQueue for tests.
type memoryQueue struct {
	jobs map[string]FanoutJob
	next int
}

func newMemoryQueue() *memoryQueue {
	return &memoryQueue{jobs: map[string]FanoutJob{}}
}

func (q *memoryQueue) Enqueue(_ context.Context, job FanoutJob) error {
	q.next++
	job.ID = fmt.Sprintf("job-%d", q.next)
	q.jobs[job.ID] = job
	return nil
}

func (q *memoryQueue) Pending(_ context.Context, limit int) ([]FanoutJob, error) {
	out := make([]FanoutJob, 0, len(q.jobs))
	for _, job := range q.jobs {
		if len(out) == limit {
			break
		}
		out = append(out, job)
	}
	return out, nil
}

func (q *memoryQueue) Remove(_ context.Context, jobID string) error {
	delete(q.jobs, jobID)
	return nil
}

func (q *memoryQueue) Reschedule(_ context.Context, jobID, lastError string) error {
	job := q.jobs[jobID]
	job.Attempts++
	job.LastError = lastError
	q.jobs[jobID] = job
	return nil
}

// pushRecorder captures push payloads.
type pushRecorder struct {
	tokens []string
}

func (p *pushRecorder) SendPush(_ context.Context, token, _, _ string) error {
	p.tokens = append(p.tokens, token)
	return nil
}

func TestFanout_SkipsActor(t *testing.T) {
	db := newTestDB(t)
	fanout := NewFanout(db, nil, nil)

	dept := createDepartment(t, db, "Records")
	actor := createUser(t, db, "Acting User", models.RoleStaff, &dept.ID)
	other := createUser(t, db, "Other User", models.RoleStaff, &dept.ID)
	category := createCategory(t, db, "fanout")
	doc := createDraftDocument(t, db, "DOC-2026-00001", category, actor)

	created := fanout.Notify(context.Background(), []models.User{*actor, *other},
		doc.ID, dept.ID, "hello", "مرحبا", actor.ID, false)
	assert.Equal(t, 1, created)

	var notifications []models.Notification
	require.NoError(t, db.Where("document_id = ?", doc.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, other.ID, notifications[0].RecipientUserID)
	assert.Equal(t, "hello", notifications[0].Message)
	assert.Equal(t, "مرحبا", notifications[0].MessageAr)
}

func TestFanout_IncludeActor(t *testing.T) {
	db := newTestDB(t)
	fanout := NewFanout(db, nil, nil)

	dept := createDepartment(t, db, "Records")
	actor := createUser(t, db, "Acting User", models.RoleStaff, &dept.ID)
	category := createCategory(t, db, "fanout")
	doc := createDraftDocument(t, db, "DOC-2026-00002", category, actor)

	created := fanout.Notify(context.Background(), []models.User{*actor},
		doc.ID, dept.ID, "self", "ذاتي", actor.ID, true)
	assert.Equal(t, 1, created)
}

func TestFanout_PushesToTokenHolders(t *testing.T) {
	db := newTestDB(t)
	recorder := &pushRecorder{}
	fanout := NewFanout(db, nil, recorder)

	dept := createDepartment(t, db, "Records")
	withToken := createUser(t, db, "Has Token", models.RoleStaff, &dept.ID)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", withToken.ID).Update("fcm_token", "token-abc").Error)
	withToken.FCMToken = "token-abc"
	withoutToken := createUser(t, db, "No Token", models.RoleStaff, &dept.ID)
	category := createCategory(t, db, "fanout")
	doc := createDraftDocument(t, db, "DOC-2026-00003", category, withToken)

	created := fanout.Notify(context.Background(), []models.User{*withToken, *withoutToken},
		doc.ID, dept.ID, "ping", "تنبيه", "someone-else", false)
	assert.Equal(t, 2, created)
	assert.Equal(t, []string{"token-abc"}, recorder.tokens)
}

// A failed insert for one recipient is parked in the retry queue and must not
// prevent delivery to the others; the retry worker later lands the parked row.
func TestFanout_ParksFailuresAndRecovers(t *testing.T) {
	db := newTestDB(t)
	queue := newMemoryQueue()
	fanout := NewFanout(db, queue, nil)

	dept := createDepartment(t, db, "Records")
	recipient := createUser(t, db, "Unlucky Recipient", models.RoleStaff, &dept.ID)
	category := createCategory(t, db, "fanout")
	doc := createDraftDocument(t, db, "DOC-2026-00004", category, recipient)

	// Simulate a storage outage for the notifications table only.
	require.NoError(t, db.Migrator().DropTable(&models.Notification{}))

	created := fanout.Notify(context.Background(), []models.User{*recipient},
		doc.ID, dept.ID, "delayed", "متأخر", "someone-else", false)
	assert.Zero(t, created)
	require.Len(t, queue.jobs, 1)
	for _, job := range queue.jobs {
		assert.Equal(t, recipient.ID, job.RecipientUserID)
		assert.NotEmpty(t, job.LastError)
	}

	// Storage comes back; one drain pass delivers the parked job.
	require.NoError(t, db.AutoMigrate(&models.Notification{}))
	fanout.drainOnce(context.Background())

	assert.Empty(t, queue.jobs)
	var notifications []models.Notification
	require.NoError(t, db.Where("document_id = ?", doc.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, "delayed", notifications[0].Message)
}

func TestFanout_DrainReschedulesWhenStillFailing(t *testing.T) {
	db := newTestDB(t)
	queue := newMemoryQueue()
	fanout := NewFanout(db, queue, nil)

	require.NoError(t, queue.Enqueue(context.Background(), FanoutJob{
		RecipientUserID: "someone",
		DocumentID:      "some-doc",
		Message:         "stuck",
		CreatedAt:       time.Now(),
	}))
	require.NoError(t, db.Migrator().DropTable(&models.Notification{}))

	fanout.drainOnce(context.Background())

	require.Len(t, queue.jobs, 1)
	for _, job := range queue.jobs {
		assert.Equal(t, 1, job.Attempts)
		assert.NotEmpty(t, job.LastError)
	}
}
