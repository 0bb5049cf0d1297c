package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diwanhq/murasalat/backend/internal/models"
)

func TestSeenTracker_MarkSeenIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	_, _, _, _, _, tracker := newEngine(db)

	dept := createDepartment(t, db, "Records")
	reader := createUser(t, db, "Records Reader", models.RoleStaff, &dept.ID)
	category := createCategory(t, db, "seen")
	doc := createDraftDocument(t, db, "DOC-2026-00001", category, reader)

	require.NoError(t, tracker.MarkSeen(context.Background(), doc.ID, reader.ID, dept.ID))

	var first models.DocumentSeen
	require.NoError(t, db.First(&first, "document_id = ? AND user_id = ?", doc.ID, reader.ID).Error)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, tracker.MarkSeen(context.Background(), doc.ID, reader.ID, dept.ID))

	var entries []models.DocumentSeen
	require.NoError(t, db.Where("document_id = ?", doc.ID).Find(&entries).Error)
	require.Len(t, entries, 1, "a second mark must not create a second row")
	assert.True(t, entries[0].SeenAt.After(first.SeenAt) || entries[0].SeenAt.Equal(first.SeenAt))
}

func TestSeenTracker_MarkSeenUnknownDocument(t *testing.T) {
	db := newTestDB(t)
	_, _, _, _, _, tracker := newEngine(db)

	dept := createDepartment(t, db, "Records")
	reader := createUser(t, db, "Records Reader", models.RoleStaff, &dept.ID)

	err := tracker.MarkSeen(context.Background(), "no-such-doc", reader.ID, dept.ID)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "document", nf.Entity)
}

func TestSeenTracker_MarkSeenDoesNotTouchStatus(t *testing.T) {
	db := newTestDB(t)
	_, _, _, _, _, tracker := newEngine(db)

	dept := createDepartment(t, db, "Records")
	reader := createUser(t, db, "Records Reader", models.RoleStaff, &dept.ID)
	category := createCategory(t, db, "seen")
	doc := createDraftDocument(t, db, "DOC-2026-00002", category, reader)

	require.NoError(t, tracker.MarkSeen(context.Background(), doc.ID, reader.ID, dept.ID))

	var persisted models.Document
	require.NoError(t, db.First(&persisted, "id = ?", doc.ID).Error)
	assert.Equal(t, models.StatusDraft, persisted.Status)

	var notifications int64
	require.NoError(t, db.Model(&models.Notification{}).Where("document_id = ?", doc.ID).Count(&notifications).Error)
	assert.Zero(t, notifications)
}

func TestSeenTracker_UnseenCount(t *testing.T) {
	db := newTestDB(t)
	_, _, _, _, coordinator, tracker := newEngine(db)

	officer := createUser(t, db, "Intake Officer", models.RoleCorrespondenceOfficer, nil)
	dept := createDepartment(t, db, "Audit")
	member := createUser(t, db, "Audit Member", models.RoleStaff, &dept.ID)
	category := createCategory(t, db, "seen")

	docA := createDraftDocument(t, db, "DOC-2026-00003", category, officer)
	docB := createDraftDocument(t, db, "DOC-2026-00004", category, officer)
	docC := createDraftDocument(t, db, "DOC-2026-00005", category, officer)
	for _, doc := range []*models.Document{docA, docB, docC} {
		_, err := coordinator.Assign(context.Background(), doc.ID, []string{dept.ID}, actorFor(officer))
		require.NoError(t, err)
	}

	count, err := tracker.UnseenCount(context.Background(), dept.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	// One member opening a document clears it for the whole department.
	require.NoError(t, tracker.MarkSeen(context.Background(), docA.ID, member.ID, dept.ID))
	count, err = tracker.UnseenCount(context.Background(), dept.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// Terminal documents drop out of the count even when unseen.
	require.NoError(t, db.Model(&models.Document{}).Where("id = ?", docB.ID).Update("status", models.StatusArchived).Error)
	count, err = tracker.UnseenCount(context.Background(), dept.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestSeenTracker_UnseenCountIgnoresDeactivatedViewers(t *testing.T) {
	db := newTestDB(t)
	_, _, _, _, coordinator, tracker := newEngine(db)

	officer := createUser(t, db, "Intake Officer", models.RoleCorrespondenceOfficer, nil)
	dept := createDepartment(t, db, "Audit")
	viewer := createUser(t, db, "Departing Viewer", models.RoleStaff, &dept.ID)
	category := createCategory(t, db, "seen")

	doc := createDraftDocument(t, db, "DOC-2026-00006", category, officer)
	_, err := coordinator.Assign(context.Background(), doc.ID, []string{dept.ID}, actorFor(officer))
	require.NoError(t, err)

	require.NoError(t, tracker.MarkSeen(context.Background(), doc.ID, viewer.ID, dept.ID))
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", viewer.ID).Update("is_active", false).Error)

	// The only person who saw it has left; the document counts as unseen again.
	count, err := tracker.UnseenCount(context.Background(), dept.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestSeenTracker_SeenByOrdersMostRecentFirst(t *testing.T) {
	db := newTestDB(t)
	_, _, _, _, _, tracker := newEngine(db)

	dept := createDepartment(t, db, "Records")
	first := createUser(t, db, "First Reader", models.RoleStaff, &dept.ID)
	second := createUser(t, db, "Second Reader", models.RoleStaff, &dept.ID)
	category := createCategory(t, db, "seen")
	doc := createDraftDocument(t, db, "DOC-2026-00007", category, first)

	require.NoError(t, tracker.MarkSeen(context.Background(), doc.ID, first.ID, dept.ID))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, tracker.MarkSeen(context.Background(), doc.ID, second.ID, dept.ID))

	entries, err := tracker.SeenBy(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].UserID)
	assert.Equal(t, first.ID, entries[1].UserID)
}
