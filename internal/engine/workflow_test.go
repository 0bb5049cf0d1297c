package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diwanhq/murasalat/backend/internal/models"
)

var allStatuses = []models.DocumentStatus{
	models.StatusDraft,
	models.StatusPending,
	models.StatusInProgress,
	models.StatusOnHold,
	models.StatusCompleted,
	models.StatusRejected,
	models.StatusArchived,
}

var legalTransitions = map[models.DocumentStatus][]models.DocumentStatus{
	models.StatusDraft:      {models.StatusPending, models.StatusCompleted},
	models.StatusPending:    {models.StatusInProgress, models.StatusCompleted, models.StatusRejected},
	models.StatusInProgress: {models.StatusCompleted, models.StatusPending, models.StatusOnHold},
	models.StatusOnHold:     {models.StatusInProgress, models.StatusPending},
	models.StatusCompleted:  {models.StatusArchived},
	models.StatusRejected:   {models.StatusPending, models.StatusDraft},
	models.StatusArchived:   {},
}

func isLegal(from, to models.DocumentStatus) bool {
	if from == to {
		return true
	}
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Every one of the 7x7 combinations either succeeds or fails with an
// InvalidTransitionError carrying the current status and the allowed set.
func TestWorkflow_FullTransitionGrid(t *testing.T) {
	db := newTestDB(t)
	_, _, _, workflow, _, _ := newEngine(db)

	admin := createUser(t, db, "Grid Admin", models.RoleAdmin, nil)
	category := createCategory(t, db, "grid")
	doc := createDraftDocument(t, db, "DOC-2026-00001", category, admin)

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			t.Run(fmt.Sprintf("%s_to_%s", from, to), func(t *testing.T) {
				require.NoError(t, db.Model(&models.Document{}).Where("id = ?", doc.ID).Update("status", from).Error)

				updated, err := workflow.UpdateStatus(context.Background(), doc.ID, to, actorFor(admin), "")
				if isLegal(from, to) {
					require.NoError(t, err)
					assert.Equal(t, to, updated.Status)
					return
				}

				require.Error(t, err)
				var it *InvalidTransitionError
				require.ErrorAs(t, err, &it)
				assert.Equal(t, from, it.Current)
				assert.ElementsMatch(t, legalTransitions[from], it.Allowed)

				var persisted models.Document
				require.NoError(t, db.First(&persisted, "id = ?", doc.ID).Error)
				assert.Equal(t, from, persisted.Status, "rejected transition must not change stored status")
			})
		}
	}
}

func TestWorkflow_SameStateIsNoOp(t *testing.T) {
	db := newTestDB(t)
	_, ledger, _, workflow, _, _ := newEngine(db)

	admin := createUser(t, db, "Noop Admin", models.RoleAdmin, nil)
	category := createCategory(t, db, "noop")
	doc := createDraftDocument(t, db, "DOC-2026-00002", category, admin)

	updated, err := workflow.UpdateStatus(context.Background(), doc.ID, models.StatusDraft, actorFor(admin), "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, updated.Status)

	// No audit entry and no notification for a no-op.
	entries, total, err := ledger.HistoryByDocument(context.Background(), doc.ID, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, entries)
}

func TestWorkflow_ArchivedIsTerminal(t *testing.T) {
	db := newTestDB(t)
	_, _, _, workflow, _, _ := newEngine(db)

	admin := createUser(t, db, "Archive Admin", models.RoleAdmin, nil)
	category := createCategory(t, db, "archive")
	doc := createDraftDocument(t, db, "DOC-2026-00003", category, admin)
	require.NoError(t, db.Model(&models.Document{}).Where("id = ?", doc.ID).Update("status", models.StatusCompleted).Error)

	_, err := workflow.UpdateStatus(context.Background(), doc.ID, models.StatusArchived, actorFor(admin), "")
	require.NoError(t, err)

	_, err = workflow.UpdateStatus(context.Background(), doc.ID, models.StatusPending, actorFor(admin), "")
	var it *InvalidTransitionError
	require.ErrorAs(t, err, &it)
	assert.Equal(t, models.StatusArchived, it.Current)
	assert.Empty(t, it.Allowed)
}

func TestWorkflow_AuthorizationPrecedesLegality(t *testing.T) {
	db := newTestDB(t)
	_, _, _, workflow, _, _ := newEngine(db)

	creator := createUser(t, db, "Doc Creator", models.RoleStaff, nil)
	stranger := createUser(t, db, "Total Stranger", models.RoleStaff, nil)
	category := createCategory(t, db, "authz")
	doc := createDraftDocument(t, db, "DOC-2026-00004", category, creator)
	require.NoError(t, db.Model(&models.Document{}).Where("id = ?", doc.ID).Update("status", models.StatusArchived).Error)

	// The stranger gets Forbidden even though the transition would also be
	// illegal; authorization is checked first.
	_, err := workflow.UpdateStatus(context.Background(), doc.ID, models.StatusPending, actorFor(stranger), "")
	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)
}

func TestWorkflow_CreatorAssigneeAndHeadMayTransition(t *testing.T) {
	db := newTestDB(t)
	_, _, _, workflow, _, _ := newEngine(db)

	dept := createDepartment(t, db, "Legal")
	creator := createUser(t, db, "The Creator", models.RoleStaff, nil)
	assignee := createUser(t, db, "The Assignee", models.RoleStaff, nil)
	head := createUser(t, db, "Dept Head", models.RoleDepartmentHead, &dept.ID)
	otherHead := createUser(t, db, "Other Head", models.RoleDepartmentHead, nil)

	category := createCategory(t, db, "roles")
	doc := createDraftDocument(t, db, "DOC-2026-00005", category, creator)
	require.NoError(t, db.Model(&models.Document{}).Where("id = ?", doc.ID).Update("assigned_to_id", assignee.ID).Error)
	require.NoError(t, db.Create(&models.DocumentDepartment{DocumentID: doc.ID, DepartmentID: dept.ID}).Error)

	_, err := workflow.UpdateStatus(context.Background(), doc.ID, models.StatusPending, actorFor(creator), "")
	require.NoError(t, err)

	_, err = workflow.UpdateStatus(context.Background(), doc.ID, models.StatusInProgress, actorFor(assignee), "")
	require.NoError(t, err)

	_, err = workflow.UpdateStatus(context.Background(), doc.ID, models.StatusOnHold, actorFor(head), "")
	require.NoError(t, err)

	// A head of an unrelated department is not authorized.
	_, err = workflow.UpdateStatus(context.Background(), doc.ID, models.StatusPending, actorFor(otherHead), "")
	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)
}

func TestWorkflow_TransitionWritesAuditEntry(t *testing.T) {
	db := newTestDB(t)
	_, ledger, _, workflow, _, _ := newEngine(db)

	admin := createUser(t, db, "Audit Admin", models.RoleAdmin, nil)
	category := createCategory(t, db, "audited")
	doc := createDraftDocument(t, db, "DOC-2026-00006", category, admin)

	_, err := workflow.UpdateStatus(context.Background(), doc.ID, models.StatusPending, actorFor(admin), "please review")
	require.NoError(t, err)

	entries, total, err := ledger.HistoryByDocument(context.Background(), doc.ID, 1, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, models.ActionStatusChanged, entries[0].Action)
	assert.Contains(t, entries[0].Details, "DRAFT -> PENDING")
	assert.Contains(t, entries[0].Details, "please review")
	assert.Equal(t, "DOC-2026-00006", entries[0].DocumentReference)
}

func TestWorkflow_BulkAllOrNothing(t *testing.T) {
	db := newTestDB(t)
	_, ledger, _, workflow, _, _ := newEngine(db)

	officer := createUser(t, db, "Bulk Officer", models.RoleCorrespondenceOfficer, nil)
	category := createCategory(t, db, "bulk")

	pendingDoc := createDraftDocument(t, db, "DOC-2026-00007", category, officer)
	require.NoError(t, db.Model(&models.Document{}).Where("id = ?", pendingDoc.ID).Update("status", models.StatusPending).Error)
	archivedDoc := createDraftDocument(t, db, "DOC-2026-00008", category, officer)
	require.NoError(t, db.Model(&models.Document{}).Where("id = ?", archivedDoc.ID).Update("status", models.StatusArchived).Error)

	result, err := workflow.BulkUpdateStatus(context.Background(),
		[]string{pendingDoc.ID, archivedDoc.ID}, models.StatusCompleted, actorFor(officer))
	require.NoError(t, err)

	// One illegal member rejects the whole batch with its reason.
	assert.Empty(t, result.Updated)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, archivedDoc.ID, result.Rejected[0].ID)
	assert.Contains(t, result.Rejected[0].Reason, "ARCHIVED")

	var persisted models.Document
	require.NoError(t, db.First(&persisted, "id = ?", pendingDoc.ID).Error)
	assert.Equal(t, models.StatusPending, persisted.Status, "legal member must not be applied when the batch is rejected")

	_, total, err := ledger.HistoryByDocument(context.Background(), pendingDoc.ID, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestWorkflow_BulkAppliesWhenAllLegal(t *testing.T) {
	db := newTestDB(t)
	_, _, _, workflow, _, _ := newEngine(db)

	officer := createUser(t, db, "Happy Officer", models.RoleCorrespondenceOfficer, nil)
	category := createCategory(t, db, "bulk-ok")

	docA := createDraftDocument(t, db, "DOC-2026-00009", category, officer)
	docB := createDraftDocument(t, db, "DOC-2026-00010", category, officer)

	result, err := workflow.BulkUpdateStatus(context.Background(),
		[]string{docA.ID, docB.ID}, models.StatusPending, actorFor(officer))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{docA.ID, docB.ID}, result.Updated)
	assert.Empty(t, result.Rejected)

	for _, id := range []string{docA.ID, docB.ID} {
		var persisted models.Document
		require.NoError(t, db.First(&persisted, "id = ?", id).Error)
		assert.Equal(t, models.StatusPending, persisted.Status)
	}
}

func TestWorkflow_BulkRequiresCapability(t *testing.T) {
	db := newTestDB(t)
	_, _, _, workflow, _, _ := newEngine(db)

	staff := createUser(t, db, "Plain Staff", models.RoleStaff, nil)

	_, err := workflow.BulkUpdateStatus(context.Background(), []string{"whatever"}, models.StatusPending, actorFor(staff))
	var forbidden *ForbiddenError
	require.ErrorAs(t, err, &forbidden)
}

func TestWorkflow_AvailableTransitions(t *testing.T) {
	db := newTestDB(t)
	_, _, _, workflow, _, _ := newEngine(db)

	admin := createUser(t, db, "Options Admin", models.RoleAdmin, nil)
	category := createCategory(t, db, "options")
	doc := createDraftDocument(t, db, "DOC-2026-00011", category, admin)
	require.NoError(t, db.Model(&models.Document{}).Where("id = ?", doc.ID).Update("status", models.StatusPending).Error)

	options, err := workflow.AvailableTransitions(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, options.Current)
	assert.ElementsMatch(t,
		[]models.DocumentStatus{models.StatusInProgress, models.StatusCompleted, models.StatusRejected},
		options.Allowed)

	_, err = workflow.AvailableTransitions(context.Background(), "missing-id")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestWorkflow_UnknownStatusRejected(t *testing.T) {
	db := newTestDB(t)
	_, _, _, workflow, _, _ := newEngine(db)

	admin := createUser(t, db, "Junk Admin", models.RoleAdmin, nil)

	_, err := workflow.UpdateStatus(context.Background(), "any", "SHREDDED", actorFor(admin), "")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
}
