package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/diwanhq/murasalat/backend/internal/models"
)

// Coordinator orchestrates document creation and department assignment. The
// department-set replace, the status transition and the audit entry commit as
// one unit of work; a reader never observes a document assigned to new
// departments with a stale status or a missing audit entry. Notification
// fanout runs after commit, best-effort.
type Coordinator struct {
	db        *gorm.DB
	allocator *Allocator
	ledger    *Ledger
	fanout    *Fanout
}

func NewCoordinator(db *gorm.DB, allocator *Allocator, ledger *Ledger, fanout *Fanout) *Coordinator {
	return &Coordinator{db: db, allocator: allocator, ledger: ledger, fanout: fanout}
}

// AssignmentResult summarizes a completed assignment.
type AssignmentResult struct {
	Document        *models.Document `json:"document"`
	DepartmentCount int              `json:"department_count"`
	NotifiedUsers   int              `json:"notified_users"`
}

// CreateDocument mints a reference number and creates the document in DRAFT.
// When department ids are supplied the document is assigned in the same
// transaction and lands in PENDING. A reference-number collision retries the
// whole transaction; the caller only ever sees a fully created document.
func (c *Coordinator) CreateDocument(ctx context.Context, req models.CreateDocumentRequest, actor Actor) (*models.Document, error) {
	if !actor.Role.Can(models.CapCreateDocument) {
		return nil, &ForbiddenError{Action: "create documents"}
	}

	var category models.Category
	if err := c.db.WithContext(ctx).First(&category, "id = ? AND is_active", req.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "category", ID: req.CategoryID}
		}
		return nil, err
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	var doc models.Document
	var recipients []models.User

	work := func(ctx context.Context) error {
		doc = models.Document{}
		recipients = nil
		err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			year := time.Now().Year()
			ref, err := c.allocator.NextInTx(tx, year)
			if err != nil {
				return err
			}

			doc = models.Document{
				ReferenceNumber:    ref,
				Subject:            req.Subject,
				Summary:            req.Summary,
				SenderName:         req.SenderName,
				SenderOrganization: req.SenderOrganization,
				Status:             models.StatusDraft,
				Priority:           priority,
				CategoryID:         req.CategoryID,
				CreatedByID:        actor.ID,
			}
			if err := tx.Create(&doc).Error; err != nil {
				return err
			}

			details := fmt.Sprintf("%s created by %s", ref, actor.ID)
			if err := c.ledger.RecordInTx(tx, actor.ID, models.ActionDocumentCreated, details, &doc.ID, ref); err != nil {
				return err
			}

			if len(req.DepartmentIDs) > 0 {
				var err error
				recipients, err = c.assignInTx(tx, &doc, req.DepartmentIDs, actor)
				return err
			}
			return nil
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return retry.RetryableError(err)
		}
		return err
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(20*time.Millisecond))
	if err := retry.Do(ctx, backoff, work); err != nil {
		return nil, err
	}

	if len(recipients) > 0 {
		c.notifyAssignment(ctx, &doc, recipients, actor)
	}
	return &doc, nil
}

// Assign replaces the document's entire department set with the given one.
// Old assignments are revoked, the document moves to PENDING, and one audit
// entry is written; everything commits or fails together. Fanout to the new
// departments' active members happens after commit.
func (c *Coordinator) Assign(ctx context.Context, documentID string, departmentIDs []string, actor Actor) (*AssignmentResult, error) {
	if len(departmentIDs) == 0 {
		return nil, &ValidationError{Message: "department_ids must not be empty"}
	}
	if !actor.Role.Can(models.CapAssignDocument) {
		return nil, &ForbiddenError{Action: "assign documents to departments"}
	}

	var doc models.Document
	var recipients []models.User
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockDocument(tx, documentID, &doc); err != nil {
			return err
		}
		var err error
		recipients, err = c.assignInTx(tx, &doc, departmentIDs, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	notified := c.notifyAssignment(ctx, &doc, recipients, actor)
	return &AssignmentResult{
		Document:        &doc,
		DepartmentCount: len(dedupe(departmentIDs)),
		NotifiedUsers:   notified,
	}, nil
}

// assignInTx performs the transactional part of an assignment against an
// already-locked document: validate departments, replace the junction set,
// transition to PENDING, write the audit entry. It returns the active
// members of the new departments for post-commit fanout.
func (c *Coordinator) assignInTx(tx *gorm.DB, doc *models.Document, departmentIDs []string, actor Actor) ([]models.User, error) {
	ids := dedupe(departmentIDs)

	var departments []models.Department
	if err := tx.Where("id IN ? AND is_active", ids).Find(&departments).Error; err != nil {
		return nil, err
	}
	if len(departments) != len(ids) {
		found := make(map[string]bool, len(departments))
		for _, d := range departments {
			found[d.ID] = true
		}
		var missing []string
		for _, id := range ids {
			if !found[id] {
				missing = append(missing, id)
			}
		}
		return nil, &DepartmentNotFoundError{Missing: missing}
	}

	// Full replace, not a merge: prior assignments are revoked.
	if err := tx.Where("document_id = ?", doc.ID).Delete(&models.DocumentDepartment{}).Error; err != nil {
		return nil, err
	}
	now := time.Now()
	rows := make([]models.DocumentDepartment, len(ids))
	for i, id := range ids {
		rows[i] = models.DocumentDepartment{DocumentID: doc.ID, DepartmentID: id, AssignedAt: now}
	}
	if err := tx.Create(&rows).Error; err != nil {
		return nil, err
	}

	if doc.Status != models.StatusPending {
		if !doc.Status.CanTransitionTo(models.StatusPending) {
			return nil, &InvalidTransitionError{Current: doc.Status, Allowed: doc.Status.AllowedTransitions()}
		}
		if err := tx.Model(doc).Update("status", models.StatusPending).Error; err != nil {
			return nil, err
		}
		doc.Status = models.StatusPending
	}

	details := fmt.Sprintf("%s assigned to %d department(s)", doc.ReferenceNumber, len(ids))
	if err := c.ledger.RecordInTx(tx, actor.ID, models.ActionDocumentAssigned, details, &doc.ID, doc.ReferenceNumber); err != nil {
		return nil, err
	}

	var recipients []models.User
	if err := tx.Where("department_id IN ? AND is_active", ids).Find(&recipients).Error; err != nil {
		return nil, err
	}
	return recipients, nil
}

func (c *Coordinator) notifyAssignment(ctx context.Context, doc *models.Document, recipients []models.User, actor Actor) int {
	notified := 0
	byDept := make(map[string][]models.User)
	for _, u := range recipients {
		if u.DepartmentID == nil {
			continue
		}
		byDept[*u.DepartmentID] = append(byDept[*u.DepartmentID], u)
	}
	msg := fmt.Sprintf("Document %s has been assigned to your department", doc.ReferenceNumber)
	msgAr := fmt.Sprintf("تم إحالة المعاملة %s إلى قسمك", doc.ReferenceNumber)
	for deptID, users := range byDept {
		notified += c.fanout.Notify(ctx, users, doc.ID, deptID, msg, msgAr, actor.ID, false)
	}
	return notified
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
