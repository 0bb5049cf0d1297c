package engine

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/diwanhq/murasalat/backend/internal/models"
)

// Workflow enforces the document status state machine. Authorization, the
// legality check and the status write all happen inside one transaction so
// two actors can never both observe a status and apply conflicting
// transitions.
type Workflow struct {
	db     *gorm.DB
	ledger *Ledger
	fanout *Fanout
}

func NewWorkflow(db *gorm.DB, ledger *Ledger, fanout *Fanout) *Workflow {
	return &Workflow{db: db, ledger: ledger, fanout: fanout}
}

// TransitionOptions lists where a document can go from its current status.
type TransitionOptions struct {
	Current models.DocumentStatus   `json:"current"`
	Allowed []models.DocumentStatus `json:"allowed"`
}

// BulkRejection explains why one member of a bulk request failed.
type BulkRejection struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkResult reports a bulk transition. A batch with any illegal member is
// rejected as a whole: Updated is then empty and Rejected lists every
// failing document with its reason.
type BulkResult struct {
	Updated  []string        `json:"updated"`
	Rejected []BulkRejection `json:"rejected"`
}

// lockDocument loads the document after touching its row, so the enclosing
// transaction holds the row lock for the rest of its lifetime and concurrent
// writers serialize behind it.
func lockDocument(tx *gorm.DB, documentID string, doc *models.Document) error {
	res := tx.Exec("UPDATE documents SET updated_at = updated_at WHERE id = ?", documentID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Entity: "document", ID: documentID}
	}
	return tx.First(doc, "id = ?", documentID).Error
}

// authorize decides whether the actor may move this document before the
// transition table is even consulted: the creator, the assigned user, a head
// of an assigned department, or a holder of elevated privilege.
func (w *Workflow) authorize(tx *gorm.DB, doc *models.Document, actor Actor) error {
	if actor.Role.Can(models.CapTransitionAnyDocument) {
		return nil
	}
	if doc.CreatedByID == actor.ID {
		return nil
	}
	if doc.AssignedToID != nil && *doc.AssignedToID == actor.ID {
		return nil
	}
	if actor.Role == models.RoleDepartmentHead && actor.DepartmentID != nil {
		var count int64
		err := tx.Model(&models.DocumentDepartment{}).
			Where("document_id = ? AND department_id = ?", doc.ID, *actor.DepartmentID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
	}
	return &ForbiddenError{Action: "change the status of " + doc.ReferenceNumber}
}

// UpdateStatus moves one document to newStatus. A transition to the current
// status is a no-op success. Illegal transitions come back as
// *InvalidTransitionError carrying the allowed set.
func (w *Workflow) UpdateStatus(ctx context.Context, documentID string, newStatus models.DocumentStatus, actor Actor, comment string) (*models.Document, error) {
	if !newStatus.Valid() {
		return nil, &ValidationError{Message: fmt.Sprintf("unknown status %q", newStatus)}
	}

	var doc models.Document
	changed := false
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockDocument(tx, documentID, &doc); err != nil {
			return err
		}
		if err := w.authorize(tx, &doc, actor); err != nil {
			return err
		}
		if doc.Status == newStatus {
			return nil
		}
		if !doc.Status.CanTransitionTo(newStatus) {
			return &InvalidTransitionError{Current: doc.Status, Allowed: doc.Status.AllowedTransitions()}
		}

		prev := doc.Status
		if err := tx.Model(&doc).Update("status", newStatus).Error; err != nil {
			return err
		}
		doc.Status = newStatus
		changed = true

		action := models.ActionStatusChanged
		if newStatus == models.StatusArchived {
			action = models.ActionDocumentArchived
		}
		details := fmt.Sprintf("%s: %s -> %s", doc.ReferenceNumber, prev, newStatus)
		if comment != "" {
			details += " (" + comment + ")"
		}
		return w.ledger.RecordInTx(tx, actor.ID, action, details, &doc.ID, doc.ReferenceNumber)
	})
	if err != nil {
		return nil, err
	}

	if changed {
		w.notifyStatusChange(ctx, &doc, actor)
	}
	return &doc, nil
}

// notifyStatusChange tells the creator and assigned user after commit.
// Best-effort: the transition itself has already succeeded.
func (w *Workflow) notifyStatusChange(ctx context.Context, doc *models.Document, actor Actor) {
	ids := []string{doc.CreatedByID}
	if doc.AssignedToID != nil {
		ids = append(ids, *doc.AssignedToID)
	}
	var recipients []models.User
	if err := w.db.WithContext(ctx).Where("id IN ? AND is_active", ids).Find(&recipients).Error; err != nil {
		return
	}
	deptID := ""
	if actor.DepartmentID != nil {
		deptID = *actor.DepartmentID
	}
	w.fanout.Notify(ctx, recipients, doc.ID, deptID,
		fmt.Sprintf("Document %s is now %s", doc.ReferenceNumber, doc.Status),
		fmt.Sprintf("المعاملة %s أصبحت %s", doc.ReferenceNumber, doc.Status),
		actor.ID, false)
}

// BulkUpdateStatus validates the transition for every member first and
// applies the batch only when every single one is legal. It never silently
// skips an invalid member: any rejection aborts the whole batch and the
// result reports each failing document with its reason.
func (w *Workflow) BulkUpdateStatus(ctx context.Context, documentIDs []string, newStatus models.DocumentStatus, actor Actor) (*BulkResult, error) {
	if !newStatus.Valid() {
		return nil, &ValidationError{Message: fmt.Sprintf("unknown status %q", newStatus)}
	}
	if len(documentIDs) == 0 {
		return nil, &ValidationError{Message: "document_ids must not be empty"}
	}
	if !actor.Role.Can(models.CapBulkTransition) {
		return nil, &ForbiddenError{Action: "bulk-update document status"}
	}

	result := &BulkResult{}
	errRejected := errors.New("bulk rejected")

	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		docs := make([]*models.Document, 0, len(documentIDs))
		for _, id := range documentIDs {
			var doc models.Document
			if err := lockDocument(tx, id, &doc); err != nil {
				var nf *NotFoundError
				if errors.As(err, &nf) {
					result.Rejected = append(result.Rejected, BulkRejection{ID: id, Reason: err.Error()})
					continue
				}
				return err
			}
			if err := w.authorize(tx, &doc, actor); err != nil {
				var forbidden *ForbiddenError
				if errors.As(err, &forbidden) {
					result.Rejected = append(result.Rejected, BulkRejection{ID: id, Reason: err.Error()})
					continue
				}
				return err
			}
			if !doc.Status.CanTransitionTo(newStatus) {
				it := &InvalidTransitionError{Current: doc.Status, Allowed: doc.Status.AllowedTransitions()}
				result.Rejected = append(result.Rejected, BulkRejection{ID: id, Reason: it.Error()})
				continue
			}
			docs = append(docs, &doc)
		}
		if len(result.Rejected) > 0 {
			return errRejected
		}

		for _, doc := range docs {
			if doc.Status == newStatus {
				result.Updated = append(result.Updated, doc.ID)
				continue
			}
			prev := doc.Status
			if err := tx.Model(doc).Update("status", newStatus).Error; err != nil {
				return err
			}
			action := models.ActionStatusChanged
			if newStatus == models.StatusArchived {
				action = models.ActionDocumentArchived
			}
			details := fmt.Sprintf("%s: %s -> %s (bulk)", doc.ReferenceNumber, prev, newStatus)
			if err := w.ledger.RecordInTx(tx, actor.ID, action, details, &doc.ID, doc.ReferenceNumber); err != nil {
				return err
			}
			result.Updated = append(result.Updated, doc.ID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errRejected) {
			result.Updated = nil
			return result, nil
		}
		return nil, err
	}
	return result, nil
}

// AvailableTransitions reports the document's current status and every legal
// next status.
func (w *Workflow) AvailableTransitions(ctx context.Context, documentID string) (*TransitionOptions, error) {
	var doc models.Document
	if err := w.db.WithContext(ctx).First(&doc, "id = ?", documentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "document", ID: documentID}
		}
		return nil, err
	}
	return &TransitionOptions{
		Current: doc.Status,
		Allowed: doc.Status.AllowedTransitions(),
	}, nil
}
