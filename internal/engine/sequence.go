package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/diwanhq/murasalat/backend/internal/models"
)

// Allocator mints year-scoped, monotonically unique reference numbers of the
// form PREFIX-YEAR-NNNNN. It is backed by a durable per-year counter row;
// two concurrent callers can never observe the same value. Gaps are
// acceptable, duplicates are not.
type Allocator struct {
	db     *gorm.DB
	prefix string
}

// NewAllocator creates an Allocator. prefix is the organization code that
// leads every reference number.
func NewAllocator(db *gorm.DB, prefix string) *Allocator {
	return &Allocator{db: db, prefix: prefix}
}

// NextReferenceNumber allocates the next number for the given year in its
// own transaction, retrying transient failures with backoff.
func (a *Allocator) NextReferenceNumber(ctx context.Context, year int) (string, error) {
	var ref string
	backoff := retry.WithMaxRetries(5, retry.NewExponential(25*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			ref, err = a.NextInTx(tx, year)
			return err
		}))
	})
	if err != nil {
		return "", fmt.Errorf("allocating reference number for %d: %w", year, err)
	}
	return ref, nil
}

// NextInTx increments the counter inside an already-open transaction, so the
// reservation commits or rolls back together with the caller's writes.
//
// The row is bumped with a single relative UPDATE; the row lock it takes
// serializes concurrent allocators until the enclosing transaction ends. The
// first allocation of a year seeds the row with an insert that no-ops on
// conflict, so two concurrent seeders both fall through to the increment.
func (a *Allocator) NextInTx(tx *gorm.DB, year int) (string, error) {
	res := tx.Model(&models.ReferenceCounter{}).
		Where("year = ?", year).
		UpdateColumn("last_value", gorm.Expr("last_value + 1"))
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		seed := models.ReferenceCounter{Year: year, LastValue: 0}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return "", err
		}
		res = tx.Model(&models.ReferenceCounter{}).
			Where("year = ?", year).
			UpdateColumn("last_value", gorm.Expr("last_value + 1"))
		if res.Error != nil {
			return "", res.Error
		}
		if res.RowsAffected == 0 {
			return "", &ConflictError{Message: fmt.Sprintf("reference counter for %d unavailable", year)}
		}
	}

	var counter models.ReferenceCounter
	if err := tx.First(&counter, "year = ?", year).Error; err != nil {
		return "", err
	}
	return a.Format(year, counter.LastValue), nil
}

// Format renders a reference number without touching the counter.
func (a *Allocator) Format(year int, sequence int64) string {
	return fmt.Sprintf("%s-%d-%05d", a.prefix, year, sequence)
}
