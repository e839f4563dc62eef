package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"inovacode-contact-api/internal/model"
)

// ErrDuplicate reports a uniqueness conflict from the database, distinct
// from generic persistence failure so callers can answer 400 instead of 500
var ErrDuplicate = errors.New("duplicate contact submission")

// ErrNotFound reports a missing record
var ErrNotFound = errors.New("contact not found")

// ContactRepository owns persisted contacts. The pipeline never mutates a
// record after insertion; only the admin status transition touches it.
type ContactRepository interface {
	Create(ctx context.Context, contact *model.Contact) error
	List(ctx context.Context, opts model.ListOptions) ([]model.Contact, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	CountByStatus(ctx context.Context, status string) (int64, error)
	Count(ctx context.Context) (int64, error)
	PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// GormContactRepository implements ContactRepository on GORM
type GormContactRepository struct {
	db *gorm.DB
}

// NewContactRepository creates a GORM-backed contact repository
func NewContactRepository(db *gorm.DB) *GormContactRepository {
	return &GormContactRepository{db: db}
}

// Create inserts a new contact. CreatedAt/UpdatedAt are assigned by GORM at
// insert time; Status defaults to pending when unset.
func (r *GormContactRepository) Create(ctx context.Context, contact *model.Contact) error {
	if contact.Status == "" {
		contact.Status = model.StatusPending
	}
	result := r.db.WithContext(ctx).Create(contact)
	if result.Error != nil {
		if isDuplicateErr(result.Error) {
			return fmt.Errorf("%w: %v", ErrDuplicate, result.Error)
		}
		return fmt.Errorf("failed to create contact: %w", result.Error)
	}
	return nil
}

// List returns contacts ordered newest first, optionally filtered by status
func (r *GormContactRepository) List(ctx context.Context, opts model.ListOptions) ([]model.Contact, error) {
	query := r.db.WithContext(ctx).Model(&model.Contact{}).Order("created_at DESC")

	if opts.Status != "" && opts.Status != "all" {
		query = query.Where("status = ?", opts.Status)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var contacts []model.Contact
	if err := query.Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

// UpdateStatus transitions a contact's status and refreshes updated_at
func (r *GormContactRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).Model(&model.Contact{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("failed to update contact status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByStatus returns the number of contacts with the given status
func (r *GormContactRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Contact{}).Where("status = ?", status).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return count, nil
}

// Count returns the total number of contacts
func (r *GormContactRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Contact{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return count, nil
}

// PurgeDeletedBefore permanently removes soft-deleted contacts older than
// the cutoff and returns how many rows were dropped
func (r *GormContactRepository) PurgeDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Delete(&model.Contact{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge contacts: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// isDuplicateErr recognizes uniqueness conflicts across GORM's translated
// error and the raw MySQL 1062 message
func isDuplicateErr(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") || strings.Contains(msg, "error 1062")
}
