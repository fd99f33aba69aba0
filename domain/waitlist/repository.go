package waitlist

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=waitlist

import (
	"context"

	"github.com/akeren/waitlist-intake/internal/models"
	"github.com/akeren/waitlist-intake/pkg/csvstore"
	apperrors "github.com/akeren/waitlist-intake/pkg/errors"
	"gorm.io/gorm"
)

type WaitlistStore interface {
	// EnsureReady verifies the storage directory exists and is writable.
	EnsureReady(ctx context.Context) error
	// Append writes one record, initializing the header on first use.
	Append(ctx context.Context, record csvstore.Record) error
	// Path is the configured storage location reported to clients.
	Path() string
}

type WaitlistMirror interface {
	// SaveEntry copies an accepted submission into the database.
	SaveEntry(ctx context.Context, entry *models.WaitlistEntry) error
}

type waitlistMirror struct {
	db *gorm.DB
}

// NewWaitlistMirror returns nil when no database is configured.
func NewWaitlistMirror(db *gorm.DB) WaitlistMirror {
	if db == nil {
		return nil
	}
	return &waitlistMirror{db: db}
}

func (wm *waitlistMirror) SaveEntry(ctx context.Context, entry *models.WaitlistEntry) error {
	if err := wm.db.WithContext(ctx).Create(entry).Error; err != nil {
		return apperrors.NewDatabaseError("unable to mirror waitlist entry", err)
	}
	return nil
}
