package eventlog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// GormStore persists the audit log through gorm, so the trail survives
// process restarts even though the rest of the core state is rebuilt from
// the authoritative store.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Event{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

// NewSQLiteStore opens (or creates) a sqlite-backed store at path.
func NewSQLiteStore(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return NewGormStore(db)
}

func (s *GormStore) Append(ctx context.Context, evt Event) error {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(&evt).Error
}

func (s *GormStore) ListBySubject(ctx context.Context, subject string) ([]Event, error) {
	var out []Event
	err := s.db.WithContext(ctx).Where("subject = ?", subject).Order("created_at asc").Find(&out).Error
	return out, err
}
