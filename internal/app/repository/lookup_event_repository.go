package repository

import (
	"context"
	"errors"

	"github.com/sifan077/TrackDesk/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// LookupEventRepository defines the data access contract for lookup history.
type LookupEventRepository interface {
	Create(ctx context.Context, event *model.LookupEvent) error
	List(ctx context.Context, filter LookupFilter) ([]model.LookupEvent, error)
}

// LookupFilter narrows List. Zero values mean no filter.
type LookupFilter struct {
	ISRC      string
	Operation string
	Limit     int
	Offset    int
}

type lookupEventRepository struct {
	db *gorm.DB
}

// NewLookupEventRepository returns a GORM-backed LookupEventRepository.
func NewLookupEventRepository(db *gorm.DB) LookupEventRepository {
	return &lookupEventRepository{db: db}
}

// Create is idempotent on the event id so redelivered messages do not duplicate rows.
func (r *lookupEventRepository) Create(ctx context.Context, event *model.LookupEvent) error {
	if event == nil || event.ID == "" {
		return errors.New("lookup event: missing id")
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event).Error
}

func (r *lookupEventRepository) List(ctx context.Context, filter LookupFilter) ([]model.LookupEvent, error) {
	limit, offset := normalizePage(filter.Limit, filter.Offset)

	q := r.db.WithContext(ctx).Model(&model.LookupEvent{})
	if filter.ISRC != "" {
		q = q.Where("isrc = ?", filter.ISRC)
	}
	if filter.Operation != "" {
		q = q.Where("operation = ?", filter.Operation)
	}

	var result []model.LookupEvent
	if err := q.
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
