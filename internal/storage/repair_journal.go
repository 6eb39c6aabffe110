package storage

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"social-go/internal/metrics"
	"social-go/internal/models"
)

// RepairJournal records partially failed operations for later reconciliation.
type RepairJournal interface {
	Record(ctx context.Context, entry *models.RepairEntry) error
	ListOpen(ctx context.Context, limit int) ([]*models.RepairEntry, error)
	Resolve(ctx context.Context, id uint, note string) error
}

type gormRepairJournal struct {
	db *gorm.DB
}

// NewGormRepairJournal creates a RepairJournal backed by the relational database.
func NewGormRepairJournal(db *gorm.DB) RepairJournal {
	return &gormRepairJournal{db: db}
}

func (j *gormRepairJournal) Record(ctx context.Context, entry *models.RepairEntry) error {
	metrics.RepairEntriesTotal.WithLabelValues(entry.Operation).Inc()
	return j.db.WithContext(ctx).Create(entry).Error
}

func (j *gormRepairJournal) ListOpen(ctx context.Context, limit int) ([]*models.RepairEntry, error) {
	var entries []*models.RepairEntry
	q := j.db.WithContext(ctx).Where("resolved_at IS NULL").Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (j *gormRepairJournal) Resolve(ctx context.Context, id uint, note string) error {
	now := time.Now().UTC()
	res := j.db.WithContext(ctx).Model(&models.RepairEntry{}).
		Where("id = ? AND resolved_at IS NULL", id).
		Updates(map[string]interface{}{"resolved_at": now, "resolution": note})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MemoryRepairJournal keeps entries in process. It backs tests and
// deployments running with DATABASE.TYPE=none.
type MemoryRepairJournal struct {
	mu      sync.Mutex
	nextID  uint
	entries []*models.RepairEntry
}

func NewMemoryRepairJournal() *MemoryRepairJournal {
	return &MemoryRepairJournal{}
}

func (j *MemoryRepairJournal) Record(_ context.Context, entry *models.RepairEntry) error {
	metrics.RepairEntriesTotal.WithLabelValues(entry.Operation).Inc()
	j.mu.Lock()
	defer j.mu.Unlock()
	j.nextID++
	entry.ID = j.nextID
	now := time.Now().UTC()
	entry.CreatedAt, entry.UpdatedAt = now, now
	cp := *entry
	j.entries = append(j.entries, &cp)
	return nil
}

func (j *MemoryRepairJournal) ListOpen(_ context.Context, limit int) ([]*models.RepairEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := []*models.RepairEntry{}
	for _, e := range j.entries {
		if e.ResolvedAt != nil {
			continue
		}
		cp := *e
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (j *MemoryRepairJournal) Resolve(_ context.Context, id uint, note string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, e := range j.entries {
		if e.ID == id && e.ResolvedAt == nil {
			now := time.Now().UTC()
			e.ResolvedAt = &now
			e.Resolution = note
			return nil
		}
	}
	return ErrNotFound
}
