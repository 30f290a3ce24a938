// Package sqlite implements the record store on SQLite via gorm, using the
// pure Go driver so the binary stays cgo-free.
package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tap-top/recall/memory"
)

// memoryRow is the memories table schema.
type memoryRow struct {
	ID         string `gorm:"primaryKey;size:36"`
	AppID      string `gorm:"index;size:64"`
	AgentID    string `gorm:"index;size:64"`
	UserID     string `gorm:"index;size:64"`
	Content    string
	MemoryType string `gorm:"index;size:32"`
	Version    int
	Metadata   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (memoryRow) TableName() string { return "memories" }

// historyRow records every mutation of a memory for auditability.
type historyRow struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	MemoryID   string `gorm:"index;size:36"`
	Event      string `gorm:"size:16"`
	OldContent string
	NewContent string
	Version    int
	CreatedAt  time.Time
}

func (historyRow) TableName() string { return "memory_history" }

// Store is a gorm-backed memory.RecordStore.
type Store struct {
	db *gorm.DB
}

// Open connects to the SQLite database at dsn (use ":memory:" for an
// ephemeral store) and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return New(db)
}

// New wraps an existing gorm connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&memoryRow{}, &historyRow{}, &App{}, &Agent{}, &Session{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Create persists a new record.
func (s *Store) Create(ctx context.Context, rec *memory.Record) error {
	row, err := toRow(rec)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("creating record: %w", err)
	}
	rec.CreatedAt = row.CreatedAt
	rec.UpdatedAt = row.UpdatedAt
	return nil
}

// Get returns the record for id.
func (s *Store) Get(ctx context.Context, id string) (*memory.Record, error) {
	var row memoryRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, memory.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	return fromRow(&row)
}

// Update overwrites content and metadata for the record matching
// (ID, Version), guarding against concurrent writers with a version check.
func (s *Store) Update(ctx context.Context, rec *memory.Record) error {
	metaJSON, err := marshalMetadata(rec.Metadata)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old memoryRow
		err := tx.First(&old, "id = ?", rec.ID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return memory.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("reading record: %w", err)
		}
		if old.Version != rec.Version {
			return memory.ErrStale
		}

		res := tx.Model(&memoryRow{}).
			Where("id = ? AND version = ?", rec.ID, rec.Version).
			Updates(map[string]interface{}{
				"content":  rec.Content,
				"metadata": metaJSON,
				"version":  rec.Version + 1,
			})
		if res.Error != nil {
			return fmt.Errorf("updating record: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return memory.ErrStale
		}

		hist := historyRow{
			MemoryID:   rec.ID,
			Event:      "UPDATE",
			OldContent: old.Content,
			NewContent: rec.Content,
			Version:    rec.Version + 1,
		}
		if err := tx.Create(&hist).Error; err != nil {
			return fmt.Errorf("recording history: %w", err)
		}

		rec.Version++
		return nil
	})
}

// Delete removes the record for id, keeping a history row.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old memoryRow
		err := tx.First(&old, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return memory.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("reading record: %w", err)
		}

		if err := tx.Delete(&memoryRow{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("deleting record: %w", err)
		}

		hist := historyRow{
			MemoryID:   id,
			Event:      "DELETE",
			OldContent: old.Content,
			Version:    old.Version,
		}
		if err := tx.Create(&hist).Error; err != nil {
			return fmt.Errorf("recording history: %w", err)
		}
		return nil
	})
}

// List returns records matching the equality filters, newest first, with
// the total matching count.
func (s *Store) List(ctx context.Context, filters map[string]string, offset, limit int) ([]*memory.Record, int64, error) {
	q := s.db.WithContext(ctx).Model(&memoryRow{})
	for key, val := range filters {
		switch key {
		case "app_id", "agent_id", "user_id", "memory_type":
			q = q.Where(key+" = ?", val)
		}
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting records: %w", err)
	}

	var rows []memoryRow
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("listing records: %w", err)
	}

	records := make([]*memory.Record, 0, len(rows))
	for i := range rows {
		rec, err := fromRow(&rows[i])
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, nil
}

// History returns the mutation trail for a memory, oldest first.
func (s *Store) History(ctx context.Context, memoryID string) ([]HistoryEntry, error) {
	var rows []historyRow
	err := s.db.WithContext(ctx).
		Where("memory_id = ?", memoryID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, HistoryEntry{
			MemoryID:   row.MemoryID,
			Event:      row.Event,
			OldContent: row.OldContent,
			NewContent: row.NewContent,
			Version:    row.Version,
			CreatedAt:  row.CreatedAt,
		})
	}
	return entries, nil
}

// HistoryEntry is one recorded mutation of a memory.
type HistoryEntry struct {
	MemoryID   string    `json:"memory_id"`
	Event      string    `json:"event"`
	OldContent string    `json:"old_content,omitempty"`
	NewContent string    `json:"new_content,omitempty"`
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
}

func toRow(rec *memory.Record) (*memoryRow, error) {
	metaJSON, err := marshalMetadata(rec.Metadata)
	if err != nil {
		return nil, err
	}
	return &memoryRow{
		ID:         rec.ID,
		AppID:      rec.AppID,
		AgentID:    rec.AgentID,
		UserID:     rec.UserID,
		Content:    rec.Content,
		MemoryType: rec.MemoryType,
		Version:    rec.Version,
		Metadata:   metaJSON,
	}, nil
}

func fromRow(row *memoryRow) (*memory.Record, error) {
	rec := &memory.Record{
		ID:         row.ID,
		AppID:      row.AppID,
		AgentID:    row.AgentID,
		UserID:     row.UserID,
		Content:    row.Content,
		MemoryType: row.MemoryType,
		Version:    row.Version,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if row.Metadata != "" {
		if err := json.Unmarshal([]byte(row.Metadata), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("decoding record metadata: %w", err)
		}
	}
	return rec, nil
}

func marshalMetadata(md map[string]string) (string, error) {
	if len(md) == 0 {
		return "", nil
	}
	b, err := json.Marshal(md)
	if err != nil {
		return "", fmt.Errorf("encoding record metadata: %w", err)
	}
	return string(b), nil
}
