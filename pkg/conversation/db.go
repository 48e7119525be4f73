package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pitabwire/frame/datastore/pool"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amann12/ManageLeave/pkg/dialog"
)

// Record is the stored form of one conversation.
type Record struct {
	ID        string    `gorm:"type:varchar(128);primaryKey"`
	State     []byte    `gorm:"not null"`
	Version   int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null;index:idx_conversation_updated"`
}

func (Record) TableName() string { return "conversation_states" }

// DBStore keeps conversation state in the service datastore so any replica
// can serve the next turn. Writes are guarded by the record version.
type DBStore struct {
	pool pool.Pool
	ttl  time.Duration
}

// NewDBStore creates a datastore-backed store.
func NewDBStore(pool pool.Pool, ttl time.Duration) *DBStore {
	return &DBStore{pool: pool, ttl: ttl}
}

func (s *DBStore) db(ctx context.Context, readOnly bool) *gorm.DB {
	return s.pool.DB(ctx, readOnly)
}

// Migrate creates or updates the conversation table.
func (s *DBStore) Migrate(ctx context.Context) error {
	if err := s.db(ctx, false).AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("migrate conversations: %w", err)
	}
	return nil
}

func (s *DBStore) Load(ctx context.Context, id string) (*dialog.State, int64, error) {
	var rec Record
	err := s.db(ctx, false).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return dialog.NewState(), 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("load conversation: %w", err)
	}
	state, err := dialog.DecodeState(rec.State)
	if err != nil {
		return nil, 0, err
	}
	return state, rec.Version, nil
}

func (s *DBStore) Save(ctx context.Context, id string, state *dialog.State, version int64) error {
	blob, err := state.Encode()
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	if version == 0 {
		res := s.db(ctx, false).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&Record{ID: id, State: blob, Version: 1, UpdatedAt: now})
		if res.Error != nil {
			return fmt.Errorf("create conversation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return nil
	}

	res := s.db(ctx, false).
		Model(&Record{}).
		Where("id = ? AND version = ?", id, version).
		Updates(map[string]any{
			"state":      blob,
			"version":    version + 1,
			"updated_at": now,
		})
	if res.Error != nil {
		return fmt.Errorf("update conversation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *DBStore) Delete(ctx context.Context, id string) error {
	if err := s.db(ctx, false).Where("id = ?", id).Delete(&Record{}).Error; err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	return nil
}

// Reap deletes conversations not updated within the store's TTL.
func (s *DBStore) Reap(ctx context.Context) (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	res := s.db(ctx, false).
		Where("updated_at < ?", time.Now().UTC().Add(-s.ttl)).
		Delete(&Record{})
	if res.Error != nil {
		return 0, fmt.Errorf("reap conversations: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}
