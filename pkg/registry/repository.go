package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/pitabwire/frame/data"
	"github.com/pitabwire/frame/datastore/pool"
	"github.com/rs/xid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrLeaveNotFound is returned when a leave does not exist for the user.
var ErrLeaveNotFound = errors.New("leave not found")

// Repository stores users and their leaves.
type Repository struct {
	pool pool.Pool
}

// NewRepository creates a new registry repository.
func NewRepository(pool pool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) db(ctx context.Context, readOnly bool) *gorm.DB {
	return r.pool.DB(ctx, readOnly)
}

// Migrate creates or updates the registry tables.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db(ctx, false).AutoMigrate(&User{}, &Leave{}); err != nil {
		return fmt.Errorf("migrate registry: %w", err)
	}
	return nil
}

// Exists reports whether a user with the given id is registered.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := r.db(ctx, true).Model(&User{}).Where("id = ?", id).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("look up user: %w", err)
	}
	return n > 0, nil
}

// Register records a user id. Registering an existing id is a no-op.
func (r *Repository) Register(ctx context.Context, id string) error {
	u := &User{BaseModel: data.BaseModel{ID: id}}
	err := r.db(ctx, false).Clauses(clause.OnConflict{DoNothing: true}).Create(u).Error
	if err != nil {
		return fmt.Errorf("register user: %w", err)
	}
	return nil
}

// SaveLeave persists a confirmed leave and returns it with its new id.
func (r *Repository) SaveLeave(ctx context.Context, userID, leaveType, leaveDate string) (*Leave, error) {
	lv := &Leave{
		BaseModel: data.BaseModel{ID: xid.New().String()},
		UserID:    userID,
		LeaveType: leaveType,
		LeaveDate: leaveDate,
	}
	if err := r.db(ctx, false).Create(lv).Error; err != nil {
		return nil, fmt.Errorf("save leave: %w", err)
	}
	return lv, nil
}

// ListLeaves returns a user's leaves, newest first.
func (r *Repository) ListLeaves(ctx context.Context, userID string) ([]Leave, error) {
	var leaves []Leave
	err := r.db(ctx, true).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&leaves).Error
	if err != nil {
		return nil, fmt.Errorf("list leaves: %w", err)
	}
	return leaves, nil
}

// DeleteLeave soft-deletes one of the user's leaves.
func (r *Repository) DeleteLeave(ctx context.Context, userID, leaveID string) error {
	res := r.db(ctx, false).
		Where("id = ? AND user_id = ?", leaveID, userID).
		Delete(&Leave{})
	if res.Error != nil {
		return fmt.Errorf("delete leave: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrLeaveNotFound
	}
	return nil
}
