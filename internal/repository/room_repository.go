package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-timetable-api/internal/models"
)

// RoomRepository reads the room inventory and room type tags.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs the repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns the full inventory in a stable order so generation runs are reproducible.
func (r *RoomRepository) List(ctx context.Context) ([]models.Room, error) {
	const query = `SELECT id, name, building, room_type_id, capacity, created_at, updated_at FROM rooms ORDER BY name ASC, id ASC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// FindByID returns a room by id.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	const query = `SELECT id, name, building, room_type_id, capacity, created_at, updated_at FROM rooms WHERE id = $1`
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// ListTypes returns every room type tag.
func (r *RoomRepository) ListTypes(ctx context.Context) ([]models.RoomType, error) {
	const query = `SELECT id, name, created_at FROM room_types ORDER BY name ASC`
	var types []models.RoomType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list room types: %w", err)
	}
	return types, nil
}

// TypeExists reports whether the room type tag is known.
func (r *RoomRepository) TypeExists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.db, "room_types", id)
}

// exists is shared by the catalog repositories for reference checks.
func exists(ctx context.Context, db sqlx.QueryerContext, table, id string) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE id = $1 LIMIT 1", table)
	var found int
	if err := sqlx.GetContext(ctx, db, &found, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check %s reference: %w", table, err)
	}
	return true, nil
}
