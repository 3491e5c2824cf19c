package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-timetable-api/internal/models"
)

// StudentGroupRepository reads student groups.
type StudentGroupRepository struct {
	db *sqlx.DB
}

// NewStudentGroupRepository constructs the repository.
func NewStudentGroupRepository(db *sqlx.DB) *StudentGroupRepository {
	return &StudentGroupRepository{db: db}
}

// List returns every group ordered by department, year and section.
func (r *StudentGroupRepository) List(ctx context.Context) ([]models.StudentGroup, error) {
	const query = `SELECT id, department, year, section, size, created_at, updated_at FROM student_groups ORDER BY department ASC, year ASC, section ASC`
	var groups []models.StudentGroup
	if err := r.db.SelectContext(ctx, &groups, query); err != nil {
		return nil, fmt.Errorf("list student groups: %w", err)
	}
	return groups, nil
}

// Exists reports whether the group is in the catalog.
func (r *StudentGroupRepository) Exists(ctx context.Context, id string) (bool, error) {
	return exists(ctx, r.db, "student_groups", id)
}
