package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewRoomRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms ORDER BY name ASC, id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "building", "room_type_id", "capacity", "created_at", "updated_at"}).
			AddRow("r1", "A-101", "A", "LECTURE", 80, now, now).
			AddRow("l1", "B-Lab", "B", "LAB", 30, now, now))

	rooms, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "LAB", rooms[1].RoomTypeID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogExistsChecks(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM courses WHERE id = $1 LIMIT 1")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"one"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM room_types WHERE id = $1 LIMIT 1")).
		WithArgs("POOL").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM semesters WHERE id = $1 LIMIT 1")).
		WithArgs("sem-1").
		WillReturnError(sql.ErrConnDone)

	ok, err := NewCourseRepository(db).Exists(context.Background(), "course-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = NewRoomRepository(db).TypeExists(context.Background(), "POOL")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = NewSemesterRepository(db).Exists(context.Background(), "sem-1")
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentGroupRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM student_groups ORDER BY department ASC, year ASC, section ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "department", "year", "section", "size", "created_at", "updated_at"}).
			AddRow("grp-1", "CS", 1, "A", 40, now, now))

	groups, err := NewStudentGroupRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 40, groups[0].Size)
	assert.NoError(t, mock.ExpectationsWereMet())
}
