package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/uni-timetable-api/internal/models"
	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
)

type roomTypeListerStub struct {
	types []models.RoomType
}

func (s roomTypeListerStub) ListTypes(context.Context) ([]models.RoomType, error) {
	return s.types, nil
}

func TestCatalogServiceListsInventory(t *testing.T) {
	svc := NewCatalogService(
		roomListerStub{rooms: lectureRooms()},
		roomTypeListerStub{types: []models.RoomType{{ID: "lecture", Name: "Lecture hall"}}},
		groupListerStub{},
		nil,
	)

	rooms, err := svc.Rooms(context.Background())
	require.NoError(t, err)
	assert.Len(t, rooms, 1)

	types, err := svc.RoomTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "lecture", types[0].ID)

	groups, err := svc.StudentGroups(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestCatalogServiceWrapsAndLogsErrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc := NewCatalogService(roomListerStub{err: errors.New("db down")}, roomTypeListerStub{}, groupListerStub{}, zap.New(core))

	_, err := svc.Rooms(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrInternal))

	entries := logs.FilterMessage("failed to list rooms").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "db down", entries[0].ContextMap()["error"])
}
