package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-timetable-api/internal/models"
	appErrors "github.com/noah-isme/uni-timetable-api/pkg/errors"
)

type roomTypeLister interface {
	ListTypes(ctx context.Context) ([]models.RoomType, error)
}

// CatalogService exposes the read-only inventory the scheduler works against.
type CatalogService struct {
	rooms     roomLister
	roomTypes roomTypeLister
	groups    studentGroupLister
	logger    *zap.Logger
}

// NewCatalogService constructs the catalog reader.
func NewCatalogService(rooms roomLister, roomTypes roomTypeLister, groups studentGroupLister, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{rooms: rooms, roomTypes: roomTypes, groups: groups, logger: logger}
}

// Rooms lists every room.
func (s *CatalogService) Rooms(ctx context.Context) ([]models.Room, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		s.logger.Error("failed to list rooms", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	if rooms == nil {
		rooms = []models.Room{}
	}
	return rooms, nil
}

// RoomTypes lists the room categories activities can require.
func (s *CatalogService) RoomTypes(ctx context.Context) ([]models.RoomType, error) {
	types, err := s.roomTypes.ListTypes(ctx)
	if err != nil {
		s.logger.Error("failed to list room types", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list room types")
	}
	if types == nil {
		types = []models.RoomType{}
	}
	return types, nil
}

// StudentGroups lists every cohort.
func (s *CatalogService) StudentGroups(ctx context.Context) ([]models.StudentGroup, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		s.logger.Error("failed to list student groups", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student groups")
	}
	if groups == nil {
		groups = []models.StudentGroup{}
	}
	return groups, nil
}
