package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"inactivity-service/internal/models"
)

type ActivityRepositoryMock struct {
	mock.Mock
}

func (m *ActivityRepositoryMock) RecordActivity(ctx context.Context, userID, chatID int64, ts time.Time) error {
	args := m.Called(ctx, userID, chatID, ts)
	return args.Error(0)
}

func (m *ActivityRepositoryMock) ListActivity(ctx context.Context, chatID int64) ([]models.ActivityRecord, error) {
	args := m.Called(ctx, chatID)
	var records []models.ActivityRecord
	if val := args.Get(0); val != nil {
		records = val.([]models.ActivityRecord)
	}
	return records, args.Error(1)
}

type ConfigRepositoryMock struct {
	mock.Mock
}

func (m *ConfigRepositoryMock) GetConfig(ctx context.Context, chatID int64) (models.ChatConfig, error) {
	args := m.Called(ctx, chatID)
	var cfg models.ChatConfig
	if val := args.Get(0); val != nil {
		cfg = val.(models.ChatConfig)
	}
	return cfg, args.Error(1)
}

func (m *ConfigRepositoryMock) SetInactiveDays(ctx context.Context, chatID int64, days int) error {
	args := m.Called(ctx, chatID, days)
	return args.Error(0)
}

func (m *ConfigRepositoryMock) SetNewUserDays(ctx context.Context, chatID int64, days int) error {
	args := m.Called(ctx, chatID, days)
	return args.Error(0)
}

type RosterProviderMock struct {
	mock.Mock
}

func (m *RosterProviderMock) GetAdministrators(ctx context.Context, chatID int64) (map[int64]struct{}, error) {
	args := m.Called(ctx, chatID)
	var admins map[int64]struct{}
	if val := args.Get(0); val != nil {
		admins = val.(map[int64]struct{})
	}
	return admins, args.Error(1)
}

type TrackerMock struct {
	mock.Mock
}

func (m *TrackerMock) RunScan(ctx context.Context, chatID int64) (models.ScanResult, error) {
	args := m.Called(ctx, chatID)
	var result models.ScanResult
	if val := args.Get(0); val != nil {
		result = val.(models.ScanResult)
	}
	return result, args.Error(1)
}

func (m *TrackerMock) SetInactiveDays(ctx context.Context, chatID int64, daysText string) (int, error) {
	args := m.Called(ctx, chatID, daysText)
	return args.Int(0), args.Error(1)
}

func (m *TrackerMock) SetNewUserDays(ctx context.Context, chatID int64, daysText string) (int, error) {
	args := m.Called(ctx, chatID, daysText)
	return args.Int(0), args.Error(1)
}

func (m *TrackerMock) GetConfig(ctx context.Context, chatID int64) (models.ChatConfig, error) {
	args := m.Called(ctx, chatID)
	var cfg models.ChatConfig
	if val := args.Get(0); val != nil {
		cfg = val.(models.ChatConfig)
	}
	return cfg, args.Error(1)
}

func (m *TrackerMock) ListActivity(ctx context.Context, chatID int64) ([]models.ActivityRecord, error) {
	args := m.Called(ctx, chatID)
	var records []models.ActivityRecord
	if val := args.Get(0); val != nil {
		records = val.([]models.ActivityRecord)
	}
	return records, args.Error(1)
}
