package inactivity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"inactivity-service/internal/mocks"
	"inactivity-service/internal/models"
)

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time { return s.now }

func newTestTracker(activityRepo *mocks.ActivityRepositoryMock, configRepo *mocks.ConfigRepositoryMock, roster *mocks.RosterProviderMock, now time.Time) *Tracker {
	return NewTracker(activityRepo, configRepo, roster, stubClock{now: now})
}

func TestRecordActivityUsesClock(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	activityRepo := new(mocks.ActivityRepositoryMock)
	tracker := newTestTracker(activityRepo, new(mocks.ConfigRepositoryMock), new(mocks.RosterProviderMock), now)

	activityRepo.On("RecordActivity", mock.Anything, int64(42), int64(-100), now).Return(nil).Once()

	require.NoError(t, tracker.RecordActivity(context.Background(), 42, -100))
	activityRepo.AssertExpectations(t)
}

func TestRunScanFlagsInactiveMembers(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	activityRepo := new(mocks.ActivityRepositoryMock)
	configRepo := new(mocks.ConfigRepositoryMock)
	roster := new(mocks.RosterProviderMock)
	tracker := newTestTracker(activityRepo, configRepo, roster, now)

	configRepo.On("GetConfig", mock.Anything, int64(9)).
		Return(models.ChatConfig{ChatID: 9, InactiveDays: 14, NewUserDays: 3}, nil).Once()
	roster.On("GetAdministrators", mock.Anything, int64(9)).
		Return(map[int64]struct{}{1: {}}, nil).Once()
	activityRepo.On("ListActivity", mock.Anything, int64(9)).Return([]models.ActivityRecord{
		{UserID: 1, ChatID: 9, LastActivity: now.Add(-30 * 24 * time.Hour), JoinDate: now.Add(-100 * 24 * time.Hour)},
		{UserID: 2, ChatID: 9, LastActivity: now.Add(-20 * 24 * time.Hour), JoinDate: now.Add(-50 * 24 * time.Hour)},
		{UserID: 3, ChatID: 9, LastActivity: now.Add(-24 * time.Hour), JoinDate: now.Add(-24 * time.Hour)},
	}, nil).Once()

	result, err := tracker.RunScan(context.Background(), 9)
	require.NoError(t, err)
	require.Equal(t, []int64{2}, result.Flagged)
	require.Equal(t, 1, result.Count)
	require.Equal(t, 14, result.InactiveDays)
	require.Equal(t, now, result.ScannedAt)

	activityRepo.AssertExpectations(t)
	configRepo.AssertExpectations(t)
	roster.AssertExpectations(t)
}

func TestRunScanAbortsWhenRosterUnavailable(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	activityRepo := new(mocks.ActivityRepositoryMock)
	configRepo := new(mocks.ConfigRepositoryMock)
	roster := new(mocks.RosterProviderMock)
	tracker := newTestTracker(activityRepo, configRepo, roster, now)

	configRepo.On("GetConfig", mock.Anything, int64(9)).
		Return(models.ChatConfig{ChatID: 9, InactiveDays: 14, NewUserDays: 3}, nil).Once()
	roster.On("GetAdministrators", mock.Anything, int64(9)).
		Return(nil, errors.New("telegram unreachable")).Once()

	_, err := tracker.RunScan(context.Background(), 9)
	require.ErrorIs(t, err, ErrRosterUnavailable)

	// no record may be evaluated without the full admin set
	activityRepo.AssertNotCalled(t, "ListActivity", mock.Anything, mock.Anything)
}

func TestRunScanPropagatesStorageError(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	activityRepo := new(mocks.ActivityRepositoryMock)
	configRepo := new(mocks.ConfigRepositoryMock)
	roster := new(mocks.RosterProviderMock)
	tracker := newTestTracker(activityRepo, configRepo, roster, now)

	storageErr := errors.New("db down")
	configRepo.On("GetConfig", mock.Anything, int64(9)).Return(models.ChatConfig{}, storageErr).Once()

	_, err := tracker.RunScan(context.Background(), 9)
	require.ErrorIs(t, err, storageErr)
	require.NotErrorIs(t, err, ErrRosterUnavailable)
}

func TestSetInactiveDaysValidation(t *testing.T) {
	configRepo := new(mocks.ConfigRepositoryMock)
	tracker := newTestTracker(new(mocks.ActivityRepositoryMock), configRepo, new(mocks.RosterProviderMock), time.Now())

	_, err := tracker.SetInactiveDays(context.Background(), 9, "abc")
	require.ErrorIs(t, err, ErrInvalidDays)

	_, err = tracker.SetInactiveDays(context.Background(), 9, "0")
	require.ErrorIs(t, err, ErrInvalidDays)

	_, err = tracker.SetInactiveDays(context.Background(), 9, "-3")
	require.ErrorIs(t, err, ErrInvalidDays)

	// nothing persisted on rejected input
	configRepo.AssertNotCalled(t, "SetInactiveDays", mock.Anything, mock.Anything, mock.Anything)

	configRepo.On("SetInactiveDays", mock.Anything, int64(9), 5).Return(nil).Once()
	days, err := tracker.SetInactiveDays(context.Background(), 9, " 5 ")
	require.NoError(t, err)
	require.Equal(t, 5, days)
	configRepo.AssertExpectations(t)
}

func TestSetNewUserDaysValidation(t *testing.T) {
	configRepo := new(mocks.ConfigRepositoryMock)
	tracker := newTestTracker(new(mocks.ActivityRepositoryMock), configRepo, new(mocks.RosterProviderMock), time.Now())

	_, err := tracker.SetNewUserDays(context.Background(), 9, "later")
	require.ErrorIs(t, err, ErrInvalidDays)

	_, err = tracker.SetNewUserDays(context.Background(), 9, "-1")
	require.ErrorIs(t, err, ErrInvalidDays)

	configRepo.AssertNotCalled(t, "SetNewUserDays", mock.Anything, mock.Anything, mock.Anything)

	// zero disables the grace period and is legal
	configRepo.On("SetNewUserDays", mock.Anything, int64(9), 0).Return(nil).Once()
	days, err := tracker.SetNewUserDays(context.Background(), 9, "0")
	require.NoError(t, err)
	require.Equal(t, 0, days)
	configRepo.AssertExpectations(t)
}
