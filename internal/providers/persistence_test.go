package providers_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/fxnow/fxnow/internal/apperrors"
	"github.com/fxnow/fxnow/internal/core/domain"
	"github.com/fxnow/fxnow/internal/providers"
)

// --- Mock RateProvider (the tier below) ---
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) GetCurrentRate(ctx context.Context, currency domain.Currency) (*domain.CurrentRate, error) {
	args := m.Called(ctx, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CurrentRate), args.Error(1)
}

func (m *MockRateProvider) GetHistory(ctx context.Context, currency domain.Currency, period domain.ChartPeriod) ([]domain.DailyRate, error) {
	args := m.Called(ctx, currency, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DailyRate), args.Error(1)
}

// --- Mock RateSnapshotRepositoryFacade ---
type MockSnapshotRepo struct {
	mock.Mock
}

func (m *MockSnapshotRepo) FindLatestInRange(ctx context.Context, currency domain.Currency, from, to time.Time) (*domain.RateSnapshot, error) {
	args := m.Called(ctx, currency, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RateSnapshot), args.Error(1)
}

func (m *MockSnapshotRepo) FindByCurrencyAndRange(ctx context.Context, currency domain.Currency, from, to time.Time) ([]domain.RateSnapshot, error) {
	args := m.Called(ctx, currency, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RateSnapshot), args.Error(1)
}

func (m *MockSnapshotRepo) SaveSnapshot(ctx context.Context, snapshot domain.RateSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

// --- Test Suite ---
type DatabaseRateProviderTestSuite struct {
	suite.Suite
	mockDelegate *MockRateProvider
	mockRepo     *MockSnapshotRepo
	provider     *providers.DatabaseRateProvider
}

func (suite *DatabaseRateProviderTestSuite) SetupTest() {
	suite.mockDelegate = new(MockRateProvider)
	suite.mockRepo = new(MockSnapshotRepo)
	suite.provider = providers.NewDatabaseRateProvider(suite.mockDelegate, suite.mockRepo)
}

func (suite *DatabaseRateProviderTestSuite) TestGetCurrentRate_TodaySnapshotHit() {
	ctx := context.Background()
	snapshot := &domain.RateSnapshot{
		SnapshotID: "snap-1",
		Currency:   domain.USD,
		Rate:       decimal.RequireFromString("1320.50"),
		Change:     decimal.RequireFromString("5.00"),
		Timestamp:  time.Now().Add(-time.Hour),
	}

	suite.mockRepo.On("FindLatestInRange", ctx, domain.USD, mock.Anything, mock.Anything).
		Return(snapshot, nil).Once()

	rate, err := suite.provider.GetCurrentRate(ctx, domain.USD)

	suite.Require().NoError(err)
	suite.True(snapshot.Rate.Equal(rate.Rate))
	suite.True(snapshot.Change.Equal(rate.Change))
	suite.mockDelegate.AssertNotCalled(suite.T(), "GetCurrentRate", mock.Anything, mock.Anything)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *DatabaseRateProviderTestSuite) TestGetCurrentRate_MissFetchesAndPersists() {
	ctx := context.Background()
	upstreamRate := &domain.CurrentRate{
		Currency:  domain.USD,
		Rate:      decimal.RequireFromString("1325.00"),
		Change:    decimal.Zero,
		Timestamp: time.Now(),
	}
	prior := &domain.RateSnapshot{
		SnapshotID: "snap-prior",
		Currency:   domain.USD,
		Rate:       decimal.RequireFromString("1320.00"),
		Timestamp:  time.Now().AddDate(0, 0, -1),
	}

	// Today: miss. Prior lookup for change computation: yesterday's snapshot.
	suite.mockRepo.On("FindLatestInRange", ctx, domain.USD, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockDelegate.On("GetCurrentRate", ctx, domain.USD).Return(upstreamRate, nil).Once()
	suite.mockRepo.On("FindLatestInRange", ctx, domain.USD, mock.Anything, mock.Anything).
		Return(prior, nil).Once()
	suite.mockRepo.On("SaveSnapshot", ctx, mock.MatchedBy(func(s domain.RateSnapshot) bool {
		return s.Currency.Code == "USD" &&
			s.Rate.Equal(upstreamRate.Rate) &&
			s.Change.Equal(decimal.RequireFromString("5.00")) &&
			s.SnapshotID != ""
	})).Return(nil).Once()

	rate, err := suite.provider.GetCurrentRate(ctx, domain.USD)

	suite.Require().NoError(err)
	suite.True(decimal.RequireFromString("1325.00").Equal(rate.Rate))
	suite.True(decimal.RequireFromString("5.00").Equal(rate.Change), "change is today minus prior snapshot, got %s", rate.Change)
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockDelegate.AssertExpectations(suite.T())
}

func (suite *DatabaseRateProviderTestSuite) TestGetCurrentRate_FirstEverRateHasZeroChange() {
	ctx := context.Background()
	upstreamRate := &domain.CurrentRate{
		Currency:  domain.USD,
		Rate:      decimal.RequireFromString("1325.00"),
		Timestamp: time.Now(),
	}

	suite.mockRepo.On("FindLatestInRange", ctx, domain.USD, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrNotFound).Twice()
	suite.mockDelegate.On("GetCurrentRate", ctx, domain.USD).Return(upstreamRate, nil).Once()
	suite.mockRepo.On("SaveSnapshot", ctx, mock.Anything).Return(nil).Once()

	rate, err := suite.provider.GetCurrentRate(ctx, domain.USD)

	suite.Require().NoError(err)
	suite.True(rate.Change.IsZero(), "no prior snapshot means zero change")
}

func (suite *DatabaseRateProviderTestSuite) TestGetCurrentRate_PersistFailureIsNotFatal() {
	ctx := context.Background()
	upstreamRate := &domain.CurrentRate{
		Currency:  domain.USD,
		Rate:      decimal.RequireFromString("1325.00"),
		Timestamp: time.Now(),
	}

	suite.mockRepo.On("FindLatestInRange", ctx, domain.USD, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrNotFound).Twice()
	suite.mockDelegate.On("GetCurrentRate", ctx, domain.USD).Return(upstreamRate, nil).Once()
	suite.mockRepo.On("SaveSnapshot", ctx, mock.Anything).Return(assert.AnError).Once()

	rate, err := suite.provider.GetCurrentRate(ctx, domain.USD)

	suite.Require().NoError(err, "losing the snapshot write must not fail the resolution")
	suite.True(decimal.RequireFromString("1325.00").Equal(rate.Rate))
}

func (suite *DatabaseRateProviderTestSuite) TestGetCurrentRate_HolidayFallsBackToRecentSnapshot() {
	ctx := context.Background()
	recent := &domain.RateSnapshot{
		SnapshotID: "snap-recent",
		Currency:   domain.USD,
		Rate:       decimal.RequireFromString("1318.00"),
		Change:     decimal.RequireFromString("-2.00"),
		Timestamp:  time.Now().AddDate(0, 0, -2),
	}

	// Today: miss. Upstream: holiday. Lookback: snapshot from two days ago.
	suite.mockRepo.On("FindLatestInRange", ctx, domain.USD, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockDelegate.On("GetCurrentRate", ctx, domain.USD).Return(nil, apperrors.ErrNoData).Once()
	suite.mockRepo.On("FindLatestInRange", ctx, domain.USD, mock.Anything, mock.Anything).
		Return(recent, nil).Once()

	rate, err := suite.provider.GetCurrentRate(ctx, domain.USD)

	suite.Require().NoError(err)
	suite.True(recent.Rate.Equal(rate.Rate), "holiday must surface the most recent known value")
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveSnapshot", mock.Anything, mock.Anything)
}

func (suite *DatabaseRateProviderTestSuite) TestGetCurrentRate_HolidayWithEmptyStoreIsNotFound() {
	ctx := context.Background()

	suite.mockRepo.On("FindLatestInRange", ctx, domain.USD, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrNotFound).Twice()
	suite.mockDelegate.On("GetCurrentRate", ctx, domain.USD).Return(nil, apperrors.ErrNoData).Once()

	_, err := suite.provider.GetCurrentRate(ctx, domain.USD)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *DatabaseRateProviderTestSuite) TestGetCurrentRate_UpstreamFailurePropagates() {
	ctx := context.Background()

	suite.mockRepo.On("FindLatestInRange", ctx, domain.USD, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrNotFound).Once()
	suite.mockDelegate.On("GetCurrentRate", ctx, domain.USD).Return(nil, apperrors.ErrUnavailable).Once()

	_, err := suite.provider.GetCurrentRate(ctx, domain.USD)

	suite.ErrorIs(err, apperrors.ErrUnavailable, "only the holiday signal triggers fallback")
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveSnapshot", mock.Anything, mock.Anything)
}

func (suite *DatabaseRateProviderTestSuite) TestGetHistory_LongPeriodDelegates() {
	ctx := context.Background()
	series := []domain.DailyRate{
		{Date: time.Now().AddDate(0, 0, -2), Rate: decimal.RequireFromString("1320.00")},
		{Date: time.Now().AddDate(0, 0, -1), Rate: decimal.RequireFromString("1325.00")},
	}

	suite.mockDelegate.On("GetHistory", ctx, domain.USD, domain.PeriodOneMonth).Return(series, nil).Once()

	rates, err := suite.provider.GetHistory(ctx, domain.USD, domain.PeriodOneMonth)

	suite.Require().NoError(err)
	suite.Len(rates, 2)
	suite.mockRepo.AssertNotCalled(suite.T(), "FindByCurrencyAndRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DatabaseRateProviderTestSuite) TestGetHistory_IntradayFromSnapshots() {
	ctx := context.Background()
	snapshots := []domain.RateSnapshot{
		{Currency: domain.USD, Rate: decimal.RequireFromString("1320.00"), Timestamp: time.Now().Add(-3 * time.Hour)},
		{Currency: domain.USD, Rate: decimal.RequireFromString("1322.50"), Timestamp: time.Now().Add(-1 * time.Hour)},
	}

	suite.mockRepo.On("FindByCurrencyAndRange", ctx, domain.USD, mock.Anything, mock.Anything).
		Return(snapshots, nil).Once()

	rates, err := suite.provider.GetHistory(ctx, domain.USD, domain.PeriodOneDay)

	suite.Require().NoError(err)
	suite.Require().Len(rates, 2)
	suite.True(decimal.RequireFromString("1320.00").Equal(rates[0].Rate))
	suite.True(decimal.RequireFromString("1322.50").Equal(rates[1].Rate))
	suite.mockDelegate.AssertNotCalled(suite.T(), "GetHistory", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DatabaseRateProviderTestSuite) TestGetHistory_EmptyIntradayDelegates() {
	ctx := context.Background()
	series := []domain.DailyRate{
		{Date: time.Now().AddDate(0, 0, -1), Rate: decimal.RequireFromString("1320.00")},
	}

	suite.mockRepo.On("FindByCurrencyAndRange", ctx, domain.USD, mock.Anything, mock.Anything).
		Return([]domain.RateSnapshot{}, nil).Once()
	suite.mockDelegate.On("GetHistory", ctx, domain.USD, domain.PeriodOneDay).Return(series, nil).Once()

	rates, err := suite.provider.GetHistory(ctx, domain.USD, domain.PeriodOneDay)

	suite.Require().NoError(err)
	suite.Len(rates, 1)
}

func TestDatabaseRateProviderTestSuite(t *testing.T) {
	suite.Run(t, new(DatabaseRateProviderTestSuite))
}
