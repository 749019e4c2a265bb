package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/fredylg/ReefBuddy-sub001/internal/application/analysis/dto"
	"github.com/fredylg/ReefBuddy-sub001/internal/domain/analysis"
	"github.com/fredylg/ReefBuddy-sub001/internal/domain/attestation"
	"github.com/fredylg/ReefBuddy-sub001/internal/domain/credit"
	"github.com/fredylg/ReefBuddy-sub001/internal/infrastructure/ratelimit"
	apperrors "github.com/fredylg/ReefBuddy-sub001/internal/shared/errors"
	"github.com/fredylg/ReefBuddy-sub001/internal/shared/logger"
)

type mockAccountRepository struct {
	mock.Mock
}

func (m *mockAccountRepository) GetOrCreate(ctx context.Context, deviceID string) (*credit.DeviceAccount, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*credit.DeviceAccount), args.Error(1)
}

func (m *mockAccountRepository) AuthorizeAndReserve(ctx context.Context, deviceID string, holdFor time.Duration) (*credit.Reservation, error) {
	args := m.Called(ctx, deviceID, holdFor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*credit.Reservation), args.Error(1)
}

func (m *mockAccountRepository) Settle(ctx context.Context, reservationID string, outcome credit.SettleOutcome) error {
	args := m.Called(ctx, reservationID, outcome)
	return args.Error(0)
}

func (m *mockAccountRepository) ReleaseExpired(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

func (m *mockAccountRepository) ApplyPurchase(ctx context.Context, deviceID, transactionID, originalTransactionID, productID string, credits int, encryptedReceipt []byte) error {
	args := m.Called(ctx, deviceID, transactionID, originalTransactionID, productID, credits, encryptedReceipt)
	return args.Error(0)
}

type mockGate struct {
	mock.Mock
}

func (m *mockGate) Verify(ctx context.Context, token, deviceID string) (attestation.Verification, error) {
	args := m.Called(ctx, token, deviceID)
	return args.Get(0).(attestation.Verification), args.Error(1)
}

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) Analyze(ctx context.Context, tankID string, params analysis.WaterParameters) (*analysis.Result, error) {
	args := m.Called(ctx, tankID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analysis.Result), args.Error(1)
}

type mockCounter struct {
	mock.Mock
}

func (m *mockCounter) Allow(ctx context.Context, key string, config ratelimit.Config) (bool, error) {
	args := m.Called(ctx, key, config)
	return args.Bool(0), args.Error(1)
}

func (m *mockCounter) GetRemaining(ctx context.Context, key string, window time.Duration) (int64, error) {
	args := m.Called(ctx, key, window)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCounter) Reset(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type fixture struct {
	accounts *mockAccountRepository
	gate     *mockGate
	analyzer *mockAnalyzer
	counter  *mockCounter
	uc       *RequestAnalysisUseCase
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		accounts: &mockAccountRepository{},
		gate:     &mockGate{},
		analyzer: &mockAnalyzer{},
		counter:  &mockCounter{},
	}
	f.uc = NewRequestAnalysisUseCase(
		f.accounts, f.gate, f.analyzer, f.counter,
		ratelimit.Config{RequestsPerMinute: 6},
		5*time.Minute,
		logger.NewNop(),
	)
	t.Cleanup(func() {
		f.accounts.AssertExpectations(t)
		f.gate.AssertExpectations(t)
		f.analyzer.AssertExpectations(t)
		f.counter.AssertExpectations(t)
	})
	return f
}

func validCommand() RequestAnalysisCommand {
	return RequestAnalysisCommand{
		DeviceID:         "device-abc",
		TankID:           "tank-1",
		AttestationToken: "token",
		Parameters: dto.WaterParametersDTO{
			PH:               8.2,
			Salinity:         1.025,
			TankVolumeLiters: 200,
		},
	}
}

func testReservation(t *testing.T) *credit.Reservation {
	r, err := credit.NewReservation("rsv_test1", "device-abc", 5*time.Minute)
	require.NoError(t, err)
	return r
}

func testAccount(t *testing.T, freeUsed, paid int) *credit.DeviceAccount {
	now := time.Now().UTC()
	account, err := credit.ReconstructDeviceAccount(1, "device-abc", 3, freeUsed, paid, 0, freeUsed, now, now)
	require.NoError(t, err)
	return account
}

func assertAppErrorType(t *testing.T, err error, errType apperrors.ErrorType) {
	t.Helper()
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr, "expected an application error, got %v", err)
	assert.Equal(t, errType, appErr.Type)
}

func TestRequestAnalysis_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.counter.On("Allow", mock.Anything, "device-abc", mock.Anything).Return(true, nil)
	f.gate.On("Verify", mock.Anything, "token", "device-abc").
		Return(attestation.Verification{Outcome: attestation.OutcomeVerified}, nil)
	f.accounts.On("AuthorizeAndReserve", mock.Anything, "device-abc", 5*time.Minute).
		Return(testReservation(t), nil)
	f.analyzer.On("Analyze", mock.Anything, "tank-1", mock.Anything).
		Return(&analysis.Result{Summary: "stable", Recommendations: []string{"keep dosing"}}, nil)
	f.accounts.On("Settle", mock.Anything, "rsv_test1", credit.OutcomeConsumed).Return(nil)
	f.accounts.On("GetOrCreate", mock.Anything, "device-abc").Return(testAccount(t, 1, 0), nil)

	result, err := f.uc.Execute(ctx, validCommand())
	require.NoError(t, err)

	assert.Equal(t, "stable", result.Analysis.Summary)
	assert.Equal(t, []string{"keep dosing"}, result.Analysis.Recommendations)
	assert.Equal(t, 2, result.CreditsRemaining)
	assert.Equal(t, 2, result.FreeRemaining)
	assert.Equal(t, 0, result.PaidCredits)
}

func TestRequestAnalysis_InvalidDeviceID(t *testing.T) {
	f := newFixture(t)

	cmd := validCommand()
	cmd.DeviceID = ""

	_, err := f.uc.Execute(context.Background(), cmd)
	assertAppErrorType(t, err, apperrors.ErrorTypeValidation)
}

func TestRequestAnalysis_InvalidParameters(t *testing.T) {
	f := newFixture(t)

	cmd := validCommand()
	cmd.Parameters.PH = 5.0

	_, err := f.uc.Execute(context.Background(), cmd)
	assertAppErrorType(t, err, apperrors.ErrorTypeValidation)
}

func TestRequestAnalysis_OverUsageCeiling(t *testing.T) {
	f := newFixture(t)

	f.counter.On("Allow", mock.Anything, "device-abc", mock.Anything).Return(false, nil)

	_, err := f.uc.Execute(context.Background(), validCommand())
	assertAppErrorType(t, err, apperrors.ErrorTypeRateLimited)
}

func TestRequestAnalysis_CounterFailureFailsOpen(t *testing.T) {
	f := newFixture(t)

	f.counter.On("Allow", mock.Anything, "device-abc", mock.Anything).
		Return(false, errors.New("redis down"))
	f.gate.On("Verify", mock.Anything, "token", "device-abc").
		Return(attestation.Verification{Outcome: attestation.OutcomeVerified}, nil)
	f.accounts.On("AuthorizeAndReserve", mock.Anything, "device-abc", 5*time.Minute).
		Return(testReservation(t), nil)
	f.analyzer.On("Analyze", mock.Anything, "tank-1", mock.Anything).
		Return(&analysis.Result{Summary: "ok"}, nil)
	f.accounts.On("Settle", mock.Anything, "rsv_test1", credit.OutcomeConsumed).Return(nil)
	f.accounts.On("GetOrCreate", mock.Anything, "device-abc").Return(testAccount(t, 1, 0), nil)

	_, err := f.uc.Execute(context.Background(), validCommand())
	assert.NoError(t, err, "counter backend failure must not block the request")
}

func TestRequestAnalysis_AttestationTokenMissing(t *testing.T) {
	f := newFixture(t)

	f.counter.On("Allow", mock.Anything, "device-abc", mock.Anything).Return(true, nil)
	f.gate.On("Verify", mock.Anything, "", "device-abc").
		Return(attestation.Verification{
			Outcome: attestation.OutcomeRejected,
			Reason:  attestation.ReasonTokenMissing,
		}, nil)

	cmd := validCommand()
	cmd.AttestationToken = ""

	_, err := f.uc.Execute(context.Background(), cmd)
	assertAppErrorType(t, err, apperrors.ErrorTypeForbidden)
	assert.Contains(t, apperrors.GetAppError(err).Message, "update the app")
}

func TestRequestAnalysis_AttestationTokenRejected(t *testing.T) {
	f := newFixture(t)

	f.counter.On("Allow", mock.Anything, "device-abc", mock.Anything).Return(true, nil)
	f.gate.On("Verify", mock.Anything, "token", "device-abc").
		Return(attestation.Verification{
			Outcome: attestation.OutcomeRejected,
			Reason:  attestation.ReasonTokenInvalid,
		}, nil)

	_, err := f.uc.Execute(context.Background(), validCommand())
	assertAppErrorType(t, err, apperrors.ErrorTypeForbidden)
}

func TestRequestAnalysis_AttestationNotConfiguredProduction(t *testing.T) {
	f := newFixture(t)

	f.counter.On("Allow", mock.Anything, "device-abc", mock.Anything).Return(true, nil)
	f.gate.On("Verify", mock.Anything, "token", "device-abc").
		Return(attestation.Verification{}, attestation.ErrNotConfigured)

	_, err := f.uc.Execute(context.Background(), validCommand())
	assertAppErrorType(t, err, apperrors.ErrorTypeMisconfigured)
}

func TestRequestAnalysis_AttestationNotConfiguredDevelopment(t *testing.T) {
	f := newFixture(t)

	f.counter.On("Allow", mock.Anything, "device-abc", mock.Anything).Return(true, nil)
	f.gate.On("Verify", mock.Anything, "token", "device-abc").
		Return(attestation.Verification{Outcome: attestation.OutcomeNotConfigured}, nil)
	f.accounts.On("AuthorizeAndReserve", mock.Anything, "device-abc", 5*time.Minute).
		Return(testReservation(t), nil)
	f.analyzer.On("Analyze", mock.Anything, "tank-1", mock.Anything).
		Return(&analysis.Result{Summary: "ok"}, nil)
	f.accounts.On("Settle", mock.Anything, "rsv_test1", credit.OutcomeConsumed).Return(nil)
	f.accounts.On("GetOrCreate", mock.Anything, "device-abc").Return(testAccount(t, 1, 0), nil)

	_, err := f.uc.Execute(context.Background(), validCommand())
	assert.NoError(t, err, "unconfigured gate proceeds outside production")
}

func TestRequestAnalysis_VendorUnavailable(t *testing.T) {
	f := newFixture(t)

	f.counter.On("Allow", mock.Anything, "device-abc", mock.Anything).Return(true, nil)
	f.gate.On("Verify", mock.Anything, "token", "device-abc").
		Return(attestation.Verification{}, attestation.ErrVendorUnavailable)

	_, err := f.uc.Execute(context.Background(), validCommand())
	assertAppErrorType(t, err, apperrors.ErrorTypeUpstream)
}

func TestRequestAnalysis_InsufficientCredit(t *testing.T) {
	f := newFixture(t)

	f.counter.On("Allow", mock.Anything, "device-abc", mock.Anything).Return(true, nil)
	f.gate.On("Verify", mock.Anything, "token", "device-abc").
		Return(attestation.Verification{Outcome: attestation.OutcomeVerified}, nil)
	f.accounts.On("AuthorizeAndReserve", mock.Anything, "device-abc", 5*time.Minute).
		Return(nil, credit.ErrInsufficientCredit)

	_, err := f.uc.Execute(context.Background(), validCommand())
	assertAppErrorType(t, err, apperrors.ErrorTypePaymentRequired)
}

func TestRequestAnalysis_AnalyzerFailureReleasesHold(t *testing.T) {
	f := newFixture(t)

	f.counter.On("Allow", mock.Anything, "device-abc", mock.Anything).Return(true, nil)
	f.gate.On("Verify", mock.Anything, "token", "device-abc").
		Return(attestation.Verification{Outcome: attestation.OutcomeVerified}, nil)
	f.accounts.On("AuthorizeAndReserve", mock.Anything, "device-abc", 5*time.Minute).
		Return(testReservation(t), nil)
	f.analyzer.On("Analyze", mock.Anything, "tank-1", mock.Anything).
		Return(nil, analysis.ErrUpstreamUnavailable)
	f.accounts.On("Settle", mock.Anything, "rsv_test1", credit.OutcomeReleased).Return(nil)

	_, err := f.uc.Execute(context.Background(), validCommand())
	assertAppErrorType(t, err, apperrors.ErrorTypeUpstream)

	f.accounts.AssertCalled(t, "Settle", mock.Anything, "rsv_test1", credit.OutcomeReleased)
}

func TestRequestAnalysis_SettleRunsAfterClientCancel(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())

	f.counter.On("Allow", mock.Anything, "device-abc", mock.Anything).Return(true, nil)
	f.gate.On("Verify", mock.Anything, "token", "device-abc").
		Return(attestation.Verification{Outcome: attestation.OutcomeVerified}, nil)
	f.accounts.On("AuthorizeAndReserve", mock.Anything, "device-abc", 5*time.Minute).
		Return(testReservation(t), nil)
	f.analyzer.On("Analyze", mock.Anything, "tank-1", mock.Anything).
		Run(func(args mock.Arguments) { cancel() }).
		Return(&analysis.Result{Summary: "ok"}, nil)
	f.accounts.On("Settle", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), "rsv_test1", credit.OutcomeConsumed).Return(nil)
	f.accounts.On("GetOrCreate", mock.Anything, "device-abc").Return(testAccount(t, 1, 0), nil)

	_, err := f.uc.Execute(ctx, validCommand())
	assert.NoError(t, err)
}
