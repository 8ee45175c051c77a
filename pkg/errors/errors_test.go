package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeDealerNotFound, "dealer missing")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeDealerNotFound, err.Code)
	assert.Equal(t, "dealer missing", err.Message)
	assert.NotEmpty(t, err.Stack)
	assert.Equal(t, "[SCORE_003] dealer missing", err.Error())
}

func TestErrorWithDetail(t *testing.T) {
	err := New(ErrCodeProviderTimeout, "search source timed out").WithDetail("dealer=d-0042")
	assert.Equal(t, "[PROV_003] search source timed out: dealer=d-0042", err.Error())
}

func TestWithDetailNilReceiver(t *testing.T) {
	var err *AppError
	assert.Nil(t, err.WithDetail("ignored"))
}

func TestWithDetailDoesNotMutateOriginal(t *testing.T) {
	orig := New(ErrCodeInternal, "boom")
	clone := orig.WithDetail("extra")
	assert.Empty(t, orig.Detail)
	assert.Equal(t, "extra", clone.Detail)
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(cause, ErrCodeDatabaseError, "query failed")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeDatabaseError, err.Code)
	assert.True(t, stderrors.Is(err, cause))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeDatabaseError, "never happens"))
}

func TestWrapPreservesCodeWhenUnknown(t *testing.T) {
	inner := New(ErrCodeProviderRateLimited, "slow down")
	outer := Wrap(inner, CodeUnknown, "while fetching backlinks")
	assert.Equal(t, ErrCodeProviderRateLimited, outer.Code)
}

func TestIsCode(t *testing.T) {
	inner := New(ErrCodeModelGateRejected, "r2 below threshold")
	wrapped := fmt.Errorf("training cycle: %w", inner)
	assert.True(t, IsCode(wrapped, ErrCodeModelGateRejected))
	assert.False(t, IsCode(wrapped, ErrCodeModelTrainingFailed))
	assert.False(t, IsCode(nil, ErrCodeModelGateRejected))
}

func TestIsModule(t *testing.T) {
	err := Wrap(New(ErrCodeProviderTimeout, "timeout"), ErrCodeInternal, "pillar fetch")
	assert.True(t, IsModule(err, "PROV"))
	assert.False(t, IsModule(err, "MODEL"))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(RateLimit("quota spent")))
	assert.True(t, IsRetryable(New(ErrCodeProviderTimeout, "deadline")))
	assert.False(t, IsRetryable(New(ErrCodeProviderEmptyData, "nothing back")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(New(ErrCodeDealerNotFound, "no such dealer")))
	assert.True(t, IsNotFound(New(ErrCodeScoreHistoryEmpty, "no scores yet")))
	assert.False(t, IsNotFound(New(ErrCodeInternal, "boom")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeBatchEntityFailed, GetCode(New(ErrCodeBatchEntityFailed, "k failed")))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "PROV", ModuleForCode(ErrCodeProviderTimeout))
	assert.Equal(t, "CFG", ModuleForCode(ErrCodeWeightSumInvalid))
	assert.Equal(t, "UNKNOWN", ModuleForCode(ErrorCode("")))
}

func TestHTTPStatusForCode(t *testing.T) {
	assert.Equal(t, 429, HTTPStatusForCode(ErrCodeProviderRateLimited))
	assert.Equal(t, 404, HTTPStatusForCode(ErrCodeDealerNotFound))
	assert.Equal(t, 500, HTTPStatusForCode(ErrorCode("NOPE_999")))
}

func TestClientServerErrorClassification(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeDealerInvalid))
	assert.False(t, IsClientError(ErrCodeModelTrainingFailed))
	assert.True(t, IsServerError(ErrCodeModelTrainingFailed))
}
