package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_006"
	ErrCodeTimeout            ErrorCode = "COMMON_007"
	ErrCodeValidation         ErrorCode = "COMMON_008"
	ErrCodeSerialization      ErrorCode = "COMMON_009"
	ErrCodeDatabaseError      ErrorCode = "COMMON_010"
	ErrCodeCacheError         ErrorCode = "COMMON_011"
	ErrCodeNotImplemented     ErrorCode = "COMMON_012"
)

// Short aliases used throughout the application layers.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeRateLimit    = ErrCodeTooManyRequests
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// Configuration Error Codes.  Any CFG_xxx error is fatal at startup: the
// process must refuse to score anything with an invalid configuration.
const (
	ErrCodeConfigInvalid       ErrorCode = "CFG_001"
	ErrCodeWeightSumInvalid    ErrorCode = "CFG_002"
	ErrCodeCostTableInvalid    ErrorCode = "CFG_003"
	ErrCodeRevenueTierInvalid  ErrorCode = "CFG_004"
	ErrCodeQueryPanelEmpty     ErrorCode = "CFG_005"
)

// Provider Error Codes.  Recoverable: a provider failure degrades the
// affected component's confidence, it never fails a scoring cycle.
const (
	ErrCodeProviderUnavailable ErrorCode = "PROV_001"
	ErrCodeProviderRateLimited ErrorCode = "PROV_002"
	ErrCodeProviderTimeout     ErrorCode = "PROV_003"
	ErrCodeProviderEmptyData   ErrorCode = "PROV_004"
	ErrCodeProviderParseError  ErrorCode = "PROV_005"
)

// Scoring Error Codes.
const (
	ErrCodeScoreOutOfRange      ErrorCode = "SCORE_001"
	ErrCodeDealerInvalid        ErrorCode = "SCORE_002"
	ErrCodeDealerNotFound       ErrorCode = "SCORE_003"
	ErrCodeScoreHistoryEmpty    ErrorCode = "SCORE_004"
	ErrCodeInsightGenFailed     ErrorCode = "SCORE_005"
)

// Validation Error Codes.  Non-fatal: validation failures flag results for
// manual review, they never block the automated result.
const (
	ErrCodeValidationDiverged   ErrorCode = "VAL_001"
	ErrCodeCrossSourceDisagree  ErrorCode = "VAL_002"
	ErrCodeSpotCheckFailed      ErrorCode = "VAL_003"
	ErrCodeHealthThresholdBreach ErrorCode = "VAL_004"
)

// Model Error Codes.
const (
	ErrCodeModelNotDeployed     ErrorCode = "MODEL_001"
	ErrCodeModelTrainingFailed  ErrorCode = "MODEL_002"
	ErrCodeModelGateRejected    ErrorCode = "MODEL_003"
	ErrCodeModelArtifactCorrupt ErrorCode = "MODEL_004"
	ErrCodeModelInputInvalid    ErrorCode = "MODEL_005"
)

// Batch Error Codes.
const (
	ErrCodeBatchEntityFailed ErrorCode = "BATCH_001"
	ErrCodeBatchAborted      ErrorCode = "BATCH_002"
	ErrCodeBatchEmptyFleet   ErrorCode = "BATCH_003"
)

// Alerting Error Codes.
const (
	ErrCodeAlertDeliveryFailed ErrorCode = "ALERT_001"
	ErrCodeReviewQueueFailed   ErrorCode = "ALERT_002"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeConfigInvalid:      http.StatusInternalServerError,
	ErrCodeWeightSumInvalid:   http.StatusInternalServerError,
	ErrCodeCostTableInvalid:   http.StatusInternalServerError,
	ErrCodeRevenueTierInvalid: http.StatusInternalServerError,
	ErrCodeQueryPanelEmpty:    http.StatusInternalServerError,

	ErrCodeProviderUnavailable: http.StatusServiceUnavailable,
	ErrCodeProviderRateLimited: http.StatusTooManyRequests,
	ErrCodeProviderTimeout:     http.StatusGatewayTimeout,
	ErrCodeProviderEmptyData:   http.StatusBadGateway,
	ErrCodeProviderParseError:  http.StatusBadGateway,

	ErrCodeScoreOutOfRange:   http.StatusInternalServerError,
	ErrCodeDealerInvalid:     http.StatusBadRequest,
	ErrCodeDealerNotFound:    http.StatusNotFound,
	ErrCodeScoreHistoryEmpty: http.StatusNotFound,
	ErrCodeInsightGenFailed:  http.StatusInternalServerError,

	ErrCodeValidationDiverged:    http.StatusInternalServerError,
	ErrCodeCrossSourceDisagree:   http.StatusInternalServerError,
	ErrCodeSpotCheckFailed:       http.StatusInternalServerError,
	ErrCodeHealthThresholdBreach: http.StatusInternalServerError,

	ErrCodeModelNotDeployed:     http.StatusServiceUnavailable,
	ErrCodeModelTrainingFailed:  http.StatusInternalServerError,
	ErrCodeModelGateRejected:    http.StatusInternalServerError,
	ErrCodeModelArtifactCorrupt: http.StatusInternalServerError,
	ErrCodeModelInputInvalid:    http.StatusBadRequest,

	ErrCodeBatchEntityFailed: http.StatusInternalServerError,
	ErrCodeBatchAborted:      http.StatusInternalServerError,
	ErrCodeBatchEmptyFleet:   http.StatusBadRequest,

	ErrCodeAlertDeliveryFailed: http.StatusInternalServerError,
	ErrCodeReviewQueueFailed:   http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeConfigInvalid:      "invalid configuration",
	ErrCodeWeightSumInvalid:   "weights do not sum to 1.0",
	ErrCodeCostTableInvalid:   "malformed cost table",
	ErrCodeRevenueTierInvalid: "malformed revenue tier",
	ErrCodeQueryPanelEmpty:    "query panel is empty",

	ErrCodeProviderUnavailable: "data provider unavailable",
	ErrCodeProviderRateLimited: "data provider rate limited",
	ErrCodeProviderTimeout:     "data provider timed out",
	ErrCodeProviderEmptyData:   "data provider returned no data",
	ErrCodeProviderParseError:  "failed to parse provider response",

	ErrCodeScoreOutOfRange:   "score out of range",
	ErrCodeDealerInvalid:     "invalid dealer record",
	ErrCodeDealerNotFound:    "dealer not found",
	ErrCodeScoreHistoryEmpty: "no historical scores for dealer",
	ErrCodeInsightGenFailed:  "insight generation failed",

	ErrCodeValidationDiverged:    "score diverges from historical trend",
	ErrCodeCrossSourceDisagree:   "cross-source ranking disagreement",
	ErrCodeSpotCheckFailed:       "manual spot-check disagreement",
	ErrCodeHealthThresholdBreach: "health metric breached target threshold",

	ErrCodeModelNotDeployed:     "no credibility model deployed",
	ErrCodeModelTrainingFailed:  "credibility model training failed",
	ErrCodeModelGateRejected:    "trained model rejected by quality gate",
	ErrCodeModelArtifactCorrupt: "model artifact corrupt or unreadable",
	ErrCodeModelInputInvalid:    "invalid feature vector",

	ErrCodeBatchEntityFailed: "entity scoring failed inside batch",
	ErrCodeBatchAborted:      "batch run aborted",
	ErrCodeBatchEmptyFleet:   "batch run requested with no entities",

	ErrCodeAlertDeliveryFailed: "failed to deliver alert",
	ErrCodeReviewQueueFailed:   "failed to enqueue manual review",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
