package endpoints

import (
	"errors"
)

const (
	API_SUCCESS      = iota + 303000 // 303000
	API_FAILURE                      // 303001 - Generic API failure
	API_UNAUTHORIZED                 // 303002 - Authentication/Authorization failure
)

const (
	REPORTS_NOT_AVAILABLE = iota + 101 // 101 - No reports found for the given criteria
	INVALID_REQUEST_BODY               // 102 - Error parsing request body
	INVALID_PARAMETERS                 // 103 - Invalid URL or query parameters
	INVALID_TIME_RANGE                 // 104 - Start time is after end time
	REQUEST_CANCELLED                  // 105 - Request was cancelled by client or server timeout
	EMPTY_SNAPSHOT                     // 106 - Beacon carried no metric values
	INVALID_METRIC_VALUE               // 107 - A metric value failed validation
	INVALID_ENTRIES                    // 108 - Replay entries failed validation
	NO_METRICS_OBSERVED                // 109 - Replayed entries produced no metric
	PAYLOAD_TOO_LARGE                  // 110 - Request body exceeds the configured limit
	RATE_LIMITED                       // 111 - Too many requests from one client
)

var (
	ErrNoReportsAvailable = errors.New("no reports available for the specified criteria")
	ErrInvalidRequestBody = errors.New("invalid request body format or missing fields")
	ErrInvalidParameters  = errors.New("invalid limit, offset, start or end parameter; must be integers")
	ErrInvalidTimeRange   = errors.New("start timestamp cannot be after end timestamp")
	ErrRequestCancelled   = errors.New("request cancelled by client or server timeout")
	ErrEmptySnapshot      = errors.New("snapshot does not contain any metric")
	ErrInvalidMetricValue = errors.New("metric values must be non-negative numbers")
	ErrInvalidEntries     = errors.New("entries are missing or malformed")
	ErrNoMetricsObserved  = errors.New("entries did not produce any metric")
	ErrPayloadTooLarge    = errors.New("request body too large")
	ErrRateLimited        = errors.New("too many requests")
)

func GetErrorCode(err error) int {
	if err == nil {
		return API_SUCCESS
	}

	switch {
	case errors.Is(err, ErrNoReportsAvailable):
		return REPORTS_NOT_AVAILABLE
	case errors.Is(err, ErrInvalidRequestBody):
		return INVALID_REQUEST_BODY
	case errors.Is(err, ErrInvalidParameters):
		return INVALID_PARAMETERS
	case errors.Is(err, ErrInvalidTimeRange):
		return INVALID_TIME_RANGE
	case errors.Is(err, ErrRequestCancelled):
		return REQUEST_CANCELLED
	case errors.Is(err, ErrEmptySnapshot):
		return EMPTY_SNAPSHOT
	case errors.Is(err, ErrInvalidMetricValue):
		return INVALID_METRIC_VALUE
	case errors.Is(err, ErrInvalidEntries):
		return INVALID_ENTRIES
	case errors.Is(err, ErrNoMetricsObserved):
		return NO_METRICS_OBSERVED
	case errors.Is(err, ErrPayloadTooLarge):
		return PAYLOAD_TOO_LARGE
	case errors.Is(err, ErrRateLimited):
		return RATE_LIMITED
	default:
		return API_FAILURE // Default for any unhandled error
	}
}
