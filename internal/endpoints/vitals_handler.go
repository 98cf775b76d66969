package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"vitals-app/internal/domain"
	"vitals-app/internal/util"
	"vitals-app/internal/vitals"

	"github.com/gorilla/mux"
)

const (
	defaultLimit  = 100
	defaultWindow = 24 * time.Hour
)

type ReportsRequest struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// SummaryResponse is a Summary with the rating and score of its averages.
type SummaryResponse struct {
	domain.Summary
	Ratings map[domain.MetricName]domain.Rating `json:"ratings"`
	Score   float64                             `json:"score"`
}

// Vitals serves stored reports.
type Vitals struct {
	Response APIResponse
	logger   *util.VitalsLogger
	store    domain.ReportStore
	now      func() time.Time
}

func (v *Vitals) Init(store domain.ReportStore, logger *util.VitalsLogger) {
	v.store = store
	v.logger = logger
	v.now = time.Now
}

func (v *Vitals) GetReportsHandler(w http.ResponseWriter, r *http.Request) {

	if r.Method != http.MethodGet {
		v.logger.LogEvent(util.LOG_LEVEL_ERROR, "Method Not Allowed. Only GET requests are supported", http.StatusMethodNotAllowed)
		v.Response.WriteErrorResponseWithStatusCode(w, errors.New("method Not Allowed. Only GET requests are supported"), http.StatusMethodNotAllowed)
		return
	}

	routeParamValue := mux.Vars(r)

	limit, err := strconv.Atoi(routeParamValue["limit"])
	if err != nil {
		v.logger.LogEvent(util.LOG_LEVEL_ERROR, "While getting limit from URL. Err - ", err)
		v.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidParameters, http.StatusBadRequest)
		return
	}

	offset, err := strconv.Atoi(routeParamValue["offset"])
	if err != nil {
		v.logger.LogEvent(util.LOG_LEVEL_ERROR, "While getting offset from URL. Err - ", err)
		v.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidParameters, http.StatusBadRequest)
		return
	}

	var reqBody ReportsRequest

	// An empty body selects the default range.
	err = json.NewDecoder(r.Body).Decode(&reqBody)
	if err != nil && !errors.Is(err, io.EOF) {
		v.logger.LogEvent(util.LOG_LEVEL_ERROR, "Occured while unmarshalling JSON Body. Err -", err)
		v.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidRequestBody, http.StatusBadRequest)
		return
	}

	startTime, endTime := v.timeRange(reqBody.Start, reqBody.End)
	if startTime > endTime {
		v.logger.LogEvent(util.LOG_LEVEL_ERROR, "Given startTime is greater than endTime. startTime - ", startTime, " endTime - ", endTime)
		v.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidTimeRange, http.StatusBadRequest)
		return
	}

	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	reports, err := v.store.GetReports(r.Context(), startTime, endTime, limit, offset)
	if err != nil {
		v.writeStoreError(w, "GetReports", err)
		return
	}

	if len(reports) == 0 {
		v.logger.LogEvent(util.LOG_LEVEL_WARN, "No reports in range", startTime, endTime)
		v.Response.WriteErrorResponseWithStatusCode(w, ErrNoReportsAvailable, http.StatusNotFound)
		return
	}

	v.Response.WriteResultResponse(w, reports)
}

// GetSummaryHandler averages stored reports between the start and end query
// parameters (unix seconds).
func (v *Vitals) GetSummaryHandler(w http.ResponseWriter, r *http.Request) {

	if r.Method != http.MethodGet {
		v.Response.WriteErrorResponseWithStatusCode(w, errors.New("method Not Allowed. Only GET requests are supported"), http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	start, err := queryInt64(query.Get("start"))
	if err != nil {
		v.logger.LogEvent(util.LOG_LEVEL_ERROR, "While parsing start. Err - ", err)
		v.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidParameters, http.StatusBadRequest)
		return
	}
	end, err := queryInt64(query.Get("end"))
	if err != nil {
		v.logger.LogEvent(util.LOG_LEVEL_ERROR, "While parsing end. Err - ", err)
		v.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidParameters, http.StatusBadRequest)
		return
	}

	startTime, endTime := v.timeRange(start, end)
	if startTime > endTime {
		v.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidTimeRange, http.StatusBadRequest)
		return
	}

	summary, err := v.store.GetSummary(r.Context(), startTime, endTime)
	if err != nil {
		v.writeStoreError(w, "GetSummary", err)
		return
	}

	if summary.Count == 0 {
		v.Response.WriteErrorResponseWithStatusCode(w, ErrNoReportsAvailable, http.StatusNotFound)
		return
	}

	v.Response.WriteResultResponse(w, SummaryResponse{
		Summary: summary,
		Ratings: vitals.Ratings(summary.Averages),
		Score:   vitals.Score(summary.Averages),
	})
}

// timeRange fills zero bounds with the last 24 hours.
func (v *Vitals) timeRange(start, end int64) (int64, int64) {
	now := v.now()
	if start == 0 {
		start = now.Add(-defaultWindow).Unix()
	}
	if end == 0 {
		end = now.Unix()
	}
	return start, end
}

func (v *Vitals) writeStoreError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, context.Canceled) {
		v.logger.LogEvent(util.LOG_LEVEL_WARN, "Context cancelled during", op)
		v.Response.WriteErrorResponseWithStatusCode(w, ErrRequestCancelled, http.StatusRequestTimeout)
		return
	}
	v.logger.LogEvent(util.LOG_LEVEL_ERROR, "Occured while "+op+"(). Err - ", err)
	v.Response.WriteErrorResponse(w, err)
}

func queryInt64(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
