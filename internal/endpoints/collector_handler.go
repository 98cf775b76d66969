package endpoints

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"vitals-app/internal/domain"
	"vitals-app/internal/util"
	"vitals-app/internal/vitals"

	"github.com/go-playground/validator/v10"
)

const (
	SourceBeacon  = "beacon"
	SourceEntries = "entries"

	defaultMaxBodySize    = 64 << 10
	defaultNavigationType = "navigate"
)

// Publisher receives every stored report.
type Publisher interface {
	Publish(report domain.Report)
}

// Recorder is the analytics sink used for replayed sessions. It also sees
// every stored report.
type Recorder interface {
	vitals.AnalyticsSink
	ObserveReport(source string, report domain.Report)
}

type CollectorOptions struct {
	Publisher   Publisher
	Recorder    Recorder
	MaxBodySize int64
}

// EntriesRequest is a page view expressed as raw performance entries.
type EntriesRequest struct {
	Page           string         `json:"page" validate:"max=2048"`
	NavigationType string         `json:"navigation_type" validate:"omitempty,oneof=navigate reload back-forward back-forward-cache prerender restore"`
	Entries        []domain.Entry `json:"entries" validate:"required,min=1,max=5000,dive"`
}

type EntriesResponse struct {
	Report  domain.Report                       `json:"report"`
	Ratings map[domain.MetricName]domain.Rating `json:"ratings"`
}

// Collector receives snapshots from pages and stores them as reports.
type Collector struct {
	Response    APIResponse
	logger      *util.VitalsLogger
	store       domain.ReportStore
	publisher   Publisher
	recorder    Recorder
	validate    *validator.Validate
	maxBodySize int64
	now         func() time.Time
}

func (c *Collector) Init(store domain.ReportStore, logger *util.VitalsLogger, opts CollectorOptions) {
	c.store = store
	c.logger = logger
	c.publisher = opts.Publisher
	c.recorder = opts.Recorder
	c.maxBodySize = opts.MaxBodySize
	if c.maxBodySize <= 0 {
		c.maxBodySize = defaultMaxBodySize
	}
	c.validate = validator.New()
	c.now = time.Now
}

// BeaconHandler accepts the page-hide snapshot. Browsers send it as
// text/plain so the content type is not checked.
func (c *Collector) BeaconHandler(w http.ResponseWriter, r *http.Request) {

	if r.Method != http.MethodPost {
		c.Response.WriteErrorResponseWithStatusCode(w, errors.New("method Not Allowed. Only POST requests are supported"), http.StatusMethodNotAllowed)
		return
	}

	var snap domain.Snapshot
	if err := c.decode(w, r, &snap); err != nil {
		c.logger.LogEvent(util.LOG_LEVEL_ERROR, "Beacon body rejected. Err - ", err)
		c.writeDecodeError(w, err)
		return
	}

	if err := c.validate.Struct(snap); err != nil {
		c.logger.LogEvent(util.LOG_LEVEL_ERROR, "Beacon values rejected. Err - ", err)
		c.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidMetricValue, http.StatusBadRequest)
		return
	}

	if snap.IsEmpty() {
		c.logger.LogEvent(util.LOG_LEVEL_WARN, "Empty beacon snapshot")
		c.Response.WriteErrorResponseWithStatusCode(w, ErrEmptySnapshot, http.StatusBadRequest)
		return
	}

	report := domain.Report{
		Timestamp:      c.now().Unix(),
		Page:           pageOf(r),
		NavigationType: navigationTypeOf(r.URL.Query().Get("navigation_type")),
		Score:          vitals.Score(snap),
		Snapshot:       snap,
	}

	report, ok := c.persist(w, r.Context(), SourceBeacon, report)
	if !ok {
		return
	}
	c.Response.WriteResultResponse(w, report)
}

// EntriesHandler replays raw entries through a production session and
// stores the resulting snapshot.
func (c *Collector) EntriesHandler(w http.ResponseWriter, r *http.Request) {

	if r.Method != http.MethodPost {
		c.Response.WriteErrorResponseWithStatusCode(w, errors.New("method Not Allowed. Only POST requests are supported"), http.StatusMethodNotAllowed)
		return
	}

	var req EntriesRequest
	if err := c.decode(w, r, &req); err != nil {
		c.logger.LogEvent(util.LOG_LEVEL_ERROR, "Entries body rejected. Err - ", err)
		c.writeDecodeError(w, err)
		return
	}

	if err := c.validate.Struct(req); err != nil {
		c.logger.LogEvent(util.LOG_LEVEL_ERROR, "Entries rejected. Err - ", err)
		c.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidEntries, http.StatusBadRequest)
		return
	}

	var analytics vitals.AnalyticsSink
	if c.recorder != nil {
		analytics = c.recorder
	}

	src := vitals.NewReplaySource()
	session := vitals.NewSession(src, vitals.Options{
		Env:            vitals.EnvProduction,
		NavigationType: req.NavigationType,
		Logger:         c.logger.Zap(),
		Analytics:      analytics,
	})
	session.Init()
	src.Dispatch(req.Entries...)
	snap := session.Snapshot()
	session.Disconnect()

	if snap.IsEmpty() {
		c.logger.LogEvent(util.LOG_LEVEL_WARN, "Replayed entries produced no metric", len(req.Entries))
		c.Response.WriteErrorResponseWithStatusCode(w, ErrNoMetricsObserved, http.StatusUnprocessableEntity)
		return
	}

	page := req.Page
	if page == "" {
		page = pageOf(r)
	}
	report := domain.Report{
		Timestamp:      c.now().Unix(),
		Page:           page,
		NavigationType: navigationTypeOf(req.NavigationType),
		Score:          session.Score(),
		Snapshot:       snap,
	}

	report, ok := c.persist(w, r.Context(), SourceEntries, report)
	if !ok {
		return
	}
	c.Response.WriteResultResponseWithStatusCode(w, EntriesResponse{
		Report:  report,
		Ratings: vitals.Ratings(snap),
	}, http.StatusCreated)
}

// persist stores report and fans it out. On failure the error response has
// already been written.
func (c *Collector) persist(w http.ResponseWriter, ctx context.Context, source string, report domain.Report) (domain.Report, bool) {
	id, err := c.store.StoreReport(ctx, report)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.logger.LogEvent(util.LOG_LEVEL_WARN, "Context cancelled during StoreReport")
			c.Response.WriteErrorResponseWithStatusCode(w, ErrRequestCancelled, http.StatusRequestTimeout)
			return report, false
		}
		c.logger.LogEvent(util.LOG_LEVEL_ERROR, "Occured while StoreReport(). Err - ", err)
		c.Response.WriteErrorResponse(w, err)
		return report, false
	}
	report.ID = id

	if c.recorder != nil {
		c.recorder.ObserveReport(source, report)
	}
	if c.publisher != nil {
		c.publisher.Publish(report)
	}
	c.logger.LogEvent(util.LOG_LEVEL_DEBUG, "Stored report", id, source, report.Page, report.Score)
	return report, true
}

func (c *Collector) decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

func (c *Collector) writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.Response.WriteErrorResponseWithStatusCode(w, ErrPayloadTooLarge, http.StatusRequestEntityTooLarge)
		return
	}
	c.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidRequestBody, http.StatusBadRequest)
}

func navigationTypeOf(nav string) string {
	if nav == "" {
		return defaultNavigationType
	}
	return nav
}

// pageOf returns the page query parameter, or the path of the referring page.
func pageOf(r *http.Request) string {
	if page := r.URL.Query().Get("page"); page != "" {
		return page
	}
	if ref := r.Referer(); ref != "" {
		if u, err := url.Parse(ref); err == nil && u.Path != "" {
			return u.Path
		}
	}
	return "/"
}
