// Package analytics keeps in-memory request counters per route and per field
// device so supervisors can see which tablets have stopped syncing.
package analytics

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/swarnabindu/prashan/internal/platform/middleware"
	"github.com/swarnabindu/prashan/pkg/apiresponse"
)

// RequestMetric is one handled API request.
type RequestMetric struct {
	Timestamp   time.Time     `json:"timestamp"`
	Method      string        `json:"method"`
	Route       string        `json:"route"`
	StatusCode  int           `json:"status_code"`
	Duration    time.Duration `json:"duration"`
	DeviceID    string        `json:"device_id"`
	RequestSize int64         `json:"request_size"`
}

func (m *RequestMetric) isError() bool { return m.StatusCode >= 400 }

// isSyncPush reports a batch upload from a device.
func (m *RequestMetric) isSyncPush() bool {
	return m.Method == http.MethodPost && strings.HasSuffix(m.Route, "/sync")
}

type routeStats struct {
	requests int64
	errors   int64
	duration int64
	statuses map[int]int64
}

type deviceStats struct {
	requests      int64
	errors        int64
	pushes        int64
	failedPushes  int64
	bytesSent     int64
	lastSeen      time.Time
	lastGoodPush  time.Time
	lastPushError time.Time
}

type RouteSummary struct {
	Route           string        `json:"route"`
	TotalRequests   int64         `json:"total_requests"`
	ErrorRate       float64       `json:"error_rate"`
	AvgLatency      time.Duration `json:"avg_latency"`
	StatusBreakdown map[int]int64 `json:"status_breakdown"`
}

// DeviceSummary describes one tablet's traffic. LastSync is the most recent
// push the server accepted.
type DeviceSummary struct {
	DeviceID      string     `json:"device_id"`
	TotalRequests int64      `json:"total_requests"`
	ErrorRate     float64    `json:"error_rate"`
	SyncPushes    int64      `json:"sync_pushes"`
	FailedPushes  int64      `json:"failed_pushes"`
	BytesSent     int64      `json:"bytes_sent"`
	LastSeen      time.Time  `json:"last_seen"`
	LastSync      *time.Time `json:"last_sync,omitempty"`
	LastPushError *time.Time `json:"last_push_error,omitempty"`
}

type Overview struct {
	TotalRequests int64           `json:"total_requests"`
	TotalErrors   int64           `json:"total_errors"`
	ErrorRate     float64         `json:"error_rate"`
	AvgLatency    time.Duration   `json:"avg_latency"`
	Devices       int             `json:"devices"`
	SyncPushes    int64           `json:"sync_pushes"`
	TopRoutes     []*RouteSummary `json:"top_routes"`
}

type Bucket struct {
	Start    time.Time `json:"start"`
	Requests int64     `json:"requests"`
	Errors   int64     `json:"errors"`
	Pushes   int64     `json:"pushes"`
}

// UsageTracker aggregates metrics. Recent metrics are kept in a fixed-size
// ring for time series; counters cover the whole process lifetime.
type UsageTracker struct {
	mu       sync.RWMutex
	ring     []RequestMetric
	next     int
	full     bool
	routes   map[string]*routeStats
	devices  map[string]*deviceStats
	requests int64
	errors   int64
	pushes   int64
	duration int64
}

func NewUsageTracker(capacity int) *UsageTracker {
	if capacity <= 0 {
		capacity = 10000
	}
	return &UsageTracker{
		ring:    make([]RequestMetric, capacity),
		routes:  make(map[string]*routeStats),
		devices: make(map[string]*deviceStats),
	}
}

func (t *UsageTracker) Record(m RequestMetric) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ring[t.next] = m
	t.next++
	if t.next == len(t.ring) {
		t.next = 0
		t.full = true
	}

	t.requests++
	t.duration += int64(m.Duration)
	if m.isError() {
		t.errors++
	}
	if m.isSyncPush() {
		t.pushes++
	}

	rs, ok := t.routes[m.Route]
	if !ok {
		rs = &routeStats{statuses: make(map[int]int64)}
		t.routes[m.Route] = rs
	}
	rs.requests++
	rs.duration += int64(m.Duration)
	rs.statuses[m.StatusCode]++
	if m.isError() {
		rs.errors++
	}

	if m.DeviceID == "" {
		return
	}
	ds, ok := t.devices[m.DeviceID]
	if !ok {
		ds = &deviceStats{}
		t.devices[m.DeviceID] = ds
	}
	ds.requests++
	ds.bytesSent += m.RequestSize
	if m.Timestamp.After(ds.lastSeen) {
		ds.lastSeen = m.Timestamp
	}
	if m.isError() {
		ds.errors++
	}
	if m.isSyncPush() {
		ds.pushes++
		if m.isError() {
			ds.failedPushes++
			ds.lastPushError = m.Timestamp
		} else if m.Timestamp.After(ds.lastGoodPush) {
			ds.lastGoodPush = m.Timestamp
		}
	}
}

func rate(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

func avg(total, n int64) time.Duration {
	if n == 0 {
		return 0
	}
	return time.Duration(total / n)
}

func (t *UsageTracker) routeSummary(route string, rs *routeStats) *RouteSummary {
	statuses := make(map[int]int64, len(rs.statuses))
	for k, v := range rs.statuses {
		statuses[k] = v
	}
	return &RouteSummary{
		Route:           route,
		TotalRequests:   rs.requests,
		ErrorRate:       rate(rs.errors, rs.requests),
		AvgLatency:      avg(rs.duration, rs.requests),
		StatusBreakdown: statuses,
	}
}

func (t *UsageTracker) deviceSummary(id string, ds *deviceStats) *DeviceSummary {
	s := &DeviceSummary{
		DeviceID:      id,
		TotalRequests: ds.requests,
		ErrorRate:     rate(ds.errors, ds.requests),
		SyncPushes:    ds.pushes,
		FailedPushes:  ds.failedPushes,
		BytesSent:     ds.bytesSent,
		LastSeen:      ds.lastSeen,
	}
	if !ds.lastGoodPush.IsZero() {
		last := ds.lastGoodPush
		s.LastSync = &last
	}
	if !ds.lastPushError.IsZero() {
		failed := ds.lastPushError
		s.LastPushError = &failed
	}
	return s
}

// TopRoutes returns the busiest routes first.
func (t *UsageTracker) TopRoutes(limit int) []*RouteSummary {
	t.mu.RLock()
	out := make([]*RouteSummary, 0, len(t.routes))
	for route, rs := range t.routes {
		out = append(out, t.routeSummary(route, rs))
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalRequests != out[j].TotalRequests {
			return out[i].TotalRequests > out[j].TotalRequests
		}
		return out[i].Route < out[j].Route
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Devices lists every device that has called the API, the one that has gone
// longest without a successful sync first.
func (t *UsageTracker) Devices() []*DeviceSummary {
	t.mu.RLock()
	out := make([]*DeviceSummary, 0, len(t.devices))
	for id, ds := range t.devices {
		out = append(out, t.deviceSummary(id, ds))
	}
	t.mu.RUnlock()

	syncedAt := func(d *DeviceSummary) time.Time {
		if d.LastSync == nil {
			return time.Time{}
		}
		return *d.LastSync
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := syncedAt(out[i]), syncedAt(out[j])
		if !a.Equal(b) {
			return a.Before(b)
		}
		return out[i].DeviceID < out[j].DeviceID
	})
	return out
}

// Device returns nil for an unknown id.
func (t *UsageTracker) Device(id string) *DeviceSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ds, ok := t.devices[id]
	if !ok {
		return nil
	}
	return t.deviceSummary(id, ds)
}

func (t *UsageTracker) Overview() *Overview {
	t.mu.RLock()
	o := &Overview{
		TotalRequests: t.requests,
		TotalErrors:   t.errors,
		ErrorRate:     rate(t.errors, t.requests),
		AvgLatency:    avg(t.duration, t.requests),
		Devices:       len(t.devices),
		SyncPushes:    t.pushes,
	}
	t.mu.RUnlock()
	o.TopRoutes = t.TopRoutes(5)
	return o
}

// TimeSeries buckets the retained metrics from now-window up to now.
func (t *UsageTracker) TimeSeries(interval, window time.Duration, now time.Time) []*Bucket {
	if interval <= 0 || window <= 0 {
		return nil
	}
	start := now.Add(-window).Truncate(interval)
	n := int(now.Sub(start)/interval) + 1
	buckets := make([]*Bucket, n)
	for i := range buckets {
		buckets[i] = &Bucket{Start: start.Add(time.Duration(i) * interval)}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	count := t.next
	if t.full {
		count = len(t.ring)
	}
	for i := 0; i < count; i++ {
		m := &t.ring[i]
		if m.Timestamp.Before(start) || m.Timestamp.After(now) {
			continue
		}
		b := buckets[int(m.Timestamp.Sub(start)/interval)]
		b.Requests++
		if m.isError() {
			b.Errors++
		}
		if m.isSyncPush() {
			b.Pushes++
		}
	}
	return buckets
}

// UsageMiddleware records every request. The route is echo's registered
// path so /registrations/:id counts as one route.
func UsageMiddleware(tracker *UsageTracker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			// The error handler writes the response after this returns.
			status := c.Response().Status
			if err != nil && !c.Response().Committed {
				status = http.StatusInternalServerError
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}

			req := c.Request()
			route := c.Path()
			if route == "" {
				route = req.URL.Path
			}
			var size int64
			if req.ContentLength > 0 {
				size = req.ContentLength
			}
			tracker.Record(RequestMetric{
				Timestamp:   start,
				Method:      req.Method,
				Route:       route,
				StatusCode:  status,
				Duration:    time.Since(start),
				DeviceID:    req.Header.Get(middleware.DeviceIDHeader),
				RequestSize: size,
			})
			return err
		}
	}
}

type UsageHandler struct {
	tracker *UsageTracker
	now     func() time.Time
}

func NewUsageHandler(tracker *UsageTracker, now func() time.Time) *UsageHandler {
	return &UsageHandler{tracker: tracker, now: now}
}

func (h *UsageHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/usage", h.HandleOverview)
	g.GET("/usage/routes", h.HandleRoutes)
	g.GET("/usage/devices", h.HandleDevices)
	g.GET("/usage/devices/:id", h.HandleDevice)
	g.GET("/usage/timeseries", h.HandleTimeSeries)
}

func (h *UsageHandler) HandleOverview(c echo.Context) error {
	return apiresponse.OK(c, http.StatusOK, "", h.tracker.Overview())
}

func (h *UsageHandler) HandleRoutes(c echo.Context) error {
	limit := 20
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 {
		limit = l
	}
	return apiresponse.OK(c, http.StatusOK, "", h.tracker.TopRoutes(limit))
}

func (h *UsageHandler) HandleDevices(c echo.Context) error {
	return apiresponse.OK(c, http.StatusOK, "", h.tracker.Devices())
}

func (h *UsageHandler) HandleDevice(c echo.Context) error {
	d := h.tracker.Device(c.Param("id"))
	if d == nil {
		return echo.NewHTTPError(http.StatusNotFound, "Device not found")
	}
	return apiresponse.OK(c, http.StatusOK, "", d)
}

func (h *UsageHandler) HandleTimeSeries(c echo.Context) error {
	interval := parseDuration(c.QueryParam("interval"), time.Hour)
	window := parseDuration(c.QueryParam("window"), 24*time.Hour)
	if window/interval > 1000 {
		return echo.NewHTTPError(http.StatusBadRequest, "Too many buckets requested")
	}
	return apiresponse.OK(c, http.StatusOK, "", h.tracker.TimeSeries(interval, window, h.now()))
}

// parseDuration accepts Go durations plus a "d" suffix for days.
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		if n, err := strconv.Atoi(days); err == nil && n > 0 {
			return time.Duration(n) * 24 * time.Hour
		}
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
