package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/swarnabindu/prashan/internal/domain/offlinesync"
	"github.com/swarnabindu/prashan/internal/domain/registration"
)

func TestFetchRegistrations(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/v1/sync" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("last_sync")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"total":1,"server_time":"2026-10-18T09:00:00Z",
			"data":[{"serial_no":"SP123456ABC","child_name":"आरव","ward":3,"contact_number":"9841000000"}]}`))
	}))
	defer srv.Close()

	since := time.Date(2026, time.October, 1, 6, 30, 0, 0, time.FixedZone("NPT", 20700))
	pull, err := New(srv.URL+"/").FetchRegistrations(context.Background(), &since)
	if err != nil {
		t.Fatalf("FetchRegistrations: %v", err)
	}
	if gotQuery != "2026-10-01T00:45:00Z" {
		t.Errorf("expected UTC last_sync, got %q", gotQuery)
	}
	if pull.Total != 1 || len(pull.Registrations) != 1 {
		t.Fatalf("unexpected pull %+v", pull)
	}
	r := pull.Registrations[0]
	if r.SerialNo != "SP123456ABC" || r.Ward != "3" || !r.Synced {
		t.Errorf("unexpected registration %+v", r)
	}
	if !pull.ServerTime.Equal(time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected server time %v", pull.ServerTime)
	}
}

func TestFetchRegistrations_NoSince(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("expected no query, got %q", r.URL.RawQuery)
		}
		w.Write([]byte(`{"success":true,"data":[],"total":0}`))
	}))
	defer srv.Close()

	pull, err := New(srv.URL).FetchRegistrations(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchRegistrations: %v", err)
	}
	if len(pull.Registrations) != 0 {
		t.Errorf("expected no registrations, got %d", len(pull.Registrations))
	}
}

func TestPushBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if dev := r.Header.Get("X-Device-ID"); dev != "tab-07" {
			t.Errorf("expected device header, got %q", dev)
		}
		var b offlinesync.Batch
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			t.Fatalf("decode batch: %v", err)
		}
		if len(b.Registrations) != 2 {
			t.Errorf("expected 2 registrations, got %d", len(b.Registrations))
		}
		json.NewEncoder(w).Encode(offlinesync.Response{
			Success: true,
			Message: "Sync completed",
			Results: offlinesync.Results{
				Registrations: offlinesync.Tally{Success: 1, Failed: 1, Errors: []offlinesync.ItemError{{ID: "l-2", Error: "bad"}}},
			},
		})
	}))
	defer srv.Close()

	b := offlinesync.Batch{Registrations: []json.RawMessage{
		json.RawMessage(`{"local_id":"l-1"}`), json.RawMessage(`{"local_id":"l-2"}`),
	}}
	res, err := New(srv.URL, WithDeviceID("tab-07")).PushBatch(context.Background(), b)
	if err != nil {
		t.Fatalf("PushBatch: %v", err)
	}
	if res.Registrations.Success != 1 || !res.Failed()["l-2"] {
		t.Errorf("unexpected results %+v", res)
	}
}

func TestPushBatch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"message":"Nothing to sync"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).PushBatch(context.Background(), offlinesync.Batch{})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusBadRequest || se.Message != "Nothing to sync" {
		t.Errorf("unexpected status error %+v", se)
	}
}

func TestFetchRegistrations_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if _, err := New(url).FetchRegistrations(context.Background(), nil); err == nil {
		t.Error("expected error for closed server")
	}
}

// pagedServer serves total registrations from GET /api/v1/sync in pages of
// offlinesync.PullLimit, newest serial first.
func pagedServer(t *testing.T, total int, offsets *[]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := 0
		if raw := r.URL.Query().Get("offset"); raw != "" {
			offset, _ = strconv.Atoi(raw)
		}
		*offsets = append(*offsets, offset)
		data := []*registration.Registration{}
		for i := offset; i < total && len(data) < offlinesync.PullLimit; i++ {
			data = append(data, &registration.Registration{SerialNo: fmt.Sprintf("SP%07d", total-i)})
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success":     true,
			"data":        data,
			"total":       total,
			"server_time": "2026-10-18T09:00:00Z",
		})
	}))
}

func TestRegistrations_FollowsPages(t *testing.T) {
	var offsets []int
	total := offlinesync.PullLimit + 500
	srv := pagedServer(t, total, &offsets)
	defer srv.Close()

	regs, err := New(srv.URL).Registrations(context.Background())
	if err != nil {
		t.Fatalf("Registrations: %v", err)
	}
	if len(regs) != total {
		t.Fatalf("expected %d registrations, got %d", total, len(regs))
	}
	if len(offsets) != 2 || offsets[0] != 0 || offsets[1] != offlinesync.PullLimit {
		t.Errorf("unexpected page offsets %v", offsets)
	}
	if regs[total-1].SerialNo != "SP0000001" || !regs[total-1].Synced {
		t.Errorf("oldest registration missing or unsynced: %+v", regs[total-1])
	}
}

func TestFetchRegistrations_ShortPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") != "" {
			w.Write([]byte(`{"success":true,"data":[],"total":3}`))
			return
		}
		w.Write([]byte(`{"success":true,"total":3,"data":[{"serial_no":"SP1"},{"serial_no":"SP2"}]}`))
	}))
	defer srv.Close()

	if _, err := New(srv.URL).FetchRegistrations(context.Background(), nil); err == nil {
		t.Error("expected error when the server stops short of its total")
	}
}
