package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, r *Registry) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.registry == nil {
		t.Error("registry field is nil")
	}
	if r.Journal == nil {
		t.Error("Journal is nil")
	}
	if r.RequestsTotal == nil {
		t.Error("RequestsTotal is nil")
	}
	if r.RequestDuration == nil {
		t.Error("RequestDuration is nil")
	}
}

func TestGlobal(t *testing.T) {
	r1 := Global()
	r2 := Global()
	if r1 != r2 {
		t.Error("Global() should return the same instance")
	}
}

func TestHandler(t *testing.T) {
	h := Handler()
	if h == nil {
		t.Fatal("Handler() returned nil")
	}

	body := scrape(t, Global())
	if !strings.Contains(body, "go_goroutines") {
		t.Error("expected go_goroutines metric")
	}
	if !strings.Contains(body, "process_") {
		t.Error("expected process metrics")
	}
}

func TestJournalMetrics(t *testing.T) {
	r := NewRegistry()

	r.Journal.ObserveUpdate(10, 22)
	r.Journal.ObserveUpdate(6, 32)
	r.Journal.ObserveSync(time.Millisecond)
	r.Journal.ObserveSnapshot(3, 128, 5*time.Millisecond)
	r.Journal.ObserveRecover(time.Millisecond, 4, true)
	r.Journal.StaleRemovalFailed()

	body := scrape(t, r)

	for _, want := range []string{
		"relog_journal_updates_total 2",
		"relog_journal_update_bytes_total 16",
		"relog_journal_snapshots_total 1",
		"relog_journal_generation 3",
		"relog_journal_snapshot_bytes 128",
		"relog_journal_log_bytes 32",
		"relog_journal_replayed_updates_total 4",
		"relog_journal_truncated_tails_total 1",
		"relog_journal_stale_removal_failures_total 1",
		"relog_journal_sync_duration_seconds_count 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestJournalMetrics_NilSafe(t *testing.T) {
	var j *Journal

	// None of these should panic.
	j.ObserveUpdate(1, 1)
	j.ObserveSync(time.Second)
	j.ObserveSnapshot(1, 1, time.Second)
	j.ObserveRecover(time.Second, 1, false)
	j.StaleRemovalFailed()
	j.SetGeneration(1)
	j.SetSizes(1, 1)
}

func TestRequestMetrics(t *testing.T) {
	r := NewRegistry()

	r.RecordRequest("GET", "/v1/kv/{key}", "200")
	r.RecordRequest("PUT", "/v1/kv/{key}", "204")
	r.ObserveRequestDuration("GET", "/v1/kv/{key}", 0.005)

	body := scrape(t, r)

	if !strings.Contains(body, `relog_requests_total{method="GET",route="/v1/kv/{key}",status="200"} 1`) {
		t.Error("expected relog_requests_total for GET 200")
	}
	if !strings.Contains(body, "relog_request_duration_seconds_count") {
		t.Error("expected relog_request_duration_seconds_count")
	}
}

type fakeStats struct{ s StoreStats }

func (f fakeStats) StoreStats() StoreStats { return f.s }

func TestStoreCollector(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewStoreCollector(fakeStats{StoreStats{Entries: 7, Pending: 3}})); err != nil {
		t.Fatalf("Register: %v", err)
	}

	body := scrape(t, r)
	if !strings.Contains(body, "relog_kv_entries 7") {
		t.Error("expected relog_kv_entries 7")
	}
	if !strings.Contains(body, "relog_kv_pending_updates 3") {
		t.Error("expected relog_kv_pending_updates 3")
	}
}
