package scheduler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"seat_tracker/internal/fetcher"
	"seat_tracker/internal/model"
	"seat_tracker/internal/notify"
	"seat_tracker/internal/registry"
	"seat_tracker/internal/status"
	"seat_tracker/internal/storage"
)

// --- mocks ---

type sentMessage struct {
	ChatID string
	Text   string
}

type mockSender struct {
	mu       sync.Mutex
	messages []sentMessage
}

func (m *mockSender) SendMessage(chatID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, sentMessage{ChatID: chatID, Text: text})
	return nil
}

func (m *mockSender) getMessages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]sentMessage, len(m.messages))
	copy(cp, m.messages)
	return cp
}

type mockHTTP struct {
	body string
}

func (m *mockHTTP) Do(_ *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

type fetchResult struct {
	slots []model.Slot
	err   error
}

// fakeFetcher returns results in order and repeats the last one.
type fakeFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int
}

func (f *fakeFetcher) Fetch(_ context.Context) ([]model.Slot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	return f.results[i].slots, f.results[i].err
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type countingNotifier struct {
	mu    sync.Mutex
	slots []model.Slot
}

func (c *countingNotifier) Dispatch(_ context.Context, slot model.Slot) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots = append(c.slots, slot)
	return 1
}

func (c *countingNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}

type brokenStore struct{}

func (brokenStore) MarkSeen(context.Context, string) (bool, error) {
	return false, errors.New("disk I/O error")
}
func (brokenStore) CountSeen(context.Context) (int, error) { return 0, errors.New("disk I/O error") }
func (brokenStore) Close() error                           { return nil }

// --- helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../../testdata/calendar.html")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(data)
}

type harness struct {
	sched    *Scheduler
	registry *registry.Registry
	status   *status.Tracker
	seen     *storage.Memory
	sender   *mockSender
}

// newHarness wires a scheduler with the real fetcher and dispatcher.
func newHarness(t *testing.T, html string) *harness {
	t.Helper()
	reg := registry.New()
	st := status.New()
	seen := storage.NewMemory()
	sender := &mockSender{}
	log := discardLogger()

	f := fetcher.New(&mockHTTP{body: html}, "https://example.com/calendar")
	d := notify.New(reg, sender, st, "https://example.com/book", 0, log)

	return &harness{
		sched:    New(f, seen, reg, d, st, log),
		registry: reg,
		status:   st,
		seen:     seen,
		sender:   sender,
	}
}

func uniSlot(key string) model.Slot {
	return model.Slot{Format: "CENT@UNI", Institution: "Uni", Seats: 3, AtUni: true, Key: key}
}

// --- tests ---

func TestCheckWithoutSubscribers(t *testing.T) {
	ctx := context.Background()
	reg := registry.New()
	st := status.New()
	seen := storage.NewMemory()
	n := &countingNotifier{}
	f := &fakeFetcher{results: []fetchResult{{slots: []model.Slot{uniSlot("a")}}}}

	sched := New(f, seen, reg, n, st, discardLogger())
	sched.check(ctx)

	if diff := cmp.Diff(0, n.count()); diff != "" {
		t.Errorf("dispatch count mismatch (-want +got):\n%s", diff)
	}
	m := st.Snapshot()
	if diff := cmp.Diff(0, m.AlertsSent); diff != "" {
		t.Errorf("alert counter mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(1, m.SeenKeys); diff != "" {
		t.Errorf("seen keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.StatusOK, m.Status); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}

	// Subscribing later does not replay slots already seen.
	reg.Upsert("111", model.PreferenceBoth)
	sched.check(ctx)
	if diff := cmp.Diff(0, n.count()); diff != "" {
		t.Errorf("dispatch count after subscribe mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckSendsToSubscriber(t *testing.T) {
	h := newHarness(t, loadFixture(t))
	h.registry.Upsert("111", model.PreferenceBoth)

	h.sched.check(context.Background())

	msgs := h.sender.getMessages()
	// The fixture holds one @UNI and one @HOME slot.
	if diff := cmp.Diff(2, len(msgs)); diff != "" {
		t.Fatalf("message count mismatch (-want +got):\n%s", diff)
	}
	for _, m := range msgs {
		if diff := cmp.Diff("111", m.ChatID); diff != "" {
			t.Errorf("chatID mismatch (-want +got):\n%s", diff)
		}
	}

	m := h.status.Snapshot()
	if diff := cmp.Diff(2, m.AlertsSent); diff != "" {
		t.Errorf("alert counter mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(2, len(m.Available)); diff != "" {
		t.Errorf("snapshot size mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckUniSlotToAllSubscriber(t *testing.T) {
	ctx := context.Background()
	reg := registry.New()
	reg.Upsert("111", model.PreferenceBoth)
	st := status.New()
	sender := &mockSender{}
	log := discardLogger()
	f := &fakeFetcher{results: []fetchResult{{slots: []model.Slot{uniSlot("a")}}}}
	d := notify.New(reg, sender, st, "", 0, log)

	New(f, storage.NewMemory(), reg, d, st, log).check(ctx)

	want := []string{"111"}
	var got []string
	for _, m := range sender.getMessages() {
		got = append(got, m.ChatID)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("recipients mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckPreferenceFilter(t *testing.T) {
	h := newHarness(t, loadFixture(t))
	h.registry.Upsert("uni", model.PreferenceUni)
	h.registry.Upsert("home", model.PreferenceHome)

	h.sched.check(context.Background())

	got := map[string]int{}
	for _, m := range h.sender.getMessages() {
		got[m.ChatID]++
	}
	if diff := cmp.Diff(map[string]int{"uni": 1, "home": 1}, got); diff != "" {
		t.Errorf("per-chat counts mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckSkipsSeenSlots(t *testing.T) {
	h := newHarness(t, loadFixture(t))
	h.registry.Upsert("111", model.PreferenceBoth)

	h.sched.check(context.Background())
	first := len(h.sender.getMessages())
	h.sched.check(context.Background())
	second := len(h.sender.getMessages()) - first

	if diff := cmp.Diff(2, first); diff != "" {
		t.Errorf("first cycle mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(0, second); diff != "" {
		t.Errorf("second cycle should send nothing (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(2, h.status.Snapshot().Checks); diff != "" {
		t.Errorf("check count mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckDuplicateKeyInOneFetch(t *testing.T) {
	reg := registry.New()
	reg.Upsert("111", model.PreferenceBoth)
	n := &countingNotifier{}
	f := &fakeFetcher{results: []fetchResult{{slots: []model.Slot{uniSlot("a"), uniSlot("a")}}}}

	New(f, storage.NewMemory(), reg, n, status.New(), discardLogger()).check(context.Background())

	if diff := cmp.Diff(1, n.count()); diff != "" {
		t.Errorf("dispatch count mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckFetchError(t *testing.T) {
	reg := registry.New()
	reg.Upsert("111", model.PreferenceBoth)
	st := status.New()
	n := &countingNotifier{}
	f := &fakeFetcher{results: []fetchResult{
		{slots: []model.Slot{uniSlot("a")}},
		{err: fetcher.ErrFetch},
	}}

	sched := New(f, storage.NewMemory(), reg, n, st, discardLogger())
	sched.check(context.Background())
	sched.check(context.Background())

	m := st.Snapshot()
	if diff := cmp.Diff(model.StatusError, m.Status); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(2, m.Checks); diff != "" {
		t.Errorf("check count mismatch (-want +got):\n%s", diff)
	}
	// The last good snapshot survives a failed cycle.
	if diff := cmp.Diff(1, len(m.Available)); diff != "" {
		t.Errorf("snapshot size mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(1, n.count()); diff != "" {
		t.Errorf("dispatch count mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckSeenStoreError(t *testing.T) {
	reg := registry.New()
	reg.Upsert("111", model.PreferenceBoth)
	st := status.New()
	n := &countingNotifier{}
	f := &fakeFetcher{results: []fetchResult{{slots: []model.Slot{uniSlot("a")}}}}

	New(f, brokenStore{}, reg, n, st, discardLogger()).check(context.Background())

	if diff := cmp.Diff(0, n.count()); diff != "" {
		t.Errorf("dispatch count mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.StatusOK, st.Snapshot().Status); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckWithSQLiteStore(t *testing.T) {
	db, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	reg := registry.New()
	reg.Upsert("111", model.PreferenceBoth)
	st := status.New()
	n := &countingNotifier{}
	f := &fakeFetcher{results: []fetchResult{{slots: []model.Slot{uniSlot("a"), uniSlot("b")}}}}

	sched := New(f, db, reg, n, st, discardLogger())
	sched.check(context.Background())
	sched.check(context.Background())

	if diff := cmp.Diff(2, n.count()); diff != "" {
		t.Errorf("dispatch count mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(2, st.Snapshot().SeenKeys); diff != "" {
		t.Errorf("seen keys mismatch (-want +got):\n%s", diff)
	}
}

func TestRunRetriesAfterFetchError(t *testing.T) {
	st := status.New()
	f := &fakeFetcher{results: []fetchResult{{err: fetcher.ErrFetch}}}
	sched := New(f, storage.NewMemory(), registry.New(), &countingNotifier{}, st, discardLogger())
	sched.SetInterval(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for f.callCount() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected repeated checks, got %d", f.callCount())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	m := st.Snapshot()
	if diff := cmp.Diff(model.StatusError, m.Status); diff != "" {
		t.Errorf("status mismatch (-want +got):\n%s", diff)
	}
	if m.Checks < 3 {
		t.Errorf("expected at least 3 checks, got %d", m.Checks)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	f := &fakeFetcher{results: []fetchResult{{}}}
	sched := New(f, storage.NewMemory(), registry.New(), &countingNotifier{}, status.New(), discardLogger())
	sched.SetInterval(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
