package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fwagner/gtswatch/internal/engine"
	"github.com/fwagner/gtswatch/internal/listing"
	"github.com/fwagner/gtswatch/internal/match"
	"github.com/fwagner/gtswatch/internal/track"
)

func intp(v int) *int { return &v }

func newMatchOutcome() engine.Outcome {
	return engine.Outcome{
		Listing: listing.Listing{
			Source:    "mobile_de",
			NativeID:  "392847",
			Title:     "Porsche 911 Carrera 4 GTS",
			PriceEUR:  intp(189000),
			MileageKM: intp(38500),
			URL:       "https://example.test/392847",
		},
		Result: match.Result{Passed: true, Score: 325},
		Event:  track.ChangeEvent{Type: track.NewMatch},
	}
}

func TestShouldNotify(t *testing.T) {
	o := newMatchOutcome()
	if !ShouldNotify(o) {
		t.Error("new match should notify")
	}

	o.Event.Type = track.UnchangedMatch
	if ShouldNotify(o) {
		t.Error("unchanged match must stay quiet")
	}

	o.Event.Type = track.NoEvent
	if ShouldNotify(o) {
		t.Error("no_event must stay quiet")
	}

	// Sold transitions are changed matches even though the result fails.
	o.Event.Type = track.ChangedMatch
	o.Result.Passed = false
	o.Event.Diff.StatusSold = true
	if !ShouldNotify(o) {
		t.Error("sold transition should notify")
	}

	o = newMatchOutcome()
	o.Err = errors.New("store broken")
	if ShouldNotify(o) {
		t.Error("errored outcome must not notify")
	}
}

func TestMessage(t *testing.T) {
	msg := Message(newMatchOutcome())
	for _, want := range []string{
		"New match: Porsche 911 Carrera 4 GTS",
		"Price: 189,000 EUR",
		"Mileage: 38,500 km",
		"Score: 3.25",
		"https://example.test/392847",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestMessageSoldTransition(t *testing.T) {
	o := newMatchOutcome()
	o.Result.Passed = false
	o.Event = track.ChangeEvent{
		Type: track.ChangedMatch,
		Diff: track.Diff{
			Changed:    []string{"status"},
			StatusFrom: listing.StatusAvailable,
			StatusTo:   listing.StatusSold,
			StatusSold: true,
		},
	}
	msg := Message(o)
	if !strings.HasPrefix(msg, "Sold: ") {
		t.Errorf("sold message should lead with the transition:\n%s", msg)
	}
	if !strings.Contains(msg, "status available -> sold") {
		t.Errorf("message missing status diff:\n%s", msg)
	}
}

func TestTelegramNotify(t *testing.T) {
	var gotPath string
	var gotPayload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tg := NewTelegram("TOKEN", "42")
	tg.baseURL = srv.URL
	if err := tg.Notify(context.Background(), newMatchOutcome()); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/botTOKEN/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotPayload["chat_id"] != "42" {
		t.Errorf("chat_id = %v", gotPayload["chat_id"])
	}
	if text, _ := gotPayload["text"].(string); !strings.Contains(text, "New match") {
		t.Errorf("text = %q", text)
	}
}

func TestTelegramNotifyAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	tg := NewTelegram("TOKEN", "42")
	tg.baseURL = srv.URL
	if err := tg.Notify(context.Background(), newMatchOutcome()); err == nil {
		t.Error("non-200 response should error")
	}
}

type fakeNotifier struct {
	sent []engine.Outcome
	fail bool
}

func (f *fakeNotifier) Notify(_ context.Context, o engine.Outcome) error {
	if f.fail {
		return errors.New("down")
	}
	f.sent = append(f.sent, o)
	return nil
}

func TestNotifyAllFiltersAndCounts(t *testing.T) {
	quiet := newMatchOutcome()
	quiet.Event.Type = track.UnchangedMatch

	f := &fakeNotifier{}
	sent := NotifyAll(context.Background(), f, []engine.Outcome{newMatchOutcome(), quiet})
	if sent != 1 || len(f.sent) != 1 {
		t.Errorf("sent = %d (delivered %d), want 1", sent, len(f.sent))
	}

	f = &fakeNotifier{fail: true}
	if sent := NotifyAll(context.Background(), f, []engine.Outcome{newMatchOutcome()}); sent != 0 {
		t.Errorf("failed deliveries should not count, got %d", sent)
	}
}
