package dash

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fwagner/gtswatch/internal/listing"
	"github.com/fwagner/gtswatch/internal/track"
)

func intp(v int) *int { return &v }

func testStates() []*track.State {
	seen := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	return []*track.State{
		{
			Key:        listing.Key{Source: "mobile_de", NativeID: "392847"},
			LastPrice:  intp(189000),
			LastStatus: listing.StatusAvailable,
			MileageKM:  intp(38500),
			FirstSeen:  seen,
			LastSeen:   seen,
			Snapshot:   []byte(`{"title":"Porsche 911 Carrera 4 GTS"}`),
		},
		{
			Key:        listing.Key{Source: "autoscout", NativeID: "500000"},
			LastStatus: listing.StatusSold,
			FirstSeen:  seen,
			LastSeen:   seen,
		},
	}
}

func TestRowsFromStates(t *testing.T) {
	rows := rowsFromStates(testStates())
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][1] != "Porsche 911 Carrera 4 GTS" {
		t.Errorf("title from snapshot = %q", rows[0][1])
	}
	if rows[0][2] != "189,000" {
		t.Errorf("price = %q", rows[0][2])
	}
	// Missing snapshot falls back to the native id; missing numbers render
	// as dashes.
	if rows[1][1] != "500000" || rows[1][2] != "-" || rows[1][4] != "-" {
		t.Errorf("fallback row = %v", rows[1])
	}
}

func TestModelLoadAndQuit(t *testing.T) {
	loaded := false
	m := NewModel(func() tea.Cmd {
		return func() tea.Msg {
			loaded = true
			return StatesLoaded{States: testStates()}
		}
	})

	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init should schedule the initial load")
	}
	msg := cmd()
	if !loaded {
		t.Fatal("load command did not run")
	}

	updated, _ := m.Update(msg)
	m = updated.(Model)
	if !strings.Contains(m.View(), "Porsche 911 Carrera 4 GTS") {
		t.Error("view missing loaded listing")
	}

	_, quit := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if quit == nil {
		t.Error("q should quit")
	}
}

func TestModelShowsError(t *testing.T) {
	m := NewModel(nil)
	updated, _ := m.Update(StatesLoaded{Err: errors.New("db locked")})
	m = updated.(Model)
	if !strings.Contains(m.View(), "db locked") {
		t.Error("view should surface the load error")
	}
}
