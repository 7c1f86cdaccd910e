// Package track persists per-listing observation state and classifies each
// new observation as NEW, CHANGED, UNCHANGED, or not notable.
//
// # Store abstraction
//
// State lives behind the Store interface so the classification logic is
// testable against an in-memory fake. The durable implementation is SQLite
// (pure-Go driver, no CGO). Individual Put calls are atomic per key; the
// engine processes each key at most once per run, so no further
// coordination is needed.
//
// # Fingerprints
//
// The fingerprint hashes only the fields that matter for re-notification,
// serialized in a fixed canonical order. Equal logical state always hashes
// identically regardless of map iteration order.
package track

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fwagner/gtswatch/internal/detect"
	"github.com/fwagner/gtswatch/internal/listing"
)

// EventType classifies one observation of a listing.
type EventType uint8

const (
	// NoEvent covers first/ongoing observations of failing listings and
	// silent state refreshes. Never notification-worthy.
	NoEvent EventType = iota

	// NewMatch is the first observation of a passing listing.
	NewMatch

	// UnchangedMatch is a passing listing whose fingerprint did not move.
	// Reported, but not re-notified.
	UnchangedMatch

	// ChangedMatch is a passing listing with a changed fingerprint, or a
	// previously passing listing that transitioned to sold.
	ChangedMatch
)

func (e EventType) String() string {
	switch e {
	case NewMatch:
		return "new_match"
	case UnchangedMatch:
		return "unchanged_match"
	case ChangedMatch:
		return "changed_match"
	default:
		return "no_event"
	}
}

// NotificationWorthy reports whether the notification collaborator should
// act on this event. This distinction is the contract it relies on.
func (e EventType) NotificationWorthy() bool {
	return e == NewMatch || e == ChangedMatch
}

// Diff describes which tracked fields moved between two observations.
type Diff struct {
	// Changed lists the moved field names in canonical order
	// (price, status, mileage, warranty, features).
	Changed []string

	PriceFrom *int
	PriceTo   *int
	// PriceDelta is new minus old, valid when both prices are known.
	PriceDelta int

	StatusFrom listing.Status
	StatusTo   listing.Status
	// StatusSold marks a transition into sold - operationally significant
	// even when nothing else moved.
	StatusSold bool

	FeaturesGained []string
	FeaturesLost   []string
}

// Empty reports whether no tracked field moved.
func (d Diff) Empty() bool {
	return len(d.Changed) == 0
}

// Summary renders a compact human-readable change list.
func (d Diff) Summary() string {
	var parts []string
	for _, field := range d.Changed {
		switch field {
		case "price":
			if d.PriceFrom != nil && d.PriceTo != nil {
				parts = append(parts, fmt.Sprintf("price %d -> %d (%+d)", *d.PriceFrom, *d.PriceTo, d.PriceDelta))
			} else {
				parts = append(parts, "price "+fmtOptInt(d.PriceFrom)+" -> "+fmtOptInt(d.PriceTo))
			}
		case "status":
			parts = append(parts, fmt.Sprintf("status %s -> %s", d.StatusFrom, d.StatusTo))
		case "features":
			if len(d.FeaturesGained) > 0 {
				parts = append(parts, "gained "+strings.Join(d.FeaturesGained, ", "))
			}
			if len(d.FeaturesLost) > 0 {
				parts = append(parts, "lost "+strings.Join(d.FeaturesLost, ", "))
			}
		default:
			parts = append(parts, field+" changed")
		}
	}
	return strings.Join(parts, "; ")
}

// ChangeEvent is the classified outcome of observing one listing.
type ChangeEvent struct {
	Type EventType
	Key  listing.Key
	Diff Diff
}

// State is the persisted record for one (source, native id) key. Rows are
// created on first observation and updated afterwards; the engine never
// deletes them.
type State struct {
	Key         listing.Key
	Fingerprint string
	LastPrice   *int
	LastStatus  listing.Status
	// LastPassed records whether the listing passed on its previous
	// observation; needed to classify sold transitions.
	LastPassed bool
	MustHave   map[string]bool
	MileageKM  *int
	Warranty   *int
	FirstSeen  time.Time
	LastSeen   time.Time
	// Snapshot holds the last canonical listing as JSON, for export and
	// the dashboard.
	Snapshot []byte
}

// Store is the injected backing resource for listing state. Get returns
// (nil, nil) for an unseen key. Put must be atomic per key with respect to
// other processes touching the same persisted state.
type Store interface {
	Get(key listing.Key) (*State, error)
	Put(state *State) error
	All() ([]*State, error)
	Close() error
}

// Fingerprint hashes the re-notification fields in canonical order. Fields
// absent from the listing are encoded distinctly from zero values, and the
// must-have set is serialized sorted by key.
func Fingerprint(price *int, status listing.Status, mustHave detect.Verdict, mileage, warranty *int) string {
	keys := make([]string, 0, len(mustHave))
	for k := range mustHave {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("price=")
	b.WriteString(fmtOptInt(price))
	b.WriteString(";status=")
	b.WriteString(string(status))
	b.WriteString(";mileage=")
	b.WriteString(fmtOptInt(mileage))
	b.WriteString(";warranty=")
	b.WriteString(fmtOptInt(warranty))
	b.WriteString(";must=")
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		if mustHave[k].Present {
			b.WriteString(":1")
		} else {
			b.WriteString(":0")
		}
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func fmtOptInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func presenceMap(v detect.Verdict) map[string]bool {
	m := make(map[string]bool, len(v))
	for k, hit := range v {
		m[k] = hit.Present
	}
	return m
}
