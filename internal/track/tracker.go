package track

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/fwagner/gtswatch/internal/listing"
	"github.com/fwagner/gtswatch/internal/match"
)

// Tracker classifies observations against stored state. It owns no
// goroutines; the engine calls Observe once per listing per run.
type Tracker struct {
	store Store
	now   func() time.Time
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// Observe records one observation of a listing and classifies it.
//
// Rules:
//   - first observation, passing: NEW_MATCH
//   - first observation, failing: state persisted, NO_EVENT
//   - fingerprint unchanged: UNCHANGED_MATCH when passing, NO_EVENT when
//     failing; last-seen is refreshed either way
//   - fingerprint changed, passing: CHANGED_MATCH with a field diff
//   - fingerprint changed, failing: silent state update, except a sold
//     transition on a previously passing listing, which is CHANGED_MATCH so
//     the operator learns the car is gone
func (t *Tracker) Observe(res match.Result, l listing.Listing) (ChangeEvent, error) {
	key := l.Key()
	fp := Fingerprint(l.PriceEUR, l.Status, res.MustHave, l.MileageKM, l.WarrantyMonths)

	prev, err := t.store.Get(key)
	if err != nil {
		return ChangeEvent{Type: NoEvent, Key: key}, fmt.Errorf("load state: %w", err)
	}

	now := t.now()
	next := &State{
		Key:         key,
		Fingerprint: fp,
		LastPrice:   l.PriceEUR,
		LastStatus:  l.Status,
		LastPassed:  res.Passed,
		MustHave:    presenceMap(res.MustHave),
		MileageKM:   l.MileageKM,
		Warranty:    l.WarrantyMonths,
		FirstSeen:   now,
		LastSeen:    now,
		Snapshot:    snapshotJSON(l),
	}

	ev := ChangeEvent{Type: NoEvent, Key: key}
	switch {
	case prev == nil:
		if res.Passed {
			ev.Type = NewMatch
		}

	case prev.Fingerprint == fp:
		next.FirstSeen = prev.FirstSeen
		if res.Passed {
			ev.Type = UnchangedMatch
		}

	default:
		next.FirstSeen = prev.FirstSeen
		ev.Diff = diff(prev, next)
		if res.Passed {
			ev.Type = ChangedMatch
		} else if ev.Diff.StatusSold && prev.LastPassed {
			// The car the operator was watching got sold. Failing now
			// (sold is not available) must not silence that.
			ev.Type = ChangedMatch
		}
	}

	if err := t.store.Put(next); err != nil {
		return ChangeEvent{Type: NoEvent, Key: key}, fmt.Errorf("save state: %w", err)
	}
	return ev, nil
}

// diff compares two states field by field, in canonical order.
func diff(prev, next *State) Diff {
	d := Diff{
		PriceFrom:  prev.LastPrice,
		PriceTo:    next.LastPrice,
		StatusFrom: prev.LastStatus,
		StatusTo:   next.LastStatus,
	}

	if !eqOptInt(prev.LastPrice, next.LastPrice) {
		d.Changed = append(d.Changed, "price")
		if prev.LastPrice != nil && next.LastPrice != nil {
			d.PriceDelta = *next.LastPrice - *prev.LastPrice
		}
	}
	if prev.LastStatus != next.LastStatus {
		d.Changed = append(d.Changed, "status")
	}
	d.StatusSold = next.LastStatus == listing.StatusSold && prev.LastStatus != listing.StatusSold
	if !eqOptInt(prev.MileageKM, next.MileageKM) {
		d.Changed = append(d.Changed, "mileage")
	}
	if !eqOptInt(prev.Warranty, next.Warranty) {
		d.Changed = append(d.Changed, "warranty")
	}

	keys := make(map[string]struct{}, len(prev.MustHave)+len(next.MustHave))
	for k := range prev.MustHave {
		keys[k] = struct{}{}
	}
	for k := range next.MustHave {
		keys[k] = struct{}{}
	}
	for k := range keys {
		was, is := prev.MustHave[k], next.MustHave[k]
		switch {
		case is && !was:
			d.FeaturesGained = append(d.FeaturesGained, k)
		case was && !is:
			d.FeaturesLost = append(d.FeaturesLost, k)
		}
	}
	sort.Strings(d.FeaturesGained)
	sort.Strings(d.FeaturesLost)
	if len(d.FeaturesGained) > 0 || len(d.FeaturesLost) > 0 {
		d.Changed = append(d.Changed, "features")
	}

	return d
}

func snapshotJSON(l listing.Listing) []byte {
	b, err := json.Marshal(l)
	if err != nil {
		return nil
	}
	return b
}

func eqOptInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
