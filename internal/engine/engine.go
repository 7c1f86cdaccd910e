// Package engine runs the full per-record pipeline: normalize, detect
// options, evaluate criteria, score, and record the observation.
package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fwagner/gtswatch/internal/criteria"
	"github.com/fwagner/gtswatch/internal/detect"
	"github.com/fwagner/gtswatch/internal/listing"
	"github.com/fwagner/gtswatch/internal/logging"
	"github.com/fwagner/gtswatch/internal/match"
	"github.com/fwagner/gtswatch/internal/normalize"
	"github.com/fwagner/gtswatch/internal/score"
	"github.com/fwagner/gtswatch/internal/track"
)

// Outcome is the pipeline result for one raw record. Err is set when the
// record was malformed or its state could not be saved; the rest of the
// fields are best-effort in that case.
type Outcome struct {
	Listing listing.Listing
	Result  match.Result
	Event   track.ChangeEvent
	Err     error
}

// Notifiable reports whether this outcome should reach the notifier.
func (o Outcome) Notifiable() bool {
	return o.Err == nil && o.Event.Type.NotificationWorthy()
}

// Summary aggregates one run.
type Summary struct {
	RunID       string
	Started     time.Time
	Finished    time.Time
	Total       int
	Matches     int
	New         int
	Changed     int
	Malformed   int
	StoreErrors int
}

// Engine wires the pipeline stages together. Criteria are fixed for the
// lifetime of the engine; a config change means a new engine.
type Engine struct {
	criteria *criteria.Criteria
	tracker  *track.Tracker
}

func New(c *criteria.Criteria, tracker *track.Tracker) *Engine {
	return &Engine{criteria: c, tracker: tracker}
}

// Run processes one batch of raw records. Every record yields an Outcome;
// malformed records and store failures are reported per record, never
// aborting the batch. Outcomes are ordered passing-first, then score
// descending, then key ascending so the order is stable across runs.
func (e *Engine) Run(records []listing.RawRecord) ([]Outcome, Summary) {
	sum := Summary{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Total:   len(records),
	}
	log := logging.WithPrefix("engine")
	log.Info("run started", "run_id", sum.RunID, "records", len(records))

	outcomes := make([]Outcome, 0, len(records))
	for _, rec := range records {
		o := e.process(rec)
		switch {
		case o.Err != nil && o.Listing.NativeID == "":
			sum.Malformed++
			log.Warn("malformed record dropped", "source", rec.Source, "native_id", rec.NativeID, "error", o.Err)
		case o.Err != nil:
			sum.StoreErrors++
			log.Error("state update failed", "key", o.Listing.Key(), "error", o.Err)
		}
		if o.Err == nil && o.Result.Passed {
			sum.Matches++
		}
		switch o.Event.Type {
		case track.NewMatch:
			sum.New++
		case track.ChangedMatch:
			sum.Changed++
		}
		outcomes = append(outcomes, o)
	}

	Sort(outcomes)
	sum.Finished = time.Now()
	log.Info("run finished",
		"run_id", sum.RunID,
		"matches", sum.Matches,
		"new", sum.New,
		"changed", sum.Changed,
		"malformed", sum.Malformed,
		"store_errors", sum.StoreErrors,
	)
	return outcomes, sum
}

func (e *Engine) process(rec listing.RawRecord) Outcome {
	l, err := normalize.Normalize(rec)
	if err != nil {
		return Outcome{Err: err}
	}

	verdict := detect.Detect(l.RawText, e.criteria.Features)
	res := match.Evaluate(l, verdict, e.criteria)
	if res.Passed {
		res.Score = score.Score(verdict, res.OwnerAdvisory, e.criteria)
	}

	ev, err := e.tracker.Observe(res, l)
	return Outcome{Listing: l, Result: res, Event: ev, Err: err}
}

// Reevaluate runs the evaluation stages on an already-normalized listing
// without touching the store. The export command uses it on snapshots.
func (e *Engine) Reevaluate(l listing.Listing) match.Result {
	verdict := detect.Detect(l.RawText, e.criteria.Features)
	res := match.Evaluate(l, verdict, e.criteria)
	if res.Passed {
		res.Score = score.Score(verdict, res.OwnerAdvisory, e.criteria)
	}
	return res
}

// Sort orders outcomes passing-first, then score descending, then key
// ascending. The order is deterministic for identical inputs.
func Sort(outcomes []Outcome) {
	sort.SliceStable(outcomes, func(i, j int) bool {
		a, b := outcomes[i], outcomes[j]
		if a.Result.Passed != b.Result.Passed {
			return a.Result.Passed
		}
		if a.Result.Score != b.Result.Score {
			return a.Result.Score > b.Result.Score
		}
		ak, bk := a.Listing.Key(), b.Listing.Key()
		if ak.Source != bk.Source {
			return ak.Source < bk.Source
		}
		return ak.NativeID < bk.NativeID
	})
}
