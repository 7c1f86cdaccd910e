// Package match evaluates canonical listings against operator criteria.
//
// Every check runs - there is no short-circuiting - so a failing listing
// reports every violation, not just the first. Unknown is treated as a
// violation for accident state, warranty, and mileage: a missed listing is
// cheaper than a false alert.
package match

import (
	"fmt"
	"strings"

	"github.com/fwagner/gtswatch/internal/criteria"
	"github.com/fwagner/gtswatch/internal/detect"
	"github.com/fwagner/gtswatch/internal/listing"
)

// Check names one of the fixed evaluation dimensions.
type Check string

const (
	CheckGeneration   Check = "generation"
	CheckBodyType     Check = "body_type"
	CheckAccidentFree Check = "accident_free"
	CheckWarranty     Check = "warranty"
	CheckMileage      Check = "mileage"
	CheckMustHave     Check = "must_have"
	CheckOwners       Check = "owners"
)

// Reason is one itemized evaluation outcome. Confirmations (OK) and
// violations are both recorded so a report can render "why" either way.
// Advisory reasons never affect Passed.
type Reason struct {
	Check    Check
	OK       bool
	Advisory bool
	Detail   string
}

func (r Reason) String() string {
	return fmt.Sprintf("%s: %s", r.Check, r.Detail)
}

// Result is the transient evaluation outcome for one listing.
type Result struct {
	Key    listing.Key
	Passed bool

	// Reasons preserves the fixed check order: generation, body type,
	// accident, warranty, mileage, must-haves, then the optional owner
	// advisory.
	Reasons []Reason

	// MustHave is the verdict subset for the configured must-have keys,
	// always populated - the change tracker fingerprints it.
	MustHave detect.Verdict

	// OwnerAdvisory is set when the owner count falls outside the
	// preferred range. Soft signal: scoring input, not a rejection.
	OwnerAdvisory bool

	// Score is filled in by the engine for passing listings.
	Score int
}

// Violations returns the hard-fail reasons.
func (r Result) Violations() []Reason {
	var v []Reason
	for _, reason := range r.Reasons {
		if !reason.OK {
			v = append(v, reason)
		}
	}
	return v
}

// Evaluate applies the criteria to a listing. The option verdict must come
// from detecting the listing's raw text against the criteria's feature
// table.
func Evaluate(l listing.Listing, verdict detect.Verdict, c *criteria.Criteria) Result {
	res := Result{
		Key:      l.Key(),
		MustHave: verdict.Subset(c.MustHave),
	}
	fail := func(check Check, format string, args ...any) {
		res.Reasons = append(res.Reasons, Reason{Check: check, Detail: fmt.Sprintf(format, args...)})
	}
	ok := func(check Check, format string, args ...any) {
		res.Reasons = append(res.Reasons, Reason{Check: check, OK: true, Detail: fmt.Sprintf(format, args...)})
	}

	// 1. Generation.
	if l.Generation != c.Generation {
		fail(CheckGeneration, "%s != %s", l.Generation, c.Generation)
	} else {
		ok(CheckGeneration, "%s", l.Generation)
	}

	// 2. Body type.
	if !c.BodyTypeAccepted(l.BodyType) {
		fail(CheckBodyType, "%s not in accepted set [%s]", l.BodyType, joinBodyTypes(c.BodyTypes))
	} else {
		ok(CheckBodyType, "%s accepted", l.BodyType)
	}

	// 3. Accident-free. Unknown disqualifies: no confirmation, no pass.
	switch {
	case !c.RequireAccidentFree:
		ok(CheckAccidentFree, "not required")
	case l.AccidentFree == listing.TriTrue:
		ok(CheckAccidentFree, "confirmed")
	default:
		fail(CheckAccidentFree, "%s (confirmed accident-free record required)", l.AccidentFree)
	}

	// 4. Warranty.
	switch {
	case l.WarrantyMonths == nil:
		fail(CheckWarranty, "unknown (min %d months required)", c.WarrantyMonthsMin)
	case *l.WarrantyMonths < c.WarrantyMonthsMin:
		fail(CheckWarranty, "%d months < %d months", *l.WarrantyMonths, c.WarrantyMonthsMin)
	default:
		ok(CheckWarranty, "%d months", *l.WarrantyMonths)
	}

	// 5. Mileage. Missing mileage cannot be assumed safe.
	switch {
	case l.MileageKM == nil:
		fail(CheckMileage, "unknown (max %d km)", c.MileageKMMax)
	case *l.MileageKM > c.MileageKMMax:
		fail(CheckMileage, "%d km > %d km", *l.MileageKM, c.MileageKMMax)
	default:
		ok(CheckMileage, "%d km", *l.MileageKM)
	}

	// 6. Must-have features, one reason per feature, criteria order.
	for _, key := range c.MustHave {
		hit := verdict[key]
		if hit.Present {
			ok(CheckMustHave, "%s present (%s confidence)", key, hit.Confidence)
		} else {
			fail(CheckMustHave, "missing %s", key)
		}
	}

	// 7. Owner count: soft signal only.
	if l.OwnerCount != nil {
		n := *l.OwnerCount
		if n < c.OwnersPreferredMin || n > c.OwnersPreferredMax {
			res.OwnerAdvisory = true
			res.Reasons = append(res.Reasons, Reason{
				Check:    CheckOwners,
				OK:       true,
				Advisory: true,
				Detail:   fmt.Sprintf("%d outside preferred %d-%d", n, c.OwnersPreferredMin, c.OwnersPreferredMax),
			})
		}
	}

	res.Passed = len(res.Violations()) == 0
	return res
}

func joinBodyTypes(bts []listing.BodyType) string {
	parts := make([]string, len(bts))
	for i, bt := range bts {
		parts[i] = string(bt)
	}
	return strings.Join(parts, ", ")
}
