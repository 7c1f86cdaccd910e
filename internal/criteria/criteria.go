// Package criteria loads and validates the operator's matching rules.
//
// The rules are data, not code: generation, accepted body types, hard
// limits, must-have keys, nice-to-have weights, and the phrase tables all
// come from a JSON file. The engine refuses to start with ambiguous rules -
// a half-configured criteria file fails Validate instead of silently
// matching everything.
package criteria

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fwagner/gtswatch/internal/detect"
	"github.com/fwagner/gtswatch/internal/listing"
)

// Criteria is the full rule set for one operator.
type Criteria struct {
	// Generation is the single required generation (hard filter).
	Generation listing.Generation `json:"generation"`

	// BodyTypes are the accepted body types, ordered by preference.
	BodyTypes []listing.BodyType `json:"body_types"`

	// RequireAccidentFree demands a confirmed accident-free record;
	// unknown counts as a violation.
	RequireAccidentFree bool `json:"require_accident_free"`

	// WarrantyMonthsMin is the minimum remaining warranty. A listing with
	// no warranty information fails this check.
	WarrantyMonthsMin int `json:"warranty_months_min"`

	// MileageKMMax is the mileage ceiling. Missing mileage fails.
	MileageKMMax int `json:"mileage_km_max"`

	// OwnersPreferredMin/Max bound the soft owner-count signal. A count
	// outside the range yields an advisory, never a rejection.
	OwnersPreferredMin int `json:"owners_preferred_min"`
	OwnersPreferredMax int `json:"owners_preferred_max"`

	// OwnerPenalty is subtracted from the score (in hundredths) when the
	// owner advisory fires.
	OwnerPenalty int `json:"owner_penalty"`

	// MustHave lists feature keys whose absence hard-fails a listing.
	// Order is the reporting order.
	MustHave []string `json:"must_have"`

	// NiceToHave maps feature keys to score weights. A weight <= 0 means
	// the default weight of 1.
	NiceToHave map[string]int `json:"nice_to_have"`

	// Features is the phrase table covering every configured feature key.
	Features detect.FeatureTable `json:"features"`
}

// Load reads and validates a criteria file.
func Load(path string) (*Criteria, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read criteria: %w", err)
	}
	var c Criteria
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse criteria %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid criteria %s: %w", path, err)
	}
	return &c, nil
}

// Validate checks the rule set for completeness. Errors here are fatal at
// startup by design.
func (c *Criteria) Validate() error {
	if c.Generation == "" {
		return fmt.Errorf("generation is required")
	}
	if len(c.BodyTypes) == 0 {
		return fmt.Errorf("at least one accepted body type is required")
	}
	if c.WarrantyMonthsMin <= 0 {
		return fmt.Errorf("warranty_months_min must be positive")
	}
	if c.MileageKMMax <= 0 {
		return fmt.Errorf("mileage_km_max must be positive")
	}
	if c.OwnersPreferredMax < c.OwnersPreferredMin {
		return fmt.Errorf("owners_preferred_max %d < owners_preferred_min %d",
			c.OwnersPreferredMax, c.OwnersPreferredMin)
	}
	if len(c.MustHave) == 0 {
		return fmt.Errorf("must_have set is empty")
	}
	for _, key := range c.MustHave {
		if err := c.validateFeature(key); err != nil {
			return fmt.Errorf("must-have %q: %w", key, err)
		}
	}
	for key := range c.NiceToHave {
		if err := c.validateFeature(key); err != nil {
			return fmt.Errorf("nice-to-have %q: %w", key, err)
		}
	}
	return nil
}

func (c *Criteria) validateFeature(key string) error {
	phrases, ok := c.Features[key]
	if !ok || len(phrases) == 0 {
		return fmt.Errorf("no phrases configured")
	}
	for _, p := range phrases {
		if p.Text == "" {
			return fmt.Errorf("empty phrase")
		}
	}
	return nil
}

// Weight returns the score weight for a nice-to-have feature, applying the
// default of 1.
func (c *Criteria) Weight(key string) int {
	if w := c.NiceToHave[key]; w > 0 {
		return w
	}
	return 1
}

// BodyTypeAccepted reports whether bt is in the accepted set.
func (c *Criteria) BodyTypeAccepted(bt listing.BodyType) bool {
	for _, accepted := range c.BodyTypes {
		if bt == accepted {
			return true
		}
	}
	return false
}
