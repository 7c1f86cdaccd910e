// Package detect scans listing free text for configured feature phrases.
//
// Detection is a pure function over data: the phrase tables come from
// configuration, each variant is confidence-tagged a priori by its
// specificity, and the scanner just folds and matches. Absence is never
// asserted with high confidence - an option can be fitted but undocumented.
package detect

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Confidence grades how specific a phrase match is. The ordering matters:
// higher values win when multiple variants of a feature match.
type Confidence uint8

const (
	Low Confidence = iota
	Medium
	High
)

func (c Confidence) String() string {
	switch c {
	case High:
		return "high"
	case Medium:
		return "medium"
	default:
		return "low"
	}
}

func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Confidence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "low":
		*c = Low
	case "medium":
		*c = Medium
	case "high":
		*c = High
	default:
		return fmt.Errorf("invalid confidence %q", s)
	}
	return nil
}

// Phrase is one keyword variant for a feature. The full canonical phrase
// ("Sport Chrono Paket") is tagged high; a bare collision-prone
// abbreviation ("ACC") is tagged low.
type Phrase struct {
	Text       string     `json:"phrase"`
	Confidence Confidence `json:"confidence"`
}

// FeatureTable maps a feature key to its ordered keyword variants.
type FeatureTable map[string][]Phrase

// Hit is the per-feature presence verdict.
type Hit struct {
	Present    bool       `json:"present"`
	Confidence Confidence `json:"confidence"`
}

// Verdict maps feature key to Hit. Every key of the feature table used for
// detection is present in the verdict.
type Verdict map[string]Hit

// Subset returns the verdict restricted to the given feature keys. Keys the
// verdict has never seen yield the zero Hit (absent, low confidence).
func (v Verdict) Subset(keys []string) Verdict {
	sub := make(Verdict, len(keys))
	for _, k := range keys {
		sub[k] = v[k]
	}
	return sub
}

// Fold lowercases s and strips combining accents so "Hübdach" and "Hubdach"
// compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

// Detect scans rawText against the feature table. Matching is
// case-insensitive, substring-based, and accent-folded. When multiple
// variants of a feature match, the best confidence wins; a feature with no
// matching variant is reported as absent with low confidence.
func Detect(rawText string, table FeatureTable) Verdict {
	folded := Fold(rawText)

	verdict := make(Verdict, len(table))
	for key, phrases := range table {
		hit := Hit{Present: false, Confidence: Low}
		for _, p := range phrases {
			if p.Text == "" {
				continue
			}
			if !strings.Contains(folded, Fold(p.Text)) {
				continue
			}
			if !hit.Present || p.Confidence > hit.Confidence {
				hit = Hit{Present: true, Confidence: p.Confidence}
			}
		}
		verdict[key] = hit
	}
	return verdict
}
