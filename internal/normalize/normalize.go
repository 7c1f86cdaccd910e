// Package normalize converts raw source records into canonical listings.
//
// Normalization is deliberately forgiving: missing or garbled fields degrade
// to nil/unknown instead of failing the record. The only fatal condition is
// a missing identity, because state tracking is impossible without one.
// Filtering decisions belong to the evaluator, never to this package.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fwagner/gtswatch/internal/listing"
)

// MalformedRecordError reports a record whose identity fields are absent or
// empty. Such records are skipped and counted; they never abort a batch.
type MalformedRecordError struct {
	Source   string
	NativeID string
	Reason   string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record (source=%q, native_id=%q): %s", e.Source, e.NativeID, e.Reason)
}

var (
	digitsRe = regexp.MustCompile(`[0-9]+`)
	yearRe   = regexp.MustCompile(`(19|20)\d{2}`)
)

// Normalize converts a raw record into a canonical Listing. It returns a
// *MalformedRecordError when source or native id is empty, and succeeds for
// everything else.
func Normalize(rec listing.RawRecord) (listing.Listing, error) {
	src := strings.TrimSpace(rec.Source)
	id := strings.TrimSpace(rec.NativeID)
	if src == "" || id == "" {
		return listing.Listing{}, &MalformedRecordError{
			Source:   rec.Source,
			NativeID: rec.NativeID,
			Reason:   "identity fields are required",
		}
	}

	title := strings.TrimSpace(rec.Field(listing.FieldTitle))
	rawText := joinText(title, rec.Text)

	l := listing.Listing{
		Source:         src,
		NativeID:       id,
		Generation:     classifyGeneration(rawText),
		BodyType:       classifyBodyType(rawText),
		AccidentFree:   parseAccident(rec.Field(listing.FieldAccident), rawText),
		WarrantyMonths: parseAmount(rec.Field(listing.FieldWarrantyMonths)),
		MileageKM:      parseAmount(rec.Field(listing.FieldMileageKM)),
		OwnerCount:     parsePositive(rec.Field(listing.FieldOwners)),
		PriceEUR:       parseAmount(rec.Field(listing.FieldPriceEUR)),
		Status:         parseStatus(rec.Field(listing.FieldStatus)),
		Year:           parseYear(rec.Field(listing.FieldYear)),
		Location:       strings.TrimSpace(rec.Field(listing.FieldLocation)),
		URL:            strings.TrimSpace(rec.Field(listing.FieldURL)),
		Title:          title,
		RawText:        rawText,
	}
	return l, nil
}

// joinText concatenates the non-empty free-text parts with single spaces.
func joinText(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// parseAmount extracts a non-negative integer from locale-formatted text.
// Thousand separators and unit suffixes are stripped: "38.500 km" -> 38500,
// "189.000 EUR" -> 189000, "24 Monate" -> 24. Unparsable input yields nil.
func parseAmount(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	digits := strings.Join(digitsRe.FindAllString(s, -1), "")
	if digits == "" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// parsePositive is parseAmount restricted to values >= 1 (owner counts).
func parsePositive(s string) *int {
	n := parseAmount(s)
	if n == nil || *n < 1 {
		return nil
	}
	return n
}

// parseYear extracts a plausible four-digit year ("05/2022" -> 2022).
// Plain digit-stripping would mangle "MM/YYYY" registrations, hence the
// dedicated pattern.
func parseYear(s string) *int {
	m := yearRe.FindString(s)
	if m == "" {
		return nil
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &y
}

// parseAccident derives the tri-state accident verdict. The dedicated field
// wins; free text is the fallback. Negated phrases are checked first so
// "nicht unfallfrei" never reads as accident-free.
func parseAccident(field, rawText string) listing.Tri {
	for _, s := range []string{field, rawText} {
		t := strings.ToLower(s)
		if t == "" {
			continue
		}
		switch {
		case strings.Contains(t, "nicht unfallfrei"),
			strings.Contains(t, "unfallfahrzeug"),
			strings.Contains(t, "unfallwagen"),
			t == "false", t == "no", t == "nein":
			return listing.TriFalse
		case strings.Contains(t, "unfallfrei"),
			strings.Contains(t, "accident-free"),
			strings.Contains(t, "accident free"),
			t == "true", t == "yes", t == "ja":
			return listing.TriTrue
		}
	}
	return listing.TriUnknown
}

func parseStatus(s string) listing.Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "available", "verfügbar", "verfuegbar", "active":
		return listing.StatusAvailable
	case "reserved", "reserviert":
		return listing.StatusReserved
	case "sold", "verkauft":
		return listing.StatusSold
	default:
		return listing.StatusUnknown
	}
}

// classifyGeneration pattern-matches the fixed generation phrase table.
// "992.2" variants are tested before "992.1" because "992 i" is a prefix of
// "992 ii".
func classifyGeneration(rawText string) listing.Generation {
	t := strings.ToLower(rawText)
	switch {
	case containsAny(t, "992.2", "992 ii", "992ii", "992-2"):
		return listing.Gen9922
	case containsAny(t, "992.1", "992 i", "992i", "992-1"):
		return listing.Gen9921
	case strings.Contains(t, "991"):
		return listing.Gen991
	default:
		return listing.GenUnknown
	}
}

// classifyBodyType pattern-matches the fixed body phrase table. Targa is
// checked first because Targa listings also carry "GTS" in their titles;
// the most specific GTS variant wins.
func classifyBodyType(rawText string) listing.BodyType {
	t := strings.ToLower(rawText)
	t = strings.ReplaceAll(t, "é", "e")
	switch {
	case strings.Contains(t, "targa"):
		return listing.BodyOther
	case containsAny(t, "carrera 4 gts", "carrera 4gts", "carrera4 gts"):
		return listing.BodyCarrera4GTS
	case containsAny(t, "carrera gts", "carreragts"):
		return listing.BodyCarreraGTS
	case strings.Contains(t, "coupe"):
		return listing.BodyCoupe
	default:
		return listing.BodyOther
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
