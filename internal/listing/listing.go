// Package listing defines the canonical listing model shared by the engine.
//
// A Listing is the normalized form of one vehicle advert as seen during one
// run. It is a plain value - immutable after construction - and may carry
// unknown/nil for anything the source omitted. Identity is the
// (source, native id) pair; everything else is data.
package listing

import (
	"encoding/json"
	"fmt"
)

// Generation classifies the 911 generation derived from free text.
type Generation string

const (
	Gen9921    Generation = "992.1"
	Gen9922    Generation = "992.2"
	Gen991     Generation = "991"
	GenUnknown Generation = "unknown"
)

// BodyType classifies the body/drivetrain variant derived from free text.
type BodyType string

const (
	BodyCoupe       BodyType = "coupe"
	BodyCarrera4GTS BodyType = "carrera_4_gts"
	BodyCarreraGTS  BodyType = "carrera_gts"
	BodyOther       BodyType = "other"
)

// Status is the sale status of a listing.
type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusSold      Status = "sold"
	StatusUnknown   Status = "unknown"
)

// Tri is a tri-state boolean. The zero value is TriUnknown so a missing
// field degrades to unknown rather than false.
type Tri uint8

const (
	TriUnknown Tri = iota
	TriFalse
	TriTrue
)

func (t Tri) String() string {
	switch t {
	case TriTrue:
		return "true"
	case TriFalse:
		return "false"
	default:
		return "unknown"
	}
}

func (t Tri) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tri) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "true":
		*t = TriTrue
	case "false":
		*t = TriFalse
	case "unknown", "":
		*t = TriUnknown
	default:
		return fmt.Errorf("invalid tri-state value %q", s)
	}
	return nil
}

// Key identifies a listing globally. NativeID is unique within Source;
// the engine never tries to correlate identities across sources.
type Key struct {
	Source   string `json:"source"`
	NativeID string `json:"native_id"`
}

func (k Key) String() string {
	return k.Source + ":" + k.NativeID
}

// Well-known RawRecord field keys. Source adapters populate whatever subset
// they can extract; the normalizer degrades the rest to unknown/nil.
const (
	FieldTitle          = "title"
	FieldPriceEUR       = "price_eur"
	FieldMileageKM      = "mileage_km"
	FieldWarrantyMonths = "warranty_months"
	FieldOwners         = "owners"
	FieldAccident       = "accident"
	FieldStatus         = "status"
	FieldYear           = "year"
	FieldLocation       = "location"
	FieldURL            = "url"
)

// RawRecord is the shape source adapters emit: identity, a string field map
// keyed by the Field* constants, and a free-text description blob. Values
// are raw site text ("38.500 km", "Porsche Approved 24 Monate") - parsing
// is the normalizer's job. Records are consumed read-only.
type RawRecord struct {
	Source   string            `json:"source"`
	NativeID string            `json:"native_id"`
	Fields   map[string]string `json:"fields"`
	Text     string            `json:"text"`
}

// Field returns the named raw field, or "" when absent.
func (r RawRecord) Field(name string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[name]
}

// Listing is the canonical form of a listing. Optional numerics are pointers
// (nil = source did not provide a parsable value).
type Listing struct {
	Source         string     `json:"source"`
	NativeID       string     `json:"native_id"`
	Generation     Generation `json:"generation"`
	BodyType       BodyType   `json:"body_type"`
	AccidentFree   Tri        `json:"accident_free"`
	WarrantyMonths *int       `json:"warranty_months"`
	MileageKM      *int       `json:"mileage_km"`
	OwnerCount     *int       `json:"owner_count"`
	PriceEUR       *int       `json:"price_eur"`
	Status         Status     `json:"status"`
	Year           *int       `json:"year"`
	Location       string     `json:"location"`
	URL            string     `json:"url"`
	Title          string     `json:"title"`

	// RawText concatenates all free-text fields for option detection.
	RawText string `json:"raw_text"`
}

// Key returns the listing's global identity.
func (l Listing) Key() Key {
	return Key{Source: l.Source, NativeID: l.NativeID}
}
