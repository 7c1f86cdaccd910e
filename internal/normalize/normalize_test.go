package normalize

import (
	"errors"
	"testing"

	"github.com/fwagner/gtswatch/internal/listing"
)

func record(fields map[string]string, text string) listing.RawRecord {
	return listing.RawRecord{
		Source:   "mobile_de",
		NativeID: "abc123",
		Fields:   fields,
		Text:     text,
	}
}

func TestNormalizeFullRecord(t *testing.T) {
	rec := record(map[string]string{
		listing.FieldTitle:          "Porsche 911 (992.1) Carrera 4 GTS",
		listing.FieldPriceEUR:       "189.000 EUR",
		listing.FieldMileageKM:      "38.500 km",
		listing.FieldWarrantyMonths: "Porsche Approved 24 Monate",
		listing.FieldOwners:         "1",
		listing.FieldAccident:       "Unfallfrei",
		listing.FieldStatus:         "available",
		listing.FieldYear:           "05/2022",
		listing.FieldLocation:       "München",
		listing.FieldURL:            "https://example.com/1",
	}, "Sport Chrono Paket, Liftsystem Vorderachse")

	l, err := Normalize(rec)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if l.Generation != listing.Gen9921 {
		t.Errorf("generation = %s, want 992.1", l.Generation)
	}
	if l.BodyType != listing.BodyCarrera4GTS {
		t.Errorf("body type = %s, want carrera_4_gts", l.BodyType)
	}
	if l.AccidentFree != listing.TriTrue {
		t.Errorf("accident_free = %s, want true", l.AccidentFree)
	}
	if l.PriceEUR == nil || *l.PriceEUR != 189000 {
		t.Errorf("price = %v, want 189000", l.PriceEUR)
	}
	if l.MileageKM == nil || *l.MileageKM != 38500 {
		t.Errorf("mileage = %v, want 38500", l.MileageKM)
	}
	if l.WarrantyMonths == nil || *l.WarrantyMonths != 24 {
		t.Errorf("warranty = %v, want 24", l.WarrantyMonths)
	}
	if l.Year == nil || *l.Year != 2022 {
		t.Errorf("year = %v, want 2022", l.Year)
	}
	if l.Status != listing.StatusAvailable {
		t.Errorf("status = %s, want available", l.Status)
	}
	if l.RawText == "" {
		t.Error("raw text should concatenate title and description")
	}
}

func TestNormalizeMissingIdentity(t *testing.T) {
	cases := []struct {
		name string
		rec  listing.RawRecord
	}{
		{"empty source", listing.RawRecord{Source: "", NativeID: "x"}},
		{"empty native id", listing.RawRecord{Source: "mobile_de", NativeID: "  "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.rec)
			var merr *MalformedRecordError
			if !errors.As(err, &merr) {
				t.Fatalf("expected MalformedRecordError, got %v", err)
			}
		})
	}
}

func TestNormalizeDegradesMissingFields(t *testing.T) {
	l, err := Normalize(record(nil, ""))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if l.Generation != listing.GenUnknown {
		t.Errorf("generation = %s, want unknown", l.Generation)
	}
	if l.BodyType != listing.BodyOther {
		t.Errorf("body type = %s, want other", l.BodyType)
	}
	if l.AccidentFree != listing.TriUnknown {
		t.Errorf("accident_free = %s, want unknown", l.AccidentFree)
	}
	if l.PriceEUR != nil || l.MileageKM != nil || l.WarrantyMonths != nil || l.OwnerCount != nil {
		t.Error("missing numerics should be nil")
	}
	if l.Status != listing.StatusUnknown {
		t.Errorf("status = %s, want unknown", l.Status)
	}
}

func TestNormalizeUnparsableNumbers(t *testing.T) {
	l, err := Normalize(record(map[string]string{
		listing.FieldPriceEUR:  "auf Anfrage",
		listing.FieldMileageKM: "n/a",
		listing.FieldOwners:    "0",
	}, ""))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if l.PriceEUR != nil {
		t.Errorf("price = %v, want nil", l.PriceEUR)
	}
	if l.MileageKM != nil {
		t.Errorf("mileage = %v, want nil", l.MileageKM)
	}
	if l.OwnerCount != nil {
		t.Errorf("owner count = %v, want nil (must be positive)", l.OwnerCount)
	}
}

func TestClassifyGeneration(t *testing.T) {
	cases := []struct {
		text string
		want listing.Generation
	}{
		{"Porsche 911 992.1 Carrera GTS", listing.Gen9921},
		{"992 I facelift", listing.Gen9921},
		{"Porsche 911 992.2 GTS", listing.Gen9922},
		{"992 II T-Hybrid", listing.Gen9922},
		{"911 991 Carrera S", listing.Gen991},
		{"Porsche 911 Carrera", listing.GenUnknown},
	}
	for _, tc := range cases {
		if got := classifyGeneration(tc.text); got != tc.want {
			t.Errorf("classifyGeneration(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestClassifyBodyType(t *testing.T) {
	cases := []struct {
		text string
		want listing.BodyType
	}{
		{"911 Carrera 4 GTS Coupé", listing.BodyCarrera4GTS},
		{"911 Carrera GTS", listing.BodyCarreraGTS},
		{"911 Targa 4 GTS", listing.BodyOther},
		{"911 Carrera Coupé", listing.BodyCoupe},
		{"911 Turbo S Cabriolet", listing.BodyOther},
	}
	for _, tc := range cases {
		if got := classifyBodyType(tc.text); got != tc.want {
			t.Errorf("classifyBodyType(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestParseAccidentNegationWins(t *testing.T) {
	if got := parseAccident("", "Nicht unfallfrei, repariert"); got != listing.TriFalse {
		t.Errorf("negated accident text = %s, want false", got)
	}
	if got := parseAccident("Unfallfrei", ""); got != listing.TriTrue {
		t.Errorf("field accident text = %s, want true", got)
	}
}
