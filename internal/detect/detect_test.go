package detect

import (
	"encoding/json"
	"testing"
)

var testTable = FeatureTable{
	"sport_chrono": {
		{Text: "Sport Chrono Paket", Confidence: High},
		{Text: "sportchrono", Confidence: Medium},
		{Text: "chrono", Confidence: Low},
	},
	"adaptive_cruise": {
		{Text: "Abstandsregeltempostat", Confidence: High},
		{Text: "acc", Confidence: Low},
	},
	"glass_sunroof": {
		{Text: "Hubdach aus Glas", Confidence: High},
		{Text: "schiebedach", Confidence: Medium},
	},
}

func TestDetectExactPhraseHighConfidence(t *testing.T) {
	v := Detect("Ausstattung: Sport Chrono Paket, PASM", testTable)
	hit := v["sport_chrono"]
	if !hit.Present {
		t.Fatal("sport_chrono should be present")
	}
	if hit.Confidence != High {
		t.Errorf("confidence = %s, want high", hit.Confidence)
	}
}

func TestDetectMaxConfidenceWins(t *testing.T) {
	// Both the low-confidence "chrono" and the high-confidence full phrase
	// match; the verdict carries the maximum.
	v := Detect("sport chrono paket mit chrono stoppuhr", testTable)
	if got := v["sport_chrono"].Confidence; got != High {
		t.Errorf("confidence = %s, want high", got)
	}
}

func TestDetectAmbiguousKeywordLowConfidence(t *testing.T) {
	v := Detect("2.4 ACC compressor housing", testTable)
	hit := v["adaptive_cruise"]
	if !hit.Present {
		t.Fatal("acc keyword should match")
	}
	if hit.Confidence != Low {
		t.Errorf("confidence = %s, want low", hit.Confidence)
	}
}

func TestDetectAbsentFeature(t *testing.T) {
	v := Detect("nothing relevant here", testTable)
	hit, ok := v["glass_sunroof"]
	if !ok {
		t.Fatal("verdict must cover every feature in the table")
	}
	if hit.Present {
		t.Error("glass_sunroof should be absent")
	}
	if hit.Confidence != Low {
		t.Errorf("absence confidence = %s, want low", hit.Confidence)
	}
}

func TestDetectAccentFolding(t *testing.T) {
	// Umlaut variants of the same word must match uniformly.
	v := Detect("Schiebe-/Hübdach aus Glas", testTable)
	if !v["glass_sunroof"].Present {
		t.Error("accented Hübdach should match Hubdach phrase")
	}
	if v["glass_sunroof"].Confidence != High {
		t.Errorf("confidence = %s, want high", v["glass_sunroof"].Confidence)
	}
}

func TestDetectCaseInsensitive(t *testing.T) {
	v := Detect("SPORTCHRONO", testTable)
	if !v["sport_chrono"].Present {
		t.Error("matching should be case-insensitive")
	}
	if v["sport_chrono"].Confidence != Medium {
		t.Errorf("confidence = %s, want medium", v["sport_chrono"].Confidence)
	}
}

func TestVerdictSubset(t *testing.T) {
	v := Detect("sport chrono paket", testTable)
	sub := v.Subset([]string{"sport_chrono", "unknown_feature"})
	if len(sub) != 2 {
		t.Fatalf("subset size = %d, want 2", len(sub))
	}
	if !sub["sport_chrono"].Present {
		t.Error("subset should carry the original hit")
	}
	if sub["unknown_feature"].Present {
		t.Error("unknown feature should be absent")
	}
}

func TestConfidenceJSONRoundTrip(t *testing.T) {
	for _, c := range []Confidence{Low, Medium, High} {
		data, err := json.Marshal(c)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var back Confidence
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back != c {
			t.Errorf("round trip %s -> %s", c, back)
		}
	}
	var c Confidence
	if err := json.Unmarshal([]byte(`"huge"`), &c); err == nil {
		t.Error("invalid confidence should fail to parse")
	}
}
