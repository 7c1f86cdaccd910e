package criteria

import (
	"github.com/fwagner/gtswatch/internal/detect"
	"github.com/fwagner/gtswatch/internal/listing"
)

// Default returns the shipped 992.1 GTS rule set. It is a starting point -
// operators override it with their own criteria file.
func Default() *Criteria {
	return &Criteria{
		Generation: listing.Gen9921,
		BodyTypes: []listing.BodyType{
			listing.BodyCarrera4GTS,
			listing.BodyCarreraGTS,
		},
		RequireAccidentFree: true,
		WarrantyMonthsMin:   12,
		MileageKMMax:        50000,
		OwnersPreferredMin:  1,
		OwnersPreferredMax:  2,
		OwnerPenalty:        50,
		MustHave: []string{
			"sport_chrono",
			"front_axle_lift",
			"rear_axle_steering",
			"adaptive_cruise",
			"matrix_led",
			"premium_sound",
			"sport_seats",
		},
		NiceToHave: map[string]int{
			"fuel_tank_90l": 2,
			"surround_view": 1,
			"glass_sunroof": 1,
			"ppf":           1,
		},
		Features: detect.FeatureTable{
			"sport_chrono": {
				{Text: "sport chrono paket", Confidence: detect.High},
				{Text: "sport chrono", Confidence: detect.High},
				{Text: "sportchrono", Confidence: detect.Medium},
				{Text: "sport-chrono", Confidence: detect.Medium},
				{Text: "chrono", Confidence: detect.Low},
			},
			"front_axle_lift": {
				{Text: "liftsystem vorderachse", Confidence: detect.High},
				{Text: "front axle lift", Confidence: detect.High},
				{Text: "vorderachs-lift", Confidence: detect.High},
				{Text: "liftsystem", Confidence: detect.Medium},
				{Text: "lift system", Confidence: detect.Medium},
				{Text: "lift", Confidence: detect.Low},
			},
			"rear_axle_steering": {
				{Text: "hinterachslenkung", Confidence: detect.High},
				{Text: "rear-axle steering", Confidence: detect.High},
				{Text: "rear axle steering", Confidence: detect.High},
				{Text: "hinterachs-lenkung", Confidence: detect.Medium},
				{Text: "4ws", Confidence: detect.Low},
			},
			"adaptive_cruise": {
				{Text: "abstandsregeltempostat", Confidence: detect.High},
				{Text: "innodrive", Confidence: detect.High},
				{Text: "adaptive cruise", Confidence: detect.Medium},
				{Text: "adaptive tempomat", Confidence: detect.Medium},
				{Text: "acc", Confidence: detect.Low},
			},
			"matrix_led": {
				{Text: "led-matrix", Confidence: detect.High},
				{Text: "led matrix", Confidence: detect.High},
				{Text: "pdls plus", Confidence: detect.High},
				{Text: "hd-matrix", Confidence: detect.Medium},
				{Text: "pdls+", Confidence: detect.Medium},
			},
			"premium_sound": {
				{Text: "burmester", Confidence: detect.High},
				{Text: "bose", Confidence: detect.High},
			},
			"sport_seats": {
				{Text: "adaptive sportsitze plus", Confidence: detect.High},
				{Text: "18-wege", Confidence: detect.High},
				{Text: "18-way", Confidence: detect.High},
				{Text: "adaptiv-sportsitze", Confidence: detect.Medium},
				{Text: "sportsitze plus", Confidence: detect.Medium},
			},
			"fuel_tank_90l": {
				{Text: "kraftstoffbehälter 90", Confidence: detect.High},
				{Text: "90-liter", Confidence: detect.Medium},
				{Text: "90l tank", Confidence: detect.Medium},
				{Text: "90 l tank", Confidence: detect.Medium},
			},
			"surround_view": {
				{Text: "surround view", Confidence: detect.High},
				{Text: "360 kamera", Confidence: detect.Medium},
				{Text: "360", Confidence: detect.Low},
			},
			"glass_sunroof": {
				{Text: "hubdach aus glas", Confidence: detect.High},
				{Text: "glass sunroof", Confidence: detect.High},
				{Text: "schiebedach", Confidence: detect.Medium},
				{Text: "panorama", Confidence: detect.Low},
				{Text: "gsd", Confidence: detect.Low},
			},
			"ppf": {
				{Text: "steinschlagschutzfolie", Confidence: detect.High},
				{Text: "lackschutzfolie", Confidence: detect.High},
				{Text: "paint protection", Confidence: detect.Medium},
				{Text: "ppf", Confidence: detect.Low},
			},
		},
	}
}
