// Package report renders run results as a markdown document.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/fwagner/gtswatch/internal/engine"
	"github.com/fwagner/gtswatch/internal/match"
	"github.com/fwagner/gtswatch/internal/track"
)

// Render produces the markdown report for one run: a summary block, the
// passing listings ranked by score, and the rejected listings with their
// violations.
func Render(outcomes []engine.Outcome, sum engine.Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# GTS Watch Report\n\n")
	fmt.Fprintf(&b, "Run `%s` finished %s.\n\n", sum.RunID, sum.Finished.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Listings scanned | %d |\n", sum.Total)
	fmt.Fprintf(&b, "| Matches | %d |\n", sum.Matches)
	fmt.Fprintf(&b, "| New | %d |\n", sum.New)
	fmt.Fprintf(&b, "| Changed | %d |\n", sum.Changed)
	if sum.Malformed > 0 {
		fmt.Fprintf(&b, "| Malformed records | %d |\n", sum.Malformed)
	}
	if sum.StoreErrors > 0 {
		fmt.Fprintf(&b, "| Store errors | %d |\n", sum.StoreErrors)
	}
	b.WriteString("\n")

	var matches, rejected []engine.Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		if o.Result.Passed {
			matches = append(matches, o)
		} else {
			rejected = append(rejected, o)
		}
	}

	b.WriteString("## Matches\n\n")
	if len(matches) == 0 {
		b.WriteString("No listing passed the criteria.\n\n")
	}
	for _, o := range matches {
		writeMatch(&b, o)
	}

	if len(rejected) > 0 {
		b.WriteString("## Rejected\n\n")
		for _, o := range rejected {
			writeRejected(&b, o)
		}
	}

	return b.String()
}

func writeMatch(b *strings.Builder, o engine.Outcome) {
	l := o.Listing
	fmt.Fprintf(b, "### %s %s\n\n", badge(o.Event.Type), title(o))
	fmt.Fprintf(b, "- Price: %s\n", euro(l.PriceEUR))
	fmt.Fprintf(b, "- Mileage: %s\n", km(l.MileageKM))
	if l.WarrantyMonths != nil {
		fmt.Fprintf(b, "- Warranty: %d months\n", *l.WarrantyMonths)
	}
	if l.Year != nil {
		fmt.Fprintf(b, "- Year: %d\n", *l.Year)
	}
	if l.Location != "" {
		fmt.Fprintf(b, "- Location: %s\n", l.Location)
	}
	fmt.Fprintf(b, "- Score: %d.%02d\n", o.Result.Score/100, abs(o.Result.Score)%100)
	for _, r := range o.Result.Reasons {
		if r.Check == match.CheckMustHave {
			fmt.Fprintf(b, "  - %s\n", r.Detail)
		}
	}
	if o.Result.OwnerAdvisory {
		b.WriteString("- Note: owner count outside preferred range\n")
	}
	if o.Event.Type == track.ChangedMatch && !o.Event.Diff.Empty() {
		fmt.Fprintf(b, "- Changes: %s\n", o.Event.Diff.Summary())
	}
	if l.URL != "" {
		fmt.Fprintf(b, "- [Listing](%s)\n", l.URL)
	}
	b.WriteString("\n")
}

func writeRejected(b *strings.Builder, o engine.Outcome) {
	fmt.Fprintf(b, "- **%s** (%s, %s): ", title(o), euro(o.Listing.PriceEUR), km(o.Listing.MileageKM))
	var parts []string
	for _, r := range o.Result.Violations() {
		parts = append(parts, r.String())
	}
	b.WriteString(strings.Join(parts, "; "))
	if o.Event.Diff.StatusSold {
		b.WriteString(" [SOLD]")
	}
	b.WriteString("\n")
}

// Write renders the report and writes it to path, creating parent
// directories as needed.
func Write(path string, outcomes []engine.Outcome, sum engine.Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(Render(outcomes, sum)), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func badge(t track.EventType) string {
	switch t {
	case track.NewMatch:
		return "[NEW]"
	case track.ChangedMatch:
		return "[CHANGED]"
	default:
		return "[SEEN]"
	}
}

func title(o engine.Outcome) string {
	if o.Listing.Title != "" {
		return o.Listing.Title
	}
	return o.Listing.Key().String()
}

func euro(v *int) string {
	if v == nil {
		return "price unknown"
	}
	return humanize.Comma(int64(*v)) + " EUR"
}

func km(v *int) string {
	if v == nil {
		return "mileage unknown"
	}
	return humanize.Comma(int64(*v)) + " km"
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
