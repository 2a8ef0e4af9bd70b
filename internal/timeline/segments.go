package timeline

import (
	"fmt"
	"time"
)

// segmentPalette cycles by first-seen process index so a process keeps its
// color for the lifetime of a rendered window.
var segmentPalette = []string{
	"#667eea", "#764ba2", "#f093fb", "#43e97b", "#ffa07a",
	"#4facfe", "#00f2fe", "#fa709a", "#fee140", "#30cfd0",
}

// DisplaySegment is one renderable bar on a timeline lane. Left and Width
// are percentages of the query window.
type DisplaySegment struct {
	ID       string    `json:"id"`
	Category Category  `json:"category"`
	Process  string    `json:"process,omitempty"`
	Label    string    `json:"label"`
	AFK      bool      `json:"afk,omitempty"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Left     float64   `json:"left"`
	Width    float64   `json:"width"`
	Color    string    `json:"color,omitempty"`
}

// SegmentID derives the stable identity of a rendered interval. Chunks cut
// from a single input run share a source event and are disambiguated by
// their start time.
func SegmentID(iv Interval) string {
	if iv.Chunked {
		return fmt.Sprintf("ev_%d_%d", iv.SourceID, iv.Start.Unix())
	}
	return fmt.Sprintf("ev_%d", iv.SourceID)
}

// PaletteColor returns the palette entry for a first-seen process index.
func PaletteColor(index int) string {
	if index < 0 {
		index = 0
	}
	return segmentPalette[index%len(segmentPalette)]
}

func clockRange(start, end time.Time) string {
	return fmt.Sprintf("%s - %s", start.Format("15:04"), end.Format("15:04"))
}

func segmentLabel(iv Interval) string {
	rng := clockRange(iv.Start, iv.End)
	switch iv.Category {
	case CategoryApp:
		if iv.Title != "" {
			return fmt.Sprintf("%s: %s (%s)", iv.Process, iv.Title, rng)
		}
		return fmt.Sprintf("%s (%s)", iv.Process, rng)
	case CategoryPresence:
		if iv.AFK {
			return fmt.Sprintf("AFK: %s", rng)
		}
		return fmt.Sprintf("Active: %s", rng)
	case CategoryInput:
		if iv.KeyCount > 0 {
			return fmt.Sprintf("%d keys: %s", iv.KeyCount, rng)
		}
		return fmt.Sprintf("Input: %s", rng)
	}
	return rng
}

// BuildSegment converts a clamped interval into its display form. Percent
// positioning is computed against win; a zero-length window yields zero
// positions. colorIndex is the process's first-seen index, -1 for lanes
// without per-process coloring.
func BuildSegment(iv Interval, win Window, colorIndex int) DisplaySegment {
	seg := DisplaySegment{
		ID:       SegmentID(iv),
		Category: iv.Category,
		Process:  iv.Process,
		Label:    segmentLabel(iv),
		AFK:      iv.AFK,
		Start:    iv.Start,
		End:      iv.End,
	}
	if total := win.To.Sub(win.From); total > 0 {
		seg.Left = 100 * float64(iv.Start.Sub(win.From)) / float64(total)
		seg.Width = 100 * float64(iv.Duration()) / float64(total)
	}
	if iv.Category == CategoryApp {
		seg.Color = PaletteColor(colorIndex)
	}
	return seg
}

// BuildSegments renders every interval against the window, assigning app
// colors from the accumulator's first-seen ordering.
func BuildSegments(intervals []Interval, win Window, acc *Accumulator) []DisplaySegment {
	out := make([]DisplaySegment, 0, len(intervals))
	for _, iv := range intervals {
		idx := -1
		if iv.Category == CategoryApp && acc != nil {
			idx = acc.Index(iv.Process)
		}
		out = append(out, BuildSegment(iv, win, idx))
	}
	return out
}
