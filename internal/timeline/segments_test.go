package timeline

import (
	"strings"
	"testing"
)

func TestSegmentID(t *testing.T) {
	iv := Interval{SourceID: 42, Start: at(9, 0, 0), End: at(9, 10, 0)}
	if got := SegmentID(iv); got != "ev_42" {
		t.Errorf("SegmentID = %q, want ev_42", got)
	}

	iv.Chunked = true
	want := "ev_42_" + "1748854800" // 2025-06-02T09:00:00Z
	if got := SegmentID(iv); got != want {
		t.Errorf("chunked SegmentID = %q, want %q", got, want)
	}
}

func TestPaletteColor_CyclesByIndex(t *testing.T) {
	if PaletteColor(0) != segmentPalette[0] {
		t.Errorf("index 0 color = %q, want %q", PaletteColor(0), segmentPalette[0])
	}
	if PaletteColor(len(segmentPalette)) != segmentPalette[0] {
		t.Error("palette does not wrap around")
	}
	if PaletteColor(-1) != segmentPalette[0] {
		t.Error("negative index should fall back to first color")
	}
}

func TestBuildSegment_PercentPositioning(t *testing.T) {
	win := Window{From: at(9, 0, 0), To: at(13, 0, 0)}
	iv := Interval{
		Category: CategoryApp,
		Process:  "chrome.exe",
		Title:    "Docs",
		Start:    at(10, 0, 0),
		End:      at(11, 0, 0),
		SourceID: 7,
	}

	seg := BuildSegment(iv, win, 0)
	if seg.Left != 25 {
		t.Errorf("Left = %v, want 25", seg.Left)
	}
	if seg.Width != 25 {
		t.Errorf("Width = %v, want 25", seg.Width)
	}
	if seg.Color != segmentPalette[0] {
		t.Errorf("Color = %q, want first palette entry", seg.Color)
	}
	if !strings.Contains(seg.Label, "chrome.exe: Docs") || !strings.Contains(seg.Label, "10:00 - 11:00") {
		t.Errorf("label = %q, want process, title and clock range", seg.Label)
	}
}

func TestBuildSegment_ZeroWindowHasNoPositioning(t *testing.T) {
	iv := Interval{Category: CategoryInput, KeyCount: 9, Start: at(9, 0, 0), End: at(9, 5, 0), SourceID: 1}

	seg := BuildSegment(iv, Window{}, -1)
	if seg.Left != 0 || seg.Width != 0 {
		t.Errorf("zero window positioning = %v/%v, want 0/0", seg.Left, seg.Width)
	}
}

func TestSegmentLabels(t *testing.T) {
	cases := []struct {
		iv   Interval
		want string
	}{
		{Interval{Category: CategoryPresence, AFK: true, Start: at(9, 0, 0), End: at(9, 30, 0)}, "AFK: 09:00 - 09:30"},
		{Interval{Category: CategoryPresence, Start: at(9, 0, 0), End: at(9, 30, 0)}, "Active: 09:00 - 09:30"},
		{Interval{Category: CategoryInput, KeyCount: 55, Start: at(9, 0, 0), End: at(9, 5, 0)}, "55 keys: 09:00 - 09:05"},
		{Interval{Category: CategoryInput, Start: at(9, 0, 0), End: at(9, 5, 0)}, "Input: 09:00 - 09:05"},
		{Interval{Category: CategoryApp, Process: "code.exe", Start: at(9, 0, 0), End: at(9, 5, 0)}, "code.exe (09:00 - 09:05)"},
	}

	for _, tc := range cases {
		if got := segmentLabel(tc.iv); got != tc.want {
			t.Errorf("segmentLabel(%s) = %q, want %q", tc.iv.Category, got, tc.want)
		}
	}
}

func TestBuildSegments_AppColorsFollowFirstSeenOrder(t *testing.T) {
	win := Window{From: at(9, 0, 0), To: at(10, 0, 0)}
	intervals := []Interval{
		{Category: CategoryApp, Process: "a.exe", Start: at(9, 0, 0), End: at(9, 10, 0), SourceID: 1},
		{Category: CategoryApp, Process: "b.exe", Start: at(9, 10, 0), End: at(9, 20, 0), SourceID: 2},
		{Category: CategoryApp, Process: "a.exe", Start: at(9, 20, 0), End: at(9, 30, 0), SourceID: 3},
	}
	acc := NewAccumulator()
	for _, iv := range intervals {
		acc.Add(iv)
	}

	segs := BuildSegments(intervals, win, acc)
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3", len(segs))
	}
	if segs[0].Color != segs[2].Color {
		t.Error("same process received different colors")
	}
	if segs[0].Color == segs[1].Color {
		t.Error("different processes received the same color")
	}
}
