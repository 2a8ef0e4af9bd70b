package timeline

import "testing"

func appInterval(process string, startMin, endMin int) Interval {
	return Interval{
		Category: CategoryApp,
		Process:  process,
		Start:    at(9, startMin, 0),
		End:      at(9, endMin, 0),
	}
}

func TestAccumulator_Totals(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(appInterval("chrome.exe", 0, 10))
	acc.Add(appInterval("code.exe", 10, 15))
	acc.Add(appInterval("chrome.exe", 15, 20))

	stats := acc.Stats()
	if len(stats) != 2 {
		t.Fatalf("got %d processes, want 2", len(stats))
	}
	// First-seen order.
	if stats[0].Process != "chrome.exe" || stats[1].Process != "code.exe" {
		t.Errorf("order = %s, %s; want chrome.exe, code.exe", stats[0].Process, stats[1].Process)
	}
	if stats[0].Seconds != 900 || stats[0].Count != 2 {
		t.Errorf("chrome totals = %ds/%d, want 900/2", stats[0].Seconds, stats[0].Count)
	}
}

func TestAccumulator_HourOfDayBuckets(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(Interval{
		Category: CategoryApp,
		Process:  "chrome.exe",
		Start:    at(9, 30, 0),
		End:      at(11, 15, 0),
	})

	st := acc.Stats()[0]
	if st.Buckets[9] != 1800 || st.Buckets[10] != 3600 || st.Buckets[11] != 900 {
		t.Errorf("buckets 9/10/11 = %d/%d/%d, want 1800/3600/900",
			st.Buckets[9], st.Buckets[10], st.Buckets[11])
	}

	var total int64
	for _, s := range st.Buckets {
		total += s
	}
	if total != st.Seconds {
		t.Errorf("bucket total = %d, want %d", total, st.Seconds)
	}
}

func TestTopByDuration(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(appInterval("code.exe", 0, 5))
	acc.Add(appInterval("chrome.exe", 5, 35))
	acc.Add(appInterval("slack.exe", 35, 45))

	top := acc.TopByDuration(2, nil)
	if len(top) != 2 {
		t.Fatalf("got %d results, want 2", len(top))
	}
	if top[0].Process != "chrome.exe" || top[1].Process != "slack.exe" {
		t.Errorf("ranking = %s, %s; want chrome.exe, slack.exe", top[0].Process, top[1].Process)
	}
}

func TestTopByFrequency(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(appInterval("chrome.exe", 0, 30))
	acc.Add(appInterval("code.exe", 30, 31))
	acc.Add(appInterval("code.exe", 31, 32))
	acc.Add(appInterval("code.exe", 32, 33))

	top := acc.TopByFrequency(1, nil)
	if len(top) != 1 || top[0].Process != "code.exe" {
		t.Fatalf("top by frequency = %v, want code.exe", top)
	}
}

func TestTop_TiesResolveToFirstSeen(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(appInterval("first.exe", 0, 10))
	acc.Add(appInterval("second.exe", 10, 20))

	top := acc.TopByDuration(2, nil)
	if top[0].Process != "first.exe" {
		t.Errorf("tie resolved to %s, want first-seen first.exe", top[0].Process)
	}
}

func TestExclusions_CaseInsensitive(t *testing.T) {
	excl := NewExclusions([]string{"Explorer.EXE"})

	if !excl.Contains("explorer.exe") {
		t.Error("lowercase lookup missed excluded process")
	}
	if !excl.Contains("EXPLORER.EXE") {
		t.Error("uppercase lookup missed excluded process")
	}
	if excl.Contains("chrome.exe") {
		t.Error("unrelated process reported as excluded")
	}
}

func TestTop_ExcludedProcessesFilteredButStillAccumulated(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(appInterval("explorer.exe", 0, 50))
	acc.Add(appInterval("chrome.exe", 50, 55))

	excl := NewExclusions([]string{"explorer.exe"})
	top := acc.TopByDuration(5, excl)
	if len(top) != 1 || top[0].Process != "chrome.exe" {
		t.Fatalf("top = %v, want only chrome.exe", top)
	}

	// Raw stats still carry the excluded process.
	stats := acc.Stats()
	if len(stats) != 2 {
		t.Errorf("raw stats dropped excluded process: %v", stats)
	}
}

func TestAccumulator_Index(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(appInterval("a.exe", 0, 1))
	acc.Add(appInterval("b.exe", 1, 2))

	if acc.Index("a.exe") != 0 || acc.Index("b.exe") != 1 {
		t.Errorf("indexes = %d/%d, want 0/1", acc.Index("a.exe"), acc.Index("b.exe"))
	}
	if acc.Index("missing.exe") != -1 {
		t.Errorf("unseen process index = %d, want -1", acc.Index("missing.exe"))
	}
}
