package timeline

import (
	"net/url"
	"sort"
	"strings"

	"github.com/vigilhq/vigil/internal/model"
)

// DomainStat is one ranked row of the focus-frequency report. Kind is
// "app" for process names and "url" for visited domains.
type DomainStat struct {
	Domain string `json:"domain"`
	Count  int64  `json:"count"`
	Kind   string `json:"type"`
}

// DomainOf extracts the host part of a visited URL. When the string has
// no parseable host, the raw value stands in for it.
func DomainOf(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return rawURL
}

// TopDomains ranks process names and visited domains from focus-change
// events by frequency. Apps fill the limit first; domains take whatever
// room remains.
func TopDomains(events []model.Event, limit int) []DomainStat {
	apps := newCounter()
	domains := newCounter()
	for _, ev := range events {
		fg := ev.Foreground
		if fg == nil {
			continue
		}
		if fg.ProcessName != "" {
			apps.add(fg.ProcessName)
		}
		if d := DomainOf(fg.URL); d != "" {
			domains.add(d)
		}
	}

	out := apps.top(limit, "app")
	if remaining := limit - len(out); remaining > 0 {
		out = append(out, domains.top(remaining, "url")...)
	}
	return out
}

type counter struct {
	order  []string
	counts map[string]int64
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int64)}
}

func (c *counter) add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// top returns up to n entries by count descending, first-seen order
// breaking ties.
func (c *counter) top(n int, kind string) []DomainStat {
	ranked := make([]DomainStat, 0, len(c.order))
	for _, k := range c.order {
		ranked = append(ranked, DomainStat{Domain: k, Count: c.counts[k], Kind: kind})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
