package access

import (
	"sort"
	"time"
)

// Session is one run of granted accesses where every entry is at most
// Duration after its predecessor.
type Session struct {
	Start time.Time
	End   time.Time
	Hits  int
}

// Windower splits an identity's granted accesses into sessions.
type Windower struct {
	Duration time.Duration
}

// Segment sorts a copy of ts and cuts a new session whenever the gap to the
// previous timestamp exceeds w.Duration. A gap equal to Duration stays in
// the same session.
func (w Windower) Segment(ts []time.Time) []Session {
	if len(ts) == 0 {
		return nil
	}
	sorted := make([]time.Time, len(ts))
	copy(sorted, ts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	sessions := []Session{{Start: sorted[0], End: sorted[0], Hits: 1}}
	for _, t := range sorted[1:] {
		cur := &sessions[len(sessions)-1]
		if t.Sub(cur.End) > w.Duration {
			sessions = append(sessions, Session{Start: t, End: t, Hits: 1})
			continue
		}
		cur.End = t
		cur.Hits++
	}
	return sessions
}

func (w Windower) Count(ts []time.Time) int {
	return len(w.Segment(ts))
}

// Active reports whether now still falls inside the session whose latest
// access was at last.
func (w Windower) Active(last, now time.Time) bool {
	return now.Sub(last) <= w.Duration
}

// GroupedEntry is a display row: either one session of granted content
// accesses by one identity, or a single pass-through entry.
type GroupedEntry struct {
	FileID        string    `json:"file_id"`
	ConsumerID    *int64    `json:"consumer_id,omitempty"`
	ClientIP      string    `json:"client_ip"`
	UserAgent     string    `json:"user_agent"`
	Granted       bool      `json:"granted"`
	Method        Method    `json:"method"`
	FailureReason Reason    `json:"failure_reason,omitempty"`
	Viewed        bool      `json:"viewed"`
	Downloaded    bool      `json:"downloaded"`
	FirstAt       time.Time `json:"first_at"`
	LastAt        time.Time `json:"last_at"`
	Hits          int       `json:"hits"`
}

// Group merges granted view/download entries into one row per session per
// identity. Denied and non-content entries pass through unchanged. Rows are
// returned ordered by FirstAt.
func (w Windower) Group(entries []AccessLog) []GroupedEntry {
	sorted := make([]AccessLog, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	var out []GroupedEntry
	// index into out of the open session per identity
	open := make(map[string]int)

	for _, e := range sorted {
		if !e.Granted || !e.Method.IsContent() {
			out = append(out, singleEntry(e))
			continue
		}
		key := e.Identity().Key()
		if idx, ok := open[key]; ok && e.CreatedAt.Sub(out[idx].LastAt) <= w.Duration {
			g := &out[idx]
			g.LastAt = e.CreatedAt
			g.Hits++
			g.UserAgent = e.UserAgent
			markMethod(g, e.Method)
			continue
		}
		g := singleEntry(e)
		markMethod(&g, e.Method)
		out = append(out, g)
		open[key] = len(out) - 1
	}
	return out
}

func singleEntry(e AccessLog) GroupedEntry {
	return GroupedEntry{
		FileID:        e.FileID,
		ConsumerID:    e.ConsumerID,
		ClientIP:      e.ClientIP,
		UserAgent:     e.UserAgent,
		Granted:       e.Granted,
		Method:        e.Method,
		FailureReason: e.FailureReason,
		FirstAt:       e.CreatedAt,
		LastAt:        e.CreatedAt,
		Hits:          1,
	}
}

func markMethod(g *GroupedEntry, m Method) {
	switch m {
	case MethodView:
		g.Viewed = true
	case MethodDownload:
		g.Downloaded = true
	}
}
