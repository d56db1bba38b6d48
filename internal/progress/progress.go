// Package progress emits throttled progress log lines for long running region
// loads and saves. Lines are emitted based on elapsed time, never on item
// count, so small regions produce no output at all.
package progress

import (
	"log/slog"
	"time"
)

// Reporter counts completed steps out of a known total and logs the
// percentage reached at most once per interval.
type Reporter struct {
	log      *slog.Logger
	msg      string
	total    int
	done     int
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

// New returns a Reporter that logs msg with a "percent" attribute. A total of
// zero or less never logs. An interval of zero or less defaults to one second.
func New(log *slog.Logger, msg string, total int, interval time.Duration) *Reporter {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = time.Second
	}
	r := &Reporter{log: log, msg: msg, total: total, interval: interval, now: time.Now}
	r.last = r.now()
	return r
}

// Step marks one more step as completed and logs if the interval has passed
// since the previous line.
func (r *Reporter) Step() {
	r.done++
	if r.total <= 0 {
		return
	}
	if t := r.now(); t.Sub(r.last) >= r.interval {
		r.log.Info(r.msg, "percent", r.done*100/r.total)
		r.last = t
	}
}

// Done returns the number of completed steps.
func (r *Reporter) Done() int { return r.done }
