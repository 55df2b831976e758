// Package reaper runs periodic background maintenance tasks, grounded on
// the teacher's internal/plugins/scheduler.go use of robfig/cron/v3
// (cron.New, AddFunc, Start/Stop) for scheduled jobs, repointed here at
// session-store pruning instead of plugin schedules.
package reaper

import (
	"github.com/robfig/cron/v3"

	"github.com/streamspace-dev/mcp-gateway/internal/logger"
)

// Pruner is satisfied by session-store backends that track their own
// expiry locally and need a periodic sweep for entries nobody reads again
// (spec.md section 9: "sessions...TTL" with no explicit active-eviction
// requirement, but an unbounded map is not acceptable for a long-lived
// process).
type Pruner interface {
	Prune() int
}

// Reaper wraps a cron schedule that periodically prunes a Pruner.
type Reaper struct {
	cron *cron.Cron
}

// New schedules pruner.Prune() to run on cronExpr (standard 5-field cron
// syntax, e.g. "*/5 * * * *" for every five minutes).
func New(pruner Pruner, cronExpr string) (*Reaper, error) {
	c := cron.New()
	_, err := c.AddFunc(cronExpr, func() {
		if n := pruner.Prune(); n > 0 {
			logger.SessionStore().Debug().Int("pruned", n).Msg("session reaper swept expired entries")
		}
	})
	if err != nil {
		return nil, err
	}
	return &Reaper{cron: c}, nil
}

// Start begins running the schedule in the background.
func (r *Reaper) Start() {
	r.cron.Start()
}

// Stop halts the schedule, waiting for any in-flight run to finish.
func (r *Reaper) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}
