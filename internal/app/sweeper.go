package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/HeoSeonJin0504/qureka-server/internal/auth/reglock"
	"github.com/HeoSeonJin0504/qureka-server/internal/auth/session"
)

// newSweeper schedules the periodic reapers: expired refresh rows and stale
// registration locks. Both are safety nets; the hot paths already clean up
// after themselves.
func newSweeper(log Logger, interval time.Duration, sessions *session.Service, lock reglock.Locker) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := sessions.SweepExpired(ctx, time.Now().UTC()); err != nil {
			log.Warn("sweep.sessions.fail", "err", err)
		}
		if n := lock.Sweep(time.Now().UTC()); n > 0 {
			log.Info("sweep.reglock", "released", n)
		}
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}
