package account

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mrhat05/Doubtroom/core/user"
)

// poller reloads the principal at a fixed interval until its email is verified.
// The first check happens right away.
type poller struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startPoller(m *Machine, p user.Principal, interval time.Duration) *poller {
	ctx, cancel := context.WithCancel(context.Background())
	poll := &poller{cancel: cancel, done: make(chan struct{})}
	ticker := backoff.NewTicker(backoff.WithContext(backoff.NewConstantBackOff(interval), ctx))

	go func() {
		defer close(poll.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ticker.C:
				if !ok {
					return
				}
				fresh, err := m.auth.Reload(ctx, p)
				if err != nil {
					if ctx.Err() == nil {
						m.logger.Debug("reloading user", err, logPerson(p))
					}
					continue
				}
				if fresh.EmailVerified {
					m.verified(ctx, poll, fresh)
					return
				}
			}
		}
	}()
	return poll
}

func (poll *poller) stop() {
	poll.cancel()
}

// wait blocks until the poll goroutine returned.
func (poll *poller) wait() {
	<-poll.done
}
