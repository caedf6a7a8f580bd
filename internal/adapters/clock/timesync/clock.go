package timesync

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/ntp"
	"github.com/bnema/goalpanel/internal/ports"
	"github.com/sirupsen/logrus"
)

const defaultQueryTimeout = 2 * time.Second

// minSaneUnix matches the threshold the date derivation uses to detect a
// clock that was never set.
const minSaneUnix = 100000

// QueryFunc returns how far the local clock is behind the server.
type QueryFunc func(ctx context.Context, server string, timeout time.Duration) (time.Duration, error)

// Clock is a wall clock corrected by the offset of the last successful time
// server query. With no servers configured it trusts the host clock once
// that reads a sane time.
type Clock struct {
	servers []string
	timeout time.Duration
	query   QueryFunc
	now     func() time.Time
	log     logrus.FieldLogger

	offset time.Duration
	synced bool
}

var (
	_ ports.Clock     = (*Clock)(nil)
	_ ports.ClockSync = (*Clock)(nil)
)

type Options struct {
	Servers      []string
	QueryTimeout time.Duration
	Query        QueryFunc
	Now          func() time.Time
	Logger       logrus.FieldLogger
}

func New(opts Options) *Clock {
	c := &Clock{
		servers: opts.Servers,
		timeout: opts.QueryTimeout,
		query:   opts.Query,
		now:     opts.Now,
		log:     opts.Logger,
	}
	if c.timeout <= 0 {
		c.timeout = defaultQueryTimeout
	}
	if c.query == nil {
		c.query = queryServer
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.log == nil {
		c.log = logrus.StandardLogger()
	}
	return c
}

func (c *Clock) Now() time.Time {
	return c.now().Add(c.offset)
}

func (c *Clock) Synced() bool {
	return c.synced
}

// Attempt queries each server in order until one answers.
func (c *Clock) Attempt(ctx context.Context) bool {
	if c.synced {
		return true
	}

	if len(c.servers) == 0 {
		c.synced = c.now().Unix() >= minSaneUnix
		return c.synced
	}

	for _, server := range c.servers {
		if ctx.Err() != nil {
			return false
		}

		offset, err := c.query(ctx, server, c.timeout)
		if err != nil {
			c.log.WithError(err).WithField("server", server).Debug("time query failed")
			continue
		}

		c.offset = offset
		c.synced = c.Now().Unix() >= minSaneUnix
		if c.synced {
			c.log.WithFields(logrus.Fields{"server": server, "offset": offset}).Debug("clock offset applied")
			return true
		}
	}

	return false
}

func queryServer(ctx context.Context, server string, timeout time.Duration) (time.Duration, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return 0, context.DeadlineExceeded
	}

	response, err := ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", server, err)
	}
	if err := response.Validate(); err != nil {
		return 0, fmt.Errorf("validate %s: %w", server, err)
	}

	return response.ClockOffset, nil
}
