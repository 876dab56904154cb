package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/teapot/packages/delivery"
	"github.com/abdul-hamid-achik/teapot/packages/teapot"
)

const (
	defaultWaitTimeout  = 30 * time.Second
	defaultWaitInterval = 500 * time.Millisecond
)

// waitForService polls cfg.Path through the client until it answers with the
// expected status or the timeout passes.
func (r *Runner) waitForService(ctx context.Context, cfg *WaitFor) error {
	if cfg == nil {
		return nil
	}

	path := r.resolver.Resolve(cfg.Path)
	expected := cfg.Status
	if expected == 0 {
		expected = 200
	}
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultWaitTimeout
	}
	interval := time.Duration(cfg.Interval) * time.Millisecond
	if interval <= 0 {
		interval = defaultWaitInterval
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r.logger.Debugf("waiting for %s to return %d (timeout: %v, interval: %v)", path, expected, timeout, interval)

	var lastStatus int
	var lastErr error
	for {
		h := r.client.Get(path, nil, teapot.WithContext(ctx), teapot.WithDeliveryContext(delivery.Immediate))
		result, err := h.Await(ctx)
		if err == nil {
			lastStatus = result.Status()
			lastErr = result.Err()
			if lastStatus == expected {
				r.logger.Debugf("service %s is ready (status: %d)", path, lastStatus)
				return nil
			}
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return fmt.Errorf("service %s not ready after %v: %w", path, timeout, lastErr)
			}
			return fmt.Errorf("service %s not ready after %v: got status %d, expected %d",
				path, timeout, lastStatus, expected)
		case <-time.After(interval):
		}
	}
}
