package statusboard

import (
	"context"
	"net/http"

	"github.com/jpalmerr/statusboard/internal/refresh"
)

// runPoll performs the startup attempt, then one attempt each time the
// controller's timer fires. Attempts never overlap: the next one is only
// scheduled once the previous one has reported its outcome.
func (b *Board) runPoll(ctx context.Context, ctl *refresh.Controller) {
	for {
		b.pollOnce(ctx, ctl)
		if !ctl.Wait(ctx) {
			return
		}
	}
}

// pollOnce fetches and renders one snapshot and reports the outcome.
func (b *Board) pollOnce(ctx context.Context, ctl *refresh.Controller) {
	resp := b.client.Fetch(ctx, http.MethodGet, b.statusURL,
		map[string]string{"Accept": "application/json"}, b.requestTimeout)

	// torn down while the request was in flight
	if ctx.Err() != nil || !ctl.Active() {
		return
	}

	if resp.Error != nil {
		b.logger.Warn("status fetch failed",
			"url", b.statusURL,
			"error", resp.Error.Error(),
		)
		ctl.OnFailure()
		return
	}
	if !resp.OK() {
		b.logger.Warn("status fetch failed",
			"url", b.statusURL,
			"status_code", resp.StatusCode,
		)
		ctl.OnFailure()
		return
	}

	snapshot, err := ParseSnapshot(resp.Body)
	if err != nil {
		b.logger.Warn("status payload rejected",
			"url", b.statusURL,
			"error", err.Error(),
		)
		ctl.OnFailure()
		return
	}

	b.deliver(snapshot)
	b.sink.SetMode(ModeNormal)
	ctl.OnSuccess()

	b.logger.Debug("status fetched",
		"records", len(snapshot),
		"latency_ms", resp.Latency.Milliseconds(),
	)
}
