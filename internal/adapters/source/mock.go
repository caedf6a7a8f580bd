package source

import (
	"context"

	"github.com/bnema/goalpanel/internal/domain"
	"github.com/bnema/goalpanel/internal/ports"
)

// MockPayload mirrors the production API response and is served when mock
// mode is enabled.
const MockPayload = `{
    "goal_tracking": {
        "current_progress_percent": 22.2
    },
    "projection": {
        "days_to_target": 3750
    },
    "metadata": {
        "data_timestamp": "2025-10-28T11:51:53.666Z"
    }
}`

type MockFetcher struct {
	Payload string
}

var _ ports.MetricsFetcher = MockFetcher{}

func (f MockFetcher) Fetch(ctx context.Context) (domain.Reading, error) {
	if err := ctx.Err(); err != nil {
		return domain.Reading{}, err
	}

	payload := f.Payload
	if payload == "" {
		payload = MockPayload
	}
	return DecodeReading([]byte(payload))
}
