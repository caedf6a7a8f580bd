package source

import (
	"errors"

	"github.com/bnema/goalpanel/internal/domain"
	jsoniter "github.com/json-iterator/go"
)

var ErrDecodePayload = errors.New("decode metrics payload")

// DecodeReading extracts the three payload fields. A missing or mistyped
// numeric field decodes as zero and a non-string timestamp as empty; only a
// document that is not valid JSON is an error.
func DecodeReading(data []byte) (domain.Reading, error) {
	if !jsoniter.Valid(data) {
		return domain.Reading{}, ErrDecodePayload
	}

	root := jsoniter.Get(data)
	if root.ValueType() != jsoniter.ObjectValue {
		return domain.Reading{}, ErrDecodePayload
	}

	reading := domain.Reading{
		DaysToTarget:    root.Get("projection", "days_to_target").ToInt(),
		ProgressPercent: root.Get("goal_tracking", "current_progress_percent").ToFloat64(),
	}

	if ts := root.Get("metadata", "data_timestamp"); ts.ValueType() == jsoniter.StringValue {
		reading.DataTimestamp = ts.ToString()
	}

	return reading, nil
}
