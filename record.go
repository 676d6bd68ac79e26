package statusboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrMalformedPayload is returned by [ParseSnapshot] when a payload is not a
// JSON array of server status objects.
var ErrMalformedPayload = errors.New("malformed status payload")

// Record is the status of one monitored server as reported by the upstream
// status endpoint.
type Record struct {
	// Name is the display label of the server.
	Name string `json:"name"`

	// Host is the address or hostname of the server.
	Host string `json:"host"`

	// Status is true when the server is up.
	Status bool `json:"status"`

	// ResponseTime is the last probe latency in milliseconds.
	// Only meaningful when Status is true.
	ResponseTime float64 `json:"responseTime"`

	// Uptime is the percentage of successful probes, 0.0-100.0.
	Uptime float64 `json:"uptime"`

	// LastChecked is when the server was last probed.
	LastChecked Timestamp `json:"lastChecked"`
}

// Snapshot is the full ordered list of records delivered in one update.
// Order is display order and is preserved from the source.
type Snapshot []Record

// Clone returns a copy of the snapshot that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	return append(Snapshot(nil), s...)
}

// ParseSnapshot decodes a status payload.
//
// The payload must be a JSON array whose elements are objects. A JSON null,
// any other top-level value, or a non-object element yields an error wrapping
// [ErrMalformedPayload]. An empty array yields an empty, non-nil snapshot.
func ParseSnapshot(data []byte) (Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformedPayload)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	snapshot := make(Snapshot, len(raw))
	for i, elem := range raw {
		if len(elem) == 0 || elem[0] != '{' {
			return nil, fmt.Errorf("%w: element %d is not an object", ErrMalformedPayload, i)
		}
		if err := json.Unmarshal(elem, &snapshot[i]); err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrMalformedPayload, i, err)
		}
	}
	return snapshot, nil
}

// Timestamp is a point in time that decodes from either epoch milliseconds
// (a JSON number) or an RFC 3339 string, and encodes as an RFC 3339 string.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}

	var millis float64
	if err := json.Unmarshal(data, &millis); err != nil {
		return fmt.Errorf("timestamp must be epoch milliseconds or an RFC 3339 string: %w", err)
	}
	if math.IsNaN(millis) || math.IsInf(millis, 0) {
		return fmt.Errorf("invalid timestamp %v", millis)
	}
	t.Time = time.UnixMilli(int64(millis))
	return nil
}

// MarshalJSON implements json.Marshaler for Timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return t.Time.MarshalJSON()
}
