package statusboard

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseSnapshot_SingleRecord(t *testing.T) {
	payload := `[{"name":"A","host":"h1","status":true,"responseTime":12,"uptime":99.9,"lastChecked":1000}]`

	snapshot, err := ParseSnapshot([]byte(payload))
	if err != nil {
		t.Fatalf("ParseSnapshot() error = %v", err)
	}
	if len(snapshot) != 1 {
		t.Fatalf("len(snapshot) = %d, want 1", len(snapshot))
	}

	r := snapshot[0]
	if r.Name != "A" || r.Host != "h1" || !r.Status {
		t.Errorf("record = %+v", r)
	}
	if r.ResponseTime != 12 {
		t.Errorf("ResponseTime = %v, want 12", r.ResponseTime)
	}
	if r.Uptime != 99.9 {
		t.Errorf("Uptime = %v, want 99.9", r.Uptime)
	}
	if !r.LastChecked.Equal(time.UnixMilli(1000)) {
		t.Errorf("LastChecked = %v, want %v", r.LastChecked.Time, time.UnixMilli(1000))
	}
}

func TestParseSnapshot_PreservesOrder(t *testing.T) {
	payload := `[{"name":"zeta"},{"name":"alpha"},{"name":"mid"}]`

	snapshot, err := ParseSnapshot([]byte(payload))
	if err != nil {
		t.Fatalf("ParseSnapshot() error = %v", err)
	}

	want := []string{"zeta", "alpha", "mid"}
	for i, name := range want {
		if snapshot[i].Name != name {
			t.Errorf("snapshot[%d].Name = %q, want %q", i, snapshot[i].Name, name)
		}
	}
}

func TestParseSnapshot_EmptyArray(t *testing.T) {
	snapshot, err := ParseSnapshot([]byte(" [ ] "))
	if err != nil {
		t.Fatalf("ParseSnapshot() error = %v", err)
	}
	if snapshot == nil || len(snapshot) != 0 {
		t.Errorf("snapshot = %#v, want empty non-nil", snapshot)
	}
}

func TestParseSnapshot_ISOTimestamp(t *testing.T) {
	payload := `[{"name":"A","lastChecked":"2024-03-01T10:15:30.5Z"}]`

	snapshot, err := ParseSnapshot([]byte(payload))
	if err != nil {
		t.Fatalf("ParseSnapshot() error = %v", err)
	}

	want := time.Date(2024, 3, 1, 10, 15, 30, 500_000_000, time.UTC)
	if !snapshot[0].LastChecked.Equal(want) {
		t.Errorf("LastChecked = %v, want %v", snapshot[0].LastChecked.Time, want)
	}
}

func TestParseSnapshot_ExtraFieldsIgnored(t *testing.T) {
	payload := `[{"name":"A","checks":10,"successes":9}]`

	if _, err := ParseSnapshot([]byte(payload)); err != nil {
		t.Errorf("ParseSnapshot() error = %v, want nil", err)
	}
}

func TestParseSnapshot_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty", ""},
		{"null", "null"},
		{"object", `{"name":"A"}`},
		{"string", `"servers"`},
		{"truncated", `[{"name":"A"`},
		{"not json", "not json at all"},
		{"null element", `[null]`},
		{"number element", `[1, 2]`},
		{"wrong field type", `[{"name":"A","status":"up"}]`},
		{"bad timestamp string", `[{"name":"A","lastChecked":"yesterday"}]`},
		{"bool timestamp", `[{"name":"A","lastChecked":true}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSnapshot([]byte(tt.payload))
			if err == nil {
				t.Fatal("ParseSnapshot() error = nil, want error")
			}
			if !errors.Is(err, ErrMalformedPayload) {
				t.Errorf("error = %v, want wrapping ErrMalformedPayload", err)
			}
		})
	}
}

func TestTimestamp_NullIsZero(t *testing.T) {
	var ts Timestamp
	if err := json.Unmarshal([]byte("null"), &ts); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !ts.IsZero() {
		t.Errorf("Timestamp = %v, want zero", ts.Time)
	}
}

func TestTimestamp_MarshalRFC3339(t *testing.T) {
	ts := Timestamp{Time: time.Date(2024, 3, 1, 10, 15, 30, 0, time.UTC)}

	data, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"2024-03-01T10:15:30Z"` {
		t.Errorf("Marshal() = %s", data)
	}
}

func TestSnapshot_Clone(t *testing.T) {
	original := Snapshot{{Name: "A"}, {Name: "B"}}

	cp := original.Clone()
	cp[0].Name = "changed"

	if original[0].Name != "A" {
		t.Error("Clone() shares memory with the original")
	}
	if Snapshot(nil).Clone() != nil {
		t.Error("Clone() of nil snapshot should be nil")
	}
}
