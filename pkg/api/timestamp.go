package api

import (
	"bytes"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Timestamp is a point in time encoded as google.protobuf.Timestamp is in
// protobuf JSON: an RFC 3339 string in UTC.
type Timestamp struct {
	ts *timestamppb.Timestamp
}

// NewTimestamp wraps t. The zero time maps to nil.
func NewTimestamp(t time.Time) *Timestamp {
	if t.IsZero() {
		return nil
	}
	return &Timestamp{ts: timestamppb.New(t)}
}

// TimestampFromMillis wraps unix milliseconds. Zero maps to nil.
func TimestampFromMillis(ms int64) *Timestamp {
	if ms == 0 {
		return nil
	}
	return NewTimestamp(time.UnixMilli(ms))
}

// AsTime returns the wrapped time, or the zero time for nil.
func (t *Timestamp) AsTime() time.Time {
	if t == nil || t.ts == nil {
		return time.Time{}
	}
	return t.ts.AsTime()
}

// Millis returns unix milliseconds, or 0 for nil.
func (t *Timestamp) Millis() int64 {
	if t == nil || t.ts == nil {
		return 0
	}
	return t.AsTime().UnixMilli()
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.ts == nil {
		return []byte("null"), nil
	}
	return protojson.Marshal(t.ts)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.ts = nil
		return nil
	}
	ts := new(timestamppb.Timestamp)
	if err := protojson.Unmarshal(data, ts); err != nil {
		return err
	}
	if err := ts.CheckValid(); err != nil {
		return err
	}
	t.ts = ts
	return nil
}
