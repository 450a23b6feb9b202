package firestore

import (
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/repcoach/internal/store"
)

// value is a typed Firestore field value.
type value struct {
	StringValue    *string    `json:"stringValue,omitempty"`
	IntegerValue   *intString `json:"integerValue,omitempty"`
	DoubleValue    *float64   `json:"doubleValue,omitempty"`
	TimestampValue *string    `json:"timestampValue,omitempty"`
}

// intString is an int64 in Firestore's JSON mapping: written as a decimal
// string, read from either a string or a bare number.
type intString string

func (s *intString) UnmarshalJSON(b []byte) error {
	*s = intString(strings.Trim(string(b), `"`))
	return nil
}

type document struct {
	Name   string           `json:"name,omitempty"`
	Fields map[string]value `json:"fields"`
}

type listResponse struct {
	Documents     []document `json:"documents"`
	NextPageToken string     `json:"nextPageToken,omitempty"`
}

func stringValue(s string) value {
	return value{StringValue: &s}
}

func integerValue(i int) value {
	n := intString(strconv.Itoa(i))
	return value{IntegerValue: &n}
}

func doubleValue(f float64) value {
	return value{DoubleValue: &f}
}

func timestampValue(t time.Time) value {
	s := t.UTC().Format(time.RFC3339)
	return value{TimestampValue: &s}
}

func encodeLog(l *store.WorkoutLog, ts time.Time) document {
	return document{Fields: map[string]value{
		"exercise":    stringValue(l.Exercise),
		"side":        stringValue(l.Side),
		"reps_left":   integerValue(l.RepsLeft),
		"reps_right":  integerValue(l.RepsRight),
		"duration":    doubleValue(l.Duration),
		"set_number":  integerValue(l.SetNumber),
		"target_reps": integerValue(l.TargetReps),
		"target_sets": integerValue(l.TargetSets),
		"timestamp":   timestampValue(ts),
	}}
}

// decodeLog reads a document, filling absent fields with the defaults older
// clients relied on.
func decodeLog(doc document) *store.WorkoutLog {
	f := doc.Fields
	l := &store.WorkoutLog{
		Exercise:   getString(f, "exercise", "N/A"),
		Side:       getString(f, "side", "N/A"),
		RepsLeft:   getInt(f, "reps_left", 0),
		RepsRight:  getInt(f, "reps_right", 0),
		Duration:   getDouble(f, "duration", 0),
		SetNumber:  getInt(f, "set_number", 1),
		TargetReps: getInt(f, "target_reps", 10),
		TargetSets: getInt(f, "target_sets", 1),
	}
	if doc.Name != "" {
		l.ID = path.Base(doc.Name)
	}
	if v, ok := f["timestamp"]; ok && v.TimestampValue != nil {
		if ts, err := time.Parse(time.RFC3339Nano, *v.TimestampValue); err == nil {
			l.Timestamp = ts
		}
	}
	return l
}

func getString(f map[string]value, key, def string) string {
	if v, ok := f[key]; ok && v.StringValue != nil {
		return *v.StringValue
	}
	return def
}

func getInt(f map[string]value, key string, def int) int {
	v, ok := f[key]
	if !ok || v.IntegerValue == nil {
		return def
	}
	n, err := strconv.Atoi(string(*v.IntegerValue))
	if err != nil {
		return def
	}
	return n
}

func getDouble(f map[string]value, key string, def float64) float64 {
	v, ok := f[key]
	if !ok {
		return def
	}
	switch {
	case v.DoubleValue != nil:
		return *v.DoubleValue
	case v.IntegerValue != nil:
		if n, err := strconv.ParseFloat(string(*v.IntegerValue), 64); err == nil {
			return n
		}
	}
	return def
}
