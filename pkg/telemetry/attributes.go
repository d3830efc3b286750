package telemetry

import (
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
)

// attributeState holds the attributes stamped onto every measurement,
// span, and log record. Reads happen on the hot recording path, so the
// snapshot is kept precomputed under a read lock.
type attributeState struct {
	mu       sync.RWMutex
	userID   string
	common   map[string]attribute.KeyValue
	snapshot []attribute.KeyValue
}

func newAttributeState(userID string) *attributeState {
	s := &attributeState{
		common: make(map[string]attribute.KeyValue),
	}
	if userID = strings.TrimSpace(userID); userID != "" {
		s.userID = userID
	}
	s.rebuildLocked()
	return s
}

func (s *attributeState) setUserID(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.rebuildLocked()
}

func (s *attributeState) set(kv attribute.KeyValue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.common[string(kv.Key)] = kv
	s.rebuildLocked()
}

func (s *attributeState) rebuildLocked() {
	snapshot := make([]attribute.KeyValue, 0, len(s.common)+1)
	for _, kv := range s.common {
		snapshot = append(snapshot, kv)
	}
	if s.userID != "" {
		snapshot = append(snapshot, attribute.String("user.id", s.userID))
	}
	s.snapshot = snapshot
}

// with returns the common attributes followed by the extras. The
// returned slice is freshly allocated and safe for the caller to own.
func (s *attributeState) with(extra ...attribute.KeyValue) []attribute.KeyValue {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]attribute.KeyValue, 0, len(s.snapshot)+len(extra))
	out = append(out, s.snapshot...)
	out = append(out, extra...)
	return out
}

func (s *attributeState) logAttributes(extra ...otellog.KeyValue) []otellog.KeyValue {
	s.mu.RLock()
	snapshot := s.snapshot
	s.mu.RUnlock()

	out := make([]otellog.KeyValue, 0, len(snapshot)+len(extra))
	for _, kv := range snapshot {
		out = append(out, otellog.KeyValue{
			Key:   string(kv.Key),
			Value: logValue(kv.Value),
		})
	}
	return append(out, extra...)
}

func logValue(v attribute.Value) otellog.Value {
	switch v.Type() {
	case attribute.BOOL:
		return otellog.BoolValue(v.AsBool())
	case attribute.INT64:
		return otellog.Int64Value(v.AsInt64())
	case attribute.FLOAT64:
		return otellog.Float64Value(v.AsFloat64())
	default:
		return otellog.StringValue(v.Emit())
	}
}

// SetAttribute adds or replaces a common attribute attached to all
// subsequently recorded telemetry.
func (t *Telemetry) SetAttribute(kv attribute.KeyValue) {
	t.attrs.set(kv)
}
