package worker

import (
	"context"
	"time"

	"github.com/example/notification-service/internal/kafka/consumer"
)

// Record is the engine's view of an inbound Kafka message. Keeping it
// separate from the consumer type lets tests drive the engine without a
// broker.
type Record struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
	Headers   map[string][]byte

	commit func(ctx context.Context) error
}

// Clone deep-copies the record so it can cross a goroutine boundary safely.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	clone.Key = cloneBytes(r.Key)
	clone.Value = cloneBytes(r.Value)
	clone.Headers = cloneHeaders(r.Headers)
	return &clone
}

// SetCommitFunc binds the offset commit callback invoked once the record has
// been fully processed.
func (r *Record) SetCommitFunc(fn func(ctx context.Context) error) {
	r.commit = fn
}

// KafkaHandler adapts the engine to the consumer callback contract.
func KafkaHandler(engine *Engine) consumer.Handler {
	return func(ctx context.Context, rec *consumer.Record) error {
		if engine == nil || rec == nil {
			return nil
		}
		wr := &Record{
			Topic:     rec.Topic,
			Partition: rec.Partition,
			Offset:    rec.Offset,
			Key:       cloneBytes(rec.Key),
			Value:     cloneBytes(rec.Value),
			Timestamp: rec.Timestamp,
			Headers:   cloneHeaders(rec.Headers),
		}
		wr.SetCommitFunc(rec.Commit)
		engine.HandleRecord(ctx, wr)
		return nil
	}
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	clone := make([]byte, len(b))
	copy(clone, b)
	return clone
}

func cloneHeaders(headers map[string][]byte) map[string][]byte {
	if len(headers) == 0 {
		return nil
	}
	clone := make(map[string][]byte, len(headers))
	for k, v := range headers {
		clone[k] = cloneBytes(v)
	}
	return clone
}
