// Package transcript persists completed conversation exchanges to an
// append-only external sink. Writes are best-effort: a sink failure is logged
// and never fails the request that produced the exchange.
package transcript

import (
	"context"
	"encoding/csv"
	"os"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"orderboard_agent/internal/logger"
)

// Sink records one user/assistant exchange.
type Sink interface {
	Record(ctx context.Context, userMsg, assistantMsg string) error
	Close() error
}

// CSVSink appends exchanges to a local CSV file, writing a header row when
// creating the file.
type CSVSink struct {
	mu   sync.Mutex
	path string
}

// NewCSVSink creates a sink writing to path. The file is created lazily on
// the first record.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// Record appends one exchange as a CSV row.
func (s *CSVSink) Record(_ context.Context, userMsg, assistantMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, statErr := os.Stat(s.path)
	newFile := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if newFile {
		if err := w.Write([]string{"User Message", "Assistant Message"}); err != nil {
			return err
		}
	}
	if err := w.Write([]string{userMsg, assistantMsg}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (s *CSVSink) Close() error { return nil }

// RedisSink pushes exchanges onto a Redis list so transcripts survive restarts
// and can be consumed by external tooling.
type RedisSink struct {
	client *redis.Client
	key    string
}

// NewRedisSink creates a sink appending to the list at key. The connection is
// verified up front.
func NewRedisSink(ctx context.Context, redisURL, key string) (*RedisSink, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &RedisSink{client: client, key: key}, nil
}

type exchange struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// Record serializes the exchange and appends it with RPUSH.
func (s *RedisSink) Record(ctx context.Context, userMsg, assistantMsg string) error {
	payload, err := sonic.Marshal(exchange{User: userMsg, Assistant: assistantMsg})
	if err != nil {
		return err
	}
	return s.client.RPush(ctx, s.key, payload).Err()
}

func (s *RedisSink) Close() error { return s.client.Close() }

// NopSink discards exchanges. Used when no sink is configured.
type NopSink struct{}

func (NopSink) Record(context.Context, string, string) error { return nil }
func (NopSink) Close() error                                 { return nil }

// Log wraps a Record call with best-effort semantics.
func Log(ctx context.Context, sink Sink, userMsg, assistantMsg string) {
	if sink == nil {
		return
	}
	if err := sink.Record(ctx, userMsg, assistantMsg); err != nil {
		logger.Warn().Err(err).Msg("transcript write failed")
	}
}
