package transcript

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVSinkWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	sink := NewCSVSink(path)

	require.NoError(t, sink.Record(context.Background(), "show orders", `{"select":["*"]}`))
	require.NoError(t, sink.Record(context.Background(), "only Canva", `{"where":["..."]}`))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"User Message", "Assistant Message"}, rows[0])
	assert.Equal(t, []string{"show orders", `{"select":["*"]}`}, rows[1])
	assert.Equal(t, []string{"only Canva", `{"where":["..."]}`}, rows[2])
}

func TestCSVSinkEscapesCommasAndQuotes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	sink := NewCSVSink(path)

	require.NoError(t, sink.Record(context.Background(), `orders, "urgent" ones`, "{}"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, `orders, "urgent" ones`, rows[1][0])
}

func TestLogSwallowsSinkFailure(t *testing.T) {
	// A sink pointed at an unwritable path must not panic or propagate.
	sink := NewCSVSink(filepath.Join(t.TempDir(), "missing-dir", "history.csv"))
	Log(context.Background(), sink, "user", "assistant")
}

func TestLogNilSink(t *testing.T) {
	Log(context.Background(), nil, "user", "assistant")
}

func TestNopSink(t *testing.T) {
	var sink Sink = NopSink{}
	assert.NoError(t, sink.Record(context.Background(), "a", "b"))
	assert.NoError(t, sink.Close())
}
