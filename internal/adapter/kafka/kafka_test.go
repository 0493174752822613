package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/cdms-golden-verifier/internal/domain"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapMessageToRawEvent(t *testing.T) {
	now := time.Now()
	msg := kafkago.Message{
		Key:       []byte("climatic_summary_actual010.csv"),
		Value:     []byte(`{"name":"climatic_summary_actual010.csv"}`),
		Topic:     "artifact-produced",
		Partition: 2,
		Offset:    42,
		Time:      now,
		Headers: []kafkago.Header{
			{Key: "producer", Value: []byte("climatic")},
		},
	}

	raw := mapMessageToRawEvent(msg)

	assert.Equal(t, []byte("climatic_summary_actual010.csv"), raw.Key)
	assert.JSONEq(t, `{"name":"climatic_summary_actual010.csv"}`, string(raw.Value))
	assert.Equal(t, "artifact-produced", raw.Topic)
	assert.Equal(t, 2, raw.Partition)
	assert.Equal(t, int64(42), raw.Offset)
	assert.Equal(t, now, raw.Timestamp)
	assert.Equal(t, "climatic", raw.Headers["producer"])
	assert.Nil(t, raw.Commit)

	req, err := domain.ParseRawEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.ArtifactTable, req.Kind)
}

func TestToMessage(t *testing.T) {
	at := time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { domain.SetClock(nil) })

	report := domain.NewReport("run-1", "inventory_plot_actual010.jpg", domain.ArtifactBinary).WithBinaryResult(true)
	out, err := domain.SerializeReport(report)
	require.NoError(t, err)

	msg := toMessage(out)

	assert.Equal(t, []byte("inventory_plot_actual010.jpg"), msg.Key)
	assert.Contains(t, string(msg.Value), `"outcome":"pass"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "outcome", msg.Headers[0].Key)
	assert.Equal(t, []byte("pass"), msg.Headers[0].Value)
	assert.Equal(t, "run_id", msg.Headers[1].Key)
	assert.Equal(t, []byte("run-1"), msg.Headers[1].Value)
	assert.Equal(t, "verified_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(at.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestWriter_LoadBatchEmpty(t *testing.T) {
	w := &Writer{writer: &kafkago.Writer{}}
	require.NoError(t, w.LoadBatch(context.Background(), nil))
}
