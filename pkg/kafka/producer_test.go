package kafka

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeValue(t *testing.T) {
	b, err := encodeValue([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))

	b, err = encodeValue("text")
	require.NoError(t, err)
	assert.Equal(t, "text", string(b))

	b, err = encodeValue(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(b))

	_, err = encodeValue(make(chan int))
	assert.Error(t, err)
}

func TestEncodeAddsHeaders(t *testing.T) {
	p := &Producer{clientID: "test"}
	at := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)

	km, err := p.encode("sector.sentiment", Message{
		Key:     []byte("energy"),
		Value:   map[string]string{"sector": "energy"},
		Headers: map[string]string{"event": "sector.result"},
	}, at)
	require.NoError(t, err)

	rec := toRecord(km)
	assert.Equal(t, "sector.sentiment", rec.Topic)
	assert.Equal(t, "energy", string(rec.Key))
	assert.Equal(t, "application/json", rec.Headers["content-type"])
	assert.Equal(t, "test", rec.Headers["producer"])
	assert.Equal(t, "sector.result", rec.Headers["event"])
	assert.Equal(t, at, rec.Time)
}

func TestParseCompression(t *testing.T) {
	assert.Equal(t, kafka.Snappy, parseCompression("snappy"))
	assert.Equal(t, kafka.Zstd, parseCompression("zstd"))
	assert.Equal(t, kafka.Gzip, parseCompression(""))
}

func TestConstructorsRequireBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
	_, err = NewReader(WithReaderTopic("t"))
	assert.Error(t, err)
	_, err = NewReader(WithReaderBrokers([]string{"localhost:9092"}))
	assert.Error(t, err)
}
