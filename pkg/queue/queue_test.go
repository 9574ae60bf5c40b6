package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Sectors []string `json:"sectors"`
}

type testJob struct {
	got   *item
	err   error
	panic bool
}

func (j *testJob) Name() string { return "test" }
func (j *testJob) Type() string { return "test.item" }
func (j *testJob) Handle(_ context.Context, payload interface{}) error {
	if j.panic {
		panic("boom")
	}
	it, err := ParsePayload[item](payload)
	if err != nil {
		return err
	}
	j.got = it
	return j.err
}

func TestRetryDelayDoublesAndCaps(t *testing.T) {
	base := 10 * time.Second
	assert.Equal(t, base, retryDelay(base, time.Minute, 0))
	assert.Equal(t, base, retryDelay(base, time.Minute, 1))
	assert.Equal(t, 20*time.Second, retryDelay(base, time.Minute, 2))
	assert.Equal(t, 40*time.Second, retryDelay(base, time.Minute, 3))
	assert.Equal(t, time.Minute, retryDelay(base, time.Minute, 4))
	assert.Equal(t, time.Minute, retryDelay(base, time.Minute, 30))
}

func TestParsePayloadShapes(t *testing.T) {
	want := []string{"energy"}

	p, err := ParsePayload[item](json.RawMessage(`{"sectors":["energy"]}`))
	require.NoError(t, err)
	assert.Equal(t, want, p.Sectors)

	p, err = ParsePayload[item](map[string]interface{}{"sectors": []interface{}{"energy"}})
	require.NoError(t, err)
	assert.Equal(t, want, p.Sectors)

	p, err = ParsePayload[item](item{Sectors: want})
	require.NoError(t, err)
	assert.Equal(t, want, p.Sectors)

	_, err = ParsePayload[item](42)
	assert.Error(t, err)

	_, err = ParsePayload[item](json.RawMessage(`{`))
	assert.Error(t, err)
}

func TestNewMessageRoundTripsThroughJob(t *testing.T) {
	q := NewRedisQueue(nil, &QueueConfig{}, nil, ModeConsumerOnly)
	job := &testJob{}
	q.RegisterJob(job)

	data, err := q.newMessage("test.item", item{Sectors: []string{"technology"}})
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "test.item", msg.Type)

	require.NoError(t, q.run(msg))
	assert.Equal(t, []string{"technology"}, job.got.Sectors)
}

func TestRunReportsFailures(t *testing.T) {
	q := NewRedisQueue(nil, nil, nil, ModeConsumerOnly)
	job := &testJob{err: errors.New("downstream")}
	q.RegisterJob(job)
	raw := json.RawMessage(`{"sectors":[]}`)

	assert.EqualError(t, q.run(Message{Type: "test.item", Payload: raw}), "downstream")
	assert.Error(t, q.run(Message{Type: "unknown", Payload: raw}))

	job.panic = true
	err := q.run(Message{Type: "test.item", Payload: raw})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestEnqueueRequiresStart(t *testing.T) {
	q := NewRedisQueue(nil, nil, nil, ModeProducerOnly)
	assert.Error(t, q.Enqueue(context.Background(), "x", nil))
}

func TestProducerOnlyIgnoresJobs(t *testing.T) {
	q := NewRedisQueue(nil, nil, nil, ModeProducerOnly, WithKeyPrefix("p"))
	q.RegisterJob(&testJob{})
	assert.Empty(t, q.jobs)
	assert.Equal(t, "p:messages", q.queueKey())
	assert.Equal(t, "p:dlq", q.deadLetterKey())
}
