package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotledger/internal/core/id"
)

type recordedExec struct {
	sql  string
	args []any
}

// recordingQuerier captures Exec calls; the relay's per-message path
// only issues updates.
type recordingQuerier struct {
	execs []recordedExec
}

func (q *recordingQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.execs = append(q.execs, recordedExec{sql: sql, args: args})
	return pgconn.CommandTag{}, nil
}

func (q *recordingQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (q *recordingQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

type flakyHandler struct {
	failFor map[id.ID]error
	handled []id.ID
}

func (h *flakyHandler) Handle(_ context.Context, msg *OutboxMessage) error {
	h.handled = append(h.handled, msg.ID)
	return h.failFor[msg.ID]
}

func pendingMessage(retryCount int) *OutboxMessage {
	return &OutboxMessage{
		ID:         id.New(),
		EventType:  "exit_slip.validated",
		Status:     OutboxStatusPending,
		RetryCount: retryCount,
	}
}

func TestRelayMessagesContinuesPastFailure(t *testing.T) {
	broken := pendingMessage(0)
	healthy := pendingMessage(0)

	handler := &flakyHandler{failFor: map[id.ID]error{broken.ID: errors.New("broker down")}}
	relay := &OutboxRelay{batchSize: 10, handler: handler}
	q := &recordingQuerier{}

	processed := relay.relayMessages(context.Background(), q, []*OutboxMessage{broken, healthy})

	// The failing message must not stop the batch.
	assert.Equal(t, 1, processed)
	assert.Equal(t, []id.ID{broken.ID, healthy.ID}, handler.handled)

	// One reschedule update for the failure, one published update for
	// the success.
	require.Len(t, q.execs, 2)
	assert.Contains(t, q.execs[0].sql, "retry_count = retry_count + 1")
	assert.Equal(t, "broker down", q.execs[0].args[0])
	assert.Equal(t, broken.ID, q.execs[0].args[3])
	assert.Contains(t, q.execs[1].sql, "published_at")
	assert.Equal(t, healthy.ID, q.execs[1].args[2])
}

func TestProcessMessageMarksPublished(t *testing.T) {
	msg := pendingMessage(0)
	relay := &OutboxRelay{handler: &flakyHandler{}}
	q := &recordingQuerier{}

	err := relay.processMessage(context.Background(), q, msg)
	require.NoError(t, err)

	require.Len(t, q.execs, 1)
	assert.Contains(t, q.execs[0].sql, "SET status = $1, published_at = $2")
	assert.Equal(t, OutboxStatusPublished, q.execs[0].args[0])
	assert.Equal(t, msg.ID, q.execs[0].args[2])
}

func TestProcessMessageReschedulesFailure(t *testing.T) {
	msg := pendingMessage(2)
	handlerErr := errors.New("exchange unreachable")
	relay := &OutboxRelay{handler: &flakyHandler{failFor: map[id.ID]error{msg.ID: handlerErr}}}
	q := &recordingQuerier{}

	err := relay.processMessage(context.Background(), q, msg)
	require.ErrorIs(t, err, handlerErr)

	require.Len(t, q.execs, 1)
	assert.Contains(t, q.execs[0].sql, "next_retry_at = $2")
	assert.Equal(t, "exchange unreachable", q.execs[0].args[0])
	assert.Equal(t, OutboxStatusFailed, q.execs[0].args[2])
	assert.Equal(t, msg.ID, q.execs[0].args[3])
}
