package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type recordingDest struct {
	sent []string
	err  error
}

func (d *recordingDest) Send(_ context.Context, text string) error {
	d.sent = append(d.sent, text)
	return d.err
}

func TestNotifyWithoutDestination(t *testing.T) {
	n := New(zaptest.NewLogger(t))

	// Must not panic or block.
	n.Notify(context.Background(), "hello")
}

func TestNotifyDelivers(t *testing.T) {
	n := New(zaptest.NewLogger(t))
	dest := &recordingDest{}
	n.SetDestination(dest)

	n.Notify(context.Background(), "first")
	n.Notify(context.Background(), "second")

	assert.Equal(t, []string{"first", "second"}, dest.sent)
}

func TestNotifySwallowsSendErrors(t *testing.T) {
	n := New(zaptest.NewLogger(t))
	dest := &recordingDest{err: errors.New("chat gone")}
	n.SetDestination(dest)

	n.Notify(context.Background(), "doomed")

	// Failure is logged, not propagated, and the destination stays
	// registered for later messages.
	dest.err = nil
	n.Notify(context.Background(), "recovered")
	assert.Len(t, dest.sent, 2)
}

func TestReplaceDestination(t *testing.T) {
	n := New(zaptest.NewLogger(t))
	old := &recordingDest{}
	next := &recordingDest{}

	n.SetDestination(old)
	n.SetDestination(next)
	n.Notify(context.Background(), "msg")

	assert.Empty(t, old.sent)
	assert.Len(t, next.sent, 1)
}

func TestMessageFormats(t *testing.T) {
	msg := TakeProfitExecuted("MINT", 0.0013, 0.015, 30)
	assert.Contains(t, msg, "MINT")
	assert.Contains(t, msg, "0.001300000")
	assert.Contains(t, msg, "+30.0%")

	opened := TradeOpened("MINT", 0.1, 0.001, 0.0013)
	assert.Contains(t, opened, "0.1000 SOL")
	assert.Contains(t, opened, "0.001300000")

	assert.True(t, strings.Contains(MonitoringTimedOut("MINT"), "remains open"))
}
