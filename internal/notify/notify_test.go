package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/justsurfingit/job-application-tracker/internal/errors"
)

func note(user, msg string) Notification {
	return Notification{UserID: user, Level: LevelSuccess, Message: msg, At: time.Now()}
}

func TestBufferDrainsPerUser(t *testing.T) {
	ctx := context.Background()
	b := NewBuffer(3)

	for _, m := range []string{"one", "two", "three", "four"} {
		require.NoError(t, b.Notify(ctx, note("u1", m)))
	}
	require.NoError(t, b.Notify(ctx, note("u2", "other")))

	got := b.Drain("u1")
	require.Len(t, got, 3)
	assert.Equal(t, "two", got[0].Message)
	assert.Equal(t, "four", got[2].Message)

	assert.Empty(t, b.Drain("u1"))
	assert.NotNil(t, b.Drain("nobody"))

	assert.Len(t, b.Drain("u2"), 1)
}

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	f.subject, f.data = subject, data
	return f.err
}

func TestNATSPublishesOnUserSubject(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNATS(pub, zap.NewNop())

	require.NoError(t, n.Notify(context.Background(), note("u1", "Job added successfully")))
	assert.Equal(t, "tracker.notifications.u1", pub.subject)

	var decoded Notification
	require.NoError(t, json.Unmarshal(pub.data, &decoded))
	assert.Equal(t, "Job added successfully", decoded.Message)
	assert.Equal(t, LevelSuccess, decoded.Level)
}

func TestNATSPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection closed")}
	n := NewNATS(pub, zap.NewNop())

	err := n.Notify(context.Background(), note("u1", "x"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInternal))
}

func TestMultiAndLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	buf := NewBuffer(0)
	failing := &fakePublisher{err: errors.New("down")}

	m := Multi{NewNATS(failing, zap.NewNop()), NewLog(zap.New(core)), buf}
	err := m.Notify(context.Background(), Notification{UserID: "u", Level: LevelError, Message: "Failed to add job"})

	assert.Error(t, err)
	assert.Len(t, buf.Drain("u"), 1, "later notifiers still run after a failure")
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.WarnLevel, entry.Level)
	assert.Equal(t, "Failed to add job", entry.ContextMap()["message"])
}
