package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracerWithoutCollectorIsNoop(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "tracker-test", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	_, span := GetTracer("tracker-test").Start(context.Background(), "noop")
	span.End()
}

func TestAttributes(t *testing.T) {
	assert.Equal(t, "job.id", string(String("job.id", "x").Key))
	assert.Equal(t, int64(3), Int("jobs.count", 3).Value.AsInt64())
}
