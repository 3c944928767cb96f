package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/NilFoundation/receipts/nil/internal/telemetry/telattr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportOption(t *testing.T) {
	t.Parallel()

	var opt ExportOption
	require.NoError(t, opt.Set("grpc"))
	assert.Equal(t, ExportOptionGrpc, opt)
	assert.Equal(t, "grpc", opt.String())

	require.NoError(t, opt.Set("stdout"))
	assert.Equal(t, ExportOptionStdout, opt)

	require.Error(t, opt.Set("prometheus"))
	assert.Equal(t, ExportOptionStdout, opt)
}

func TestInitNone(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	require.NoError(t, Init(ctx, nil))
	require.NoError(t, Init(ctx, NewDefaultConfig("test")))
	Shutdown(ctx)
}

func TestMeasurer(t *testing.T) {
	t.Parallel()

	m, err := NewMeasurer(NewMeter("test"), "operation", telattr.Component("test"))
	require.NoError(t, err)

	ms := m.Start()
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, ms.Done(context.Background()), time.Millisecond)
}
