package transfer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nornicdb/blockmover/pkg/fabric"
	"github.com/nornicdb/blockmover/pkg/gpu"
)

func TestNewContextRejectsNonPositiveStreamCount(t *testing.T) {
	gpu.Reset()
	defer gpu.Reset()

	_, err := NewContext(StreamPoolConfig{DeviceID: 0, StreamCount: 0}, fabric.NewLoopbackAgent(), nil)
	var terr *TransferError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "InvalidConfig", terr.Kind())
}

func TestNewContextDefaultsRuntimeWhenNil(t *testing.T) {
	gpu.Reset()
	defer gpu.Reset()

	ctx, err := NewContext(DefaultStreamPoolConfig(), fabric.NewLoopbackAgent(), nil)
	require.NoError(t, err)
	require.NotNil(t, ctx.Runtime())
	assert.False(t, ctx.Runtime().OffloadEnabled())
}

func TestContextStreamRoundRobins(t *testing.T) {
	gpu.Reset()
	defer gpu.Reset()

	ctx, err := NewContext(StreamPoolConfig{DeviceID: 1, StreamCount: 3}, fabric.NewLoopbackAgent(), nil)
	require.NoError(t, err)

	seen := make(map[*gpu.Stream]int)
	for i := 0; i < 9; i++ {
		seen[ctx.Stream()]++
	}
	assert.Len(t, seen, 3)
	for _, count := range seen {
		assert.Equal(t, 3, count)
	}
}

func TestContextAgentReturnsConstructorAgent(t *testing.T) {
	gpu.Reset()
	defer gpu.Reset()

	agent := fabric.NewLoopbackAgent()
	ctx, err := NewContext(DefaultStreamPoolConfig(), agent, nil)
	require.NoError(t, err)
	assert.Same(t, agent, ctx.Agent())
}

func TestContextRecordEventClosesDoneAfterEnqueuedWork(t *testing.T) {
	gpu.Reset()
	defer gpu.Reset()

	ctx, err := NewContext(DefaultStreamPoolConfig(), fabric.NewLoopbackAgent(), nil)
	require.NoError(t, err)

	stream := ctx.Stream()
	order := make([]int, 0, 2)
	stream.Enqueue(func() { order = append(order, 1) })

	done := make(chan struct{})
	ctx.RecordEvent(stream, done)
	<-done

	order = append(order, 2)
	assert.Equal(t, []int{1, 2}, order)
}
