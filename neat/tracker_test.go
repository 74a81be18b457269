package neat

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInnovationTrackerReusesSignatures(t *testing.T) {
	tracker := NewInnovationTracker(0, NewIDAllocator(10))

	a := tracker.Connection(1, 2)
	b := tracker.Connection(2, 1)
	assert.Equal(t, a, tracker.Connection(1, 2))
	assert.NotEqual(t, a, b)

	s := tracker.Split(1, 2)
	assert.Equal(t, s, tracker.Split(1, 2))
	assert.Equal(t, 10, s.NodeID)
	assert.Equal(t, s.InInnovation+1, s.OutInnovation)
	assert.Equal(t, 4, tracker.Next())

	tracker.Reset()
	assert.Equal(t, 4, tracker.Connection(1, 2), "numbers keep increasing after a reset")
	assert.NotEqual(t, s.NodeID, tracker.Split(1, 2).NodeID)
}

func TestInnovationTrackerConcurrentUse(t *testing.T) {
	tracker := NewInnovationTracker(0, NewIDAllocator(0))

	var wg sync.WaitGroup
	results := make([]int, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = tracker.Connection(3, 4)
		}(i)
	}
	wg.Wait()

	for _, innov := range results {
		assert.Equal(t, results[0], innov)
	}
	assert.Equal(t, 1, tracker.Next())
}

func TestInnovationTrackerRestore(t *testing.T) {
	tracker := NewInnovationTracker(0, NewIDAllocator(0))
	tracker.Restore(12)
	assert.Equal(t, 12, tracker.Connection(0, 1))
	tracker.Restore(5)
	assert.Equal(t, 13, tracker.Next(), "restore never moves the counter back")
}

func TestIDAllocator(t *testing.T) {
	ids := NewIDAllocator(3)
	require.Equal(t, 3, ids.Next())
	ids.Observe(10)
	assert.Equal(t, 11, ids.Peek())
	ids.Observe(4)
	assert.Equal(t, 11, ids.Next())
}

func TestNodeTypeCapabilities(t *testing.T) {
	tests := []struct {
		t        NodeType
		name     string
		incoming bool
	}{
		{InputNode, "INPUT", false},
		{HiddenNode, "HIDDEN", true},
		{OutputNode, "OUTPUT", true},
		{BiasNode, "BIAS", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.t.String())
			assert.Equal(t, tt.incoming, tt.t.AcceptsIncoming())
			assert.True(t, tt.t.AcceptsOutgoing())

			parsed, err := ParseNodeType(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.t, parsed)
		})
	}

	_, err := ParseNodeType("sensor")
	assert.Error(t, err)
	parsed, err := ParseNodeType("hidden")
	require.NoError(t, err)
	assert.Equal(t, HiddenNode, parsed)
}

func TestActivations(t *testing.T) {
	assert.InDelta(t, 0.5, Sigmoid(0), 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(-4.9)), NEATSigmoid(1), 1e-12)
	assert.Equal(t, 0.0, ReLU(-2))
	assert.Equal(t, 1.0, Clamped(3))
	assert.Equal(t, 40.0, Softplus(40))

	for _, name := range ActivationNames() {
		fn, err := GetActivation(name)
		require.NoError(t, err, name)
		assert.NotNil(t, fn)
	}
	_, err := GetActivation("step")
	assert.Error(t, err)
}

func TestInitializers(t *testing.T) {
	r := newTestRun(t, nil)

	constant, err := newInitializer("constant", 0.7, 0, 0, 0, 0, r)
	require.NoError(t, err)
	assert.Equal(t, 0.7, constant.Initialize())

	zero, err := newInitializer("zero", 0.7, 0, 0, 0, 0, r)
	require.NoError(t, err)
	assert.Zero(t, zero.Initialize())

	uniform, err := newInitializer("uniform", 0, -2, 3, 0, 0, r)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		v := uniform.Initialize()
		assert.GreaterOrEqual(t, v, -2.0)
		assert.Less(t, v, 3.0)
	}

	degenerate, err := newInitializer("gaussian", 0, 0, 0, 1.5, 0, r)
	require.NoError(t, err)
	assert.Equal(t, 1.5, degenerate.Initialize())

	_, err = newInitializer("xavier", 0, 0, 0, 0, 0, r)
	assert.Error(t, err)
}
