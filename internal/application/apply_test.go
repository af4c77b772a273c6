package application

import (
	"math"
	"testing"

	"github.com/bnema/tonebridge/internal/adapters/host/sim"
	"github.com/bnema/tonebridge/internal/domain"
	"github.com/bnema/tonebridge/internal/ports"
	"github.com/bnema/tonebridge/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeTarget() Target {
	return Target{ID: "{FX}", Container: 1, Position: 0}
}

func newEngine(host ports.Host, remap ports.RemapSource) *ApplyEngine {
	return NewApplyEngine(domain.DefaultModuleLayout(), remap, NewResolver(nil, nil), nil)
}

func TestApplySanitizesEachEntry(t *testing.T) {
	t.Parallel()

	host := newFakeHost(map[int]string{})
	engine := newEngine(host, nil)

	result, err := engine.Apply(host, fakeTarget(), domain.MergeModeMerge, []domain.ParamChange{
		{Index: 30, Value: 1.7},
		{Index: 31, Value: math.NaN()},
		{Index: 32, Value: math.Inf(1)},
		{Index: -1, Value: 0.5},
		{Index: 128, Value: 0.5},
		{Index: 33, Value: -0.2},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Rejected)
	assert.Equal(t, []write{{index: 30, value: 1}, {index: 33, value: 0}}, host.writes)
	for _, w := range host.writes {
		assert.False(t, math.IsNaN(w.value) || math.IsInf(w.value, 0))
		assert.GreaterOrEqual(t, w.value, 0.0)
		assert.LessOrEqual(t, w.value, 1.0)
	}
}

func TestApplyFallbackBoundWhenCountUnknown(t *testing.T) {
	t.Parallel()

	host := newFakeHost(map[int]string{})
	host.noCount = true
	engine := newEngine(host, nil)

	result, err := engine.Apply(host, fakeTarget(), domain.MergeModeMerge, []domain.ParamChange{
		{Index: 4095, Value: 0.5},
		{Index: 4096, Value: 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, []write{{index: 4095, value: 0.5}}, host.writes)
}

func TestApplyAllRejected(t *testing.T) {
	t.Parallel()

	host := newFakeHost(map[int]string{})
	engine := newEngine(host, nil)

	_, err := engine.Apply(host, fakeTarget(), domain.MergeModeReplaceActive, []domain.ParamChange{
		{Index: 9999, Value: 0.5},
	})
	require.ErrorIs(t, err, domain.ErrSanitizationRejected)
	assert.Empty(t, host.writes)
}

func TestApplyRemapsBeforeSanitizing(t *testing.T) {
	t.Parallel()

	remap := mocks.NewMockRemapSource(t)
	remap.EXPECT().IndexRemap().Return(domain.IndexRemap{200: 105, 106: 900})

	host := newFakeHost(map[int]string{})
	engine := newEngine(host, remap)

	result, err := engine.Apply(host, fakeTarget(), domain.MergeModeMerge, []domain.ParamChange{
		{Index: 200, Value: 0.3},
		{Index: 106, Value: 0.4},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, []write{{index: 105, value: 0.3}}, host.writes)
	require.Len(t, result.Applied, 1)
	assert.Equal(t, 200, result.Applied[0].Index)
	assert.Equal(t, 105, result.Applied[0].HostIndex)
	assert.Equal(t, 0.3, result.Applied[0].Requested)
}

func TestApplyReportsRequestedAsSent(t *testing.T) {
	t.Parallel()

	remap := mocks.NewMockRemapSource(t)
	remap.EXPECT().IndexRemap().Return(domain.IndexRemap{30: 31})

	host := newFakeHost(map[int]string{})
	engine := newEngine(host, remap)

	result, err := engine.Apply(host, fakeTarget(), domain.MergeModeMerge, []domain.ParamChange{{Index: 30, Value: 1.7}})
	require.NoError(t, err)
	assert.Equal(t, []write{{index: 31, value: 1}}, host.writes)
	require.Len(t, result.Applied, 1)
	got := result.Applied[0]
	assert.Equal(t, 30, got.Index)
	assert.Equal(t, 31, got.HostIndex)
	assert.Equal(t, 1.7, got.Requested)
	assert.Equal(t, 1.0, got.Applied)
}

func TestApplyLastWinsInBatchKeepsLastOrder(t *testing.T) {
	t.Parallel()

	host := newFakeHost(map[int]string{})
	engine := newEngine(host, nil)

	_, err := engine.Apply(host, fakeTarget(), domain.MergeModeMerge, []domain.ParamChange{
		{Index: 30, Value: 0.1},
		{Index: 31, Value: 0.2},
		{Index: 30, Value: 0.9},
	})
	require.NoError(t, err)
	assert.Equal(t, []write{{index: 31, value: 0.2}, {index: 30, value: 0.9}}, host.writes)
}

func TestApplyReplaceActiveInjectsBypassFirst(t *testing.T) {
	t.Parallel()

	host := newFakeHost(map[int]string{})
	engine := newEngine(host, nil)

	result, err := engine.Apply(host, fakeTarget(), domain.MergeModeReplaceActive, []domain.ParamChange{
		{Index: 105, Value: 0.4},
		{Index: 101, Value: 1},
		{Index: 4, Value: 1},
	})
	require.NoError(t, err)

	// Delay is touched through 105; wow/pitch is not, but its 4 is explicit.
	want := []write{
		{index: 3, value: 0},
		{index: 8, value: 0},
		{index: 13, value: 0},
		{index: 17, value: 0},
		{index: 21, value: 0},
		{index: 23, value: 0},
		{index: 112, value: 0},
		{index: 105, value: 0.4},
		{index: 101, value: 1},
		{index: 4, value: 1},
	}
	assert.Equal(t, want, host.writes)
	assert.Equal(t, 7, result.Injected)
	assert.Len(t, result.Applied, len(want))
}

func TestApplyMergeInjectsNothing(t *testing.T) {
	t.Parallel()

	host := newFakeHost(map[int]string{})
	engine := newEngine(host, nil)

	result, err := engine.Apply(host, fakeTarget(), domain.MergeModeMerge, []domain.ParamChange{{Index: 30, Value: 0.5}})
	require.NoError(t, err)
	assert.Zero(t, result.Injected)
	assert.Len(t, host.writes, 1)
}

func TestApplyReplaceActiveLeavesUntouchedModuleValues(t *testing.T) {
	t.Parallel()

	session := sim.DefaultSession()
	r := NewResolver(nil, nil)
	target, err := r.Resolve(session, gojiraFX)
	require.NoError(t, err)

	require.NoError(t, session.SetParam(target.Container, target.Position, 112, 1))
	require.NoError(t, session.SetParam(target.Container, target.Position, 114, 0.8))

	engine := NewApplyEngine(domain.DefaultModuleLayout(), nil, r, nil)
	target, err = r.Resolve(session, gojiraFX)
	require.NoError(t, err)
	_, err = engine.Apply(session, target, domain.MergeModeReplaceActive, []domain.ParamChange{{Index: 105, Value: 0.6}})
	require.NoError(t, err)

	reverbActive, _ := session.Value(string(gojiraFX), 112)
	reverbMix, _ := session.Value(string(gojiraFX), 114)
	delayMix, _ := session.Value(string(gojiraFX), 105)
	assert.Equal(t, 0.0, reverbActive)
	assert.Equal(t, 0.8, reverbMix)
	assert.Equal(t, 0.6, delayMix)
}

func TestApplyReadsBackEveryWrite(t *testing.T) {
	t.Parallel()

	session := sim.DefaultSession()
	r := NewResolver(nil, nil)
	target, err := r.Resolve(session, gojiraFX)
	require.NoError(t, err)
	engine := NewApplyEngine(domain.DefaultModuleLayout(), nil, r, nil)

	batch := []domain.ParamChange{{Index: 101, Value: 0.7}, {Index: 105, Value: 0.5}}
	first, err := engine.Apply(session, target, domain.MergeModeMerge, batch)
	require.NoError(t, err)

	require.Len(t, first.Applied, 2)
	assert.Equal(t, domain.AppliedParam{Index: 101, HostIndex: 101, Requested: 0.7, Applied: 1, Formatted: "On"}, first.Applied[0])
	assert.Equal(t, domain.AppliedParam{Index: 105, HostIndex: 105, Requested: 0.5, Applied: 0.5, Formatted: "50.0 %"}, first.Applied[1])

	second, err := engine.Apply(session, target, domain.MergeModeMerge, batch)
	require.NoError(t, err)
	assert.Equal(t, first.Applied, second.Applied)
}

func TestApplySameBatchTwiceIsIdempotent(t *testing.T) {
	t.Parallel()

	batch := []domain.ParamChange{
		{Index: 30, Value: 0.42},
		{Index: 101, Value: 0.7},
		{Index: 105, Value: 1.3},
		{Index: 113, Value: 0.61},
	}

	for _, mode := range []domain.MergeMode{domain.MergeModeMerge, domain.MergeModeReplaceActive} {
		t.Run(string(mode), func(t *testing.T) {
			t.Parallel()

			session := sim.DefaultSession()
			r := NewResolver(nil, nil)
			target, err := r.Resolve(session, gojiraFX)
			require.NoError(t, err)
			engine := NewApplyEngine(domain.DefaultModuleLayout(), nil, r, nil)

			first, err := engine.Apply(session, target, mode, batch)
			require.NoError(t, err)
			afterFirst := pluginValues(t, session)

			second, err := engine.Apply(session, target, mode, batch)
			require.NoError(t, err)

			assert.Equal(t, first.Applied, second.Applied)
			assert.Equal(t, afterFirst, pluginValues(t, session))
		})
	}
}

func pluginValues(t *testing.T, session *sim.Session) []float64 {
	t.Helper()

	var values []float64
	for i := 0; ; i++ {
		v, ok := session.Value(string(gojiraFX), i)
		if !ok {
			break
		}
		values = append(values, v)
	}
	require.NotEmpty(t, values)

	return values
}

func TestApplyReadbackFallsBackToRequested(t *testing.T) {
	t.Parallel()

	host := newFakeHost(map[int]string{30: "Amp Gain"})
	host.noReadback = true
	engine := newEngine(host, nil)

	result, err := engine.Apply(host, fakeTarget(), domain.MergeModeMerge, []domain.ParamChange{{Index: 30, Value: 0.25}})
	require.NoError(t, err)
	assert.Equal(t, []domain.AppliedParam{{Index: 30, HostIndex: 30, Requested: 0.25, Applied: 0.25, Formatted: "25%"}}, result.Applied)
}

func TestApplyRetriesAfterRescanOnWriteFailure(t *testing.T) {
	t.Parallel()

	session := sim.DefaultSession()
	r := NewResolver(nil, nil)
	target, err := r.Resolve(session, gojiraFX)
	require.NoError(t, err)

	// The plugin moves after the target was resolved: the handle goes stale.
	require.NoError(t, session.MovePlugin(string(gojiraFX), doubleTrack, 0))

	engine := NewApplyEngine(domain.DefaultModuleLayout(), nil, r, nil)
	result, err := engine.Apply(session, target, domain.MergeModeMerge, []domain.ParamChange{{Index: 30, Value: 0.3}})
	require.NoError(t, err)
	require.Len(t, result.Applied, 1)

	v, _ := session.Value(string(gojiraFX), 30)
	assert.Equal(t, 0.3, v)
}

func TestApplyTargetGoneMidBatch(t *testing.T) {
	t.Parallel()

	session := sim.DefaultSession()
	r := NewResolver(nil, nil)
	target, err := r.Resolve(session, gojiraFX)
	require.NoError(t, err)
	require.NoError(t, session.RemovePlugin(string(gojiraFX)))

	engine := NewApplyEngine(domain.DefaultModuleLayout(), nil, r, nil)
	result, err := engine.Apply(session, target, domain.MergeModeMerge, []domain.ParamChange{{Index: 30, Value: 0.3}})
	require.ErrorIs(t, err, domain.ErrTargetNotFound)
	assert.True(t, result.Lost)
	assert.Empty(t, result.Applied)
}

func TestApplyPartialWhenWritesKeepFailing(t *testing.T) {
	t.Parallel()

	session := sim.DefaultSession()
	r := NewResolver(nil, nil)
	target, err := r.Resolve(session, gojiraFX)
	require.NoError(t, err)
	engine := NewApplyEngine(domain.DefaultModuleLayout(), nil, r, nil)

	result, err := engine.Apply(session, target, domain.MergeModeMerge, []domain.ParamChange{{Index: 30, Value: 0.3}})
	require.NoError(t, err)
	require.Len(t, result.Applied, 1)

	session.FailWrites(string(gojiraFX), 2)
	_, err = engine.Apply(session, target, domain.MergeModeMerge, []domain.ParamChange{{Index: 31, Value: 0.3}})
	require.ErrorIs(t, err, domain.ErrHostUnavailable)
}
