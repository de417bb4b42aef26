package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncMapFromFrameIndices(t *testing.T) {
	m, ok := SyncMapFromFrameIndices([]int64{10, 25, 40})
	require.True(t, ok)
	require.Len(t, m, 3)
	assert.Equal(t, SyncAnchor{Frame: 0, Sample: 10}, m[0])
	assert.Equal(t, SyncAnchor{Frame: 2, Sample: 40}, m[2])
}

func TestSyncMapFromFrameIndicesDegraded(t *testing.T) {
	m, ok := SyncMapFromFrameIndices(nil)
	assert.False(t, ok)
	assert.Nil(t, m)

	// Non-monotonic sample indices degrade instead of failing.
	m, ok = SyncMapFromFrameIndices([]int64{10, 5, 40})
	assert.False(t, ok)
	assert.Nil(t, m)

	m, ok = SyncMapFromFrameIndices([]int64{-3, 5})
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestSyncMapFromSampleMarkers(t *testing.T) {
	// Several samples carry the same frame value: the earliest sample
	// index wins as the anchor.
	m, ok := SyncMapFromSampleMarkers([]int64{0, 0, 0, 1, 1, 2, 2})
	require.True(t, ok)
	require.Len(t, m, 3)
	assert.Equal(t, SyncAnchor{Frame: 0, Sample: 0}, m[0])
	assert.Equal(t, SyncAnchor{Frame: 1, Sample: 3}, m[1])
	assert.Equal(t, SyncAnchor{Frame: 2, Sample: 5}, m[2])
}

func TestSyncMapFromSampleMarkersEmpty(t *testing.T) {
	m, ok := SyncMapFromSampleMarkers(nil)
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestAlignAnchorsOpticalStart(t *testing.T) {
	m, ok := SyncMapFromFrameIndices([]int64{10, 25, 40})
	require.True(t, ok)

	align := Align(m, 0.01)
	assert.True(t, align.Aligned)
	assert.Equal(t, 0.0, align.ElectricalStart)
	assert.InDelta(t, 0.1, align.OpticalStart, 1e-12, "frame 0 lands on sample 10")
}

func TestAlignDegradedMode(t *testing.T) {
	align := Align(nil, 0.01)
	assert.False(t, align.Aligned)
	assert.Equal(t, 0.0, align.ElectricalStart)
	assert.Equal(t, 0.0, align.OpticalStart)
}
