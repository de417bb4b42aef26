package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpikeTimesFromBinaryTrain(t *testing.T) {
	times := SpikeTimes([]int64{0, 0, 1, 0, 1}, 0.01)
	require.Len(t, times, 2)
	assert.InDelta(t, 0.02, times[0], 1e-12)
	assert.InDelta(t, 0.04, times[1], 1e-12)
}

func TestSpikeTimesNoSpikes(t *testing.T) {
	assert.Empty(t, SpikeTimes([]int64{0, 0, 0}, 0.01))
	assert.Empty(t, SpikeTimes(nil, 0.01))
}

func TestSourceFileListCoversEveryInput(t *testing.T) {
	config := Configuration{
		PathProcessed: "/data/processed.h5",
		PathRaw:       "/data/raw.h5",
		PathsTiff:     []string{"/data/a.tif", "/data/b.tif"},
	}

	files := sourceFileList(config)
	require.Len(t, files, 4)
	assert.Equal(t, SourceFile{Kind: SourceProcessed, Path: "/data/processed.h5"}, files[0])
	assert.Equal(t, SourceFile{Kind: SourceRawElectrical, Path: "/data/raw.h5"}, files[1])
	assert.Equal(t, SourceFile{Kind: SourceRawImaging, Path: "/data/a.tif"}, files[2])
	assert.Equal(t, SourceFile{Kind: SourceRawImaging, Path: "/data/b.tif"}, files[3])
}

func TestSourceFileListSkipsAbsentRaw(t *testing.T) {
	files := sourceFileList(Configuration{PathProcessed: "/data/processed.h5"})
	require.Len(t, files, 1)
	assert.Equal(t, SourceProcessed, files[0].Kind)
}

func TestConvertMissingProcessedFile(t *testing.T) {
	config := Configuration{
		PathProcessed: "/nonexistent/processed.h5",
		PathOutput:    "/nonexistent/out.nwb",
	}
	registry := NewStaticRegistry(nil)

	_, err := Convert(config, registry, nil)
	require.Error(t, err)

	var stepErr *ConvertStepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "open-sources", stepErr.Step)

	var srcErr *SourceUnavailableError
	assert.ErrorAs(t, err, &srcErr, "missing source surfaces as SourceUnavailable")
}
