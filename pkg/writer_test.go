package converter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildExternalEntriesRejectsLongPath(t *testing.T) {
	longPath := "/data/" + strings.Repeat("x", STRLEN) + ".tif"
	manifest := &StackManifest{
		Paths:          []string{"/data/ok.tif", longPath},
		StartingFrames: []int64{0, 3},
	}

	_, err := buildExternalEntries(manifest)
	require.Error(t, err, "an over-long path must fail, not truncate to an unresolvable reference")
	assert.Contains(t, err.Error(), longPath)
}

func TestBuildExternalEntriesKeepsWideOffsets(t *testing.T) {
	// Offsets past the int32 range must survive intact.
	wide := int64(3) << 31
	manifest := &StackManifest{
		Paths:          []string{"/data/a.tif", "/data/b.tif"},
		StartingFrames: []int64{0, wide},
	}

	entries, err := buildExternalEntries(manifest)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, wide, entries[1].starting_frame)
}

func TestCheckPathFits(t *testing.T) {
	assert.NoError(t, checkPathFits("/data/session_01/stack_a.tif"))
	assert.NoError(t, checkPathFits(strings.Repeat("p", STRLEN-1)))
	assert.Error(t, checkPathFits(strings.Repeat("p", STRLEN)))
}
