package converter

import (
	"encoding/binary"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTestStack writes one TIFF per frame count and returns the paths.
func buildTestStack(t *testing.T, frameCounts []int, rows, cols int) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, len(frameCounts))
	for i, n := range frameCounts {
		paths[i] = filepath.Join(dir, "stack_"+string(rune('a'+i))+".tif")
		writeTestTiff(t, paths[i], makeFrames(n, rows, cols, int16(i*100)), rows, cols, binary.LittleEndian, 16)
	}
	return paths
}

func TestBuildStackManifestOffsets(t *testing.T) {
	paths := buildTestStack(t, []int{3, 4, 2}, 2, 2)

	manifest, err := BuildStackManifest(paths)
	require.NoError(t, err)

	assert.Equal(t, []int64{0, 3, 7}, manifest.StartingFrames)
	assert.EqualValues(t, 9, manifest.TotalFrames)
	assert.Equal(t, paths, manifest.Paths)
}

func TestBuildStackManifestMissingFile(t *testing.T) {
	paths := buildTestStack(t, []int{2}, 2, 2)
	paths = append(paths, filepath.Join(t.TempDir(), "gone.tif"))

	_, err := BuildStackManifest(paths)
	require.Error(t, err)

	var stackErr *StackReadError
	require.ErrorAs(t, err, &stackErr)
	assert.Equal(t, 1, stackErr.Position)
	assert.Contains(t, stackErr.Path, "gone.tif")
}

func TestFrameIteratorYieldsAllFrames(t *testing.T) {
	paths := buildTestStack(t, []int{3, 4, 2}, 2, 3)

	it := NewFrameIterator(paths)
	defer it.Close()

	count := 0
	for {
		frame, err := it.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, 2, frame.Rows)
		assert.Equal(t, 3, frame.Cols)
		assert.Len(t, frame.Pix, 6)
		count++
	}
	assert.Equal(t, 9, count, "embed sequence length equals sum of per-file frame counts")
}

func TestFrameIteratorNotRestartable(t *testing.T) {
	paths := buildTestStack(t, []int{2}, 2, 2)

	it := NewFrameIterator(paths)
	defer it.Close()
	for {
		if _, err := it.Next(); err == io.EOF {
			break
		}
	}

	// A spent iterator stays spent.
	_, err := it.Next()
	assert.Equal(t, io.EOF, err)
	_, err = it.Next()
	assert.Equal(t, io.EOF, err)

	// A fresh construction iterates again.
	it2 := NewFrameIterator(paths)
	defer it2.Close()
	frame, err := it2.Next()
	require.NoError(t, err)
	assert.NotNil(t, frame)
}

func TestFrameIteratorFrameOrder(t *testing.T) {
	paths := buildTestStack(t, []int{1, 1}, 1, 2)

	it := NewFrameIterator(paths)
	defer it.Close()

	first, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, []int16{0, 1}, first.Pix, "file 0 frame 0")

	second, err := it.Next()
	require.NoError(t, err)
	assert.Equal(t, []int16{100, 101}, second.Pix, "file 1 frame 0")

	_, err = it.Next()
	assert.Equal(t, io.EOF, err)
}

func TestFrameIteratorFailsMidStream(t *testing.T) {
	paths := buildTestStack(t, []int{2}, 2, 2)
	paths = append(paths, filepath.Join(t.TempDir(), "missing.tif"))

	it := NewFrameIterator(paths)
	defer it.Close()

	// First file streams fine.
	_, err := it.Next()
	require.NoError(t, err)
	_, err = it.Next()
	require.NoError(t, err)

	// Second file is gone: named failure, then the iterator is dead.
	_, err = it.Next()
	var stackErr *StackReadError
	require.ErrorAs(t, err, &stackErr)
	assert.Equal(t, 1, stackErr.Position)

	_, err = it.Next()
	assert.Equal(t, io.EOF, err)
}
