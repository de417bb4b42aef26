package converter

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestTiff builds a classic multi-page TIFF: pixel data first, then
// one IFD per page with a single uncompressed strip.
func writeTestTiff(t *testing.T, path string, frames [][]int16, rows, cols int, bo binary.ByteOrder, bits int) {
	t.Helper()

	sampleBytes := bits / 8
	frameBytes := rows * cols * sampleBytes
	const ifdSize = 2 + 8*12 + 4
	ifdStart := 8 + len(frames)*frameBytes

	var buf bytes.Buffer

	// Header
	if bo == binary.LittleEndian {
		buf.WriteString("II")
	} else {
		buf.WriteString("MM")
	}
	writeU16 := func(v uint16) {
		b := make([]byte, 2)
		bo.PutUint16(b, v)
		buf.Write(b)
	}
	writeU32 := func(v uint32) {
		b := make([]byte, 4)
		bo.PutUint32(b, v)
		buf.Write(b)
	}
	writeU16(42)
	writeU32(uint32(ifdStart))

	// Pixel data
	for _, frame := range frames {
		require.Len(t, frame, rows*cols, "frame size must match geometry")
		for _, px := range frame {
			if bits == 8 {
				buf.WriteByte(byte(px))
			} else {
				writeU16(uint16(px))
			}
		}
	}

	// IFD chain
	entry := func(tag, typ uint16, count, value uint32) {
		writeU16(tag)
		writeU16(typ)
		writeU32(count)
		switch typ {
		case 3:
			writeU16(uint16(value))
			writeU16(0)
		default:
			writeU32(value)
		}
	}
	for i := range frames {
		writeU16(8) // entry count
		entry(tagImageWidth, 3, 1, uint32(cols))
		entry(tagImageLength, 3, 1, uint32(rows))
		entry(tagBitsPerSample, 3, 1, uint32(bits))
		entry(tagCompression, 3, 1, compressionNone)
		entry(tagStripOffsets, 4, 1, uint32(8+i*frameBytes))
		entry(tagSamplesPerPixel, 3, 1, 1)
		entry(tagRowsPerStrip, 3, 1, uint32(rows))
		entry(tagStripByteCounts, 4, 1, uint32(frameBytes))
		if i < len(frames)-1 {
			writeU32(uint32(ifdStart + (i+1)*ifdSize))
		} else {
			writeU32(0)
		}
	}

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func makeFrames(n, rows, cols int, base int16) [][]int16 {
	frames := make([][]int16, n)
	for i := range frames {
		frame := make([]int16, rows*cols)
		for j := range frame {
			frame[j] = base + int16(i*1000+j)
		}
		frames[i] = frame
	}
	return frames
}

func TestTiffCountPages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stack.tif")
	writeTestTiff(t, path, makeFrames(5, 4, 6, 0), 4, 6, binary.LittleEndian, 16)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	tr, err := newTiffReader(f)
	require.NoError(t, err)

	n, err := tr.countPages()
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestTiffDecodePixels(t *testing.T) {
	frames := makeFrames(3, 2, 3, 100)
	path := filepath.Join(t.TempDir(), "stack.tif")
	writeTestTiff(t, path, frames, 2, 3, binary.LittleEndian, 16)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	tr, err := newTiffReader(f)
	require.NoError(t, err)

	offset := tr.firstIFD
	for i := 0; i < 3; i++ {
		entries, next, err := tr.readIFD(offset)
		require.NoError(t, err)
		page, err := tr.parsePage(entries)
		require.NoError(t, err)
		assert.Equal(t, 2, page.rows)
		assert.Equal(t, 3, page.cols)
		assert.Equal(t, 16, page.bits)

		pix, err := tr.readPagePixels(page)
		require.NoError(t, err)
		assert.Equal(t, frames[i], pix, "frame %d pixel data", i)
		offset = next
	}
	assert.EqualValues(t, 0, offset, "IFD chain must end after last page")
}

func TestTiffBigEndianAnd8Bit(t *testing.T) {
	frames := [][]int16{{1, 2, 3, 4}, {5, 6, 7, 8}}
	path := filepath.Join(t.TempDir(), "stack.tif")
	writeTestTiff(t, path, frames, 2, 2, binary.BigEndian, 8)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	tr, err := newTiffReader(f)
	require.NoError(t, err)
	assert.Equal(t, binary.BigEndian, tr.bo)

	entries, _, err := tr.readIFD(tr.firstIFD)
	require.NoError(t, err)
	page, err := tr.parsePage(entries)
	require.NoError(t, err)
	assert.Equal(t, 8, page.bits)

	pix, err := tr.readPagePixels(page)
	require.NoError(t, err)
	assert.Equal(t, frames[0], pix)
}

func TestTiffRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.tif")
	require.NoError(t, os.WriteFile(path, []byte("this is not a tiff file"), 0o644))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	_, err = newTiffReader(f)
	assert.Error(t, err)
}
