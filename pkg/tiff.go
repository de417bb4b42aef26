package converter

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Minimal reader for the acquisition tool's TIFF stacks: classic TIFF,
// either byte order, single-sample 8- or 16-bit grayscale, uncompressed
// strips, one image per directory. Page counting walks the IFD chain
// without touching pixel data.

const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
)

const compressionNone = 1

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	raw   [4]byte
}

type tiffPage struct {
	rows         int
	cols         int
	bits         int
	stripOffsets []int64
	stripCounts  []int64
}

type tiffReader struct {
	r        io.ReadSeeker
	bo       binary.ByteOrder
	firstIFD int64
}

func newTiffReader(r io.ReadSeeker) (*tiffReader, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("error reading TIFF header: %w", err)
	}

	var bo binary.ByteOrder
	switch {
	case hdr[0] == 'I' && hdr[1] == 'I':
		bo = binary.LittleEndian
	case hdr[0] == 'M' && hdr[1] == 'M':
		bo = binary.BigEndian
	default:
		return nil, fmt.Errorf("not a TIFF file: byte-order mark %q", hdr[0:2])
	}
	if magic := bo.Uint16(hdr[2:4]); magic != 42 {
		return nil, fmt.Errorf("not a TIFF file: magic %d", magic)
	}
	return &tiffReader{r: r, bo: bo, firstIFD: int64(bo.Uint32(hdr[4:8]))}, nil
}

// countPages walks the directory chain reading only entry counts and
// next-IFD offsets.
func (t *tiffReader) countPages() (int, error) {
	pages := 0
	for offset := t.firstIFD; offset != 0; {
		if _, err := t.r.Seek(offset, io.SeekStart); err != nil {
			return 0, err
		}
		var n uint16
		if err := binary.Read(t.r, t.bo, &n); err != nil {
			return 0, fmt.Errorf("error reading IFD at %d: %w", offset, err)
		}
		if _, err := t.r.Seek(int64(n)*12, io.SeekCurrent); err != nil {
			return 0, err
		}
		var next uint32
		if err := binary.Read(t.r, t.bo, &next); err != nil {
			return 0, fmt.Errorf("error reading next IFD offset: %w", err)
		}
		pages++
		offset = int64(next)
	}
	return pages, nil
}

func (t *tiffReader) readIFD(offset int64) ([]ifdEntry, int64, error) {
	if _, err := t.r.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, err
	}
	var n uint16
	if err := binary.Read(t.r, t.bo, &n); err != nil {
		return nil, 0, fmt.Errorf("error reading IFD at %d: %w", offset, err)
	}

	entries := make([]ifdEntry, n)
	buf := make([]byte, 12)
	for i := range entries {
		if _, err := io.ReadFull(t.r, buf); err != nil {
			return nil, 0, fmt.Errorf("error reading IFD entry %d: %w", i, err)
		}
		entries[i] = ifdEntry{
			tag:   t.bo.Uint16(buf[0:2]),
			typ:   t.bo.Uint16(buf[2:4]),
			count: t.bo.Uint32(buf[4:8]),
		}
		copy(entries[i].raw[:], buf[8:12])
	}

	var next uint32
	if err := binary.Read(t.r, t.bo, &next); err != nil {
		return nil, 0, fmt.Errorf("error reading next IFD offset: %w", err)
	}
	return entries, int64(next), nil
}

var ifdTypeSizes = map[uint16]int{
	1: 1, // BYTE
	3: 2, // SHORT
	4: 4, // LONG
}

// entryInts resolves an entry's values, following the offset indirection
// when they do not fit in the 4 inline bytes.
func (t *tiffReader) entryInts(e ifdEntry) ([]int64, error) {
	size, ok := ifdTypeSizes[e.typ]
	if !ok {
		return nil, fmt.Errorf("unsupported IFD entry type %d for tag %d", e.typ, e.tag)
	}
	total := size * int(e.count)
	data := make([]byte, total)
	if total <= 4 {
		copy(data, e.raw[:total])
	} else {
		offset := int64(t.bo.Uint32(e.raw[:]))
		if _, err := t.r.Seek(offset, io.SeekStart); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(t.r, data); err != nil {
			return nil, fmt.Errorf("error reading values of tag %d: %w", e.tag, err)
		}
	}

	out := make([]int64, e.count)
	for i := range out {
		switch e.typ {
		case 1:
			out[i] = int64(data[i])
		case 3:
			out[i] = int64(t.bo.Uint16(data[i*2:]))
		case 4:
			out[i] = int64(t.bo.Uint32(data[i*4:]))
		}
	}
	return out, nil
}

func (t *tiffReader) entryInt(e ifdEntry) (int64, error) {
	vals, err := t.entryInts(e)
	if err != nil {
		return 0, err
	}
	if len(vals) == 0 {
		return 0, fmt.Errorf("tag %d has no values", e.tag)
	}
	return vals[0], nil
}

func (t *tiffReader) parsePage(entries []ifdEntry) (*tiffPage, error) {
	page := &tiffPage{bits: 8}
	var haveWidth, haveLength, haveOffsets, haveCounts bool

	for _, e := range entries {
		switch e.tag {
		case tagImageWidth:
			v, err := t.entryInt(e)
			if err != nil {
				return nil, err
			}
			page.cols = int(v)
			haveWidth = true
		case tagImageLength:
			v, err := t.entryInt(e)
			if err != nil {
				return nil, err
			}
			page.rows = int(v)
			haveLength = true
		case tagBitsPerSample:
			v, err := t.entryInt(e)
			if err != nil {
				return nil, err
			}
			if v != 8 && v != 16 {
				return nil, fmt.Errorf("unsupported bits per sample %d", v)
			}
			page.bits = int(v)
		case tagCompression:
			v, err := t.entryInt(e)
			if err != nil {
				return nil, err
			}
			if v != compressionNone {
				return nil, fmt.Errorf("unsupported compression %d", v)
			}
		case tagSamplesPerPixel:
			v, err := t.entryInt(e)
			if err != nil {
				return nil, err
			}
			if v != 1 {
				return nil, fmt.Errorf("unsupported samples per pixel %d", v)
			}
		case tagStripOffsets:
			vals, err := t.entryInts(e)
			if err != nil {
				return nil, err
			}
			page.stripOffsets = vals
			haveOffsets = true
		case tagStripByteCounts:
			vals, err := t.entryInts(e)
			if err != nil {
				return nil, err
			}
			page.stripCounts = vals
			haveCounts = true
		}
	}

	if !haveWidth || !haveLength || !haveOffsets || !haveCounts {
		return nil, fmt.Errorf("incomplete IFD: width/length/strip tags missing")
	}
	if len(page.stripOffsets) != len(page.stripCounts) {
		return nil, fmt.Errorf("strip offsets (%d) and byte counts (%d) differ",
			len(page.stripOffsets), len(page.stripCounts))
	}
	return page, nil
}

// readPagePixels decodes one page's strips into a row-major int16 slice.
func (t *tiffReader) readPagePixels(page *tiffPage) ([]int16, error) {
	nPix := page.rows * page.cols
	out := make([]int16, nPix)
	sampleBytes := page.bits / 8

	idx := 0
	for i, offset := range page.stripOffsets {
		count := page.stripCounts[i]
		if _, err := t.r.Seek(offset, io.SeekStart); err != nil {
			return nil, err
		}
		strip := make([]byte, count)
		if _, err := io.ReadFull(t.r, strip); err != nil {
			return nil, fmt.Errorf("error reading strip %d: %w", i, err)
		}
		for pos := 0; pos+sampleBytes <= len(strip); pos += sampleBytes {
			if idx >= nPix {
				return nil, fmt.Errorf("strip data overflows %dx%d page", page.rows, page.cols)
			}
			if page.bits == 8 {
				out[idx] = int16(strip[pos])
			} else {
				out[idx] = int16(t.bo.Uint16(strip[pos:]))
			}
			idx++
		}
	}
	if idx != nPix {
		return nil, fmt.Errorf("page truncated: %d of %d samples", idx, nPix)
	}
	return out, nil
}
