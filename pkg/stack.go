package converter

import (
	"fmt"
	"io"
	"os"
)

// BuildStackManifest probes each stack file for its frame count and
// builds the cumulative starting-frame table: StartingFrames[0] = 0,
// StartingFrames[i] = StartingFrames[i-1] + frames in file i-1. No pixel
// data is read; memory and I/O stay proportional to the file count.
func BuildStackManifest(paths []string) (*StackManifest, error) {
	manifest := &StackManifest{
		Paths:          paths,
		StartingFrames: make([]int64, len(paths)),
	}
	var total int64
	for i, path := range paths {
		frames, err := countStackFrames(path)
		if err != nil {
			return nil, &StackReadError{Path: path, Position: i, Err: err}
		}
		if configuration.Verbosity > 1 {
			logger.Info(fmt.Sprintf("Stack file %s: %d frames", path, frames), "stack")
		}
		manifest.StartingFrames[i] = total
		total += int64(frames)
	}
	manifest.TotalFrames = total
	return manifest, nil
}

func countStackFrames(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	tr, err := newTiffReader(f)
	if err != nil {
		return 0, err
	}
	return tr.countPages()
}

// FrameIterator yields every frame of the stack in file order, then
// io.EOF. It is a single forward pass: a spent iterator stays spent and
// re-iterating requires a new one. At most one file handle and one
// decoded frame are held at any time, whatever the total stack size.
type FrameIterator struct {
	paths   []string
	fileIdx int
	file    *os.File
	tr      *tiffReader
	nextIFD int64
	done    bool
}

func NewFrameIterator(paths []string) *FrameIterator {
	return &FrameIterator{paths: paths}
}

// Next returns the next decoded frame, io.EOF once the stack is
// exhausted, or a StackReadError naming the offending file. Any failure
// ends the iteration.
func (it *FrameIterator) Next() (*Frame, error) {
	for {
		if it.done {
			return nil, io.EOF
		}

		if it.file == nil {
			if it.fileIdx >= len(it.paths) {
				it.done = true
				return nil, io.EOF
			}
			file, err := os.Open(it.paths[it.fileIdx])
			if err != nil {
				return nil, it.fail(err)
			}
			tr, err := newTiffReader(file)
			if err != nil {
				file.Close()
				return nil, it.fail(err)
			}
			it.file = file
			it.tr = tr
			it.nextIFD = tr.firstIFD
			if configuration.Verbosity > 1 {
				logger.Info(fmt.Sprintf("Streaming stack file %s", it.paths[it.fileIdx]), "stack")
			}
		}

		if it.nextIFD == 0 {
			// Release before moving to the next file.
			it.file.Close()
			it.file = nil
			it.tr = nil
			it.fileIdx++
			continue
		}

		entries, next, err := it.tr.readIFD(it.nextIFD)
		if err != nil {
			return nil, it.failClose(err)
		}
		page, err := it.tr.parsePage(entries)
		if err != nil {
			return nil, it.failClose(err)
		}
		pix, err := it.tr.readPagePixels(page)
		if err != nil {
			return nil, it.failClose(err)
		}
		it.nextIFD = next
		return &Frame{Pix: pix, Rows: page.rows, Cols: page.cols}, nil
	}
}

// Close releases the current file handle. Safe to call at any point and
// after exhaustion.
func (it *FrameIterator) Close() error {
	it.done = true
	if it.file == nil {
		return nil
	}
	err := it.file.Close()
	it.file = nil
	it.tr = nil
	return err
}

func (it *FrameIterator) fail(err error) error {
	it.done = true
	return &StackReadError{Path: it.paths[it.fileIdx], Position: it.fileIdx, Err: err}
}

func (it *FrameIterator) failClose(err error) error {
	it.file.Close()
	it.file = nil
	it.tr = nil
	return it.fail(err)
}
