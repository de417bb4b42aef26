package converter

// BuildPixelMask converts the segmentation tool's flat pixel index list
// into (column, row, weight) triples. The index is decomposed within an
// nRows-high tile:
//
//	row = p / nRows
//	col = p % nRows
//
// This matches the segmentation tool's geometry convention exactly; it
// divides by the row count on purpose and downstream region rendering
// depends on it. An out-of-bounds result means nRows/nCols were read in
// the wrong order and is surfaced, never clamped. An empty index list
// is a valid zero-pixel region.
func BuildPixelMask(indices []int64, nRows int, nCols int) (PixelMask, error) {
	if nRows <= 0 || nCols <= 0 {
		return nil, &GeometryMismatchError{Index: -1, Row: -1, Col: -1, NRows: nRows, NCols: nCols}
	}
	mask := make(PixelMask, 0, len(indices))
	for _, p := range indices {
		if p < 0 {
			return nil, &GeometryMismatchError{Index: p, Row: -1, Col: -1, NRows: nRows, NCols: nCols}
		}
		row := p / int64(nRows)
		col := p % int64(nRows)
		if row >= int64(nRows) || col >= int64(nCols) {
			return nil, &GeometryMismatchError{Index: p, Row: row, Col: col, NRows: nRows, NCols: nCols}
		}
		mask = append(mask, MaskPixel{Col: int32(col), Row: int32(row), Weight: 1.0})
	}
	return mask, nil
}
