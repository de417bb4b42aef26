package converter

import (
	"fmt"

	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// STRLEN sizes every fixed string field in the container, file paths
// included. Paths that do not fit are rejected, never truncated.
const STRLEN = 256

func convertToHdf5String(s string) [STRLEN]byte {
	var byteArray [STRLEN]byte
	copy(byteArray[:], s)
	return byteArray
}

func createOutputFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, fmt.Errorf("error creating file %q: %w", fname, err)
	}
	return f, nil
}

func createGroup(file *hdf5.File, groupName string) (*hdf5.Group, error) {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		return nil, fmt.Errorf("error creating group %q: %w", groupName, err)
	}
	return g, nil
}

func createSubGroup(group *hdf5.Group, groupName string) (*hdf5.Group, error) {
	g, err := group.CreateGroup(groupName)
	if err != nil {
		return nil, fmt.Errorf("error creating group %q: %w", groupName, err)
	}
	return g, nil
}

// createDoubleArray makes an extendable 1-D float64 dataset. Data is
// appended later with writeDoubles.
func createDoubleArray(group *hdf5.Group, name string, level int) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	chunks := []uint{32768}
	return createArray(group, name, hdf5.T_NATIVE_DOUBLE, dims, maxDims, chunks, level)
}

// createFrameArray makes an extendable (frame, rows, cols) int16 dataset,
// chunked one frame at a time so embed mode can append incrementally.
func createFrameArray(group *hdf5.Group, name string, nRows int, nCols int, level int) (*hdf5.Dataset, error) {
	dims := []uint{0, uint(nRows), uint(nCols)}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims), uint(nRows), uint(nCols)}
	chunks := []uint{1, uint(nRows), uint(nCols)}
	return createArray(group, name, hdf5.T_NATIVE_INT16, dims, maxDims, chunks, level)
}

func createArray(group *hdf5.Group, name string, dtype *hdf5.Datatype,
	dims []uint, maxDims []uint, chunks []uint, level int) (*hdf5.Dataset, error) {
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, fmt.Errorf("error creating dataspace for %q: %w", name, err)
	}

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, fmt.Errorf("error creating property list for %q: %w", name, err)
	}
	plist.SetChunk(chunks)
	plist.SetDeflate(level)

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, fmt.Errorf("error creating dataset %q: %w", name, err)
	}
	return dset, nil
}

func createTable(group *hdf5.Group, name string, datatype interface{}, level int) (*hdf5.Dataset, error) {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	fileSpace, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		return nil, fmt.Errorf("error creating dataspace for table %q: %w", name, err)
	}

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, fmt.Errorf("error creating property list for table %q: %w", name, err)
	}
	chunks := []uint{32768}
	plist.SetChunk(chunks)
	plist.SetDeflate(level)

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		return nil, fmt.Errorf("error creating datatype for table %q: %w", name, err)
	}

	dset, err := group.CreateDatasetWith(name, dtype, fileSpace, plist)
	if err != nil {
		return nil, fmt.Errorf("error creating table %q: %w", name, err)
	}
	return dset, nil
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T, counter int) error {
	array := []T{data}
	return writeArrayToTable(dataset, &array, counter)
}

func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T, counter int) error {
	length := uint(len(*data))
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return fmt.Errorf("error creating memory dataspace: %w", err)
	}
	defer dataspace.Close()

	entriesInTable := uint(counter)
	newsize := []uint{entriesInTable + length}
	dataset.Resize(newsize)
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{entriesInTable}
	count := []uint{length}
	filespace.SelectHyperslab(start, nil, count, nil)

	if err := dataset.WriteSubset(data, dataspace, filespace); err != nil {
		return fmt.Errorf("error writing table entries: %w", err)
	}
	return nil
}

func writeDoubles(dataset *hdf5.Dataset, data *[]float64, offset int) error {
	length := uint(len(*data))
	newsize := []uint{uint(offset) + length}
	dataset.Resize(newsize)
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{uint(offset)}
	count := []uint{length}
	filespace.SelectHyperslab(start, nil, count, nil)

	dataspace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return fmt.Errorf("error creating memory dataspace: %w", err)
	}
	defer dataspace.Close()

	if err := dataset.WriteSubset(data, dataspace, filespace); err != nil {
		return fmt.Errorf("error writing array data: %w", err)
	}
	return nil
}

// writeFrameToArray appends one decoded frame at index counter.
func writeFrameToArray(dataset *hdf5.Dataset, data *[]int16, counter int, nRows int, nCols int) error {
	newsize := []uint{uint(counter) + 1, uint(nRows), uint(nCols)}
	dataset.Resize(newsize)
	filespace := dataset.Space()
	defer filespace.Close()

	start := []uint{uint(counter), 0, 0}
	count := []uint{1, uint(nRows), uint(nCols)}
	filespace.SelectHyperslab(start, nil, count, nil)

	dataspace, err := hdf5.CreateSimpleDataspace(count, nil)
	if err != nil {
		return fmt.Errorf("error creating memory dataspace: %w", err)
	}
	defer dataspace.Close()

	if err := dataset.WriteSubset(data, dataspace, filespace); err != nil {
		return fmt.Errorf("error writing frame %d: %w", counter, err)
	}
	return nil
}

// Read-side helpers. Sources are opened read-only and every dataset read
// goes through here so handles are always released.

func openSourceFile(fname string) (*hdf5.File, error) {
	f, err := hdf5.OpenFile(fname, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("error opening file %q: %w", fname, err)
	}
	return f, nil
}

func datasetExists(file *hdf5.File, name string) bool {
	dset, err := file.OpenDataset(name)
	if err != nil {
		return false
	}
	dset.Close()
	return true
}

// readDoubles reads a whole dataset as float64, flattened row-major.
// HDF5 converts the stored type to native double on the way out.
func readDoubles(file *hdf5.File, name string) ([]float64, error) {
	dset, err := file.OpenDataset(name)
	if err != nil {
		return nil, fmt.Errorf("error opening dataset %q: %w", name, err)
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, fmt.Errorf("error reading extent of %q: %w", name, err)
	}
	n := uint(1)
	for _, d := range dims {
		n *= d
	}

	data := make([]float64, n)
	if n > 0 {
		if err := dset.Read(&data); err != nil {
			return nil, fmt.Errorf("error reading dataset %q: %w", name, err)
		}
	}
	return data, nil
}
