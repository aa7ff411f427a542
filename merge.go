package geoblock

import "github.com/pkg/errors"

// MergeRow references an existing data block by its bounding range and
// address.
type MergeRow struct {
	Range Range
	Addr  uint64
}

// DataMerge rewrites the live rows of several data blocks into a single new
// block. It performs no policy: callers decide which blocks to merge.
type DataMerge struct {
	h *Handle
}

// NewDataMerge returns a merger operating on the store behind h.
func NewDataMerge(h *Handle) *DataMerge {
	return &DataMerge{h: h}
}

// Batch merges the blocks referenced by rows and returns the address of the
// resulting block. A single row is passed through unchanged.
func (m *DataMerge) Batch(rows []MergeRow) (uint64, error) {
	if len(rows) == 1 {
		return rows[0].Addr, nil
	}

	var addr uint64
	err := m.h.Do(func(ds *DataStore) error {
		var combined []Row
		for _, row := range rows {
			records, err := ds.List(row.Addr)
			if err != nil {
				return err
			}
			for _, rec := range records {
				combined = append(combined, Row{Point: rec.Point, Value: rec.Value})
			}
		}

		if limit := ds.MaxDataSize(); len(combined) > limit {
			return errors.Wrapf(ErrCapacity, "%d merged rows from %d blocks exceed the limit of %d", len(combined), len(rows), limit)
		}

		var err error
		if addr, err = ds.Batch(combined); err != nil {
			return err
		}
		ds.o.Logger.Debug("blocks merged", "blocks", len(rows), "rows", len(combined), "offset", addr)
		return nil
	})
	return addr, err
}
