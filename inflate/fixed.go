package inflate

import (
	"sync"
)

var (
	fixedOnce  sync.Once
	fixedLit   *HuffmanTable
	fixedDist  *HuffmanTable
	fixedError error
)

// fixedTables returns the fixed block tables. They are immutable once built
// and shared by every session.
func fixedTables() (*HuffmanTable, *HuffmanTable, error) {
	fixedOnce.Do(func() {
		fixedLit, fixedError = NewHuffmanTable(fixedLitLengths())
		if fixedError != nil {
			return
		}

		fixedDist, fixedError = NewHuffmanTable(fixedDistLengths())
	})

	return fixedLit, fixedDist, fixedError
}

func (d *Decompressor) fixedBlock() error {
	lit, dist, err := fixedTables()
	if err != nil {
		return err
	}

	return d.decodeBlock(lit, dist)
}
