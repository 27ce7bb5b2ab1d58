package dataset

import (
	"fmt"
	"os"
)

// ECCExtractor writes one <i>.qasm file per representative circuit of an
// equivalence class set file into outDir.
type ECCExtractor interface {
	Extract(eccFile, outDir string) error
}

// ECCDataset materializes the representatives of an ECC file.
type ECCDataset struct {
	eccFile   string
	dir       string
	extractor ECCExtractor
}

// NewECCDataset creates a dataset unpacking eccFile into dir.
func NewECCDataset(eccFile, dir string, extractor ECCExtractor) *ECCDataset {
	return &ECCDataset{
		eccFile:   eccFile,
		dir:       dir,
		extractor: extractor,
	}
}

func (d *ECCDataset) Dir() string {
	return d.dir
}

// Unpack creates the directory and runs the extractor.
func (d *ECCDataset) Unpack() error {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return fmt.Errorf("failed to create dataset directory: %w", err)
	}
	if err := d.extractor.Extract(d.eccFile, d.dir); err != nil {
		return fmt.Errorf("failed to extract %s: %w", d.eccFile, err)
	}
	return nil
}
