package vector

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// Vector files are encoded with CBOR canonical options so that the same
// collection always serializes to the same bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vector: canonical cbor options rejected: %v", err))
	}
	cborEncMode = em
}

// Marshal encodes a vector file.
func Marshal(f *File) ([]byte, error) {
	data, err := cborEncMode.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("vector: marshal file: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a vector file and checks its wire version.
func Unmarshal(data []byte) (*File, error) {
	var f File
	if err := cbor.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("vector: unmarshal file: %w", err)
	}
	if f.Version != FileVersion {
		return nil, fmt.Errorf("vector: unsupported file version %d", f.Version)
	}
	return &f, nil
}

// Load reads and decodes a vector file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vector: read %s: %w", path, err)
	}
	return Unmarshal(data)
}

// Save encodes a vector file and writes it to disk.
func Save(path string, f *File) error {
	data, err := Marshal(f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("vector: write %s: %w", path, err)
	}
	return nil
}
