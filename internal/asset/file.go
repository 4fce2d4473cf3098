package asset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// Serialization errors.
var (
	ErrSerialize     = errors.New("asset serialization failed")
	ErrInvalidHeader = errors.New("invalid asset header")
)

// Encode returns the header record followed by the payload record.
func Encode(a *Asset) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(&Header{Magic: Magic, Version: Version}); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrSerialize, err)
	}
	if err := enc.Encode(a); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrSerialize, err)
	}
	return buf.Bytes(), nil
}

// Decode reads a header and payload from r.
func Decode(r io.Reader) (*Header, *Asset, error) {
	dec := msgpack.NewDecoder(r)

	var h Header
	if err := dec.Decode(&h); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if h.Magic != Magic {
		return nil, nil, fmt.Errorf("%w: magic %q", ErrInvalidHeader, h.Magic[:])
	}
	if h.Version != Version {
		return nil, nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidHeader, h.Version)
	}

	var a Asset
	if err := dec.Decode(&a); err != nil {
		return nil, nil, fmt.Errorf("decoding asset payload: %w", err)
	}
	return &h, &a, nil
}

// WriteFile encodes the asset in memory, removes any existing file at path
// and writes the result in one pass.
func WriteFile(path string, a *Asset) error {
	data, err := Encode(a)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: removing %s: %v", ErrSerialize, path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	return nil
}

// Read decodes an asset file.
func Read(path string) (*Header, *Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading asset: %w", err)
	}
	return Decode(bytes.NewReader(data))
}
