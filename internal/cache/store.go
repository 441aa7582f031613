package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/blackwell-systems/wpmigrate/internal/util"
)

// Store writes r to the path for filename through a temp file, so an
// interrupted run never leaves a partial image under its final name. When
// expectedSHA256 is set the written file must hash to it. Returns the
// final path.
func (m *Manager) Store(filename string, r io.Reader, expectedSHA256 string) (string, error) {
	if err := m.EnsureDir(); err != nil {
		return "", fmt.Errorf("creating images dir: %w", err)
	}

	destPath := m.Path(filename)
	tmpPath := destPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("writing %s: %w", filename, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	if expectedSHA256 != "" {
		got, err := util.SHA256File(tmpPath)
		if err != nil {
			_ = os.Remove(tmpPath)
			return "", fmt.Errorf("hashing %s: %w", filename, err)
		}
		if got != expectedSHA256 {
			_ = os.Remove(tmpPath)
			return "", fmt.Errorf("%s: written checksum %s does not match %s", filename, got, expectedSHA256)
		}
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return destPath, nil
}

// StoreBytes stores an in-memory payload and checks the file on disk
// hashes the same as data.
func (m *Manager) StoreBytes(filename string, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return m.Store(filename, bytes.NewReader(data), hex.EncodeToString(sum[:]))
}
