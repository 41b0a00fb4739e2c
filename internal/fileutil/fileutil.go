// Package fileutil holds the file copy and formatting helpers shared by the
// artifact store.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// CopyFileVerified copies src to dst and verifies the copy by re-reading dst
// and comparing SHA-256 digests. A failed verification removes dst so a
// partial or corrupted artifact never looks like a finished one.
func CopyFileVerified(src, dst string) error {
	srcSum, written, err := copyHashed(src, dst)
	if err != nil {
		return err
	}

	dstSum, size, err := hashFile(dst)
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("verify copy: %w", err)
	}
	if size != written || !bytes.Equal(srcSum, dstSum) {
		_ = os.Remove(dst)
		return fmt.Errorf("copy of %s failed verification", src)
	}
	return nil
}

func copyHashed(src, dst string) ([]byte, int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return nil, 0, err
	}

	hasher := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, hasher))
	if err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return nil, 0, err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return nil, 0, err
	}
	return hasher.Sum(nil), written, nil
}

func hashFile(path string) ([]byte, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	hasher := sha256.New()
	size, err := io.Copy(hasher, file)
	if err != nil {
		return nil, 0, err
	}
	return hasher.Sum(nil), size, nil
}

// HumanSize renders a byte count with a binary unit suffix, one decimal place.
func HumanSize(size int64) string {
	value := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if value < 1024.0 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024.0
	}
	return fmt.Sprintf("%.1f TB", value)
}
