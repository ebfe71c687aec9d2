package frames

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// listFrames returns the frame file names in dir, ascending. Name order
// equals temporal order because frames are zero-padded sequence numbers.
func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frames dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	return names, nil
}

// buildArchive writes a zip at zipPath containing the named files from
// framesDir, in the given order, with bare entry names (no path prefix).
func buildArchive(framesDir, zipPath string, names []string) error {
	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	for _, name := range names {
		src, err := os.Open(filepath.Join(framesDir, name))
		if err != nil {
			return fmt.Errorf("open frame %s: %w", name, err)
		}

		w, err := zw.Create(name)
		if err != nil {
			src.Close()
			return fmt.Errorf("add frame %s: %w", name, err)
		}

		if _, err := io.Copy(w, src); err != nil {
			src.Close()
			return fmt.Errorf("write frame %s: %w", name, err)
		}
		src.Close()
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}

	return nil
}
