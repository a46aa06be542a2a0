package feedsource

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/platinummonkey/fares-validator/pkg/gtfs"
)

// Digest returns a sha256 over the name and content of every known feed
// file present in root, in name order. Identical feeds share a digest
// regardless of where they were resolved from.
func Digest(root string) (string, error) {
	names := append([]string(nil), gtfs.KnownFiles...)
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		path := filepath.Join(root, name)
		if !gtfs.Exists(path) {
			continue
		}

		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s\x00", name)
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("failed to hash %s: %w", name, err)
		}
		h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
