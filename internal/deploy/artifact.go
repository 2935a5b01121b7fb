package deploy

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ArtifactHash carries both encodings of a bundle's sha256: hex for S3
// metadata comparison, base64 to match Lambda's CodeSha256 form.
type ArtifactHash struct {
	Hex    string
	Base64 string
}

// ResolveArtifact expands the glob patterns in order and returns the newest
// matching file by modification time.
func ResolveArtifact(globs []string) (string, error) {
	var newest string
	var newestMod int64

	for _, pattern := range globs {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return "", fmt.Errorf("bad artifact glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
				newest = m
				newestMod = mod
			}
		}
	}

	if newest == "" {
		return "", fmt.Errorf("no artifact matches %s", strings.Join(globs, ", "))
	}
	return newest, nil
}

// HashArtifact computes the sha256 of a file.
func HashArtifact(path string) (*ArtifactHash, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hash artifact: %w", err)
	}

	sum := h.Sum(nil)
	return &ArtifactHash{
		Hex:    hex.EncodeToString(sum),
		Base64: base64.StdEncoding.EncodeToString(sum),
	}, nil
}
