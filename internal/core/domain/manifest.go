package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Manifest maps document path to its last-synced content hash.
// It is the single source of truth for change detection: read at the
// start of a sync, replaced atomically at the end of a successful one.
type Manifest map[string]string

// Fingerprint derives a stable digest of the whole manifest. Two
// manifests with the same entries produce the same fingerprint
// regardless of map iteration order.
func (m Manifest) Fingerprint() string {
	paths := make([]string, 0, len(m))
	for path := range m {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var b strings.Builder
	for _, path := range paths {
		b.WriteString(path)
		b.WriteByte('\x00')
		b.WriteString(m[path])
		b.WriteByte('\x00')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Clone returns a copy of the manifest.
func (m Manifest) Clone() Manifest {
	out := make(Manifest, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
