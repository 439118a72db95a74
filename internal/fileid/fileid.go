// Package fileid derives deterministic IDs for analyzed documents and their chunks.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
)

const prefix = "doc:"

// DocumentID returns a stable ID for a document: the same name and bytes always yield the
// same ID. Only the base name is hashed, so uploads of one file from different
// directories share an ID.
func DocumentID(name string, content []byte) string {
	h := sha256.New()
	h.Write([]byte(filepath.Base(filepath.Clean(name))))
	h.Write([]byte{0})
	h.Write(content)
	sum := h.Sum(nil)
	return prefix + hex.EncodeToString(sum[:12])
}

// ChunkID returns the ID of the chunk at seq within document docID.
func ChunkID(docID string, seq int) string {
	return fmt.Sprintf("%s#%d", docID, seq)
}
