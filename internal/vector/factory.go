package vector

import "fmt"

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeMemory uses in-memory brute-force search. Good for single documents.
	IndexTypeMemory IndexType = "memory"
	// IndexTypeChromem stores vectors in an in-memory chromem-go collection.
	IndexTypeChromem IndexType = "chromem"
)

// NewBuilder returns the builder for the given index type.
// Supported types: "memory" (default), "chromem".
func NewBuilder(indexType string) (Builder, error) {
	switch IndexType(indexType) {
	case IndexTypeMemory, "":
		return NewMemoryBuilder(), nil
	case IndexTypeChromem:
		return NewChromemBuilder(), nil
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, chromem)", indexType)
	}
}
