package ports

import "github.com/bnema/tonebridge/internal/domain"

// RemapSource supplies the current logical to actual parameter index table.
// Implementations must return without blocking: it is read on the host
// goroutine before every write.
type RemapSource interface {
	IndexRemap() domain.IndexRemap
}

// StaticRemap is a fixed table.
type StaticRemap domain.IndexRemap

func (r StaticRemap) IndexRemap() domain.IndexRemap {
	return domain.IndexRemap(r)
}
