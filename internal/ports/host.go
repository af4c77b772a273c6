package ports

// ContainerHandle is the host's handle for a container (a track). It is only
// valid during the tick it was obtained in; the host may invalidate it at any
// time between ticks (undo, reorder, project reload).
type ContainerHandle uintptr

// Host is the non-thread-safe plugin API of the DAW. Every method must be
// called from the host goroutine only.
type Host interface {
	// StateGeneration increases whenever the host session changes.
	StateGeneration() uint64

	ContainerCount() int
	Container(index int) (ContainerHandle, bool)
	ContainerGUID(container ContainerHandle) (string, bool)
	ContainerName(container ContainerHandle) string

	ItemCount(container ContainerHandle) int
	ItemGUID(container ContainerHandle, position int) (string, bool)
	ItemName(container ContainerHandle, position int) string

	ParamCount(container ContainerHandle, position int) (int, bool)
	ParamName(container ContainerHandle, position, index int) (string, bool)
	GetParam(container ContainerHandle, position, index int) (float64, bool)
	SetParam(container ContainerHandle, position, index int, value float64) error
	FormatParamValue(container ContainerHandle, position, index int, value float64) (string, bool)
}
