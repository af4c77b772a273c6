package domain

type InstanceID string
type ContainerID string

type Confidence string

const (
	ConfidenceHigh Confidence = "high"
	ConfidenceLow  Confidence = "low"
)

// Instance is the logical view of a plugin found during a session scan.
// Position is a hint only and must be verified against the host before use.
type Instance struct {
	ID            InstanceID
	Name          string
	ContainerID   ContainerID
	ContainerName string
	Position      int
	Confidence    Confidence
}

// Location is what the resolver cache remembers about an instance between
// ticks. It never holds host handles.
type Location struct {
	ContainerID ContainerID
	Position    int
	Confidence  Confidence
}

func (i Instance) Location() Location {
	return Location{
		ContainerID: i.ContainerID,
		Position:    i.Position,
		Confidence:  i.Confidence,
	}
}

// Primary picks the first high confidence instance, else the first one.
func Primary(instances []Instance) (Instance, bool) {
	for _, inst := range instances {
		if inst.Confidence == ConfidenceHigh {
			return inst, true
		}
	}
	if len(instances) > 0 {
		return instances[0], true
	}

	return Instance{}, false
}
