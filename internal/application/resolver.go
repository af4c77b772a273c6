package application

import (
	"fmt"

	"github.com/bnema/tonebridge/internal/domain"
	"github.com/bnema/tonebridge/internal/ports"
	"go.uber.org/zap"
)

// Target is a resolved, verified plugin instance. The container handle is
// only valid for the tick in which the target was resolved.
type Target struct {
	ID        domain.InstanceID
	Container ports.ContainerHandle
	Position  int
	Location  domain.Location
}

// Resolver maps instance ids to their current position in the host session.
// It is owned by the host actor and must not be shared.
type Resolver struct {
	classifier ports.IdentityClassifier
	cache      map[domain.InstanceID]domain.Location
	instances  []domain.Instance
	logger     *zap.Logger
}

func NewResolver(classifier ports.IdentityClassifier, logger *zap.Logger) *Resolver {
	if classifier == nil {
		classifier = domain.PatternClassifier{Pattern: domain.DefaultIdentityPattern()}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{
		classifier: classifier,
		cache:      map[domain.InstanceID]domain.Location{},
		logger:     logger,
	}
}

// Rescan walks every container and item and rebuilds the cache from scratch.
func (r *Resolver) Rescan(host ports.Host) []domain.Instance {
	cache := map[domain.InstanceID]domain.Location{}
	var found []domain.Instance

	for ci := 0; ci < host.ContainerCount(); ci++ {
		container, ok := host.Container(ci)
		if !ok {
			continue
		}
		containerGUID, ok := host.ContainerGUID(container)
		if !ok {
			continue
		}
		containerName := host.ContainerName(container)

		for pos := 0; pos < host.ItemCount(container); pos++ {
			guid, ok := host.ItemGUID(container, pos)
			if !ok {
				continue
			}
			name := host.ItemName(container, pos)
			confidence, match := r.classifier.Classify(name)
			if !match {
				continue
			}
			inst := domain.Instance{
				ID:            domain.InstanceID(guid),
				Name:          name,
				ContainerID:   domain.ContainerID(containerGUID),
				ContainerName: containerName,
				Position:      pos,
				Confidence:    confidence,
			}
			cache[inst.ID] = inst.Location()
			found = append(found, inst)
		}
	}

	r.cache = cache
	r.instances = found
	r.logger.Debug("rescanned session", zap.Int("instances", len(found)))

	return found
}

// Resolve returns the verified location of id. A cached position that no
// longer holds id triggers one full rescan before giving up.
func (r *Resolver) Resolve(host ports.Host, id domain.InstanceID) (Target, error) {
	if loc, ok := r.cache[id]; ok {
		if target, ok := r.verify(host, id, loc); ok {
			return target, nil
		}
		r.logger.Debug("cached location is stale", zap.String("instance", string(id)))
	}

	return r.ResolveFresh(host, id)
}

// ResolveFresh skips the cache: it rescans and then verifies.
func (r *Resolver) ResolveFresh(host ports.Host, id domain.InstanceID) (Target, error) {
	r.Rescan(host)
	if loc, ok := r.cache[id]; ok {
		if target, ok := r.verify(host, id, loc); ok {
			return target, nil
		}
	}

	return Target{}, fmt.Errorf("resolve %s: %w", id, domain.ErrTargetNotFound)
}

func (r *Resolver) verify(host ports.Host, id domain.InstanceID, loc domain.Location) (Target, bool) {
	container, ok := r.findContainer(host, loc.ContainerID)
	if !ok {
		return Target{}, false
	}
	guid, ok := host.ItemGUID(container, loc.Position)
	if !ok || domain.InstanceID(guid) != id {
		return Target{}, false
	}

	return Target{ID: id, Container: container, Position: loc.Position, Location: loc}, true
}

func (r *Resolver) findContainer(host ports.Host, id domain.ContainerID) (ports.ContainerHandle, bool) {
	for ci := 0; ci < host.ContainerCount(); ci++ {
		container, ok := host.Container(ci)
		if !ok {
			continue
		}
		guid, ok := host.ContainerGUID(container)
		if ok && domain.ContainerID(guid) == id {
			return container, true
		}
	}

	return 0, false
}

// Instances returns the instances found by the last rescan.
func (r *Resolver) Instances() []domain.Instance {
	out := make([]domain.Instance, len(r.instances))
	copy(out, r.instances)

	return out
}

// Primary picks the instance the validator inspects.
func (r *Resolver) Primary() (domain.Instance, bool) {
	return domain.Primary(r.instances)
}
