package application

import (
	"errors"
	"fmt"
	"math"

	"github.com/bnema/tonebridge/internal/domain"
	"github.com/bnema/tonebridge/internal/ports"
	"go.uber.org/zap"
)

// FallbackParamBound caps indices when the host cannot report a parameter
// count.
const FallbackParamBound = 4096

// ApplyResult is what one batch did to the host.
type ApplyResult struct {
	Applied  []domain.AppliedParam
	Rejected int
	Injected int
	// Lost is set when the target disappeared part way through the batch.
	Lost bool
}

// plannedWrite is a sanitized host write and the client entry it came from.
// Injected bypass writes are their own source.
type plannedWrite struct {
	domain.ParamChange
	source domain.ParamChange
}

// ApplyEngine turns a set_tone batch into host writes.
type ApplyEngine struct {
	modules  domain.ModuleLayout
	remap    ports.RemapSource
	resolver *Resolver
	logger   *zap.Logger
}

func NewApplyEngine(modules domain.ModuleLayout, remap ports.RemapSource, resolver *Resolver, logger *zap.Logger) *ApplyEngine {
	if remap == nil {
		remap = ports.StaticRemap{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ApplyEngine{modules: modules, remap: remap, resolver: resolver, logger: logger}
}

// Apply writes batch to target. Entries are remapped, sanitized and deduped;
// in replace_active mode untouched modules are bypassed first. Every written
// index is read back.
func (e *ApplyEngine) Apply(host ports.Host, target Target, mode domain.MergeMode, batch []domain.ParamChange) (ApplyResult, error) {
	var result ApplyResult

	bound, ok := host.ParamCount(target.Container, target.Position)
	if !ok || bound <= 0 {
		bound = FallbackParamBound
	}

	changes, rejected := e.sanitize(batch, bound)
	result.Rejected = rejected
	if len(batch) > 0 && len(changes) == 0 {
		return result, fmt.Errorf("all %d params rejected: %w", len(batch), domain.ErrSanitizationRejected)
	}

	writes := changes
	if mode == domain.MergeModeReplaceActive {
		injections := e.bypassInjections(changes, bound)
		result.Injected = len(injections)
		writes = append(injections, changes...)
	}

	written := make([]plannedWrite, 0, len(writes))
	retried := false
	var writeErr error
	for i := 0; i < len(writes); i++ {
		w := writes[i]
		err := host.SetParam(target.Container, target.Position, w.Index, w.Value)
		if err == nil {
			written = append(written, w)
			continue
		}
		if retried {
			writeErr = err
			break
		}
		retried = true
		e.logger.Debug("write failed, re-resolving target",
			zap.String("instance", string(target.ID)),
			zap.Int("index", w.Index),
			zap.Error(err),
		)
		fresh, rerr := e.resolver.ResolveFresh(host, target.ID)
		if rerr != nil {
			result.Lost = true
			writeErr = rerr
			break
		}
		target = fresh
		i--
	}

	result.Applied = e.readback(host, target, written)

	if writeErr != nil && len(written) == 0 {
		if result.Lost {
			return result, writeErr
		}
		return result, fmt.Errorf("apply to %s: %w", target.ID, errors.Join(domain.ErrHostUnavailable, writeErr))
	}
	if writeErr != nil {
		e.logger.Warn("batch partially applied",
			zap.String("instance", string(target.ID)),
			zap.Int("applied", len(written)),
			zap.Int("requested", len(writes)),
			zap.Error(writeErr),
		)
	}

	return result, nil
}

// sanitize remaps first, then drops non-finite values and out of range
// indices, clamps to [0,1] and keeps the last write per index in the order
// of last occurrence.
func (e *ApplyEngine) sanitize(batch []domain.ParamChange, bound int) ([]plannedWrite, int) {
	remap := e.remap.IndexRemap()

	kept := make([]plannedWrite, 0, len(batch))
	rejected := 0
	for _, c := range batch {
		idx := remap.Resolve(c.Index)
		if math.IsNaN(c.Value) || math.IsInf(c.Value, 0) || idx < 0 || idx >= bound {
			rejected++
			continue
		}
		kept = append(kept, plannedWrite{
			ParamChange: domain.ParamChange{Index: idx, Value: math.Min(math.Max(c.Value, 0), 1)},
			source:      c,
		})
	}

	last := make(map[int]int, len(kept))
	for i, c := range kept {
		last[c.Index] = i
	}
	out := make([]plannedWrite, 0, len(last))
	for i, c := range kept {
		if last[c.Index] == i {
			out = append(out, c)
		}
	}

	return out, rejected
}

func (e *ApplyEngine) bypassInjections(changes []plannedWrite, bound int) []plannedWrite {
	explicit := make(map[int]struct{}, len(changes))
	for _, c := range changes {
		explicit[c.Index] = struct{}{}
	}

	var out []plannedWrite
	for _, module := range e.modules {
		touched := false
		for _, c := range changes {
			if module.Touches(c.Index) {
				touched = true
				break
			}
		}
		if touched {
			continue
		}
		for _, idx := range module.Bypass {
			if _, ok := explicit[idx]; ok || idx >= bound {
				continue
			}
			explicit[idx] = struct{}{}
			bypass := domain.ParamChange{Index: idx, Value: module.DisabledValue}
			out = append(out, plannedWrite{ParamChange: bypass, source: bypass})
		}
	}

	return out
}

// readback reports each write against the index and value the client sent.
func (e *ApplyEngine) readback(host ports.Host, target Target, written []plannedWrite) []domain.AppliedParam {
	out := make([]domain.AppliedParam, 0, len(written))
	for _, w := range written {
		applied, ok := host.GetParam(target.Container, target.Position, w.Index)
		if !ok {
			applied = w.Value
		}
		formatted, _ := host.FormatParamValue(target.Container, target.Position, w.Index, applied)
		out = append(out, domain.AppliedParam{
			Index:     w.source.Index,
			HostIndex: w.Index,
			Requested: w.source.Value,
			Applied:   applied,
			Formatted: formatted,
		})
	}

	return out
}
