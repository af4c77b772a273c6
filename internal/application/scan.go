package application

import (
	"github.com/bnema/tonebridge/internal/domain"
	"github.com/bnema/tonebridge/internal/ports"
	"go.uber.org/zap"
)

// ScanSession runs one full scan with a fresh resolver. It is meant for
// one-shot tooling; the host actor keeps its own resolver cache.
func ScanSession(host ports.Host, profile domain.Profile, logger *zap.Logger) domain.ScanResult {
	if logger == nil {
		logger = zap.NewNop()
	}

	resolver := NewResolver(domain.PatternClassifier{Pattern: profile.Identity}, logger)
	validator := NewValidator(profile.Rules, profile.Probes, logger)

	return fullScan(host, resolver, validator)
}

// fullScan rebuilds the instance list and validates the primary instance.
func fullScan(host ports.Host, resolver *Resolver, validator *Validator) domain.ScanResult {
	result := domain.ScanResult{
		Instances: resolver.Rescan(host),
		Report:    domain.ValidationReport{},
	}

	primary, ok := resolver.Primary()
	if !ok {
		return result
	}
	target, err := resolver.Resolve(host, primary.ID)
	if err != nil {
		return result
	}
	result.Report, result.Formats, result.Enums = validator.Scan(host, target)

	return result
}
