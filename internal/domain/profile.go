package domain

import (
	"errors"
	"fmt"
)

// Profile bundles everything the bridge knows about the plugin it drives.
type Profile struct {
	Identity IdentityPattern
	Modules  ModuleLayout
	Remap    IndexRemap
	Rules    []ValidationRule
	Probes   ProbeConfig
}

func DefaultProfile() Profile {
	return Profile{
		Identity: DefaultIdentityPattern(),
		Modules:  DefaultModuleLayout(),
		Remap:    IndexRemap{},
		Rules:    DefaultValidationRules(),
		Probes:   DefaultProbeConfig(),
	}
}

func (p Profile) Validate() error {
	var errs []error
	if err := p.Identity.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("identity: %w", err))
	}
	if err := p.Modules.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("modules: %w", err))
	}
	if err := p.Remap.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("remap: %w", err))
	}
	for _, rule := range p.Rules {
		if err := rule.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("rules: %w", err))
		}
	}

	return errors.Join(errs...)
}
