package ports

import "github.com/bnema/tonebridge/internal/domain"

// IdentityClassifier decides whether a plugin display name is the plugin the
// bridge drives, and how confident that match is.
type IdentityClassifier interface {
	Classify(name string) (domain.Confidence, bool)
}

var _ IdentityClassifier = domain.PatternClassifier{}
