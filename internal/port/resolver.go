package port

import "talibgen/internal/domain"

// TypeResolver maps a classified parameter onto its host-language type.
type TypeResolver interface {
	// Resolve returns a *domain.TypeResolutionError for any raw type outside
	// the fixed type tables.
	Resolve(function string, p domain.ClassifiedParameter) (domain.ResolvedParameter, error)
}
