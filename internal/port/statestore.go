package port

import "talibgen/internal/domain"

// StateStore remembers what the previous generation run wrote.
type StateStore interface {
	ListArtifacts() ([]domain.ArtifactRecord, error)

	GetArtifact(module string) (domain.ArtifactRecord, bool, error)

	// ReplaceArtifacts swaps the recorded set for records in one transaction.
	ReplaceArtifacts(records []domain.ArtifactRecord) error

	Close() error
}
