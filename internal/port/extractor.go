package port

import "talibgen/internal/domain"

// Extractor turns declaration text into parsed signatures.
type Extractor interface {
	Extract(text string) ([]domain.Signature, error)
}
