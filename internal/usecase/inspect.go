package usecase

import "talibgen/internal/domain"

// SignatureReport is the classified and resolved view of one declaration.
// Err is set when the declaration cannot be generated.
type SignatureReport struct {
	Signature  domain.Signature
	Parameters []domain.ClassifiedParameter
	Inputs     []domain.ResolvedParameter
	Outputs    []domain.ResolvedParameter
	Artifact   domain.Artifact
	Err        error
}

// Inspect runs everything up to synthesis without writing. Per-declaration
// failures are reported rather than returned; only extraction fails the call.
func (u *GenerateUseCase) Inspect(text string) ([]SignatureReport, error) {
	sigs, err := u.extractor.Extract(text)
	if err != nil {
		return nil, err
	}

	reports := make([]SignatureReport, 0, len(sigs))
	for _, sig := range sigs {
		b, err := u.build(sig)
		reports = append(reports, SignatureReport{
			Signature:  sig,
			Parameters: b.Parameters,
			Inputs:     b.Inputs,
			Outputs:    b.Outputs,
			Artifact:   b.Artifact,
			Err:        err,
		})
	}
	return reports, nil
}
