package synth

import (
	"fmt"

	"talibgen/internal/adapter/classifier"
	"talibgen/internal/domain"
)

// Declaration layout phases, in the order the foreign call expects them.
const (
	phaseBounds = iota
	phaseInputs
	phaseBookkeeping
	phaseOutputs
)

// Validate checks that a classified declaration has the layout the wrapper
// call replays: optional index bounds, the inputs, outBegIdx and
// outNBElement, then the outputs.
func Validate(sig domain.Signature, parts []domain.ClassifiedParameter) error {
	shape := func(format string, args ...any) error {
		return &domain.ShapeError{Function: sig.Name, Reason: fmt.Sprintf(format, args...)}
	}

	phase := phaseBounds
	var bounds, inputs, outputs, bookkeeping int
	// The wrapper declares these locals itself.
	seen := map[string]string{
		"out_begin": classifier.BeginIndexParam,
		"out_size":  classifier.ElementCountParam,
	}

	for _, c := range parts {
		name := c.Parameter.Name
		switch {
		case name == classifier.BeginIndexParam:
			if phase > phaseInputs {
				return shape("%s is out of place", name)
			}
			phase = phaseBookkeeping
			bookkeeping++

		case name == classifier.ElementCountParam:
			if phase != phaseBookkeeping || bookkeeping != 1 {
				return shape("%s must directly follow %s", name, classifier.BeginIndexParam)
			}
			bookkeeping++

		case c.Role == domain.RoleIgnored:
			if phase != phaseBounds {
				return shape("unrecognised parameter %s after the index bounds", name)
			}
			bounds++

		case c.Role == domain.RoleInput:
			if phase > phaseInputs {
				return shape("input %s follows the bookkeeping outputs", name)
			}
			phase = phaseInputs
			inputs++
			if c.Name == "" {
				return shape("input %s has an empty name", name)
			}
			if prev, dup := seen[c.Name]; dup {
				return shape("inputs %s and %s both map to %q", prev, name, c.Name)
			}
			seen[c.Name] = name

		case c.Role == domain.RoleOutput:
			if bookkeeping != 2 {
				return shape("output %s precedes the bookkeeping outputs", name)
			}
			phase = phaseOutputs
			outputs++
			if c.Name == "" {
				return shape("output %s has an empty name", name)
			}
			key := "out_" + c.Name
			if prev, dup := seen[key]; dup {
				return shape("%s and %s both map to local %q", prev, name, key)
			}
			seen[key] = name
		}
	}

	// The call always passes exactly two leading bounds, or none are declared.
	if bounds != 0 && bounds != 2 {
		return shape("expected 0 or 2 leading index bounds, got %d", bounds)
	}
	if inputs == 0 {
		return &domain.ShapeError{Function: sig.Name, Reason: "no input parameters", Err: domain.ErrNoInputs}
	}
	if bookkeeping != 2 {
		return shape("expected %s and %s", classifier.BeginIndexParam, classifier.ElementCountParam)
	}
	if outputs == 0 {
		return shape("no output parameters")
	}
	return nil
}

// checkResolved enforces the buffer rules that need resolved types: outputs
// are sized against the first input, so it must be a buffer.
func checkResolved(fn string, inputs, outputs []domain.ResolvedParameter) error {
	if len(inputs) == 0 {
		return &domain.ShapeError{Function: fn, Reason: "no input parameters", Err: domain.ErrNoInputs}
	}
	if !inputs[0].IsBuffer {
		return &domain.ShapeError{Function: fn, Reason: fmt.Sprintf("first input %s is not a buffer", inputs[0].Name)}
	}
	if len(outputs) == 0 {
		return &domain.ShapeError{Function: fn, Reason: "no output parameters"}
	}
	for _, o := range outputs {
		if !o.IsBuffer {
			return &domain.ShapeError{Function: fn, Reason: fmt.Sprintf("output %s is not a buffer", o.Name)}
		}
	}
	return nil
}
