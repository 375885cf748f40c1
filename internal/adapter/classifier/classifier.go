// Package classifier assigns wrapper roles to declared parameters from their
// naming convention.
package classifier

import (
	"strings"
	"unicode"

	"talibgen/internal/domain"
)

// Bookkeeping outputs every declaration carries. The wrapper synthesizes
// its own locals for them.
const (
	BeginIndexParam   = "outBegIdx"
	ElementCountParam = "outNBElement"
)

var inputPrefixes = []string{"optIn", "in"}

const outputPrefix = "out"

// Partition returns every parameter with its role, in declaration order.
func Partition(params []domain.Parameter) []domain.ClassifiedParameter {
	out := make([]domain.ClassifiedParameter, 0, len(params))
	for _, p := range params {
		out = append(out, classify(p))
	}
	return out
}

// Classify splits params into inputs and outputs. Ignored parameters appear
// in neither list.
func Classify(params []domain.Parameter) (inputs, outputs []domain.ClassifiedParameter) {
	for _, c := range Partition(params) {
		switch c.Role {
		case domain.RoleInput:
			inputs = append(inputs, c)
		case domain.RoleOutput:
			outputs = append(outputs, c)
		}
	}
	return inputs, outputs
}

// IsBookkeeping reports whether name is one of the fixed bookkeeping outputs.
func IsBookkeeping(name string) bool {
	return name == BeginIndexParam || name == ElementCountParam
}

func classify(p domain.Parameter) domain.ClassifiedParameter {
	for _, prefix := range inputPrefixes {
		if rest, ok := strings.CutPrefix(p.Name, prefix); ok {
			return domain.ClassifiedParameter{Parameter: p, Role: domain.RoleInput, Name: SnakeCase(rest)}
		}
	}
	if rest, ok := strings.CutPrefix(p.Name, outputPrefix); ok && !IsBookkeeping(p.Name) {
		return domain.ClassifiedParameter{Parameter: p, Role: domain.RoleOutput, Name: SnakeCase(rest)}
	}
	return domain.ClassifiedParameter{Parameter: p, Role: domain.RoleIgnored, Name: SnakeCase(p.Name)}
}

// SnakeCase lower-cases name, starting a new word at each run of capitals:
// "TimePeriod" -> "time_period", "FastMAType" -> "fast_matype".
func SnakeCase(name string) string {
	var b strings.Builder
	prevUpper := false
	for _, r := range name {
		upper := unicode.IsUpper(r)
		if upper && !prevUpper && b.Len() > 0 && !strings.HasSuffix(b.String(), "_") {
			b.WriteByte('_')
		}
		if r == '_' && (b.Len() == 0 || strings.HasSuffix(b.String(), "_")) {
			prevUpper = false
			continue
		}
		b.WriteRune(unicode.ToLower(r))
		prevUpper = upper
	}
	return b.String()
}
