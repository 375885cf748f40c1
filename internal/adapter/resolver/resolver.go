// Package resolver maps raw foreign types onto host-language types.
package resolver

import (
	"strings"

	"talibgen/internal/domain"
)

// Container is the host collection type used for every buffer parameter.
const Container = "Vec"

type Resolver struct{}

func New() *Resolver {
	return &Resolver{}
}

// Resolve maps p onto its host type. Inputs borrow their buffer, outputs
// own it.
func (r *Resolver) Resolve(function string, p domain.ClassifiedParameter) (domain.ResolvedParameter, error) {
	raw := p.Parameter.RawType
	res := domain.ResolvedParameter{
		Name:    p.Name,
		Role:    p.Role,
		RawType: raw,
	}

	pointee, isPointer := strings.CutPrefix(raw, "*")
	if !isPointer {
		host, ok := lookupScalar(raw)
		if !ok {
			return domain.ResolvedParameter{}, unknown(function, p)
		}
		res.HostType = host
		return res, nil
	}

	elem, ok := lookupElement(ElementTag(pointee))
	if !ok {
		return domain.ResolvedParameter{}, unknown(function, p)
	}
	res.IsBuffer = true
	res.ElemType = elem
	res.HostType = Container + "<" + elem + ">"
	if p.Role != domain.RoleOutput {
		res.HostType = "&" + res.HostType
	}
	return res, nil
}

// ElementTag returns the type tag embedded in a pointee type: the last path
// segment after any const/mut qualifier. Nested pointers yield no tag.
func ElementTag(pointee string) string {
	pointee = strings.TrimSpace(pointee)
	for _, q := range []string{"const ", "mut "} {
		if rest, ok := strings.CutPrefix(pointee, q); ok {
			pointee = strings.TrimSpace(rest)
			break
		}
	}
	if strings.HasPrefix(pointee, "*") {
		return ""
	}
	if i := strings.LastIndex(pointee, "::"); i >= 0 {
		return pointee[i+2:]
	}
	return pointee
}

func unknown(function string, p domain.ClassifiedParameter) error {
	return &domain.TypeResolutionError{
		Function: function,
		Param:    p.Parameter.Name,
		RawType:  p.Parameter.RawType,
	}
}
