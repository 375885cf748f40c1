// Package synth renders wrapper functions and the module index from
// resolved signatures.
package synth

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"talibgen/internal/adapter/resolver"
	"talibgen/internal/domain"
)

//go:embed templates/*
var templates embed.FS

// DefaultCrate is the crate exposing the raw bindings.
const DefaultCrate = "ta_lib_wrapper"

type Options struct {
	Crate  string
	Prefix string
}

// Synthesizer turns resolved signatures into wrapper source.
type Synthesizer struct {
	opts Options
	tmpl *template.Template
}

func New(opts Options) (*Synthesizer, error) {
	if opts.Crate == "" {
		opts.Crate = DefaultCrate
	}
	if opts.Prefix == "" {
		opts.Prefix = "TA_"
	}

	tmpl, err := template.New("RustTemplates").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templates, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Synthesizer{opts: opts, tmpl: tmpl}, nil
}

// ModuleName is the module identifier, and file stem, for a signature.
func ModuleName(sig domain.Signature) string {
	return strings.ToLower(sig.Name)
}

// functionData is data for the "GenerateFunction" template.
type functionData struct {
	Crate     string
	Module    string
	Foreign   string
	Imports   []string
	Container string
	Integer   string
	First     string
	Inputs    []inputData
	Outputs   []outputData
}

type inputData struct {
	Name     string
	HostType string
	Arg      string
}

type outputData struct {
	Local    string
	HostType string
}

// Synthesize renders the wrapper for sig. Every output buffer is sized to
// the first input and has its length fixed up before the function returns.
func (s *Synthesizer) Synthesize(sig domain.Signature, inputs, outputs []domain.ResolvedParameter) (domain.Artifact, error) {
	if err := checkResolved(sig.Name, inputs, outputs); err != nil {
		return domain.Artifact{}, err
	}

	data := functionData{
		Crate:     s.opts.Crate,
		Module:    ModuleName(sig),
		Foreign:   s.opts.Prefix + sig.Name,
		Container: resolver.Container,
		Integer:   resolver.HostInteger,
		First:     inputs[0].Name,
	}
	data.Imports = s.imports(data.Foreign, inputs, outputs)

	for _, in := range inputs {
		arg := in.Name
		if in.IsBuffer {
			arg += ".as_ptr()"
		}
		data.Inputs = append(data.Inputs, inputData{Name: in.Name, HostType: in.HostType, Arg: arg})
	}
	for _, out := range outputs {
		data.Outputs = append(data.Outputs, outputData{Local: "out_" + out.Name, HostType: out.HostType})
	}

	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "GenerateFunction", data); err != nil {
		return domain.Artifact{}, fmt.Errorf("failed to render %s: %w", sig.Name, err)
	}

	return domain.Artifact{
		Module:   data.Module,
		Function: data.Foreign,
		Source:   buf.String(),
	}, nil
}

// Manifest renders the module index, one module per line, in the order given.
func (s *Synthesizer) Manifest(modules []string) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "GenerateManifest", modules); err != nil {
		return "", fmt.Errorf("failed to render manifest: %w", err)
	}
	return buf.String(), nil
}

// imports lists the crate items the wrapper references, in a fixed order.
func (s *Synthesizer) imports(foreign string, inputs, outputs []domain.ResolvedParameter) []string {
	usesReal, usesMAType := false, false
	for _, p := range append(append([]domain.ResolvedParameter{}, inputs...), outputs...) {
		if p.ElemType == resolver.HostReal {
			usesReal = true
		}
		if p.HostType == resolver.HostMAType {
			usesMAType = true
		}
	}

	imports := []string{resolver.HostInteger}
	if usesReal {
		imports = append(imports, resolver.HostReal)
	}
	imports = append(imports, foreign)
	if usesMAType {
		imports = append(imports, resolver.HostMAType)
	}
	return append(imports, "TA_RetCode")
}
