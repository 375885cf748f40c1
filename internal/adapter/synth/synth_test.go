package synth

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"talibgen/internal/adapter/classifier"
	"talibgen/internal/adapter/resolver"
	"talibgen/internal/domain"
)

const smaGolden = `// Code generated by talibgen. DO NOT EDIT.

use ta_lib_wrapper::{TA_Integer, TA_Real, TA_SMA, TA_RetCode};

pub fn sma(real: &Vec<TA_Real>, time_period: i32) -> (Vec<TA_Real>, TA_Integer) {
    let mut out_real: Vec<TA_Real> = Vec::with_capacity(real.len());
    let mut out_begin: TA_Integer = 0;
    let mut out_size: TA_Integer = 0;

    unsafe {
        let ret_code = TA_SMA(
            0,
            real.len() as i32 - 1,
            real.as_ptr(),
            time_period,
            &mut out_begin,
            &mut out_size,
            out_real.as_mut_ptr(),
        );
        match ret_code {
            TA_RetCode::TA_SUCCESS => {
                out_real.set_len(out_size as usize);
            }
            _ => panic!("Could not compute TA_SMA, err: {:?}", ret_code),
        }
    }

    (out_real, out_begin)
}
`

func signature(name string, params ...string) domain.Signature {
	sig := domain.Signature{Name: name}
	for i := 0; i+1 < len(params); i += 2 {
		sig.Parameters = append(sig.Parameters, domain.Parameter{Name: params[i], RawType: params[i+1]})
	}
	return sig
}

// build runs classification, validation and resolution the way the
// pipeline does.
func build(t *testing.T, sig domain.Signature) ([]domain.ResolvedParameter, []domain.ResolvedParameter) {
	t.Helper()
	if err := Validate(sig, classifier.Partition(sig.Parameters)); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	r := resolver.New()
	ins, outs := classifier.Classify(sig.Parameters)
	var resIn, resOut []domain.ResolvedParameter
	for _, p := range ins {
		rp, err := r.Resolve(sig.Name, p)
		if err != nil {
			t.Fatal(err)
		}
		resIn = append(resIn, rp)
	}
	for _, p := range outs {
		rp, err := r.Resolve(sig.Name, p)
		if err != nil {
			t.Fatal(err)
		}
		resOut = append(resOut, rp)
	}
	return resIn, resOut
}

func newSynth(t *testing.T) *Synthesizer {
	t.Helper()
	s, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSynthesize_SMA(t *testing.T) {
	sig := signature("SMA",
		"startIdx", "::std::os::raw::c_int",
		"endIdx", "::std::os::raw::c_int",
		"inReal", "*const f64",
		"optInTimePeriod", "::std::os::raw::c_int",
		"outBegIdx", "*mut ::std::os::raw::c_int",
		"outNBElement", "*mut ::std::os::raw::c_int",
		"outReal", "*mut f64",
	)
	in, out := build(t, sig)

	art, err := newSynth(t).Synthesize(sig, in, out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if art.Module != "sma" || art.Function != "TA_SMA" {
		t.Errorf("unexpected artifact identity: %+v", art)
	}
	if diff := cmp.Diff(smaGolden, art.Source); diff != "" {
		t.Errorf("Synthesize() mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesize_SpecStyleDeclaration(t *testing.T) {
	sig := signature("SMA",
		"inReal", "*f64",
		"optInTimePeriod", "::std::os::raw::c_int",
		"outBegIdx", "::std::os::raw::c_int",
		"outNBElement", "::std::os::raw::c_int",
		"outReal", "*f64",
	)
	in, out := build(t, sig)

	art, err := newSynth(t).Synthesize(sig, in, out)
	if err != nil {
		t.Fatal(err)
	}
	want := "pub fn sma(real: &Vec<TA_Real>, time_period: i32) -> (Vec<TA_Real>, TA_Integer)"
	if !strings.Contains(art.Source, want) {
		t.Errorf("expected signature %q in:\n%s", want, art.Source)
	}
}

func TestSynthesize_MultipleOutputs(t *testing.T) {
	sig := signature("MACDEXT",
		"startIdx", "::std::os::raw::c_int",
		"endIdx", "::std::os::raw::c_int",
		"inReal", "*const f64",
		"optInFastPeriod", "::std::os::raw::c_int",
		"optInFastMAType", "TA_MAType",
		"outBegIdx", "*mut ::std::os::raw::c_int",
		"outNBElement", "*mut ::std::os::raw::c_int",
		"outMACD", "*mut f64",
		"outMACDSignal", "*mut f64",
		"outMACDHist", "*mut f64",
	)
	in, out := build(t, sig)

	art, err := newSynth(t).Synthesize(sig, in, out)
	if err != nil {
		t.Fatal(err)
	}
	src := art.Source

	for _, want := range []string{
		"use ta_lib_wrapper::{TA_Integer, TA_Real, TA_MACDEXT, TA_MAType, TA_RetCode};",
		"pub fn macdext(real: &Vec<TA_Real>, fast_period: i32, fast_matype: TA_MAType) -> (Vec<TA_Real>, Vec<TA_Real>, Vec<TA_Real>, TA_Integer)",
		"let mut out_macd: Vec<TA_Real> = Vec::with_capacity(real.len());",
		"let mut out_macdsignal: Vec<TA_Real> = Vec::with_capacity(real.len());",
		"let mut out_macdhist: Vec<TA_Real> = Vec::with_capacity(real.len());",
		"(out_macd, out_macdsignal, out_macdhist, out_begin)",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("expected %q in:\n%s", want, src)
		}
	}

	returnAt := strings.LastIndex(src, "(out_macd, out_macdsignal")
	for _, local := range []string{"out_macd", "out_macdsignal", "out_macdhist"} {
		fix := strings.Index(src, local+".set_len(out_size as usize);")
		if fix < 0 || fix > returnAt {
			t.Errorf("length fix-up for %s missing or after return", local)
		}
	}

	// outputs follow the bookkeeping pointers in declaration order
	order := []string{"&mut out_begin", "&mut out_size", "out_macd.as_mut_ptr()", "out_macdsignal.as_mut_ptr()", "out_macdhist.as_mut_ptr()"}
	last := -1
	for _, arg := range order {
		at := strings.Index(src, arg)
		if at <= last {
			t.Errorf("argument %s out of order", arg)
		}
		last = at
	}
}

func TestSynthesize_IntegerOutput(t *testing.T) {
	sig := signature("CDLDOJI",
		"inOpen", "*const f64",
		"inClose", "*const f64",
		"outBegIdx", "*mut ::std::os::raw::c_int",
		"outNBElement", "*mut ::std::os::raw::c_int",
		"outInteger", "*mut ::std::os::raw::c_int",
	)
	in, out := build(t, sig)

	art, err := newSynth(t).Synthesize(sig, in, out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(art.Source, "let mut out_integer: Vec<TA_Integer> = Vec::with_capacity(open.len());") {
		t.Errorf("expected integer output sized to first input, got:\n%s", art.Source)
	}
	if !strings.Contains(art.Source, "open.as_ptr(),\n            close.as_ptr(),") {
		t.Errorf("expected inputs in declaration order, got:\n%s", art.Source)
	}
}

func TestSynthesize_Preconditions(t *testing.T) {
	buf := domain.ResolvedParameter{Name: "real", IsBuffer: true, HostType: "Vec<TA_Real>", ElemType: "TA_Real"}
	scalar := domain.ResolvedParameter{Name: "period", HostType: "i32"}

	tests := []struct {
		name    string
		inputs  []domain.ResolvedParameter
		outputs []domain.ResolvedParameter
		noInput bool
	}{
		{"no inputs", nil, []domain.ResolvedParameter{buf}, true},
		{"scalar first input", []domain.ResolvedParameter{scalar, buf}, []domain.ResolvedParameter{buf}, false},
		{"no outputs", []domain.ResolvedParameter{buf}, nil, false},
		{"scalar output", []domain.ResolvedParameter{buf}, []domain.ResolvedParameter{scalar}, false},
	}

	s := newSynth(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Synthesize(domain.Signature{Name: "X"}, tt.inputs, tt.outputs)
			var shapeErr *domain.ShapeError
			if !errors.As(err, &shapeErr) {
				t.Fatalf("expected *ShapeError, got %v", err)
			}
			if errors.Is(err, domain.ErrNoInputs) != tt.noInput {
				t.Errorf("errors.Is(ErrNoInputs) = %v, want %v", !tt.noInput, tt.noInput)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	const i32 = "::std::os::raw::c_int"
	tests := []struct {
		name   string
		params []string
		ok     bool
	}{
		{"full layout", []string{"startIdx", i32, "endIdx", i32, "inReal", "*const f64", "outBegIdx", "*mut " + i32, "outNBElement", "*mut " + i32, "outReal", "*mut f64"}, true},
		{"no bounds", []string{"inReal", "*f64", "outBegIdx", i32, "outNBElement", i32, "outReal", "*f64"}, true},
		{"no inputs", []string{"startIdx", i32, "outBegIdx", i32, "outNBElement", i32, "outReal", "*f64"}, false},
		{"missing element count", []string{"inReal", "*f64", "outBegIdx", i32, "outReal", "*f64"}, false},
		{"swapped bookkeeping", []string{"inReal", "*f64", "outNBElement", i32, "outBegIdx", i32, "outReal", "*f64"}, false},
		{"input after outputs", []string{"inReal", "*f64", "outBegIdx", i32, "outNBElement", i32, "outReal", "*f64", "inHigh", "*f64"}, false},
		{"stray parameter", []string{"inReal", "*f64", "flags", i32, "outBegIdx", i32, "outNBElement", i32, "outReal", "*f64"}, false},
		{"no outputs", []string{"inReal", "*f64", "outBegIdx", i32, "outNBElement", i32}, false},
		{"duplicate input names", []string{"inReal", "*f64", "optInReal", "f64", "outBegIdx", i32, "outNBElement", i32, "outReal", "*f64"}, false},
		{"bare prefix", []string{"in", "*f64", "outBegIdx", i32, "outNBElement", i32, "outReal", "*f64"}, false},
		{"one bound", []string{"startIdx", i32, "inReal", "*f64", "outBegIdx", i32, "outNBElement", i32, "outReal", "*f64"}, false},
		{"three bounds", []string{"a", i32, "b", i32, "c", i32, "inReal", "*f64", "outBegIdx", i32, "outNBElement", i32, "outReal", "*f64"}, false},
		{"output shadows begin local", []string{"inReal", "*f64", "outBegIdx", i32, "outNBElement", i32, "outBegin", "*f64"}, false},
		{"output shadows size local", []string{"inReal", "*f64", "outBegIdx", i32, "outNBElement", i32, "outReal", "*f64", "outSize", "*f64"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := signature("TEST", tt.params...)
			err := Validate(sig, classifier.Partition(sig.Parameters))
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok {
				var shapeErr *domain.ShapeError
				if !errors.As(err, &shapeErr) {
					t.Fatalf("expected *ShapeError, got %v", err)
				}
				if shapeErr.Function != "TEST" {
					t.Errorf("expected function TEST, got %s", shapeErr.Function)
				}
			}
		})
	}
}

func TestValidate_NoInputsSentinel(t *testing.T) {
	sig := signature("X", "outBegIdx", "i", "outNBElement", "i", "outReal", "*f64")
	err := Validate(sig, classifier.Partition(sig.Parameters))
	if !errors.Is(err, domain.ErrNoInputs) {
		t.Errorf("expected ErrNoInputs, got %v", err)
	}
}

func TestManifest(t *testing.T) {
	got, err := newSynth(t).Manifest([]string{"sma", "ema", "cdl3blackcrows"})
	if err != nil {
		t.Fatal(err)
	}
	want := "// Code generated by talibgen. DO NOT EDIT.\n\npub mod sma;\npub mod ema;\npub mod cdl3blackcrows;\n"
	if got != want {
		t.Errorf("Manifest() = %q, want %q", got, want)
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	sig := signature("ADD",
		"inReal0", "*const f64",
		"inReal1", "*const f64",
		"outBegIdx", "*mut ::std::os::raw::c_int",
		"outNBElement", "*mut ::std::os::raw::c_int",
		"outReal", "*mut f64",
	)
	in, out := build(t, sig)
	s := newSynth(t)

	first, err := s.Synthesize(sig, in, out)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Synthesize(sig, in, out)
	if err != nil {
		t.Fatal(err)
	}
	if first.Source != second.Source {
		t.Error("expected byte-identical output across runs")
	}
}
