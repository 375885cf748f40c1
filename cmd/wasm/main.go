//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"talibgen/config"
	"talibgen/internal/adapter/cache"
	"talibgen/internal/adapter/memstore"
	"talibgen/internal/adapter/parser"
	"talibgen/internal/adapter/resolver"
	"talibgen/internal/adapter/synth"
	"talibgen/internal/logger"
	"talibgen/internal/usecase"
)

var typeCache = cache.NewTypeCache(64)

func main() {
	c := make(chan struct{})

	js.Global().Set("talibgenGenerate", js.FuncOf(generate))
	js.Global().Set("talibgenInspect", js.FuncOf(inspect))

	<-c
}

func newUseCase(sink *memstore.Sink, skipInvalid bool) (*usecase.GenerateUseCase, error) {
	cfg := config.DefaultConfig()
	s, err := synth.New(synth.Options{Crate: cfg.Generate.Crate, Prefix: cfg.Generate.Prefix})
	if err != nil {
		return nil, err
	}
	return usecase.NewGenerateUseCase(
		parser.New(cfg.Generate.Prefix),
		cache.NewCachedResolver(resolver.New(), typeCache),
		s,
		sink,
		nil,
		usecase.Options{SkipInvalid: skipInvalid, Workers: 1},
		logger.Discard(),
	), nil
}

// generate(text, [skipInvalid]) returns every module source and the
// manifest as JSON.
func generate(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: talibgenGenerate(text, [skipInvalid])")
	}
	skipInvalid := len(args) > 1 && args[1].Bool()

	sink := memstore.NewSink()
	uc, err := newUseCase(sink, skipInvalid)
	if err != nil {
		return makeError(err.Error())
	}

	result, err := uc.Generate(context.Background(), args[0].String(), nil)
	if err != nil {
		return makeError("generation failed: " + err.Error())
	}

	modules := make([]map[string]interface{}, 0, len(result.Manifest.Modules))
	for _, m := range result.Manifest.Modules {
		src, _ := sink.Artifact(m)
		modules = append(modules, map[string]interface{}{
			"module": m,
			"source": src,
		})
	}

	skipped := make([]map[string]interface{}, 0, len(result.Skipped))
	for _, s := range result.Skipped {
		skipped = append(skipped, map[string]interface{}{
			"function": s.Function,
			"error":    s.Err.Error(),
		})
	}

	return makeResult(map[string]interface{}{
		"modules":    modules,
		"manifest":   sink.Manifest(),
		"duplicates": result.Duplicates,
		"skipped":    skipped,
	})
}

func inspect(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: talibgenInspect(text)")
	}

	uc, err := newUseCase(memstore.NewSink(), true)
	if err != nil {
		return makeError(err.Error())
	}

	reports, err := uc.Inspect(args[0].String())
	if err != nil {
		return makeError("inspection failed: " + err.Error())
	}

	output := make([]map[string]interface{}, 0, len(reports))
	for _, r := range reports {
		params := make([]map[string]interface{}, 0, len(r.Parameters))
		for _, p := range r.Parameters {
			params = append(params, map[string]interface{}{
				"declared": p.Parameter.Name,
				"rawType":  p.Parameter.RawType,
				"role":     p.Role.String(),
				"name":     p.Name,
			})
		}
		entry := map[string]interface{}{
			"function":   r.Signature.Name,
			"line":       r.Signature.Line,
			"parameters": params,
		}
		if r.Err != nil {
			entry["error"] = r.Err.Error()
		}
		output = append(output, entry)
	}

	return makeResult(map[string]interface{}{
		"functions": output,
	})
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
