package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"talibgen/config"
	"talibgen/internal/adapter/cache"
	"talibgen/internal/adapter/fs"
	"talibgen/internal/adapter/memstore"
	"talibgen/internal/adapter/parser"
	"talibgen/internal/adapter/resolver"
	"talibgen/internal/adapter/synth"
	"talibgen/internal/logger"
	"talibgen/internal/usecase"
)

func main() {
	input := flag.String("i", "", "Raw bindings file or directory")
	runs := flag.Int("n", 10, "Number of generation runs")
	workers := flag.Int("w", 4, "Concurrent writes")
	flag.Parse()

	if *runs < 1 {
		*runs = 1
	}

	if *input == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -i bindings.rs [-n 10] [-w 4]")
		fmt.Println("\nMeasures:")
		fmt.Println("  1. Extraction throughput (declarations per second)")
		fmt.Println("  2. Full pipeline latency into an in-memory sink")
		fmt.Println("  3. Resolved type cache hit rate")
		os.Exit(1)
	}

	cfg := config.DefaultConfig()
	text, err := fs.ReadInput(*input, fs.NewWalker(cfg.Input.Includes, cfg.Input.Excludes))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}

	s, err := synth.New(synth.Options{Crate: cfg.Generate.Crate, Prefix: cfg.Generate.Prefix})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading templates: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("GENERATION BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Input: %s (%d bytes)\n", *input, len(text))

	p := parser.New(cfg.Generate.Prefix)
	start := time.Now()
	sigs, err := p.Extract(text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Extraction error: %v\n", err)
		os.Exit(1)
	}
	extractTime := time.Since(start)
	fmt.Printf("Declarations: %d (extracted in %s)\n", len(sigs), extractTime)
	fmt.Println(strings.Repeat("-", 70))

	typeCache := cache.NewTypeCache(cfg.Generate.CacheSize)
	var total, fastest, slowest time.Duration
	var modules, skipped int

	for i := 0; i < *runs; i++ {
		sink := memstore.NewSink()
		uc := usecase.NewGenerateUseCase(
			p,
			cache.NewCachedResolver(resolver.New(), typeCache),
			s,
			sink,
			nil,
			usecase.Options{SkipInvalid: true, Workers: *workers},
			logger.Discard(),
		)

		start := time.Now()
		result, err := uc.Generate(context.Background(), text, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Generation error: %v\n", err)
			os.Exit(1)
		}
		elapsed := time.Since(start)

		total += elapsed
		if i == 0 || elapsed < fastest {
			fastest = elapsed
		}
		if elapsed > slowest {
			slowest = elapsed
		}
		modules = len(result.Artifacts)
		skipped = len(result.Skipped)
		fmt.Printf("run %2d: %s\n", i+1, elapsed)
	}

	hits, misses := typeCache.Stats()
	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses)
	}

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("RESULTS:\n")
	fmt.Printf("  Modules per run:   %d (%d skipped)\n", modules, skipped)
	fmt.Printf("  Average run:       %s\n", total/time.Duration(*runs))
	fmt.Printf("  Fastest / slowest: %s / %s\n", fastest, slowest)
	fmt.Printf("  Extraction rate:   %.0f decl/s\n", float64(len(sigs))/extractTime.Seconds())
	fmt.Printf("  Type cache:        %d entries, %.1f%% hit rate\n", typeCache.Size(), hitRate*100)
}
