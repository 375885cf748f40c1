package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"talibgen/config"
	"talibgen/internal/adapter/cache"
	"talibgen/internal/adapter/fs"
	"talibgen/internal/adapter/parser"
	"talibgen/internal/adapter/resolver"
	"talibgen/internal/adapter/store"
	"talibgen/internal/adapter/synth"
	"talibgen/internal/logger"
	"talibgen/internal/port"
	"talibgen/internal/usecase"
)

var (
	cfg     *config.Config
	log     *slog.Logger
	workDir string

	inputPath string
	outputDir string
)

var rootCmd = &cobra.Command{
	Use:   "talibgen -i <bindings.rs> -o <dir>",
	Short: "Generate safe Rust wrappers for TA-Lib raw bindings",
	Long: `talibgen reads the raw extern declarations produced for TA-Lib and writes one
safe wrapper module per indicator function, plus a mod file listing them.

The input may be a single file or a directory of .rs files. Settings are read
from talibgen.yaml (or .talibgen/config.yaml) in the working directory.

Example usage:
  talibgen -i src/bindings.rs -o src/ta             # Generate wrappers
  talibgen inspect -i src/bindings.rs               # Show classified parameters
  talibgen inspect -i src/bindings.rs --source      # Show generated sources`,
	Args: cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}

		cfg, err = config.LoadFromDir(workDir)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		log, err = logger.Init(logger.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: cmd.ErrOrStderr(),
		})
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}

		return nil
	},
	RunE: runGenerate,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "", "raw bindings file or directory")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory for generated modules")
	rootCmd.MarkFlagRequired("input")
	rootCmd.MarkFlagRequired("output")
}

// newGenerateUseCase wires the pipeline for sink. state may be nil.
func newGenerateUseCase(sink port.ArtifactSink, state port.StateStore, skipInvalid bool) (*usecase.GenerateUseCase, *cache.TypeCache, error) {
	synthesizer, err := synth.New(synth.Options{
		Crate:  cfg.Generate.Crate,
		Prefix: cfg.Generate.Prefix,
	})
	if err != nil {
		return nil, nil, err
	}

	typeCache := cache.NewTypeCache(cfg.Generate.CacheSize)
	uc := usecase.NewGenerateUseCase(
		parser.New(cfg.Generate.Prefix, parser.WithLogger(log)),
		cache.NewCachedResolver(resolver.New(), typeCache),
		synthesizer,
		sink,
		state,
		usecase.Options{
			Duplicates:   cfg.Generate.Duplicates,
			SkipInvalid:  skipInvalid,
			Prune:        cfg.Generate.Prune,
			Workers:      cfg.Generate.Workers,
			ManifestName: cfg.Generate.ManifestName,
		},
		log,
	)
	return uc, typeCache, nil
}

func readInput(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid input path: %w", err)
	}
	text, err := fs.ReadInput(abs, fs.NewWalker(cfg.Input.Includes, cfg.Input.Excludes))
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return text, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	// Flags parsed; from here on failures are not usage errors.
	cmd.SilenceUsage = true

	text, err := readInput(inputPath)
	if err != nil {
		return err
	}

	outDir, err := filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}

	writer := fs.NewWriter(outDir, cfg.Generate.Extension, cfg.Generate.ManifestName)
	uc, typeCache, err := newGenerateUseCase(writer, nil, cfg.Generate.SkipInvalid)
	if err != nil {
		return err
	}

	// Everything is synthesized before the output directory is touched.
	plan, err := uc.Plan(text)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	hits, misses := typeCache.Stats()
	log.Debug("type cache", "hits", hits, "misses", misses, "entries", typeCache.Size())

	var state port.StateStore
	if cfg.State.Enabled {
		st, err := openState(cmd, outDir)
		if err != nil {
			return err
		}
		defer st.Close()
		state = st
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Generating %d modules into %s...\n", len(plan.Artifacts), outDir)

	var progress usecase.ProgressFunc
	if cfg.Output.Progress {
		progress = newProgress("Writing")
	}

	result, err := uc.Emit(cmd.Context(), plan, state, progress)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	printResult(cmd, result)
	return nil
}

// openState opens the state store below outDir and resets it when the
// schema or generation settings have changed.
func openState(cmd *cobra.Command, outDir string) (*store.BoltStore, error) {
	if err := cfg.EnsureStateDir(outDir); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	st, err := store.NewBoltStore(cfg.StateDBPath(outDir))
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	check, err := st.Check(cfg)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to check state: %w", err)
	}

	if check.Reset {
		fmt.Fprintf(cmd.OutOrStdout(), "State reset: %s\n", check.Reason)
		if err := st.Clear(); err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to clear state: %w", err)
		}
	} else if check.Upgrade {
		log.Debug("state upgrade", "from", check.From, "to", check.To)
	}
	if err := st.Prepare(cfg); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to prepare state: %w", err)
	}

	return st, nil
}

func printResult(cmd *cobra.Command, result *usecase.GenerateResult) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "\nGeneration complete:\n")
	fmt.Fprintf(out, "  Declarations: %d\n", result.Signatures)
	fmt.Fprintf(out, "  Modules:      %d\n", len(result.Artifacts))
	fmt.Fprintf(out, "  Written:      %d\n", result.Written)
	fmt.Fprintf(out, "  Unchanged:    %d\n", result.Unchanged)
	if len(result.Pruned) > 0 {
		fmt.Fprintf(out, "  Pruned:       %d\n", len(result.Pruned))
	}

	if len(result.Duplicates) > 0 || len(result.Skipped) > 0 {
		fmt.Fprintf(out, "\nWarnings:\n")
		for _, m := range result.Duplicates {
			fmt.Fprintf(out, "  - duplicate module %s: last declaration kept\n", m)
		}
		for _, s := range result.Skipped {
			fmt.Fprintf(out, "  - skipped %s: %v\n", s.Function, s.Err)
		}
	}
}
