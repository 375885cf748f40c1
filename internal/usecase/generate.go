package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"talibgen/config"
	"talibgen/internal/adapter/classifier"
	"talibgen/internal/adapter/fs"
	"talibgen/internal/adapter/synth"
	"talibgen/internal/domain"
	"talibgen/internal/port"
)

// GenerateUseCase runs the pipeline from declaration text to written modules.
type GenerateUseCase struct {
	extractor port.Extractor
	resolver  port.TypeResolver
	synth     *synth.Synthesizer
	sink      port.ArtifactSink
	state     port.StateStore
	opts      Options
	log       *slog.Logger
}

// Options controls failure and output policies.
type Options struct {
	Duplicates  string // config.DuplicatesLastWins or config.DuplicatesError
	SkipInvalid bool
	Prune       bool
	Workers     int

	// ManifestName is the module name the index file occupies. A function
	// mapping to it is rejected.
	ManifestName string
}

// NewGenerateUseCase creates a new generate use case. state may be nil.
func NewGenerateUseCase(
	extractor port.Extractor,
	resolver port.TypeResolver,
	synthesizer *synth.Synthesizer,
	sink port.ArtifactSink,
	state port.StateStore,
	opts Options,
	log *slog.Logger,
) *GenerateUseCase {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Duplicates == "" {
		opts.Duplicates = config.DuplicatesLastWins
	}
	if opts.ManifestName == "" {
		opts.ManifestName = config.DefaultConfig().Generate.ManifestName
	}
	if log == nil {
		log = slog.Default()
	}
	return &GenerateUseCase{
		extractor: extractor,
		resolver:  resolver,
		synth:     synthesizer,
		sink:      sink,
		state:     state,
		opts:      opts,
		log:       log,
	}
}

// ProgressFunc is called once per artifact as emission proceeds.
type ProgressFunc func(done, total int, module string)

// SkippedFunction records a declaration left out under the skip policy.
type SkippedFunction struct {
	Function string
	Err      error
}

// Plan is the fully synthesized output of a run, held in memory until it
// is emitted.
type Plan struct {
	Signatures int
	Artifacts  []domain.Artifact
	Manifest   domain.Manifest
	Duplicates []string
	Skipped    []SkippedFunction

	manifestSource string
}

// GenerateResult contains the results of a generation run.
type GenerateResult struct {
	Plan
	Written   int
	Unchanged int
	Pruned    []string
}

// Generate plans and emits every declaration in text, using the use case's
// state store.
func (u *GenerateUseCase) Generate(ctx context.Context, text string, progress ProgressFunc) (*GenerateResult, error) {
	plan, err := u.Plan(text)
	if err != nil {
		return nil, err
	}
	return u.Emit(ctx, plan, u.state, progress)
}

// Plan extracts and synthesizes every declaration without writing anything.
func (u *GenerateUseCase) Plan(text string) (*Plan, error) {
	sigs, err := u.extractor.Extract(text)
	if err != nil {
		return nil, err
	}
	u.log.Debug("extracted signatures", "count", len(sigs))

	plan := &Plan{Signatures: len(sigs)}
	artifacts, err := u.synthesizeAll(sigs, plan)
	if err != nil {
		return nil, err
	}
	if len(artifacts) == 0 {
		return nil, fmt.Errorf("no functions could be generated: all %d declarations were skipped", len(sigs))
	}

	modules := make([]string, len(artifacts))
	for i, a := range artifacts {
		modules[i] = a.Module
	}
	manifest, err := u.synth.Manifest(modules)
	if err != nil {
		return nil, err
	}

	plan.Artifacts = artifacts
	plan.Manifest = domain.Manifest{Modules: modules}
	plan.manifestSource = manifest
	return plan, nil
}

// Emit writes a plan's artifacts, then its manifest, then records state.
// state may be nil.
func (u *GenerateUseCase) Emit(ctx context.Context, plan *Plan, state port.StateStore, progress ProgressFunc) (*GenerateResult, error) {
	result := &GenerateResult{Plan: *plan}

	if err := u.emit(ctx, plan.Artifacts, state, result, progress); err != nil {
		return nil, err
	}
	if err := u.sink.WriteManifest(ctx, plan.manifestSource); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := u.recordState(plan.Artifacts, state, result); err != nil {
		return nil, err
	}

	u.log.Info("generation complete",
		"modules", len(plan.Artifacts),
		"written", result.Written,
		"unchanged", result.Unchanged,
		"skipped", len(result.Skipped),
		"pruned", len(result.Pruned),
	)
	return result, nil
}

// synthesizeAll builds every artifact in memory and applies the skip and
// duplicate policies.
func (u *GenerateUseCase) synthesizeAll(sigs []domain.Signature, plan *Plan) ([]domain.Artifact, error) {
	var artifacts []domain.Artifact
	position := make(map[string]int)
	origin := make(map[string]string)

	for _, sig := range sigs {
		built, err := u.build(sig)
		if err != nil {
			if !u.opts.SkipInvalid {
				return nil, err
			}
			u.log.Warn("skipping function", "function", sig.Name, "error", err)
			plan.Skipped = append(plan.Skipped, SkippedFunction{Function: sig.Name, Err: err})
			continue
		}

		art := built.Artifact
		if i, dup := position[art.Module]; dup {
			if u.opts.Duplicates == config.DuplicatesError {
				return nil, &domain.DuplicateNameError{Module: art.Module, First: origin[art.Module], Second: art.Function}
			}
			u.log.Warn("duplicate module, last declaration wins",
				"module", art.Module, "replaced", origin[art.Module], "by", art.Function)
			plan.Duplicates = append(plan.Duplicates, art.Module)
			artifacts[i] = art
			origin[art.Module] = art.Function
			continue
		}

		position[art.Module] = len(artifacts)
		origin[art.Module] = art.Function
		artifacts = append(artifacts, art)
	}

	return artifacts, nil
}

// built is one signature taken through classification, resolution and
// synthesis.
type built struct {
	Parameters []domain.ClassifiedParameter
	Inputs     []domain.ResolvedParameter
	Outputs    []domain.ResolvedParameter
	Artifact   domain.Artifact
}

func (u *GenerateUseCase) build(sig domain.Signature) (built, error) {
	b := built{Parameters: classifier.Partition(sig.Parameters)}
	if err := synth.Validate(sig, b.Parameters); err != nil {
		return b, err
	}

	for _, c := range b.Parameters {
		if c.Role == domain.RoleIgnored {
			continue
		}
		rp, err := u.resolver.Resolve(sig.Name, c)
		if err != nil {
			return b, err
		}
		if c.Role == domain.RoleInput {
			b.Inputs = append(b.Inputs, rp)
		} else {
			b.Outputs = append(b.Outputs, rp)
		}
	}

	art, err := u.synth.Synthesize(sig, b.Inputs, b.Outputs)
	if err != nil {
		return b, err
	}
	if art.Module == u.opts.ManifestName {
		return b, &domain.DuplicateNameError{Module: art.Module, First: "module index", Second: art.Function}
	}
	b.Artifact = art
	return b, nil
}

// emit writes artifacts concurrently. Each write targets its own file.
func (u *GenerateUseCase) emit(ctx context.Context, artifacts []domain.Artifact, state port.StateStore, result *GenerateResult, progress ProgressFunc) error {
	unchanged, err := u.unchangedModules(artifacts, state)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	done := 0
	report := func(module string) {
		mu.Lock()
		defer mu.Unlock()
		done++
		if progress != nil {
			progress(done, len(artifacts), module)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.opts.Workers)

	for _, art := range artifacts {
		if unchanged[art.Module] {
			result.Unchanged++
			report(art.Module)
			continue
		}
		result.Written++
		g.Go(func() error {
			if err := u.sink.WriteArtifact(gctx, art.Module, art.Source); err != nil {
				return fmt.Errorf("failed to write %s: %w", art.Module, err)
			}
			u.log.Debug("wrote module", "module", art.Module)
			report(art.Module)
			return nil
		})
	}

	return g.Wait()
}

// unchangedModules returns modules whose recorded digest matches and whose
// stored content still hashes to it. Edited or missing files are rewritten.
func (u *GenerateUseCase) unchangedModules(artifacts []domain.Artifact, state port.StateStore) (map[string]bool, error) {
	unchanged := make(map[string]bool)
	pruner, ok := u.sink.(port.ArtifactPruner)
	if state == nil || !ok {
		return unchanged, nil
	}

	for _, art := range artifacts {
		rec, found, err := state.GetArtifact(art.Module)
		if err != nil {
			return nil, fmt.Errorf("failed to read state: %w", err)
		}
		want := fs.Digest(art)
		if !found || rec.Digest != want {
			continue
		}
		if onDisk, ok := pruner.FileDigest(art.Module); ok && onDisk == want {
			unchanged[art.Module] = true
		}
	}
	return unchanged, nil
}

// recordState prunes modules dropped since the last run and stores the
// digests of this run.
func (u *GenerateUseCase) recordState(artifacts []domain.Artifact, state port.StateStore, result *GenerateResult) error {
	if state == nil {
		return nil
	}

	current := make(map[string]bool, len(artifacts))
	records := make([]domain.ArtifactRecord, 0, len(artifacts))
	for _, art := range artifacts {
		current[art.Module] = true
		records = append(records, domain.ArtifactRecord{Module: art.Module, Digest: fs.Digest(art)})
	}

	if pruner, ok := u.sink.(port.ArtifactPruner); ok && u.opts.Prune {
		previous, err := state.ListArtifacts()
		if err != nil {
			return fmt.Errorf("failed to read state: %w", err)
		}
		for _, rec := range previous {
			if current[rec.Module] {
				continue
			}
			if err := pruner.Remove(rec.Module); err != nil {
				return err
			}
			u.log.Info("pruned stale module", "module", rec.Module)
			result.Pruned = append(result.Pruned, rec.Module)
		}
	}

	if err := state.ReplaceArtifacts(records); err != nil {
		return fmt.Errorf("failed to record state: %w", err)
	}
	return nil
}
