package port

import "context"

// ArtifactSink persists generated modules and the module index.
type ArtifactSink interface {
	// WriteArtifact stores one module's source under the given module name.
	WriteArtifact(ctx context.Context, module, content string) error

	// WriteManifest stores the module index.
	WriteManifest(ctx context.Context, content string) error
}

// ArtifactPruner is implemented by sinks that can see and remove modules
// written by an earlier run.
type ArtifactPruner interface {
	Exists(module string) bool
	Remove(module string) error

	// FileDigest hashes the module as it is currently stored. ok is false
	// when the module is missing or unreadable.
	FileDigest(module string) (digest string, ok bool)
}
