package profileval

// Option configures the validation engine.
type Option func(*Options)

// Options holds all configuration for the engine.
type Options struct {
	// FollowExternalReferences controls whether references that resolve
	// outside the document and its container are fetched and validated.
	FollowExternalReferences bool

	// ParallelProfiles evaluates the branches of an all-of profile
	// conjunction concurrently. Cycle-detection state is lock-guarded, so
	// this is safe, but sequential depth-first evaluation is the default.
	ParallelProfiles bool

	// MaxVisited caps the growth of the external-reference visited set in
	// one validation call. 0 means unlimited. Because the set is
	// append-only, the cap bounds recursion across fetched documents.
	MaxVisited int
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		FollowExternalReferences: true,
		ParallelProfiles:         false,
		MaxVisited:               0,
	}
}

// WithFollowExternalReferences enables or disables following references
// that require an external fetch. When disabled, external references are
// still classified and aggregation-checked but never fetched.
func WithFollowExternalReferences(follow bool) Option {
	return func(o *Options) {
		o.FollowExternalReferences = follow
	}
}

// WithParallelProfiles enables concurrent evaluation of all-of profile
// conjunction branches.
func WithParallelProfiles(enable bool) Option {
	return func(o *Options) {
		o.ParallelProfiles = enable
	}
}

// WithMaxVisited caps the visited-set size for one validation call.
// Use 0 for unlimited.
func WithMaxVisited(limit int) Option {
	return func(o *Options) {
		if limit >= 0 {
			o.MaxVisited = limit
		}
	}
}

// --- Presets ---

// LocalOptions returns options for offline validation: external references
// are classified but never fetched.
func LocalOptions() []Option {
	return []Option{
		WithFollowExternalReferences(false),
	}
}

// StrictOptions returns options for full validation across reference
// boundaries.
func StrictOptions() []Option {
	return []Option{
		WithFollowExternalReferences(true),
		WithParallelProfiles(true),
	}
}
