package config

import "context"

// Loader is the interface for a format-specific profile loader.
type Loader interface {
	// Load reads every profile file reachable from the given paths and
	// merges them into a single Profile. Later files override earlier ones.
	Load(ctx context.Context, paths ...string) (*Profile, error)
}
