package domain

import "context"

// Database dumps to and restores from a plain script file by delegating to
// the engine's own client tools.
type Database interface {
	Dump(ctx context.Context, outputPath string) error
	Restore(ctx context.Context, inputPath string) error
	GetName() string
	GetType() string
	Ping(ctx context.Context) error
}
