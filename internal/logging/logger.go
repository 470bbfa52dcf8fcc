// Package logging is the structured logger every component receives. The
// interface keeps call sites free of a concrete backend; SlogLogger is the
// one in use.
package logging

import "context"

// Logger logs a message with key/value pairs:
//
//	logger.Info(ctx, "profile stored", "id", id, "principal", name)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that adds args to every record.
	With(args ...any) Logger
}
