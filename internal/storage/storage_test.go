package storage

import (
	"io"
	"log/slog"
)

// testLogger returns a logger that discards output, shared by this
// package's test files.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
