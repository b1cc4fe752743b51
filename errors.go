package tilerender

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidJob        = errors.New("tilerender: invalid render job")
	ErrNotConfigured     = errors.New("tilerender: no render job configured")
	ErrAlreadyStarted    = errors.New("tilerender: render job already started")
	ErrUnsupportedFormat = errors.New("tilerender: unsupported image format")
	ErrConfigWrite       = errors.New("tilerender: failed to write renderer configuration")
	ErrTileImage         = errors.New("tilerender: tile image unavailable")
)

// ConfigWriteError reports which tile's configuration artifact could not be
// written. It matches ErrConfigWrite with errors.Is.
type ConfigWriteError struct {
	Tile int
	Path string
	Err  error
}

func (e *ConfigWriteError) Error() string {
	return fmt.Sprintf("tilerender: failed to write configuration for tile %d (%s): %v", e.Tile, e.Path, e.Err)
}

func (e *ConfigWriteError) Unwrap() error {
	return e.Err
}

func (e *ConfigWriteError) Is(target error) bool {
	return target == ErrConfigWrite
}
