// Package mapengine defines the error kinds the tile server dispatches on:
// an invalid tile request, and a descriptive registry/validation failure,
// matching the reference implementation's tagged MapEngineError enum
// (spec.md §7) as distinct exported Go error types rather than a sum type,
// since the corpus has no tagged-union error library (every actively
// maintained repo wraps with stdlib %w instead).
package mapengine

import "fmt"

// TileError reports a malformed tile request: an unparsable coordinate or
// an unsupported file extension. The HTTP layer dispatches it as 501 Not
// Implemented, mirroring get_tile.rs's handling of Tile::set_extension.
type TileError struct {
	msg string
}

// NewTileError builds a TileError with a formatted message.
func NewTileError(format string, args ...any) *TileError {
	return &TileError{msg: fmt.Sprintf(format, args...)}
}

func (e *TileError) Error() string { return e.msg }

// MsgError is a descriptive registry or validation failure, matching the
// reference implementation's MapEngineError::Msg variant. NotFound
// distinguishes "no such map" (404) from other validation failures (4xx),
// since both are reported as the same error kind upstream.
type MsgError struct {
	msg      string
	NotFound bool
}

// NewMsg builds a validation-failure MsgError.
func NewMsg(format string, args ...any) *MsgError {
	return &MsgError{msg: fmt.Sprintf(format, args...)}
}

// NewNotFound builds a MsgError reporting a missing map, matching
// state.rs's `get_map`/`get_raster`/`get_style` "does not exist" errors.
func NewNotFound(format string, args ...any) *MsgError {
	return &MsgError{msg: fmt.Sprintf(format, args...), NotFound: true}
}

func (e *MsgError) Error() string { return e.msg }
