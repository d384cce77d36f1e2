package ocr

import "errors"

var (
	// ErrEngineUnavailable indicates that the backing binary, library, or
	// model assets for an engine are not installed or could not be loaded.
	ErrEngineUnavailable = errors.New("ocr engine unavailable")

	// ErrPlatformUnsupported indicates that the engine only exists on a
	// different host operating system.
	ErrPlatformUnsupported = errors.New("ocr engine not supported on this platform")

	// ErrUnknownVariant indicates an engine variant outside the closed set.
	ErrUnknownVariant = errors.New("unknown ocr engine variant")
)
