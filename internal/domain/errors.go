package domain

import "errors"

var (
	// ErrInvalidFileName is returned when a recording name does not follow
	// the <prefix>_YYYYMMDD_HHMMSS.<ext> layout.
	ErrInvalidFileName = errors.New("invalid recording file name")

	// ErrUnsupportedAudio is returned for inputs the classifier cannot read.
	ErrUnsupportedAudio = errors.New("unsupported audio container")

	// ErrManifestCorrupt marks an existing manifest that cannot be decoded.
	ErrManifestCorrupt = errors.New("processing manifest is corrupt")

	// ErrArtifactNotFound is returned when a named artifact does not exist.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrInvalidMonitor is returned for monitor names that are not a single
	// local path element.
	ErrInvalidMonitor = errors.New("invalid monitor name")

	// ErrUnknownView is returned for view names outside the catalog.
	ErrUnknownView = errors.New("unknown view")
)
