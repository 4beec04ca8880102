package common

import "errors"

var (
	// The registry rejected the credential (401).
	ErrCredential = errors.New("credential rejected by registry")
	// The plugin or the requested release does not exist or is not public.
	ErrNotFound = errors.New("release not found")
	// Any other non-success answer of the registry.
	ErrTransient = errors.New("registry request failed")
	ErrNoRelease = errors.New("no usable release")
	ErrNoAssets  = errors.New("release has no assets")
	ErrNoBinary  = errors.New("no plugin binary found in release")
	// More than one binary carries the NW API suffix.
	ErrAmbiguousNwBinary = errors.New("multiple plugin binaries marked for NW API usage")
	// More than one binary and none is designated for the NW API.
	ErrAmbiguousBinary = errors.New("multiple plugin binaries found, none is designated for NW API usage")
	// A local file does not match the hash recorded in the metadata.
	ErrDrift                = errors.New("file does not match the recorded hash")
	ErrInvalidPluginId      = errors.New("invalid plugin identifier")
	ErrFrameworkUnavailable = errors.New("framework is not available")
	ErrDownload             = errors.New("download failed")
)
