package magicpages

import (
	"errors"
)

// Magic page errors
var (
	// Orchestration errors
	ErrAlreadyInitialized = errors.New("magic pages already initialized")
	ErrUniverseNil        = errors.New("page universe is nil")
	ErrInitFailed         = errors.New("magic page init failed")
	ErrReadyFailed        = errors.New("magic page ready failed")
	ErrMigrateFailed      = errors.New("magic page migration failed")

	// Binding errors
	ErrBindFailed = errors.New("failed to install lifecycle subscription")
	ErrNotAPage   = errors.New("hook object is not a page")

	// Configuration errors
	ErrUnsupportedConfigFormat = errors.New("unsupported config file format")
	ErrConfigLoad              = errors.New("failed to load config")

	// Asset errors
	ErrAssetCopy = errors.New("failed to copy page asset")
)
