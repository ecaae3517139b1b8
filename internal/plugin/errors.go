package plugin

import "errors"

// Plugin system errors.
var (
	// ErrPluginNotFound is returned when a plugin cannot be located.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrNoEntryPoint is returned for a directory without init.lua.
	ErrNoEntryPoint = errors.New("plugin has no entry point (init.lua)")

	// ErrAlreadyLoaded is returned when a plugin name is already in use.
	ErrAlreadyLoaded = errors.New("plugin is already loaded")

	// ErrNotLoaded is returned when unloading an unknown plugin.
	ErrNotLoaded = errors.New("plugin is not loaded")

	// ErrHostClosed is returned by Load after Close.
	ErrHostClosed = errors.New("plugin host is closed")
)
