// Package config loads the beacon configuration.
//
// Values are layered, higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  3. Environment (BEACON_*)  │  ← Highest priority
//	├─────────────────────────────┤
//	│  2. TOML file               │
//	├─────────────────────────────┤
//	│  1. Built-in defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// A minimal file:
//
//	namespace = "beacon"
//
//	[indicator]
//	text = "$(extensions) Siblings"
//	tooltip = "%d extensions active"
//
//	[relay]
//	timeout = "2s"
//	release_on_empty = false
//	deferred = false
//
//	[logging]
//	level = "info"
//	format = "console"
//
// The namespace prefixes every bus endpoint, so copies of one plugin must
// agree on it. Watch reloads the file on change.
package config
