// Package plugin runs Lua extensions that share one indicator.
//
// Every plugin is a single .lua file, or a directory holding init.lua, and
// gets its own interpreter and its own beacon on the host's shared bus.
// The first plugin to register a client owns the indicator; the others
// forward to it. Scripts see a global table:
//
//	beacon.register(id)      -- add a client
//	beacon.unregister(id)    -- remove a client
//	beacon.count()           -- clients counted by this plugin's beacon
//	beacon.owner()           -- whether this plugin owns the indicator
//	beacon.diagnostics()     -- snapshot table
//	beacon.id()              -- instance id
//	beacon.log(msg)          -- write to the host log
//
// Load runs the file and then its optional activate() function. Unload
// calls the optional deactivate() function before the beacon is disposed.
package plugin
