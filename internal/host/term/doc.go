// Package term draws the shared indicator on a terminal status row.
//
// StatusBar is an indicator.Host: every item it creates is drawn
// right-aligned on the bottom row with its tooltip dimmed beside it.
// Clicking the item or pressing the bound key invokes the item's command
// on the bus. Picker is a menu.Presenter that shows a modal list on the
// same screen and writes notices to the left of the status row.
package term
