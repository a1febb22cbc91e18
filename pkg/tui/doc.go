// Package tui implements the interactive terminal dashboard.
//
// The dashboard is a Bubble Tea program that polls the control API
// twice a second and renders two tabs: aggregate statistics with
// per-upstream health, and the recent transaction history. A
// transaction selected in the history tab can be replayed with a
// single keypress.
//
// # Architecture
//
// [Model] holds all screen state and implements tea.Model. It reads
// through the [Source] interface, whose live implementation is
// [Client], an HTTP client for the control API. Tests substitute a
// stub Source and drive the model directly with messages.
//
// Polls never overlap: the model issues one poll, waits for its
// result, then schedules the next tick. A failed poll leaves the last
// good data on screen and surfaces the error in the status bar until
// a poll succeeds again.
//
// # Usage
//
//	if err := tui.Run("http://127.0.0.1:9000"); err != nil {
//		log.Fatal(err)
//	}
package tui
