// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for a watched migration run:
//  1. [RunningView] : Monitor real-time progress updates from the orchestrator
//  2. [DecisionView] : Pick a match for songs the engine could not auto-resolve
//  3. [ResultView] : Display the final report and any rejected songs
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// The migration runs in a background goroutine; progress updates flow through a
// channel from the Orchestrator, and decisions flow back through a second
// channel, so the event loop never blocks on the network.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, a/s, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
