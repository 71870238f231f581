// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a liked-song browser:
//  1. [EmotionView] : Liked-song counts per emotion, plus an "all songs" row
//  2. [SongListView] : The liked songs of the selected emotion
//  3. [ConfirmView] : Confirm removing a liked song
//  4. [RecommendView] : Recommendations for the selected emotion, any of which can be liked
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving results of store and
// recommendation calls via the Msg union type. Those calls run as tea.Cmd functions off the update loop.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, d, y/n, q) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
