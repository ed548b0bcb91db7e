// Package tui renders the Kanban notes board in the terminal.
//
// The board is a bubbletea model. It never changes notes itself: key presses
// emit actions, and the notes store's notifications arrive back as messages
// through a mounted [view.Binding].
package tui
