// Package viz renders collision runs in the terminal.
//
// The live view is a Bubble Tea program that plays frames as they arrive
// from a running simulation through a [Feed], or from a loaded trace:
//
//   - [Model]: playback of frames on a Braille [Canvas] with a stats panel
//   - [App]: preset menu and parameter editor in front of a live run
//   - [Camera]: perspective projection for the 3D view of the enclosure
//
// # Key Bindings
//
//	Space - Pause/Resume playback
//	+/-   - Playback speed
//	[ ]   - Step one frame back/forward
//	V     - Toggle 2D projection / 3D view
//	X Y Z - Rotate the 3D camera (shift reverses)
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
package viz
