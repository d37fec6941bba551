// Package event provides the deferred work queue and the view-changed
// notification stream.
//
// The synchronization core is cooperative and event-driven: work that
// must wait for the current burst of edits to settle is scheduled on a
// Queue and drained once per processing cycle. View-changed
// notifications accumulate on a Notifier and are coalesced into
// non-overlapping line ranges before being handed to the rendering
// collaborator, so a burst of edits produces one redraw per affected
// region rather than one per mutation.
package event
