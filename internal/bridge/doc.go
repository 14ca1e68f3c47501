// Package bridge runs the sextet stream against a set of controller
// sessions.
//
// # Pipeline
//
//	input ─► sextet.Decoder ─► sextet.Differ ─┬─► queue ─► dispatcher ─► Session (cabinet)
//	                                          └─► queue ─► dispatcher ─► Session (marquee)
//
// One goroutine decodes and diffs. Every frame's transitions form a batch
// that is handed to each session's bounded queue; a dispatcher per session
// applies its batches in order. Sessions never wait for each other, except
// that the decoder blocks when a queue is full.
//
// # Shutdown
//
// When the input ends, the queues are drained, the main light is switched
// off on every session and the sessions are closed. When the context is
// cancelled, Run stops without touching the lights and returns the
// context's error.
package bridge
