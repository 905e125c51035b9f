// Package sse provides a minimal, purpose-built decoder for the
// line-delimited "data: " event stream returned by OpenAI-compatible chat
// completion endpoints when "stream": true is requested.
//
// The decoder is push based: the transport hands it raw byte chunks as they
// arrive and it reports text deltas through a callback. It intentionally
// does NOT implement the full SSE event model (event types, ids, retry,
// multi-line data joins); every line is treated as a frame of its own.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import "strings"

const (
	// dataPrefix marks a frame carrying a payload. The space is part of the
	// prefix: "data:{...}" is not treated as a frame.
	dataPrefix = "data: "

	// doneSentinel is the payload the producer sends after its last
	// content frame.
	doneSentinel = "[DONE]"
)

// frameKind classifies a single complete line of the stream.
type frameKind int

const (
	frameIgnored frameKind = iota // blank, comment, or non-data line
	frameDone                     // "data: [DONE]"
	frameData                     // "data: <payload>"
)

// parseFrame trims the line and returns its kind along with the payload for
// data frames.
func parseFrame(line string) (frameKind, string) {
	data, ok := strings.CutPrefix(strings.TrimSpace(line), dataPrefix)
	if !ok {
		return frameIgnored, ""
	}

	if data == doneSentinel {
		return frameDone, ""
	}

	return frameData, data
}
