package sse

import (
	"io"
	"log/slog"
	"strings"

	"github.com/papercomputeco/papermind/pkg/llm"
	"github.com/papercomputeco/papermind/pkg/logger"
	"github.com/papercomputeco/papermind/pkg/utils"
)

// readBufferSize is the chunk size ReadFrom requests from the transport.
const readBufferSize = 32 * 1024

// DeltaHandler observes each non-empty text delta. full is the accumulated
// text including delta.
type DeltaHandler func(delta, full string)

// ChunkParser decodes the JSON payload of a single data frame.
type ChunkParser interface {
	ParseStreamChunk(payload []byte) (*llm.StreamChunk, error)
}

// Stats counts what a Decoder has seen so far.
type Stats struct {
	Lines     int // complete lines extracted from the stream
	Frames    int // lines carrying the "data: " prefix
	Sentinels int // "[DONE]" frames
	Malformed int // data frames whose payload failed to parse
	Deltas    int // non-empty deltas appended to the text

	// FinishReason is the last finish reason reported by a frame.
	FinishReason string
	// Usage is the last token usage reported by a frame, nil if none was.
	Usage *llm.Usage
}

// Decoder reassembles a chat completion stream from raw transport chunks.
//
// ┌──────────────────┐
// │  transport body  │
// └──────────────────┘
// │ Feed(chunk)
// ▼
// ┌──────────────────┐   ┌───────────────────────┐
// │  lines / frames  │──▶│ ChunkParser (payload) │
// └──────────────────┘   └───────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │ DeltaHandler     │
// └──────────────────┘
//
// A Decoder handles exactly one stream and is not safe for concurrent use.
// Create one per stream.
type Decoder struct {
	parser  ChunkParser
	onDelta DeltaHandler
	logger  *slog.Logger

	text *textDecoder

	// pending holds the trailing line that has not seen its '\n' yet.
	pending []byte
	full    strings.Builder
	stats   Stats

	finished bool
}

// Option configures a Decoder created with NewDecoder.
type Option func(*Decoder)

// WithDeltaHandler registers the callback invoked for each delta.
func WithDeltaHandler(h DeltaHandler) Option {
	return func(d *Decoder) {
		d.onDelta = h
	}
}

// WithLogger sets the logger used to report skipped frames.
func WithLogger(l *slog.Logger) Option {
	return func(d *Decoder) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDecoder returns a Decoder that parses data frame payloads with parser.
func NewDecoder(parser ChunkParser, opts ...Option) *Decoder {
	d := &Decoder{
		parser: parser,
		logger: logger.Nop(),
		text:   newTextDecoder(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Feed appends a raw chunk to the stream and processes every line it
// completes. Malformed frames are logged and skipped; Feed never fails.
// Feeding after Finish has no effect.
func (d *Decoder) Feed(chunk []byte) {
	if d.finished {
		d.logger.Debug("ignoring chunk fed after finish", "bytes", len(chunk))
		return
	}

	text := d.text.decode(chunk)

	// pending never holds a separator, so only the new text is searched.
	// Everything after the last separator is still a partial line.
	i := strings.LastIndexByte(text, '\n')
	if i < 0 {
		d.pending = append(d.pending, text...)
		return
	}

	complete := string(append(d.pending, text[:i]...))
	d.pending = append(d.pending[:0], text[i+1:]...)

	for _, line := range strings.Split(complete, "\n") {
		d.processLine(line)
	}
}

// Finish ends the stream and returns the accumulated text. An unterminated
// trailing line is discarded without being parsed. Finish may be called
// more than once; later calls return the same text.
func (d *Decoder) Finish() string {
	if !d.finished {
		if len(d.pending) > 0 {
			d.logger.Debug("discarding unterminated trailing line",
				"bytes", len(d.pending),
			)
		}
		d.pending = nil
		d.text.reset()
		d.finished = true
	}

	return d.full.String()
}

// ReadFrom feeds src to the decoder chunk by chunk until EOF. It does not
// call Finish, so a transport error leaves the accumulated text available
// only through Text and the delta handler history.
func (d *Decoder) ReadFrom(src io.Reader) (int64, error) {
	buf := make([]byte, readBufferSize)

	var total int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			total += int64(n)
			d.Feed(buf[:n])
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// Text returns the text accumulated so far.
func (d *Decoder) Text() string {
	return d.full.String()
}

// Stats returns a snapshot of the decoder counters.
func (d *Decoder) Stats() Stats {
	return d.stats
}

func (d *Decoder) processLine(line string) {
	d.stats.Lines++

	kind, data := parseFrame(line)
	switch kind {
	case frameIgnored:
		return
	case frameDone:
		d.stats.Frames++
		d.stats.Sentinels++
		return
	}

	d.stats.Frames++

	chunk, err := d.parser.ParseStreamChunk([]byte(data))
	if err != nil {
		d.stats.Malformed++
		d.logger.Warn("skipping malformed stream frame",
			"error", err,
			"data", utils.Truncate(data, 256),
		)
		return
	}

	if chunk == nil {
		return
	}
	if chunk.FinishReason != "" {
		d.stats.FinishReason = chunk.FinishReason
	}
	if chunk.Usage != nil {
		d.stats.Usage = chunk.Usage
	}
	if chunk.Content == "" {
		return
	}

	d.full.WriteString(chunk.Content)
	d.stats.Deltas++

	if d.onDelta != nil {
		d.onDelta(chunk.Content, d.full.String())
	}
}
