// Package sse decodes Server-Sent-Events byte streams from the LLM provider
// into discrete stream events. The decoder is incremental: chunks may split
// frames at any byte boundary and decoding never waits for the full stream.
package sse

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// Kind tags the variants of a decoded stream event.
type Kind string

const (
	// KindToken is an incremental text fragment.
	KindToken Kind = "token"
	// KindImage is a fully-formed image reference, never incremental.
	KindImage Kind = "image"
	// KindDone is the terminal sentinel; no further events follow.
	KindDone Kind = "done"
	// KindUnknown is a parseable but unrecognized payload. Consumers skip
	// it, but the raw payload is kept for diagnostic logging.
	KindUnknown Kind = "unknown"
)

// Event is one decoded SSE frame.
type Event struct {
	Kind  Kind
	Delta string
	URL   string
	Raw   json.RawMessage
}

// framePayload covers the payload shapes the provider emits: a typed image
// frame, a direct delta, or the nested chat-completions delta path.
type framePayload struct {
	Type    string `json:"type"`
	URL     string `json:"url"`
	Delta   string `json:"delta"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

const doneSentinel = "[DONE]"

// ParseLine decodes a single SSE payload line into an event. The second
// return value is false when the line produces no event: not a data: line,
// or malformed JSON (which is swallowed, never an error).
func ParseLine(line string) (Event, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "data:") {
		return Event{}, false
	}
	payload := strings.TrimSpace(strings.TrimPrefix(trimmed, "data:"))
	if payload == doneSentinel {
		return Event{Kind: KindDone}, true
	}

	var frame framePayload
	if err := json.Unmarshal([]byte(payload), &frame); err != nil {
		return Event{}, false
	}
	if frame.Type == "image" && frame.URL != "" {
		return Event{Kind: KindImage, URL: frame.URL}, true
	}
	delta := frame.Delta
	if delta == "" && len(frame.Choices) > 0 {
		delta = frame.Choices[0].Delta.Content
	}
	if delta != "" {
		return Event{Kind: KindToken, Delta: delta}, true
	}
	return Event{Kind: KindUnknown, Raw: json.RawMessage(payload)}, true
}

// Decoder turns incrementally-delivered byte chunks into events. Frames are
// separated by a blank line; a frame's first line must start with "data:".
// After the [DONE] sentinel the decoder is closed and further input is
// discarded.
type Decoder struct {
	buf  []byte
	done bool
}

var frameSep = []byte("\n\n")

// Feed appends a chunk to the internal buffer and returns the events for
// every complete frame now available, in arrival order. Processed text is
// dropped from the buffer so frames are never re-emitted.
func (d *Decoder) Feed(chunk []byte) []Event {
	if d.done {
		return nil
	}
	d.buf = append(d.buf, chunk...)

	var events []Event
	for {
		i := bytes.Index(d.buf, frameSep)
		if i < 0 {
			return events
		}
		frame := string(d.buf[:i])
		d.buf = d.buf[i+len(frameSep):]

		ev, ok := decodeFrame(frame)
		if !ok {
			continue
		}
		events = append(events, ev)
		if ev.Kind == KindDone {
			d.done = true
			d.buf = nil
			return events
		}
	}
}

// Flush decodes whatever remains in the buffer as a final frame. Call once
// when the byte source is exhausted; a trailing frame without a closing
// blank line is not lost.
func (d *Decoder) Flush() []Event {
	if d.done || len(bytes.TrimSpace(d.buf)) == 0 {
		d.buf = nil
		return nil
	}
	frame := string(d.buf)
	d.buf = nil
	ev, ok := decodeFrame(frame)
	if !ok {
		return nil
	}
	if ev.Kind == KindDone {
		d.done = true
	}
	return []Event{ev}
}

// Done reports whether the [DONE] sentinel has been seen.
func (d *Decoder) Done() bool { return d.done }

// decodeFrame classifies one complete frame. Only the first line is the
// payload line; frames not starting with data: produce no event.
func decodeFrame(frame string) (Event, bool) {
	frame = strings.TrimSpace(frame)
	if frame == "" {
		return Event{}, false
	}
	line := frame
	if i := strings.IndexByte(frame, '\n'); i >= 0 {
		line = frame[:i]
	}
	return ParseLine(line)
}

// Scanner drives a Decoder from an io.Reader, exposing the events as a lazy,
// single-pass, forward-only sequence in the bufio.Scanner style:
//
//	sc := sse.NewScanner(resp.Body)
//	for sc.Scan() {
//		ev := sc.Event()
//		...
//	}
//	if err := sc.Err(); err != nil { ... }
//
// Restarting requires a new Scanner over a new source.
type Scanner struct {
	r       io.Reader
	dec     Decoder
	pending []Event
	ev      Event
	err     error
	eof     bool
	chunk   []byte
}

// NewScanner returns a Scanner reading SSE frames from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: r, chunk: make([]byte, 4096)}
}

// Scan advances to the next event. It returns false at the [DONE] sentinel,
// at end of input, or on a read error (check Err).
func (s *Scanner) Scan() bool {
	for {
		if len(s.pending) > 0 {
			s.ev = s.pending[0]
			s.pending = s.pending[1:]
			return true
		}
		if s.eof || s.dec.Done() {
			return false
		}
		n, err := s.r.Read(s.chunk)
		if n > 0 {
			s.pending = s.dec.Feed(s.chunk[:n])
		}
		if err != nil {
			s.eof = true
			if err != io.EOF {
				s.err = err
			} else {
				s.pending = append(s.pending, s.dec.Flush()...)
			}
		}
	}
}

// Event returns the event produced by the last successful Scan.
func (s *Scanner) Event() Event { return s.ev }

// Done reports whether the [DONE] sentinel has been decoded. False after
// Scan returns false means the source ended without the terminal frame.
func (s *Scanner) Done() bool { return s.dec.Done() }

// Err returns the first non-EOF error hit by the underlying reader. A nil
// error after Scan returns false means the stream ended cleanly.
func (s *Scanner) Err() error { return s.err }
