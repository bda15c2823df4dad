// Package stream folds decoded SSE events into the final assistant text.
// It is used on the serving path (persisting the assembled message) and is
// written so a client could drive the same type for progressive rendering.
package stream

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dudgeon/chat-frontier-family/internal/sse"
)

// Result is the terminal outcome of one accumulation.
type Result struct {
	// Text is the ordered concatenation of every token delta seen before
	// the done sentinel (or end of input).
	Text string
	// FirstChunkMs is the wall-clock delay, in milliseconds, from the start
	// of accumulation to the first non-empty delta. Nil when no token ever
	// arrived. Measured once and frozen.
	FirstChunkMs *int64
	// ImageURL is the last image event seen, if any.
	ImageURL *string
	// Complete is true when the stream ended at the done sentinel or a
	// clean EOF. False means the source errored mid-stream and Text holds
	// the partial progress, which is never dropped.
	Complete bool
}

// Accumulator consumes stream events in arrival order. OnToken and OnImage,
// when set, are invoked synchronously for each event before the accumulator
// considers itself done, so concatenating the OnToken arguments reproduces
// the final text exactly.
type Accumulator struct {
	OnToken func(delta string)
	OnImage func(url string)

	sb       strings.Builder
	imageURL *string
	started  time.Time
	first    *int64
	done     bool

	now func() time.Time // test hook
}

// NewAccumulator starts a fresh accumulation; the latency clock begins now.
func NewAccumulator() *Accumulator {
	a := &Accumulator{now: time.Now}
	a.started = a.now()
	return a
}

// Consume folds one event. It returns false once the done sentinel has been
// seen; later events are ignored.
func (a *Accumulator) Consume(ev sse.Event) bool {
	if a.done {
		return false
	}
	switch ev.Kind {
	case sse.KindToken:
		if ev.Delta != "" && a.first == nil {
			ms := a.now().Sub(a.started).Milliseconds()
			a.first = &ms
		}
		a.sb.WriteString(ev.Delta)
		if a.OnToken != nil {
			a.OnToken(ev.Delta)
		}
	case sse.KindImage:
		url := ev.URL
		a.imageURL = &url
		if a.OnImage != nil {
			a.OnImage(url)
		}
	case sse.KindDone:
		a.done = true
		return false
	}
	// Unknown events are a no-op here; the decoder already kept their raw
	// payload for whoever wants to log them.
	return true
}

// Result snapshots the accumulated state. The Complete flag must come from
// Drain (or the caller's own knowledge of how the source ended).
func (a *Accumulator) result(complete bool) Result {
	return Result{
		Text:         a.sb.String(),
		FirstChunkMs: a.first,
		ImageURL:     a.imageURL,
		Complete:     complete,
	}
}

// Drain consumes the scanner to completion. A done sentinel and a clean end
// of input are treated identically; only a source read error marks the
// result incomplete, and even then the partial text is returned alongside
// the error so callers can persist it with a truncation marker.
func (a *Accumulator) Drain(sc *sse.Scanner) (Result, error) {
	for sc.Scan() {
		if !a.Consume(sc.Event()) {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return a.result(false), err
	}
	return a.result(true), nil
}

// flushWriter forwards writes straight to the client, flushing after each
// one so the tee'd accumulation never delays delivery of a frame.
type flushWriter struct {
	w io.Writer
	f http.Flusher
}

func (fw flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if fw.f != nil {
		fw.f.Flush()
	}
	return n, err
}

// NewFlushWriter wraps an http.ResponseWriter for use as the forwarding leg
// of a tee'd stream (io.TeeReader(upstream, NewFlushWriter(w))): one read
// source, the raw bytes forwarded untouched, the same bytes decoded for
// accumulation.
func NewFlushWriter(w io.Writer) io.Writer {
	fw := flushWriter{w: w}
	if f, ok := w.(http.Flusher); ok {
		fw.f = f
	}
	return fw
}
