package synfire

import (
	"github.com/synfire/synfire-go/internal/bus"
	"github.com/synfire/synfire-go/internal/render"
	"github.com/synfire/synfire-go/internal/voice"
)

// tapRingSize is the length of the waveform tap exposed to visualizers.
const tapRingSize = 1024

// trigger is one unit of work handed from control goroutines to the audio
// callback. Bus instruments are single-threaded, so all triggering happens
// at block boundaries inside Process.
type trigger struct {
	dest      bus.ID
	freq      float64
	velocity  float64
	env       voice.Envelope
	durFrames int

	// hit, when set, is a pre-rendered percussion event for the transient
	// bus instead of an instrument note.
	hit *render.Hit
}

func (e *Engine) enqueue(t trigger) {
	e.pendingMu.Lock()
	e.pending = append(e.pending, t)
	e.pendingMu.Unlock()
}

func (e *Engine) clearPending() {
	e.pendingMu.Lock()
	e.pending = nil
	e.dropHits = true
	e.pendingMu.Unlock()
}

// drainPending applies queued triggers and any deferred graph reset.
// Called once per block from the audio callback, which is the only
// goroutine that touches e.hits or the graph's render state.
func (e *Engine) drainPending() {
	e.pendingMu.Lock()
	batch := e.pending
	e.pending = nil
	drop := e.dropHits
	e.dropHits = false
	silence := e.silenceGraph
	e.silenceGraph = false
	e.pendingMu.Unlock()

	if silence {
		e.graph.SilenceAll()
	}
	if drop {
		e.hits = nil
	}
	for _, t := range batch {
		if t.hit != nil {
			e.hits = append(e.hits, t.hit)
			continue
		}
		e.graph.Bus(t.dest).Instrument().Trigger(t.freq, t.velocity, t.env, t.durFrames)
	}
}

// transientFrame sums every live percussion hit and drops the drained
// ones. Runs on the audio callback only.
func (e *Engine) transientFrame() float32 {
	if len(e.hits) == 0 {
		return 0
	}
	var sum float32
	live := e.hits[:0]
	for _, h := range e.hits {
		s, ok := h.NextFrame()
		if ok {
			sum += s
		}
		if !h.Done() {
			live = append(live, h)
		}
	}
	e.hits = live
	return sum
}

// Process fills dst with interleaved stereo frames. It implements
// audio.SampleSource and is also driven directly by the offline renderer.
func (e *Engine) Process(dst []float32) {
	frames := len(dst) / 2
	if frames == 0 {
		return
	}
	e.drainPending()

	if cap(e.poolBuf) < frames {
		e.poolBuf = make([]float32, frames)
	}
	e.poolBuf = e.poolBuf[:frames]
	e.pool.Render(e.poolBuf)

	for i := 0; i < frames; i++ {
		l, r := e.graph.RenderFrame(e.poolBuf[i], e.transientFrame())
		dst[i*2] = l
		dst[i*2+1] = r
	}

	e.tapMu.Lock()
	for i := 0; i < frames; i++ {
		e.tapRing[e.tapPos] = (dst[i*2] + dst[i*2+1]) * 0.5
		e.tapPos = (e.tapPos + 1) % tapRingSize
	}
	e.tapMu.Unlock()

	if e.cfg.sampleTap != nil {
		e.cfg.sampleTap(dst)
	}
}

// Waveform copies out the most recent mono output, oldest sample first.
// Visualizers poll this instead of tapping the audio thread.
func (e *Engine) Waveform() []float32 {
	out := make([]float32, tapRingSize)
	e.tapMu.Lock()
	pos := e.tapPos
	n := copy(out, e.tapRing[pos:])
	copy(out[n:], e.tapRing[:pos])
	e.tapMu.Unlock()
	return out
}
