// Package synfire turns discrete fire events from up to a hundred
// concurrent sources into a bounded, perceptually balanced stereo mix.
// Sources are described by per-source parameter records, admitted through
// a capacity gate, routed onto a fixed bus graph and voiced either by the
// bus instruments or by a pooled oscillator bank for the focused source.
package synfire

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/synfire/synfire-go/internal/admission"
	intaudio "github.com/synfire/synfire-go/internal/audio"
	"github.com/synfire/synfire-go/internal/bus"
	"github.com/synfire/synfire-go/internal/pool"
	"github.com/synfire/synfire-go/internal/render"
	"github.com/synfire/synfire-go/internal/sched"
	"github.com/synfire/synfire-go/internal/voice"
)

const (
	// maxTotalVoices is the cross-bus voice budget. Layered voicings shed
	// layers before the graph gets anywhere near it.
	maxTotalVoices = 48
	// poolReleaseWindow extends a pooled resource's hold past the audible
	// note so a retrigger racing the release never loses its resource.
	poolReleaseWindow = 200 * time.Millisecond
	// defaultEvictAfter is how long an unused pooled resource survives.
	defaultEvictAfter = 60 * time.Second
)

type Option func(*engineConfig)

type engineConfig struct {
	admission  admission.Config
	graph      bus.Config
	spatial    bool
	sampleTap  func([]float32)
	warn       func(string)
	now        func() time.Time
	bufferSize time.Duration
	evictAfter time.Duration
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		admission:  admission.DefaultConfig(),
		graph:      bus.DefaultConfig(),
		evictAfter: defaultEvictAfter,
	}
}

// WithCapacity sets the concurrent-source ceiling enforced by admission.
func WithCapacity(n int) Option {
	return func(cfg *engineConfig) {
		cfg.admission.Capacity = n
	}
}

// WithAdmissionConfig replaces the whole admission tuning.
func WithAdmissionConfig(ac admission.Config) Option {
	return func(cfg *engineConfig) {
		cfg.admission = ac
	}
}

// WithGraphConfig replaces the bus graph tuning.
func WithGraphConfig(gc bus.Config) Option {
	return func(cfg *engineConfig) {
		cfg.graph = gc
	}
}

// WithSpatial enables the per-bus stereo positioning stage from the start.
func WithSpatial(enabled bool) Option {
	return func(cfg *engineConfig) {
		cfg.spatial = enabled
	}
}

// WithSampleTap installs a callback invoked with each generated stereo
// buffer. The callback runs on the audio thread; keep work brief and
// non-blocking.
func WithSampleTap(tap func([]float32)) Option {
	return func(cfg *engineConfig) {
		cfg.sampleTap = tap
	}
}

// WithWarnFunc installs the warning sink used for degraded-but-continuing
// conditions.
func WithWarnFunc(warn func(string)) Option {
	return func(cfg *engineConfig) {
		cfg.warn = warn
	}
}

// WithNowFunc injects the clock. Offline rendering and tests drive this.
func WithNowFunc(now func() time.Time) Option {
	return func(cfg *engineConfig) {
		cfg.now = now
	}
}

// WithBufferSize sets the device buffer size (latency/underrun tradeoff).
func WithBufferSize(d time.Duration) Option {
	return func(cfg *engineConfig) {
		cfg.bufferSize = d
	}
}

// WithIdleEviction sets how long unused pooled resources survive.
func WithIdleEviction(d time.Duration) Option {
	return func(cfg *engineConfig) {
		cfg.evictAfter = d
	}
}

// Engine is the audio engine. Create one with New, feed it OnFire events,
// and Start it to stream to the device (offline rendering drives Process
// directly instead).
type Engine struct {
	sampleRate int
	cfg        engineConfig

	table    *voice.Table
	assigner *voice.Assigner
	gate     *admission.Gate
	pool     *pool.Pool
	graph    *bus.Graph
	timers   *sched.Timers

	mu         sync.Mutex
	focused    int
	hasFocus   bool
	silenced   bool
	busAssign  map[int]bus.ID
	snapshot   *stateSnapshot
	sourcePosX map[int]float64

	normFactor atomic.Uint64 // float64 bits, global normalization

	audio *intaudio.Player

	// render-side state, see engine_render.go
	pendingMu    sync.Mutex
	pending      []trigger
	dropHits     bool
	silenceGraph bool
	hits         []*render.Hit
	poolBuf      []float32
	tapRing      [tapRingSize]float32
	tapMu        sync.Mutex
	tapPos       int

	evictStop chan struct{}
	evictOnce sync.Once
}

// New creates an engine at the given sample rate.
func New(sampleRate int, opts ...Option) (*Engine, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.warn == nil {
		cfg.warn = func(string) {}
	}
	if cfg.now != nil {
		cfg.admission.Now = cfg.now
	}

	e := &Engine{
		sampleRate: sampleRate,
		cfg:        cfg,
		table:      voice.NewTable(),
		assigner:   voice.NewAssigner(),
		gate:       admission.NewGate(cfg.admission),
		pool:       pool.New(sampleRate, cfg.now, cfg.warn),
		graph:      bus.NewGraph(sampleRate, cfg.graph, cfg.now),
		timers:     sched.New(),
		busAssign:  make(map[int]bus.ID),
		sourcePosX: make(map[int]float64),
		evictStop:  make(chan struct{}),
	}
	e.normFactor.Store(math.Float64bits(1))
	e.graph.SetSpatial(cfg.spatial)
	go e.evictLoop()
	return e, nil
}

// evictLoop is the low-frequency pool maintenance pass.
func (e *Engine) evictLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.pool.EvictIdle(e.cfg.evictAfter)
		case <-e.evictStop:
			return
		}
	}
}

// SoundEvent is one fire notification from a collaborator. Weight feeds
// velocity, SpeedHint shortens the note for fast activity, Isolated and
// PersistentInput feed admission priority, DistanceHint attenuates far
// sources.
type SoundEvent struct {
	Source          int
	Weight          float64
	SpeedHint       float64 // 0..1
	Isolated        bool
	PersistentInput bool
	DistanceHint    float64
}

// OnFire handles one fire event. Returns whether it produced sound.
func (e *Engine) OnFire(ev SoundEvent) bool {
	source := ev.Source
	if source < 0 {
		return false
	}
	e.mu.Lock()
	if e.silenced {
		e.mu.Unlock()
		return false
	}
	focused := e.hasFocus && source == e.focused
	posX, hasPos := e.sourcePosX[source]
	e.mu.Unlock()

	if !e.gate.CanPlay(source, ev.PersistentInput, ev.Isolated) {
		return false
	}

	p := e.table.Get(source)
	velocity := render.ComputeVelocity(ev.Weight, &p)
	if velocity <= 0 {
		return false // trimmed to the mute floor, no resource touched
	}
	velocity *= e.normalization() * distanceAttenuation(ev.DistanceHint)
	if velocity <= 0 {
		return false
	}
	freq := e.frequencyFor(source, &p)
	durScale := 1 - 0.3*clamp01(ev.SpeedHint)

	dest := e.graph.Classify(&p, source, focused, ev.PersistentInput)
	if e.graph.NoteRouted(dest) {
		e.timers.Schedule(-1, "duck-restore", e.graph.DuckHold(), e.graph.RestoreDuck)
	}
	if hasPos {
		e.graph.Bus(dest).Panner().PanFromOffset(posX)
	}

	// Classify already upgraded every focused non-organ source to the
	// focus bus; organ-class sources keep their bus even when focused.
	if dest == bus.Focus {
		e.firePooled(source, &p, freq, velocity, durScale)
	} else {
		e.fireBus(dest, &p, freq, velocity, durScale)
	}

	e.mu.Lock()
	e.busAssign[source] = dest
	e.mu.Unlock()
	e.gate.TrackActive(source)
	return true
}

// distanceAttenuation fades far sources, floored so distance alone never
// mutes a source the mixer admitted.
func distanceAttenuation(d float64) float64 {
	if d <= 0 {
		return 1
	}
	g := 1 - 0.04*d
	if g < 0.5 {
		g = 0.5
	}
	return g
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// frequencyFor resolves the sounding pitch: explicit base pitch wins, then
// the assignment override, then the stable band assignment.
func (e *Engine) frequencyFor(source int, p *voice.Params) float64 {
	if p.BasePitch > 0 {
		return p.BasePitch
	}
	as := e.assigner.Ensure(source)
	if as.Override > 0 {
		return as.Override
	}
	return as.BaseFrequency
}

// firePooled voices an event on the pooled oscillator bank feeding the
// focus bus. The pool quantizes pitch to semitones, so retriggers of the
// same source land on the same shared resource.
func (e *Engine) firePooled(source int, p *voice.Params, freq, velocity, durScale float64) {
	r := e.pool.Acquire(p.Osc, freq, source)

	sr := float64(e.sampleRate)
	dur := render.NoteDuration(p.Envelope) * durScale
	attack := int(p.Envelope.Attack * sr)
	hold := int(dur * sr)
	release := int(p.Envelope.Release * sr)
	e.pool.Trigger(r, float32(velocity), attack, hold, release)

	// The timer purpose carries the resource key: a re-fire on the same
	// resource extends the hold, while a re-fire that lands on a different
	// semitone must not cancel the first resource's release.
	window := time.Duration(dur*float64(time.Second)) + poolReleaseWindow
	key := r.Key
	purpose := fmt.Sprintf("pool-release-%d-%d", int(key.Timbre), key.Semitone)
	e.timers.Schedule(source, purpose, window, func() {
		e.pool.Release(key, source)
	})
}

// fireBus voices an event on a bus instrument via the pending queue, which
// the audio callback drains at block boundaries.
func (e *Engine) fireBus(dest bus.ID, p *voice.Params, freq, velocity, durScale float64) {
	durFrames := int(render.NoteDuration(p.Envelope) * durScale * float64(e.sampleRate))
	switch dest {
	case bus.Transient:
		e.enqueue(trigger{hit: render.BuildTransientHit(e.sampleRate, p, velocity)})
		// A sustained envelope carries a noise body on the bus instrument
		// under the pre-rendered attack; one-shot transients stay hit-only.
		if p.Envelope.Sustain > 0.001 {
			e.enqueue(trigger{
				dest:      dest,
				freq:      freq,
				velocity:  velocity * 0.4,
				env:       p.Envelope,
				durFrames: durFrames,
			})
		}
	case bus.Organ:
		budget := maxTotalVoices - e.graph.TotalActiveVoices()
		for _, note := range render.OrganVoicing(freq, velocity, budget) {
			e.enqueue(trigger{
				dest:      dest,
				freq:      note.Freq,
				velocity:  note.Level,
				env:       p.Envelope,
				durFrames: durFrames,
			})
		}
		// Breath layer: a faint filtered-noise attack under the pipe stack.
		if velocity > 0.2 {
			e.enqueue(trigger{hit: render.BuildTransientHit(e.sampleRate, p, velocity*0.12)})
		}
	default:
		e.enqueue(trigger{
			dest:      dest,
			freq:      freq,
			velocity:  velocity,
			env:       p.Envelope,
			durFrames: durFrames,
		})
	}
}

// SelectSource focuses a source: it bypasses admission and routes to the
// focus bus (organ-class sources keep their bus). Pass -1 to clear.
func (e *Engine) SelectSource(source int) {
	e.mu.Lock()
	e.focused = source
	e.hasFocus = source >= 0
	e.mu.Unlock()
	e.gate.SetFocus(source, source >= 0)
}

// SelectedSource returns the focused source, or -1.
func (e *Engine) SelectedSource() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasFocus {
		return -1
	}
	return e.focused
}

// UpdateParam applies a named parameter change to a source. Both flat
// legacy names ("filterFrequency") and nested forms ("filter.frequency")
// are accepted. Returns false for unknown names.
func (e *Engine) UpdateParam(source int, name string, value any) bool {
	return e.table.Update(source, name, value)
}

// UpdateSelectedParam applies a parameter change to the focused source.
// Returns false when nothing is focused or the name is unknown.
func (e *Engine) UpdateSelectedParam(name string, value any) bool {
	e.mu.Lock()
	focused, ok := e.focused, e.hasFocus
	e.mu.Unlock()
	if !ok {
		return false
	}
	return e.table.Update(focused, name, value)
}

// Params returns a copy of the effective parameter record for source.
func (e *Engine) Params(source int) voice.Params {
	return e.table.Get(source)
}

// SetPreviewMode toggles solo auditioning: while on, only the focused
// source is admitted.
func (e *Engine) SetPreviewMode(on bool) {
	e.gate.SetPreview(on)
}

// SetSpatialEnabled toggles the per-bus stereo positioning stage.
func (e *Engine) SetSpatialEnabled(on bool) {
	e.graph.SetSpatial(on)
}

// SetSourcePosition records a source's horizontal offset from the
// listener, used by the spatial stage the next time the source fires.
func (e *Engine) SetSourcePosition(source int, offsetX float64) {
	e.mu.Lock()
	e.sourcePosX[source] = offsetX
	e.mu.Unlock()
}

// SetMasterVolume sets the master trim in dB (0 = unity, -60 or below is
// silence).
func (e *Engine) SetMasterVolume(db float64) {
	e.graph.Master().Set(float32(render.VolumeToGain(db)))
}

// SetVolumeNormalization sets the global normalization factor multiplied
// into every event's velocity (1 = none).
func (e *Engine) SetVolumeNormalization(factor float64) {
	if factor < 0 {
		factor = 0
	}
	e.normFactor.Store(math.Float64bits(factor))
}

func (e *Engine) normalization() float64 {
	return math.Float64frombits(e.normFactor.Load())
}

// BusAssignment reports the bus the source's last admitted event routed
// to. The second return is false for sources that have never sounded.
func (e *Engine) BusAssignment(source int) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, ok := e.busAssign[source]
	if !ok {
		return "", false
	}
	return id.String(), true
}

// stateSnapshot is what SilenceAll captures for RestoreAll.
type stateSnapshot struct {
	assignments map[int]voice.Assignment
	buses       map[int]bus.ID
}

// SilenceSource cuts a source immediately: pending work cancelled, pooled
// holds dropped, parameter record and assignments retired.
func (e *Engine) SilenceSource(source int) {
	e.timers.CancelSource(source)
	e.gate.Untrack(source)
	e.pool.SilenceSource(source)
	e.table.Remove(source)
	e.assigner.Reassign(source)
	e.mu.Lock()
	delete(e.busAssign, source)
	e.mu.Unlock()
}

// SilenceAll cuts everything and blocks new events until RestoreAll. Pitch
// and bus assignments are snapshotted so RestoreAll brings every source
// back exactly as it was.
func (e *Engine) SilenceAll() {
	e.mu.Lock()
	e.silenced = true
	buses := make(map[int]bus.ID, len(e.busAssign))
	for k, v := range e.busAssign {
		buses[k] = v
	}
	e.snapshot = &stateSnapshot{
		assignments: e.assigner.Snapshot(),
		buses:       buses,
	}
	e.mu.Unlock()

	e.timers.CancelAll()
	e.gate.Reset()
	e.pool.SilenceAll()

	// The graph has no per-frame locking, so its reset runs on the audio
	// thread at the next block boundary, like triggers do.
	e.pendingMu.Lock()
	e.pending = nil
	e.dropHits = true
	e.silenceGraph = true
	e.pendingMu.Unlock()
}

// RestoreAll reverses SilenceAll.
func (e *Engine) RestoreAll() {
	e.mu.Lock()
	if e.snapshot != nil {
		e.assigner.Restore(e.snapshot.assignments)
		e.busAssign = e.snapshot.buses
		e.snapshot = nil
	}
	e.silenced = false
	e.mu.Unlock()
}

// Stats is a point-in-time view of engine accounting.
type Stats struct {
	ActiveSources int
	TotalVoices   int
	Pool          pool.Stats
	PendingTimers int
}

func (e *Engine) Stats() Stats {
	return Stats{
		ActiveSources: e.gate.ActiveCount(),
		TotalVoices:   e.graph.TotalActiveVoices(),
		Pool:          e.pool.Stats(),
		PendingTimers: e.timers.Pending(),
	}
}

// Start opens the audio device and begins streaming.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.audio != nil {
		e.audio.Play()
		return nil
	}
	backend, err := intaudio.NewPlayer(e.sampleRate, e, e.cfg.bufferSize)
	if err != nil {
		return err
	}
	e.audio = backend
	e.audio.Play()
	return nil
}

// Pause stops streaming without tearing anything down.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.audio != nil {
		e.audio.Pause()
	}
}

// Dispose tears the engine down: device closed, timers stopped, pooled
// resources released. The engine is unusable afterwards.
func (e *Engine) Dispose() error {
	e.evictOnce.Do(func() { close(e.evictStop) })

	// The device stops first so nothing below races the audio callback.
	e.mu.Lock()
	var err error
	if e.audio != nil {
		err = e.audio.Stop()
		e.audio = nil
	}
	e.mu.Unlock()

	e.timers.Stop()
	e.gate.Stop()
	e.pool.DisposeAll()
	e.graph.SilenceAll()
	e.clearPending()
	return err
}
