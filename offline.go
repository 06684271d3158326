package synfire

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/synfire/synfire-go/internal/script"
)

// offlineBlock is the block size used for offline rendering.
const offlineBlock = 256

// RenderSchedule renders a firing schedule to interleaved stereo samples
// without an audio device. The engine clock is driven from the render
// position, so admission decisions are deterministic for a given schedule.
func RenderSchedule(events []script.Event, sampleRate int, seconds float64, opts ...Option) ([]float32, error) {
	base := time.Unix(0, 0)
	now := base
	clock := func() time.Time { return now }

	e, err := New(sampleRate, append(opts, WithNowFunc(clock))...)
	if err != nil {
		return nil, err
	}
	defer e.Dispose()

	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames*2)
	idx := 0
	for frame := 0; frame < frames; frame += offlineBlock {
		t := time.Duration(frame) * time.Second / time.Duration(sampleRate)
		now = base.Add(t)
		for idx < len(events) && events[idx].At <= t {
			applyEvent(e, events[idx])
			idx++
		}
		n := offlineBlock
		if frame+n > frames {
			n = frames - frame
		}
		e.Process(out[frame*2 : (frame+n)*2])
	}
	return out, nil
}

func applyEvent(e *Engine, ev script.Event) {
	switch ev.Kind {
	case script.Fire:
		e.OnFire(SoundEvent{
			Source:          ev.Source,
			Weight:          ev.Weight,
			PersistentInput: ev.Persistent,
		})
	case script.Param:
		e.UpdateParam(ev.Source, ev.Name, ev.Value)
	case script.Select:
		e.SelectSource(ev.Source)
	}
}

// EncodeWAVFloat32LE wraps samples in a minimal IEEE-float WAV container.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
