package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/synfire/synfire-go"
	"github.com/synfire/synfire-go/internal/script"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		schedule   = flag.String("file", "", "path to a firing schedule")
		wavPath    = flag.String("wav", "", "render the schedule offline to a WAV file instead of playing")
		seconds    = flag.Float64("seconds", 10, "render/play length in seconds")
		sources    = flag.Int("sources", 16, "random demo: number of sources")
		rate       = flag.Float64("rate", 8, "random demo: fires per second")
		capacity   = flag.Int("capacity", 0, "concurrent-source ceiling (0 = default)")
		volume     = flag.Float64("volume", 0, "master volume in dB")
		spatial    = flag.Bool("spatial", false, "enable stereo positioning")
		normalize  = flag.Float64("normalize", 1, "global volume normalization factor")
		seed       = flag.Int64("seed", 1, "random demo: rng seed")
	)
	flag.Parse()

	var opts []synfire.Option
	if *capacity > 0 {
		opts = append(opts, synfire.WithCapacity(*capacity))
	}
	if *spatial {
		opts = append(opts, synfire.WithSpatial(true))
	}
	opts = append(opts, synfire.WithWarnFunc(func(msg string) {
		log.Println("warn:", msg)
	}))

	if *wavPath != "" {
		if err := renderToWAV(*schedule, *wavPath, *sampleRate, *seconds, opts); err != nil {
			log.Fatal(err)
		}
		return
	}

	eng, err := synfire.New(*sampleRate, opts...)
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Dispose()
	eng.SetMasterVolume(*volume)
	eng.SetVolumeNormalization(*normalize)
	if err := eng.Start(); err != nil {
		log.Fatal(err)
	}

	if *schedule != "" {
		if err := playSchedule(eng, *schedule, *seconds); err != nil {
			log.Fatal(err)
		}
		return
	}
	runRandomDemo(eng, *sources, *rate, *seconds, *seed)
}

// playSchedule replays a schedule file in real time.
func playSchedule(eng *synfire.Engine, path string, seconds float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	events, err := script.Parse(f)
	f.Close()
	if err != nil {
		return err
	}

	start := time.Now()
	for _, ev := range events {
		time.Sleep(time.Until(start.Add(ev.At)))
		switch ev.Kind {
		case script.Fire:
			eng.OnFire(synfire.SoundEvent{
				Source:          ev.Source,
				Weight:          ev.Weight,
				PersistentInput: ev.Persistent,
			})
		case script.Param:
			eng.UpdateParam(ev.Source, ev.Name, ev.Value)
		case script.Select:
			eng.SelectSource(ev.Source)
		}
	}
	tail := time.Duration(seconds*float64(time.Second)) - time.Since(start)
	if tail > 0 {
		time.Sleep(tail)
	}
	printStats(eng)
	return nil
}

// runRandomDemo fires random sources at the given rate, the closest thing
// to the live workload without a network attached.
func runRandomDemo(eng *synfire.Engine, sources int, rate, seconds float64, seed int64) {
	if sources < 1 {
		sources = 1
	}
	rng := rand.New(rand.NewSource(seed))
	interval := time.Duration(float64(time.Second) / rate)
	deadline := time.Now().Add(time.Duration(seconds * float64(time.Second)))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fmt.Printf("firing %d sources at %.1f/s for %.1fs\n", sources, rate, seconds)
	for now := range ticker.C {
		if now.After(deadline) {
			break
		}
		eng.OnFire(synfire.SoundEvent{
			Source:          rng.Intn(sources),
			Weight:          0.4 + rng.Float64()*0.6,
			SpeedHint:       rng.Float64() * 0.5,
			PersistentInput: rng.Float64() < 0.1,
		})
	}
	printStats(eng)
}

func renderToWAV(schedulePath, wavPath string, sampleRate int, seconds float64, opts []synfire.Option) error {
	var events []script.Event
	if schedulePath != "" {
		f, err := os.Open(schedulePath)
		if err != nil {
			return err
		}
		events, err = script.Parse(f)
		f.Close()
		if err != nil {
			return err
		}
	} else {
		events = demoSchedule()
	}

	samples, err := synfire.RenderSchedule(events, sampleRate, seconds, opts...)
	if err != nil {
		return err
	}
	wav := synfire.EncodeWAVFloat32LE(samples, sampleRate, 2)
	if err := os.WriteFile(wavPath, wav, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d frames)\n", wavPath, len(samples)/2)
	return nil
}

// demoSchedule builds a small built-in schedule when no file is given.
func demoSchedule() []script.Event {
	var sb strings.Builder
	for i := 0; i < 32; i++ {
		fmt.Fprintf(&sb, "%d %d %.2f\n", i*120, i%8, 0.5+float64(i%4)*0.1)
	}
	events, _ := script.Parse(strings.NewReader(sb.String()))
	return events
}

func printStats(eng *synfire.Engine) {
	s := eng.Stats()
	fmt.Printf("active sources: %d  voices: %d  pool: %d current / %d created / %d peak\n",
		s.ActiveSources, s.TotalVoices, s.Pool.Current, s.Pool.Created, s.Pool.Peak)
}
