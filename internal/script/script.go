// Package script parses the plain-text firing schedules the offline
// renderer and demo CLI consume. One event per line, ordered by time:
//
//	# time_ms source weight [persistent]
//	0    3  0.8
//	120  7  1.0 persistent
//	250  select 3
//	300  param 7 attack 0.05
//
// Blank lines and # comments are ignored.
package script

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind discriminates schedule events.
type Kind int

const (
	// Fire triggers a source.
	Fire Kind = iota
	// Param updates one source parameter.
	Param
	// Select changes the focused source (-1 clears).
	Select
)

// Event is one scheduled action.
type Event struct {
	At     time.Duration
	Kind   Kind
	Source int

	// Fire fields
	Weight     float64
	Persistent bool

	// Param fields
	Name  string
	Value float64
}

// Parse reads a schedule. Events come back sorted by time; ties keep input
// order so a param change and a fire at the same instant apply in the
// order written.
func Parse(r io.Reader) ([]Event, error) {
	var events []Event
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ev, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At < events[j].At
	})
	return events, nil
}

func parseLine(line string) (Event, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Event{}, fmt.Errorf("expected at least 2 fields, got %d", len(fields))
	}

	ms, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || ms < 0 {
		return Event{}, fmt.Errorf("bad time %q", fields[0])
	}
	ev := Event{At: time.Duration(ms * float64(time.Millisecond))}

	switch fields[1] {
	case "select":
		if len(fields) != 3 {
			return Event{}, fmt.Errorf("select takes one source argument")
		}
		src, err := strconv.Atoi(fields[2])
		if err != nil {
			return Event{}, fmt.Errorf("bad source %q", fields[2])
		}
		ev.Kind = Select
		ev.Source = src
		return ev, nil
	case "param":
		if len(fields) != 5 {
			return Event{}, fmt.Errorf("param takes source, name and value")
		}
		src, err := strconv.Atoi(fields[2])
		if err != nil || src < 0 {
			return Event{}, fmt.Errorf("bad source %q", fields[2])
		}
		val, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return Event{}, fmt.Errorf("bad value %q", fields[4])
		}
		ev.Kind = Param
		ev.Source = src
		ev.Name = fields[3]
		ev.Value = val
		return ev, nil
	}

	// Fire line: source weight [persistent]
	src, err := strconv.Atoi(fields[1])
	if err != nil || src < 0 {
		return Event{}, fmt.Errorf("bad source %q", fields[1])
	}
	ev.Kind = Fire
	ev.Source = src
	ev.Weight = 1
	if len(fields) >= 3 {
		w, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Event{}, fmt.Errorf("bad weight %q", fields[2])
		}
		ev.Weight = w
	}
	for _, f := range fields[3:] {
		switch f {
		case "persistent":
			ev.Persistent = true
		default:
			return Event{}, fmt.Errorf("unknown flag %q", f)
		}
	}
	return ev, nil
}
