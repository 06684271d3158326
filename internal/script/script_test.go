package script

import (
	"strings"
	"testing"
	"time"
)

func TestParseFireLines(t *testing.T) {
	in := `
# warmup
0    3  0.8
120  7  1.0 persistent
250  4
`
	events, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Kind != Fire || events[0].Source != 3 || events[0].Weight != 0.8 {
		t.Errorf("event 0 = %+v", events[0])
	}
	if !events[1].Persistent || events[1].At != 120*time.Millisecond {
		t.Errorf("event 1 = %+v", events[1])
	}
	// Weight defaults to 1 when omitted.
	if events[2].Weight != 1 {
		t.Errorf("event 2 weight = %f, want 1", events[2].Weight)
	}
}

func TestParseDirectives(t *testing.T) {
	in := `
100 select 3
200 param 3 attack 0.05
300 select -1
`
	events, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if events[0].Kind != Select || events[0].Source != 3 {
		t.Errorf("select = %+v", events[0])
	}
	if events[1].Kind != Param || events[1].Name != "attack" || events[1].Value != 0.05 {
		t.Errorf("param = %+v", events[1])
	}
	if events[2].Kind != Select || events[2].Source != -1 {
		t.Errorf("clear select = %+v", events[2])
	}
}

func TestParseSortsByTime(t *testing.T) {
	in := "500 1 0.5\n100 2 0.5\n"
	events, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if events[0].Source != 2 || events[1].Source != 1 {
		t.Errorf("events not sorted: %+v", events)
	}
}

func TestParseKeepsTieOrder(t *testing.T) {
	in := "100 param 3 attack 0.05\n100 3 0.5\n"
	events, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if events[0].Kind != Param || events[1].Kind != Fire {
		t.Error("same-time events should keep input order")
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"abc 1 0.5",      // bad time
		"-5 1 0.5",       // negative time
		"100 x 0.5",      // bad source
		"100 1 heavy",    // bad weight
		"100 1 0.5 loud", // unknown flag
		"100 param 1 a",  // short param
		"100 select",     // short select
	}
	for _, in := range cases {
		if _, err := Parse(strings.NewReader(in)); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestParseReportsLineNumber(t *testing.T) {
	in := "0 1 0.5\nbroken line here\n"
	_, err := Parse(strings.NewReader(in))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should name the line, got %v", err)
	}
}
