package gpio

import (
	"errors"
	"testing"
	"time"
)

func TestFakeChipWatchAndInject(t *testing.T) {
	f := NewFakeChip()

	var got []time.Duration
	if err := f.Watch(26, func(sinceBoot time.Duration) {
		got = append(got, sinceBoot)
	}); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	f.InjectEdge(26, 100*time.Millisecond)
	f.InjectEdge(26, 250*time.Millisecond)

	if len(got) != 2 {
		t.Fatalf("handler calls: got %d, want 2", len(got))
	}
	if got[0] != 100*time.Millisecond || got[1] != 250*time.Millisecond {
		t.Errorf("timestamps: got %v", got)
	}
}

func TestFakeChipDuplicateWatch(t *testing.T) {
	f := NewFakeChip()
	if err := f.Watch(26, func(time.Duration) {}); err != nil {
		t.Fatalf("first Watch: %v", err)
	}
	if err := f.Watch(26, func(time.Duration) {}); err == nil {
		t.Error("expected error on duplicate Watch")
	}
}

func TestFakeChipInjectUnwatchedPanics(t *testing.T) {
	f := NewFakeChip()
	defer func() {
		if recover() == nil {
			t.Error("expected panic on unwatched pin")
		}
	}()
	f.InjectEdge(5, time.Second)
}

func TestFakeChipWatchError(t *testing.T) {
	f := NewFakeChip()
	f.WatchError = errors.New("boom")
	if err := f.Watch(26, func(time.Duration) {}); err == nil {
		t.Error("expected WatchError")
	}
}

func TestFakeChipOutputs(t *testing.T) {
	f := NewFakeChip()

	if err := f.SetOutput(5, true); err == nil {
		t.Error("expected error setting unrequested output")
	}
	if _, err := f.Toggle(5); err == nil {
		t.Error("expected error toggling unrequested output")
	}

	if err := f.RequestOutput(5); err != nil {
		t.Fatalf("RequestOutput: %v", err)
	}
	if f.OutputState(5) {
		t.Error("output should start off")
	}

	if err := f.SetOutput(5, true); err != nil {
		t.Fatalf("SetOutput: %v", err)
	}
	if !f.OutputState(5) {
		t.Error("output should be on after SetOutput(true)")
	}

	on, err := f.Toggle(5)
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if on {
		t.Error("Toggle should have turned output off")
	}
	if f.OutputState(5) {
		t.Error("output state should be off after toggle")
	}
}

func TestFakeChipOutputError(t *testing.T) {
	f := NewFakeChip()
	f.OutputError = errors.New("boom")
	if err := f.RequestOutput(5); err == nil {
		t.Error("expected OutputError from RequestOutput")
	}
	if err := f.SetOutput(5, true); err == nil {
		t.Error("expected OutputError from SetOutput")
	}
	if _, err := f.Toggle(5); err == nil {
		t.Error("expected OutputError from Toggle")
	}
}

func TestFakeChipClose(t *testing.T) {
	f := NewFakeChip()
	if f.Closed() {
		t.Error("new chip should not be closed")
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !f.Closed() {
		t.Error("chip should report closed")
	}
}
