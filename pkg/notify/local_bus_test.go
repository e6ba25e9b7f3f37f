package notify

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLocalBus_PublishSubscribe(t *testing.T) {
	bus := NewLocalBus(16)
	defer bus.Close()

	ch1, err := bus.Subscribe("renderer")
	if err != nil {
		t.Fatal(err)
	}
	ch2, err := bus.Subscribe("dashboard")
	if err != nil {
		t.Fatal(err)
	}

	err = bus.Publish(context.Background(), &Transition{
		LightID: "light-1",
		Phase:   "green",
		Seq:     1,
		At:      time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, ch := range []<-chan *Transition{ch1, ch2} {
		select {
		case tr := <-ch:
			if tr.LightID != "light-1" || tr.Phase != "green" {
				t.Errorf("unexpected transition %+v", tr)
			}
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for transition")
		}
	}
}

func TestLocalBus_DuplicateSubscribe(t *testing.T) {
	bus := NewLocalBus(16)
	defer bus.Close()

	if _, err := bus.Subscribe("renderer"); err != nil {
		t.Fatal(err)
	}
	if _, err := bus.Subscribe("renderer"); err == nil {
		t.Error("expected error on duplicate subscribe")
	}
	if _, err := bus.Subscribe(""); err == nil {
		t.Error("expected error on empty subscriber id")
	}
}

func TestLocalBus_Unsubscribe(t *testing.T) {
	bus := NewLocalBus(16)
	defer bus.Close()

	ch, err := bus.Subscribe("renderer")
	if err != nil {
		t.Fatal(err)
	}
	if err := bus.Unsubscribe("renderer"); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed")
	}
	if err := bus.Unsubscribe("renderer"); err != nil {
		t.Errorf("expected unsubscribe of unknown id to be a no-op, got %v", err)
	}

	err = bus.Publish(context.Background(), &Transition{LightID: "light-1", Phase: "red"})
	if err != nil {
		t.Errorf("expected no error publishing without subscribers, got %v", err)
	}
}

func TestLocalBus_Close(t *testing.T) {
	bus := NewLocalBus(16)
	ch, err := bus.Subscribe("renderer")
	if err != nil {
		t.Fatal(err)
	}

	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed")
	}
	if _, err := bus.Subscribe("other"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed on subscribe, got %v", err)
	}
	err = bus.Publish(context.Background(), &Transition{LightID: "light-1"})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed on publish, got %v", err)
	}
	if bus.Healthy() {
		t.Error("expected closed bus to be unhealthy")
	}
}

func TestLocalBus_BufferOverflowDropsOldest(t *testing.T) {
	bus := NewLocalBus(2)
	defer bus.Close()

	ch, err := bus.Subscribe("slow")
	if err != nil {
		t.Fatal(err)
	}

	for i := uint64(1); i <= 3; i++ {
		if err := bus.Publish(context.Background(), &Transition{LightID: "light-1", Seq: i}); err != nil {
			t.Fatal(err)
		}
	}

	first := <-ch
	second := <-ch
	if first.Seq != 2 || second.Seq != 3 {
		t.Errorf("expected seq 2 and 3 after overflow, got %d and %d", first.Seq, second.Seq)
	}
}

func TestLocalBus_InvalidTransition(t *testing.T) {
	bus := NewLocalBus(16)
	defer bus.Close()

	if err := bus.Publish(context.Background(), nil); !errors.Is(err, ErrNilTransition) {
		t.Errorf("expected ErrNilTransition, got %v", err)
	}
	if err := bus.Publish(context.Background(), &Transition{}); !errors.Is(err, ErrEmptyLightID) {
		t.Errorf("expected ErrEmptyLightID, got %v", err)
	}
}

func TestTransition_EncodeDecode(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	in := &Transition{LightID: "light-7", Phase: "green", Seq: 4, Elapsed: 4500 * time.Millisecond, At: at}

	data, err := in.Encode()
	if err != nil {
		t.Fatal(err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if out.LightID != in.LightID || out.Phase != in.Phase || out.Seq != in.Seq ||
		out.Elapsed != in.Elapsed || !out.At.Equal(in.At) {
		t.Errorf("decoded %+v, want %+v", out, in)
	}

	if _, err := Decode([]byte("{")); err == nil {
		t.Error("expected decode error for malformed input")
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.Publish(context.Background(), nil); err != nil {
		t.Errorf("expected nop publish to succeed, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("expected nop close to succeed, got %v", err)
	}
}
