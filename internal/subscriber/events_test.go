package subscriber

import "testing"

func TestEventEmitter_OnAndEmit(t *testing.T) {
	e := NewEventEmitter()

	var got []interface{}
	e.On("tick", func(data interface{}) { got = append(got, data) })
	e.On("tick", func(data interface{}) { got = append(got, data) })

	e.Emit("tick", 1)
	e.Emit("other", 2)

	if len(got) != 2 {
		t.Fatalf("expected both listeners invoked once, got %d calls", len(got))
	}
	if got[0] != 1 || got[1] != 1 {
		t.Fatalf("unexpected payloads %v", got)
	}
}

func TestEventEmitter_Once(t *testing.T) {
	e := NewEventEmitter()

	calls := 0
	e.Once("tick", func(data interface{}) { calls++ })

	e.Emit("tick", nil)
	e.Emit("tick", nil)

	if calls != 1 {
		t.Fatalf("once listener invoked %d times", calls)
	}
	if e.ListenerCount("tick") != 0 {
		t.Fatalf("once listener not removed after firing")
	}
}

func TestEventEmitter_Off(t *testing.T) {
	e := NewEventEmitter()

	calls := 0
	reg := e.On("tick", func(data interface{}) { calls++ })
	e.On("tick", func(data interface{}) {})

	e.Off("tick", reg)
	e.Emit("tick", nil)

	if calls != 0 {
		t.Fatalf("removed listener still invoked")
	}
	if e.ListenerCount("tick") != 1 {
		t.Fatalf("expected 1 remaining listener, got %d", e.ListenerCount("tick"))
	}
}

func TestEventEmitter_ListenerOrder(t *testing.T) {
	e := NewEventEmitter()

	var order []int
	e.On("tick", func(data interface{}) { order = append(order, 1) })
	e.On("tick", func(data interface{}) { order = append(order, 2) })
	e.On("tick", func(data interface{}) { order = append(order, 3) })

	e.Emit("tick", nil)

	for i, v := range order {
		if v != i+1 {
			t.Fatalf("listeners ran out of registration order: %v", order)
		}
	}
}
