package timing

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type labeledEvent struct {
	*EventBase
	label string
}

type recordingHandler struct {
	engine  *SerialEngine
	handled []string
	times   []VTimeInSec
	follow  map[string]labeledEvent
	failOn  string
}

func (h *recordingHandler) Handle(e Event) error {
	evt := e.(labeledEvent)
	h.handled = append(h.handled, evt.label)
	h.times = append(h.times, h.engine.Now())

	if next, ok := h.follow[evt.label]; ok {
		h.engine.Schedule(next)
	}

	if evt.label == h.failOn {
		return errors.New("handler failed")
	}

	return nil
}

var _ = Describe("SerialEngine", func() {
	var (
		engine  *SerialEngine
		handler *recordingHandler
	)

	makeEvent := func(label string, t VTimeInSec, secondary bool) labeledEvent {
		base := NewEventBase(t, handler)
		base.secondary = secondary

		return labeledEvent{EventBase: base, label: label}
	}

	BeforeEach(func() {
		engine = NewSerialEngine()
		handler = &recordingHandler{
			engine: engine,
			follow: make(map[string]labeledEvent),
		}
	})

	It("should handle events in time order", func() {
		engine.Schedule(makeEvent("b", 2, false))
		engine.Schedule(makeEvent("a", 1, false))
		engine.Schedule(makeEvent("c", 3, false))

		Expect(engine.Run()).To(Succeed())

		Expect(handler.handled).To(Equal([]string{"a", "b", "c"}))
		Expect(handler.times).To(Equal([]VTimeInSec{1, 2, 3}))
	})

	It("should keep push order for same-time events", func() {
		engine.Schedule(makeEvent("first", 1, false))
		engine.Schedule(makeEvent("second", 1, false))

		Expect(engine.Run()).To(Succeed())

		Expect(handler.handled).To(Equal([]string{"first", "second"}))
	})

	It("should handle secondary events after primary events", func() {
		engine.Schedule(makeEvent("secondary", 1, true))
		engine.Schedule(makeEvent("primary", 1, false))

		Expect(engine.Run()).To(Succeed())

		Expect(handler.handled).To(Equal([]string{"primary", "secondary"}))
	})

	It("should handle events scheduled by handlers", func() {
		handler.follow["a"] = makeEvent("b", 5, false)
		engine.Schedule(makeEvent("a", 1, false))

		Expect(engine.Run()).To(Succeed())

		Expect(handler.handled).To(Equal([]string{"a", "b"}))
	})

	It("should stop at handler error", func() {
		handler.failOn = "a"
		engine.Schedule(makeEvent("a", 1, false))
		engine.Schedule(makeEvent("b", 2, false))

		Expect(engine.Run()).To(MatchError(ContainSubstring("handler failed")))
		Expect(handler.handled).To(Equal([]string{"a"}))
	})

	It("should panic when scheduling in the past", func() {
		engine.Schedule(makeEvent("a", 2, false))
		Expect(engine.Run()).To(Succeed())

		Expect(func() {
			engine.Schedule(makeEvent("b", 1, false))
		}).To(Panic())
	})
})
