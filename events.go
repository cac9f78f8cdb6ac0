package gridgo

// EventType identifies a lifecycle or value notification emitted by the
// engine. Dispatch in this core is synchronous; pooled asynchronous delivery
// belongs to the embedding application.
type EventType uint8

const (
	OnBeforeNewValue EventType = iota + 1
	OnNewValue
	OnCreate
	OnDelete
	OnRecalculate
)

var eventNames = map[EventType]string{
	OnBeforeNewValue: "OnBeforeNewValue",
	OnNewValue:       "OnNewValue",
	OnCreate:         "OnCreate",
	OnDelete:         "OnDelete",
	OnRecalculate:    "OnRecalculate",
}

func (e EventType) String() string {
	if s, ok := eventNames[e]; ok {
		return s
	}
	return "Unknown"
}

// EventListener receives table notifications.
//
// BeforeValueChange may return ErrBlocked to veto the pending commit; the
// engine then treats the write as a no-op, not an error. Any other non-nil
// return is surfaced to the writer.
type EventListener interface {
	BeforeValueChange(cell *Cell, oldValue, newValue any) error
	OnEvent(evt EventType, source any, value any)
}

// ListenerFunc adapts a plain function to the non-vetoing half of
// EventListener.
type ListenerFunc func(evt EventType, source any, value any)

func (f ListenerFunc) BeforeValueChange(*Cell, any, any) error { return nil }

func (f ListenerFunc) OnEvent(evt EventType, source any, value any) {
	f(evt, source, value)
}
