package statuspanel

import "errors"

// ErrNotConnected is returned when disconnecting a signal with no handlers.
var ErrNotConnected = errors.New("signal has no connected handlers")

// Signal is a list of handlers run in connection order on Emit.
type Signal struct {
	name     string
	handlers []func()
}

// NewSignal creates a named signal.
func NewSignal(name string) *Signal {
	return &Signal{name: name}
}

// Name returns the signal's name.
func (s *Signal) Name() string {
	return s.name
}

// Connect adds handler.
func (s *Signal) Connect(handler func()) {
	s.handlers = append(s.handlers, handler)
}

// Disconnect removes every handler.
func (s *Signal) Disconnect() error {
	if len(s.handlers) == 0 {
		return ErrNotConnected
	}
	s.handlers = nil
	return nil
}

// Connected returns the number of handlers.
func (s *Signal) Connected() int {
	return len(s.handlers)
}

// Emit runs every handler.
func (s *Signal) Emit() {
	handlers := append([]func(){}, s.handlers...)
	for _, h := range handlers {
		h()
	}
}
