package session

import "carbon-portal/internal/domain/identity"

type EventType string

const (
	EventReady       EventType = "session:ready"
	EventLogin       EventType = "session:login"
	EventLogout      EventType = "session:logout"
	EventForceLogout EventType = "session:force_logout"
)

// Event describes a change of the provider's state.
type Event struct {
	Type     EventType
	Identity *identity.Identity
	Reason   string
}

// Subscribe registers fn for every future event. Handlers run on the
// goroutine that caused the change and must not block.
func (p *Provider) Subscribe(fn func(Event)) (cancel func()) {
	p.subMu.Lock()
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = fn
	p.subMu.Unlock()

	return func() {
		p.subMu.Lock()
		delete(p.subscribers, id)
		p.subMu.Unlock()
	}
}

func (p *Provider) emit(ev Event) {
	p.subMu.RLock()
	fns := make([]func(Event), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		fns = append(fns, fn)
	}
	p.subMu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}
