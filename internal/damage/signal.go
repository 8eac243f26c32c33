package damage

// NodeHandler observes a pack passing through a node.
type NodeHandler func(n *Node, p *Pack)

// MeterHandler observes a meter reacting to a pack.
type MeterHandler func(m *MeterNode, p *Pack)

// Signal is an ordered registry of handlers for one event kind.
type Signal[H any] struct {
	nextID   int
	bindings []binding[H]
}

type binding[H any] struct {
	id      int
	handler H
}

// Add registers a handler and returns an id for Remove.
func (s *Signal[H]) Add(handler H) int {
	s.nextID++
	s.bindings = append(s.bindings, binding[H]{id: s.nextID, handler: handler})
	return s.nextID
}

// Remove unregisters the handler with the given id.
func (s *Signal[H]) Remove(id int) bool {
	for i, b := range s.bindings {
		if b.id == id {
			s.bindings = append(s.bindings[:i:i], s.bindings[i+1:]...)
			return true
		}
	}
	return false
}

// Clear drops all handlers.
func (s *Signal[H]) Clear() {
	s.bindings = nil
}

// Len returns the number of registered handlers.
func (s *Signal[H]) Len() int {
	return len(s.bindings)
}

// handlers snapshots the registry so handlers added while emitting wait for
// the next emit.
func (s *Signal[H]) handlers() []H {
	out := make([]H, len(s.bindings))
	for i, b := range s.bindings {
		out[i] = b.handler
	}
	return out
}

func emitNode(s *Signal[NodeHandler], n *Node, p *Pack) {
	for _, h := range s.handlers() {
		h(n, p)
	}
}

func emitMeter(s *Signal[MeterHandler], m *MeterNode, p *Pack) {
	for _, h := range s.handlers() {
		h(m, p)
	}
}
