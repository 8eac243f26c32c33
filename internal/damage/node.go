package damage

import (
	"fmt"
	"slices"
	"strings"

	bmerr "github.com/CWDN/battle-monsters/internal/errors"
	"github.com/CWDN/battle-monsters/internal/logger"
	"github.com/sirupsen/logrus"
)

// Operator is the per-pack operation a node applies to packs matching its
// tags. A node without an operator passes packs through untouched.
type Operator interface {
	Operate(n *Node, p *Pack)
}

// OperatorFunc adapts a function into an Operator. Custom routing operators
// usually turn off DoDefaultDispatch and call Dispatch themselves.
type OperatorFunc func(n *Node, p *Pack)

// Operate calls f(n, p).
func (f OperatorFunc) Operate(n *Node, p *Pack) {
	f(n, p)
}

// Kind names the variant of a node.
type Kind string

const (
	KindPipeline   Kind = "PipelineNode"
	KindMeter      Kind = "MeterNode"
	KindMultiplier Kind = "Multiplier"
	KindCustom     Kind = "Custom"
)

// Node is a pipeline tree node. It receives packs, applies its operator to
// the ones matching its tags, and forwards them to a child.
//
// A tree is not safe for concurrent use. Callers serialize all Receive
// calls for one tree.
type Node struct {
	// DefaultChildIndex is the child used by DispatchDefault.
	DefaultChildIndex int
	// DoDefaultDispatch forwards every processed pack to the default child.
	DoDefaultDispatch bool
	// ProcessOnReceive runs Process as soon as a pack arrives.
	ProcessOnReceive bool
	// ProcessTopDown walks each pack parent-first instead of deepest-first.
	// The first match takes its whole subtree along when dispatched, so
	// descendants are not operated on by this node.
	ProcessTopDown bool

	// OnDispatch fires after a pack is handed to a child.
	OnDispatch Signal[NodeHandler]
	// OnExhaust is never fired by the node itself; operators fire it
	// through Exhaust.
	OnExhaust Signal[NodeHandler]

	name     string
	tags     []Tag
	children []*Node
	parent   *Node
	op       Operator

	pending    []*Pack
	current    *Pack
	processing bool
}

// NodeOption configures a node in NewNode.
type NodeOption func(*Node) error

// WithNodeTags sets the tags a pack must match (any of) to be operated on.
func WithNodeTags(tags ...Tag) NodeOption {
	return func(n *Node) error {
		for _, tag := range tags {
			if err := n.AddTag(tag); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithChildren appends children in order.
func WithChildren(children ...*Node) NodeOption {
	return func(n *Node) error {
		for _, child := range children {
			if err := n.AddChild(child); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithDefaultChildIndex selects the default output.
func WithDefaultChildIndex(i int) NodeOption {
	return func(n *Node) error {
		n.DefaultChildIndex = i
		return nil
	}
}

// WithDefaultDispatch toggles automatic forwarding.
func WithDefaultDispatch(enabled bool) NodeOption {
	return func(n *Node) error {
		n.DoDefaultDispatch = enabled
		return nil
	}
}

// WithProcessOnReceive toggles immediate processing.
func WithProcessOnReceive(enabled bool) NodeOption {
	return func(n *Node) error {
		n.ProcessOnReceive = enabled
		return nil
	}
}

// WithProcessTopDown selects parent-first traversal.
func WithProcessTopDown(enabled bool) NodeOption {
	return func(n *Node) error {
		n.ProcessTopDown = enabled
		return nil
	}
}

// WithOperator installs the per-pack operation.
func WithOperator(op Operator) NodeOption {
	return func(n *Node) error {
		n.op = op
		return nil
	}
}

// NewNode creates a passthrough node that processes on receive and
// dispatches to child 0.
func NewNode(name string, opts ...NodeOption) (*Node, error) {
	n := newNode(name)
	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, bmerr.Wrapf(err, "failed to create node %q", name)
		}
	}
	return n, nil
}

func newNode(name string) *Node {
	return &Node{
		name:              name,
		DoDefaultDispatch: true,
		ProcessOnReceive:  true,
	}
}

// Name returns the node name, unique among its siblings.
func (n *Node) Name() string {
	return n.name
}

// Kind reports the node variant from its operator.
func (n *Node) Kind() Kind {
	switch n.op.(type) {
	case nil:
		return KindPipeline
	case *MeterNode:
		return KindMeter
	case *Multiplier:
		return KindMultiplier
	default:
		return KindCustom
	}
}

// Operator returns the installed operator, nil for passthrough nodes.
func (n *Node) Operator() Operator {
	return n.op
}

// Meter returns the meter behind this node, if it is a meter node.
func (n *Node) Meter() (*MeterNode, bool) {
	m, ok := n.op.(*MeterNode)
	return m, ok
}

// Parent returns the node this one is attached to, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Receive queues a pack and, when ProcessOnReceive is set, processes it.
// A nil pack is a programming error and panics. Packs with an unknown mode
// or a non-finite value are refused with an error and never queued.
func (n *Node) Receive(p *Pack) error {
	if p == nil {
		panic(fmt.Sprintf("damage: node %q received a nil pack", n.name))
	}
	if err := p.Validate(); err != nil {
		return bmerr.Wrapf(err, "node %q refused pack", n.name)
	}

	n.pending = append(n.pending, p)
	if n.ProcessOnReceive {
		n.Process()
	}
	return nil
}

// Pending returns how many received packs wait for Process.
func (n *Node) Pending() int {
	return len(n.pending)
}

// Process runs the operator over every pending pack and dispatches them.
// Packs received while processing are handled in the same call, in
// receipt order.
func (n *Node) Process() {
	if n.processing {
		return
	}
	n.processing = true
	defer func() {
		n.processing = false
		n.current = nil
	}()

	for len(n.pending) > 0 {
		root := n.pending[0]
		n.pending[0] = nil
		n.pending = n.pending[1:]
		n.processRoot(root)
	}
	n.pending = nil
}

func (n *Node) processRoot(root *Pack) {
	n.current = root

	if n.ProcessTopDown {
		n.processTopDown(root)
		return
	}

	for _, p := range root.AllPacks() {
		// Already left this node with an ancestor, or was extracted.
		if !root.Contains(p) {
			continue
		}
		if n.matches(p) {
			n.op.Operate(n, p)
		}
		if n.DoDefaultDispatch {
			n.DispatchDefault(p)
		}
	}
}

// processTopDown operates on the topmost matching pack of each branch and
// sends it on with its whole subtree. A pack that does not match is sent on
// without the branches that still hold a match; those are visited next.
func (n *Node) processTopDown(p *Pack) {
	if n.matches(p) {
		n.op.Operate(n, p)
		if n.DoDefaultDispatch {
			n.DispatchDefault(p)
		}
		return
	}

	var pending []*Pack
	for _, sub := range slices.Clone(p.SubPacks) {
		if !n.containsMatch(sub) {
			continue
		}
		if n.DoDefaultDispatch {
			p.ExtractSubPack(sub)
		}
		pending = append(pending, sub)
	}

	if n.DoDefaultDispatch {
		n.DispatchDefault(p)
	}

	for _, sub := range pending {
		// The operator may have routed it already.
		if !n.DoDefaultDispatch && !n.current.Contains(sub) {
			continue
		}
		n.processTopDown(sub)
	}
}

func (n *Node) matches(p *Pack) bool {
	return n.op != nil && p.HasTagInSlice(n.tags)
}

func (n *Node) containsMatch(p *Pack) bool {
	return slices.ContainsFunc(p.TopDownPacks(), n.matches)
}

// Dispatch hands p to child. The pack always leaves this node: a sub-pack
// is detached from the pack being processed first. Exhausted packs and a nil
// child end the pack's journey silently. It reports whether child received p.
func (n *Node) Dispatch(p *Pack, child *Node) bool {
	if n.current != nil && p != n.current {
		n.current.ExtractSubPack(p)
	}

	log := logger.Log.WithFields(logrus.Fields{
		"node":       n.name,
		"pack_value": p.Value(),
		"mode":       p.Mode.String(),
	})

	if p.Exhausted() {
		log.Debug("pack exhausted, not dispatching")
		return false
	}
	if child == nil {
		log.Debug("no child to dispatch to, dropping pack")
		return false
	}

	if err := child.Receive(p); err != nil {
		log.WithError(err).Warn("child refused pack")
		return false
	}

	emitNode(&n.OnDispatch, n, p)
	return true
}

// DispatchDefault dispatches p to the child at DefaultChildIndex.
func (n *Node) DispatchDefault(p *Pack) bool {
	var child *Node
	if n.DefaultChildIndex >= 0 && n.DefaultChildIndex < len(n.children) {
		child = n.children[n.DefaultChildIndex]
	}
	return n.Dispatch(p, child)
}

// DispatchTo dispatches p to the direct child called name.
func (n *Node) DispatchTo(p *Pack, name string) bool {
	return n.Dispatch(p, n.ChildByName(name))
}

// Exhaust fires OnExhaust. Operators call it when they consume a pack in a
// way worth announcing.
func (n *Node) Exhaust(p *Pack) {
	emitNode(&n.OnExhaust, n, p)
}

// ExtractPack removes p from the node's queued packs or from the pack being
// processed, and returns it. The pack currently being processed cannot
// extract itself.
func (n *Node) ExtractPack(p *Pack) *Pack {
	for i, queued := range n.pending {
		if queued == p {
			n.pending = slices.Delete(n.pending, i, i+1)
			return p
		}
		if found := queued.ExtractSubPack(p); found != nil {
			return found
		}
	}
	if n.current != nil && n.current != p {
		return n.current.ExtractSubPack(p)
	}
	return nil
}

// AddChild appends a child. The child must not already belong to another
// node, must not be an ancestor of n, and its name must be unique among n's
// children. On failure the tree is left unchanged.
func (n *Node) AddChild(child *Node) error {
	if child == nil {
		return bmerr.InvalidArgument("child node cannot be nil")
	}
	if n.ChildByName(child.name) != nil {
		return bmerr.AlreadyExistsf("node %q already has a child named %q", n.name, child.name).
			WithMeta("parent", n.name)
	}
	if child.parent != nil {
		return bmerr.InvalidArgumentf("node %q is already a child of %q", child.name, child.parent.name)
	}
	for anc := n; anc != nil; anc = anc.parent {
		if anc == child {
			return bmerr.InvalidArgumentf("adding %q under %q would create a cycle", child.name, n.name)
		}
	}

	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// RemoveChild detaches child and reports whether it was a child of n.
func (n *Node) RemoveChild(child *Node) bool {
	i := slices.Index(n.children, child)
	if i < 0 {
		return false
	}
	n.children = slices.Delete(n.children, i, i+1)
	child.parent = nil
	return true
}

// ClearChildren detaches every child.
func (n *Node) ClearChildren() {
	for _, child := range n.children {
		child.parent = nil
	}
	n.children = nil
}

// ChildByName returns the direct child called name, or nil.
func (n *Node) ChildByName(name string) *Node {
	for _, child := range n.children {
		if child.name == name {
			return child
		}
	}
	return nil
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

// AddTag adds a tag. Duplicates are rejected.
func (n *Node) AddTag(tag Tag) error {
	if n.HasTag(tag) {
		return bmerr.AlreadyExistsf("node %q already has tag %q", n.name, tag)
	}
	n.tags = append(n.tags, tag)
	return nil
}

// RemoveTag removes a tag and reports whether it was present.
func (n *Node) RemoveTag(tag Tag) bool {
	i := slices.Index(n.tags, tag)
	if i < 0 {
		return false
	}
	n.tags = slices.Delete(n.tags, i, i+1)
	return true
}

// HasTag reports whether the node carries tag.
func (n *Node) HasTag(tag Tag) bool {
	return slices.Contains(n.tags, tag)
}

// ClearTags removes all tags, making the node match every pack.
func (n *Node) ClearTags() {
	n.tags = nil
}

// Tags returns a copy of the node's tags.
func (n *Node) Tags() []Tag {
	return slices.Clone(n.tags)
}

// Walk visits n and its descendants depth-first, parents before children.
func (n *Node) Walk(fn func(node *Node, depth int)) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(node *Node, depth int), depth int) {
	fn(n, depth)
	for _, child := range n.children {
		child.walk(fn, depth+1)
	}
}

// Find returns the first node called name in n's subtree, or nil.
func (n *Node) Find(name string) *Node {
	if n.name == name {
		return n
	}
	for _, child := range n.children {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Describe renders the subtree, one node per line.
func (n *Node) Describe() string {
	var b strings.Builder
	n.Walk(func(node *Node, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(node.name)
		b.WriteString(" [")
		b.WriteString(string(node.Kind()))
		switch op := node.op.(type) {
		case *MeterNode:
			fmt.Fprintf(&b, " %g/%g", op.value, op.valueMax)
		case *Multiplier:
			fmt.Fprintf(&b, " x%g", op.Factor)
		}
		if len(node.tags) > 0 {
			tags := make([]string, len(node.tags))
			for i, tag := range node.tags {
				tags[i] = string(tag)
			}
			b.WriteString(" tags=")
			b.WriteString(strings.Join(tags, ","))
		}
		b.WriteString("]\n")
	})
	return b.String()
}
