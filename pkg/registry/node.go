package registry

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/artcraftzone/hierlog/pkg/sinks"
	"github.com/artcraftzone/hierlog/pkg/types"
)

// maxDepth bounds ancestor walks in case of a naming cycle.
const maxDepth = 64

// Node is one hierarchical logger.
type Node struct {
	registry      *Registry
	name          string
	qualifiedName string
	parentName    string
	sinks         *sinks.Registry

	mu        sync.RWMutex
	threshold types.Level
	propagate bool
	active    bool
}

func newNode(r *Registry, name, qualified, parentName string) *Node {
	return &Node{
		registry:      r,
		name:          name,
		qualifiedName: qualified,
		parentName:    parentName,
		sinks:         sinks.NewRegistry(),
	}
}

// Name returns the leaf name
func (n *Node) Name() string { return n.name }

// QualifiedName returns the dot-joined ancestry
func (n *Node) QualifiedName() string { return n.qualifiedName }

// ParentName returns the parent's qualified name, or "" for a root node
func (n *Node) ParentName() string { return n.parentName }

// Sinks returns the node's sink registry
func (n *Node) Sinks() *sinks.Registry { return n.sinks }

// Parent resolves the parent through the registry. It returns nil for a
// root node or when the parent is not currently live.
func (n *Node) Parent() *Node {
	if n.parentName == "" {
		return nil
	}
	parent, ok := n.registry.Get(n.parentName)
	if !ok {
		return nil
	}
	return parent
}

// Threshold returns the node's own threshold
func (n *Node) Threshold() types.Level {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.threshold
}

// SetThreshold sets the node's own threshold
func (n *Node) SetThreshold(level types.Level) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.threshold = level
}

// EffectiveThreshold returns the node's threshold, or the nearest
// ancestor's when the node's is unset. LevelNotSet means everything passes.
func (n *Node) EffectiveThreshold() types.Level {
	node := n
	for depth := 0; node != nil && depth < maxDepth; depth++ {
		if level := node.Threshold(); level != types.LevelNotSet {
			return level
		}
		node = node.Parent()
	}
	return types.LevelNotSet
}

// Propagate reports whether records also go to the ancestors' sinks
func (n *Node) Propagate() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.propagate
}

// SetPropagate sets the propagation flag
func (n *Node) SetPropagate(propagate bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.propagate = propagate
}

// Active reports whether the node accepts records
func (n *Node) Active() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.active
}

// SetActive sets the active flag
func (n *Node) SetActive(active bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.active = active
}

// Emit writes the entry to the node's sinks and, while propagation is on,
// to each ancestor's sinks. Records below the effective threshold are
// dropped. Every sink is attempted; the first failure is returned.
func (n *Node) Emit(level types.Level, e sinks.Entry) error {
	if !level.AtLeast(n.EffectiveThreshold()) {
		return nil
	}

	var firstErr error
	node := n
	for depth := 0; node != nil && depth < maxDepth; depth++ {
		for _, s := range node.sinks.All() {
			if err := sinks.Dispatch(s, level, e); err != nil && firstErr == nil {
				firstErr = errors.Wrapf(err, "%s sink %s", node.qualifiedName, s.Name())
			}
		}
		if !node.Propagate() {
			break
		}
		node = node.Parent()
	}
	return firstErr
}

// FindFileSink returns the first rotating file sink of the node or, failing
// that, of its nearest ancestor that has one. The second result is the node
// owning the sink.
func (n *Node) FindFileSink() (*sinks.RotatingFile, *Node) {
	node := n
	for depth := 0; node != nil && depth < maxDepth; depth++ {
		for _, s := range node.sinks.FindByKind(types.KindRotatingFile) {
			if file, ok := s.(*sinks.RotatingFile); ok {
				return file, node
			}
		}
		node = node.Parent()
	}
	return nil, nil
}

func (n *Node) reset() error {
	n.mu.Lock()
	n.threshold = types.LevelNotSet
	n.propagate = false
	n.active = false
	n.mu.Unlock()

	return n.sinks.Clear()
}
