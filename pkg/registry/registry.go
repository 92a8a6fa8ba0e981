// Package registry holds the process-wide set of hierarchical logger nodes,
// keyed by qualified name.
//
// A node named "Core" created under the node "App" has the qualified name
// "App.Core". Nodes refer to their parent by qualified name and resolve it
// through the registry on use, so a parent that is destroyed and recreated
// is picked up again by its children.
//
// Callers normally own a Registry and pass it by handle; Default exists for
// programs that want a single shared instance.
package registry

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// ErrNodeNotFound is returned when no live node has the requested name
var ErrNodeNotFound = errors.New("logger node not found")

// Registry owns every live Node. It is safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	nodes map[string]*Node
}

// New creates an empty registry
func New() *Registry {
	return &Registry{nodes: make(map[string]*Node)}
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the shared registry, created on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New()
	})
	return defaultRegistry
}

// QualifiedName joins a parent qualified name and a leaf name.
func QualifiedName(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// CreateOrGet returns the live node named name under parent, creating and
// registering it if needed. A nil parent makes a root node. Concurrent
// calls for the same qualified name return the same node.
func (r *Registry) CreateOrGet(name string, parent *Node) *Node {
	parentName := ""
	if parent != nil {
		parentName = parent.QualifiedName()
	}
	qualified := QualifiedName(parentName, name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if node, ok := r.nodes[qualified]; ok {
		return node
	}

	node := newNode(r, name, qualified, parentName)
	r.nodes[qualified] = node
	return node
}

// Get returns the live node with the given qualified name.
func (r *Registry) Get(qualifiedName string) (*Node, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	node, ok := r.nodes[qualifiedName]
	return node, ok
}

// Destroy detaches and closes the node's sinks, resets its threshold,
// disables propagation, marks it inactive and unregisters it. The qualified
// name is free for reuse afterwards. Destroying an unknown name returns
// ErrNodeNotFound.
func (r *Registry) Destroy(qualifiedName string) error {
	r.mu.Lock()
	node, ok := r.nodes[qualifiedName]
	if ok {
		delete(r.nodes, qualifiedName)
	}
	r.mu.Unlock()

	if !ok {
		return errors.Wrap(ErrNodeNotFound, qualifiedName)
	}
	return node.reset()
}

// Names returns the qualified names of the live nodes, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.nodes))
	for name := range r.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of live nodes
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.nodes)
}
