package graph

type filterKind int

const (
	all filterKind = iota
	byNode
	byInput
)

// Filter selects edges of an output for Disconnect and IsConnectedTo.
type Filter struct {
	kind  filterKind
	node  NodeID
	index int
}

// All matches every edge.
func All() Filter {
	return Filter{kind: all}
}

// ToNode matches edges to any input of the node.
func ToNode(id NodeID) Filter {
	return Filter{kind: byNode, node: id}
}

// ToInput matches the edge to a certain input of the node.
func ToInput(id NodeID, index int) Filter {
	return Filter{kind: byInput, node: id, index: index}
}

func (f Filter) matches(p port) bool {
	switch f.kind {
	case byNode:
		return p.node == f.node
	case byInput:
		return p.node == f.node && p.index == f.index
	}
	return true
}
