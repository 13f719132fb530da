package model

// FlowNode is one address in the transfer graph.
type FlowNode struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Label   string `json:"label"`
	Class   string `json:"class"`
}

// FlowEdge is a directed value flow between two nodes.
type FlowEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Token  string `json:"token"`
}

// FlowGraph is the transfer graph derived from decoded events.
type FlowGraph struct {
	Nodes       []FlowNode `json:"nodes"`
	Edges       []FlowEdge `json:"edges"`
	Placeholder bool       `json:"placeholder,omitempty"`
}

// HasNode reports whether id is present in the node set.
func (g FlowGraph) HasNode(id string) bool {
	for _, node := range g.Nodes {
		if node.ID == id {
			return true
		}
	}
	return false
}
