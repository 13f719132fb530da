// Package flowgraph builds the transfer graph of decoded events and renders it
// as Mermaid text.
package flowgraph

import (
	"fmt"
	"strings"

	"txScope/internal/model"
	"txScope/internal/units"
)

const (
	ClassSender   = "sender"
	ClassReceiver = "receiver"
	ClassContract = "contract"

	// MaxLabelLen bounds every label handed to the renderer.
	MaxLabelLen = 32
)

// Build assigns node ids in first-seen order and adds one edge per event whose
// endpoints differ. Addresses listed in contracts are styled as contracts.
// An empty result is replaced by a placeholder so there is always something
// to draw.
func Build(events []model.DecodedEvent, contracts ...string) model.FlowGraph {
	isContract := make(map[string]bool, len(contracts))
	for _, c := range contracts {
		isContract[strings.ToLower(c)] = true
	}

	graph := model.FlowGraph{Nodes: []model.FlowNode{}, Edges: []model.FlowEdge{}}
	ids := make(map[string]int)
	outgoing := make(map[string]bool)

	node := func(address string) string {
		key := strings.ToLower(address)
		if idx, ok := ids[key]; ok {
			return graph.Nodes[idx].ID
		}
		id := fmt.Sprintf("N%d", len(graph.Nodes))
		ids[key] = len(graph.Nodes)
		graph.Nodes = append(graph.Nodes, model.FlowNode{
			ID:      id,
			Address: address,
			Label:   ShortAddress(address),
		})
		return id
	}

	for _, event := range events {
		if event.From == "" || event.To == "" {
			continue
		}
		from := node(event.From)
		to := node(event.To)
		if strings.EqualFold(event.From, event.To) {
			continue
		}
		outgoing[strings.ToLower(event.From)] = true
		graph.Edges = append(graph.Edges, model.FlowEdge{
			From:   from,
			To:     to,
			Amount: amountLabel(event),
			Token:  tokenLabel(event.Token),
		})
	}

	if len(graph.Edges) == 0 {
		return placeholder()
	}

	for i := range graph.Nodes {
		key := strings.ToLower(graph.Nodes[i].Address)
		switch {
		case isContract[key]:
			graph.Nodes[i].Class = ClassContract
		case outgoing[key]:
			graph.Nodes[i].Class = ClassSender
		default:
			graph.Nodes[i].Class = ClassReceiver
		}
	}
	return graph
}

func placeholder() model.FlowGraph {
	return model.FlowGraph{
		Nodes: []model.FlowNode{
			{ID: "N0", Label: "Sender", Class: ClassSender},
			{ID: "N1", Label: "Receiver", Class: ClassReceiver},
		},
		Edges: []model.FlowEdge{
			{From: "N0", To: "N1", Amount: "no transfers"},
		},
		Placeholder: true,
	}
}

func amountLabel(event model.DecodedEvent) string {
	switch event.Kind {
	case model.KindNFTTransfer:
		return "#" + event.TokenID
	case model.KindMultiTokenTransfer:
		return units.HumanScale(units.ToFloat(units.ParseBig(event.Amount), 0)) + " x #" + event.TokenID
	case model.KindNativeTransfer, model.KindTokenTransfer, model.KindUnclassified:
		return units.HumanScale(units.ToFloat(units.ParseBig(event.Amount), event.Token.Decimals))
	default:
		return event.Amount
	}
}

func tokenLabel(token model.TokenMetadata) string {
	if token.Symbol == "" {
		return model.UnknownTokenSymbol
	}
	return token.Symbol
}

// ShortAddress keeps the first six and last four characters of an address.
func ShortAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + ".." + address[len(address)-4:]
}
