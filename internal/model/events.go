package model

// EventKind tags a DecodedEvent variant.
type EventKind string

const (
	KindNativeTransfer     EventKind = "NativeTransfer"
	KindTokenTransfer      EventKind = "TokenTransfer"
	KindNFTTransfer        EventKind = "NFTTransfer"
	KindMultiTokenTransfer EventKind = "MultiTokenTransfer"
	KindUnclassified       EventKind = "Unclassified"
)

// AllEventKinds lists every variant; consumers switch over all of them.
var AllEventKinds = []EventKind{
	KindNativeTransfer,
	KindTokenTransfer,
	KindNFTTransfer,
	KindMultiTokenTransfer,
	KindUnclassified,
}

// DecodedEvent is a typed value movement extracted from a transaction.
// Amount and TokenID are decimal strings.
type DecodedEvent struct {
	Kind     EventKind     `json:"kind"`
	From     string        `json:"from"`
	To       string        `json:"to"`
	Amount   string        `json:"amount"`
	TokenID  string        `json:"token_id,omitempty"`
	Token    TokenMetadata `json:"token"`
	LogIndex *uint         `json:"log_index,omitempty"`
}

// IsFungible reports whether the amount can be valued as a currency quantity.
func (e DecodedEvent) IsFungible() bool {
	switch e.Kind {
	case KindNativeTransfer, KindTokenTransfer:
		return true
	case KindNFTTransfer, KindMultiTokenTransfer, KindUnclassified:
		return false
	default:
		return false
	}
}

// OtherEvent keeps an undecoded log for auditability.
type OtherEvent struct {
	Address  string   `json:"address"`
	Topics   []string `json:"topics"`
	Data     string   `json:"data"`
	LogIndex uint     `json:"log_index"`
	Reason   string   `json:"reason,omitempty"`
}

// ExtractedEvents is the EventDecoder output for one receipt.
type ExtractedEvents struct {
	Events      []DecodedEvent `json:"events"`
	OtherEvents []OtherEvent   `json:"other_events"`
	Contracts   []string       `json:"contracts"`
	Diagnostics []string       `json:"diagnostics,omitempty"`
}
