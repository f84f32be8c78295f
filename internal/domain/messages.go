package domain

// Message types exchanged with an embedded tapplet document
const (
	MessageTypeResize            = "resize"
	MessageTypeRequestParentSize = "request-parent-size"
	MessageTypeSignerCall        = "signer-call"
)

// TransactionCancelledMessage is the resultError posted when the user cancels a transaction
const TransactionCancelledMessage = "Transaction was cancelled"

// ResizeMessage tells the tapplet the size of its container
type ResizeMessage struct {
	Type   string `json:"type"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// NewResizeMessage builds a resize notification for size
func NewResizeMessage(size WindowSize) ResizeMessage {
	return ResizeMessage{Type: MessageTypeResize, Width: size.Width, Height: size.Height}
}

// SignerCallReply answers a signer-call message; ID echoes the request id.
type SignerCallReply struct {
	ID          int64  `json:"id"`
	Result      any    `json:"result"`
	ResultError string `json:"resultError,omitempty"`
	Type        string `json:"type"`
}

// NewSignerCallReply builds a successful reply
func NewSignerCallReply(id int64, result any) SignerCallReply {
	return SignerCallReply{ID: id, Result: result, Type: MessageTypeSignerCall}
}

// NewSignerCallError builds a failed reply with an empty result object
func NewSignerCallError(id int64, msg string) SignerCallReply {
	return SignerCallReply{ID: id, Result: struct{}{}, ResultError: msg, Type: MessageTypeSignerCall}
}
