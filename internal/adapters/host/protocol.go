package host

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tari-project/tapplet-host/internal/domain"
	"github.com/tari-project/tapplet-host/internal/domain/models"
)

// Message is one decoded inbound tapplet message
type Message interface {
	MessageType() string
}

// RequestParentSize asks the host for the container size
type RequestParentSize struct{}

func (RequestParentSize) MessageType() string { return domain.MessageTypeRequestParentSize }

// SignerCall invokes a signer operation on behalf of the tapplet
type SignerCall struct {
	MethodName string
	Args       []json.RawMessage
	ID         int64
}

func (SignerCall) MessageType() string { return domain.MessageTypeSignerCall }

// Request converts the call into a transaction request
func (c SignerCall) Request() models.TransactionRequest {
	return models.TransactionRequest{MethodName: c.MethodName, Args: c.Args, ID: c.ID}
}

// Resize is accepted on the wire but has no meaning inbound
type Resize struct {
	Width  int
	Height int
}

func (Resize) MessageType() string { return domain.MessageTypeResize }

// Unknown carries a message type this host does not handle
type Unknown struct {
	Type string
}

func (u Unknown) MessageType() string { return u.Type }

var errMalformed = errors.New("malformed message")

type envelope struct {
	Type       *string         `json:"type"`
	MethodName *string         `json:"methodName"`
	Args       json.RawMessage `json:"args"`
	ID         json.RawMessage `json:"id"`
	Width      int             `json:"width"`
	Height     int             `json:"height"`
}

// DecodeMessage validates an inbound payload against the message schema.
// Unknown types decode to Unknown; malformed known types are an error.
func DecodeMessage(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if env.Type == nil {
		return nil, fmt.Errorf("%w: missing type", errMalformed)
	}

	switch *env.Type {
	case domain.MessageTypeRequestParentSize:
		return RequestParentSize{}, nil
	case domain.MessageTypeResize:
		return Resize{Width: env.Width, Height: env.Height}, nil
	case domain.MessageTypeSignerCall:
		return decodeSignerCall(env)
	default:
		return Unknown{Type: *env.Type}, nil
	}
}

func decodeSignerCall(env envelope) (SignerCall, error) {
	if env.MethodName == nil || *env.MethodName == "" {
		return SignerCall{}, fmt.Errorf("%w: signer-call without methodName", errMalformed)
	}
	if len(env.ID) == 0 {
		return SignerCall{}, fmt.Errorf("%w: signer-call without id", errMalformed)
	}
	var id int64
	if err := json.Unmarshal(env.ID, &id); err != nil {
		return SignerCall{}, fmt.Errorf("%w: signer-call id must be an integer", errMalformed)
	}

	args := []json.RawMessage{}
	if raw := bytes.TrimSpace(env.Args); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		if err := json.Unmarshal(raw, &args); err != nil {
			return SignerCall{}, fmt.Errorf("%w: signer-call args must be an array", errMalformed)
		}
	}
	return SignerCall{MethodName: *env.MethodName, Args: args, ID: id}, nil
}
