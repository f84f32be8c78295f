package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// SubstateKind is the variant tag of a substate id
type SubstateKind string

const (
	SubstateComponent          SubstateKind = "Component"
	SubstateResource           SubstateKind = "Resource"
	SubstateVault              SubstateKind = "Vault"
	SubstateNonFungible        SubstateKind = "NonFungible"
	SubstateNonFungibleIndex   SubstateKind = "NonFungibleIndex"
	SubstateTransactionReceipt SubstateKind = "TransactionReceipt"
	SubstateTemplate           SubstateKind = "Template"
	SubstateUnknown            SubstateKind = ""
)

var substatePrefixes = []struct {
	prefix string
	kind   SubstateKind
}{
	{"component_", SubstateComponent},
	{"resource_", SubstateResource},
	{"vault_", SubstateVault},
	{"nft_", SubstateNonFungible},
	{"nftindex_", SubstateNonFungibleIndex},
	{"txreceipt_", SubstateTransactionReceipt},
	{"template_", SubstateTemplate},
}

// SubstateID identifies a versioned piece of on-chain state. On the wire it is
// either the tagged form {"Vault":"vault_..."} or the plain string "vault_...".
type SubstateID struct {
	Kind  SubstateKind
	Value string
}

// ParseSubstateID derives the kind of a plain string id from its prefix
func ParseSubstateID(s string) SubstateID {
	for _, p := range substatePrefixes {
		if strings.HasPrefix(s, p.prefix) {
			return SubstateID{Kind: p.kind, Value: s}
		}
	}
	return SubstateID{Kind: SubstateUnknown, Value: s}
}

// IsVault reports whether the id names a vault
func (id SubstateID) IsVault() bool {
	return id.Kind == SubstateVault
}

func (id SubstateID) String() string {
	return id.Value
}

func (id SubstateID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Value)
}

func (id *SubstateID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ParseSubstateID(s)
		return nil
	}

	kind, raw, err := singleVariant(data)
	if err != nil {
		return fmt.Errorf("invalid substate id: %w", err)
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("invalid substate id %s: %w", kind, err)
	}
	*id = SubstateID{Kind: SubstateKind(kind), Value: value}
	return nil
}

// FungibleContainer holds a fungible balance
type FungibleContainer struct {
	Address      string `json:"address"`
	Amount       Amount `json:"amount"`
	LockedAmount Amount `json:"locked_amount"`
}

// ResourceContainer is the tagged content of a vault. Exactly one field is set
// for known variants; Confidential and NonFungible are kept raw.
type ResourceContainer struct {
	Fungible     *FungibleContainer
	NonFungible  json.RawMessage
	Confidential json.RawMessage
}

func (c *ResourceContainer) UnmarshalJSON(data []byte) error {
	kind, raw, err := singleVariant(data)
	if err != nil {
		return fmt.Errorf("invalid resource container: %w", err)
	}
	*c = ResourceContainer{}
	switch kind {
	case "Fungible":
		var f FungibleContainer
		if err := json.Unmarshal(raw, &f); err != nil {
			return fmt.Errorf("invalid fungible container: %w", err)
		}
		c.Fungible = &f
	case "NonFungible":
		c.NonFungible = raw
	case "Confidential":
		c.Confidential = raw
	default:
		return fmt.Errorf("unknown resource container variant %q", kind)
	}
	return nil
}

// IsFungible reports whether the container holds a fungible balance
func (c *ResourceContainer) IsFungible() bool {
	return c != nil && c.Fungible != nil
}

// Vault is the value of a vault substate
type Vault struct {
	ResourceContainer ResourceContainer `json:"resource_container"`
}

// SubstateValue is the tagged value of a substate. Vault is decoded; every
// other variant is preserved as raw JSON.
type SubstateValue struct {
	Kind  string
	Vault *Vault
	Raw   json.RawMessage
}

func (v *SubstateValue) UnmarshalJSON(data []byte) error {
	kind, raw, err := singleVariant(data)
	if err != nil {
		return fmt.Errorf("invalid substate value: %w", err)
	}
	*v = SubstateValue{Kind: kind, Raw: raw}
	if kind == string(SubstateVault) {
		var vault Vault
		if err := json.Unmarshal(raw, &vault); err != nil {
			return fmt.Errorf("invalid vault substate: %w", err)
		}
		v.Vault = &vault
	}
	return nil
}

func (v SubstateValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]json.RawMessage{v.Kind: v.Raw})
}

// IsVault reports whether the value is a vault substate
func (v *SubstateValue) IsVault() bool {
	return v != nil && v.Vault != nil
}

// Substate is a substate value at a version
type Substate struct {
	Substate SubstateValue `json:"substate"`
	Version  uint32        `json:"version"`
}

// UpSubstate is one entry of a transaction diff's up substates: [id, substate]
type UpSubstate struct {
	ID       SubstateID
	Substate Substate
}

func (u *UpSubstate) UnmarshalJSON(data []byte) error {
	var tuple []json.RawMessage
	if err := json.Unmarshal(data, &tuple); err != nil {
		return fmt.Errorf("invalid up substate: %w", err)
	}
	if len(tuple) != 2 {
		return fmt.Errorf("invalid up substate: expected 2 elements, got %d", len(tuple))
	}
	if err := json.Unmarshal(tuple[0], &u.ID); err != nil {
		return err
	}
	return json.Unmarshal(tuple[1], &u.Substate)
}

// SubstateDiff is the state change produced by an accepted transaction
type SubstateDiff struct {
	UpSubstates   []UpSubstate      `json:"up_substates"`
	DownSubstates []json.RawMessage `json:"down_substates"`
}

// RejectReason is kept as the daemon sent it; String renders it for users.
type RejectReason json.RawMessage

func (r RejectReason) String() string {
	raw := bytes.TrimSpace(r)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if kind, inner, err := singleVariant(raw); err == nil {
		var msg string
		if err := json.Unmarshal(inner, &msg); err == nil {
			return fmt.Sprintf("%s: %s", kind, msg)
		}
		return fmt.Sprintf("%s: %s", kind, string(inner))
	}
	return string(raw)
}

func (r RejectReason) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r *RejectReason) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// TransactionResult is the tagged outcome of executing a transaction.
// Exactly one of Accept, AcceptFeeRejectRest or Reject is set.
type TransactionResult struct {
	Accept              *SubstateDiff
	AcceptFeeRejectRest *AcceptFeeRejectRest
	Reject              *RejectReason
}

// AcceptFeeRejectRest is the partial outcome: fee charged, everything else rejected
type AcceptFeeRejectRest struct {
	Diff   SubstateDiff
	Reason RejectReason
}

func (t *TransactionResult) UnmarshalJSON(data []byte) error {
	kind, raw, err := singleVariant(data)
	if err != nil {
		return fmt.Errorf("invalid transaction result: %w", err)
	}
	*t = TransactionResult{}
	switch kind {
	case "Accept":
		var diff SubstateDiff
		if err := json.Unmarshal(raw, &diff); err != nil {
			return fmt.Errorf("invalid accept diff: %w", err)
		}
		t.Accept = &diff
	case "AcceptFeeRejectRest":
		var pair []json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil {
			return fmt.Errorf("invalid AcceptFeeRejectRest: %w", err)
		}
		if len(pair) != 2 {
			return fmt.Errorf("invalid AcceptFeeRejectRest: expected 2 elements, got %d", len(pair))
		}
		var partial AcceptFeeRejectRest
		if err := json.Unmarshal(pair[0], &partial.Diff); err != nil {
			return fmt.Errorf("invalid AcceptFeeRejectRest diff: %w", err)
		}
		partial.Reason = RejectReason(pair[1])
		t.AcceptFeeRejectRest = &partial
	case "Reject":
		reason := RejectReason(raw)
		t.Reject = &reason
	default:
		return fmt.Errorf("unknown transaction result variant %q", kind)
	}
	return nil
}

// FeeReceipt summarises fees charged for a transaction
type FeeReceipt struct {
	TotalFeePayment Amount `json:"total_fee_payment"`
	TotalFeesPaid   Amount `json:"total_fees_paid"`
}

// FinalizeResult is the daemon's terminal payload for a transaction
type FinalizeResult struct {
	TransactionHash string             `json:"transaction_hash"`
	Result          *TransactionResult `json:"result"`
	FeeReceipt      FeeReceipt         `json:"fee_receipt"`
	Logs            []json.RawMessage  `json:"logs,omitempty"`
	Events          []json.RawMessage  `json:"events,omitempty"`
}

// singleVariant decodes a serde-style externally tagged enum value {"Tag": value}
func singleVariant(data []byte) (string, json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", nil, err
	}
	if len(obj) != 1 {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", nil, fmt.Errorf("expected a single variant, got %v", keys)
	}
	for k, v := range obj {
		return k, v, nil
	}
	return "", nil, errors.New("unreachable")
}
