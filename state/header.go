package state

import (
	"errors"

	"google.golang.org/protobuf/encoding/protowire"
)

var ErrInvalidHeader = errors.New("invalid state header")

const (
	headerFieldChainId       protowire.Number = 1
	headerFieldHeight        protowire.Number = 2
	headerFieldAccountIdx    protowire.Number = 3
	headerFieldRootHash      protowire.Number = 4
	headerFieldHash          protowire.Number = 5
	headerFieldLastBlockTime protowire.Number = 6
)

// StateHeader is the committed summary of the state tree. It is stored under
// KeyState in protobuf wire format.
type StateHeader struct {
	ChainId       string
	Height        uint64
	AccountIdx    uint64
	RootHash      []byte
	Hash          []byte
	LastBlockTime int64
}

func (h *StateHeader) GetHash() []byte {
	if h == nil {
		return nil
	}
	return h.Hash
}

func (h *StateHeader) Clone() *StateHeader {
	n := *h
	if h.RootHash != nil {
		n.RootHash = append([]byte(nil), h.RootHash...)
	}
	if h.Hash != nil {
		n.Hash = append([]byte(nil), h.Hash...)
	}
	return &n
}

func (h *StateHeader) Marshal() []byte {
	var b []byte
	if h.ChainId != "" {
		b = protowire.AppendTag(b, headerFieldChainId, protowire.BytesType)
		b = protowire.AppendString(b, h.ChainId)
	}
	if h.Height != 0 {
		b = protowire.AppendTag(b, headerFieldHeight, protowire.VarintType)
		b = protowire.AppendVarint(b, h.Height)
	}
	if h.AccountIdx != 0 {
		b = protowire.AppendTag(b, headerFieldAccountIdx, protowire.VarintType)
		b = protowire.AppendVarint(b, h.AccountIdx)
	}
	if len(h.RootHash) != 0 {
		b = protowire.AppendTag(b, headerFieldRootHash, protowire.BytesType)
		b = protowire.AppendBytes(b, h.RootHash)
	}
	if len(h.Hash) != 0 {
		b = protowire.AppendTag(b, headerFieldHash, protowire.BytesType)
		b = protowire.AppendBytes(b, h.Hash)
	}
	if h.LastBlockTime != 0 {
		b = protowire.AppendTag(b, headerFieldLastBlockTime, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(h.LastBlockTime))
	}
	return b
}

func (h *StateHeader) Unmarshal(b []byte) error {
	*h = StateHeader{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Join(ErrInvalidHeader, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == headerFieldChainId && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return errors.Join(ErrInvalidHeader, protowire.ParseError(m))
			}
			h.ChainId = v
			n = m
		case num == headerFieldHeight && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return errors.Join(ErrInvalidHeader, protowire.ParseError(m))
			}
			h.Height = v
			n = m
		case num == headerFieldAccountIdx && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return errors.Join(ErrInvalidHeader, protowire.ParseError(m))
			}
			h.AccountIdx = v
			n = m
		case num == headerFieldRootHash && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return errors.Join(ErrInvalidHeader, protowire.ParseError(m))
			}
			h.RootHash = append([]byte(nil), v...)
			n = m
		case num == headerFieldHash && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return errors.Join(ErrInvalidHeader, protowire.ParseError(m))
			}
			h.Hash = append([]byte(nil), v...)
			n = m
		case num == headerFieldLastBlockTime && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return errors.Join(ErrInvalidHeader, protowire.ParseError(m))
			}
			h.LastBlockTime = int64(v)
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return errors.Join(ErrInvalidHeader, protowire.ParseError(n))
			}
		}
		b = b[n:]
	}
	return nil
}
