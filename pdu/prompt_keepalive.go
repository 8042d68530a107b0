package pdu

import "github.com/ccsds-cfdp/gocfdp/internal/wireint"

// Prompt and KeepAlive are round-tripped bit-exact but never acted
// upon (spec.md §1 Non-goals: "prompt" and "keep-alive" behaviour are
// out of scope). Both send.Transaction and recv.Transaction tolerate
// and ignore them when received.

// Prompt asks the receiving side to immediately respond with a NAK or
// keep-alive, depending on ResponseRequired.
type Prompt struct {
	// ResponseRequired is false for "nak", true for "keep alive".
	ResponseRequired bool
}

func (Prompt) directive() (DirectiveCode, bool) { return DirectivePrompt, true }

func (p Prompt) encodeField(bool) ([]byte, error) {
	return []byte{b2u8(p.ResponseRequired) << 7}, nil
}

func decodePrompt(field []byte) (Prompt, error) {
	if len(field) < 1 {
		return Prompt{}, ErrTruncated
	}
	return Prompt{ResponseRequired: field[0]&0x80 != 0}, nil
}

// KeepAlive reports how many octets of the file the receiver has
// progressed through so far.
type KeepAlive struct {
	ProgressOctets uint64
}

func (KeepAlive) directive() (DirectiveCode, bool) { return DirectiveKeepAlive, true }

func (k KeepAlive) encodeField(largeFile bool) ([]byte, error) {
	return wireint.Append(nil, k.ProgressOctets, wireint.SizeWidth(largeFile))
}

func decodeKeepAlive(h Header, field []byte) (KeepAlive, error) {
	width := wireint.SizeWidth(h.LargeFile)
	if len(field) < width {
		return KeepAlive{}, ErrTruncated
	}
	v, err := wireint.Get(field, width)
	if err != nil {
		return KeepAlive{}, ErrTruncated
	}
	return KeepAlive{ProgressOctets: v}, nil
}
