package pdu

import "github.com/ccsds-cfdp/gocfdp/internal/wireint"

// SegmentRequest is one missing byte range [Start, End) the receiver
// is asking the sender to retransmit.
type SegmentRequest struct {
	Start uint64
	End   uint64
}

// Nak lists the byte ranges missing from the receiver's reassembly,
// bracketed by the scope of the request.
type Nak struct {
	StartOfScope uint64
	EndOfScope   uint64
	Requests     []SegmentRequest
}

func (Nak) directive() (DirectiveCode, bool) { return DirectiveNak, true }

func (n Nak) encodeField(largeFile bool) ([]byte, error) {
	width := wireint.SizeWidth(largeFile)
	buf := make([]byte, 0, 2*width*(2+len(n.Requests)))
	var err error
	buf, err = wireint.Append(buf, n.StartOfScope, width)
	if err != nil {
		return nil, err
	}
	buf, err = wireint.Append(buf, n.EndOfScope, width)
	if err != nil {
		return nil, err
	}
	for _, r := range n.Requests {
		buf, err = wireint.Append(buf, r.Start, width)
		if err != nil {
			return nil, err
		}
		buf, err = wireint.Append(buf, r.End, width)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// decodeNak terminates once fewer than two offset fields remain in
// the buffer, per spec.md §4.1, rather than erroring on a short final
// pair.
func decodeNak(h Header, field []byte) (Nak, error) {
	width := wireint.SizeWidth(h.LargeFile)
	if len(field) < 2*width {
		return Nak{}, ErrTruncated
	}
	start, _ := wireint.Get(field[0:], width)
	end, _ := wireint.Get(field[width:], width)
	n := Nak{StartOfScope: start, EndOfScope: end}
	off := 2 * width
	for off+2*width <= len(field) {
		s, _ := wireint.Get(field[off:], width)
		e, _ := wireint.Get(field[off+width:], width)
		n.Requests = append(n.Requests, SegmentRequest{Start: s, End: e})
		off += 2 * width
	}
	return n, nil
}
