package pdu

import "fmt"

// Body is implemented by every PDU data-field variant: Metadata,
// FileData, EOF, Finished, Ack, Nak, Prompt, KeepAlive. This is the
// small tagged-union shape spec.md §9 calls for — one struct per
// variant with its own encode/decode pair, dispatched by directive
// code the same way the teacher's SDOResponse dispatches on SDOState.
type Body interface {
	// encodeField serialises just the data field (no common header).
	// largeFile selects the 4- or 8-octet width for any offset/size
	// fields the variant carries.
	encodeField(largeFile bool) ([]byte, error)
	// directive identifies the variant for logging/dispatch; file-data
	// has no directive code and returns ok=false.
	directive() (code DirectiveCode, ok bool)
}

// Encode serialises a full PDU: it fills in h.Type and
// h.DataFieldLength from body, then emits the header followed by the
// data field. For a directive PDU, the data field is the directive
// code octet followed by body's own content (spec.md §4.1: "first
// byte of the data field for directive PDUs"). Callers set
// h.LargeFile beforehand according to the transaction's file size.
func Encode(h Header, body Body) ([]byte, error) {
	content, err := body.encodeField(h.LargeFile)
	if err != nil {
		return nil, err
	}
	var field []byte
	if code, isDirective := body.directive(); isDirective {
		h.Type = TypeDirective
		field = append([]byte{byte(code)}, content...)
	} else {
		h.Type = TypeFileData
		field = content
	}
	if len(field) > 0xFFFF {
		return nil, fmt.Errorf("pdu: data field too long (%d bytes)", len(field))
	}
	h.DataFieldLength = uint16(len(field))
	headerBytes, err := h.Encode()
	if err != nil {
		return nil, err
	}
	return append(headerBytes, field...), nil
}

// Decode decodes a complete PDU buffer: common header, then the data
// field dispatched by directive code (or, for a file-data PDU, decoded
// as FileData directly).
func Decode(buf []byte) (Header, Body, error) {
	h, n, err := DecodeHeader(buf)
	if err != nil {
		return Header{}, nil, err
	}
	field := buf[n:]
	if len(field) < int(h.DataFieldLength) {
		return Header{}, nil, ErrTruncated
	}
	field = field[:h.DataFieldLength]

	if h.Type == TypeFileData {
		fd, err := decodeFileData(h, field)
		return h, fd, err
	}
	if len(field) < 1 {
		return Header{}, nil, ErrTruncated
	}
	code, content := DirectiveCode(field[0]), field[1:]
	switch code {
	case DirectiveMetadata:
		body, err := decodeMetadata(h, content)
		return h, body, err
	case DirectiveEOF:
		body, err := decodeEOF(h, content)
		return h, body, err
	case DirectiveFinished:
		body, err := decodeFinished(h, content)
		return h, body, err
	case DirectiveAck:
		body, err := decodeAck(h, content)
		return h, body, err
	case DirectiveNak:
		body, err := decodeNak(h, content)
		return h, body, err
	case DirectivePrompt:
		body, err := decodePrompt(content)
		return h, body, err
	case DirectiveKeepAlive:
		body, err := decodeKeepAlive(h, content)
		return h, body, err
	default:
		return h, nil, ErrUnsupportedDirective
	}
}
