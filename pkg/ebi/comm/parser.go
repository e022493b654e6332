package comm

import "encoding/binary"

// Parser splits a byte stream into length-prefixed frames.
// It only relies on the length prefix, checksum and id are left to
// the consumer.
type Parser struct {
	// MinLength is the shortest accepted length prefix, zero means MinFrameLen.
	// Commands from the host may be FrameOverhead long.
	MinLength int

	buf      []byte
	expected int
}

// ParseResult is either a complete raw frame or a framing error.
type ParseResult struct {
	Frame []byte
	Err   error
}

// Buffered returns the number of bytes waiting for a complete frame.
func (p *Parser) Buffered() int {
	return len(p.buf)
}

// Reset drops all buffered bytes.
func (p *Parser) Reset() {
	p.buf, p.expected = nil, 0
}

func (p *Parser) minLength() int {
	if p.MinLength > 0 {
		return p.MinLength
	}
	return MinFrameLen
}

// Feed consumes a chunk of bytes and returns all frames completed by it.
func (p *Parser) Feed(data []byte) (results []ParseResult) {
	p.buf = append(p.buf, data...)
	for {
		if p.expected == 0 {
			if len(p.buf) < 2 {
				return
			}
			l := int(binary.BigEndian.Uint16(p.buf))
			if l < p.minLength() || l > MaxFrameLen {
				p.Reset()
				results = append(results, ParseResult{Err: &MalformedLengthError{Length: l}})
				return
			}
			p.expected = l
		}
		if len(p.buf) < p.expected {
			return
		}
		frame := make([]byte, p.expected)
		copy(frame, p.buf)
		p.buf, p.expected = p.buf[p.expected:], 0
		if len(p.buf) == 0 {
			p.buf = nil
		}
		results = append(results, ParseResult{Frame: frame})
	}
}
