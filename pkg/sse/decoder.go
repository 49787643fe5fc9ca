package sse

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
)

// Decoder incrementally parses an SSE byte stream into complete event
// blocks. Feed may be called with arbitrarily fragmented chunks; bytes
// belonging to an unterminated block are buffered until the block's
// blank-line terminator arrives.
type Decoder struct {
	buf []byte
	log *slog.Logger
}

// NewDecoder creates a decoder. A nil logger discards malformed-block
// warnings.
func NewDecoder(log *slog.Logger) *Decoder {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Decoder{log: log}
}

// Feed consumes a raw chunk and returns all event blocks completed by it.
// Partial trailing bytes are retained for the next call. Malformed blocks
// (no data: line) are dropped with a warning; they never abort the stream.
func (d *Decoder) Feed(chunk []byte) []Block {
	d.buf = append(d.buf, chunk...)

	var blocks []Block
	for {
		end, sepLen := blockTerminator(d.buf)
		if end < 0 {
			break
		}

		raw := d.buf[:end]
		d.buf = d.buf[end+sepLen:]

		if block, ok := d.parseBlock(raw); ok {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// Flush parses whatever remains in the buffer as a final block. Streams
// normally terminate every block with a blank line, but a server that
// closes the connection mid-block still gets its last data captured.
func (d *Decoder) Flush() []Block {
	if len(bytes.TrimSpace(d.buf)) == 0 {
		d.buf = nil
		return nil
	}

	raw := d.buf
	d.buf = nil
	if block, ok := d.parseBlock(raw); ok {
		return []Block{block}
	}
	return nil
}

// Buffered returns the number of bytes held for an incomplete block.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// blockTerminator finds the first blank-line separator in buf, returning
// its offset and length, or (-1, 0) when no complete block is present.
// Both LF and CRLF line endings are recognized.
func blockTerminator(buf []byte) (int, int) {
	lf := bytes.Index(buf, []byte("\n\n"))
	crlf := bytes.Index(buf, []byte("\r\n\r\n"))

	switch {
	case lf < 0 && crlf < 0:
		return -1, 0
	case crlf < 0:
		return lf, 2
	case lf < 0:
		return crlf, 4
	case crlf < lf:
		return crlf, 4
	default:
		return lf, 2
	}
}

// parseBlock parses a single raw block into a Block. Returns false for
// malformed blocks (no data: line at all).
func (d *Decoder) parseBlock(raw []byte) (Block, bool) {
	block := Block{Type: DefaultEventType}

	var dataLines []string
	hasData := false

	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSuffix(line, "\r")

		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, fieldData):
			dataLines = append(dataLines, trimFieldValue(line, fieldData))
			hasData = true
		case strings.HasPrefix(line, fieldEvent):
			block.Type = trimFieldValue(line, fieldEvent)
		case strings.HasPrefix(line, fieldComment):
			// Comment line (keepalive etc.), ignored.
		default:
			// Unknown fields (id:, retry:, ...) are tolerated and skipped.
		}
	}

	if !hasData {
		d.log.Warn("dropping malformed SSE block without data field",
			"block", truncateForLog(string(raw)))
		return Block{}, false
	}

	block.Data = strings.Join(dataLines, "\n")
	return block, true
}

// trimFieldValue strips the field prefix and the single optional leading
// space the SSE spec allows after the colon.
func trimFieldValue(line, field string) string {
	v := line[len(field):]
	return strings.TrimPrefix(v, " ")
}

// truncateForLog bounds log output for oversized malformed blocks.
func truncateForLog(s string) string {
	const max = 256
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
