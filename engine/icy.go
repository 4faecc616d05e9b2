// ABOUTME: Shoutcast/Icecast in-band metadata handling for HTTP streams
// ABOUTME: Strips metadata blocks from the audio bytes and extracts StreamTitle

package engine

import (
	"bufio"
	"io"
	"strings"
)

// icyMaxMetaLen is the largest block a single length byte can announce (255 * 16)
const icyMaxMetaLen = 4080

// icyReader yields only audio bytes from a stream carrying metadata every metaint bytes
type icyReader struct {
	r         *bufio.Reader
	metaint   int
	remaining int
	onTitle   func(string)
}

// newICYReader wraps r; with metaint <= 0 the stream carries no metadata and r is returned as-is
func newICYReader(r io.Reader, metaint int, onTitle func(string)) io.Reader {
	if metaint <= 0 {
		return r
	}

	return &icyReader{
		r:         bufio.NewReader(r),
		metaint:   metaint,
		remaining: metaint,
		onTitle:   onTitle,
	}
}

func (ir *icyReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if ir.remaining == 0 {
		if err := ir.readMeta(); err != nil {
			return 0, err
		}

		ir.remaining = ir.metaint
	}

	if len(p) > ir.remaining {
		p = p[:ir.remaining]
	}

	n, err := ir.r.Read(p)
	ir.remaining -= n

	return n, err
}

func (ir *icyReader) readMeta() error {
	lenByte, err := ir.r.ReadByte()
	if err != nil {
		return err
	}

	size := int(lenByte) * 16
	if size == 0 {
		return nil
	}

	block := make([]byte, size)
	if _, err := io.ReadFull(ir.r, block); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}

		return err
	}

	if title, ok := parseStreamTitle(string(block)); ok && ir.onTitle != nil {
		ir.onTitle(title)
	}

	return nil
}

// parseStreamTitle extracts the StreamTitle value from a metadata block.
// Blocks are NUL padded and look like: StreamTitle='Artist - Song';StreamUrl='';
func parseStreamTitle(meta string) (string, bool) {
	meta = strings.TrimRight(meta, "\x00")

	const key = "StreamTitle='"

	start := strings.Index(meta, key)
	if start < 0 {
		return "", false
	}

	value := meta[start+len(key):]

	// Titles may themselves contain quotes, so the terminator is the quote before ';'
	if end := strings.Index(value, "';"); end >= 0 {
		value = value[:end]
	} else {
		value = strings.TrimSuffix(value, "'")
	}

	return strings.TrimSpace(value), true
}
