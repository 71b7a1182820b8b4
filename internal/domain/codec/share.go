package codec

import (
	"errors"
	"fmt"

	"github.com/okian/scoutsync/internal/domain/model"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	// MaxQRBytes is the byte-mode capacity of a version 40 code at low
	// error recovery, the level RenderPNG draws with.
	MaxQRBytes = 2953
	// DefaultMaxBytes is the budget ChunkBulk uses when none is given.
	DefaultMaxBytes = 2900
)

// ErrRender is returned when a payload cannot be drawn as a QR code.
var ErrRender = errors.New("qr render failed")

// ChunkBulk splits ms into bulk payloads no larger than maxBytes. A record
// whose line alone exceeds the budget gets a payload of its own. Order is
// preserved. A non-positive maxBytes selects DefaultMaxBytes.
func ChunkBulk(ms []model.MatchRecord, maxBytes int) []string {
	if len(ms) == 0 {
		return nil
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	var (
		out   []string
		start = 0
		size  = len(BulkPrefix)
	)
	for i := range ms {
		n := len(encodeFields(&ms[i]))
		if i > start {
			n += len(lineSep)
		}
		if i > start && size+n > maxBytes {
			out = append(out, EncodeBulk(ms[start:i]))
			start = i
			size = len(BulkPrefix) + n - len(lineSep)
			continue
		}
		size += n
	}
	return append(out, EncodeBulk(ms[start:]))
}

// RenderPNG draws payload as a size x size PNG with low error recovery.
// Payloads up to MaxQRBytes fit.
func RenderPNG(payload string, size int) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.Low, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return png, nil
}
