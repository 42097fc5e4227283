package paylink

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// DefaultQRSize is the edge length in pixels of rendered QR images.
const DefaultQRSize = 256

// EncodingError wraps failures of the image encoder. The URI stays usable when this occurs.
type EncodingError struct {
	URI string
	Err error
}

func (e *EncodingError) Error() string {
	if e.Err == nil {
		return "encode payment link image"
	}
	return "encode payment link image: " + e.Err.Error()
}

func (e *EncodingError) Unwrap() error { return e.Err }

// IsEncoding reports whether err came from the image encoder.
func IsEncoding(err error) bool {
	var target *EncodingError
	return errors.As(err, &target)
}

// Renderer turns a payment URI into a scannable image.
type Renderer interface {
	Render(ctx context.Context, uri string) ([]byte, error)
}

// QRRenderer renders PNG QR codes. A single attempt is made per call.
type QRRenderer struct {
	Size int
	// Level is one of L, M, Q or H. Empty means M.
	Level string
}

// Render encodes uri as a PNG QR code.
func (r QRRenderer) Render(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &EncodingError{URI: uri, Err: err}
	}
	if strings.TrimSpace(uri) == "" {
		return nil, &EncodingError{URI: uri, Err: errors.New("empty uri")}
	}
	size := r.Size
	if size <= 0 {
		size = DefaultQRSize
	}
	code, err := qr.Encode(uri, parseLevel(r.Level), qr.Auto)
	if err != nil {
		return nil, &EncodingError{URI: uri, Err: err}
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, &EncodingError{URI: uri, Err: err}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, &EncodingError{URI: uri, Err: err}
	}
	return buf.Bytes(), nil
}

// DataURI embeds PNG bytes into a data: URI for inline display.
func DataURI(pngBytes []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

func parseLevel(level string) qr.ErrorCorrectionLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "L":
		return qr.L
	case "Q":
		return qr.Q
	case "H":
		return qr.H
	default:
		return qr.M
	}
}
