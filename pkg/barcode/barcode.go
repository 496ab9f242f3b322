// Package barcode renders Code 128 labels as PNG images.
package barcode

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
)

const (
	defaultWidth  = 300
	defaultHeight = 120
)

// Encode renders the text as a Code 128 PNG at the default label size.
func Encode(text string) ([]byte, error) {
	return EncodeSized(text, defaultWidth, defaultHeight)
}

// EncodeSized renders the text as a Code 128 PNG scaled to width x height
// pixels.
func EncodeSized(text string, width, height int) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("barcode text is required")
	}

	code, err := code128.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("encoding code128: %w", err)
	}

	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, fmt.Errorf("scaling barcode: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("rendering png: %w", err)
	}
	return buf.Bytes(), nil
}
