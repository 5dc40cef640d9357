// Package qr prints a terminal QR code for a loom serve attach URL, so a
// phone can scan its way to a running session instead of typing an
// address.
package qr

import (
	"fmt"
	"io"

	qrcode "github.com/skip2/go-qrcode"
)

// Fprint writes a terminal-rendered QR code encoding content to w.
func Fprint(w io.Writer, content string) error {
	code, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("qr: encode: %w", err)
	}
	_, err = fmt.Fprintln(w, code.ToString(false))
	return err
}
