// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package load

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/deckproxy/pkg/types"
)

func init() {
	// pdfcpu writes a config directory under the user's home by default.
	api.DisableConfigDir()
}

// preflight validates the PDF structure with pdfcpu in relaxed mode. It
// catches broken cross-reference tables and object graphs that the text
// extractor would otherwise read silently.
func preflight(rs io.ReadSeeker, password string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.UserPW = password

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding input: %w", err)
	}
	err := api.Validate(rs, conf)
	if _, serr := rs.Seek(0, io.SeekStart); serr != nil && err == nil {
		err = fmt.Errorf("rewinding input: %w", serr)
	}
	if err == nil {
		return nil
	}
	if isPasswordError(err) {
		return types.ErrEncrypted
	}
	return fmt.Errorf("%w: structural validation: %v", types.ErrNotPDF, err)
}

// decrypt returns the document read from rs with its encryption removed.
// A password that opens neither the user nor the owner key is reported as
// ErrEncrypted.
func decrypt(rs io.ReadSeeker, password string) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.UserPW = password

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding input: %w", err)
	}
	var buf bytes.Buffer
	if err := api.Decrypt(rs, &buf, conf); err != nil {
		if isPasswordError(err) {
			return nil, types.ErrEncrypted
		}
		return nil, fmt.Errorf("%w: decrypting: %v", types.ErrNotPDF, err)
	}
	return buf.Bytes(), nil
}

func isPasswordError(err error) bool {
	for e := err; e != nil; e = errors.Unwrap(e) {
		msg := strings.ToLower(e.Error())
		if strings.Contains(msg, "password") || strings.Contains(msg, "encrypt") {
			return true
		}
	}
	return false
}
