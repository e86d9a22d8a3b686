// Copyright (c) 2026 Josecore Authors

package b64

import "errors"

var (
	errInvalidLength = errors.New("b64: invalid base64url length")
	errWhitespace    = errors.New("b64: whitespace in base64url input")
	errTooLong       = errors.New("b64: decoded value exceeds requested width")
)
