// Copyright (c) 2026 Josecore Authors

package jose

import (
	"fmt"

	"josecore/internal/apperr"
	"josecore/internal/jsonutil"
)

// Header is the parameter set carried by a JOSE object. The same
// type serves all three variants: Unsecured and JWS headers leave Enc and
// the key-agreement fields zero; JWE headers populate Enc and, depending
// on algorithm, Epk/Apu/Apv/P2s/P2c/Iv/Tag. JWE encrypters fill in those
// key-management fields on the header they are given, in place.
//
// Unrecognized parameters are preserved verbatim in Extra and re-emitted on
// MarshalJSON, so parse-then-serialize round-trips losslessly.
type Header struct {
	Alg string // JWSAlgorithm or JWEAlgorithm name, or "none"
	Enc string // EncryptionMethod name; empty for Unsecured/JWS

	Typ string
	Cty string
	Zip string

	Crit    []string
	Kid     string
	Jku     string
	X5u     string
	X5c     []string
	X5t     string
	X5tS256 string

	Jwk map[string]any // embedded public JWK, if present

	// JWE key-agreement / key-wrap parameters.
	Epk map[string]any
	Apu string
	Apv string
	P2s string
	P2c int64
	Iv  string
	Tag string

	// Extra carries every header parameter not recognized above,
	// verbatim, keyed by parameter name.
	Extra map[string]any
}

// recognizedParams lists every header parameter name Header extracts by
// name, used by HeaderPolicy to compute the accepted-parameter union.
var recognizedParams = []string{
	"alg", "enc", "typ", "cty", "zip", "crit", "kid", "jku", "x5u", "x5c",
	"x5t", "x5t#S256", "jwk", "epk", "apu", "apv", "p2s", "p2c", "iv", "tag",
}

// ParseHeader decodes a JSON object into a Header, extracting recognized
// parameters with typed validation and preserving the rest in Extra.
func ParseHeader(obj map[string]any) (*Header, error) {
	h := &Header{Extra: map[string]any{}}

	alg, present, err := jsonutil.String(obj, "alg")
	if err != nil {
		return nil, fmt.Errorf("%w: alg: %w", apperr.ErrMalformedJose, err)
	}
	if !present {
		return nil, fmt.Errorf("%w: missing required alg", apperr.ErrMalformedJose)
	}
	h.Alg = alg

	if h.Enc, _, err = stringField(obj, "enc"); err != nil {
		return nil, err
	}
	if h.Typ, _, err = stringField(obj, "typ"); err != nil {
		return nil, err
	}
	if h.Cty, _, err = stringField(obj, "cty"); err != nil {
		return nil, err
	}
	if h.Zip, _, err = stringField(obj, "zip"); err != nil {
		return nil, err
	}
	if h.Kid, _, err = stringField(obj, "kid"); err != nil {
		return nil, err
	}
	if h.Jku, _, err = stringField(obj, "jku"); err != nil {
		return nil, err
	}
	if h.X5u, _, err = stringField(obj, "x5u"); err != nil {
		return nil, err
	}
	if h.X5t, _, err = stringField(obj, "x5t"); err != nil {
		return nil, err
	}
	if h.X5tS256, _, err = stringField(obj, "x5t#S256"); err != nil {
		return nil, err
	}
	if h.Apu, _, err = stringField(obj, "apu"); err != nil {
		return nil, err
	}
	if h.Apv, _, err = stringField(obj, "apv"); err != nil {
		return nil, err
	}
	if h.P2s, _, err = stringField(obj, "p2s"); err != nil {
		return nil, err
	}
	if h.Iv, _, err = stringField(obj, "iv"); err != nil {
		return nil, err
	}
	if h.Tag, _, err = stringField(obj, "tag"); err != nil {
		return nil, err
	}

	if crit, present, err := jsonutil.StringArray(obj, "crit", false); err != nil {
		return nil, fmt.Errorf("%w: crit: %w", apperr.ErrMalformedJose, err)
	} else if present {
		h.Crit = crit
	}

	if x5c, present, err := jsonutil.StringArray(obj, "x5c", false); err != nil {
		return nil, fmt.Errorf("%w: x5c: %w", apperr.ErrMalformedJose, err)
	} else if present {
		h.X5c = x5c
	}

	if jwk, present, err := jsonutil.Object(obj, "jwk"); err != nil {
		return nil, fmt.Errorf("%w: jwk: %w", apperr.ErrMalformedJose, err)
	} else if present {
		h.Jwk = jwk
	}

	if epk, present, err := jsonutil.Object(obj, "epk"); err != nil {
		return nil, fmt.Errorf("%w: epk: %w", apperr.ErrMalformedJose, err)
	} else if present {
		h.Epk = epk
	}

	if p2c, present, err := jsonutil.Int64(obj, "p2c"); err != nil {
		return nil, fmt.Errorf("%w: p2c: %w", apperr.ErrMalformedJose, err)
	} else if present {
		h.P2c = p2c
	}

	for k, v := range obj {
		if isRecognized(k) {
			continue
		}
		h.Extra[k] = v
	}
	return h, nil
}

func stringField(obj map[string]any, key string) (string, bool, error) {
	s, present, err := jsonutil.String(obj, key)
	if err != nil {
		return "", present, fmt.Errorf("%w: %s: %w", apperr.ErrMalformedJose, key, err)
	}
	return s, present, nil
}

func isRecognized(key string) bool {
	for _, p := range recognizedParams {
		if p == key {
			return true
		}
	}
	return false
}

// ToJSON renders the header back to its canonical JSON object form.
func (h *Header) ToJSON() (map[string]any, error) {
	obj := map[string]any{}
	for k, v := range h.Extra {
		obj[k] = v
	}
	obj["alg"] = h.Alg
	setIfNonEmpty(obj, "enc", h.Enc)
	setIfNonEmpty(obj, "typ", h.Typ)
	setIfNonEmpty(obj, "cty", h.Cty)
	setIfNonEmpty(obj, "zip", h.Zip)
	setIfNonEmpty(obj, "kid", h.Kid)
	setIfNonEmpty(obj, "jku", h.Jku)
	setIfNonEmpty(obj, "x5u", h.X5u)
	setIfNonEmpty(obj, "x5t", h.X5t)
	setIfNonEmpty(obj, "x5t#S256", h.X5tS256)
	setIfNonEmpty(obj, "apu", h.Apu)
	setIfNonEmpty(obj, "apv", h.Apv)
	setIfNonEmpty(obj, "p2s", h.P2s)
	setIfNonEmpty(obj, "iv", h.Iv)
	setIfNonEmpty(obj, "tag", h.Tag)
	if h.P2c != 0 {
		obj["p2c"] = h.P2c
	}
	if len(h.Crit) > 0 {
		obj["crit"] = h.Crit
	}
	if len(h.X5c) > 0 {
		obj["x5c"] = h.X5c
	}
	if h.Jwk != nil {
		obj["jwk"] = h.Jwk
	}
	if h.Epk != nil {
		obj["epk"] = h.Epk
	}
	return obj, nil
}

func setIfNonEmpty(obj map[string]any, key, value string) {
	if value != "" {
		obj[key] = value
	}
}

// Encode marshals the header to its base64url segment.
func (h *Header) Encode() (string, error) {
	obj, err := h.ToJSON()
	if err != nil {
		return "", err
	}
	data, err := jsonutil.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("%w: encoding header: %w", apperr.ErrMalformedJose, err)
	}
	return encodeSegment(data), nil
}

// HeaderPolicy is the caller-declared acceptance set for header
// parameters (RFC 7515 §4.1.11 crit handling): crit names that MUST be
// understood, plus any additional parameter names the caller recognizes
// beyond the built-in set. Headers carrying a parameter outside the
// union of the built-in set, AdditionalAccepted and WhitelistedCrit are
// rejected with ErrHeaderNotAccepted; crit entries outside the
// whitelist are rejected with ErrCriticalParamUnsupported. The built-in
// set is the same for every algorithm: a built-in parameter is accepted
// whether or not the header's alg uses it (p2s on a JWS header passes).
type HeaderPolicy struct {
	// WhitelistedCrit is the set of crit parameter names this caller
	// understands and will honor.
	WhitelistedCrit map[string]bool
	// AdditionalAccepted is the set of non-crit, non-built-in parameter
	// names this caller additionally accepts.
	AdditionalAccepted map[string]bool
}

// DefaultHeaderPolicy accepts only the built-in recognized parameters and
// no crit entries.
func DefaultHeaderPolicy() HeaderPolicy {
	return HeaderPolicy{WhitelistedCrit: map[string]bool{}, AdditionalAccepted: map[string]bool{}}
}

// Check enforces the policy against h, returning ErrCriticalParamUnsupported
// or ErrHeaderNotAccepted on violation.
func (p HeaderPolicy) Check(h *Header) error {
	for _, c := range h.Crit {
		if !p.WhitelistedCrit[c] {
			return fmt.Errorf("%w: %q", apperr.ErrCriticalParamUnsupported, c)
		}
	}
	for k := range h.Extra {
		if p.WhitelistedCrit[k] || p.AdditionalAccepted[k] {
			continue
		}
		return fmt.Errorf("%w: %q", apperr.ErrHeaderNotAccepted, k)
	}
	return nil
}

// Critical returns the crit parameter names in declaration order, or nil.
func (h *Header) Critical() []string {
	if len(h.Crit) == 0 {
		return nil
	}
	out := make([]string, len(h.Crit))
	copy(out, h.Crit)
	return out
}
