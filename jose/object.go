// Copyright (c) 2026 Josecore Authors

package jose

import (
	"fmt"

	"josecore/internal/apperr"
	"josecore/internal/jsonutil"
)

// Kind is the tag of the {Unsecured, JWS, JWE} sum type.
type Kind int

const (
	KindUnsecured Kind = iota
	KindJWS
	KindJWE
)

func (k Kind) String() string {
	switch k {
	case KindUnsecured:
		return "Unsecured"
	case KindJWS:
		return "JWS"
	case KindJWE:
		return "JWE"
	default:
		return "Unknown"
	}
}

// State is a JOSE object's position in its kind-specific state machine.
// Unsecured objects are always StateReady.
type State int

const (
	StateReady State = iota
	StateUnsigned
	StateSigned
	StateUnencrypted
	StateEncrypted
	StateDecrypted
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "Ready"
	case StateUnsigned:
		return "Unsigned"
	case StateSigned:
		return "Signed"
	case StateUnencrypted:
		return "Unencrypted"
	case StateEncrypted:
		return "Encrypted"
	case StateDecrypted:
		return "Decrypted"
	default:
		return "Unknown"
	}
}

// Object is a single-owner, mutable JOSE value: Unsecured, JWS, or JWE,
// carrying its header, payload and additional segments, and enforcing
// its kind-specific state-machine transitions. Objects are not safe for
// concurrent use mid-operation.
type Object struct {
	kind   Kind
	state  State
	header *Header

	payload []byte // plaintext; populated for Unsecured/JWS always, for JWE only once Decrypted

	signature []byte // JWS

	encryptedKey []byte // JWE
	iv           []byte
	ciphertext   []byte
	tag          []byte

	// rawHeaderSegment is the exact base64url header segment this object
	// was parsed from, when it was parsed from compact form. JWE
	// authenticated-data MUST use these exact bytes, not a re-encoding of
	// the decoded header (map key order is not stable across a JSON
	// round trip). Empty for freshly constructed (not-yet-serialized)
	// objects, which instead encode the header at the moment it is used.
	rawHeaderSegment string
}

// HeaderSegment returns the base64url header segment to use as JWE
// additional authenticated data: the original incoming segment for a
// parsed object, or a fresh encoding for one under construction.
func (o *Object) HeaderSegment() (string, error) {
	if o.rawHeaderSegment != "" {
		return o.rawHeaderSegment, nil
	}
	return o.header.Encode()
}

// NewUnsecured constructs a Ready Unsecured object. header.Alg must be "none".
func NewUnsecured(header *Header, payload []byte) (*Object, error) {
	if header == nil {
		return nil, fmt.Errorf("%w: header", apperr.ErrCantBeNil)
	}
	if header.Alg != string(AlgNone) {
		return nil, fmt.Errorf("%w: unsecured object requires alg=none, got %q", apperr.ErrIllegalState, header.Alg)
	}
	if payload == nil {
		payload = []byte{}
	}
	return &Object{kind: KindUnsecured, state: StateReady, header: header, payload: payload}, nil
}

// NewUnsignedJWS constructs an Unsigned JWS object ready for Sign.
// header.Alg must be a registered, non-none JWS algorithm.
func NewUnsignedJWS(header *Header, payload []byte) (*Object, error) {
	if header == nil {
		return nil, fmt.Errorf("%w: header", apperr.ErrCantBeNil)
	}
	if _, ok := ParseJWSAlgorithm(header.Alg); !ok || header.Alg == string(AlgNone) {
		return nil, fmt.Errorf("%w: %q is not a JWS algorithm", apperr.ErrUnsupportedAlgorithm, header.Alg)
	}
	if payload == nil {
		payload = []byte{}
	}
	return &Object{kind: KindJWS, state: StateUnsigned, header: header, payload: payload}, nil
}

// NewUnencryptedJWE constructs an Unencrypted JWE object ready for Encrypt.
// header.Alg must be a registered JWE key-management algorithm and
// header.Enc a registered content-encryption method.
func NewUnencryptedJWE(header *Header, payload []byte) (*Object, error) {
	if header == nil {
		return nil, fmt.Errorf("%w: header", apperr.ErrCantBeNil)
	}
	if _, ok := ParseJWEAlgorithm(header.Alg); !ok {
		return nil, fmt.Errorf("%w: %q is not a JWE algorithm", apperr.ErrUnsupportedAlgorithm, header.Alg)
	}
	if _, ok := ParseEncryptionMethod(header.Enc); !ok {
		return nil, fmt.Errorf("%w: %q is not a content-encryption method", apperr.ErrUnsupportedAlgorithm, header.Enc)
	}
	if payload == nil {
		payload = []byte{}
	}
	return &Object{kind: KindJWE, state: StateUnencrypted, header: header, payload: payload}, nil
}

// setRawHeaderSegment records the exact incoming header segment; used only
// by Parse.
func (o *Object) setRawHeaderSegment(segment string) { o.rawHeaderSegment = segment }

func (o *Object) Kind() Kind      { return o.kind }
func (o *Object) State() State    { return o.state }
func (o *Object) Header() *Header { return o.header }

// Payload returns the plaintext bytes. For a JWE Object this is only
// populated once State() == StateDecrypted.
func (o *Object) Payload() []byte { return o.payload }

// PayloadString is the payload viewed as a UTF-8 string. The byte
// sequence remains the canonical representation; the view is computed
// on each call.
func (o *Object) PayloadString() string { return string(o.payload) }

// PayloadJSON is the payload viewed as a JSON object.
func (o *Object) PayloadJSON() (map[string]any, error) {
	obj, err := jsonutil.UnmarshalObject(o.payload)
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object: %w", apperr.ErrMalformedJose, err)
	}
	return obj, nil
}

// PayloadJOSE is the payload viewed as a nested compact-serialized JOSE
// object (the cty=="JWT" nested-token case).
func (o *Object) PayloadJOSE() (*Object, error) {
	return Parse(string(o.payload))
}

// SigningInput returns the ASCII bytes "b64u(header).b64u(payload)" signed
// or verified for a JWS object.
func (o *Object) SigningInput() ([]byte, error) {
	if o.kind != KindJWS {
		return nil, fmt.Errorf("%w: signing input requires a JWS object", apperr.ErrIllegalState)
	}
	headerSeg, err := o.HeaderSegment()
	if err != nil {
		return nil, err
	}
	return []byte(headerSeg + "." + encodeSegment(o.payload)), nil
}

// MarkSigned transitions Unsigned -> Signed, recording the signature.
func (o *Object) MarkSigned(signature []byte) error {
	if o.kind != KindJWS || o.state != StateUnsigned {
		return fmt.Errorf("%w: MarkSigned requires an Unsigned JWS object, got kind=%s state=%s", apperr.ErrIllegalState, o.kind, o.state)
	}
	o.signature = signature
	o.state = StateSigned
	return nil
}

// Signature returns the JWS signature bytes. Requires State() == Signed.
func (o *Object) Signature() ([]byte, error) {
	if o.kind != KindJWS || o.state != StateSigned {
		return nil, fmt.Errorf("%w: signature only available on a Signed JWS object", apperr.ErrIllegalState)
	}
	return o.signature, nil
}

// MarkEncrypted transitions Unencrypted -> Encrypted, recording the
// encrypter's output segments. header may be the same instance amended
// in-place by the encrypter (e.g. epk/p2s/p2c/iv/tag for GCMKW).
func (o *Object) MarkEncrypted(header *Header, encryptedKey, iv, ciphertext, tag []byte) error {
	if o.kind != KindJWE || o.state != StateUnencrypted {
		return fmt.Errorf("%w: MarkEncrypted requires an Unencrypted JWE object, got kind=%s state=%s", apperr.ErrIllegalState, o.kind, o.state)
	}
	o.header = header
	o.encryptedKey = encryptedKey
	o.iv = iv
	o.ciphertext = ciphertext
	o.tag = tag
	o.state = StateEncrypted
	return nil
}

// MarkDecrypted transitions Encrypted -> Decrypted, exposing plaintext via
// Payload. It does not mutate the encrypted segments: Serialize after
// MarkDecrypted re-emits the original encrypted form.
func (o *Object) MarkDecrypted(plaintext []byte) error {
	if o.kind != KindJWE || o.state != StateEncrypted {
		return fmt.Errorf("%w: MarkDecrypted requires an Encrypted JWE object, got kind=%s state=%s", apperr.ErrIllegalState, o.kind, o.state)
	}
	o.payload = plaintext
	o.state = StateDecrypted
	return nil
}

// EncryptedSegments returns the JWE encrypted-key, IV, ciphertext and auth
// tag. Requires State() to be Encrypted or Decrypted.
func (o *Object) EncryptedSegments() (encryptedKey, iv, ciphertext, tag []byte, err error) {
	if o.kind != KindJWE || (o.state != StateEncrypted && o.state != StateDecrypted) {
		return nil, nil, nil, nil, fmt.Errorf("%w: encrypted segments require an Encrypted or Decrypted JWE object", apperr.ErrIllegalState)
	}
	return o.encryptedKey, o.iv, o.ciphertext, o.tag, nil
}
