// Copyright (c) 2026 Josecore Authors

package jose

import (
	"fmt"
	"strings"

	"josecore/internal/apperr"
	"josecore/internal/b64"
	"josecore/internal/jsonutil"
)

func encodeSegment(data []byte) string { return b64.Encode(data) }

func decodeSegment(s string) ([]byte, error) {
	data, err := b64.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64url segment: %w", apperr.ErrMalformedJose, err)
	}
	return data, nil
}

// Split splits a compact-serialized string on "." and validates the
// segment count is 3 (Unsecured/JWS) or 5 (JWE). It does not decode the
// segments.
func Split(compact string) ([]string, error) {
	segments := strings.Split(compact, ".")
	if len(segments) != 3 && len(segments) != 5 {
		return nil, fmt.Errorf("%w: expected 3 or 5 dot-separated segments, got %d", apperr.ErrMalformedJose, len(segments))
	}
	return segments, nil
}

// Parse splits and decodes a compact-serialized string into an Object,
// classifying it as Unsecured, (Signed) JWS, or (Encrypted) JWE by
// inspecting the decoded header's alg/enc and the segment count.
func Parse(compact string) (*Object, error) {
	segments, err := Split(compact)
	if err != nil {
		return nil, err
	}

	headerBytes, err := decodeSegment(segments[0])
	if err != nil {
		return nil, err
	}
	headerObj, err := jsonutil.UnmarshalObject(headerBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: header is not a JSON object: %w", apperr.ErrMalformedJose, err)
	}
	header, err := ParseHeader(headerObj)
	if err != nil {
		return nil, err
	}

	switch {
	case header.Alg == string(AlgNone):
		if len(segments) != 3 || segments[2] != "" {
			return nil, fmt.Errorf("%w: alg=none requires 3 segments with an empty signature segment", apperr.ErrMalformedJose)
		}
		payload, err := decodeSegment(segments[1])
		if err != nil {
			return nil, err
		}
		obj, err := NewUnsecured(header, payload)
		if err != nil {
			return nil, err
		}
		obj.setRawHeaderSegment(segments[0])
		return obj, nil

	case func() bool { _, ok := ParseJWSAlgorithm(header.Alg); return ok }() && len(segments) == 3:
		payload, err := decodeSegment(segments[1])
		if err != nil {
			return nil, err
		}
		signature, err := decodeSegment(segments[2])
		if err != nil {
			return nil, err
		}
		obj, err := NewUnsignedJWS(header, payload)
		if err != nil {
			return nil, err
		}
		obj.setRawHeaderSegment(segments[0])
		if err := obj.MarkSigned(signature); err != nil {
			return nil, err
		}
		return obj, nil

	case func() bool { _, ok := ParseJWEAlgorithm(header.Alg); return ok }() && header.Enc != "" && len(segments) == 5:
		encKey, err := decodeSegment(segments[1])
		if err != nil {
			return nil, err
		}
		iv, err := decodeSegment(segments[2])
		if err != nil {
			return nil, err
		}
		ciphertext, err := decodeSegment(segments[3])
		if err != nil {
			return nil, err
		}
		tag, err := decodeSegment(segments[4])
		if err != nil {
			return nil, err
		}
		obj, err := NewUnencryptedJWE(header, nil)
		if err != nil {
			return nil, err
		}
		obj.setRawHeaderSegment(segments[0])
		if err := obj.MarkEncrypted(header, encKey, iv, ciphertext, tag); err != nil {
			return nil, err
		}
		return obj, nil

	default:
		return nil, fmt.Errorf("%w: header alg/enc does not match segment count", apperr.ErrMalformedJose)
	}
}

// Serialize renders o to its compact form. Requires o to be in a
// serializable state: Ready (Unsecured), Signed (JWS), or Encrypted /
// Decrypted (JWE, which re-emits the original encrypted segments).
func Serialize(o *Object) (string, error) {
	headerSeg, err := o.HeaderSegment()
	if err != nil {
		return "", err
	}

	switch o.Kind() {
	case KindUnsecured:
		if o.State() != StateReady {
			return "", fmt.Errorf("%w: unsecured object must be Ready", apperr.ErrIllegalState)
		}
		return headerSeg + "." + encodeSegment(o.Payload()) + ".", nil

	case KindJWS:
		sig, err := o.Signature()
		if err != nil {
			return "", err
		}
		return headerSeg + "." + encodeSegment(o.Payload()) + "." + encodeSegment(sig), nil

	case KindJWE:
		encKey, iv, ciphertext, tag, err := o.EncryptedSegments()
		if err != nil {
			return "", err
		}
		return strings.Join([]string{
			headerSeg,
			encodeSegment(encKey),
			encodeSegment(iv),
			encodeSegment(ciphertext),
			encodeSegment(tag),
		}, "."), nil

	default:
		return "", fmt.Errorf("%w: unknown object kind", apperr.ErrIllegalState)
	}
}
