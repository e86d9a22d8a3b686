// Copyright (c) 2026 Josecore Authors

package jose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"josecore/internal/apperr"
)

func TestNewUnsecuredRejectsNonNoneAlg(t *testing.T) {
	header := mustHeader(t, map[string]any{"alg": "HS256"})
	_, err := NewUnsecured(header, nil)
	assert.Error(t, err)
}

func TestNewUnsignedJWSRejectsNoneAlg(t *testing.T) {
	header := mustHeader(t, map[string]any{"alg": "none"})
	_, err := NewUnsignedJWS(header, nil)
	assert.Error(t, err)
}

func TestNewUnsignedJWSRejectsUnknownAlg(t *testing.T) {
	header := mustHeader(t, map[string]any{"alg": "bogus"})
	_, err := NewUnsignedJWS(header, nil)
	assert.Error(t, err)
}

func TestNewUnencryptedJWERequiresValidAlgAndEnc(t *testing.T) {
	header := mustHeader(t, map[string]any{"alg": "dir"})
	_, err := NewUnencryptedJWE(header, nil)
	assert.Error(t, err, "missing enc should be rejected")

	header = mustHeader(t, map[string]any{"alg": "bogus", "enc": "A128GCM"})
	_, err = NewUnencryptedJWE(header, nil)
	assert.Error(t, err)
}

func TestSigningInputRequiresJWSKind(t *testing.T) {
	header := mustHeader(t, map[string]any{"alg": "none"})
	obj, err := NewUnsecured(header, nil)
	require.NoError(t, err)
	_, err = obj.SigningInput()
	assert.ErrorIs(t, err, apperr.ErrIllegalState)
}

func TestMarkSignedTwiceFails(t *testing.T) {
	header := mustHeader(t, map[string]any{"alg": "HS256"})
	obj, err := NewUnsignedJWS(header, []byte("p"))
	require.NoError(t, err)
	require.NoError(t, obj.MarkSigned([]byte("sig1")))
	err = obj.MarkSigned([]byte("sig2"))
	assert.Error(t, err, "re-signing a Signed JWS is an illegal transition")
}

func TestSignatureRequiresSignedState(t *testing.T) {
	header := mustHeader(t, map[string]any{"alg": "HS256"})
	obj, err := NewUnsignedJWS(header, []byte("p"))
	require.NoError(t, err)
	_, err = obj.Signature()
	assert.Error(t, err)
}

func TestSerializeUnsignedJWSFails(t *testing.T) {
	header := mustHeader(t, map[string]any{"alg": "HS256"})
	obj, err := NewUnsignedJWS(header, []byte("p"))
	require.NoError(t, err)
	_, err = Serialize(obj)
	assert.Error(t, err)
}

func TestMarkDecryptedRequiresEncryptedState(t *testing.T) {
	header := mustHeader(t, map[string]any{"alg": "dir", "enc": "A128GCM"})
	obj, err := NewUnencryptedJWE(header, []byte("p"))
	require.NoError(t, err)
	err = obj.MarkDecrypted([]byte("plaintext"))
	assert.Error(t, err, "cannot decrypt before encrypting")
}

func TestEncryptedSegmentsRequireEncryptedOrDecryptedState(t *testing.T) {
	header := mustHeader(t, map[string]any{"alg": "dir", "enc": "A128GCM"})
	obj, err := NewUnencryptedJWE(header, []byte("p"))
	require.NoError(t, err)
	_, _, _, _, err = obj.EncryptedSegments()
	assert.Error(t, err)
}

func TestPayloadTypedViews(t *testing.T) {
	header := mustHeader(t, map[string]any{"alg": "none"})
	obj, err := NewUnsecured(header, []byte(`{"sub":"alice"}`))
	require.NoError(t, err)

	assert.Equal(t, `{"sub":"alice"}`, obj.PayloadString())

	parsed, err := obj.PayloadJSON()
	require.NoError(t, err)
	assert.Equal(t, "alice", parsed["sub"])
}

func TestPayloadJSONRejectsNonObject(t *testing.T) {
	header := mustHeader(t, map[string]any{"alg": "none"})
	obj, err := NewUnsecured(header, []byte(`not-json`))
	require.NoError(t, err)
	_, err = obj.PayloadJSON()
	assert.ErrorIs(t, err, apperr.ErrMalformedJose)
}

func TestPayloadJOSEViewsNestedToken(t *testing.T) {
	innerHeader := mustHeader(t, map[string]any{"alg": "HS256"})
	inner, err := NewUnsignedJWS(innerHeader, []byte(`{"sub":"bob"}`))
	require.NoError(t, err)
	require.NoError(t, inner.MarkSigned([]byte("sig")))
	innerCompact, err := Serialize(inner)
	require.NoError(t, err)

	outerHeader := mustHeader(t, map[string]any{"alg": "none", "cty": "JWT"})
	outer, err := NewUnsecured(outerHeader, []byte(innerCompact))
	require.NoError(t, err)

	nested, err := outer.PayloadJOSE()
	require.NoError(t, err)
	assert.Equal(t, KindJWS, nested.Kind())
}

func TestKindAndStateString(t *testing.T) {
	assert.Equal(t, "Unsecured", KindUnsecured.String())
	assert.Equal(t, "JWS", KindJWS.String())
	assert.Equal(t, "JWE", KindJWE.String())
	assert.Equal(t, "Signed", StateSigned.String())
	assert.Equal(t, "Decrypted", StateDecrypted.String())
}
