// Copyright (c) 2026 Josecore Authors

package jose

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signVerifyRoundTrip(t *testing.T, alg JWSAlgorithm, signKey, verifyKey any) {
	t.Helper()
	header := mustHeader(t, map[string]any{"alg": string(alg)})

	signer, err := (DefaultSignerFactory{}).NewSigner(header, signKey)
	require.NoError(t, err)

	signingInput := []byte("header.payload")
	sig, err := signer.Sign(header, signingInput)
	require.NoError(t, err)

	verifier, err := (DefaultVerifierFactory{}).NewVerifier(header, verifyKey)
	require.NoError(t, err)
	ok, err := verifier.Verify(header, signingInput, sig)
	require.NoError(t, err)
	assert.True(t, ok, "verify(sign(m)) must succeed")

	// Forgery resistance: a different payload must not verify.
	ok, err = verifier.Verify(header, []byte("header.different-payload"), sig)
	require.NoError(t, err)
	assert.False(t, ok)

	// Flipping any byte of the signature must cause verify to fail.
	flipped := append([]byte{}, sig...)
	flipped[0] ^= 0xFF
	ok, err = verifier.Verify(header, signingInput, flipped)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHMACSignVerifyRoundTrip(t *testing.T) {
	secret := []byte("0123456789012345678901234567890101234567890123456789012345678901")
	for _, alg := range []JWSAlgorithm{AlgHS256, AlgHS384, AlgHS512} {
		t.Run(string(alg), func(t *testing.T) {
			signVerifyRoundTrip(t, alg, secret, secret)
		})
	}
}

func TestHMACSignerRejectsShortKey(t *testing.T) {
	header := mustHeader(t, map[string]any{"alg": "HS256"})
	_, err := (DefaultSignerFactory{}).NewSigner(header, []byte("short"))
	assert.Error(t, err)
}

func TestRSAPKCS1SignVerifyRoundTrip(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	for _, alg := range []JWSAlgorithm{AlgRS256, AlgRS384, AlgRS512} {
		t.Run(string(alg), func(t *testing.T) {
			signVerifyRoundTrip(t, alg, priv, &priv.PublicKey)
		})
	}
}

func TestRSAPSSSignVerifyRoundTrip(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	for _, alg := range []JWSAlgorithm{AlgPS256, AlgPS384, AlgPS512} {
		t.Run(string(alg), func(t *testing.T) {
			signVerifyRoundTrip(t, alg, priv, &priv.PublicKey)
		})
	}
}

func TestECDSASignVerifyRoundTrip(t *testing.T) {
	cases := []struct {
		alg   JWSAlgorithm
		curve elliptic.Curve
		width int
	}{
		{AlgES256, elliptic.P256(), 32},
		{AlgES384, elliptic.P384(), 48},
		{AlgES512, elliptic.P521(), 66},
	}
	for _, c := range cases {
		t.Run(string(c.alg), func(t *testing.T) {
			priv, err := ecdsa.GenerateKey(c.curve, rand.Reader)
			require.NoError(t, err)
			signVerifyRoundTrip(t, c.alg, priv, &priv.PublicKey)

			header := mustHeader(t, map[string]any{"alg": string(c.alg)})
			signer, err := (DefaultSignerFactory{}).NewSigner(header, priv)
			require.NoError(t, err)
			sig, err := signer.Sign(header, []byte("m"))
			require.NoError(t, err)
			assert.Len(t, sig, 2*c.width, "fixed-width r||s encoding")
		})
	}
}

func TestVerifierFactoryReturnsNilForMismatchedKeyKind(t *testing.T) {
	header := mustHeader(t, map[string]any{"alg": "HS256"})
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	verifier, err := (DefaultVerifierFactory{}).NewVerifier(header, priv)
	require.NoError(t, err)
	assert.Nil(t, verifier, "mismatched key kind should be skippable, not an error")
}

func TestSignerFactoryRejectsUnknownAlgorithm(t *testing.T) {
	header := mustHeader(t, map[string]any{"alg": "bogus"})
	_, err := (DefaultSignerFactory{}).NewSigner(header, []byte("secret"))
	assert.Error(t, err)
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, ConstantTimeEqual([]byte("abc"), []byte("abc")))
	assert.False(t, ConstantTimeEqual([]byte("abc"), []byte("abd")))
	assert.False(t, ConstantTimeEqual([]byte("abc"), []byte("ab")))
}
