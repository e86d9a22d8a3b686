// Copyright (c) 2026 Josecore Authors

package jwk

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"josecore/internal/apperr"
	"josecore/jose"
)

func TestVerificationSelectorDerivesMatcherFromHeader(t *testing.T) {
	set := NewSet([]*JWK{{Kty: jose.KtyOCT, Kid: "sig-1", Alg: "HS256", Use: UseSig, K: "c2VjcmV0"}})
	sel := NewVerificationSelector(NewImmutableSource(set), jose.AlgHS256)
	header := &jose.Header{Kid: "sig-1", Alg: "HS256"}

	candidates, err := sel.Select(context.Background(), header, nil)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, []byte("secret"), candidates[0])
}

func TestVerificationSelectorRejectsUnexpectedAlgBeforeConsultingSource(t *testing.T) {
	sel := NewVerificationSelector(countingSource{t: t}, jose.AlgRS256)
	header := &jose.Header{Kid: "sig-1", Alg: "HS256"}

	_, err := sel.Select(context.Background(), header, nil)
	assert.ErrorIs(t, err, apperr.ErrUnsupportedAlgorithm,
		"a header alg outside the expected set must be rejected, not passed through as the filter")
}

func TestVerificationSelectorRejectsNoneAndUnknownAlg(t *testing.T) {
	sel := NewVerificationSelector(countingSource{t: t}, jose.AlgHS256)
	for _, alg := range []string{"none", "bogus", ""} {
		_, err := sel.Select(context.Background(), &jose.Header{Alg: alg}, nil)
		assert.ErrorIs(t, err, apperr.ErrUnsupportedAlgorithm, "alg %q", alg)
	}
}

func TestVerificationSelectorAcceptsAnyAlgFromExpectedFamily(t *testing.T) {
	set := NewSet([]*JWK{{Kty: jose.KtyOCT, Kid: "k1", Alg: "HS384", Use: UseSig, K: "c2VjcmV0"}})
	sel := NewVerificationSelector(NewImmutableSource(set), jose.AlgHS256, jose.AlgHS384, jose.AlgHS512)

	candidates, err := sel.Select(context.Background(), &jose.Header{Kid: "k1", Alg: "HS384"}, nil)
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestVerificationSelectorUsesSigNotEnc(t *testing.T) {
	set := NewSet([]*JWK{{Kty: jose.KtyOCT, Kid: "k1", Use: UseEnc, K: "c2VjcmV0"}})
	sel := NewVerificationSelector(NewImmutableSource(set), jose.AlgHS256)
	header := &jose.Header{Kid: "k1", Alg: "HS256"}

	candidates, err := sel.Select(context.Background(), header, nil)
	require.NoError(t, err)
	assert.Empty(t, candidates, "an enc-use key must not satisfy a verification selector")
}

func TestDecryptionSelectorDerivesMatcherFromHeader(t *testing.T) {
	set := NewSet([]*JWK{{Kty: jose.KtyOCT, Kid: "enc-1", Use: UseEnc, K: "c2VjcmV0"}})
	sel := NewDecryptionSelector(NewImmutableSource(set),
		[]jose.JWEAlgorithm{jose.AlgA128KW}, []jose.EncryptionMethod{jose.EncA128GCM})
	header := &jose.Header{Kid: "enc-1", Alg: "A128KW", Enc: "A128GCM"}

	candidates, err := sel.Select(context.Background(), header, nil)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
}

func TestDecryptionSelectorRejectsUnexpectedAlg(t *testing.T) {
	sel := NewDecryptionSelector(countingSource{t: t},
		[]jose.JWEAlgorithm{jose.AlgA128KW}, []jose.EncryptionMethod{jose.EncA128GCM})
	header := &jose.Header{Alg: "RSA1_5", Enc: "A128GCM"}

	_, err := sel.Select(context.Background(), header, nil)
	assert.ErrorIs(t, err, apperr.ErrUnsupportedAlgorithm)
}

func TestDecryptionSelectorRejectsUnexpectedEnc(t *testing.T) {
	sel := NewDecryptionSelector(countingSource{t: t},
		[]jose.JWEAlgorithm{jose.AlgA128KW}, []jose.EncryptionMethod{jose.EncA128GCM})
	header := &jose.Header{Alg: "A128KW", Enc: "A256GCM"}

	_, err := sel.Select(context.Background(), header, nil)
	assert.ErrorIs(t, err, apperr.ErrUnsupportedAlgorithm)
}

func TestSelectorSkipsUnconvertibleKeysWithoutFailing(t *testing.T) {
	set := NewSet([]*JWK{
		{Kty: jose.KtyOKP, Crv: "X25519", X: "eA", Use: UseSig},
		{Kty: jose.KtyOCT, Use: UseSig, K: "c2VjcmV0"},
	})
	sel := NewVerificationSelector(NewImmutableSource(set), jose.AlgHS256)
	candidates, err := sel.Select(context.Background(), &jose.Header{Alg: "HS256"}, nil)
	require.NoError(t, err)
	require.Len(t, candidates, 1, "the unconvertible OKP key must be skipped, not fatal")
	assert.Equal(t, []byte("secret"), candidates[0])
}

func TestSelectorPropagatesSourceError(t *testing.T) {
	sel := NewVerificationSelector(errorSource{}, jose.AlgHS256)
	_, err := sel.Select(context.Background(), &jose.Header{Kid: "x", Alg: "HS256"}, nil)
	assert.Error(t, err)
}

type errorSource struct{}

func (errorSource) Get(_ context.Context, _ Matcher, _ any) ([]*JWK, error) {
	return nil, errors.New("source failure")
}

// countingSource fails the test if the selector consults the source at
// all: the algorithm constraint must gate before any lookup.
type countingSource struct{ t *testing.T }

func (c countingSource) Get(_ context.Context, _ Matcher, _ any) ([]*JWK, error) {
	c.t.Fatal("key source consulted for a header the selector should have rejected")
	return nil, nil
}
