// Copyright (c) 2026 Josecore Authors

package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"josecore/internal/apperr"
)

func TestBuilderRoundTrip(t *testing.T) {
	c := NewClaims().
		WithIssuer("issuer").
		WithSubject("alice").
		WithAudience("svcA").
		WithExpiry(1700003600).
		WithNotBefore(1700000000).
		WithIssuedAt(1700000000).
		WithID("jti-1")

	iss, ok := c.Issuer()
	require.True(t, ok)
	assert.Equal(t, "issuer", iss)

	sub, ok := c.Subject()
	require.True(t, ok)
	assert.Equal(t, "alice", sub)

	aud, ok := c.Audience()
	require.True(t, ok)
	assert.Equal(t, []string{"svcA"}, aud)

	exp, ok := c.Expiry()
	require.True(t, ok)
	assert.Equal(t, int64(1700003600), exp)

	id, ok := c.ID()
	require.True(t, ok)
	assert.Equal(t, "jti-1", id)
}

func TestWithGeneratedIDProducesNonEmptyID(t *testing.T) {
	c := NewClaims().WithGeneratedID()
	id, ok := c.ID()
	require.True(t, ok)
	assert.NotEmpty(t, id)
}

func TestWithClaimRejectsRegisteredNameCollision(t *testing.T) {
	c := NewClaims()
	for _, name := range []string{"iss", "sub", "aud", "exp", "nbf", "iat", "jti"} {
		_, err := c.WithClaim(name, "x")
		assert.ErrorIs(t, err, apperr.ErrMalformedClaims, "claim %q should collide", name)
	}
}

func TestWithClaimAllowsCustomNames(t *testing.T) {
	c := NewClaims()
	updated, err := c.WithClaim("role", "admin")
	require.NoError(t, err)
	v, ok := updated.Claim("role")
	require.True(t, ok)
	assert.Equal(t, "admin", v)
}

func TestNamesPreservesInsertionOrder(t *testing.T) {
	c := NewClaims().WithIssuer("i").WithSubject("s")
	_, _ = c.WithClaim("z", 1)
	_, _ = c.WithClaim("a", 2)
	assert.Equal(t, []string{ClaimIss, ClaimSub, "z", "a"}, c.Names())
}

func TestToJSONSingleAudienceEmitsString(t *testing.T) {
	c := NewClaims().WithAudience("only")
	obj := c.ToJSON()
	assert.Equal(t, "only", obj[ClaimAud])
}

func TestToJSONMultiAudienceEmitsArray(t *testing.T) {
	c := NewClaims().WithAudience("a", "b")
	obj := c.ToJSON()
	assert.Equal(t, []string{"a", "b"}, obj[ClaimAud])
}

// TestParseClaimsNormalizesAudienceSingletonToArray checks that
// {"aud":"a"} parses to an ["a"] array and ToJSON re-emits {"aud":"a"}.
func TestParseClaimsNormalizesAudienceSingletonToArray(t *testing.T) {
	c, err := ParseClaims(map[string]any{"aud": "a"})
	require.NoError(t, err)
	aud, ok := c.Audience()
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, aud)
	assert.Equal(t, "a", c.ToJSON()["aud"])
}

func TestParseClaimsAudienceArray(t *testing.T) {
	c, err := ParseClaims(map[string]any{"aud": []any{"a", "b"}})
	require.NoError(t, err)
	aud, ok := c.Audience()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, aud)
}

func TestParseClaimsRejectsNonStringAudienceElement(t *testing.T) {
	_, err := ParseClaims(map[string]any{"aud": []any{"a", 1}})
	assert.ErrorIs(t, err, apperr.ErrMalformedClaims)
}

func TestParseClaimsRejectsWrongKindForRegisteredStringClaims(t *testing.T) {
	for _, name := range []string{"iss", "sub", "jti"} {
		_, err := ParseClaims(map[string]any{name: 123})
		assert.ErrorIs(t, err, apperr.ErrMalformedClaims, "claim %q", name)
	}
}

// TestParseClaimsFloorsFloatInstant covers numeric exp/nbf/iat arriving
// as a JSON float64 (the normal decode shape), floor-truncated to int64.
func TestParseClaimsFloorsFloatInstant(t *testing.T) {
	c, err := ParseClaims(map[string]any{"exp": float64(1700000000.75), "nbf": float64(1700000000.1), "iat": float64(1700000000.99)})
	require.NoError(t, err)

	exp, ok := c.Expiry()
	require.True(t, ok)
	assert.Equal(t, int64(1700000000), exp)

	nbf, ok := c.NotBefore()
	require.True(t, ok)
	assert.Equal(t, int64(1700000000), nbf)

	iat, ok := c.IssuedAt()
	require.True(t, ok)
	assert.Equal(t, int64(1700000000), iat)
}

func TestParseClaimsRejectsNonNumericInstant(t *testing.T) {
	_, err := ParseClaims(map[string]any{"exp": "soon"})
	assert.ErrorIs(t, err, apperr.ErrMalformedClaims)
}

func TestParseClaimsPreservesCustomClaimsVerbatim(t *testing.T) {
	c, err := ParseClaims(map[string]any{"role": "admin", "level": float64(3)})
	require.NoError(t, err)
	v, ok := c.Claim("role")
	require.True(t, ok)
	assert.Equal(t, "admin", v)
	v, ok = c.Claim("level")
	require.True(t, ok)
	assert.Equal(t, float64(3), v)
}

func TestTypedCustomClaimGetters(t *testing.T) {
	c, err := ParseClaims(map[string]any{
		"role": "admin", "level": float64(3.9), "active": true,
	})
	require.NoError(t, err)

	role, present, err := c.StringClaim("role")
	require.NoError(t, err)
	require.True(t, present)
	assert.Equal(t, "admin", role)

	level, present, err := c.Int64Claim("level")
	require.NoError(t, err)
	require.True(t, present)
	assert.Equal(t, int64(3), level, "numeric narrowing truncates")

	levelF, _, err := c.Float64Claim("level")
	require.NoError(t, err)
	assert.Equal(t, 3.9, levelF)

	active, present, err := c.BoolClaim("active")
	require.NoError(t, err)
	require.True(t, present)
	assert.True(t, active)

	_, present, err = c.StringClaim("absent")
	require.NoError(t, err)
	assert.False(t, present)

	_, _, err = c.StringClaim("level")
	assert.ErrorIs(t, err, apperr.ErrMalformedClaims)

	_, _, err = c.BoolClaim("role")
	assert.ErrorIs(t, err, apperr.ErrMalformedClaims)

	_, _, err = c.Float64Claim("role")
	assert.ErrorIs(t, err, apperr.ErrMalformedClaims)
}

func TestMarshalUnmarshalJSONRoundTrip(t *testing.T) {
	c := NewClaims().WithIssuer("issuer").WithAudience("svcA", "svcB").WithExpiry(1700003600)
	data, err := c.MarshalJSON()
	require.NoError(t, err)

	var out Claims
	require.NoError(t, out.UnmarshalJSON(data))

	iss, ok := out.Issuer()
	require.True(t, ok)
	assert.Equal(t, "issuer", iss)
	aud, ok := out.Audience()
	require.True(t, ok)
	assert.Equal(t, []string{"svcA", "svcB"}, aud)
	exp, ok := out.Expiry()
	require.True(t, ok)
	assert.Equal(t, int64(1700003600), exp)
}

func TestUnmarshalJSONRejectsNonObjectPayload(t *testing.T) {
	var c Claims
	err := c.UnmarshalJSON([]byte(`[1,2,3]`))
	assert.ErrorIs(t, err, apperr.ErrMalformedClaims)
}

func TestHasReportsPresence(t *testing.T) {
	c := NewClaims().WithSubject("alice")
	assert.True(t, c.Has(ClaimSub))
	assert.False(t, c.Has(ClaimIss))
}
