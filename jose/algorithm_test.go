// Copyright (c) 2026 Josecore Authors

package jose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseJWSAlgorithm(t *testing.T) {
	alg, ok := ParseJWSAlgorithm("HS256")
	assert.True(t, ok)
	assert.Equal(t, AlgHS256, alg)
	assert.True(t, alg.IsHMAC())
	assert.Equal(t, KtyOCT, alg.KeyType())

	_, ok = ParseJWSAlgorithm("HS257")
	assert.False(t, ok)
}

func TestJWSAlgorithmFamilyPredicates(t *testing.T) {
	assert.True(t, AlgRS256.IsRSAPKCS1())
	assert.False(t, AlgRS256.IsRSAPSS())
	assert.True(t, AlgPS384.IsRSAPSS())
	assert.True(t, AlgES512.IsECDSA())
	assert.Equal(t, KtyEC, AlgES512.KeyType())
	assert.Equal(t, Required, AlgHS256.Requirement())
	assert.Equal(t, Recommended, AlgRS256.Requirement())
}

func TestParseJWEAlgorithmAndFamilies(t *testing.T) {
	alg, ok := ParseJWEAlgorithm("ECDH-ES+A128KW")
	assert.True(t, ok)
	assert.True(t, alg.IsECDHES())
	wrap, ok := alg.ECDHESKeyWrap()
	assert.True(t, ok)
	assert.Equal(t, AlgA128KW, wrap)

	_, ok = AlgECDHES.ECDHESKeyWrap()
	assert.False(t, ok, "plain ECDH-ES has no key-wrap step")

	assert.True(t, AlgA128GCMKW.IsAESGCMKW())
	assert.True(t, AlgRSAOAEP256.IsRSA())

	wrap, prfBits := AlgPBES2HS384A192KW.PBES2KeyWrap()
	assert.Equal(t, AlgA192KW, wrap)
	assert.Equal(t, 384, prfBits)
}

func TestParseEncryptionMethod(t *testing.T) {
	enc, ok := ParseEncryptionMethod("A256GCM")
	assert.True(t, ok)
	assert.True(t, enc.IsGCM())
	assert.Equal(t, 256, enc.CEKBits())

	enc, ok = ParseEncryptionMethod("A128CBC-HS256")
	assert.True(t, ok)
	assert.False(t, enc.IsGCM())
	assert.Equal(t, 256, enc.CEKBits())

	_, ok = ParseEncryptionMethod("bogus")
	assert.False(t, ok)
}

func TestMeetsMinimumRequirement(t *testing.T) {
	assert.True(t, MeetsMinimumRequirement(Required, Optional))
	assert.True(t, MeetsMinimumRequirement(Recommended, Recommended))
	assert.False(t, MeetsMinimumRequirement(Optional, Required))
}

func TestRequirementString(t *testing.T) {
	assert.Equal(t, "Required", Required.String())
	assert.Equal(t, "Recommended", Recommended.String())
	assert.Equal(t, "Optional", Optional.String())
}
