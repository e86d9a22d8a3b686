// Copyright (c) 2026 Josecore Authors

package jose

import (
	"fmt"

	"josecore/internal/apperr"
)

// Sign transitions an Unsigned JWS object to Signed, using factory to
// build a Signer for (header, key) and signing the object's signing
// input.
func Sign(obj *Object, factory SignerFactory, key any) error {
	signingInput, err := obj.SigningInput()
	if err != nil {
		return err
	}
	signer, err := factory.NewSigner(obj.Header(), key)
	if err != nil {
		return err
	}
	signature, err := signer.Sign(obj.Header(), signingInput)
	if err != nil {
		return err
	}
	return obj.MarkSigned(signature)
}

// Encrypt transitions an Unencrypted JWE object to Encrypted, using
// factory to build an Encrypter for (header, key), performing key
// management followed by content encryption with the resulting CEK.
func Encrypt(obj *Object, factory EncrypterFactory, key any) error {
	header := obj.Header()
	enc, ok := ParseEncryptionMethod(header.Enc)
	if !ok {
		return fmt.Errorf("%w: %q is not a content-encryption method", apperr.ErrUnsupportedAlgorithm, header.Enc)
	}
	encrypter, err := factory.NewEncrypter(header, key)
	if err != nil {
		return err
	}
	cek, encryptedKey, err := encrypter.Encrypt(header, enc)
	if err != nil {
		return err
	}
	aad, err := obj.HeaderSegment()
	if err != nil {
		return err
	}
	iv, ciphertext, tag, err := ContentEncrypt(enc, cek, obj.Payload(), []byte(aad))
	if err != nil {
		return err
	}
	return obj.MarkEncrypted(header, encryptedKey, iv, ciphertext, tag)
}
