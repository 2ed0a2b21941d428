package ledger

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha512"
	"encoding/base32"

	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

const (
	saltSize     = 16
	keySize      = 32
	checksumSize = 4
)

func deriveKey(passphrase string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, 1<<15, 8, 1, keySize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive key")
	}
	return key, nil
}

// EncryptKey seals an ed25519 seed with a passphrase-derived key. The output
// layout is salt || nonce || ciphertext.
func EncryptKey(seed []byte, passphrase string) ([]byte, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errors.Errorf("seed must be %d bytes", ed25519.SeedSize)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "failed to generate salt")
	}

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GCM")
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "failed to generate nonce")
	}

	sealed := gcm.Seal(nil, nonce, seed, nil)

	out := make([]byte, 0, saltSize+len(nonce)+len(sealed))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// DecryptKey opens an encrypted seed with the supplied passphrase and
// returns the signing key. A wrong passphrase fails authentication.
func DecryptKey(encrypted []byte, passphrase string) (ed25519.PrivateKey, error) {
	if len(encrypted) < saltSize {
		return nil, errors.New("encrypted key too short")
	}

	salt := encrypted[:saltSize]
	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GCM")
	}

	if len(encrypted) < saltSize+gcm.NonceSize() {
		return nil, errors.New("encrypted key too short")
	}
	nonce := encrypted[saltSize : saltSize+gcm.NonceSize()]
	sealed := encrypted[saltSize+gcm.NonceSize():]

	seed, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decrypt key")
	}

	return ed25519.NewKeyFromSeed(seed), nil
}

// AddressFromKey derives the on-chain address of a signing key: the base32
// encoding of the public key plus a 4-byte digest checksum.
func AddressFromKey(key ed25519.PrivateKey) string {
	pub := key.Public().(ed25519.PublicKey)
	digest := sha512.Sum512_256(pub)

	raw := make([]byte, 0, len(pub)+checksumSize)
	raw = append(raw, pub...)
	raw = append(raw, digest[len(digest)-checksumSize:]...)
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw)
}

// DecodePublicKey extracts the raw public key bytes from an address
func DecodePublicKey(address string) ([]byte, error) {
	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(address)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode address")
	}
	if len(raw) != ed25519.PublicKeySize+checksumSize {
		return nil, errors.New("invalid address length")
	}
	return raw[:ed25519.PublicKeySize], nil
}
