package security

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"usermanagement/internal/config"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

var ErrUnknownHashFormat = errors.New("unknown password hash format")

// Hasher computes and checks one-way salted password digests.
type Hasher interface {
	Hash(password string) ([]byte, error)
	Verify(password string, digest []byte) (bool, error)
}

type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) ([]byte, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return nil, fmt.Errorf("bcrypt: %w", err)
	}
	return digest, nil
}

func (h BcryptHasher) Verify(password string, digest []byte) (bool, error) {
	err := bcrypt.CompareHashAndPassword(digest, []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("bcrypt: %w", err)
}

type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

var DefaultArgon2Params = Argon2Params{
	Time:    3,
	Memory:  64 * 1024,
	Threads: 2,
	KeyLen:  32,
	SaltLen: 16,
}

type Argon2Hasher struct {
	Params Argon2Params
}

func (h Argon2Hasher) Hash(password string) ([]byte, error) {
	params := h.Params
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, params.KeyLen)

	encoded := base64.RawStdEncoding.EncodeToString(hash)
	encodedSalt := base64.RawStdEncoding.EncodeToString(salt)

	result := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, params.Memory, params.Time, params.Threads, encodedSalt, encoded)

	return []byte(result), nil
}

func (h Argon2Hasher) Verify(password string, digest []byte) (bool, error) {
	parts := bytes.Split(digest, []byte("$"))
	if len(parts) != 6 || string(parts[1]) != AlgorithmArgon2id {
		return false, ErrUnknownHashFormat
	}

	var version int
	if _, err := fmt.Sscanf(string(parts[2]), "v=%d", &version); err != nil {
		return false, fmt.Errorf("parse version: %w", err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var (
		memory  uint32
		time    uint32
		threads uint8
	)
	if _, err := fmt.Sscanf(string(parts[3]), "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("parse params: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(string(parts[4]))
	if err != nil {
		return false, fmt.Errorf("decode salt: %w", err)
	}

	hash, err := base64.RawStdEncoding.DecodeString(string(parts[5]))
	if err != nil {
		return false, fmt.Errorf("decode hash: %w", err)
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(hash)))

	return subtle.ConstantTimeCompare(hash, computed) == 1, nil
}

// MultiHasher hashes with Primary and verifies digests of any supported
// format, so changing the configured algorithm keeps existing accounts usable.
type MultiHasher struct {
	Primary Hasher
	Bcrypt  BcryptHasher
	Argon2  Argon2Hasher
}

func (h MultiHasher) Hash(password string) ([]byte, error) {
	return h.Primary.Hash(password)
}

func (h MultiHasher) Verify(password string, digest []byte) (bool, error) {
	switch {
	case bytes.HasPrefix(digest, []byte("$argon2id$")):
		return h.Argon2.Verify(password, digest)
	case bytes.HasPrefix(digest, []byte("$2a$")), bytes.HasPrefix(digest, []byte("$2b$")), bytes.HasPrefix(digest, []byte("$2y$")):
		return h.Bcrypt.Verify(password, digest)
	default:
		return false, ErrUnknownHashFormat
	}
}

func NewHasher(cfg config.SecurityConfig) (Hasher, error) {
	bc := BcryptHasher{Cost: cfg.BcryptCost}
	if bc.Cost == 0 {
		bc.Cost = bcrypt.DefaultCost
	}
	ar := Argon2Hasher{Params: DefaultArgon2Params}

	var primary Hasher
	switch cfg.PasswordAlgorithm {
	case "", AlgorithmBcrypt:
		if bc.Cost < bcrypt.MinCost || bc.Cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range", bc.Cost)
		}
		primary = bc
	case AlgorithmArgon2id:
		primary = ar
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", cfg.PasswordAlgorithm)
	}

	return MultiHasher{Primary: primary, Bcrypt: bc, Argon2: ar}, nil
}
