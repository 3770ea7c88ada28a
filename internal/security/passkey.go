package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	lowerChars = "abcdefghijklmnopqrstuvwxyz"
	upperChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars = "0123456789"
	alnumChars = lowerChars + upperChars + digitChars

	passkeySuffix = "123"
)

// GeneratePasskey returns a random alphanumeric passkey of length n that
// always carries at least one lower-case and one upper-case letter.
func GeneratePasskey(n int) (string, error) {
	if n < 2 {
		return "", fmt.Errorf("passkey length %d too short", n)
	}

	buf := make([]byte, n)
	for i := range buf {
		var set string
		switch i {
		case 0:
			set = lowerChars
		case 1:
			set = upperChars
		default:
			set = alnumChars
		}
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		buf[i] = c
	}

	// shuffle so the guaranteed classes are not always in front
	for i := len(buf) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("shuffle passkey: %w", err)
		}
		buf[i], buf[j.Int64()] = buf[j.Int64()], buf[i]
	}
	return string(buf), nil
}

// DerivePassword turns a passkey into the initial account password.
func DerivePassword(passkey string) string {
	return passkey + passkeySuffix
}

func randomChar(set string) (byte, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("generate passkey: %w", err)
	}
	return set[idx.Int64()], nil
}
