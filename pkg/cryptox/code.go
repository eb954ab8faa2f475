package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// codeCharset is the alphabet for invite codes. Alphanumeric only so codes
// survive copy/paste and URL embedding without escaping.
const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateCode produces a cryptographically random code of the given length,
// uniform over [A-Za-z0-9]. rand.Int is used per character so no modulo bias
// sneaks in.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("code length must be positive, got %d", length)
	}

	max := big.NewInt(int64(len(codeCharset)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random code: %w", err)
		}
		buf[i] = codeCharset[n.Int64()]
	}

	return string(buf), nil
}
