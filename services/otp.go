package services

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"

	"github.com/pkg/errors"
)

var otpSpace = big.NewInt(1000000)

// GenerateOTP returns a uniformly random zero-padded 6-digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", errors.Wrap(err, "generate otp")
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func otpEqual(expected, got string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
