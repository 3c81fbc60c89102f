package services

import (
	"crypto/rand"
	"math/big"
)

const (
	digits       = "0123456789"
	alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func randomString(alphabet string, n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}

// newJobNumber draws JOB- followed by six random digits
func newJobNumber() (string, error) {
	suffix, err := randomString(digits, 6)
	if err != nil {
		return "", err
	}
	return "JOB-" + suffix, nil
}

// newCustomerPassword draws an 8 character alphanumeric password
func newCustomerPassword() (string, error) {
	return randomString(alphanumeric, 8)
}
