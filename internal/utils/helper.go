package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"
)

var nonDigitRegex = regexp.MustCompile(`[^0-9+]`)

func StrPtr(s string) *string {
	return &s
}

// NormalizePhone strips formatting characters and forces a leading +.
func NormalizePhone(phone string) string {
	p := nonDigitRegex.ReplaceAllString(strings.TrimSpace(phone), "")
	if p == "" {
		return ""
	}
	if strings.HasPrefix(p, "00") {
		p = "+" + p[2:]
	}
	if !strings.HasPrefix(p, "+") {
		p = "+" + p
	}
	return p
}

// GenerateOrderNumber builds the external reference passed to the payment
// processor. Unique enough without a DB round trip.
func GenerateOrderNumber() string {
	now := time.Now().UTC()

	datePart := now.Format("20060102-150405")
	millis := now.Nanosecond() / int(time.Millisecond)

	// 4-digit cryptographic random
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// fallback: time-based entropy
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return fmt.Sprintf(
		"ORD-%s-%03d-%04d",
		datePart,
		millis,
		n.Int64(),
	)
}
