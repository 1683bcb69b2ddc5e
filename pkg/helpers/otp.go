package helpers

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const referralAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// OTPKey is the cache key for an OTP issued for a given purpose,
// e.g. "email_otp:<uid>" or "password_reset_otp:<uid>".
func OTPKey(purpose, uid string) string {
	return purpose + "_otp:" + uid
}

// BlacklistKey is the cache key marking an access token as revoked.
func BlacklistKey(token string) string {
	return "blacklist:" + token
}

// GenOTPCode generates a secure random 6-digit OTP code in [100000, 999999].
func GenOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

// GenReferralCode builds a referral code from the user's initials plus a
// 6-character random alphanumeric suffix. Uniqueness is enforced by the
// store, not here.
func GenReferralCode(firstName, lastName string) (string, error) {
	var b strings.Builder
	if firstName != "" {
		b.WriteString(strings.ToUpper(firstName[:1]))
	}
	if lastName != "" {
		b.WriteString(strings.ToUpper(lastName[:1]))
	}
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(referralAlphabet))))
		if err != nil {
			return "", err
		}
		b.WriteByte(referralAlphabet[n.Int64()])
	}
	return b.String(), nil
}
