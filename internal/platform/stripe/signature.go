package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const SignatureHeader = "Stripe-Signature"

var (
	ErrInvalidSignature = errors.New("stripe: invalid signature")
	ErrStaleSignature   = errors.New("stripe: signature timestamp outside tolerance")
	ErrNoWebhookSecret  = errors.New("stripe: no webhook secret configured")
)

// Verifier checks Stripe-Signature headers against every configured secret.
type Verifier struct {
	secrets   []string
	tolerance time.Duration
	now       func() time.Time
}

func NewVerifier(secrets []string, tolerance time.Duration) *Verifier {
	cleaned := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return &Verifier{secrets: cleaned, tolerance: tolerance, now: time.Now}
}

// Verify checks the header over the exact raw payload. A zero tolerance disables the timestamp check.
func (v *Verifier) Verify(payload []byte, header string) error {
	if len(v.secrets) == 0 {
		return ErrNoWebhookSecret
	}
	ts, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}
	if v.tolerance > 0 {
		age := v.now().Sub(time.Unix(ts, 0))
		if age > v.tolerance || age < -v.tolerance {
			return ErrStaleSignature
		}
	}
	for _, secret := range v.secrets {
		expected := computeSignature(secret, ts, payload)
		for _, sig := range signatures {
			if hmac.Equal(sig, expected) {
				return nil
			}
		}
	}
	return ErrInvalidSignature
}

func parseSignatureHeader(header string) (int64, [][]byte, error) {
	var (
		ts         int64
		haveTS     bool
		signatures [][]byte
	)
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "t":
			parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
			}
			ts, haveTS = parsed, true
		case "v1":
			sig, err := hex.DecodeString(strings.TrimSpace(value))
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}
	if !haveTS || len(signatures) == 0 {
		return 0, nil, ErrInvalidSignature
	}
	return ts, signatures, nil
}

func computeSignature(secret string, ts int64, payload []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}

// SignPayload builds a Stripe-Signature header value, as the provider does when delivering events.
func SignPayload(secret string, at time.Time, payload []byte) string {
	ts := at.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(computeSignature(secret, ts, payload)))
}
