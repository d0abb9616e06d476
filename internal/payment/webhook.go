package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dsolovyev/neonwear/internal/apperr"
)

// SignatureHeader carries `t=<unix>,v1=<hex hmac-sha256(secret, "<t>.<payload>")>`.
const SignatureHeader = "Payment-Signature"

const DefaultTolerance = 5 * time.Minute

type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

func computeSignature(secret []byte, t int64, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%d.", t)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Sign produces a signature header for a payload. Used by tests and by
// gateway simulators.
func Sign(payload, secret []byte, at time.Time) string {
	t := at.Unix()
	return fmt.Sprintf("t=%d,v1=%s", t, computeSignature(secret, t, payload))
}

// ConstructEvent verifies the signature header against the raw payload and
// decodes the event. Nothing from the payload may be trusted before this
// returns nil error.
func ConstructEvent(payload []byte, header string, secret []byte) (Event, error) {
	return constructEvent(payload, header, secret, DefaultTolerance, time.Now())
}

func constructEvent(payload []byte, header string, secret []byte, tolerance time.Duration, now time.Time) (Event, error) {
	var event Event

	var ts int64 = -1
	var sig string
	for _, part := range strings.Split(header, ",") {
		k, v, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return event, fmt.Errorf("%w: bad timestamp", apperr.ErrSignature)
			}
			ts = parsed
		case "v1":
			sig = v
		}
	}
	if ts < 0 || sig == "" {
		return event, fmt.Errorf("%w: malformed header", apperr.ErrSignature)
	}

	expected := computeSignature(secret, ts, payload)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return event, fmt.Errorf("%w: signature mismatch", apperr.ErrSignature)
	}

	age := now.Sub(time.Unix(ts, 0))
	if age > tolerance || age < -tolerance {
		return event, fmt.Errorf("%w: timestamp outside tolerance", apperr.ErrSignature)
	}

	if err := json.Unmarshal(payload, &event); err != nil {
		return event, fmt.Errorf("%w: bad event payload", apperr.ErrValidation)
	}
	return event, nil
}
