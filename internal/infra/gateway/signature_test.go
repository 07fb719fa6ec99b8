//go:build unit

package gateway_test

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"marketplace-checkout/internal/infra/gateway"

	"github.com/stretchr/testify/assert"
)

func TestVerifier(t *testing.T) {
	now := time.Unix(1_772_000_000, 0)
	clock := func() time.Time { return now }
	v := gateway.NewVerifier("whsec_test", 5*time.Minute, clock)
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	ts := "t=" + strconv.FormatInt(now.Unix(), 10)
	_, validV1, _ := strings.Cut(v.Sign(payload, now), ",")

	tests := []struct {
		name   string
		header string
		errIs  error
	}{
		{name: "valid signature", header: v.Sign(payload, now)},
		{name: "valid among several v1 values", header: ts + ",v1=deadbeef," + validV1},
		{name: "missing header", header: "", errIs: gateway.ErrMissingSignature},
		{name: "no v1 entry", header: ts, errIs: gateway.ErrInvalidSignature},
		{name: "wrong secret", header: gateway.NewVerifier("other", 0, clock).Sign(payload, now), errIs: gateway.ErrInvalidSignature},
		{name: "too old", header: v.Sign(payload, now.Add(-6*time.Minute)), errIs: gateway.ErrStaleSignature},
		{name: "from the future", header: v.Sign(payload, now.Add(6*time.Minute)), errIs: gateway.ErrStaleSignature},
		{name: "garbage timestamp", header: "t=abc,v1=00", errIs: gateway.ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(payload, tt.header)
			if tt.errIs == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.errIs)
		})
	}

	t.Run("tampered payload", func(t *testing.T) {
		header := v.Sign(payload, now)
		assert.ErrorIs(t, v.Verify([]byte(`{"id":"evt_2"}`), header), gateway.ErrInvalidSignature)
	})
}
