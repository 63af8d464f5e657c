package promptpay

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var crcSuffix = regexp.MustCompile(`6304[0-9A-F]{4}$`)

func TestGeneratePayloadPhoneNumber(t *testing.T) {
	payload, err := GeneratePayload("0812345678", decimal.RequireFromString("100.00"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(payload, "000201"), "payload must start with the EMV format indicator")
	assert.Contains(t, payload, "010212", "dynamic initiation method")
	assert.Contains(t, payload, "0016A000000677010111", "PromptPay AID")
	assert.Contains(t, payload, "01130066812345678", "phone target with country code, leading zero dropped")
	assert.Contains(t, payload, "5303764", "currency code 764")
	assert.Contains(t, payload, "5406100.00", "amount field with two decimal places")
	assert.Contains(t, payload, "5802TH", "country code")
	assert.Regexp(t, crcSuffix, payload, "payload must end with 6304 + 4 uppercase hex digits")
}

func TestGeneratePayloadChecksumRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		target string
		amount string
	}{
		{"phone with amount", "0812345678", "100.00"},
		{"phone with fractional amount", "089-123-4567", "59.50"},
		{"national id", "1234567890123", "2500.00"},
		{"open amount", "0812345678", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := GeneratePayload(tt.target, decimal.RequireFromString(tt.amount))
			require.NoError(t, err)
			require.Regexp(t, crcSuffix, payload)

			// Recompute the CRC over everything up to and including the
			// "6304" tag; it must equal the trailing four hex digits.
			body := payload[:len(payload)-4]
			want := fmt.Sprintf("%04X", Checksum(body))
			assert.Equal(t, want, payload[len(payload)-4:])
		})
	}
}

func TestGeneratePayloadAmountField(t *testing.T) {
	withAmount, err := GeneratePayload("0812345678", decimal.RequireFromString("59.5"))
	require.NoError(t, err)
	assert.Contains(t, withAmount, "540559.50", "amount always rendered with two decimals")

	open, err := GeneratePayload("0812345678", decimal.Zero)
	require.NoError(t, err)
	assert.Contains(t, open, "53037645802TH", "zero amount omits the transaction amount field entirely")
}

func TestGeneratePayloadNationalID(t *testing.T) {
	payload, err := GeneratePayload("1-2345-67890-12-3", decimal.RequireFromString("10.00"))
	require.NoError(t, err)
	assert.Contains(t, payload, "02131234567890123")
}

func TestGeneratePayloadInvalidTargets(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantErr error
	}{
		{"empty", "", ErrEmptyTarget},
		{"only separators", " - ", ErrEmptyTarget},
		{"short phone", "0812345", ErrInvalidTarget},
		{"eleven digit phone", "08123456789", ErrInvalidTarget},
		{"unrecognized id", "99999", ErrInvalidTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GeneratePayload(tt.target, decimal.RequireFromString("10.00"))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestChecksumKnownVectors(t *testing.T) {
	// CRC-16/CCITT-FALSE check value from the standard test string.
	assert.Equal(t, uint16(0x29B1), Checksum("123456789"))
	assert.Equal(t, uint16(0xFFFF), Checksum(""))
}

func TestQRDataURI(t *testing.T) {
	payload, err := GeneratePayload("0812345678", decimal.RequireFromString("100.00"))
	require.NoError(t, err)

	uri, err := QRDataURI(payload)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	assert.Greater(t, len(uri), len("data:image/png;base64,"))
}
