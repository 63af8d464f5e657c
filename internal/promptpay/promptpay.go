// Package promptpay builds EMV-QR-Code-compliant PromptPay payment payloads
// and renders them as scannable QR images.  The payload layout is a fixed
// external wire format (ID/length/value triplets) and must stay
// byte-compatible with EMV QR Code Specification consumers.
package promptpay

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"
)

// EMV field constants used by the payload builder.
const (
	payloadFormat   = "000201"           // 00: payload format indicator, always 01
	initiationDyn   = "010212"           // 01: point of initiation, 12 = dynamic (amount present)
	promptPayAID    = "A000000677010111" // PromptPay application identifier
	currencyTHB     = "5303764"          // 53: ISO 4217 numeric code 764 (Thai Baht)
	countryThailand = "5802TH"           // 58: country code
	crcTag          = "6304"             // 63: CRC tag + length, included in the checksum input
)

var (
	// ErrEmptyTarget is returned when no PromptPay account is supplied.
	ErrEmptyTarget = errors.New("promptpay: target account is required")
	// ErrInvalidTarget is returned when the account is neither a 10-digit
	// phone number nor a 13-digit national ID.
	ErrInvalidTarget = errors.New("promptpay: target must be a phone number starting with 0 or a 13-digit national ID")
)

// GeneratePayload builds the full EMV payload for a transfer to the given
// PromptPay target.  The target is a Thai phone number ("0XXXXXXXXX",
// dashes and spaces tolerated) or a 13-digit national ID.  A positive
// amount is embedded as field 54 with exactly two decimal places; a zero
// amount produces an open-amount payload.
func GeneratePayload(target string, amount decimal.Decimal) (string, error) {
	clean := strings.NewReplacer("-", "", " ", "").Replace(target)
	if clean == "" {
		return "", ErrEmptyTarget
	}

	account, err := merchantAccount(clean)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(payloadFormat)
	b.WriteString(initiationDyn)
	fmt.Fprintf(&b, "29%02d%s", len(account), account)
	b.WriteString(currencyTHB)
	if amount.IsPositive() {
		amt := amount.StringFixed(2)
		fmt.Fprintf(&b, "54%02d%s", len(amt), amt)
	}
	b.WriteString(countryThailand)

	payload := b.String() + crcTag
	return fmt.Sprintf("%s%04X", payload, Checksum(payload)), nil
}

// merchantAccount assembles field 29: the PromptPay AID plus the target
// identifier.  Phone numbers lose their leading zero and gain the 0066
// country prefix (13 digits total); national IDs are passed through.
func merchantAccount(clean string) (string, error) {
	account := fmt.Sprintf("00%02d%s", len(promptPayAID), promptPayAID)
	switch {
	case strings.HasPrefix(clean, "0"):
		if len(clean) != 10 {
			return "", ErrInvalidTarget
		}
		phone := "0066" + clean[1:]
		account += fmt.Sprintf("01%02d%s", len(phone), phone)
	case len(clean) == 13:
		account += fmt.Sprintf("02%02d%s", len(clean), clean)
	default:
		return "", ErrInvalidTarget
	}
	return account, nil
}

// Checksum computes CRC-16/CCITT-FALSE (poly 0x1021, init 0xFFFF) over the
// payload bytes, as required by the EMV QR specification.
func Checksum(data string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(data); i++ {
		crc ^= uint16(data[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// QRDataURI renders the payload into a 300px PNG and returns it as a
// data:image/png;base64 URI ready for an <img> tag.
func QRDataURI(payload string) (string, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, 300)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
