package models

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Option names persisted in the generic options table.
const (
	OptionFreeTierID    = "custom_swpm_free_tier_id"
	OptionSandboxMode   = "enable-sandbox-testing"
	OptionStripeTestKey = "stripe-test-secret-key"
	OptionStripeLiveKey = "stripe-live-secret-key"
)

// decimalNumber matches plain decimal notation with an optional exponent.
// Hex, binary, underscores and Inf/NaN spellings do not match.
var decimalNumber = regexp.MustCompile(`^[+-]?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)(?:[eE][+-]?[0-9]+)?$`)

// sandboxChecked is how the membership settings page stores a ticked checkbox.
const sandboxChecked = `checked="checked"`

// PaymentSettings is the snapshot of options the cancellation flow reads on
// every invocation.
type PaymentSettings struct {
	SandboxMode   bool
	TestSecretKey string
	LiveSecretKey string
	FreeTierID    string
}

// PaymentSettingsFromOptions builds PaymentSettings from raw option values.
// Missing keys read as empty strings.
func PaymentSettingsFromOptions(values map[string]string) PaymentSettings {
	return PaymentSettings{
		SandboxMode:   parseSandbox(values[OptionSandboxMode]),
		TestSecretKey: strings.TrimSpace(values[OptionStripeTestKey]),
		LiveSecretKey: strings.TrimSpace(values[OptionStripeLiveKey]),
		FreeTierID:    values[OptionFreeTierID],
	}
}

// SecretKey returns the Stripe secret for the active mode.
func (s PaymentSettings) SecretKey() string {
	if s.SandboxMode {
		return s.TestSecretKey
	}
	return s.LiveSecretKey
}

// FreeTier reports the configured free membership level, if it is usable.
func (s PaymentSettings) FreeTier() (int64, bool) {
	return ParseFreeTierID(s.FreeTierID)
}

// ParseFreeTierID accepts a numeric value strictly greater than zero. Empty,
// "0", negative, fractional and non-numeric values are rejected.
func ParseFreeTierID(raw string) (int64, bool) {
	v := strings.TrimSpace(raw)
	if !decimalNumber.MatchString(v) {
		return 0, false
	}
	if id, err := strconv.ParseInt(v, 10, 64); err == nil {
		if id <= 0 {
			return 0, false
		}
		return id, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f <= 0 || f != math.Trunc(f) || f >= 1<<63 {
		return 0, false
	}
	return int64(f), true
}

func parseSandbox(raw string) bool {
	v := strings.TrimSpace(raw)
	if v == sandboxChecked {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
