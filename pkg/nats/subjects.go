package nats

import (
	"fmt"
	"strings"
)

// Subject naming convention:
// arbs.roundtrip.{currency}
// Examples:
// - arbs.roundtrip.ETH
// - arbs.roundtrip.USD

const (
	// StreamArbs is the JetStream stream holding detector output.
	StreamArbs = "ARBS"

	// SubjectAll matches every detector subject.
	SubjectAll = "arbs.>"

	// SubjectRoundtrips matches roundtrips for any start currency.
	SubjectRoundtrips = "arbs.roundtrip.*"
)

// RoundtripSubject builds the subject for roundtrips starting from a
// currency.
func RoundtripSubject(currency string) string {
	return fmt.Sprintf("arbs.roundtrip.%s", currency)
}

// ParseRoundtripSubject extracts the start currency from a roundtrip
// subject.
func ParseRoundtripSubject(subject string) (currency string, err error) {
	parts := strings.Split(subject, ".")
	if len(parts) != 3 || parts[0] != "arbs" || parts[1] != "roundtrip" || parts[2] == "" {
		return "", fmt.Errorf("invalid roundtrip subject format: %s", subject)
	}
	return parts[2], nil
}

// durableName derives a consumer name safe for JetStream from a subject
// (dots and wildcards are not allowed in durable names).
func durableName(subject string) string {
	r := strings.NewReplacer(".", "-", "*", "any", ">", "all")
	return "sharpshooter-" + r.Replace(subject)
}
