// Package secret provides a string wrapper that never renders its value
// through fmt, log/slog or encoding/json.
package secret

import (
	"fmt"
	"log/slog"
)

const Redacted = "[REDACTED]"

var (
	_ fmt.Formatter  = Secret{}
	_ fmt.Stringer   = Secret{}
	_ slog.LogValuer = Secret{}
)

// Secret holds sensitive text such as a password or an encoded credential.
// The zero value is an empty secret.
type Secret struct {
	value string
}

func New(value string) Secret {
	return Secret{value: value}
}

// Reveal returns the underlying value.
func (s Secret) Reveal() string {
	return s.value
}

func (s Secret) IsZero() bool {
	return s.value == ""
}

func (s Secret) String() string {
	return Redacted
}

func (s Secret) GoString() string {
	return Redacted
}

// Format covers every verb, including %q, %x and %#v.
func (s Secret) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(Redacted))
}

func (s Secret) LogValue() slog.Value {
	return slog.StringValue(Redacted)
}

func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + Redacted + `"`), nil
}

func (s Secret) MarshalText() ([]byte, error) {
	return []byte(Redacted), nil
}
