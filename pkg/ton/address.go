package ton

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xssnick/tonutils-go/address"
)

// ErrInvalidAddressFormat is returned for any text that is not a recognizable
// TON account address.
var ErrInvalidAddressFormat = errors.New("invalid address format")

const (
	friendlyAddressLen = 48
	rawPayloadHexLen   = 64

	flagBounceable    byte = 0x11
	flagNonBounceable byte = 0x51
	flagTestnet       byte = 0x80
)

// Address is a validated standard (workchain + 256-bit) account address.
// The zero value is not a valid address; use IsZero to detect it.
type Address struct {
	workchain  int32
	data       [32]byte
	bounceable bool
	testnet    bool
	valid      bool
}

// ParseAddress accepts the user-friendly base64 form (URL-safe or standard
// alphabet, checksum verified) and the raw "workchain:hex" form.
func ParseAddress(text string) (Address, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Address{}, fmt.Errorf("%w: empty input", ErrInvalidAddressFormat)
	}

	if strings.Contains(text, ":") {
		return parseRaw(text)
	}
	return parseFriendly(text)
}

// MustParseAddress panics on malformed input. Intended for constants and tests.
func MustParseAddress(text string) Address {
	addr, err := ParseAddress(text)
	if err != nil {
		panic(err)
	}
	return addr
}

func parseFriendly(text string) (Address, error) {
	if len(text) != friendlyAddressLen {
		return Address{}, fmt.Errorf("%w: %q has length %d, want %d", ErrInvalidAddressFormat, text, len(text), friendlyAddressLen)
	}

	// Both base64 alphabets are in use; normalize to URL-safe.
	normalized := strings.NewReplacer("+", "-", "/", "_").Replace(text)
	decoded, err := base64.URLEncoding.DecodeString(normalized)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddressFormat, text, err)
	}
	switch decoded[0] &^ flagTestnet {
	case flagBounceable, flagNonBounceable:
	default:
		return Address{}, fmt.Errorf("%w: %q has unknown tag 0x%02x", ErrInvalidAddressFormat, text, decoded[0])
	}

	parsed, err := address.ParseAddr(normalized)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddressFormat, text, err)
	}
	return fromTonutils(parsed, parsed.IsBounceable(), parsed.IsTestnetOnly())
}

func parseRaw(text string) (Address, error) {
	parts := strings.SplitN(text, ":", 2)
	// Only the canonical decimal spelling is accepted: no sign prefix, no leading zeros.
	wc, err := strconv.ParseInt(parts[0], 10, 8)
	if err != nil || strconv.FormatInt(wc, 10) != parts[0] {
		return Address{}, fmt.Errorf("%w: bad workchain in %q", ErrInvalidAddressFormat, text)
	}
	if len(parts[1]) != rawPayloadHexLen {
		return Address{}, fmt.Errorf("%w: %q payload has %d hex chars, want %d", ErrInvalidAddressFormat, text, len(parts[1]), rawPayloadHexLen)
	}
	if _, err := hex.DecodeString(parts[1]); err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddressFormat, text, err)
	}

	parsed, err := address.ParseRawAddr(text)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddressFormat, text, err)
	}
	// Raw form carries no flags; treat it like the bounceable mainnet default.
	return fromTonutils(parsed, true, false)
}

// FromTonutils converts a tonutils standard address, keeping its flags.
func FromTonutils(addr *address.Address) (Address, error) {
	if addr == nil || addr.Type() != address.StdAddress {
		return Address{}, fmt.Errorf("%w: not a standard address", ErrInvalidAddressFormat)
	}
	return fromTonutils(addr, addr.IsBounceable(), addr.IsTestnetOnly())
}

func fromTonutils(parsed *address.Address, bounceable, testnet bool) (Address, error) {
	data := parsed.Data()
	if len(data) != 32 {
		return Address{}, fmt.Errorf("%w: payload has %d bytes, want 32", ErrInvalidAddressFormat, len(data))
	}

	addr := Address{
		workchain:  parsed.Workchain(),
		bounceable: bounceable,
		testnet:    testnet,
		valid:      true,
	}
	copy(addr.data[:], data)
	return addr, nil
}

func (a Address) Workchain() int32 { return a.workchain }
func (a Address) Bounceable() bool { return a.bounceable }
func (a Address) Testnet() bool    { return a.testnet }
func (a Address) IsZero() bool     { return !a.valid }

// Data returns a copy of the 32-byte account id.
func (a Address) Data() []byte {
	out := make([]byte, len(a.data))
	copy(out, a.data[:])
	return out
}

// Equal compares workchain and account id; presentation flags are ignored.
func (a Address) Equal(other Address) bool {
	return a.valid == other.valid && a.workchain == other.workchain && bytes.Equal(a.data[:], other.data[:])
}

// Raw returns the canonical "workchain:hex" form with lowercase hex.
func (a Address) Raw() string {
	if !a.valid {
		return ""
	}
	return fmt.Sprintf("%d:%s", a.workchain, hex.EncodeToString(a.data[:]))
}

// String returns the user-friendly URL-safe form, keeping the flags the
// address was parsed with.
func (a Address) String() string {
	return a.friendly(a.bounceable)
}

// NonBounceable returns the user-friendly form with the bounceable flag cleared,
// the form TonCenter expects in query parameters.
func (a Address) NonBounceable() string {
	return a.friendly(false)
}

func (a Address) friendly(bounceable bool) string {
	if !a.valid {
		return ""
	}
	return a.tonutils(bounceable).String()
}

// Tonutils returns the tonutils form, for building cells. Nil for the zero address.
func (a Address) Tonutils() *address.Address {
	if !a.valid {
		return nil
	}
	return a.tonutils(a.bounceable)
}

func (a Address) tonutils(bounceable bool) *address.Address {
	flags := flagNonBounceable
	if bounceable {
		flags = flagBounceable
	}
	if a.testnet {
		flags |= flagTestnet
	}
	return address.NewAddress(flags, byte(a.workchain), a.Data())
}

func (a Address) MarshalJSON() ([]byte, error) {
	if !a.valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Raw())
}

func (a *Address) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = Address{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddressFormat, err)
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalText writes the raw form, so addresses work as map keys.
func (a Address) MarshalText() ([]byte, error) {
	if !a.valid {
		return []byte{}, nil
	}
	return []byte(a.Raw()), nil
}

func (a *Address) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalBinary stores the raw form. gob only looks at the binary interface.
func (a Address) MarshalBinary() ([]byte, error) { return a.MarshalText() }

func (a *Address) UnmarshalBinary(b []byte) error { return a.UnmarshalText(b) }
