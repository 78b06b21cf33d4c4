package ton

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

const HashSize = 32

// HashBytes is a 256-bit identifier (transaction, message, state hash).
type HashBytes [HashSize]byte

// ParseHash accepts base64 (standard or URL-safe, padded or not) and 64-char hex.
func ParseHash(s string) (HashBytes, error) {
	var h HashBytes
	s = strings.TrimSpace(s)

	if len(s) == 2*HashSize {
		if b, err := hex.DecodeString(s); err == nil {
			copy(h[:], b)
			return h, nil
		}
	}

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding,
	} {
		b, err := enc.DecodeString(s)
		if err != nil {
			continue
		}
		if len(b) != HashSize {
			return h, fmt.Errorf("hash %q decodes to %d bytes, want %d", s, len(b), HashSize)
		}
		copy(h[:], b)
		return h, nil
	}
	return h, fmt.Errorf("hash %q is neither hex nor base64", s)
}

func (h HashBytes) String() string { return base64.StdEncoding.EncodeToString(h[:]) }
func (h HashBytes) Hex() string    { return hex.EncodeToString(h[:]) }
func (h HashBytes) IsZero() bool   { return h == HashBytes{} }

func (h HashBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *HashBytes) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*h = HashBytes{}
		return nil
	}
	parsed, err := ParseHash(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
