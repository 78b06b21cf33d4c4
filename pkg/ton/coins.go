package ton

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// NanoDecimals is the number of decimal places between nanotons and TON.
const NanoDecimals = 9

var ErrNegativeCoins = errors.New("coins value must not be negative")

// Coins is a non-negative amount of nanotons of arbitrary width.
// An absent balance is modelled as a nil *Coins, never as zero.
type Coins struct {
	v *big.Int
}

func NewCoins(v *big.Int) (Coins, error) {
	if v == nil {
		return Coins{}, errors.New("coins value is nil")
	}
	if v.Sign() < 0 {
		return Coins{}, fmt.Errorf("%w: %s", ErrNegativeCoins, v)
	}
	return Coins{v: new(big.Int).Set(v)}, nil
}

// CoinsFromNano parses a base-10 nanoton string such as TonCenter returns.
func CoinsFromNano(s string) (Coins, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return Coins{}, fmt.Errorf("invalid coins value %q", s)
	}
	return NewCoins(v)
}

func MustCoins(s string) Coins {
	c, err := CoinsFromNano(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Value returns a copy of the wrapped integer.
func (c Coins) Value() *big.Int {
	if c.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(c.v)
}

func (c Coins) Cmp(other Coins) int {
	return c.Value().Cmp(other.Value())
}

func (c Coins) Equal(other Coins) bool {
	return c.Cmp(other) == 0
}

func (c Coins) String() string {
	return c.Value().String()
}

// TON returns the amount in whole TON.
func (c Coins) TON() decimal.Decimal {
	return decimal.NewFromBigInt(c.Value(), -NanoDecimals)
}

// CoinsOrZero substitutes zero for an absent value.
func CoinsOrZero(c *Coins) *big.Int {
	if c == nil {
		return new(big.Int)
	}
	return c.Value()
}

func (c Coins) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts both quoted and bare integers.
func (c *Coins) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		*c = Coins{}
		return nil
	}
	parsed, err := CoinsFromNano(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
