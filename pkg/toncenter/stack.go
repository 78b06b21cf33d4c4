package toncenter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/fystack/toncenter-indexer/pkg/ton"
)

type StackEntryType string

const (
	StackNum   StackEntryType = "num"
	StackCell  StackEntryType = "cell"
	StackSlice StackEntryType = "slice"
)

// StackEntry is one TVM stack value as runGetMethod exchanges it. Numbers are
// hex strings, cells and slices are base64 BOCs. Other types (tuples, lists)
// are kept undecoded in Value.
type StackEntry struct {
	Type  StackEntryType  `json:"type"`
	Value json.RawMessage `json:"value"`
}

func NumEntry(n *big.Int) StackEntry {
	text := "0x" + n.Text(16)
	if n.Sign() < 0 {
		text = "-0x" + new(big.Int).Neg(n).Text(16)
	}
	return stringEntry(StackNum, text)
}

func CellEntry(c *cell.Cell) StackEntry {
	return stringEntry(StackCell, base64.StdEncoding.EncodeToString(c.ToBOC()))
}

func SliceEntry(c *cell.Cell) StackEntry {
	return stringEntry(StackSlice, base64.StdEncoding.EncodeToString(c.ToBOC()))
}

// AddressEntry passes addr as a slice holding the standard address, the way
// get methods such as get_wallet_address expect it.
func AddressEntry(addr ton.Address) StackEntry {
	return SliceEntry(cell.BeginCell().MustStoreAddr(addr.Tonutils()).EndCell())
}

func stringEntry(t StackEntryType, value string) StackEntry {
	raw, _ := json.Marshal(value)
	return StackEntry{Type: t, Value: raw}
}

func (e StackEntry) text() (string, error) {
	var s string
	if err := json.Unmarshal(e.Value, &s); err != nil {
		return "", fmt.Errorf("%s stack entry: %w", e.Type, err)
	}
	return s, nil
}

// Int decodes a num entry.
func (e StackEntry) Int() (*big.Int, error) {
	if e.Type != StackNum {
		return nil, fmt.Errorf("stack entry is %s, not num", e.Type)
	}
	s, err := e.text()
	if err != nil {
		return nil, err
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	n, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, fmt.Errorf("invalid num stack entry %q", e.Value)
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}

// Cell decodes a cell or slice entry.
func (e StackEntry) Cell() (*cell.Cell, error) {
	if e.Type != StackCell && e.Type != StackSlice {
		return nil, fmt.Errorf("stack entry is %s, not cell or slice", e.Type)
	}
	s, err := e.text()
	if err != nil {
		return nil, err
	}
	boc, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode %s base64: %w", e.Type, err)
	}
	c, err := cell.FromBOC(boc)
	if err != nil {
		return nil, fmt.Errorf("parse %s boc: %w", e.Type, err)
	}
	return c, nil
}

// Address reads a standard address stored in a cell or slice entry.
func (e StackEntry) Address() (ton.Address, error) {
	c, err := e.Cell()
	if err != nil {
		return ton.Address{}, err
	}
	addr, err := c.BeginParse().LoadAddr()
	if err != nil {
		return ton.Address{}, fmt.Errorf("load address: %w", err)
	}
	return ton.FromTonutils(addr)
}
