package toncenter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fystack/toncenter-indexer/pkg/ton"
)

// Transaction is one entry of a /api/v3/transactions page.
type Transaction struct {
	Account            ton.Address    `json:"account"`
	Hash               ton.HashBytes  `json:"hash"`
	LT                 uint64         `json:"lt,string"`
	Now                int64          `json:"now"`
	MCBlockSeqno       int32          `json:"mc_block_seqno"`
	TraceID            *ton.HashBytes `json:"trace_id,omitempty"`
	PrevTransHash      ton.HashBytes  `json:"prev_trans_hash"`
	PrevTransLT        uint64         `json:"prev_trans_lt,string"`
	OrigStatus         string         `json:"orig_status"`
	EndStatus          string         `json:"end_status"`
	TotalFees          *ton.Coins     `json:"total_fees"`
	Description        Description    `json:"description"`
	BlockRef           BlockID        `json:"block_ref"`
	InMsg              *Message       `json:"in_msg"`
	OutMsgs            []Message      `json:"out_msgs"`
	AccountStateBefore AccountState   `json:"account_state_before"`
	AccountStateAfter  AccountState   `json:"account_state_after"`
	Emulated           bool           `json:"emulated"`
}

// Format renders the transaction the way the CLI prints it. An absent
// balance prints as zero.
func (t Transaction) Format() string {
	return fmt.Sprintf("hash=%s lt=%d balance=%s", t.Hash, t.LT, ton.CoinsOrZero(t.AccountStateAfter.Balance))
}

// Success mirrors the phase checks of an ordinary transaction: not aborted,
// compute phase not failed, action phase not failed.
func (t Transaction) Success() bool {
	d := t.Description
	if d.Aborted {
		return false
	}
	if d.ComputePh != nil && d.ComputePh.Success != nil && !*d.ComputePh.Success {
		return false
	}
	if d.Action != nil && d.Action.Success != nil && !*d.Action.Success {
		return false
	}
	return true
}

// Description keeps the fields used for success checks; the full object is in Raw.
type Description struct {
	Type      string          `json:"type"`
	Aborted   bool            `json:"aborted"`
	Destroyed bool            `json:"destroyed"`
	ComputePh *PhaseOutcome   `json:"compute_ph,omitempty"`
	Action    *PhaseOutcome   `json:"action,omitempty"`
	Raw       json.RawMessage `json:"-"`
}

type PhaseOutcome struct {
	Type     string `json:"type,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
	Success  *bool  `json:"success,omitempty"`
	ExitCode *int   `json:"exit_code,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func (d *Description) UnmarshalJSON(b []byte) error {
	type plain Description
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*d = Description(p)
	d.Raw = append(json.RawMessage(nil), b...)
	return nil
}

// AccountState is the account snapshot before or after a transaction.
// Balance is nil when the service does not report one.
type AccountState struct {
	Hash          ton.HashBytes  `json:"hash"`
	Balance       *ton.Coins     `json:"balance"`
	AccountStatus *string        `json:"account_status"`
	FrozenHash    *ton.HashBytes `json:"frozen_hash"`
	DataHash      *ton.HashBytes `json:"data_hash"`
	CodeHash      *ton.HashBytes `json:"code_hash"`
	DataBOC       *string        `json:"data_boc,omitempty"`
	CodeBOC       *string        `json:"code_boc,omitempty"`
}

type BlockID struct {
	Workchain int32  `json:"workchain"`
	Shard     string `json:"shard"`
	Seqno     int32  `json:"seqno"`
}

type Message struct {
	Hash           ton.HashBytes   `json:"hash"`
	HashNorm       *ton.HashBytes  `json:"hash_norm,omitempty"`
	Source         *ton.Address    `json:"source"`
	Destination    *ton.Address    `json:"destination"`
	Value          *ton.Coins      `json:"value"`
	FwdFee         *ton.Coins      `json:"fwd_fee"`
	IhrFee         *ton.Coins      `json:"ihr_fee"`
	CreatedLT      *uint64         `json:"created_lt,string"`
	CreatedAt      *int64          `json:"created_at,string"`
	Opcode         *Opcode         `json:"opcode"`
	IhrDisabled    *bool           `json:"ihr_disabled"`
	Bounce         *bool           `json:"bounce"`
	Bounced        *bool           `json:"bounced"`
	ImportFee      *ton.Coins      `json:"import_fee"`
	InMsgTxHash    *ton.HashBytes  `json:"in_msg_tx_hash,omitempty"`
	OutMsgTxHash   *ton.HashBytes  `json:"out_msg_tx_hash,omitempty"`
	MessageContent *MessageContent `json:"message_content"`
	InitState      *MessageContent `json:"init_state"`
}

type MessageContent struct {
	Hash    *ton.HashBytes  `json:"hash"`
	Body    string          `json:"body"`
	Decoded *DecodedContent `json:"decoded"`
}

type DecodedContent struct {
	Type    string `json:"type"`
	Comment string `json:"comment"`
}

// Opcode is the first 32 bits of a message body. TonCenter sends it as a
// hex string ("0x7362d09c"); plain numbers are accepted too.
type Opcode uint32

func (o Opcode) String() string { return fmt.Sprintf("0x%08x", uint32(o)) }

func (o Opcode) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

func (o *Opcode) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s, base = s[2:], 16
	}
	// Signed 32-bit values show up for opcodes with the top bit set.
	v, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return fmt.Errorf("invalid opcode %s: %w", b, err)
	}
	*o = Opcode(uint32(v))
	return nil
}

type AddressBookRow struct {
	UserFriendly *string `json:"user_friendly"`
	Domain       *string `json:"domain"`
}

// AddressBook maps raw addresses to their user-friendly form.
type AddressBook map[string]AddressBookRow

type TransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
	AddressBook  AddressBook   `json:"address_book"`
}

type Block struct {
	Workchain              int32          `json:"workchain"`
	Shard                  string         `json:"shard"`
	Seqno                  int32          `json:"seqno"`
	RootHash               ton.HashBytes  `json:"root_hash"`
	FileHash               ton.HashBytes  `json:"file_hash"`
	GlobalID               int32          `json:"global_id"`
	Version                int32          `json:"version"`
	AfterMerge             bool           `json:"after_merge"`
	BeforeSplit            bool           `json:"before_split"`
	AfterSplit             bool           `json:"after_split"`
	WantMerge              bool           `json:"want_merge"`
	WantSplit              bool           `json:"want_split"`
	KeyBlock               bool           `json:"key_block"`
	VertSeqnoIncr          bool           `json:"vert_seqno_incr"`
	Flags                  int32          `json:"flags"`
	GenUTime               int64          `json:"gen_utime,string"`
	StartLT                uint64         `json:"start_lt,string"`
	EndLT                  uint64         `json:"end_lt,string"`
	ValidatorListHashShort int64          `json:"validator_list_hash_short"`
	GenCatchainSeqno       int32          `json:"gen_catchain_seqno"`
	MinRefMcSeqno          int32          `json:"min_ref_mc_seqno"`
	PrevKeyBlockSeqno      int32          `json:"prev_key_block_seqno"`
	VertSeqno              int32          `json:"vert_seqno"`
	MasterRefSeqno         *int32         `json:"master_ref_seqno"`
	RandSeed               *ton.HashBytes `json:"rand_seed,omitempty"`
	CreatedBy              *string        `json:"created_by,omitempty"`
	TxCount                int64          `json:"tx_count"`
	MasterchainBlockRef    *BlockID       `json:"masterchain_block_ref"`
	PrevBlocks             []BlockID      `json:"prev_blocks"`
}

// ShardID parses the hex shard prefix into its 64-bit form.
func (b Block) ShardID() (uint64, error) {
	id, err := strconv.ParseUint(b.Shard, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid shard %q: %w", b.Shard, err)
	}
	return id, nil
}

type BlocksResponse struct {
	Blocks []Block `json:"blocks"`
}

type MasterchainInfo struct {
	First Block `json:"first"`
	Last  Block `json:"last"`
}

type AccountStateFull struct {
	Address             ton.Address    `json:"address"`
	Hash                ton.HashBytes  `json:"account_state_hash"`
	Balance             *ton.Coins     `json:"balance"`
	Status              *string        `json:"status"`
	LastTransactionHash *ton.HashBytes `json:"last_transaction_hash"`
	LastTransactionLT   *uint64        `json:"last_transaction_lt,string"`
	DataHash            *ton.HashBytes `json:"data_hash,omitempty"`
	CodeHash            *ton.HashBytes `json:"code_hash,omitempty"`
	DataBOC             *string        `json:"data_boc,omitempty"`
	CodeBOC             *string        `json:"code_boc,omitempty"`
}

type AccountStatesResponse struct {
	Accounts    []AccountStateFull `json:"accounts"`
	AddressBook AddressBook        `json:"address_book"`
}

type WalletState struct {
	Address             ton.Address    `json:"address"`
	IsWallet            bool           `json:"is_wallet"`
	WalletType          *string        `json:"wallet_type,omitempty"`
	Seqno               *int64         `json:"seqno,omitempty"`
	WalletID            *int64         `json:"wallet_id,omitempty"`
	Balance             *ton.Coins     `json:"balance,omitempty"`
	Status              *string        `json:"status,omitempty"`
	CodeHash            *ton.HashBytes `json:"code_hash,omitempty"`
	LastTransactionHash *ton.HashBytes `json:"last_transaction_hash"`
	LastTransactionLT   *uint64        `json:"last_transaction_lt,string"`
}

type WalletStatesResponse struct {
	Wallets     []WalletState `json:"wallets"`
	AddressBook AddressBook   `json:"address_book"`
}

type TokenInfo struct {
	Type        *string        `json:"type"`
	Valid       *bool          `json:"valid,omitempty"`
	Name        *string        `json:"name,omitempty"`
	Symbol      *string        `json:"symbol,omitempty"`
	Description *string        `json:"description,omitempty"`
	Image       *string        `json:"image,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

type AddressMetadata struct {
	IsIndexed bool        `json:"is_indexed"`
	TokenInfo []TokenInfo `json:"token_info"`
}

// Metadata maps raw addresses to what the index knows about them.
type Metadata map[string]AddressMetadata

// Lookup finds the entry for addr whatever spelling the service keyed it by.
func (m Metadata) Lookup(addr ton.Address) (AddressMetadata, bool) {
	for key, meta := range m {
		parsed, err := ton.ParseAddress(key)
		if err == nil && parsed.Equal(addr) {
			return meta, true
		}
	}
	return AddressMetadata{}, false
}

type RunGetMethodResult struct {
	GasUsed  int64        `json:"gas_used"`
	ExitCode int32        `json:"exit_code"`
	Stack    []StackEntry `json:"stack"`
}

// Success reports a TVM exit code of 0 or 1, the two normal terminations.
func (r RunGetMethodResult) Success() bool {
	return r.ExitCode == 0 || r.ExitCode == 1
}

type sendMessageBody struct {
	BOC string `json:"boc"`
}

type SendMessageResult struct {
	MessageHash     ton.HashBytes  `json:"message_hash"`
	MessageHashNorm *ton.HashBytes `json:"message_hash_norm,omitempty"`
}

type errorBody struct {
	Error  string          `json:"error"`
	Detail json.RawMessage `json:"detail"`
}

func (e errorBody) message() string {
	if e.Error != "" {
		return e.Error
	}
	if len(e.Detail) > 0 {
		var s string
		if err := json.Unmarshal(e.Detail, &s); err == nil {
			return s
		}
		return string(e.Detail)
	}
	return ""
}
