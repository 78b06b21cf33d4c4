package toncenter

import (
	"net/url"
	"strconv"

	"github.com/fystack/toncenter-indexer/pkg/ton"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// TransactionsRequest is the filter for GET /api/v3/transactions.
// Unset fields are omitted and the service defaults apply.
type TransactionsRequest struct {
	workchain      *int32
	shard          *int64
	seqno          *int32
	accounts       []ton.Address
	excludeAccount []ton.Address
	hash           *ton.HashBytes
	lt             *uint64
	startUTime     *int64
	endUTime       *int64
	startLT        *uint64
	endLT          *uint64
	limit          *int
	offset         *int
	sort           SortOrder
}

func NewTransactionsRequest() *TransactionsRequest {
	return &TransactionsRequest{}
}

func (r *TransactionsRequest) Address(addrs ...ton.Address) *TransactionsRequest {
	r.accounts = append(r.accounts, addrs...)
	return r
}

func (r *TransactionsRequest) ExcludeAddress(addrs ...ton.Address) *TransactionsRequest {
	r.excludeAccount = append(r.excludeAccount, addrs...)
	return r
}

func (r *TransactionsRequest) Workchain(w int32) *TransactionsRequest {
	r.workchain = &w
	return r
}

func (r *TransactionsRequest) Shard(s int64) *TransactionsRequest {
	r.shard = &s
	return r
}

func (r *TransactionsRequest) Seqno(n int32) *TransactionsRequest {
	r.seqno = &n
	return r
}

func (r *TransactionsRequest) Hash(h ton.HashBytes) *TransactionsRequest {
	r.hash = &h
	return r
}

func (r *TransactionsRequest) LT(lt uint64) *TransactionsRequest {
	r.lt = &lt
	return r
}

func (r *TransactionsRequest) StartUTime(t int64) *TransactionsRequest {
	r.startUTime = &t
	return r
}

func (r *TransactionsRequest) EndUTime(t int64) *TransactionsRequest {
	r.endUTime = &t
	return r
}

func (r *TransactionsRequest) StartLT(lt uint64) *TransactionsRequest {
	r.startLT = &lt
	return r
}

func (r *TransactionsRequest) EndLT(lt uint64) *TransactionsRequest {
	r.endLT = &lt
	return r
}

func (r *TransactionsRequest) Limit(n int) *TransactionsRequest {
	r.limit = &n
	return r
}

func (r *TransactionsRequest) Offset(n int) *TransactionsRequest {
	r.offset = &n
	return r
}

func (r *TransactionsRequest) Sort(order SortOrder) *TransactionsRequest {
	r.sort = order
	return r
}

// MaxResults returns the requested limit, or 0 when the service default applies.
func (r *TransactionsRequest) MaxResults() int {
	if r.limit == nil {
		return 0
	}
	return *r.limit
}

// Validate catches filters the service would reject anyway, so no request is sent.
// The upper bound on limit is the service's to enforce.
func (r *TransactionsRequest) Validate() error {
	if r.limit != nil && *r.limit <= 0 {
		return rejected("limit must be positive, got %d", *r.limit)
	}
	if r.offset != nil && *r.offset < 0 {
		return rejected("offset must not be negative, got %d", *r.offset)
	}
	if r.startLT != nil && r.endLT != nil && *r.startLT > *r.endLT {
		return rejected("start_lt %d is after end_lt %d", *r.startLT, *r.endLT)
	}
	if r.startUTime != nil && r.endUTime != nil && *r.startUTime > *r.endUTime {
		return rejected("start_utime %d is after end_utime %d", *r.startUTime, *r.endUTime)
	}
	if r.shard != nil && r.workchain == nil {
		return rejected("shard requires workchain")
	}
	for _, list := range [][]ton.Address{r.accounts, r.excludeAccount} {
		for _, a := range list {
			if a.IsZero() {
				return rejected("zero address in filter")
			}
		}
	}
	switch r.sort {
	case "", SortAsc, SortDesc:
	default:
		return rejected("unknown sort order %q", r.sort)
	}
	return nil
}

func (r *TransactionsRequest) query() url.Values {
	q := url.Values{}
	if r.workchain != nil {
		q.Set("workchain", strconv.FormatInt(int64(*r.workchain), 10))
	}
	if r.shard != nil {
		q.Set("shard", strconv.FormatUint(uint64(*r.shard), 16))
	}
	if r.seqno != nil {
		q.Set("seqno", strconv.FormatInt(int64(*r.seqno), 10))
	}
	for _, a := range r.accounts {
		q.Add("account", a.NonBounceable())
	}
	for _, a := range r.excludeAccount {
		q.Add("exclude_account", a.NonBounceable())
	}
	if r.hash != nil {
		q.Set("hash", r.hash.Hex())
	}
	if r.lt != nil {
		q.Set("lt", strconv.FormatUint(*r.lt, 10))
	}
	if r.startUTime != nil {
		q.Set("start_utime", strconv.FormatInt(*r.startUTime, 10))
	}
	if r.endUTime != nil {
		q.Set("end_utime", strconv.FormatInt(*r.endUTime, 10))
	}
	if r.startLT != nil {
		q.Set("start_lt", strconv.FormatUint(*r.startLT, 10))
	}
	if r.endLT != nil {
		q.Set("end_lt", strconv.FormatUint(*r.endLT, 10))
	}
	if r.limit != nil {
		q.Set("limit", strconv.Itoa(*r.limit))
	}
	if r.offset != nil {
		q.Set("offset", strconv.Itoa(*r.offset))
	}
	if r.sort != "" {
		q.Set("sort", string(r.sort))
	}
	return q
}

// AccountRequest selects accounts for the accountStates and walletStates endpoints.
type AccountRequest struct {
	Addresses  []ton.Address
	IncludeBOC bool
}

func (r AccountRequest) validate() error {
	if len(r.Addresses) == 0 {
		return rejected("at least one address is required")
	}
	for _, a := range r.Addresses {
		if a.IsZero() {
			return rejected("zero address in request")
		}
	}
	return nil
}

func (r AccountRequest) query() url.Values {
	q := addressQuery(r.Addresses)
	if r.IncludeBOC {
		q.Set("include_boc", "true")
	}
	return q
}

func addressQuery(addrs []ton.Address) url.Values {
	q := url.Values{}
	for _, a := range addrs {
		q.Add("address", a.NonBounceable())
	}
	return q
}

// BlocksRequest is the filter for GET /api/v3/blocks.
type BlocksRequest struct {
	workchain  *int32
	shard      *int64
	seqno      *int32
	mcSeqno    *int32
	startUTime *int64
	endUTime   *int64
	startLT    *uint64
	endLT      *uint64
	limit      *int
	offset     *int
	sort       SortOrder
}

func NewBlocksRequest() *BlocksRequest {
	return &BlocksRequest{}
}

func (r *BlocksRequest) Workchain(w int32) *BlocksRequest {
	r.workchain = &w
	return r
}

func (r *BlocksRequest) Shard(s int64) *BlocksRequest {
	r.shard = &s
	return r
}

func (r *BlocksRequest) Seqno(n int32) *BlocksRequest {
	r.seqno = &n
	return r
}

// MasterchainSeqno selects the blocks committed in that masterchain block.
func (r *BlocksRequest) MasterchainSeqno(n int32) *BlocksRequest {
	r.mcSeqno = &n
	return r
}

func (r *BlocksRequest) StartUTime(t int64) *BlocksRequest {
	r.startUTime = &t
	return r
}

func (r *BlocksRequest) EndUTime(t int64) *BlocksRequest {
	r.endUTime = &t
	return r
}

func (r *BlocksRequest) StartLT(lt uint64) *BlocksRequest {
	r.startLT = &lt
	return r
}

func (r *BlocksRequest) EndLT(lt uint64) *BlocksRequest {
	r.endLT = &lt
	return r
}

func (r *BlocksRequest) Limit(n int) *BlocksRequest {
	r.limit = &n
	return r
}

func (r *BlocksRequest) Offset(n int) *BlocksRequest {
	r.offset = &n
	return r
}

func (r *BlocksRequest) Sort(order SortOrder) *BlocksRequest {
	r.sort = order
	return r
}

func (r *BlocksRequest) MaxResults() int {
	if r.limit == nil {
		return 0
	}
	return *r.limit
}

func (r *BlocksRequest) Validate() error {
	if r.limit != nil && *r.limit <= 0 {
		return rejected("limit must be positive, got %d", *r.limit)
	}
	if r.offset != nil && *r.offset < 0 {
		return rejected("offset must not be negative, got %d", *r.offset)
	}
	if r.startLT != nil && r.endLT != nil && *r.startLT > *r.endLT {
		return rejected("start_lt %d is after end_lt %d", *r.startLT, *r.endLT)
	}
	if r.startUTime != nil && r.endUTime != nil && *r.startUTime > *r.endUTime {
		return rejected("start_utime %d is after end_utime %d", *r.startUTime, *r.endUTime)
	}
	if r.shard != nil && r.workchain == nil {
		return rejected("shard requires workchain")
	}
	switch r.sort {
	case "", SortAsc, SortDesc:
	default:
		return rejected("unknown sort order %q", r.sort)
	}
	return nil
}

func (r *BlocksRequest) query() url.Values {
	q := url.Values{}
	if r.workchain != nil {
		q.Set("workchain", strconv.FormatInt(int64(*r.workchain), 10))
	}
	if r.shard != nil {
		q.Set("shard", strconv.FormatUint(uint64(*r.shard), 16))
	}
	if r.seqno != nil {
		q.Set("seqno", strconv.FormatInt(int64(*r.seqno), 10))
	}
	if r.mcSeqno != nil {
		q.Set("mc_seqno", strconv.FormatInt(int64(*r.mcSeqno), 10))
	}
	if r.startUTime != nil {
		q.Set("start_utime", strconv.FormatInt(*r.startUTime, 10))
	}
	if r.endUTime != nil {
		q.Set("end_utime", strconv.FormatInt(*r.endUTime, 10))
	}
	if r.startLT != nil {
		q.Set("start_lt", strconv.FormatUint(*r.startLT, 10))
	}
	if r.endLT != nil {
		q.Set("end_lt", strconv.FormatUint(*r.endLT, 10))
	}
	if r.limit != nil {
		q.Set("limit", strconv.Itoa(*r.limit))
	}
	if r.offset != nil {
		q.Set("offset", strconv.Itoa(*r.offset))
	}
	if r.sort != "" {
		q.Set("sort", string(r.sort))
	}
	return q
}

// RunGetMethodRequest names a contract get method and its arguments, pushed
// onto the stack in order.
type RunGetMethodRequest struct {
	Address ton.Address
	Method  string
	Stack   []StackEntry
}

func (r RunGetMethodRequest) validate() error {
	if r.Address.IsZero() {
		return rejected("get method needs a contract address")
	}
	if r.Method == "" {
		return rejected("get method name is required")
	}
	for i, e := range r.Stack {
		if e.Type == "" || len(e.Value) == 0 {
			return rejected("stack entry %d is empty", i)
		}
	}
	return nil
}

type runGetMethodBody struct {
	Address string       `json:"address"`
	Method  string       `json:"method"`
	Stack   []StackEntry `json:"stack"`
}

func (r RunGetMethodRequest) body() runGetMethodBody {
	stack := r.Stack
	if stack == nil {
		stack = []StackEntry{}
	}
	return runGetMethodBody{Address: r.Address.NonBounceable(), Method: r.Method, Stack: stack}
}
