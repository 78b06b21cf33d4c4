package events

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/fystack/toncenter-indexer/pkg/infra"
	"github.com/fystack/toncenter-indexer/pkg/ton"
	"github.com/fystack/toncenter-indexer/pkg/toncenter"
)

type published struct {
	topic string
	data  []byte
	opts  *infra.EnqueueOptions
}

type fakeQueue struct {
	msgs   []published
	closed bool
	err    error
}

func (q *fakeQueue) Enqueue(topic string, message []byte, options *infra.EnqueueOptions) error {
	if q.err != nil {
		return q.err
	}
	q.msgs = append(q.msgs, published{topic: topic, data: message, opts: options})
	return nil
}

func (q *fakeQueue) Close() { q.closed = true }

func TestEmitTransaction(t *testing.T) {
	account := ton.MustParseAddress("UQAKtVj024T9MfYaJzU1xnDAkf_GGbHNu-V2mgvyjTuP6uYH")
	sender := ton.MustParseAddress("EQAd59XMWb40TRfxqTJ0otrUTqD8ZuxLHhC8T401A5-Kr2aY")
	hash, err := ton.ParseHash("X+zrZv/IbzjZUnhsbWlsecLbwjndTpG0ZynXOif7V+k=")
	require.NoError(t, err)

	body := cell.BeginCell().MustStoreUInt(0, 32).MustStoreStringSnake("order 17").EndCell().ToBOC()
	balance := ton.MustCoins("1180591620717411303427")
	fees := ton.MustCoins("2355")
	value := ton.MustCoins("1500000000")

	tx := toncenter.Transaction{
		Account:           account,
		Hash:              hash,
		LT:                47000000000003,
		Now:               1700000000,
		TotalFees:         &fees,
		AccountStateAfter: toncenter.AccountState{Balance: &balance},
		InMsg: &toncenter.Message{
			Source: &sender,
			Value:  &value,
			MessageContent: &toncenter.MessageContent{
				Body: base64.StdEncoding.EncodeToString(body),
			},
		},
		OutMsgs: []toncenter.Message{{}, {}},
	}

	q := &fakeQueue{}
	e := NewEmitter(q, "toncenter.tx")
	require.NoError(t, e.EmitTransaction(tx))
	require.Len(t, q.msgs, 1)

	msg := q.msgs[0]
	assert.Equal(t, "toncenter.tx."+account.Raw(), msg.topic)
	require.NotNil(t, msg.opts)
	assert.Equal(t, hash.String(), msg.opts.IdempotencyKey)

	expected := fmt.Sprintf(`{
		"account": %q,
		"hash": %q,
		"lt": "47000000000003",
		"now": 1700000000,
		"success": true,
		"balance": "1180591620717411303427",
		"total_fees": "2355",
		"source": %q,
		"value": "1500000000",
		"comment": "order 17",
		"out_messages": 2
	}`, account.Raw(), hash.String(), sender.Raw())
	assert.JSONEq(t, expected, string(msg.data))
}

func TestEmitTransaction_UnknownBalance(t *testing.T) {
	q := &fakeQueue{}
	e := NewEmitter(q, "p")
	require.NoError(t, e.EmitTransaction(toncenter.Transaction{
		Account:     ton.MustParseAddress("0:0ab558f4db84fd31f61a273535c670c091ffc619b1cdbbe5769a0bf28d3b8fea"),
		Description: toncenter.Description{Aborted: true},
	}))

	var ev TransactionEvent
	require.NoError(t, json.Unmarshal(q.msgs[0].data, &ev))
	assert.Nil(t, ev.Balance)
	assert.Nil(t, ev.TotalFees)
	assert.Nil(t, ev.Source)
	assert.False(t, ev.Success)
}

func TestEmitError(t *testing.T) {
	q := &fakeQueue{}
	e := NewEmitter(q, "toncenter.tx").(*emitter)
	e.now = func() time.Time { return time.Unix(1700000000, 0) }

	account := ton.MustParseAddress("UQAKtVj024T9MfYaJzU1xnDAkf_GGbHNu-V2mgvyjTuP6uYH")
	cause := fmt.Errorf("%w: GET /api/v3/transactions: timeout", toncenter.ErrTransportFailure)
	require.NoError(t, e.EmitError(account, cause))

	require.Len(t, q.msgs, 1)
	assert.Equal(t, "toncenter.tx.errors", q.msgs[0].topic)
	assert.Nil(t, q.msgs[0].opts)

	var ev ErrorEvent
	require.NoError(t, json.Unmarshal(q.msgs[0].data, &ev))
	assert.True(t, ev.Retryable)
	assert.Equal(t, account.Raw(), ev.Account)
	assert.Equal(t, int64(1700000000), ev.Timestamp)
	assert.Contains(t, ev.Message, "timeout")

	e.Close()
	assert.True(t, q.closed)
}

func TestEmitTransaction_QueueError(t *testing.T) {
	q := &fakeQueue{err: fmt.Errorf("nats down")}
	e := NewEmitter(q, "p")
	err := e.EmitTransaction(toncenter.Transaction{Account: ton.MustParseAddress("0:0ab558f4db84fd31f61a273535c670c091ffc619b1cdbbe5769a0bf28d3b8fea")})
	assert.EqualError(t, err, "nats down")
}

func TestSubjectWildcard(t *testing.T) {
	assert.Equal(t, "toncenter.tx.>", SubjectWildcard("toncenter.tx"))
}
