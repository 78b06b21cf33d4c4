package events

import (
	"github.com/fystack/toncenter-indexer/pkg/ton"
	"github.com/fystack/toncenter-indexer/pkg/toncenter"
)

// TransactionEvent is the message published for every new account transaction.
// Amounts are integer nanotons as decimal strings; nil means unknown.
type TransactionEvent struct {
	Account     string  `json:"account"`
	Hash        string  `json:"hash"`
	LT          uint64  `json:"lt,string"`
	Now         int64   `json:"now"`
	Success     bool    `json:"success"`
	Balance     *string `json:"balance"`
	TotalFees   *string `json:"total_fees"`
	Source      *string `json:"source,omitempty"`
	Value       *string `json:"value,omitempty"`
	Comment     string  `json:"comment,omitempty"`
	OutMessages int     `json:"out_messages"`
}

func coinsString(c *ton.Coins) *string {
	if c == nil {
		return nil
	}
	s := c.String()
	return &s
}

func NewTransactionEvent(tx toncenter.Transaction) TransactionEvent {
	ev := TransactionEvent{
		Account:     tx.Account.Raw(),
		Hash:        tx.Hash.String(),
		LT:          tx.LT,
		Now:         tx.Now,
		Success:     tx.Success(),
		Balance:     coinsString(tx.AccountStateAfter.Balance),
		TotalFees:   coinsString(tx.TotalFees),
		OutMessages: len(tx.OutMsgs),
	}
	if in := tx.InMsg; in != nil {
		if in.Source != nil {
			src := in.Source.Raw()
			ev.Source = &src
		}
		ev.Value = coinsString(in.Value)
		if comment, ok := in.Comment(); ok {
			ev.Comment = comment
		}
	}
	return ev
}

// ErrorEvent reports an account that could not be polled.
type ErrorEvent struct {
	Account   string `json:"account"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Timestamp int64  `json:"timestamp"`
}
