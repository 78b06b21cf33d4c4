package events

import (
	"encoding/json"
	"time"

	"github.com/fystack/toncenter-indexer/pkg/infra"
	"github.com/fystack/toncenter-indexer/pkg/ton"
	"github.com/fystack/toncenter-indexer/pkg/toncenter"
)

const errorSubject = "errors"

type Emitter interface {
	EmitTransaction(tx toncenter.Transaction) error
	EmitError(account ton.Address, err error) error
	Close()
}

type emitter struct {
	queue         infra.MessageQueue
	subjectPrefix string
	now           func() time.Time
}

func NewEmitter(queue infra.MessageQueue, subjectPrefix string) Emitter {
	return &emitter{
		queue:         queue,
		subjectPrefix: subjectPrefix,
		now:           time.Now,
	}
}

// TransactionSubject is where events for account are published. Raw addresses
// contain a colon, so they never collide with the errors subject.
func TransactionSubject(prefix string, account ton.Address) string {
	return prefix + "." + account.Raw()
}

// SubjectWildcard matches every subject the emitter publishes on.
func SubjectWildcard(prefix string) string {
	return prefix + ".>"
}

// EmitTransaction publishes tx keyed by its hash, so redelivery after a crash
// before the cursor was saved is deduplicated by the broker.
func (e *emitter) EmitTransaction(tx toncenter.Transaction) error {
	data, err := json.Marshal(NewTransactionEvent(tx))
	if err != nil {
		return err
	}
	return e.queue.Enqueue(TransactionSubject(e.subjectPrefix, tx.Account), data, &infra.EnqueueOptions{
		IdempotencyKey: tx.Hash.String(),
	})
}

func (e *emitter) EmitError(account ton.Address, err error) error {
	ev := ErrorEvent{
		Account:   account.Raw(),
		Retryable: toncenter.IsRetryable(err),
		Timestamp: e.now().UTC().Unix(),
	}
	if err != nil {
		ev.Message = err.Error()
	}
	data, mErr := json.Marshal(ev)
	if mErr != nil {
		return mErr
	}
	return e.queue.Enqueue(e.subjectPrefix+"."+errorSubject, data, nil)
}

func (e *emitter) Close() {
	if e.queue != nil {
		e.queue.Close()
	}
}
