package sandbox

import (
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
	"github.com/shopspring/decimal"
)

type revision struct {
	id           int
	journalIndex int
}

// journalEntry is a state change that can be undone.
type journalEntry interface {
	revert(*Runtime)
}

type journal struct {
	entries []journalEntry
}

func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

// revert undoes every entry recorded at or after snapshot, newest first.
func (j *journal) revert(r *Runtime, snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		j.entries[i].revert(r)
	}
	j.entries = j.entries[:snapshot]
}

func (j *journal) length() int {
	return len(j.entries)
}

type (
	balanceChange struct {
		account types.AccountID
		prev    decimal.Decimal
		existed bool
	}
	storageChange struct {
		account types.AccountID
		key     string
		prev    []byte
		existed bool
	}
	eventChange struct{}
)

func (ch balanceChange) revert(r *Runtime) {
	if !ch.existed {
		delete(r.balances, ch.account)
		return
	}
	r.balances[ch.account] = ch.prev
}

func (ch storageChange) revert(r *Runtime) {
	if !ch.existed {
		delete(r.storage[ch.account], ch.key)
		return
	}
	r.storage[ch.account][ch.key] = ch.prev
}

func (ch eventChange) revert(r *Runtime) {
	r.events = r.events[:len(r.events)-1]
}
