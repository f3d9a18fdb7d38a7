package sandbox

import (
	"fmt"
	"sort"
	"sync"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const DefaultGasLimit uint64 = 1_000_000

// GasSchedule prices the metered operations of a call frame.
type GasSchedule struct {
	Call         uint64
	StorageWrite uint64
	Transfer     uint64
}

var DefaultGasSchedule = GasSchedule{
	Call:         2_000,
	StorageWrite: 5_000,
	Transfer:     2_500,
}

type Event struct {
	Emitter types.AccountID
	Name    string
	Data    []byte
}

// CallRequest describes one call frame. A zero GasLimit on a nested call forwards all remaining gas.
type CallRequest struct {
	Selector Selector
	Input    []byte
	Value    decimal.Decimal
	GasLimit uint64
}

type Option func(*Runtime)

func WithGasSchedule(schedule GasSchedule) Option {
	return func(r *Runtime) {
		r.schedule = schedule
	}
}

// Runtime is a single threaded program host. Transactions run one at a time and every call frame inside a
// transaction is atomic: a failing frame reverts its own changes and those of all frames it called.
type Runtime struct {
	mu       sync.Mutex
	schedule GasSchedule

	balances map[types.AccountID]decimal.Decimal
	storage  map[types.AccountID]map[string][]byte
	programs map[types.AccountID]*Program
	events   []Event
	debug    []string
	nonce    uint64

	journal        journal
	validRevisions []revision
	nextRevisionID int
}

func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{
		schedule: DefaultGasSchedule,
		balances: make(map[types.AccountID]decimal.Decimal),
		storage:  make(map[types.AccountID]map[string][]byte),
		programs: make(map[types.AccountID]*Program),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetBalance overwrites an account balance outside of any transaction.
func (r *Runtime) SetBalance(account types.AccountID, amount decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[account] = amount
}

func (r *Runtime) Balance(account types.AccountID) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.balance(account)
}

func (r *Runtime) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// DebugBuffer returns every line printed by programs, including lines printed by frames that were reverted.
func (r *Runtime) DebugBuffer() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.debug...)
}

// Deploy installs program at a fresh account and runs its constructor with deployer as caller.
func (r *Runtime) Deploy(deployer types.AccountID, program *Program) (types.AccountID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.commit()

	r.nonce++
	address := types.NewAccountID(fmt.Sprintf("%s/%d", program.Name, r.nonce))
	r.programs[address] = program
	r.storage[address] = make(map[string][]byte)

	if program.Constructor == nil {
		return address, nil
	}

	snapshot := r.snapshot()
	env := &Env{runtime: r, caller: deployer, self: address, value: decimal.Zero, gas: &gasMeter{limit: DefaultGasLimit}}
	if err := runConstructor(env, program.Constructor); err != nil {
		r.revertToSnapshot(snapshot)
		delete(r.programs, address)
		delete(r.storage, address)
		return types.AccountID{}, fmt.Errorf("deploy %s: %w", program.Name, err)
	}

	log.Debug().Msgf("deployed %s at %s", program.Name, address)
	return address, nil
}

func runConstructor(env *Env, constructor func(*Env) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrPanicked, rec)
		}
	}()
	return constructor(env)
}

// Execute runs a top level transaction from origin. On error nothing the transaction did is kept.
func (r *Runtime) Execute(origin, callee types.AccountID, req CallRequest) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.commit()

	limit := req.GasLimit
	if limit == 0 {
		limit = DefaultGasLimit
	}

	output, used, err := r.call(origin, callee, req, limit)
	if err != nil {
		log.Debug().Err(err).Msgf("transaction from %s to %s reverted after %d gas", origin, callee, used)
		return nil, err
	}
	log.Debug().Msgf("transaction from %s to %s used %d gas", origin, callee, used)
	return output, nil
}

// Query runs a call and discards all of its effects.
func (r *Runtime) Query(origin, callee types.AccountID, req CallRequest) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer r.commit()

	limit := req.GasLimit
	if limit == 0 {
		limit = DefaultGasLimit
	}

	snapshot := r.snapshot()
	output, _, err := r.call(origin, callee, req, limit)
	r.revertToSnapshot(snapshot)
	return output, err
}

// call runs one frame. Any failure, including a panic in the program, reverts the frame and is returned as
// a *Trap.
func (r *Runtime) call(caller, callee types.AccountID, req CallRequest, limit uint64) (output []byte, used uint64, err error) {
	meter := &gasMeter{limit: limit}
	snapshot := r.snapshot()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrPanicked, rec)
		}
		if err != nil {
			r.revertToSnapshot(snapshot)
			output = nil
			err = trap(callee, req.Selector, err)
		}
		used = meter.used
	}()

	if err = meter.charge(r.schedule.Call); err != nil {
		return
	}

	program, ok := r.programs[callee]
	if !ok {
		err = ErrNoCode
		return
	}
	msg, ok := program.lookup(req.Selector)
	if !ok {
		err = ErrUnknownSelector
		return
	}
	if req.Value.IsPositive() && !msg.Payable {
		err = ErrNotPayable
		return
	}
	if err = r.transfer(caller, callee, req.Value); err != nil {
		return
	}

	env := &Env{runtime: r, caller: caller, self: callee, value: req.Value, gas: meter}
	output, err = msg.Handler(env, req.Input)
	return
}

func (r *Runtime) balance(account types.AccountID) decimal.Decimal {
	if balance, ok := r.balances[account]; ok {
		return balance
	}
	return decimal.Zero
}

func (r *Runtime) setBalance(account types.AccountID, amount decimal.Decimal) {
	prev, existed := r.balances[account]
	r.journal.append(balanceChange{account: account, prev: prev, existed: existed})
	r.balances[account] = amount
}

func (r *Runtime) transfer(from, to types.AccountID, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeValue
	}
	if amount.IsZero() {
		return nil
	}
	if r.balance(from).LessThan(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, from, r.balance(from), amount)
	}
	r.setBalance(from, r.balance(from).Sub(amount))
	r.setBalance(to, r.balance(to).Add(amount))
	return nil
}

func (r *Runtime) setStorage(account types.AccountID, key string, value []byte) {
	slots := r.storage[account]
	prev, existed := slots[key]
	r.journal.append(storageChange{account: account, key: key, prev: prev, existed: existed})
	slots[key] = append([]byte(nil), value...)
}

func (r *Runtime) emit(event Event) {
	r.journal.append(eventChange{})
	r.events = append(r.events, event)
}

func (r *Runtime) snapshot() int {
	id := r.nextRevisionID
	r.nextRevisionID++
	r.validRevisions = append(r.validRevisions, revision{id, r.journal.length()})
	return id
}

func (r *Runtime) revertToSnapshot(revid int) {
	idx := sort.Search(len(r.validRevisions), func(i int) bool {
		return r.validRevisions[i].id >= revid
	})
	if idx == len(r.validRevisions) || r.validRevisions[idx].id != revid {
		panic(fmt.Errorf("revision id %v cannot be reverted", revid))
	}
	r.journal.revert(r, r.validRevisions[idx].journalIndex)
	r.validRevisions = r.validRevisions[:idx]
}

// commit drops the journal once a transaction is finished.
func (r *Runtime) commit() {
	r.journal.entries = nil
	r.validRevisions = r.validRevisions[:0]
}
