package sandbox

import (
	"fmt"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type gasMeter struct {
	limit uint64
	used  uint64
}

func (m *gasMeter) remaining() uint64 {
	return m.limit - m.used
}

func (m *gasMeter) charge(amount uint64) error {
	if left := m.remaining(); amount > left {
		m.used = m.limit
		return fmt.Errorf("%w: need %d, %d left", ErrOutOfGas, amount, left)
	}
	m.used += amount
	return nil
}

// Env is what a running message sees of the runtime. It is only valid for the duration of the frame.
type Env struct {
	runtime *Runtime
	caller  types.AccountID
	self    types.AccountID
	value   decimal.Decimal
	gas     *gasMeter
}

func (e *Env) Caller() types.AccountID {
	return e.caller
}

func (e *Env) Self() types.AccountID {
	return e.self
}

func (e *Env) TransferredValue() decimal.Decimal {
	return e.value
}

func (e *Env) Balance() decimal.Decimal {
	return e.runtime.balance(e.self)
}

func (e *Env) BalanceOf(account types.AccountID) decimal.Decimal {
	return e.runtime.balance(account)
}

func (e *Env) GasLeft() uint64 {
	return e.gas.remaining()
}

// Get reads the program's own storage.
func (e *Env) Get(key string) ([]byte, bool) {
	value, ok := e.runtime.storage[e.self][key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), value...), true
}

func (e *Env) Set(key string, value []byte) error {
	if err := e.gas.charge(e.runtime.schedule.StorageWrite); err != nil {
		return err
	}
	e.runtime.setStorage(e.self, key, value)
	return nil
}

func (e *Env) GetBool(key string) bool {
	value, ok := e.Get(key)
	return ok && len(value) == 1 && value[0] == 1
}

func (e *Env) SetBool(key string, v bool) error {
	if v {
		return e.Set(key, []byte{1})
	}
	return e.Set(key, []byte{0})
}

func (e *Env) GetAccount(key string) (types.AccountID, bool) {
	value, ok := e.Get(key)
	if !ok {
		return types.AccountID{}, false
	}
	account, err := types.AccountIDFromBytes(value)
	if err != nil {
		return types.AccountID{}, false
	}
	return account, true
}

func (e *Env) SetAccount(key string, account types.AccountID) error {
	return e.Set(key, account.Bytes())
}

func (e *Env) Emit(name string, data []byte) {
	e.runtime.emit(Event{Emitter: e.self, Name: name, Data: append([]byte(nil), data...)})
}

// Transfer moves value without running any code at the destination.
func (e *Env) Transfer(to types.AccountID, amount decimal.Decimal) error {
	if err := e.gas.charge(e.runtime.schedule.Transfer); err != nil {
		return err
	}
	return e.runtime.transfer(e.self, to, amount)
}

// Call runs a nested frame synchronously and returns once it has completed or been reverted. Gas the callee
// used is charged to this frame.
func (e *Env) Call(callee types.AccountID, req CallRequest) ([]byte, error) {
	limit := req.GasLimit
	if limit == 0 {
		limit = e.gas.remaining()
	}
	if limit > e.gas.remaining() {
		return nil, trap(callee, req.Selector, fmt.Errorf("%w: limit %d exceeds %d left", ErrOutOfGas, limit, e.gas.remaining()))
	}

	output, used, err := e.runtime.call(e.self, callee, req, limit)
	e.gas.used += used
	return output, err
}

// DebugPrintln appends a line to the runtime's debug buffer.
func (e *Env) DebugPrintln(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	e.runtime.debug = append(e.runtime.debug, line)
	log.Debug().Str("program", e.self.String()).Msg(line)
}

// Assert aborts the frame when cond is false.
func (e *Env) Assert(cond bool, msg string) {
	if !cond {
		panic(msg)
	}
}
