package harness

import (
	"fmt"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/codec"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/sandbox"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
	"github.com/shopspring/decimal"
)

const (
	MsgGetOwner     = "get_owner"
	MsgGetBalance   = "get_balance"
	MsgGetFlip      = "get_flip"
	MsgCallExternal = "call_external"
	MsgTransferTo   = "transfer_to"

	EventFallbackInvoked = "FallbackInvoked"

	CallExternalGasLimit uint64 = 50_000

	keyOwner = "owner"
	keyFlip  = "flip"
)

var (
	CallExternalValue    = decimal.NewFromInt(10)
	CallExternalSelector = sandbox.Selector{0, 0, 0, 0}
)

func NewVictim() *sandbox.Program {
	return sandbox.NewProgram("victim").
		WithConstructor(storeOwner).
		WithMessage(MsgGetOwner, false, getOwner).
		WithMessage(MsgGetBalance, false, getBalance).
		WithMessage(MsgCallExternal, false, callExternal)
}

func NewAttacker() *sandbox.Program {
	return sandbox.NewProgram("attacker").
		WithConstructor(storeOwnerAndFlip).
		WithMessage(MsgGetOwner, false, getOwner).
		WithMessage(MsgGetBalance, false, getBalance).
		WithMessage(MsgGetFlip, false, getFlip).
		WithFallback(true, func(env *sandbox.Env, _ []byte) ([]byte, error) {
			env.DebugPrintln("Fallback message called")
			env.Emit(EventFallbackInvoked, env.Caller().Bytes())
			return nil, nil
		})
}

func NewAttackerWallet() *sandbox.Program {
	return sandbox.NewProgram("attacker_wallet").
		WithConstructor(storeOwnerAndFlip).
		WithMessage(MsgGetOwner, false, getOwner).
		WithMessage(MsgGetBalance, false, getBalance).
		WithMessage(MsgGetFlip, false, getFlip).
		WithMessage(MsgTransferTo, false, transferTo).
		WithFallback(true, func(env *sandbox.Env, _ []byte) ([]byte, error) {
			return nil, env.SetBool(keyFlip, !env.GetBool(keyFlip))
		})
}

func storeOwner(env *sandbox.Env) error {
	return env.SetAccount(keyOwner, env.Caller())
}

func storeOwnerAndFlip(env *sandbox.Env) error {
	if err := storeOwner(env); err != nil {
		return err
	}
	return env.SetBool(keyFlip, false)
}

func getOwner(env *sandbox.Env, _ []byte) ([]byte, error) {
	owner, _ := env.GetAccount(keyOwner)
	return owner.Bytes(), nil
}

func getBalance(env *sandbox.Env, _ []byte) ([]byte, error) {
	return encodeBalance(env.Balance())
}

func getFlip(env *sandbox.Env, _ []byte) ([]byte, error) {
	enc := codec.NewEncoder()
	enc.PutBool(env.GetBool(keyFlip))
	return enc.Bytes(), nil
}

// callExternal pays a fixed value to callee with an empty payload and aborts when the callee fails.
func callExternal(env *sandbox.Env, input []byte) ([]byte, error) {
	callee, err := decodeAccount(input)
	if err != nil {
		return nil, err
	}

	_, err = env.Call(callee, sandbox.CallRequest{
		Selector: CallExternalSelector,
		Value:    CallExternalValue,
		GasLimit: CallExternalGasLimit,
	})
	env.DebugPrintln("Result %v", err)
	if err != nil {
		panic(fmt.Sprintf("call to %s failed: %s", callee, err))
	}
	return nil, nil
}

func transferTo(env *sandbox.Env, input []byte) ([]byte, error) {
	to, amount, err := decodeTransfer(input)
	if err != nil {
		return nil, err
	}

	owner, _ := env.GetAccount(keyOwner)
	env.Assert(env.Caller() == owner, "only owner can transfer funds")
	env.Assert(amount.LessThanOrEqual(env.Balance()), "insufficient funds!")

	if err := env.Transfer(to, amount); err != nil {
		panic(fmt.Sprintf("requested transfer failed: %s", err))
	}
	return nil, nil
}

func encodeBalance(balance decimal.Decimal) ([]byte, error) {
	enc := codec.NewEncoder()
	if err := enc.PutU128(balance.BigInt()); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}

func decodeBalance(output []byte) (decimal.Decimal, error) {
	dec := codec.NewDecoder(output)
	v := dec.U128()
	if err := dec.Finish(); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(v, 0), nil
}

func encodeAccount(account types.AccountID) []byte {
	enc := codec.NewEncoder()
	enc.PutFixed(account.Bytes())
	return enc.Bytes()
}

func decodeAccount(input []byte) (types.AccountID, error) {
	dec := codec.NewDecoder(input)
	raw := dec.Fixed(types.AccountIDSize)
	if err := dec.Finish(); err != nil {
		return types.AccountID{}, err
	}
	return types.AccountIDFromBytes(raw)
}

func encodeTransfer(to types.AccountID, amount decimal.Decimal) ([]byte, error) {
	if amount.IsNegative() || !amount.Equal(amount.Truncate(0)) {
		return nil, fmt.Errorf("amount %s is not a whole non-negative balance", amount)
	}
	enc := codec.NewEncoder()
	enc.PutFixed(to.Bytes())
	if err := enc.PutU128(amount.BigInt()); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}

func decodeTransfer(input []byte) (types.AccountID, decimal.Decimal, error) {
	dec := codec.NewDecoder(input)
	raw := dec.Fixed(types.AccountIDSize)
	amount := dec.U128()
	if err := dec.Finish(); err != nil {
		return types.AccountID{}, decimal.Zero, err
	}
	to, err := types.AccountIDFromBytes(raw)
	if err != nil {
		return types.AccountID{}, decimal.Zero, err
	}
	return to, decimal.NewFromBigInt(amount, 0), nil
}
