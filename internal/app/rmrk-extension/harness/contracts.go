package harness

import (
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/codec"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/sandbox"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
	"github.com/shopspring/decimal"
)

// Contract is a deployed harness program together with the runtime that hosts it.
type Contract struct {
	runtime *sandbox.Runtime
	Address types.AccountID
}

func (c Contract) query(caller types.AccountID, msg string) ([]byte, error) {
	return c.runtime.Query(caller, c.Address, sandbox.CallRequest{Selector: sandbox.SelectorOf(msg)})
}

func (c Contract) Owner(caller types.AccountID) (types.AccountID, error) {
	output, err := c.query(caller, MsgGetOwner)
	if err != nil {
		return types.AccountID{}, err
	}
	return types.AccountIDFromBytes(output)
}

func (c Contract) Balance(caller types.AccountID) (decimal.Decimal, error) {
	output, err := c.query(caller, MsgGetBalance)
	if err != nil {
		return decimal.Zero, err
	}
	return decodeBalance(output)
}

type Victim struct {
	Contract
}

// CallExternal runs call_external(callee) as a transaction signed by caller.
func (v Victim) CallExternal(caller, callee types.AccountID) error {
	_, err := v.runtime.Execute(caller, v.Address, sandbox.CallRequest{
		Selector: sandbox.SelectorOf(MsgCallExternal),
		Input:    encodeAccount(callee),
	})
	return err
}

type Attacker struct {
	Contract
}

func (a Attacker) Flip(caller types.AccountID) (bool, error) {
	return queryFlip(a.Contract, caller)
}

type AttackerWallet struct {
	Contract
}

func (w AttackerWallet) Flip(caller types.AccountID) (bool, error) {
	return queryFlip(w.Contract, caller)
}

func (w AttackerWallet) TransferTo(caller, to types.AccountID, amount decimal.Decimal) error {
	input, err := encodeTransfer(to, amount)
	if err != nil {
		return err
	}
	_, err = w.runtime.Execute(caller, w.Address, sandbox.CallRequest{
		Selector: sandbox.SelectorOf(MsgTransferTo),
		Input:    input,
	})
	return err
}

func queryFlip(c Contract, caller types.AccountID) (bool, error) {
	output, err := c.query(caller, MsgGetFlip)
	if err != nil {
		return false, err
	}
	dec := codec.NewDecoder(output)
	flip := dec.Bool()
	return flip, dec.Finish()
}

func DeployVictim(runtime *sandbox.Runtime, deployer types.AccountID) (Victim, error) {
	address, err := runtime.Deploy(deployer, NewVictim())
	return Victim{Contract{runtime: runtime, Address: address}}, err
}

func DeployAttacker(runtime *sandbox.Runtime, deployer types.AccountID) (Attacker, error) {
	address, err := runtime.Deploy(deployer, NewAttacker())
	return Attacker{Contract{runtime: runtime, Address: address}}, err
}

func DeployAttackerWallet(runtime *sandbox.Runtime, deployer types.AccountID) (AttackerWallet, error) {
	address, err := runtime.Deploy(deployer, NewAttackerWallet())
	return AttackerWallet{Contract{runtime: runtime, Address: address}}, err
}
