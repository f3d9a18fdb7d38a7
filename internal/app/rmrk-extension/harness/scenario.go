package harness

import (
	"fmt"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/sandbox"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Scenario is a runtime with the three harness programs deployed by Owner, each holding the same endowment.
type Scenario struct {
	Runtime  *sandbox.Runtime
	Owner    types.AccountID
	Victim   Victim
	Attacker Attacker
	Wallet   AttackerWallet
}

// Outcome records balances around one call_external transaction.
type Outcome struct {
	VictimBefore decimal.Decimal
	VictimAfter  decimal.Decimal
	CalleeBefore decimal.Decimal
	CalleeAfter  decimal.Decimal
	Err          error
}

func NewScenario(owner types.AccountID, endowment decimal.Decimal, opts ...sandbox.Option) (*Scenario, error) {
	runtime := sandbox.NewRuntime(opts...)

	victim, err := DeployVictim(runtime, owner)
	if err != nil {
		return nil, err
	}
	attacker, err := DeployAttacker(runtime, owner)
	if err != nil {
		return nil, err
	}
	wallet, err := DeployAttackerWallet(runtime, owner)
	if err != nil {
		return nil, err
	}

	for _, address := range []types.AccountID{victim.Address, attacker.Address, wallet.Address} {
		runtime.SetBalance(address, endowment)
	}

	return &Scenario{
		Runtime:  runtime,
		Owner:    owner,
		Victim:   victim,
		Attacker: attacker,
		Wallet:   wallet,
	}, nil
}

// CallExternal has the victim pay callee and reports balances on both sides.
func (s *Scenario) CallExternal(callee types.AccountID) Outcome {
	outcome := Outcome{
		VictimBefore: s.Runtime.Balance(s.Victim.Address),
		CalleeBefore: s.Runtime.Balance(callee),
	}
	outcome.Err = s.Victim.CallExternal(s.Owner, callee)
	outcome.VictimAfter = s.Runtime.Balance(s.Victim.Address)
	outcome.CalleeAfter = s.Runtime.Balance(callee)

	log.Info().Msgf("call_external to %s: victim %s -> %s, callee %s -> %s, err: %v",
		callee, outcome.VictimBefore, outcome.VictimAfter, outcome.CalleeBefore, outcome.CalleeAfter, outcome.Err)

	return outcome
}

// Reverted reports whether the transaction failed without moving any value.
func (o Outcome) Reverted() bool {
	return o.Err != nil && o.VictimBefore.Equal(o.VictimAfter) && o.CalleeBefore.Equal(o.CalleeAfter)
}

func (o Outcome) String() string {
	return fmt.Sprintf("victim %s -> %s, callee %s -> %s", o.VictimBefore, o.VictimAfter, o.CalleeBefore, o.CalleeAfter)
}
