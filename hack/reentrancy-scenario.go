//go:build ignore

package main

import (
	"os"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/harness"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	owner := types.NewAccountID("hack-owner")
	scenario, err := harness.NewScenario(owner, decimal.NewFromInt(100))
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	outcome := scenario.CallExternal(scenario.Wallet.Address)
	flip, err := scenario.Wallet.Flip(owner)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
	log.Info().Msgf("wallet callee: %s, flip %t, err %v", outcome, flip, outcome.Err)

	outcome = scenario.CallExternal(scenario.Attacker.Address)
	log.Info().Msgf("attacker callee: %s, events %d, err %v", outcome, len(scenario.Runtime.Events()), outcome.Err)

	outcome = scenario.CallExternal(types.NewAccountID("no-code"))
	log.Info().Msgf("account without code: %s, reverted %t, err %v", outcome, outcome.Reverted(), outcome.Err)

	for _, line := range scenario.Runtime.DebugBuffer() {
		log.Info().Msgf("debug: %s", line)
	}
}
