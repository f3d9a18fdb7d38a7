//go:build ignore

package main

import (
	"context"
	"os"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/infrastructure"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/protocol"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/requesters"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Runs a create/mint/nest/send/burn round against the host at ENGINE_URL.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := godotenv.Load(".env"); err != nil {
		log.Warn().Msgf("No .env file found: %s", err)
	}

	config := infrastructure.NewConfig()
	client := protocol.NewClient(requesters.NewExtensionRequester(config))
	ctx := context.Background()

	issuer := types.NewAccountID("smoke-issuer")
	receiver := types.NewAccountID("smoke-receiver")
	call := types.CallContext{Caller: issuer}

	collectionID := client.CollectionIndex(ctx, call)
	if err := client.CreateCollection(ctx, call, []byte("ipfs://smoke"), types.Uint32Ptr(10), []byte("SMK")); err != nil {
		log.Fatal().Err(err).Msg("create_collection")
	}
	log.Info().Msgf("collection %d created on %s", collectionID, config.EngineURL)

	params := types.MintParams{CollectionID: collectionID, Metadata: []byte("ipfs://root"), Transferable: true}
	parent := types.NFTKey{CollectionID: collectionID, NftID: client.NextNftID(ctx, call, collectionID)}
	if err := client.MintNFT(ctx, call, issuer, params); err != nil {
		log.Fatal().Err(err).Msg("mint_nft")
	}

	child := types.NFTKey{CollectionID: collectionID, NftID: client.NextNftID(ctx, call, collectionID)}
	params.Metadata = []byte("ipfs://child")
	if err := client.MintNFTDirectlyToNFT(ctx, call, parent, params); err != nil {
		log.Fatal().Err(err).Msg("mint_nft_directly_to_nft")
	}

	if err := client.Send(ctx, call, parent, types.OwnerOfNFT(child)); !protocol.IsFailed(err) {
		log.Fatal().Msgf("sending %s under its own child should fail, got %v", parent, err)
	}

	if err := client.Send(ctx, call, parent, types.AccountOwner{Account: receiver}); err != nil {
		log.Fatal().Err(err).Msg("send")
	}
	locked, err := client.Lock(ctx, call, parent)
	if err != nil {
		log.Fatal().Err(err).Msg("lock")
	}
	log.Info().Msgf("%s sent to %s, locked %t", parent, receiver, locked)

	if err := client.BurnNFT(ctx, types.CallContext{Caller: receiver}, parent, 2); err != nil {
		log.Fatal().Err(err).Msg("burn_nft")
	}
	if err := client.DestroyCollection(ctx, call, collectionID); err != nil {
		log.Fatal().Err(err).Msg("destroy_collection")
	}
	log.Info().Msgf("collection %d burned and destroyed", collectionID)
}
