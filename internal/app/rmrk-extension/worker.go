package rmrk_extension

import (
	"context"
	"fmt"
	"time"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/engine"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/infrastructure"
	"github.com/rs/zerolog/log"
)

// Start runs service every interval against storage until ctx is done. storage is the same store the host
// serves from. Processing errors are mailed and retried after WorkerFailureRetryDelay; after
// ServiceMaxErrorCount of them the worker cancels the whole application.
func Start(ctx context.Context, ctxCancel context.CancelFunc, config *infrastructure.Config, service Service, storage engine.Storage, interval time.Duration) {
	log.Info().Msg("Application worker starting")

	retry := func(err error) {
		log.Error().Msgf("retry error: %s", err)

		ticker := time.NewTicker(config.WorkerFailureRetryDelay)
		defer ticker.Stop()

		select {
		case <-ticker.C:
		case <-ctx.Done():
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	errorCount := 0

	for ctx.Err() == nil {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}

		processingError := service.Execute(ctx, storage)
		if processingError == nil {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		errorCount++
		errorEncountered(config, processingError, errorCount)
		if errorCount >= config.ServiceMaxErrorCount {
			maxErrorCountReached(config, processingError)
			ctxCancel()
			return
		}
		retry(processingError)
	}
}

var mSendMail = sendMail

func maxErrorCountReached(config *infrastructure.Config, err error) {
	message := fmt.Sprintf("Application has exceeded the ServiceMaxErrorCount: {%d} and needs manual intervention!\n Error: {%s}", config.ServiceMaxErrorCount, err)
	log.Error().Msg(message)
	mSendMail(config, message)
}

func errorEncountered(config *infrastructure.Config, processingError error, errorCount int) {
	message := fmt.Sprintf("Application has encountered an error! Error: %s...Retrying for %d time", processingError, errorCount)
	log.Error().Msg(message)
	mSendMail(config, message)
}

func sendMail(config *infrastructure.Config, message string) {
	h := infrastructure.NewHelper(config)
	if err := h.SendMail(message); err != nil {
		log.Error().Err(err).Msg("failed to send alert mail")
	}
}

type Service interface {
	Execute(ctx context.Context, storage engine.Storage) error
}
