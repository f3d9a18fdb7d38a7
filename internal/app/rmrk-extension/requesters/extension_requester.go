package requesters

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/infrastructure"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/protocol"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxResponseBody = 1 << 20

func NewExtensionRequester(config *infrastructure.Config) *ExtensionRequester {
	return &ExtensionRequester{
		baseURL: strings.TrimRight(config.EngineURL, "/"),
		client:  &http.Client{Timeout: config.HTTPTimeout},
	}
}

// ExtensionRequester reaches a remote engine over HTTP. It implements protocol.Extension.
type ExtensionRequester struct {
	baseURL string
	client  *http.Client
}

func (r *ExtensionRequester) Call(ctx context.Context, call types.CallContext, id protocol.FuncID, input []byte) (uint32, []byte, error) {
	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+protocol.ExtensionPath(id), bytes.NewReader(input))
	if err != nil {
		log.Error().Msg(err.Error())
		return 0, nil, err
	}
	req.Header.Set("Content-Type", protocol.ContentType)
	req.Header.Set(protocol.HeaderCaller, call.Caller.String())
	req.Header.Set(protocol.HeaderRequestID, requestID)

	res, err := r.client.Do(req)
	if err != nil {
		log.Error().Str("request_id", requestID).Msg(err.Error())
		return 0, nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBody+1))
	if err != nil {
		return 0, nil, err
	}
	if len(body) > maxResponseBody {
		return 0, nil, fmt.Errorf("%s: response larger than %d bytes", id, maxResponseBody)
	}

	if res.StatusCode != http.StatusOK {
		return 0, nil, fmt.Errorf("%s: engine responded %d (request %s): %s", id, res.StatusCode, requestID, strings.TrimSpace(string(body)))
	}

	status, err := strconv.ParseUint(res.Header.Get(protocol.HeaderStatus), 10, 32)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: invalid %s header: %w", id, protocol.HeaderStatus, err)
	}

	log.Debug().Str("request_id", requestID).Msgf("%s returned status %d with %d bytes", id, status, len(body))

	return uint32(status), body, nil
}
