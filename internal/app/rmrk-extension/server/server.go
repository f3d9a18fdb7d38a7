package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/engine"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/metrics"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/protocol"
	"github.com/CudoVentures/rmrk-extension/internal/app/rmrk-extension/types"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const maxRequestBody = 1 << 20

// NewRouter serves the extension over HTTP. collector may be nil, in which case /metrics is not mounted.
// The caller identity is taken from the X-Rmrk-Caller header as is; the listener must only be reachable by
// the trusted ledger runtime.
func NewRouter(host *engine.Host, collector *metrics.Collector) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/extension/{funcId:[0-9]+}", extensionHandler(host)).Methods(http.MethodPost)
	r.HandleFunc("/health", healthHandler()).Methods(http.MethodGet)

	if collector != nil {
		r.Handle("/metrics", collector.Handler()).Methods(http.MethodGet)
		r.Use(collector.InstrumentHandler)
	}
	return r
}

// NewAdminRouter serves the operator endpoints. Every request must carry "Authorization: Bearer <token>";
// with an empty token all of them are refused.
func NewAdminRouter(e *engine.Engine, token string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/admin/lock/{collectionId:[0-9]+}/{nftId:[0-9]+}", lockHandler(e)).Methods(http.MethodPut)
	r.Use(requireToken(token))
	return r
}

func requireToken(token string) mux.MiddlewareFunc {
	expected := []byte("Bearer " + token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get("Authorization"))
			if token == "" || subtle.ConstantTimeCompare(got, expected) != 1 {
				log.Warn().Msgf("rejected admin request %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Handler:      handler,
		Addr:         addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}
}

func extensionHandler(host *engine.Host) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if requestID := r.Header.Get(protocol.HeaderRequestID); requestID != "" {
			w.Header().Set(protocol.HeaderRequestID, requestID)
		}

		id, err := protocol.ParseFuncID(mux.Vars(r)["funcId"])
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		caller, err := types.ParseAccountID(r.Header.Get(protocol.HeaderCaller))
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid %s header: %s", protocol.HeaderCaller, err), http.StatusBadRequest)
			return
		}

		input, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody+1))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(input) > maxRequestBody {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}

		status, output, err := host.Call(r.Context(), types.CallContext{Caller: caller}, id, input)
		if err != nil {
			code := http.StatusInternalServerError
			switch {
			case errors.Is(err, engine.ErrMalformedInput):
				code = http.StatusBadRequest
			case errors.Is(err, engine.ErrUnknownFunc):
				code = http.StatusNotFound
			}
			log.Error().Err(err).Msgf("extension call %s from %s", id, caller)
			http.Error(w, err.Error(), code)
			return
		}

		w.Header().Set("Content-Type", protocol.ContentType)
		w.Header().Set(protocol.HeaderStatus, strconv.FormatUint(uint64(status), 10))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(output); err != nil {
			log.Error().Err(err).Send()
		}
	}
}

type lockRequest struct {
	Locked bool `json:"locked"`
}

func lockHandler(e *engine.Engine) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		collectionID, err := strconv.ParseUint(vars["collectionId"], 10, 32)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		nftID, err := strconv.ParseUint(vars["nftId"], 10, 32)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var req lockRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		key := types.NFTKey{CollectionID: types.CollectionID(collectionID), NftID: types.NftID(nftID)}
		if err := e.SetLock(r.Context(), key, req.Locked); err != nil {
			code := http.StatusInternalServerError
			if errors.Is(err, engine.ErrNFTNotFound) {
				code = http.StatusNotFound
			}
			http.Error(w, err.Error(), code)
			return
		}

		writeJSON(w, http.StatusOK, req)
	}
}

func healthHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Send()
	}
}
