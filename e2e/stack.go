package e2e

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"kubecred/internal/issuance"
	issuancehandler "kubecred/internal/issuance/handler"
	"kubecred/internal/issuance/models"
	issuanceservice "kubecred/internal/issuance/service"
	issuancestore "kubecred/internal/issuance/store"
	"kubecred/internal/platform/health"
	"kubecred/internal/platform/httpserver"
	"kubecred/internal/verification"
	"kubecred/internal/verification/client"
	verificationhandler "kubecred/internal/verification/handler"
	verificationservice "kubecred/internal/verification/service"
	verificationstore "kubecred/internal/verification/store"
)

const (
	issuanceWorker     = "worker-e2e"
	verificationWorker = "verifier-e2e"
)

// stack runs both services in-process on loopback listeners, wired the same
// way the binaries wire them but with in-memory stores.
type stack struct {
	issuance     *httptest.Server
	verification *httptest.Server
	// issuanceHits counts credential API calls, not health probes.
	issuanceHits atomic.Int64
}

func startStack() (*stack, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := &stack{}

	issuanceSvc := issuanceservice.New(issuancestore.NewInMemory(), issuanceWorker,
		issuanceservice.WithIDGenerator(models.DeterministicIDs{}),
		issuanceservice.WithLogger(logger),
	)
	issuanceRouter := issuance.NewRouter(
		issuancehandler.New(issuanceSvc, logger),
		health.New(issuancehandler.ServiceName, issuanceWorker),
		httpserver.RouterOptions{Logger: logger, Registry: prometheus.NewRegistry()},
	)
	s.issuance = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/credentials") {
			s.issuanceHits.Add(1)
		}
		issuanceRouter.ServeHTTP(w, r)
	}))

	checker, err := client.NewChecker("replay", client.New(s.issuance.URL, 5*time.Second, client.WithLogger(logger)))
	if err != nil {
		s.issuance.Close()
		return nil, err
	}
	verificationSvc := verificationservice.New(verificationstore.NewInMemory(), checker, verificationWorker,
		verificationservice.WithLogger(logger),
	)
	s.verification = httptest.NewServer(verification.NewRouter(
		verificationhandler.New(verificationSvc, logger),
		health.New(verificationhandler.ServiceName, verificationWorker),
		httpserver.RouterOptions{Logger: logger, Registry: prometheus.NewRegistry()},
	))
	return s, nil
}

func (s *stack) close() {
	s.verification.Close()
	s.issuance.Close()
}
