// Package supervisor is the last-resort safety net for failures that escape
// every local handler. It is constructed once at program start and passed
// down explicitly; nothing here registers ambient process-wide state, so
// tests can run a supervisor with a stubbed exit function.
package supervisor

import (
	"fmt"
	"os"
	"sync"

	"github.com/pressbot/pressbot/pkg/errors"
	"github.com/pressbot/pressbot/pkg/logging"
	"github.com/pressbot/pressbot/pkg/metrics"
)

// Config holds supervisor configuration
type Config struct {
	// ExitFunc terminates the process on critical failures. Defaults to
	// os.Exit; tests inject a stub.
	ExitFunc func(code int)
	// Metrics, when set, records supervised failures
	Metrics *metrics.Metrics
}

// Supervisor catches failures that escaped all local handling, classifies
// and logs them, and terminates the process only on critical severity.
type Supervisor struct {
	logger  *logging.Logger
	metrics *metrics.Metrics
	exit    func(code int)

	mu        sync.Mutex
	installed bool
}

// New creates a supervisor
func New(logger *logging.Logger, config *Config) *Supervisor {
	if config == nil {
		config = &Config{}
	}
	exit := config.ExitFunc
	if exit == nil {
		exit = os.Exit
	}
	return &Supervisor{
		logger:  logger,
		metrics: config.Metrics,
		exit:    exit,
	}
}

// Install marks the supervisor as the process-wide failure handler. It must
// be called exactly once per process lifetime; a second call is rejected.
func (s *Supervisor) Install() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.installed {
		return errors.NewValidationError("failure supervisor is already installed")
	}
	s.installed = true
	s.logger.Debug("Failure supervisor installed")
	return nil
}

// HandleFailure is the terminal handler for an error nobody else dealt
// with. It logs at fatal level with the classification attached and
// terminates the process only when severity is critical.
func (s *Supervisor) HandleFailure(err error) {
	if err == nil {
		return
	}

	pipeErr := errors.FromError(err)

	if s.metrics != nil {
		s.metrics.RecordError(string(pipeErr.Category), string(pipeErr.Severity))
	}

	s.logger.Fatal("Unhandled failure reached the supervisor",
		"error", pipeErr.Error(),
		"category", pipeErr.Category,
		"severity", pipeErr.Severity,
		"retryable", pipeErr.Retryable,
	)

	if pipeErr.Severity == errors.SeverityCritical {
		s.exit(1)
	}
}

// Warn handles a non-fatal runtime warning. It never terminates.
func (s *Supervisor) Warn(msg string, keysAndValues ...interface{}) {
	s.logger.Warn(msg, keysAndValues...)
}

// Recover is used in a deferred call at the top of main or a goroutine to
// route escaped panics through HandleFailure:
//
//	defer sup.Recover("pipeline")
func (s *Supervisor) Recover(scope string) {
	if r := recover(); r != nil {
		s.HandleFailure(panicError(scope, r))
	}
}

// Go runs fn on a new goroutine whose panic or returned error is routed to
// HandleFailure. This is the supervised home for fire-and-forget work that
// no caller awaits.
func (s *Supervisor) Go(name string, fn func() error) {
	go func() {
		defer s.Recover(name)
		if err := fn(); err != nil {
			s.HandleFailure(err)
		}
	}()
}

func panicError(scope string, recovered interface{}) *errors.PipelineError {
	return errors.NewInternalError(fmt.Sprintf("panic in %s: %v", scope, recovered)).
		WithMetadata("scope", scope)
}
