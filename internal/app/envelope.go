package app

import (
	"fmt"
	"slices"
	"strings"

	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/model"
	"github.com/ggonzalez94/awaken-cli/internal/out"
	"github.com/ggonzalez94/awaken-cli/internal/version"
	"github.com/samber/lo"
)

// codeLabels names each error code in the error envelope and in provider
// status rows.
var codeLabels = map[clierr.Code]struct{ errorType, providerStatus string }{
	clierr.CodeUsage:          {"usage_error", "error"},
	clierr.CodeAuth:           {"auth_error", "auth_error"},
	clierr.CodeRateLimited:    {"rate_limited", "rate_limited"},
	clierr.CodeUnavailable:    {"provider_unavailable", "unavailable"},
	clierr.CodeUnsupported:    {"unsupported", "error"},
	clierr.CodeStale:          {"stale_data", "error"},
	clierr.CodePartialStrict:  {"partial_results", "error"},
	clierr.CodeBlocked:        {"command_blocked", "error"},
	clierr.CodeSigner:         {"signer_error", "error"},
	clierr.CodeActionPlan:     {"action_plan_error", "error"},
	clierr.CodeActionRejected: {"action_rejected", "rejected"},
	clierr.CodeActionTimeout:  {"action_timeout", "timeout"},
	clierr.CodeNotFound:       {"not_found", "not_found"},
}

func errorType(code clierr.Code) string {
	if l, ok := codeLabels[code]; ok {
		return l.errorType
	}
	return "internal_error"
}

func statusFromErr(err error) string {
	if err == nil {
		return "ok"
	}
	if cErr, ok := clierr.As(err); ok {
		if l, ok := codeLabels[cErr.Code]; ok {
			return l.providerStatus
		}
	}
	return "error"
}

func (s *runtimeState) envelopeMeta(commandPath string, providers []model.ProviderStatus, cacheStatus model.CacheStatus, partial bool) model.EnvelopeMeta {
	return model.EnvelopeMeta{
		RequestID: newRequestID(),
		Timestamp: s.runner.now().UTC(),
		Command:   commandPath,
		Network:   s.network.Name,
		Providers: providers,
		Cache:     cacheStatus,
		Partial:   partial,
	}
}

func (s *runtimeState) emitSuccess(commandPath string, data any, warnings []string, cacheStatus model.CacheStatus, providers []model.ProviderStatus, partial bool) error {
	env := model.Envelope{
		Version:  model.EnvelopeVersion,
		Success:  true,
		Data:     data,
		Warnings: warnings,
		Meta:     s.envelopeMeta(commandPath, providers, cacheStatus, partial),
	}
	return out.Render(s.runner.stdout, env, s.settings)
}

// renderError writes the failure envelope to stderr. Projection flags never
// apply to errors.
func (s *runtimeState) renderError(commandPath string, err error, warnings []string, providers []model.ProviderStatus, partial bool) {
	commandPath, _ = lo.Coalesce(strings.TrimSpace(commandPath), s.lastCommand, version.CLIName)

	body := &model.ErrorBody{Code: clierr.ExitCode(err), Type: "internal_error", Message: err.Error()}
	if cErr, ok := clierr.As(err); ok {
		body.Type = errorType(cErr.Code)
		body.Message = cErr.Message
		if cErr.Cause != nil {
			body.Message = fmt.Sprintf("%s: %v", cErr.Message, cErr.Cause)
		}
	}

	settings := s.settings
	settings.OutputMode, _ = lo.Coalesce(settings.OutputMode, "json")
	settings.ResultsOnly = false
	settings.SelectFields = nil
	env := model.Envelope{
		Version:  model.EnvelopeVersion,
		Success:  false,
		Data:     []any{},
		Error:    body,
		Warnings: warnings,
		Meta:     s.envelopeMeta(commandPath, providers, cacheMetaBypass(), partial),
	}
	_ = out.Render(s.runner.stderr, env, settings)
}

// cobra reports bad input as plain errors; these fragments mark them.
var usageErrorFragments = []string{
	"unknown command",
	"unknown flag",
	"unknown shorthand flag",
	"required flag(s)",
	"flag needs an argument",
	"requires at least",
	"requires exactly",
	"accepts ",
	"invalid argument",
	"invalid args",
}

func isLikelyUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return lo.SomeBy(usageErrorFragments, func(fragment string) bool {
		return strings.Contains(msg, fragment)
	})
}

func (s *runtimeState) resetCommandDiagnostics() {
	s.captureCommandDiagnostics(nil, nil, false)
}

// captureCommandDiagnostics remembers what the last fetch reported so a
// failure envelope can carry it.
func (s *runtimeState) captureCommandDiagnostics(warnings []string, providers []model.ProviderStatus, partial bool) {
	s.lastWarnings = nil
	if len(warnings) > 0 {
		s.lastWarnings = slices.Clone(warnings)
	}
	s.lastProviders = nil
	if len(providers) > 0 {
		s.lastProviders = slices.Clone(providers)
	}
	s.lastPartial = partial
}

func cacheMetaBypass() model.CacheStatus {
	return model.CacheStatus{Status: "bypass"}
}

func cacheMetaMiss() model.CacheStatus {
	return model.CacheStatus{Status: "miss"}
}
