package app

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ggonzalez94/awaken-cli/internal/aelf"
	"github.com/ggonzalez94/awaken-cli/internal/cache"
	"github.com/ggonzalez94/awaken-cli/internal/config"
	clierr "github.com/ggonzalez94/awaken-cli/internal/errors"
	"github.com/ggonzalez94/awaken-cli/internal/execution"
	"github.com/ggonzalez94/awaken-cli/internal/httpx"
	"github.com/ggonzalez94/awaken-cli/internal/model"
	"github.com/ggonzalez94/awaken-cli/internal/policy"
	"github.com/ggonzalez94/awaken-cli/internal/providers/awaken"
	"github.com/ggonzalez94/awaken-cli/internal/query"
	"github.com/ggonzalez94/awaken-cli/internal/registry"
	"github.com/ggonzalez94/awaken-cli/internal/schema"
	"github.com/ggonzalez94/awaken-cli/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type Runner struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

func NewRunner() *Runner {
	return NewRunnerWithWriters(os.Stdout, os.Stderr)
}

func NewRunnerWithWriters(stdout, stderr io.Writer) *Runner {
	return &Runner{
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
	}
}

type runtimeState struct {
	runner        *Runner
	flags         config.GlobalFlags
	settings      config.Settings
	cache         *cache.Store
	actionStore   *execution.Store
	root          *cobra.Command
	lastCommand   string
	lastWarnings  []string
	lastProviders []model.ProviderStatus
	lastPartial   bool

	network       registry.Network
	logger        *zap.Logger
	chainClient   *aelf.Client
	index         *awaken.Client
	klineFeed     *awaken.KlineFeed
	query         *query.Service
	providerInfos []model.ProviderInfo
}

func (r *Runner) Run(args []string) int {
	state := &runtimeState{runner: r}
	root := state.newRootCommand()
	state.root = root
	state.resetCommandDiagnostics()
	root.SetArgs(args)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := root.Execute()
	err = normalizeRunError(err)
	if err != nil {
		state.renderError("", err, state.lastWarnings, state.lastProviders, state.lastPartial)
	}
	state.close()
	return clierr.ExitCode(err)
}

func (s *runtimeState) close() {
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.actionStore != nil {
		_ = s.actionStore.Close()
	}
	if s.logger != nil {
		_ = s.logger.Sync()
	}
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   version.CLIName,
		Short: "Agent-first CLI for the Awaken DEX on aelf",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			settings, err := config.Load(s.flags)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "load configuration", err)
			}
			s.settings = settings

			path := trimRootPath(cmd.CommandPath())
			s.lastCommand = path
			if err := policy.CheckCommandAllowed(settings.EnableCommands, path); err != nil {
				return err
			}

			if s.query == nil {
				if err := s.initServices(); err != nil {
					return err
				}
			}

			if settings.CacheEnabled && shouldOpenCache(path) && s.cache == nil {
				cacheStore, err := cache.Open(settings.CachePath, settings.CacheLockPath)
				if err != nil {
					return clierr.Wrap(clierr.CodeInternal, "open cache", err)
				}
				s.cache = cacheStore
			}
			if shouldOpenActionStore(path) {
				if err := s.ensureActionStore(); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierr.Wrap(clierr.CodeUsage, "parse flags", err)
	})

	cmd.PersistentFlags().BoolVar(&s.flags.JSON, "json", false, "Output JSON (default)")
	cmd.PersistentFlags().BoolVar(&s.flags.Plain, "plain", false, "Output plain text")
	cmd.PersistentFlags().StringVar(&s.flags.Select, "select", "", "Select fields from data (comma-separated)")
	cmd.PersistentFlags().BoolVar(&s.flags.ResultsOnly, "results-only", false, "Output only data payload")
	cmd.PersistentFlags().StringVar(&s.flags.EnableCommands, "enable-commands", "", "Allowlist command paths (comma-separated)")
	cmd.PersistentFlags().BoolVar(&s.flags.Strict, "strict", false, "Fail on partial results")
	cmd.PersistentFlags().StringVar(&s.flags.Timeout, "timeout", "", "Provider request timeout")
	cmd.PersistentFlags().IntVar(&s.flags.Retries, "retries", -1, "Retries per provider request")
	cmd.PersistentFlags().StringVar(&s.flags.MaxStale, "max-stale", "", "Maximum stale fallback window after TTL expiry")
	cmd.PersistentFlags().BoolVar(&s.flags.NoStale, "no-stale", false, "Reject stale cache entries")
	cmd.PersistentFlags().BoolVar(&s.flags.NoCache, "no-cache", false, "Disable cache reads and writes")
	cmd.PersistentFlags().StringVar(&s.flags.ConfigPath, "config", "", "Path to config file")
	cmd.PersistentFlags().StringVar(&s.flags.Network, "network", "", "Awaken network (mainnet|testnet)")
	cmd.PersistentFlags().StringVar(&s.flags.LogLevel, "log-level", "", "Log level for diagnostics on stderr (debug|info|warn|error)")

	cmd.AddCommand(s.newSchemaCommand())
	cmd.AddCommand(s.newProvidersCommand())
	cmd.AddCommand(s.newNetworksCommand())
	cmd.AddCommand(s.newQuoteCommand())
	cmd.AddCommand(s.newPairCommand())
	cmd.AddCommand(s.newBalanceCommand())
	cmd.AddCommand(s.newAllowanceCommand())
	cmd.AddCommand(s.newLiquidityCommand())
	cmd.AddCommand(s.newKlineCommand())
	cmd.AddCommand(s.newSwapCommand())
	cmd.AddCommand(s.newApproveCommand())
	cmd.AddCommand(s.newActionsCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// initServices wires the network, transports and read services once per
// invocation. Signers are only created by mutating commands.
func (s *runtimeState) initServices() error {
	network, err := registry.ResolveNetwork(s.settings.Network, s.settings.NetworkOverrides)
	if err != nil {
		return err
	}
	logger, err := newLogger(s.settings.LogLevel, s.runner.stderr)
	if err != nil {
		return clierr.Wrap(clierr.CodeUsage, "configure logger", err)
	}
	httpClient := httpx.New(s.settings.Timeout, s.settings.Retries)
	chainClient, err := aelf.NewClient(network.RPCURL, aelf.Options{
		HTTP:    httpClient,
		Handles: aelf.NewHandleCache(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	s.network = network
	s.logger = logger
	s.chainClient = chainClient
	s.index = awaken.New(httpClient, network.APIBaseURL)
	s.klineFeed = awaken.NewKlineFeed(httpClient, network.SocketURL, logger)
	s.query = query.New(network, query.Deps{
		Chain:     chainClient,
		Routes:    s.index,
		Pairs:     s.index,
		Positions: s.index,
		Klines:    s.klineFeed,
	})
	s.providerInfos = []model.ProviderInfo{
		s.index.Info(),
		s.klineFeed.Info(),
		nodeProviderInfo(network),
	}
	logger.Debug("services initialized",
		zap.String("network", network.Name),
		zap.String("chain_id", network.ChainID),
		zap.String("rpc", network.RPCURL),
		zap.String("api", network.APIBaseURL),
	)
	return nil
}

func nodeProviderInfo(network registry.Network) model.ProviderInfo {
	return model.ProviderInfo{
		Name:         "aelf-node",
		Type:         "chain",
		Endpoint:     network.RPCURL,
		RequiresKey:  false,
		Capabilities: []string{"token.balance", "token.allowance", "tx.submit", "tx.status"},
	}
}

func newVersionCommand() *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Run: func(cmd *cobra.Command, args []string) {
			if long {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Long())
				return
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.CLIVersion)
		},
	}
	cmd.Flags().BoolVar(&long, "long", false, "Print extended build metadata")
	return cmd
}

func (s *runtimeState) newSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema [command path]",
		Short: "Print machine-readable command schema",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = strings.Join(args, " ")
			}
			data, err := schema.Build(s.root, path)
			if err != nil {
				return clierr.Wrap(clierr.CodeUsage, "build schema", err)
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil, false)
		},
	}
	return cmd
}

func (s *runtimeState) newProvidersCommand() *cobra.Command {
	root := &cobra.Command{Use: "providers", Short: "Provider commands"}
	list := &cobra.Command{
		Use:   "list",
		Short: "List data providers and endpoints for the selected network",
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), s.providerInfos, nil, cacheMetaBypass(), nil, false)
		},
	}
	root.AddCommand(list)
	return root
}

func (s *runtimeState) newNetworksCommand() *cobra.Command {
	root := &cobra.Command{Use: "networks", Short: "Network configuration"}
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved network with overrides applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			data := map[string]any{
				"network":   s.network,
				"fee_tiers": s.network.FeeTiers(),
				"available": registry.NetworkNames(),
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), data, nil, cacheMetaBypass(), nil, false)
		},
	}
	root.AddCommand(show)
	return root
}

type fetchFn func(ctx context.Context) (data any, providerStatus []model.ProviderStatus, warnings []string, partial bool, err error)

func (s *runtimeState) runCachedCommand(commandPath, key string, ttl time.Duration, fetch fetchFn) error {
	return s.runCachedCommandWithTimeout(commandPath, key, ttl, s.settings.Timeout, fetch)
}

// staleEntry is a cached payload past its TTL but inside the retention
// window, held in case the live fetch fails.
type staleEntry struct {
	data     any
	status   model.CacheStatus
	age      time.Duration
	loadedAt time.Time
}

func (e *staleEntry) currentAge() time.Duration {
	return e.age + time.Since(e.loadedAt)
}

// readCache serves a fresh entry directly. A stale entry is returned for
// fallback instead.
func (s *runtimeState) readCache(key string) (fresh any, freshStatus model.CacheStatus, stale *staleEntry, ok bool) {
	cached, err := s.cache.Get(key, s.settings.MaxStale)
	if err != nil || !cached.Hit {
		return nil, model.CacheStatus{}, nil, false
	}
	var data any
	if err := json.Unmarshal(cached.Value, &data); err != nil {
		return nil, model.CacheStatus{}, nil, false
	}
	status := model.CacheStatus{Status: "hit", AgeMS: cached.Age.Milliseconds(), Stale: cached.Stale}
	if !cached.Stale {
		return data, status, nil, true
	}
	return nil, model.CacheStatus{}, &staleEntry{data: data, status: status, age: cached.Age, loadedAt: time.Now()}, false
}

func (s *runtimeState) runCachedCommandWithTimeout(commandPath, key string, ttl, timeout time.Duration, fetch fetchFn) error {
	s.resetCommandDiagnostics()
	useCache := s.settings.CacheEnabled && s.cache != nil
	var stale *staleEntry
	if useCache {
		data, status, entry, fresh := s.readCache(key)
		if fresh {
			s.captureCommandDiagnostics(nil, nil, false)
			return s.emitSuccess(commandPath, data, []string{}, status, nil, false)
		}
		stale = entry
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	data, providerStatus, warnings, partial, err := fetch(ctx)
	if warnings == nil {
		warnings = []string{}
	}
	s.captureCommandDiagnostics(warnings, providerStatus, partial)

	switch {
	case err != nil && stale != nil:
		return s.serveStale(commandPath, ttl, stale, err, warnings, providerStatus)
	case err != nil:
		return err
	case partial && s.settings.Strict:
		return clierr.New(clierr.CodePartialStrict, "partial results returned in strict mode")
	}

	cacheStatus := cacheMetaBypass()
	if useCache {
		cacheStatus = cacheMetaMiss()
		if payload, err := json.Marshal(data); err == nil && s.cache.Set(key, payload, ttl) == nil {
			cacheStatus = model.CacheStatus{Status: "write"}
		}
	}
	return s.emitSuccess(commandPath, data, warnings, cacheStatus, providerStatus, partial)
}

// serveStale answers a failed fetch from an expired entry when the error is
// transient and the entry is inside the max-stale budget.
func (s *runtimeState) serveStale(commandPath string, ttl time.Duration, stale *staleEntry, fetchErr error, warnings []string, providerStatus []model.ProviderStatus) error {
	if !staleFallbackAllowed(fetchErr) {
		return fetchErr
	}
	if s.settings.NoStale {
		return clierr.Wrap(clierr.CodeStale, "fresh provider fetch failed and stale fallback is disabled (--no-stale)", fetchErr)
	}
	age := stale.currentAge()
	if staleExceedsBudget(age, ttl, s.settings.MaxStale) {
		return clierr.Wrap(clierr.CodeStale, "fresh provider fetch failed and cached data exceeded stale budget", fetchErr)
	}
	status := stale.status
	status.AgeMS = age.Milliseconds()
	warnings = append(warnings, "provider fetch failed; serving stale data within max-stale budget")
	s.captureCommandDiagnostics(warnings, providerStatus, false)
	if s.logger != nil {
		s.logger.Warn("serving stale cache entry", zap.String("command", commandPath), zap.Duration("age", age), zap.Error(fetchErr))
	}
	return s.emitSuccess(commandPath, stale.data, warnings, status, providerStatus, false)
}

// runUncached executes a read that must always hit the live source.
func (s *runtimeState) runUncached(commandPath, providerName string, fetch func(ctx context.Context) (any, error)) error {
	s.resetCommandDiagnostics()
	ctx, cancel := context.WithTimeout(context.Background(), s.settings.Timeout)
	defer cancel()
	start := time.Now()
	data, err := fetch(ctx)
	status := []model.ProviderStatus{{Name: providerName, Status: statusFromErr(err), LatencyMS: time.Since(start).Milliseconds()}}
	s.captureCommandDiagnostics(nil, status, false)
	if err != nil {
		return err
	}
	return s.emitSuccess(commandPath, data, nil, cacheMetaBypass(), status, false)
}

func cacheKey(commandPath string, req any) string {
	buf, _ := json.Marshal(req)
	sum := sha256.Sum256(append([]byte(commandPath+"|"), buf...))
	return hex.EncodeToString(sum[:])
}

func newRequestID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func trimRootPath(path string) string {
	parts := strings.Fields(path)
	if len(parts) <= 1 {
		return path
	}
	return strings.Join(parts[1:], " ")
}

func normalizeRunError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := clierr.As(err); ok {
		return err
	}
	if isLikelyUsageError(err) {
		return clierr.Wrap(clierr.CodeUsage, "invalid command input", err)
	}
	return clierr.Wrap(clierr.CodeInternal, "execute command", err)
}

func staleExceedsBudget(age, ttl, maxStale time.Duration) bool {
	if age <= ttl {
		return false
	}
	if maxStale < 0 {
		return false
	}
	return age > ttl+maxStale
}

func staleFallbackAllowed(err error) bool {
	cErr, ok := clierr.As(err)
	if !ok {
		return false
	}
	return cErr.Code == clierr.CodeUnavailable || cErr.Code == clierr.CodeRateLimited
}

// Only index reads with a TTL go through the sqlite cache. Balances,
// allowances and positions always read live state.
func shouldOpenCache(commandPath string) bool {
	switch normalizeCommandPath(commandPath) {
	case "quote", "pair", "kline fetch":
		return true
	default:
		return false
	}
}

func shouldOpenActionStore(commandPath string) bool {
	switch normalizeCommandPath(commandPath) {
	case "swap", "approve", "liquidity add", "liquidity remove", "actions list", "actions show":
		return true
	default:
		return false
	}
}

func normalizeCommandPath(commandPath string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(commandPath))), " ")
}

func (s *runtimeState) ensureActionStore() error {
	if s.actionStore != nil {
		return nil
	}
	store, err := execution.OpenStore(s.settings.ActionStorePath, s.settings.ActionLockPath)
	if err != nil {
		return clierr.Wrap(clierr.CodeInternal, "open action store", err)
	}
	s.actionStore = store
	return nil
}
