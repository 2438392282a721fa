package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ggonzalez94/awaken-cli/internal/registry"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSlippage         = "0.005"
	DefaultConfirmAttempts  = 30
	DefaultConfirmInterval  = time.Second
	DefaultApprovalMultiple = 10
	DefaultExecutionTimeout = 5 * time.Minute
)

type GlobalFlags struct {
	ConfigPath     string
	JSON           bool
	Plain          bool
	Select         string
	ResultsOnly    bool
	EnableCommands string
	Strict         bool
	Timeout        string
	Retries        int
	MaxStale       string
	NoStale        bool
	NoCache        bool
	Network        string
	LogLevel       string
}

type Settings struct {
	OutputMode       string
	SelectFields     []string
	ResultsOnly      bool
	EnableCommands   []string
	Strict           bool
	Timeout          time.Duration
	Retries          int
	MaxStale         time.Duration
	NoStale          bool
	CacheEnabled     bool
	CachePath        string
	CacheLockPath    string
	ActionStorePath  string
	ActionLockPath   string
	Network          string
	NetworkOverrides registry.Overrides
	DefaultSlippage  string
	ConfirmAttempts  int
	ConfirmInterval  time.Duration
	ApprovalMultiple int64
	ExecutionTimeout time.Duration
	LogLevel         string
}

type fileConfig struct {
	Output   string `yaml:"output"`
	Strict   *bool  `yaml:"strict"`
	Timeout  string `yaml:"timeout"`
	Retries  *int   `yaml:"retries"`
	LogLevel string `yaml:"log_level"`
	Cache    struct {
		Enabled  *bool  `yaml:"enabled"`
		MaxStale string `yaml:"max_stale"`
		Path     string `yaml:"path"`
		LockPath string `yaml:"lock_path"`
	} `yaml:"cache"`
	Execution struct {
		ActionsPath      string `yaml:"actions_path"`
		ActionsLockPath  string `yaml:"actions_lock_path"`
		ConfirmAttempts  *int   `yaml:"confirm_attempts"`
		ConfirmInterval  string `yaml:"confirm_interval"`
		ApprovalMultiple *int64 `yaml:"approval_multiple"`
		Timeout          string `yaml:"timeout"`
		DefaultSlippage  string `yaml:"default_slippage"`
	} `yaml:"execution"`
	Network struct {
		Name             string `yaml:"name"`
		RPCURL           string `yaml:"rpc_url"`
		APIBaseURL       string `yaml:"api_base_url"`
		SocketURL        string `yaml:"socket_url"`
		ExplorerURL      string `yaml:"explorer_url"`
		TokenContract    string `yaml:"token_contract"`
		SwapHookContract string `yaml:"swap_hook_contract"`
	} `yaml:"network"`
}

func Load(flags GlobalFlags) (Settings, error) {
	settings, err := defaultSettings()
	if err != nil {
		return Settings{}, err
	}

	cfgPath, err := resolveConfigPath(flags.ConfigPath)
	if err != nil {
		return Settings{}, err
	}

	if err := applyFileConfig(cfgPath, &settings); err != nil {
		return Settings{}, err
	}

	if err := applyEnv(&settings); err != nil {
		return Settings{}, err
	}

	if err := applyFlags(flags, &settings); err != nil {
		return Settings{}, err
	}

	if settings.OutputMode == "" {
		settings.OutputMode = "json"
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 10 * time.Second
	}
	if settings.Retries < 0 {
		settings.Retries = 0
	}
	if settings.MaxStale < 0 {
		settings.MaxStale = 5 * time.Minute
	}
	if settings.ConfirmAttempts <= 0 {
		settings.ConfirmAttempts = DefaultConfirmAttempts
	}
	if settings.ConfirmInterval <= 0 {
		settings.ConfirmInterval = DefaultConfirmInterval
	}
	if settings.ExecutionTimeout <= 0 {
		settings.ExecutionTimeout = DefaultExecutionTimeout
	}
	if settings.ApprovalMultiple < 2 {
		return Settings{}, fmt.Errorf("approval multiple must be at least 2, got %d", settings.ApprovalMultiple)
	}
	if err := ValidateSlippage(settings.DefaultSlippage); err != nil {
		return Settings{}, fmt.Errorf("default slippage: %w", err)
	}

	return settings, nil
}

// ValidateSlippage checks 0 <= s < 1.
func ValidateSlippage(v string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("invalid slippage %q", v)
	}
	if d.IsNegative() || d.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("slippage must be in [0, 1), got %s", v)
	}
	return nil
}

func defaultSettings() (Settings, error) {
	cachePath, lockPath, err := defaultCachePaths()
	if err != nil {
		return Settings{}, err
	}
	cacheDir := filepath.Dir(cachePath)
	return Settings{
		OutputMode:       "json",
		Timeout:          10 * time.Second,
		Retries:          2,
		MaxStale:         5 * time.Minute,
		CacheEnabled:     true,
		CachePath:        cachePath,
		CacheLockPath:    lockPath,
		ActionStorePath:  filepath.Join(cacheDir, "actions.db"),
		ActionLockPath:   filepath.Join(cacheDir, "actions.lock"),
		Network:          registry.DefaultNetwork,
		DefaultSlippage:  DefaultSlippage,
		ConfirmAttempts:  DefaultConfirmAttempts,
		ConfirmInterval:  DefaultConfirmInterval,
		ApprovalMultiple: DefaultApprovalMultiple,
		ExecutionTimeout: DefaultExecutionTimeout,
		LogLevel:         "warn",
	}, nil
}

func resolveConfigPath(input string) (string, error) {
	if strings.TrimSpace(input) != "" {
		return input, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "awaken", "config.yaml"), nil
}

func defaultCachePaths() (string, string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, "awaken")
	return filepath.Join(dir, "cache.db"), filepath.Join(dir, "cache.lock"), nil
}

func applyFileConfig(path string, settings *Settings) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}

	setString(&settings.OutputMode, strings.ToLower(cfg.Output))
	setString(&settings.LogLevel, cfg.LogLevel)
	setString(&settings.CachePath, cfg.Cache.Path)
	setString(&settings.CacheLockPath, cfg.Cache.LockPath)
	setString(&settings.ActionStorePath, cfg.Execution.ActionsPath)
	setString(&settings.ActionLockPath, cfg.Execution.ActionsLockPath)
	setString(&settings.DefaultSlippage, cfg.Execution.DefaultSlippage)
	setString(&settings.Network, cfg.Network.Name)
	if cfg.Strict != nil {
		settings.Strict = *cfg.Strict
	}
	if cfg.Retries != nil {
		settings.Retries = *cfg.Retries
	}
	if cfg.Cache.Enabled != nil {
		settings.CacheEnabled = *cfg.Cache.Enabled
	}
	if cfg.Execution.ConfirmAttempts != nil {
		settings.ConfirmAttempts = *cfg.Execution.ConfirmAttempts
	}
	if cfg.Execution.ApprovalMultiple != nil {
		settings.ApprovalMultiple = *cfg.Execution.ApprovalMultiple
	}

	durations := []struct {
		dst   *time.Duration
		value string
		label string
	}{
		{&settings.Timeout, cfg.Timeout, "timeout"},
		{&settings.MaxStale, cfg.Cache.MaxStale, "cache.max_stale"},
		{&settings.ConfirmInterval, cfg.Execution.ConfirmInterval, "execution.confirm_interval"},
		{&settings.ExecutionTimeout, cfg.Execution.Timeout, "execution.timeout"},
	}
	for _, d := range durations {
		if err := setDuration(d.dst, d.value); err != nil {
			return fmt.Errorf("config %s: %w", d.label, err)
		}
	}

	mergeOverrides(&settings.NetworkOverrides, registry.Overrides{
		RPCURL:           cfg.Network.RPCURL,
		APIBaseURL:       cfg.Network.APIBaseURL,
		SocketURL:        cfg.Network.SocketURL,
		ExplorerURL:      cfg.Network.ExplorerURL,
		TokenContract:    cfg.Network.TokenContract,
		SwapHookContract: cfg.Network.SwapHookContract,
	})
	return nil
}

// envBinding applies one AWAKEN_* variable. Strict bindings fail Load on a
// malformed value; the rest ignore it and keep the previous layer.
type envBinding struct {
	key    string
	strict bool
	apply  func(settings *Settings, v string) error
}

var envBindings = []envBinding{
	{key: "AWAKEN_OUTPUT", apply: func(s *Settings, v string) error { s.OutputMode = strings.ToLower(v); return nil }},
	{key: "AWAKEN_STRICT", apply: func(s *Settings, v string) error { return setBool(&s.Strict, v) }},
	{key: "AWAKEN_TIMEOUT", apply: func(s *Settings, v string) error { return setDuration(&s.Timeout, v) }},
	{key: "AWAKEN_RETRIES", apply: func(s *Settings, v string) error { return setInt(&s.Retries, v) }},
	{key: "AWAKEN_MAX_STALE", apply: func(s *Settings, v string) error { return setDuration(&s.MaxStale, v) }},
	{key: "AWAKEN_NO_STALE", apply: func(s *Settings, v string) error { return setBool(&s.NoStale, v) }},
	{key: "AWAKEN_NO_CACHE", apply: func(s *Settings, v string) error {
		var off bool
		if err := setBool(&off, v); err != nil {
			return err
		}
		s.CacheEnabled = !off
		return nil
	}},
	{key: "AWAKEN_CACHE_PATH", apply: func(s *Settings, v string) error { s.CachePath = v; return nil }},
	{key: "AWAKEN_CACHE_LOCK_PATH", apply: func(s *Settings, v string) error { s.CacheLockPath = v; return nil }},
	{key: "AWAKEN_ACTIONS_PATH", apply: func(s *Settings, v string) error { s.ActionStorePath = v; return nil }},
	{key: "AWAKEN_ACTIONS_LOCK_PATH", apply: func(s *Settings, v string) error { s.ActionLockPath = v; return nil }},
	{key: "AWAKEN_LOG_LEVEL", apply: func(s *Settings, v string) error { s.LogLevel = v; return nil }},
	{key: "AWAKEN_NETWORK", apply: func(s *Settings, v string) error { s.Network = v; return nil }},
	{key: "AWAKEN_DEFAULT_SLIPPAGE", apply: func(s *Settings, v string) error { s.DefaultSlippage = v; return nil }},
	{key: "AWAKEN_CONFIRM_ATTEMPTS", strict: true, apply: func(s *Settings, v string) error { return setInt(&s.ConfirmAttempts, v) }},
	{key: "AWAKEN_CONFIRM_INTERVAL", strict: true, apply: func(s *Settings, v string) error { return setDuration(&s.ConfirmInterval, v) }},
	{key: "AWAKEN_EXECUTION_TIMEOUT", strict: true, apply: func(s *Settings, v string) error { return setDuration(&s.ExecutionTimeout, v) }},
	{key: "AWAKEN_APPROVAL_MULTIPLE", strict: true, apply: func(s *Settings, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		s.ApprovalMultiple = n
		return nil
	}},
}

func applyEnv(settings *Settings) error {
	for _, b := range envBindings {
		v := strings.TrimSpace(os.Getenv(b.key))
		if v == "" {
			continue
		}
		if err := b.apply(settings, v); err != nil && b.strict {
			return fmt.Errorf("parse %s: %w", b.key, err)
		}
	}
	mergeOverrides(&settings.NetworkOverrides, registry.Overrides{
		RPCURL:           os.Getenv("AWAKEN_RPC_URL"),
		APIBaseURL:       os.Getenv("AWAKEN_API_BASE_URL"),
		SocketURL:        os.Getenv("AWAKEN_SOCKET_URL"),
		ExplorerURL:      os.Getenv("AWAKEN_EXPLORER_URL"),
		TokenContract:    os.Getenv("AWAKEN_TOKEN_CONTRACT"),
		SwapHookContract: os.Getenv("AWAKEN_SWAP_HOOK_CONTRACT"),
	})
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func applyFlags(flags GlobalFlags, settings *Settings) error {
	if flags.JSON && flags.Plain {
		return fmt.Errorf("cannot use --json and --plain together")
	}
	if flags.JSON {
		settings.OutputMode = "json"
	}
	if flags.Plain {
		settings.OutputMode = "plain"
	}
	if strings.TrimSpace(flags.Select) != "" {
		settings.SelectFields = splitList(flags.Select)
	}
	settings.ResultsOnly = flags.ResultsOnly

	if strings.TrimSpace(flags.EnableCommands) != "" {
		settings.EnableCommands = splitList(flags.EnableCommands)
	}

	if flags.Strict {
		settings.Strict = true
	}
	if err := setDuration(&settings.Timeout, flags.Timeout); err != nil {
		return fmt.Errorf("parse --timeout: %w", err)
	}
	if flags.Retries >= 0 {
		settings.Retries = flags.Retries
	}
	if err := setDuration(&settings.MaxStale, flags.MaxStale); err != nil {
		return fmt.Errorf("parse --max-stale: %w", err)
	}
	if flags.NoStale {
		settings.NoStale = true
	}
	if flags.NoCache {
		settings.CacheEnabled = false
	}
	setString(&settings.Network, strings.TrimSpace(flags.Network))
	setString(&settings.LogLevel, strings.TrimSpace(flags.LogLevel))

	if settings.OutputMode != "json" && settings.OutputMode != "plain" {
		return fmt.Errorf("output must be json or plain")
	}

	return nil
}

func mergeOverrides(dst *registry.Overrides, src registry.Overrides) {
	setString(&dst.RPCURL, src.RPCURL)
	setString(&dst.APIBaseURL, src.APIBaseURL)
	setString(&dst.SocketURL, src.SocketURL)
	setString(&dst.ExplorerURL, src.ExplorerURL)
	setString(&dst.TokenContract, src.TokenContract)
	setString(&dst.SwapHookContract, src.SwapHookContract)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if f := strings.TrimSpace(part); f != "" {
			out = append(out, f)
		}
	}
	return out
}
