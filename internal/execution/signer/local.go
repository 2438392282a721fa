package signer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ggonzalez94/awaken-cli/internal/aelf"
)

const (
	EnvPrivateKey           = "AELF_PRIVATE_KEY"
	EnvPrivateKeyFile       = "AELF_PRIVATE_KEY_FILE"
	EnvKeystorePath         = "AELF_KEYSTORE_PATH"
	EnvKeystorePassword     = "AELF_KEYSTORE_PASSWORD"
	EnvKeystorePasswordFile = "AELF_KEYSTORE_PASSWORD_FILE"

	KeySourceAuto     = "auto"
	KeySourceEnv      = "env"
	KeySourceFile     = "file"
	KeySourceKeystore = "keystore"

	defaultPrivateKeyRelativePath = "awaken/key.hex"
	defaultPrivateKeyHintPath     = "~/.config/" + defaultPrivateKeyRelativePath
)

// LocalSigner signs aelf transaction digests with an in-memory secp256k1 key.
type LocalSigner struct {
	privateKey *ecdsa.PrivateKey
	address    string
}

func (s *LocalSigner) Address() string {
	return s.address
}

// Sign returns the 65-byte recoverable secp256k1 signature of digest.
func (s *LocalSigner) Sign(digest []byte) ([]byte, error) {
	if s == nil || s.privateKey == nil {
		return nil, errors.New("local signer is not initialized")
	}
	return crypto.Sign(digest, s.privateKey)
}

// LocalSignerConfig holds every candidate key location. The first populated
// location in loader order wins: hex, then key file, then keystore.
type LocalSignerConfig struct {
	PrivateKeyHex        string
	PrivateKeyFile       string
	KeystorePath         string
	KeystorePassword     string
	KeystorePasswordFile string
}

func NewLocalSignerFromEnv(source string) (*LocalSigner, error) {
	return NewLocalSignerFromInputs(source, "")
}

// NewLocalSignerFromInputs resolves the key from the environment, restricted
// to one key source unless source is auto. A non-empty override is always
// used as a hex key.
func NewLocalSignerFromInputs(source, privateKeyOverride string) (*LocalSigner, error) {
	if override := strings.TrimSpace(privateKeyOverride); override != "" {
		if _, err := normalizeSource(source); err != nil {
			return nil, err
		}
		return NewLocalSigner(LocalSignerConfig{PrivateKeyHex: override})
	}
	cfg, err := configFromEnv(source)
	if err != nil {
		return nil, err
	}
	return NewLocalSigner(cfg)
}

func NewLocalSigner(cfg LocalSignerConfig) (*LocalSigner, error) {
	for _, load := range []func(LocalSignerConfig) (*ecdsa.PrivateKey, bool, error){
		loadHexKey,
		loadKeyFile,
		loadKeystore,
	} {
		pk, ok, err := load(cfg)
		if err != nil {
			return nil, err
		}
		if ok {
			return &LocalSigner{privateKey: pk, address: aelf.AddressFromPublicKey(&pk.PublicKey)}, nil
		}
	}
	return nil, fmt.Errorf("missing signing key: pass --private-key, set %s, %s or %s, or write a hex key to %s", EnvPrivateKey, EnvPrivateKeyFile, EnvKeystorePath, defaultPrivateKeyHintPath)
}

func normalizeSource(source string) (string, error) {
	source = strings.ToLower(strings.TrimSpace(source))
	switch source {
	case "":
		return KeySourceAuto, nil
	case KeySourceAuto, KeySourceEnv, KeySourceFile, KeySourceKeystore:
		return source, nil
	default:
		return "", fmt.Errorf("unsupported key source %q (expected %s|%s|%s|%s)", source, KeySourceAuto, KeySourceEnv, KeySourceFile, KeySourceKeystore)
	}
}

func configFromEnv(source string) (LocalSignerConfig, error) {
	source, err := normalizeSource(source)
	if err != nil {
		return LocalSignerConfig{}, err
	}
	env := func(key string) string { return strings.TrimSpace(os.Getenv(key)) }

	var cfg LocalSignerConfig
	if source == KeySourceAuto || source == KeySourceEnv {
		cfg.PrivateKeyHex = env(EnvPrivateKey)
	}
	if source == KeySourceAuto || source == KeySourceFile {
		cfg.PrivateKeyFile = env(EnvPrivateKeyFile)
		if cfg.PrivateKeyFile == "" {
			cfg.PrivateKeyFile = discoverDefaultPrivateKeyFile()
		}
	}
	if source == KeySourceAuto || source == KeySourceKeystore {
		cfg.KeystorePath = env(EnvKeystorePath)
		cfg.KeystorePassword = env(EnvKeystorePassword)
		cfg.KeystorePasswordFile = env(EnvKeystorePasswordFile)
	}
	return cfg, nil
}

func loadHexKey(cfg LocalSignerConfig) (*ecdsa.PrivateKey, bool, error) {
	if strings.TrimSpace(cfg.PrivateKeyHex) == "" {
		return nil, false, nil
	}
	pk, err := parseHexKey(cfg.PrivateKeyHex)
	return pk, err == nil, err
}

func loadKeyFile(cfg LocalSignerConfig) (*ecdsa.PrivateKey, bool, error) {
	if strings.TrimSpace(cfg.PrivateKeyFile) == "" {
		return nil, false, nil
	}
	buf, err := os.ReadFile(cfg.PrivateKeyFile)
	if err != nil {
		return nil, false, fmt.Errorf("read private key file: %w", err)
	}
	pk, err := parseHexKey(string(buf))
	return pk, err == nil, err
}

func loadKeystore(cfg LocalSignerConfig) (*ecdsa.PrivateKey, bool, error) {
	if strings.TrimSpace(cfg.KeystorePath) == "" {
		return nil, false, nil
	}
	password := strings.TrimSpace(cfg.KeystorePassword)
	if password == "" && strings.TrimSpace(cfg.KeystorePasswordFile) != "" {
		buf, err := os.ReadFile(cfg.KeystorePasswordFile)
		if err != nil {
			return nil, false, fmt.Errorf("read keystore password file: %w", err)
		}
		password = strings.TrimSpace(string(buf))
	}
	if password == "" {
		return nil, false, errors.New("keystore password is required")
	}
	buf, err := os.ReadFile(cfg.KeystorePath)
	if err != nil {
		return nil, false, fmt.Errorf("read keystore file: %w", err)
	}
	key, err := keystore.DecryptKey(buf, password)
	if err != nil {
		return nil, false, fmt.Errorf("decrypt keystore: %w", err)
	}
	return key.PrivateKey, true, nil
}

func parseHexKey(raw string) (*ecdsa.PrivateKey, error) {
	clean := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if clean == "" {
		return nil, errors.New("empty private key")
	}
	pk, err := crypto.HexToECDSA(clean)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return pk, nil
}

func defaultPrivateKeyPath() string {
	base := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME"))
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil || strings.TrimSpace(home) == "" {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, defaultPrivateKeyRelativePath)
}

func discoverDefaultPrivateKeyFile() string {
	path := defaultPrivateKeyPath()
	if path == "" {
		return ""
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return ""
	}
	return path
}
