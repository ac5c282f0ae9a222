package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the agent.
// Passwords are never part of the config: they are prompted per operation with PromptForPassword.
type Config struct {
	Port            string        `envconfig:"PORT" default:"8080"`
	StoreDriver     string        `envconfig:"STORE_DRIVER" default:"badger"`
	StorePath       string        `envconfig:"STORE_PATH" default:"./data"`
	SolanaRPCURL    string        `envconfig:"SOLANA_RPC_URL" default:"https://api.devnet.solana.com"`
	BackendAPIURL   string        `envconfig:"BACKEND_API_URL" default:"http://localhost:3000"`
	PriceSource     string        `envconfig:"PRICE_SOURCE" default:"coingecko"`
	ApprovalTimeout time.Duration `envconfig:"APPROVAL_TIMEOUT" default:"5m"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5m"`
	ConfirmTimeout  time.Duration `envconfig:"CONFIRM_TIMEOUT" default:"30s"`
	RelayRate       float64       `envconfig:"RELAY_RATE_PER_SECOND" default:"20"`
	RelayBurst      int           `envconfig:"RELAY_BURST" default:"50"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables into the global instance.
func Init() error {
	c, err := Load()
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// Load reads the environment into a fresh Config without touching the global one.
func Load() (*Config, error) {
	c := &Config{}
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	switch c.StoreDriver {
	case "badger", "sqlite", "memory":
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	switch c.PriceSource {
	case "coingecko", "backend":
	default:
		return nil, fmt.Errorf("unsupported PRICE_SOURCE %q", c.PriceSource)
	}
	if c.ApprovalTimeout <= 0 || c.RequestTimeout <= 0 || c.ConfirmTimeout <= 0 {
		return nil, errors.New("timeouts must be positive")
	}
	return c, nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetSolanaRPCURL returns Solana RPC URL from configuration
func GetSolanaRPCURL() string {
	return Get().SolanaRPCURL
}

// PromptForPassword reads a password from the terminal without echoing it.
// The caller owns the returned slice and must clear() it after use.
func PromptForPassword(prompt string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New("stdin is not a terminal: run interactively to enter password")
	}
	fmt.Fprint(os.Stderr, prompt)
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return nil, errors.New("password cannot be empty")
	}
	return raw, nil
}

// PromptForNewPassword asks twice and fails when the entries differ.
func PromptForNewPassword() ([]byte, error) {
	first, err := PromptForPassword("New wallet password: ")
	if err != nil {
		return nil, err
	}
	second, err := PromptForPassword("Repeat password: ")
	if err != nil {
		clear(first)
		return nil, err
	}
	defer clear(second)

	if string(first) != string(second) {
		clear(first)
		return nil, errors.New("passwords do not match")
	}
	return first, nil
}
