package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ais-rag/internal/config"
	"ais-rag/internal/history"
	"ais-rag/internal/llm"
	"ais-rag/internal/security"
)

const envVaultPassphrase = "AIS_RAG_VAULT_PASSPHRASE"

// globalFlags are the persistent root flags.
type globalFlags struct {
	configPath string
	envFile    string
	provider   string
	apiKey     string
	baseURL    string
	model      string
	format     string
	verbose    bool
}

// app holds what every command needs after startup.
type app struct {
	flags    *globalFlags
	loader   *config.Loader
	cfg      *config.Config
	keyStore *security.KeyStore
	logger   *slog.Logger
}

func newApp(flags *globalFlags) (*app, error) {
	level := slog.LevelWarn
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.LoadDotEnv(flags.envFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", flags.envFile, err)
	}

	loader, err := config.NewLoader(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("config loader: %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	a := &app{flags: flags, loader: loader, cfg: cfg, logger: logger}

	vaultDir := cfg.Security.VaultDir
	if vaultDir == "" {
		vaultDir = filepath.Dir(loader.FilePath())
	}
	ks, err := security.NewKeyStore(vaultDir, os.Getenv(envVaultPassphrase))
	if err != nil {
		logger.Warn("key store unavailable; secrets stay in config file", "err", err)
	}
	a.keyStore = ks

	a.resolveSecrets()
	a.applyFlags()
	return a, nil
}

// resolveSecrets swaps the keyring placeholder for the stored API key.
func (a *app) resolveSecrets() {
	if a.cfg.LLM.APIKey != security.Placeholder {
		return
	}
	if a.keyStore == nil {
		a.cfg.LLM.APIKey = ""
		return
	}
	key, err := a.keyStore.Resolve(a.cfg.LLM.APIKey, security.SecretLLMKey)
	if err != nil {
		a.logger.Warn("failed to read LLM key from key store", "err", err)
		key = ""
	}
	a.cfg.LLM.APIKey = key
}

// applyFlags layers command-line values over the config file.
func (a *app) applyFlags() {
	if a.flags.provider != "" {
		a.cfg.LLM.Provider = a.flags.provider
	}
	if a.flags.apiKey != "" {
		a.cfg.LLM.APIKey = a.flags.apiKey
	}
	if a.flags.baseURL != "" {
		a.cfg.LLM.BaseURL = a.flags.baseURL
	}
	if a.flags.model != "" {
		a.cfg.LLM.Model = a.flags.model
	}
}

func (a *app) settings() llm.Settings {
	return a.cfg.Settings(os.Getenv)
}

func (a *app) newClient() (*llm.Client, error) {
	return llm.New(a.settings(),
		llm.WithLogger(a.logger),
		llm.WithApologyFormat(a.cfg.Chat.ApologyFormat))
}

func (a *app) openHistory() (*history.SQLiteStore, error) {
	path := a.cfg.Chat.HistoryPath
	if path == "" {
		path = filepath.Join(filepath.Dir(a.loader.FilePath()), "history.db")
	}
	return history.OpenSQLite(path)
}

// saveAPIKey stores key in the key store and writes the placeholder to the
// config file. Without a key store the key is written in plain text.
func (a *app) saveAPIKey(key string) error {
	onDisk, err := a.loadRaw()
	if err != nil {
		return err
	}

	onDisk.LLM.APIKey = key
	if a.keyStore != nil {
		if err := a.keyStore.Set(security.SecretLLMKey, key); err != nil {
			a.logger.Warn("failed to store LLM key in key store; saving to config file", "err", err)
		} else {
			onDisk.LLM.APIKey = security.Placeholder
		}
	}
	return a.loader.Save(onDisk)
}

func (a *app) deleteAPIKey() error {
	if a.keyStore != nil {
		if err := a.keyStore.Delete(security.SecretLLMKey); err != nil {
			return err
		}
	}
	onDisk, err := a.loadRaw()
	if err != nil {
		return err
	}
	onDisk.LLM.APIKey = ""
	return a.loader.Save(onDisk)
}

// loadRaw re-reads the config file without flag or secret resolution.
func (a *app) loadRaw() (*config.Config, error) {
	loader, err := config.NewLoader(a.loader.FilePath())
	if err != nil {
		return nil, err
	}
	return loader.Load()
}
