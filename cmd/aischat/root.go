package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ais-rag/internal/chat"
	"ais-rag/internal/llm"
	"ais-rag/internal/security"
)

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "aischat",
		Short: "Chat with an OpenAI-compatible model",
		Long: `Send prompts to a chat-completion endpoint and print the reply.

Credentials are taken from flags or the config file first, then from
DATABRICKS_TOKEN/DATABRICKS_ENDPOINT, then from OPENAI_API_KEY.

Example:
  aischat ask "capital of France?"
  aischat chat --chat-id work
  aischat key set sk-...`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.ais-rag/config.json)")
	pf.StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before resolving credentials")
	pf.StringVar(&flags.provider, "provider", "", "provider: openai, databricks, local or anthropic")
	pf.StringVar(&flags.apiKey, "api-key", "", "API key")
	pf.StringVar(&flags.baseURL, "base-url", "", "API base URL")
	pf.StringVar(&flags.model, "model", "", "model name")
	pf.StringVar(&flags.format, "format", formatText, "reply output: text, markdown or html")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newAskCmd(flags),
		newChatCmd(flags),
		newConfigCmd(flags),
		newKeyCmd(flags),
		newHistoryCmd(flags),
	)
	return root
}

func newAskCmd(flags *globalFlags) *cobra.Command {
	var (
		maxTokens   int
		temperature float64
		system      string
	)

	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Send a single prompt and print the reply",
		Long:  "Send a single prompt. With no arguments the prompt is read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}

			prompt := strings.Join(args, " ")
			if prompt == "" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				prompt = strings.TrimSpace(string(data))
			}
			if prompt == "" {
				return errors.New("empty prompt")
			}

			client, err := a.newClient()
			if err != nil {
				return err
			}
			out, err := newRenderer(flags.format, 0)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("max-tokens") {
				maxTokens = a.cfg.LLM.MaxTokens
			}
			if !cmd.Flags().Changed("temperature") {
				temperature = a.cfg.LLM.Temperature
			}
			if system == "" {
				system = a.cfg.Chat.SystemPrompt
			}

			var msgs []llm.Message
			if system != "" {
				msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: system})
			}
			msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: prompt})

			reply := client.Generate(cmd.Context(), msgs,
				llm.WithMaxTokens(maxTokens),
				llm.WithTemperature(temperature))
			fmt.Fprintln(cmd.OutOrStdout(), out.Render(reply))
			return nil
		},
	}

	cmd.Flags().IntVar(&maxTokens, "max-tokens", llm.DefaultMaxTokens, "reply token cap")
	cmd.Flags().Float64Var(&temperature, "temperature", llm.DefaultTemperature, "sampling temperature")
	cmd.Flags().StringVar(&system, "system", "", "system prompt")
	return cmd
}

func newChatCmd(flags *globalFlags) *cobra.Command {
	var (
		chatID    string
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Long: `Start an interactive conversation. Turns are stored in SQLite so a
chat can be resumed with the same --chat-id.

Type /reset to forget the conversation and /exit to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			client, err := a.newClient()
			if err != nil {
				return err
			}
			out, err := newRenderer(flags.format, 0)
			if err != nil {
				return err
			}

			sessCfg := chat.Config{
				ChatID:       chatID,
				SystemPrompt: a.cfg.Chat.SystemPrompt,
				HistoryLimit: a.cfg.Chat.HistoryLimit,
				MaxTokens:    a.cfg.LLM.MaxTokens,
				Temperature:  a.cfg.LLM.Temperature,
			}
			redactor := security.NewRedactor(a.cfg.Security.PIIFiltering)

			var sess *chat.Session
			if noHistory {
				sess, err = chat.NewSession(client, nil, redactor, sessCfg, a.logger)
			} else {
				store, openErr := a.openHistory()
				if openErr != nil {
					return fmt.Errorf("open history: %w", openErr)
				}
				defer store.Close()
				sess, err = chat.NewSession(client, store, redactor, sessCfg, a.logger)
			}
			if err != nil {
				return err
			}

			return runREPL(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), sess, out)
		},
	}

	cmd.Flags().StringVar(&chatID, "chat-id", "default", "conversation to resume")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "keep the transcript in memory only")
	return cmd
}

// runREPL reads one prompt per line until EOF or /exit.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, sess *chat.Session, r *renderer) error {
	scanner := bufioScanner(in)
	fmt.Fprint(out, "> ")

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
			fmt.Fprint(out, "> ")
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			if err := sess.Reset(ctx); err != nil {
				fmt.Fprintf(out, "reset failed: %v\n", err)
			} else {
				fmt.Fprintln(out, "(conversation cleared)")
			}
			fmt.Fprint(out, "> ")
			continue
		}

		reply := sess.Send(ctx, text)
		fmt.Fprintf(out, "\n%s\n\n> ", r.Render(reply.Text))
	}
	return scanner.Err()
}

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the resolved provider settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			s := a.settings()
			printSettings(cmd.OutOrStdout(), a.loader.FilePath(), s)
			return nil
		},
	})
	return cmd
}

func printSettings(w io.Writer, path string, s llm.Settings) {
	baseURL := s.BaseURL
	if baseURL == "" {
		baseURL = "(provider default)"
	}
	fmt.Fprintf(w, "config:      %s\n", path)
	fmt.Fprintf(w, "provider:    %s\n", s.Provider)
	fmt.Fprintf(w, "model:       %s\n", s.Model)
	fmt.Fprintf(w, "base_url:    %s\n", baseURL)
	fmt.Fprintf(w, "api_key:     %s\n", security.MaskKey(s.APIKey))
	fmt.Fprintf(w, "source:      %s\n", s.Source)
	fmt.Fprintf(w, "timeout:     %s\n", s.Timeout.Round(time.Second))
	fmt.Fprintf(w, "max_retries: %d\n", s.MaxRetries)
}

func newKeyCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the stored API key",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set [key]",
		Short: "Store the API key in the OS keychain or encrypted vault",
		Long: `Store the API key in the OS keychain. When the keychain is unavailable
and AIS_RAG_VAULT_PASSPHRASE is set, an encrypted vault file is used instead.
The config file keeps only a placeholder.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			if err := a.saveAPIKey(args[0]); err != nil {
				return fmt.Errorf("save key: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s\n", security.MaskKey(args[0]))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			if err := a.deleteAPIKey(); err != nil {
				return fmt.Errorf("delete key: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "key removed")
			return nil
		},
	})
	return cmd
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var chatID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Manage stored conversations",
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the stored turns of a conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(cmd.Context(), chatID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %q\n", chatID)
			return nil
		},
	}
	clearCmd.Flags().StringVar(&chatID, "chat-id", "default", "conversation to clear")
	cmd.AddCommand(clearCmd)
	return cmd
}

func bufioScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return s
}
