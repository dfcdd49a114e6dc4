package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"metanoia/config"
	"metanoia/model"
	"metanoia/provider"
	"metanoia/session"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

func main() {
	level := slog.LevelWarn
	if config.CheckDebug() {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	registry := model.NewBuiltinRegistry()
	resolve := newResolver(cfg)

	sess := session.New(registry, resolve, session.Settings{
		ModelID:       cfg.DefaultModel,
		Temperature:   cfg.Temperature,
		MaxTokens:     cfg.MaxTokens,
		SystemPrompt:  cfg.SystemPrompt,
		EnableAgentic: cfg.EnableAgentic,
	}, logger)
	defer sess.Close()

	// Transcription is optional; without a Groq key the command reports
	// why it is unavailable.
	var transcriber provider.Transcriber
	if tr, err := provider.NewGroqTranscriber(cfg.GroqBaseURL, cfg.GroqAPIKey); err == nil {
		transcriber = tr
	}

	fmt.Printf("metanoia %s — %s\n", Version, sess.Profile().DisplayName)
	fmt.Println("Type /help for commands, /quit to exit.")

	if err := repl(sess, registry, transcriber); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newResolver builds provider adapters lazily and caches them per type,
// so switching between models of the same provider reuses one client.
func newResolver(cfg *config.Config) session.ProviderResolver {
	adapters := make(map[provider.Type]model.Provider)

	return func(profile model.Profile) (model.Provider, error) {
		ptype := provider.Type(profile.Provider)
		if p, ok := adapters[ptype]; ok {
			return p, nil
		}

		pcfg := provider.Config{Type: ptype}
		switch ptype {
		case provider.TypeGroq:
			pcfg.BaseURL = cfg.GroqBaseURL
			pcfg.APIKey = cfg.GroqAPIKey
		case provider.TypeAnthropic:
			pcfg.BaseURL = cfg.AnthropicBaseURL
			pcfg.APIKey = cfg.AnthropicAPIKey
		case provider.TypeOllama:
			pcfg.BaseURL = cfg.OllamaHost
		}

		p, err := provider.New(pcfg)
		if err != nil {
			return nil, err
		}
		adapters[ptype] = p
		return p, nil
	}
}

func repl(sess *session.Session, registry *model.Registry, transcriber provider.Transcriber) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	var pendingImage []byte

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			done, err := runCommand(sess, registry, transcriber, line, &pendingImage)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
			}
			if done {
				return nil
			}
			continue
		}

		turn := session.Turn{Text: line, Image: pendingImage}
		pendingImage = nil

		result, err := sess.ProcessTurn(context.Background(), turn, func(chunk string) error {
			fmt.Print(chunk)
			return nil
		})
		fmt.Println()
		if err != nil {
			printTurnError(err)
			continue
		}
		if result.FromCache {
			fmt.Println("(cached)")
		}
	}
}

func runCommand(sess *session.Session, registry *model.Registry, transcriber provider.Transcriber, line string, pendingImage *[]byte) (done bool, err error) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true, nil

	case "/help":
		fmt.Println(`Commands:
  /model <id>    switch the active model
  /models        list available models
  /image <path>  attach an image to the next message
  /transcribe <path>  transcribe an audio file into the input line
  /tools         show stored tool results
  /clear         clear conversation history and tool results
  /quit          exit`)

	case "/model":
		if arg == "" {
			fmt.Printf("Current model: %s\n", sess.Profile().DisplayName)
			break
		}
		profile := sess.SwitchModel(arg)
		fmt.Printf("Switched to %s\n", profile.DisplayName)

	case "/models":
		active := sess.Profile().ID
		for _, p := range registry.All() {
			marker := " "
			if p.ID == active {
				marker = "*"
			}
			caps := ""
			if p.SupportsVision {
				caps += " vision"
			}
			if p.SupportsAgentic {
				caps += " agentic"
			}
			fmt.Printf("%s %-35s %s (%s)%s\n", marker, p.ID, p.DisplayName, p.Provider, caps)
		}

	case "/image":
		if arg == "" {
			return false, errors.New("usage: /image <path>")
		}
		data, readErr := os.ReadFile(config.ExpandPath(arg))
		if readErr != nil {
			return false, fmt.Errorf("reading image: %w", readErr)
		}
		*pendingImage = data
		fmt.Printf("Image attached (%d bytes); it will be sent with your next message.\n", len(data))

	case "/transcribe":
		if arg == "" {
			return false, errors.New("usage: /transcribe <path>")
		}
		if transcriber == nil {
			return false, errors.New("transcription requires GROQ_API_KEY")
		}
		f, openErr := os.Open(config.ExpandPath(arg))
		if openErr != nil {
			return false, fmt.Errorf("opening audio: %w", openErr)
		}
		defer f.Close()
		text, trErr := transcriber.Transcribe(context.Background(), f, f.Name())
		if trErr != nil {
			return false, trErr
		}
		fmt.Printf("Transcribed: %s\nEdit or resend it as your next message.\n", text)

	case "/tools":
		records := sess.Store.Records()
		if len(records) == 0 {
			fmt.Println("No tool results stored.")
			break
		}
		for _, rec := range records {
			fmt.Printf("[%s] %s %s\n", rec.Timestamp.Format(time.RFC3339), rec.Kind, rec.ID)
		}

	case "/clear":
		sess.Log.Clear()
		sess.Store.Clear()
		fmt.Println("Conversation cleared.")

	default:
		return false, fmt.Errorf("unknown command: %s", cmd)
	}
	return false, nil
}

func printTurnError(err error) {
	var attachErr *model.AttachmentError
	switch {
	case errors.As(err, &attachErr):
		fmt.Fprintf(os.Stderr, "Attachment rejected: %v\n%s\n", attachErr.Err, attachErr.Remediation)
	case errors.Is(err, model.ErrNotConfigured):
		fmt.Fprintf(os.Stderr, "Provider not configured: %v\n", err)
	case errors.Is(err, model.ErrCapacity):
		fmt.Fprintf(os.Stderr, "Request too large, history window reduced for next turn: %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "Turn failed: %v\n", err)
	}
}
