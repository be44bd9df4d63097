// Package cli implements the notes2blog command line.
package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"notes2blog/config"
	"notes2blog/generator"
	"notes2blog/imaging"
	"notes2blog/ocr"
	"notes2blog/pipeline"
	"notes2blog/publisher"
)

// App holds what every command shares. Tests replace LoadConfig and the
// builders to keep commands off the network.
type App struct {
	Config  config.Config
	Verbose bool
	Logger  *log.Logger

	LoadConfig       func(envFile string) (config.Config, error)
	BuildLLM         func(cfg config.Config) (generator.LLMClient, error)
	BuildTranscriber func(cfg config.Config, logger *log.Logger) (pipeline.Transcriber, error)
}

// NewApp returns an App wired to the real environment.
func NewApp() *App {
	return &App{
		Logger:     log.Default(),
		LoadConfig: config.Load,
		BuildLLM:   buildLLM,
		BuildTranscriber: func(cfg config.Config, logger *log.Logger) (pipeline.Transcriber, error) {
			return ocr.New(cfg, logger)
		},
	}
}

func (a *App) logger() *log.Logger {
	if a.Logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return a.Logger
}

// stack is one fully wired pipeline.
type stack struct {
	store        *publisher.Store
	orchestrator *pipeline.Orchestrator
	engine       string
}

// buildStack wires the pipeline. localPaths lets image references point
// anywhere on disk; the server leaves it off so clients stay inside the
// upload directory.
func (a *App) buildStack(localPaths bool) (*stack, error) {
	cfg := a.Config
	store, err := publisher.New(cfg.UploadDir, cfg.OutputDir, a.Verbose, a.logger())
	if err != nil {
		return nil, err
	}
	llm, err := a.BuildLLM(cfg)
	if err != nil {
		return nil, err
	}
	agent, err := generator.NewAgent(llm)
	if err != nil {
		return nil, err
	}
	transcriber, err := a.BuildTranscriber(cfg, a.logger())
	if err != nil {
		return nil, err
	}
	rules, err := pipeline.LoadComponentRules(cfg.ComponentRulesFile)
	if err != nil {
		return nil, err
	}

	var imgLogger *log.Logger
	if a.Verbose {
		imgLogger = a.logger()
	}
	orch, err := pipeline.New(pipeline.Deps{
		Loader: imaging.Loader{
			UploadDir: cfg.UploadDir,
			MaxSize:   cfg.MaxImageSize,
			Quality:   cfg.ImageQuality,
			Logger:    imgLogger,
			AllowAny:  localPaths,
		},
		Transcriber: transcriber,
		Producers:   agent,
		Store:       store,
		Document:    pipeline.DocumentValidator{RequireTitle: cfg.RequireTitle, RequireSections: cfg.RequireSections},
		Component:   pipeline.ComponentValidator{Rules: rules},
		MaxRetries:  cfg.MaxRetries,
		Logger:      a.logger(),
		Verbose:     a.Verbose,
	})
	if err != nil {
		return nil, err
	}
	return &stack{store: store, orchestrator: orch, engine: ocr.Name(transcriber)}, nil
}

func buildLLM(cfg config.Config) (generator.LLMClient, error) {
	settings := &generator.LLMSettings{
		Provider:    cfg.Provider(),
		Model:       cfg.LLM.TextModel,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}
	switch settings.Provider {
	case "mock":
		return generator.MockLLM{}, nil
	case "openai":
		return generator.NewOpenAILLMFromConfig(settings)
	case "deepseek":
		// DeepSeek exposes an OpenAI compatible API; base_url must point at it or a gateway.
		if settings.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires OPENAI_BASE_URL (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(settings)
	default:
		return nil, fmt.Errorf("llm provider %s not supported", settings.Provider)
	}
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	app := NewApp()
	cmd := NewRootCommand(app)
	if err := cmd.Execute(); err != nil {
		if code, ok := IsExitError(err); ok {
			return code
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
