package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nestcare/carebot/internal/agent"
	"github.com/nestcare/carebot/internal/bus"
	"github.com/nestcare/carebot/internal/channels"
	"github.com/nestcare/carebot/internal/config"
	"github.com/nestcare/carebot/internal/providers"
	"github.com/nestcare/carebot/internal/schedule"
	"github.com/nestcare/carebot/internal/session"
	"github.com/nestcare/carebot/internal/tools"
)

// app is the assembled runtime: config, bus, tool table, agent loop, and
// the channel and schedule services that feed it.
type app struct {
	cfg      *config.Config
	bus      *bus.MessageBus
	registry *tools.Registry
	loop     *agent.Loop
	schedule *schedule.Service
	channels *channels.Manager
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func buildApp(cfg *config.Config) (*app, error) {
	msgBus := bus.NewMessageBus(0)

	provider, err := providers.FromConfig(cfg, cfg.Agent.Model)
	if err != nil {
		return nil, err
	}

	sessions := session.NewManager(filepath.Join(cfg.Agent.Workspace, "sessions"))
	sched := schedule.NewService(filepath.Join(cfg.Agent.Workspace, "schedule.json"), msgBus)

	reg := tools.NewRegistry()
	tools.RegisterAll(reg, tools.RegisterOptions{
		PerplexityAPIKey: cfg.Providers.Perplexity.APIKey,
		Bus:              msgBus,
		Scheduler:        sched,
	})
	applyToolFilters(reg, cfg.Tools)

	systemPrompt, err := loadSystemPrompt(cfg.Agent.SystemPromptFile)
	if err != nil {
		return nil, err
	}

	loop := agent.NewLoop(agent.LoopConfig{
		Bus:           msgBus,
		Provider:      provider,
		Sessions:      sessions,
		Tools:         reg,
		Model:         cfg.Agent.Model,
		MaxTokens:     cfg.Agent.MaxTokens,
		Temperature:   cfg.Agent.Temperature,
		MaxIterations: cfg.Agent.MaxToolIterations,
		SystemPrompt:  systemPrompt,
	})

	chans, err := channels.FromConfig(cfg, msgBus)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		bus:      msgBus,
		registry: reg,
		loop:     loop,
		schedule: sched,
		channels: chans,
	}, nil
}

// applyToolFilters applies the config enable/disable lists to the registry.
// A non-empty enabled list acts as an allow list; disabled entries always win.
func applyToolFilters(reg *tools.Registry, cfg config.ToolsConfig) {
	if len(cfg.Enabled) > 0 {
		allowed := make(map[string]bool, len(cfg.Enabled))
		for _, name := range cfg.Enabled {
			allowed[name] = true
		}
		for _, name := range reg.Names() {
			if !allowed[name] {
				reg.Remove(name)
			}
		}
	}
	for _, name := range cfg.Disabled {
		reg.Remove(name)
	}
}

// loadSystemPrompt reads the configured prompt file. An empty path keeps
// the agent's built-in prompt.
func loadSystemPrompt(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read system prompt file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}

	if err := a.schedule.LoadFromDisk(); err != nil {
		slog.Warn("could not restore scheduled tasks", "error", err)
	}
	a.schedule.Start()
	defer a.schedule.Stop()

	go a.bus.DispatchOutbound(ctx)

	if err := a.channels.StartAll(ctx); err != nil {
		return err
	}
	defer a.channels.StopAll()

	slog.Info("carebot running",
		"model", cfg.Agent.Model,
		"channels", a.channels.Names(),
		"tools", a.registry.Names())

	if err := a.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runChat(ctx context.Context, message string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}

	reply, err := a.loop.ProcessDirect(ctx, message)
	if err != nil {
		return err
	}
	fmt.Println(reply)
	return nil
}
