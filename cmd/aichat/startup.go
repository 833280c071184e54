package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ChamsBouzaiene/aichat/internal/chat"
	"github.com/ChamsBouzaiene/aichat/internal/config"
	"github.com/ChamsBouzaiene/aichat/internal/providers"
	"github.com/ChamsBouzaiene/aichat/internal/session"
)

// startup is the merged result of flags, config file and defaults.
type startup struct {
	provider     providers.Provider
	models       map[providers.Provider]string
	historyDir   string
	contextLimit int
}

// resolveStart applies flags over the config file over defaults. Only an
// explicit -provider that the catalog does not know is an error.
func resolveStart(registry *providers.Registry, opts options, cfg *config.Config, mgr *config.Manager) (startup, error) {
	s := startup{
		provider:     providers.OpenAI,
		models:       make(map[providers.Provider]string),
		historyDir:   mgr.DefaultHistoryDir(),
		contextLimit: chat.DefaultContextLimit,
	}

	if p, err := registry.Parse(cfg.Provider); err == nil {
		s.provider = p
	}
	for name, model := range cfg.Models {
		if p, err := registry.Parse(name); err == nil {
			s.models[p] = model
		}
	}
	if cfg.HistoryDir != "" {
		s.historyDir = cfg.HistoryDir
	}
	if cfg.ContextLimit > 0 {
		s.contextLimit = cfg.ContextLimit
	}

	if opts.provider != "" {
		p, err := registry.Parse(opts.provider)
		if err != nil {
			return startup{}, err
		}
		s.provider = p
	}
	if opts.historyDir != "" {
		s.historyDir = opts.historyDir
	}
	if opts.contextLimit > 0 {
		s.contextLimit = opts.contextLimit
	}
	return s, nil
}

// updatedConfig returns cfg with the selection written back.
func updatedConfig(cfg *config.Config, active providers.Provider, models map[providers.Provider]string) *config.Config {
	out := *cfg
	out.Provider = string(active)
	out.Models = make(map[string]string, len(models))
	for p, m := range models {
		out.Models[string(p)] = m
	}
	return &out
}

// printSessions writes the history index, newest first.
func printSessions(w io.Writer, metas []session.Meta) error {
	if len(metas) == 0 {
		_, err := fmt.Fprintln(w, "No saved chats.")
		return err
	}

	idColor := color.New(color.FgCyan)
	dim := color.New(color.Faint)
	for _, m := range metas {
		when := "unknown time"
		if !m.Timestamp.IsZero() {
			when = m.Timestamp.Format("2006-01-02 15:04")
		}
		if _, err := fmt.Fprintf(w, "%s  %s  %s (%s)\n",
			idColor.Sprint(m.ID), dim.Sprint(when), m.Title, m.Provider); err != nil {
			return err
		}
	}
	return nil
}
