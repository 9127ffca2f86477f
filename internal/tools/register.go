package tools

import (
	"log/slog"

	"github.com/nestcare/carebot/internal/bus"
)

// RegisterOptions carries the credentials and collaborators the built-in
// tools need. Zero-valued fields disable the tools that depend on them.
type RegisterOptions struct {
	// PerplexityAPIKey enables search_care_jobs. When empty the tool is
	// soft-disabled: one warning at registration time, no registry entry,
	// and callers cannot invoke it at all.
	PerplexityAPIKey string

	Bus       *bus.MessageBus
	Scheduler ScheduleManager
}

// RegisterAll installs the built-in tools into reg. Registering is
// idempotent: the registry replaces entries by name.
func RegisterAll(reg *Registry, opts RegisterOptions) {
	if opts.PerplexityAPIKey == "" {
		slog.Warn("perplexity api key not configured, tool disabled", "tool", jobSearchName)
	} else {
		reg.Register(NewJobSearchTool(opts.PerplexityAPIKey))
	}

	reg.Register(NewFetchPostingTool())

	if opts.Bus != nil {
		reg.Register(NewSendMessageTool(opts.Bus))
	}
	if opts.Scheduler != nil {
		reg.Register(NewManageSchedulesTool(opts.Scheduler))
	}
}
