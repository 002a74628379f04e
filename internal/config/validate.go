package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings a command mode depends on. Modes: "run",
// "render", "publish", "serve". "run" covers the local stages only; a run
// that publishes validates "publish" as well. A missing records source is
// left to the table client, which reports it as no data.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "run":
		if c.Fields.OrderID == "" {
			problems = append(problems, "fields.order_id is required")
		}
		if c.Fields.AppName == "" {
			problems = append(problems, "fields.app_name is required")
		}
		if c.Fields.Links == "" {
			problems = append(problems, "fields.links is required")
		}
		if c.Harvest.EmailDomain == "" {
			problems = append(problems, "harvest.email_domain is required")
		}
		if c.Template.Path == "" {
			problems = append(problems, "template.path is required")
		}
	case "render":
		if c.Template.Path == "" {
			problems = append(problems, "template.path is required")
		}
	case "publish":
		problems = append(problems, c.validatePages()...)
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
		if c.Pages.RepoDir == "" {
			problems = append(problems, "pages.repo_dir is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validatePages() []string {
	var problems []string
	switch c.Pages.Publisher {
	case "git":
		if c.Pages.RepoDir == "" {
			problems = append(problems, "pages.repo_dir is required")
		}
	case "command":
		if c.Pages.Command == "" {
			problems = append(problems, "pages.command is required for the command publisher")
		}
	default:
		problems = append(problems, "pages.publisher must be \"git\" or \"command\"")
	}
	if c.Pages.PushRetries < 0 {
		problems = append(problems, "pages.push_retries must be >= 0")
	}
	return problems
}
