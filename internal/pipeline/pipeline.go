// Package pipeline runs one order through the table, harvest, render and
// publish stages.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/privacy-cli/internal/harvest"
	"github.com/sells-group/privacy-cli/internal/publish"
	"github.com/sells-group/privacy-cli/internal/record"
	"github.com/sells-group/privacy-cli/internal/render"
)

// Default artifact names written to the work dir.
const (
	DefaultHTMLFile = "privacy_policy.html"
	DefaultTextFile = "privacy_policy.txt"
)

// RecordSource loads the decoded order table.
type RecordSource interface {
	Load(ctx context.Context) (*record.Node, error)
}

// Harvester visits candidate links for a contact email and company name.
type Harvester interface {
	Harvest(ctx context.Context, candidates []record.CandidateLink) (harvest.Result, error)
}

// Options configures a Pipeline.
type Options struct {
	Fields       record.Fields
	TemplatePath string
	WorkDir      string
	HTMLFile     string
	TextFile     string
}

// PhaseResult records how one stage of a run went.
type PhaseResult struct {
	Name       string `json:"name"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Result is everything a run produced. It is returned even when a late
// stage fails so local artifacts can still be reported.
type Result struct {
	RunID       string                 `json:"run_id"`
	OrderID     string                 `json:"order_id"`
	AppName     string                 `json:"app_name"`
	CompanyName string                 `json:"company_name"`
	Email       string                 `json:"email"`
	Found       bool                   `json:"found"`
	Candidates  []record.CandidateLink `json:"candidates,omitempty"`
	Harvest     harvest.Result         `json:"harvest"`
	Page        render.Page            `json:"-"`
	Warnings    []render.Drift         `json:"warnings,omitempty"`
	HTMLPath    string                 `json:"html_path,omitempty"`
	TextPath    string                 `json:"text_path,omitempty"`
	Published   *publish.Published     `json:"published,omitempty"`
	Phases      []PhaseResult          `json:"phases"`
}

// Pipeline wires the stages together. Publisher may be nil to stop after
// the local artifacts are written.
type Pipeline struct {
	source    RecordSource
	harvester Harvester
	renderer  *render.Renderer
	publisher publish.Publisher
	opts      Options
}

// New creates a Pipeline.
func New(source RecordSource, h Harvester, r *render.Renderer, p publish.Publisher, opts Options) *Pipeline {
	if opts.Fields == (record.Fields{}) {
		opts.Fields = record.DefaultFields
	}
	if opts.WorkDir == "" {
		opts.WorkDir = "."
	}
	if opts.HTMLFile == "" {
		opts.HTMLFile = DefaultHTMLFile
	}
	if opts.TextFile == "" {
		opts.TextFile = DefaultTextFile
	}
	return &Pipeline{source: source, harvester: h, renderer: r, publisher: p, opts: opts}
}

// Run processes orderID. Missing matches and empty harvests are logged and
// the run continues with empty fields; a publish failure returns the result
// together with the error.
func (p *Pipeline) Run(ctx context.Context, orderID string) (*Result, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, ErrNoID
	}

	result := &Result{RunID: uuid.NewString(), OrderID: orderID}
	log := zap.L().With(zap.String("run_id", result.RunID), zap.String("order_id", orderID))
	log.Info("pipeline: starting run")

	trackPhase := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		pr := PhaseResult{Name: name, DurationMs: time.Since(start).Milliseconds()}
		if err != nil {
			pr.Error = err.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", pr.DurationMs),
				zap.Error(err),
			)
		} else {
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", pr.DurationMs),
			)
		}
		result.Phases = append(result.Phases, pr)
		return err
	}

	// The template is checked first so a missing file fails before any
	// network traffic.
	var tmpl string
	if err := trackPhase("template", func() error {
		var err error
		tmpl, err = render.LoadTemplate(p.opts.TemplatePath)
		return err
	}); err != nil {
		return result, err
	}

	var tree *record.Node
	if err := trackPhase("table", func() error {
		var err error
		tree, err = p.source.Load(ctx)
		if err != nil {
			return eris.Wrap(err, "pipeline: load records")
		}
		if tree.Empty() {
			return ErrNoData
		}
		return nil
	}); err != nil {
		return result, err
	}

	_ = trackPhase("match", func() error {
		match := record.FindByOrderID(tree, orderID, p.opts.Fields)
		result.Found = match.Found
		if match.Found {
			// The slug encodes the row's spelling so every casing of the
			// input publishes to the same page.
			result.OrderID = match.OrderID
		}
		result.AppName = match.AppName
		result.Candidates = match.Candidates
		if !match.Found {
			log.Warn("pipeline: order not found in table, continuing with empty fields")
		} else if match.AppName == "" {
			log.Warn("pipeline: matched row has no app name")
		}
		return nil
	})

	if err := trackPhase("harvest", func() error {
		if len(result.Candidates) == 0 || p.harvester == nil {
			log.Warn("pipeline: no candidate links to harvest")
			return nil
		}
		hr, err := p.harvester.Harvest(ctx, result.Candidates)
		if err != nil {
			return eris.Wrap(err, "pipeline: harvest")
		}
		result.Harvest = hr
		result.CompanyName = hr.CompanyName
		result.Email = hr.Email
		if hr.Email == "" {
			log.Warn("pipeline: no contact email found")
		}
		return nil
	}); err != nil {
		return result, err
	}

	if err := trackPhase("render", func() error {
		result.Page = p.renderer.Render(tmpl, render.Fields{
			App:     result.AppName,
			Company: result.CompanyName,
			Email:   result.Email,
		})
		result.Warnings = result.Page.Warnings
		return p.writeArtifacts(result)
	}); err != nil {
		return result, err
	}

	if p.publisher == nil {
		log.Info("pipeline: publishing disabled", zap.String("html_path", result.HTMLPath))
		return result, nil
	}

	err := trackPhase("publish", func() error {
		title := publishTitle(result.AppName)
		pub, err := p.publisher.Publish(ctx, publish.Page{
			Title:         title,
			OrderID:       result.OrderID,
			Content:       result.Page.HTML,
			ContentIsHTML: true,
			ContentFile:   result.HTMLPath,
			CommitMessage: "Publish privacy page: " + title,
		})
		result.Published = pub
		return err
	})
	if err != nil {
		return result, err
	}

	log.Info("pipeline: run complete",
		zap.String("url", result.Published.URL),
		zap.Bool("pushed", result.Published.Pushed),
	)
	return result, nil
}

func (p *Pipeline) writeArtifacts(result *Result) error {
	if err := os.MkdirAll(p.opts.WorkDir, 0o755); err != nil {
		return eris.Wrapf(err, "pipeline: create work dir %s", p.opts.WorkDir)
	}

	htmlPath := filepath.Join(p.opts.WorkDir, p.opts.HTMLFile)
	if err := os.WriteFile(htmlPath, []byte(result.Page.HTML), 0o644); err != nil {
		return eris.Wrapf(err, "pipeline: write %s", htmlPath)
	}
	result.HTMLPath = htmlPath

	textPath := filepath.Join(p.opts.WorkDir, p.opts.TextFile)
	if err := os.WriteFile(textPath, []byte(result.Page.Text), 0o644); err != nil {
		return eris.Wrapf(err, "pipeline: write %s", textPath)
	}
	result.TextPath = textPath
	return nil
}

func publishTitle(appName string) string {
	if t := strings.TrimSpace(appName); t != "" {
		return t
	}
	return publish.DefaultSlug
}
