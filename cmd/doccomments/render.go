package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	webhandler "github.com/ericfisherdev/doccomments/internal/adapter/driving/web"
	"github.com/ericfisherdev/doccomments/internal/application"
)

// manifest lists the issue threads to render for a static site build.
type manifest struct {
	All   bool            `yaml:"all"`
	Pages []manifestEntry `yaml:"pages"`
}

// manifestEntry maps one documentation page to its issue. Output paths are
// resolved relative to the manifest file.
type manifestEntry struct {
	Issue  int    `yaml:"issue"`
	Page   int    `yaml:"page"`
	All    *bool  `yaml:"all"`
	Output string `yaml:"output"`
}

type renderOptions struct {
	issue    int
	page     int
	all      bool
	manifest string
	output   string
}

func newRenderCommand(v *viper.Viper) *cobra.Command {
	var opts renderOptions

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render comment threads to static HTML",
		Long: `Render the comment thread of one issue, or every issue listed in a YAML
manifest, to HTML fragments for inclusion in a static site.

Without --all only the requested page is rendered and the load-more control
points at a running "doccomments serve" (see --public-url).

Manifest format:
  all: true
  pages:
    - issue: 12
      output: recipes/2d/comments.html
    - issue: 14
      output: recipes/3d/comments.html
      all: false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd.Context(), v, cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.issue, "issue", 0, "issue number to render")
	cmd.Flags().IntVar(&opts.page, "page", 1, "first comment page to render")
	cmd.Flags().BoolVar(&opts.all, "all", false, "follow next links until the last page")
	cmd.Flags().StringVar(&opts.manifest, "manifest", "", "YAML manifest of issues to render")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file for --issue (default: stdout)")

	return cmd
}

func runRender(ctx context.Context, v *viper.Viper, cmd *cobra.Command, opts renderOptions) error {
	switch {
	case opts.issue == 0 && opts.manifest == "":
		return errors.New("one of --issue or --manifest is required")
	case opts.issue != 0 && opts.manifest != "":
		return errors.New("--issue and --manifest are mutually exclusive")
	case opts.issue < 0:
		return fmt.Errorf("invalid issue number %d", opts.issue)
	case opts.page < 1:
		return fmt.Errorf("invalid page number %d", opts.page)
	}

	cfg, logger, err := loadConfig(v, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	source, err := newCommentSource(cfg)
	if err != nil {
		return err
	}
	policy, _ := cfg.Policy()
	h := webhandler.NewHandler(
		application.NewThreadService(source, logger),
		application.NewThreadRegistry(cfg.ThreadTTL, logger),
		webhandler.NewBodyRenderer(policy),
		cfg.PublicURL,
		logger,
	)

	if opts.manifest == "" {
		return renderOne(ctx, h, opts.issue, opts.page, opts.all, opts.output, cmd.OutOrStdout(), logger)
	}

	m, err := loadManifest(opts.manifest)
	if err != nil {
		return err
	}
	base := filepath.Dir(opts.manifest)

	for _, e := range m.Pages {
		all := m.All
		if e.All != nil {
			all = *e.All
		}
		out := e.Output
		if !filepath.IsAbs(out) {
			out = filepath.Join(base, out)
		}

		if err := renderOne(ctx, h, e.Issue, e.Page, all, out, nil, logger); err != nil {
			return fmt.Errorf("rendering issue %d: %w", e.Issue, err)
		}
		logger.Info("rendered thread", "issue", e.Issue, "output", out, "all", all)
	}

	return nil
}

// renderOne renders a single thread to path, or to stdout when path is empty.
func renderOne(ctx context.Context, h *webhandler.Handler, issue, page int, all bool, path string, stdout io.Writer, logger *slog.Logger) error {
	component, err := h.RenderThread(ctx, issue, page, all)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		return fmt.Errorf("rendering HTML: %w", err)
	}
	buf.WriteByte('\n')

	if path == "" {
		_, err = stdout.Write(buf.Bytes())
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	logger.Debug("wrote thread", "path", path, "bytes", buf.Len())
	return nil
}

// loadManifest reads and validates a render manifest.
func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}

	if len(m.Pages) == 0 {
		return nil, fmt.Errorf("manifest %s lists no pages", path)
	}
	for i := range m.Pages {
		e := &m.Pages[i]
		if e.Issue < 1 {
			return nil, fmt.Errorf("manifest entry %d: invalid issue number %d", i, e.Issue)
		}
		if e.Output == "" {
			return nil, fmt.Errorf("manifest entry %d (issue %d): output is required", i, e.Issue)
		}
		if e.Page == 0 {
			e.Page = 1
		}
		if e.Page < 1 {
			return nil, fmt.Errorf("manifest entry %d (issue %d): invalid page %d", i, e.Issue, e.Page)
		}
	}

	return &m, nil
}
