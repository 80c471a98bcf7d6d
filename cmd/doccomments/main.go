package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/doccomments/internal/adapter/driven/github"
	"github.com/ericfisherdev/doccomments/internal/config"
	"github.com/ericfisherdev/doccomments/internal/version"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand builds the command tree. Each invocation gets its own viper
// instance so flags, env, and config file never leak between runs.
func newRootCommand() *cobra.Command {
	v := config.NewViper()
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "doccomments",
		Short: "Embed GitHub issue comment threads into static documentation pages",
		Long: `doccomments serves and renders the comment thread of a GitHub issue as HTML
fragments that can be embedded below a documentation page.

Each page of the site maps to one issue of the configured repository. Comments
are loaded a page at a time; a "load more" control fetches the next page when
GitHub reports one.

Example:
  doccomments serve --repo kidscancode/godot_recipes
  doccomments render --repo kidscancode/godot_recipes --issue 12 --all`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return config.ReadFile(v, cfgFile)
		},
	}
	rootCmd.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "YAML config file")
	flags.String("repo", "", "GitHub repository in owner/name form")
	flags.String("github-api-url", "", "GitHub REST API base URL")
	flags.String("github-web-url", "", "GitHub web base URL used for profile and issue links")
	flags.Int("per-page", 0, "comments per page (0 uses the GitHub default)")
	flags.String("body-policy", "", "comment body handling: trust or sanitize")
	flags.String("public-url", "", "absolute base URL of the serving instance, used in load-more links")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text or json")

	bindFlags(v, flags.Lookup, map[string]string{
		"repo":           "repo",
		"github.api_url": "github-api-url",
		"github.web_url": "github-web-url",
		"per_page":       "per-page",
		"body_policy":    "body-policy",
		"public_url":     "public-url",
		"log_level":      "log-level",
		"log_format":     "log-format",
	})

	rootCmd.AddCommand(newServeCommand(v))
	rootCmd.AddCommand(newRenderCommand(v))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// loadConfig validates the merged configuration and builds the logger that
// every command uses, writing log output to w.
func loadConfig(v *viper.Viper, w io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}

	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(handler)

	// The GitHub adapter logs rate limit status through the default logger.
	slog.SetDefault(logger)

	return cfg, logger, nil
}

// newCommentSource creates the GitHub-backed comment source for cfg.
func newCommentSource(cfg *config.Config) (*githubadapter.Client, error) {
	return githubadapter.NewClient(cfg.Repo, githubadapter.Options{
		Token:     cfg.GitHub.Token,
		APIURL:    cfg.GitHub.APIURL,
		WebURL:    cfg.GitHub.WebURL,
		PerPage:   cfg.PerPage,
		Timeout:   cfg.RequestTimeout,
		UserAgent: version.UserAgent(),
	})
}
