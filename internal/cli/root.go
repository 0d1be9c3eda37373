// Package cli implements the imageedit command using Cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mhpenta/imageedit"
	"github.com/mhpenta/imageedit/internal/config"
	"github.com/mhpenta/imageedit/provider/gemini"
	"github.com/mhpenta/imageedit/storage/filestore"
	"github.com/mhpenta/imageedit/storage/s3store"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// ErrAPIKeyRequired is returned when no API key is configured and none can
// be prompted for.
var ErrAPIKeyRequired = errors.New("API key required: set API_KEY or api_key in the config file")

type options struct {
	cfgFile   string
	model     string
	timeout   time.Duration
	outputDir string
	verbose   bool
}

// NewRootCmd returns the imageedit command.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "imageedit [image]",
		Short: "Edit an image with a text instruction",
		Long: `imageedit loads one image, sends it to an image model together with an
instruction, and shows the edited result.

Examples:
  imageedit photo.png
  echo -e "open photo.png\nedit add sunglasses\nwait\nsave" | imageedit`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ~/.imageedit/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.model, "model", "", "model name (e.g. nano-banana-1)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "per-edit timeout (0 = none)")
	cmd.PersistentFlags().StringVar(&opts.outputDir, "output-dir", "", "directory for saved images")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "enable debug logging")

	return cmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func run(ctx context.Context, opts *options, args []string, in io.Reader, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := newLogger(errOut, opts.verbose)
	interactive := isTerminal(in)

	if cfg.APIKey == "" {
		cfg.APIKey, err = promptAPIKey(in, out)
		if err != nil {
			return err
		}
	}

	gen, err := gemini.New(ctx, &imageedit.ProviderConfig{
		Provider: imageedit.ProviderGeminiAPI,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
	})
	if err != nil {
		return err
	}

	editorOpts := []imageedit.EditorOption{
		imageedit.WithLogger(logger),
		imageedit.WithModel(imageedit.Model(cfg.Model)),
		imageedit.WithTimeout(lo.Ternary(opts.timeout > 0, opts.timeout, cfg.Timeout())),
	}
	if rl := cfg.RateLimit; rl.TokensPerMinute > 0 || rl.RequestsPerMinute > 0 {
		editorOpts = append(editorOpts, imageedit.WithRateLimits(imageedit.RateLimits{
			TokensPerMinute:   rl.TokensPerMinute,
			RequestsPerMinute: rl.RequestsPerMinute,
		}))
	}
	editor := imageedit.NewEditor(gen, editorOpts...)
	defer editor.Close()

	logger.Debug("editor ready", "model", string(editor.Model()))

	storage, err := newStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}

	session := imageedit.NewSession(editor).SetLogger(logger)
	repl := NewREPL(session, storage, out)
	repl.interactive = interactive

	if interactive {
		fmt.Fprintln(out, `Type "help" for commands.`)
	}
	if len(args) == 1 {
		repl.Open(ctx, args[0])
	}

	return repl.Run(ctx, in)
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *options) (*config.Config, error) {
	path := opts.cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if opts.model != "" {
		cfg.Model = opts.model
	}
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}
	return cfg, nil
}

// newStorage returns S3 storage when a bucket is configured, else local
// files under the output directory.
func newStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (imageedit.Storage, error) {
	if cfg.S3Bucket != "" {
		store, err := s3store.NewFromEnv(ctx, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return nil, err
		}
		return store.SetLogger(logger), nil
	}

	store, err := filestore.New(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// promptAPIKey reads an API key from in without echo. Only a terminal can be
// prompted; other input yields ErrAPIKeyRequired.
func promptAPIKey(in io.Reader, out io.Writer) (string, error) {
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return "", ErrAPIKeyRequired
	}

	fmt.Fprint(out, "Enter API key: ")
	keyBytes, err := term.ReadPassword(int(f.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read key: %w", err)
	}
	fmt.Fprintln(out) // Newline after hidden input

	apiKey := strings.TrimSpace(string(keyBytes))
	if apiKey == "" {
		return "", ErrAPIKeyRequired
	}
	return apiKey, nil
}
