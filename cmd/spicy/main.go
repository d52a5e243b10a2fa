// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the spicy CLI, a traceability
// checker for V-model specifications written as mdbook markdown.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/spicy/internal/element"
	"github.com/pdiddy/spicy/internal/extract"
	"github.com/pdiddy/spicy/internal/schema"
	"github.com/pdiddy/spicy/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd checks the documentation when run without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "spicy [path]",
	Short: "Check V-model traceability across markdown specifications",
	Long: `spicy reads mdbook markdown documents, extracts the specification
elements they declare (stakeholder needs, requirements, architecture,
tests, use-cases) and checks that every element is complete and linked
to the elements the V-model expects.

Without a subcommand spicy runs check on the given path (default ".").
The project prefix comes from spicy.yaml in the documentation root,
SPICY_PREFIX, or --project-prefix.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}
		verbose, _ := cmd.Flags().GetBool("verbose")
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		return nil
	},
	RunE: runCheck,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: <path>/spicy.yaml, ./spicy.yaml or ~/.config/spicy/spicy.yaml)")
	rootCmd.PersistentFlags().StringP("project-prefix", "p", "", "project prefix every element name starts with")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log extraction and validation details")

	addCheckFlags(rootCmd)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("spicy")
		viper.SetConfigType("yaml")
	}

	viper.SetDefault("include", extract.DefaultInclude)
	viper.SetDefault("index.dir", ".spicy")
	viper.SetDefault("index.max_results", 20)
	viper.SetDefault("watch.debounce", "500ms")
	viper.SetDefault("watch.cache_size", 256)

	viper.SetEnvPrefix("SPICY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindPFlag("prefix", rootCmd.PersistentFlags().Lookup("project-prefix"))
}

// workspace is what every command needs: the resolved configuration and
// the documents to read.
type workspace struct {
	root  string
	cfg   types.Config
	files []string
}

// loadWorkspace reads the configuration for the documentation at path
// (a directory or a single file) and discovers its documents.
func loadWorkspace(args []string) (*workspace, error) {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	root := path
	if !info.IsDir() {
		root = filepath.Dir(path)
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}
	if cfg.Prefix == "" {
		return nil, errors.New("unable to scan without a known prefix")
	}

	ws := &workspace{root: root, cfg: cfg}
	if info.IsDir() {
		ws.files, err = extract.Discover(root, cfg.Include, cfg.Exclude)
		if err != nil {
			return nil, err
		}
	} else {
		ws.files = []string{path}
	}
	slog.Debug("found files", "count", len(ws.files), "root", root)
	return ws, nil
}

func loadConfig(root string) (types.Config, error) {
	if viper.ConfigFileUsed() == "" {
		viper.AddConfigPath(root)
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "spicy"))
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// ignoredLinks converts the configured per-variant link labels. Viper
// lowercases map keys, so variants are matched without case.
func ignoredLinks(cfg types.Config) element.Ignored {
	if len(cfg.IgnoredLinks) == 0 {
		return nil
	}
	out := element.Ignored{}
	for variant, labels := range cfg.IgnoredLinks {
		v, ok := lookupVariant(variant)
		if !ok {
			slog.Warn("ignored_links names an unknown variant", "variant", variant)
			continue
		}
		out[v] = append(out[v], labels...)
	}
	return out
}

func lookupVariant(name string) (schema.Variant, bool) {
	for _, v := range schema.Variants() {
		if strings.EqualFold(string(v), name) {
			return v, true
		}
	}
	return "", false
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, ErrIssuesFound) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
