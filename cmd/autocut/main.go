package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kikiluvv/autocut/internal/config"
	"github.com/kikiluvv/autocut/internal/logging"
	"github.com/kikiluvv/autocut/internal/pipeline"
	"github.com/kikiluvv/autocut/internal/watch"
)

var (
	cfgFile string
	verbose bool
	logJSON bool

	buildOpts pipeline.BuildOptions
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("autocut failed")
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "autocut",
	Short:         "autocut - automatic first cut for talking-head footage",
	Long:          "Builds an FCPXML project from a folder of raw clips: silence and wordless parts removed, J-Cuts applied, optional filler track.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(verbose, logJSON)

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml, then ~/.autocut/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log JSON lines instead of console output")

	for _, cmd := range []*cobra.Command{buildCmd, watchCmd} {
		f := cmd.Flags()
		f.BoolVarP(&buildOpts.SkipPreprocess, "skip-preprocess", "p", false, "use the input videos as they are")
		f.BoolVarP(&buildOpts.AlreadyPreprocessed, "already-preprocessed", "a", false, "reuse the preprocessed folder from an earlier run")
		f.BoolVarP(&buildOpts.SkipJCut, "skip-jcut", "j", false, "do not apply J-Cuts")
		f.BoolVarP(&buildOpts.JustRemoveSilence, "just-remove-silence", "s", false, "remove silence only, keep wordless clips")
		f.BoolVar(&buildOpts.Subtitles, "subtitles", false, "generate subtitles from the silence-cut preview")
		f.BoolVar(&buildOpts.Filler, "filler", false, "add a filler track under the footage")
		f.StringVarP(&buildOpts.Output, "output", "o", "", "project file (default: <folder>/my_project.fcpxml)")
		f.BoolVar(&buildOpts.NoCache, "no-cache", false, "probe every file again")
	}

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(subtitlesCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(listCmd)
}

func newPipeline(cmd *cobra.Command) (*pipeline.Pipeline, error) {
	return pipeline.New(log.Logger, config.FromContext(cmd.Context()))
}

var buildCmd = &cobra.Command{
	Use:   "build [folder]",
	Short: "Build a project from a folder of videos",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		defer pipe.Close()

		project, err := pipe.Build(cmd.Context(), args[0], buildOpts)
		if err != nil {
			return err
		}

		logProject(project)
		return nil
	},
}

var subtitlesCmd = &cobra.Command{
	Use:   "subtitles [video]",
	Short: "Generate subtitles for a rendered video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pipe, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		defer pipe.Close()

		out, err := pipe.Subtitles(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		log.Info().Str("subtitles", out).Msg("subtitles written")
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [project file]",
	Short: "Summarize an fcpxml project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := pipeline.Inspect(args[0])
		if err != nil {
			return err
		}

		logProject(project)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [folder]",
	Short: "Rebuild the project whenever the videos in a folder change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		pipe, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		defer pipe.Close()

		return watch.Run(cmd.Context(), args[0], cfg.Watch.Debounce, log.Logger, func(ctx context.Context) error {
			project, err := pipe.Build(ctx, args[0], buildOpts)
			if err != nil {
				return err
			}
			logProject(project)
			return nil
		})
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(config.FromContext(cmd.Context()))
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultPath()
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}

		if err := config.Default().Save(path); err != nil {
			return err
		}

		log.Info().Str("path", path).Msg("config written")
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:       "list [overlays]",
	Short:     "List available resources",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"overlays"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		reg, err := pipeline.LoadFillers(log.Logger, cfg.Overlays)
		if err != nil {
			return err
		}

		for _, name := range reg.List() {
			path, _ := reg.Get(name)
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, path)
		}
		return nil
	},
}

func logProject(project *pipeline.Project) {
	ev := log.Info().
		Str("project", project.Name).
		Str("output", project.OutputPath).
		Str("duration", project.Duration.String()).
		Int("assets", project.Assets).
		Int("clips", project.Clips).
		Int("lanes", project.Lanes)
	if project.Filler != "" {
		ev = ev.Str("filler", project.Filler)
	}
	if project.Subtitles != "" {
		ev = ev.Str("subtitles", project.Subtitles)
	}
	ev.Msg("project ready")
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
