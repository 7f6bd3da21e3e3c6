package main

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/justestif/smart-mood-player/internal/api"
	"github.com/justestif/smart-mood-player/internal/auth"
	"github.com/justestif/smart-mood-player/internal/config"
	"github.com/justestif/smart-mood-player/internal/logging"
	"github.com/justestif/smart-mood-player/internal/mood"
	"github.com/justestif/smart-mood-player/internal/speech"
	"github.com/justestif/smart-mood-player/internal/tui"
	webfs "github.com/justestif/smart-mood-player/web"
)

type rootFlags struct {
	configPath string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "smart-mood-player",
		Short: "Chat with a music assistant that picks songs for your mood",
		Long: `Smart Mood Player classifies what you type (or say) into an intent and a
mood, replies, and searches Spotify for songs, artists or playlists.

Environment:
  SPOTIFY_ID / SPOTIFY_SECRET            Spotify client credentials
  SPOTIPY_CLIENT_ID / SPOTIPY_CLIENT_SECRET  accepted as well
  DATABASE_URL                           store conversations in PostgreSQL
  REDIS_ADDR                             share the catalog cache through Redis
  SMP_<SECTION>_<KEY>                    override any config key`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (YAML)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newChatCommand(flags),
		newServeCommand(flags),
		newAskCommand(flags),
		newTrainCommand(flags),
		newEvaluateCommand(flags),
		newLogoutCommand(),
	)
	return root
}

func (f *rootFlags) load() (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	return cfg, nil
}

func newChatCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the terminal chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			// The screen belongs to the UI, so logs go to a file.
			path := cfg.Log.File
			if path == "" {
				if path, err = logging.DefaultFile(); err != nil {
					return err
				}
			}
			logFile, err := logging.OpenFile(path)
			if err != nil {
				return err
			}
			defer logFile.Close()

			log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: "json", Output: logFile})
			if err != nil {
				return err
			}

			a, err := newApp(ctx, cfg, log, true)
			if err != nil {
				return err
			}
			defer a.Close()

			recognizer := speech.Recognizer(speech.Unavailable{})
			if cfg.Speech.Command != "" {
				cmdRec, err := speech.NewCommand(cfg.Speech.Command, cfg.Speech.Args,
					speech.WithTimeout(cfg.Speech.Timeout), speech.WithLogger(log))
				if err != nil {
					log.Warn().Err(err).Msg("voice input disabled")
				} else {
					recognizer = cmdRec
				}
			}

			return tui.Run(ctx, a.engine, tui.WithRecognizer(recognizer), tui.WithLogger(log))
		},
	}
}

func newServeCommand(flags *rootFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and web chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
			if err != nil {
				return err
			}

			// Without credentials the server still answers, with 500s on
			// catalog routes.
			a, err := newApp(ctx, cfg, log, false)
			if err != nil {
				return err
			}
			defer a.Close()

			templates, err := fs.Sub(webfs.TemplatesFS, "templates")
			if err != nil {
				return fmt.Errorf("creating templates filesystem: %w", err)
			}
			static, err := fs.Sub(webfs.StaticFS, "static")
			if err != nil {
				return fmt.Errorf("creating static filesystem: %w", err)
			}

			opts := []api.Option{api.WithLogger(log)}
			if a.pruner != nil {
				opts = append(opts, api.WithPruner(a.pruner))
			}
			server, err := api.NewServer(a.engine, api.ServerConfig{
				Addr:        cfg.Server.Addr,
				SessionTTL:  cfg.Server.SessionTTL,
				TemplatesFS: templates,
				StaticFS:    static,
			}, opts...)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			return server.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func newAskCommand(flags *rootFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Run one chat turn and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
			if err != nil {
				return err
			}

			a, err := newApp(ctx, cfg, log, true)
			if err != nil {
				return err
			}
			defer a.Close()

			reply, turnErr := a.engine.Turn(ctx, uuid.NewString(), strings.Join(args, " "))
			if turnErr != nil && reply.Summary == "" {
				return turnErr
			}
			if turnErr != nil {
				log.Warn().Err(turnErr).Msg("catalog search failed")
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(reply)
			}

			fmt.Fprintln(out, reply.Message)
			if reply.Summary != "" {
				fmt.Fprintln(out, reply.Summary)
			}
			for i, t := range reply.Tracks {
				fmt.Fprintf(out, "%2d. %s - %s  %s\n", i+1, t.Name, t.Artist, t.PlaybackURL())
			}
			for i, p := range reply.Playlists {
				fmt.Fprintf(out, "%2d. %s (by %s)  %s\n", i+1, p.Name, p.Owner, p.URL)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the reply as JSON")
	return cmd
}

func newTrainCommand(flags *rootFlags) *cobra.Command {
	var (
		dataPath string
		outPath  string
		epochs   int
		holdout  float64
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the mood classifier from a labelled CSV",
		Long: `Train the mood classifier. With --holdout, a share of every mood is set
aside first and the classifier trained on the rest is scored on it; the
saved model is then trained on every sample.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = cfg.Model.Path
			}

			samples, err := readSamples(dataPath)
			if err != nil {
				return err
			}

			trainCfg := mood.DefaultTrainConfig()
			if epochs > 0 {
				trainCfg.Epochs = epochs
			}

			out := cmd.OutOrStdout()
			if rest, test := mood.Split(samples, holdout); len(test) > 0 {
				report, err := holdoutReport(rest, test, trainCfg, cfg.Model.MinConfidence)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Held-out evaluation (%d trained, %d held out):\n", len(rest), len(test))
				if err := report.Write(out); err != nil {
					return err
				}
			}

			model, err := mood.Train(samples, trainCfg)
			if err != nil {
				return fmt.Errorf("training: %w", err)
			}

			if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
				return fmt.Errorf("creating model directory: %w", err)
			}
			if err := model.Save(outPath); err != nil {
				return err
			}

			fmt.Fprintf(out, "Trained on %d samples, %d moods, %d words. Saved to %s\n",
				len(samples), len(model.Classes), len(model.Vocabulary), outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "data/emotions.csv", "CSV with emotion and text columns")
	cmd.Flags().StringVar(&outPath, "out", "", "where to write the model (default from config)")
	cmd.Flags().IntVar(&epochs, "epochs", 0, "training epochs (default 200)")
	cmd.Flags().Float64Var(&holdout, "holdout", 0.2, "share of each mood held out for evaluation (0 disables)")
	return cmd
}

func newEvaluateCommand(flags *rootFlags) *cobra.Command {
	var (
		dataPath  string
		modelPath string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Report the mood classifier's accuracy on a labelled CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if modelPath == "" {
				modelPath = cfg.Model.Path
			}

			classifier, err := mood.Load(modelPath, mood.WithMinConfidence(cfg.Model.MinConfidence))
			if err != nil {
				return err
			}
			samples, err := readSamples(dataPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Model %s on %s:\n", modelPath, dataPath)
			return mood.Evaluate(classifier, samples).Write(out)
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "data/emotions.csv", "CSV with emotion and text columns")
	cmd.Flags().StringVar(&modelPath, "model", "", "model to evaluate (default from config)")
	return cmd
}

func readSamples(path string) ([]mood.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening training data: %w", err)
	}
	defer f.Close()

	samples, err := mood.ReadSamples(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return samples, nil
}

// holdoutReport trains on rest and scores the result on test.
func holdoutReport(rest, test []mood.Sample, cfg mood.TrainConfig, minConfidence float64) (mood.Report, error) {
	model, err := mood.Train(rest, cfg)
	if err != nil {
		return mood.Report{}, fmt.Errorf("training on the held-in samples: %w", err)
	}
	classifier, err := mood.NewClassifier(model, mood.WithMinConfidence(minConfidence))
	if err != nil {
		return mood.Report{}, err
	}
	return mood.Evaluate(classifier, test), nil
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the cached Spotify access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tokens, err := auth.DefaultTokenCache()
			if err != nil {
				return err
			}
			if err := auth.Logout(tokens); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed cached token %s\n", tokens.Path())
			return nil
		},
	}
}
