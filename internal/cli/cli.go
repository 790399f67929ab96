// Package cli implements the plan-estudio command line interface: flag
// parsing, wiring of the planner against the Gemini provider, and writing
// the resulting plan to disk.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/j840425/plan-estudio/core/state"
	"github.com/j840425/plan-estudio/internal/config"
	"github.com/j840425/plan-estudio/internal/utils"
	"github.com/j840425/plan-estudio/planner"
	"github.com/j840425/plan-estudio/providers/ai/gemini"
	"github.com/j840425/plan-estudio/providers/search"
)

// planRunner is the slice of the planner the command needs.
type planRunner interface {
	Run(ctx context.Context, topic string, level state.Level) (*state.State, error)
}

// buildRunner wires the production planner. Tests substitute their own.
var buildRunner = func(cfg config.Config, logger *slog.Logger) (planRunner, error) {
	if os.Getenv("GEMINI_API_KEY") == "" {
		return nil, errors.New("GEMINI_API_KEY is not set; export it or put it in a .env file")
	}

	opts := []planner.Option{planner.WithLogger(logger)}
	// Tavily gives better snippets for the fallback search, but only when a
	// key is configured; the keyless DuckDuckGo default applies otherwise.
	if key := os.Getenv("TAVILY_API_KEY"); key != "" {
		opts = append(opts, planner.WithSearcher(search.NewTavily(key)))
	}
	return planner.New(gemini.New(), cfg, opts...), nil
}

// NewRootCommand builds the plan-estudio root command.
func NewRootCommand() *cobra.Command {
	var (
		levelFlag  string
		configPath string
		outputDir  string
		extraCopy  string
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "plan-estudio <tema>",
		Short: "Genera un plan de estudio personalizado con libros recomendados",
		Long: `plan-estudio genera un plan de estudio por etapas para un tema y un
nivel dados, investiga libros recomendados para cada etapa con búsqueda web
y valida la coherencia del resultado antes de escribirlo a disco.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := strings.TrimSpace(strings.Join(args, " "))
			if topic == "" {
				return errors.New("el tema no puede estar vacío")
			}
			level := state.Level(strings.ToLower(strings.TrimSpace(levelFlag)))
			if !level.Valid() {
				return fmt.Errorf("nivel desconocido %q: use beginner, intermediate o advanced", levelFlag)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}

			logLevel := slog.LevelInfo
			if quiet {
				logLevel = slog.LevelError
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(),
				&slog.HandlerOptions{Level: logLevel})).
				With("run_id", uuid.NewString())

			runner, err := buildRunner(cfg, logger)
			if err != nil {
				return err
			}

			st, err := runner.Run(cmd.Context(), topic, level)
			if err != nil {
				return err
			}
			if st.FinalOutput == "" {
				return errors.New("la ejecución no produjo ningún plan")
			}

			path := filepath.Join(cfg.OutputDir, outputFilename(topic, st.Limited, time.Now()))
			if err := os.WriteFile(path, []byte(st.FinalOutput), 0o644); err != nil {
				return fmt.Errorf("escribiendo el plan: %w", err)
			}
			if extraCopy != "" {
				if err := os.WriteFile(extraCopy, []byte(st.FinalOutput), 0o644); err != nil {
					return fmt.Errorf("escribiendo la copia adicional: %w", err)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), st.FinalOutput)
			fmt.Fprintf(cmd.ErrOrStderr(), "Plan guardado en %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&levelFlag, "level", "l", "beginner",
		"nivel del estudiante: beginner, intermediate o advanced")
	cmd.Flags().StringVarP(&configPath, "config", "c", "",
		"ruta a un fichero de configuración TOML")
	cmd.Flags().StringVar(&outputDir, "output-dir", "",
		"directorio de salida (sustituye al de la configuración)")
	cmd.Flags().StringVarP(&extraCopy, "output", "o", "",
		"ruta de una copia adicional del plan")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false,
		"silencia el registro de progreso")

	return cmd
}

// Execute runs the root command and returns the process exit code. A limited
// plan still exits zero: output was produced.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}

// outputFilename derives the plan file name from the topic and a timestamp.
// Limited plans are marked in the name so they stand out in a directory
// listing.
func outputFilename(topic string, limited bool, now time.Time) string {
	name := fmt.Sprintf("plan_estudio_%s_%s", utils.SafeFilename(topic), now.Format("20060102_150405"))
	if limited {
		name += "_LIMITED"
	}
	return name + ".txt"
}
