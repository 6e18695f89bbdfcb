package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"callmap/internal/config"
	"callmap/internal/dot"
	"callmap/internal/project"
	"callmap/internal/server"
	"callmap/internal/store"
	"callmap/internal/watch"
)

var version = "dev"

type flags struct {
	configPath  string
	language    string
	output      string
	sqlite      string
	metricsAddr string
}

func main() {
	f := &flags{}

	rootCmd := &cobra.Command{
		Use:   "callmap [path]",
		Short: "Build a call and containment graph of a source tree as Graphviz DOT",
		Long: `callmap walks every source file under path, links call sites to the most
plausible definition by name, and writes the graph in DOT format.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), f, targetArg(args))
		},
	}
	rootCmd.PersistentFlags().StringVar(&f.configPath, "config", "", "path to config YAML (default ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().StringVarP(&f.language, "lang", "l", "", "source language: python, javascript, typescript, go")
	rootCmd.PersistentFlags().StringVarP(&f.output, "output", "o", "", "DOT output file (default graph.dot)")
	rootCmd.PersistentFlags().StringVar(&f.sqlite, "sqlite", "", "also archive each build in this SQLite database")
	rootCmd.PersistentFlags().StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "build [path]",
		Short: "Build the graph once and write it (same as the root command)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Context(), f, targetArg(args))
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "watch [path]",
		Short: "Rebuild the graph whenever source files change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), f, targetArg(args))
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "show [path]",
		Short: "Write the last archived build of path without rebuilding (needs --sqlite)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd.Context(), f, targetArg(args))
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve graph tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), f)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func targetArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func loadConfig(f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.language != "" {
		cfg.Language = f.language
	}
	if f.output != "" {
		cfg.Output = f.output
	}
	if f.sqlite != "" {
		cfg.SQLite = f.sqlite
	}
	if f.metricsAddr != "" {
		cfg.MetricsAddr = f.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	if cfg.SQLite == "" {
		return nil, nil
	}
	st, err := store.Open(cfg.SQLite)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.SQLite, err)
	}
	return st, nil
}

func serveMetrics(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[metrics] Warning: metrics server stopped: %v", err)
		}
	}()
	log.Printf("[metrics] Serving /metrics on %s", addr)
}

func runBuild(ctx context.Context, f *flags, target string) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}
	return buildOnce(ctx, cfg, st, target)
}

func buildOnce(ctx context.Context, cfg *config.Config, st *store.Store, target string) error {
	opts, err := cfg.ProjectOptions()
	if err != nil {
		return err
	}
	res, err := project.NewBuilder(opts).Build(ctx, target)
	if err != nil {
		return err
	}
	if err := dot.WriteFile(cfg.Output, res.Graph); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", cfg.Output)
	fmt.Println(res.Graph.Summary())
	if len(res.Skipped) > 0 {
		fmt.Printf("  Skipped: %d file(s)\n", len(res.Skipped))
	}

	if st != nil {
		run, err := st.SaveRun(ctx, res.Layout.Target, opts.Language.Name, res.Graph)
		if err != nil {
			return err
		}
		fmt.Printf("  Archived as run %s in %s\n", run.ID, cfg.SQLite)
	}
	return nil
}

func runWatch(ctx context.Context, f *flags, target string) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	opts, err := cfg.ProjectOptions()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}
	serveMetrics(cfg.MetricsAddr)

	w := watch.New(target, cfg.Watch.Debounce, opts.Language.Matches, func(ctx context.Context) error {
		return buildOnce(ctx, cfg, st, target)
	})
	log.Printf("[watch] Watching %s (%s)", target, opts.Language.Name)
	return w.Run(ctx)
}

func runShow(ctx context.Context, f *flags, target string) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	if cfg.SQLite == "" {
		return errors.New("show needs an archive: set --sqlite or sqlite in the config")
	}
	opts, err := cfg.ProjectOptions()
	if err != nil {
		return err
	}
	layout, err := project.Resolve(target, opts)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := st.LatestRun(ctx, layout.Target)
	if errors.Is(err, store.ErrNoRun) {
		return fmt.Errorf("no archived build of %s in %s", layout.Target, cfg.SQLite)
	}
	if err != nil {
		return err
	}
	g, err := st.LoadRun(ctx, run.ID)
	if err != nil {
		return err
	}
	if err := dot.WriteFile(cfg.Output, g); err != nil {
		return err
	}

	fmt.Printf("Wrote %s from run %s (%s)\n", cfg.Output, run.ID, run.CreatedAt.Format(time.RFC3339))
	fmt.Println(g.Summary())
	return nil
}

func runServe(ctx context.Context, f *flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}
	serveMetrics(cfg.MetricsAddr)

	srv, err := server.New(cfg, st, version)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
