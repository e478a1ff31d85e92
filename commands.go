package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/parley-chat/parley/pkg/client"
	"github.com/parley-chat/parley/pkg/config"
	"github.com/parley-chat/parley/pkg/db"
	"github.com/parley-chat/parley/pkg/event"
	"github.com/parley-chat/parley/pkg/features"
	"github.com/parley-chat/parley/pkg/service"
	"github.com/parley-chat/parley/pkg/utils"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the full data export from a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := apiClient(cmd).ExportRaw(cmd.Context())
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("output")
		if out == "" || out == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s)\n", out, humanize.Bytes(uint64(len(data))))
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print aggregate counts from a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := apiClient(cmd).Stats(cmd.Context())
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "projects:      %s\n", humanize.Comma(int64(st.TotalProjects)))
		fmt.Fprintf(w, "conversations: %s\n", humanize.Comma(int64(st.TotalConversations)))
		fmt.Fprintf(w, "messages:      %s\n", humanize.Comma(int64(st.TotalMessages)))
		fmt.Fprintf(w, "artifacts:     %s\n", humanize.Comma(int64(st.TotalArtifacts)))
		fmt.Fprintf(w, "folders:       %s\n", humanize.Comma(int64(st.TotalFolders)))
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair stored message counts on a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := apiClient(cmd).Reconcile(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "checked %d conversations, repaired %d\n", res.Checked, res.Repaired)
		for _, id := range res.Fixed {
			fmt.Fprintf(cmd.OutOrStdout(), "  fixed conversation %d\n", id)
		}
		return nil
	},
}

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Inspect and update the feature checklist",
}

var featuresListCmd = &cobra.Command{
	Use:   "list",
	Short: "List checklist entries with their index",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := features.Load(featureFile(cmd))
		if err != nil {
			return err
		}
		for i, f := range list {
			mark := " "
			if f.Passes {
				mark = "x"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%4d [%s] %-12s %s\n", i, mark, f.Category, f.Description)
		}
		return nil
	},
}

var featuresStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize checklist progress per category",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := features.Load(featureFile(cmd))
		if err != nil {
			return err
		}
		st := features.Summarize(list)
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%d/%d passing (%.1f%%)\n", st.Passing, st.Total, st.Percent())
		for _, c := range st.Categories {
			fmt.Fprintf(w, "  %-12s %d/%d\n", c.Category, c.Passing, c.Total)
		}
		return nil
	},
}

var featuresMarkCmd = &cobra.Command{
	Use:   "mark <index>",
	Short: "Set the passes flag of one entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid index %q", args[0])
		}
		fail, _ := cmd.Flags().GetBool("fail")
		f, err := features.Mark(featureFile(cmd), index, !fail)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d: passes=%t %s\n", index, f.Passes, f.Description)
		return nil
	},
}

func init() {
	serveCmd.Flags().String("host", "", "listen host (overrides config)")
	serveCmd.Flags().Int("port", 0, "listen port (overrides config)")
	serveCmd.Flags().String("db", "", "sqlite database path (overrides config)")
	serveCmd.Flags().String("config", "", "config file path (default is $HOME/.parley/config.yaml)")

	exportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")

	featuresCmd.PersistentFlags().String("file", features.DefaultFile, "checklist file")
	featuresMarkCmd.Flags().Bool("pass", false, "mark as passing (default)")
	featuresMarkCmd.Flags().Bool("fail", false, "mark as failing")
	featuresMarkCmd.MarkFlagsMutuallyExclusive("pass", "fail")
	featuresCmd.AddCommand(featuresListCmd, featuresStatsCmd, featuresMarkCmd)

	rootCmd.AddCommand(serveCmd, exportCmd, statsCmd, reconcileCmd, featuresCmd)
}

func apiClient(cmd *cobra.Command) *client.Client {
	base, _ := cmd.Flags().GetString("server")
	return client.New(base)
}

func featureFile(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("file")
	return path
}

func loadServeConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, _, err = config.LoadFile(path)
	} else {
		_, _ = config.EnsureDefaultConfig()
		cfg, _, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("host") {
		host, _ := cmd.Flags().GetString("host")
		cfg.Server.Host = &host
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		cfg.Server.Port = &port
	}
	if cmd.Flags().Changed("db") {
		path, _ := cmd.Flags().GetString("db")
		cfg.Database.Path = &path
	}
	return cfg, cfg.Validate()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	utils.InitLogger(cfg.LogLevel())
	logger := utils.GetLogger()

	target := cfg.DBPath()
	if cfg.DBDriver() == db.DriverPostgres {
		target = cfg.DBDSN()
	}
	gdb, err := db.Open(cfg.DBDriver(), target)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(gdb) }()
	if err := db.Migrate(gdb); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events := event.NewEmitter()
	if url := cfg.RedisURL(); url != "" {
		bridge, err := event.NewRedisBridge(ctx, url, cfg.RedisChannel())
		if err != nil {
			logger.Warn("redis event bridge disabled", "error", err)
		} else {
			bridge.Attach(events)
			defer func() { _ = bridge.Close() }()
		}
	}

	promptsPath := ""
	if dir, _, err := config.DefaultPaths(); err == nil {
		promptsPath = filepath.Join(dir, "prompts.yaml")
	}
	svcs, err := service.New(gdb, events, promptsPath)
	if err != nil {
		return err
	}
	if _, err := svcs.Users.EnsureDefault(ctx); err != nil {
		return fmt.Errorf("ensure default user: %w", err)
	}
	svcs.Reconcile.Start(ctx, cfg.ReconcileCron())

	server := NewServer(cfg, svcs, events, logger)
	if err := server.Start(ctx); err != nil {
		logger.Error("Failed to start server", "error", err)
		return err
	}

	<-server.Done()
	logger.Info("server stopped")
	return nil
}
