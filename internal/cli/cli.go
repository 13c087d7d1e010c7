package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/atimaspi/fcbb-1-1-59/internal/config"
	internal_http "github.com/atimaspi/fcbb-1-1-59/internal/http"
	"github.com/atimaspi/fcbb-1-1-59/internal/log"
	"github.com/atimaspi/fcbb-1-1-59/internal/notify"
	internal_storage "github.com/atimaspi/fcbb-1-1-59/internal/storage"
	"github.com/atimaspi/fcbb-1-1-59/pkg/service"
	"github.com/spf13/cobra"
)

func SetupCLI(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().String("db", "", "Database connection string (overrides DB_* env vars)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the content workflow HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			store := initStore(connStr(cmd, cfg))
			defer store.Close()
			sink := buildSink(store, cfg)
			if err := internal_http.StartServer(cfg.Port, store, sink); err != nil {
				log.GetLogger().Errorf("Server stopped: %v", err)
				os.Exit(1)
			}
		},
	}

	publishDueCmd := &cobra.Command{
		Use:   "publish-due",
		Short: "Run one pass of the scheduled publisher (cron entrypoint)",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			store := initStore(connStr(cmd, cfg))
			defer store.Close()
			pub := service.NewPublisherService(store, log.GetLogger())
			summary, err := pub.RunDue(context.Background(), time.Now())
			if err != nil {
				log.GetLogger().Errorf("Publisher run failed: %v", err)
				fmt.Fprintf(os.Stderr, "Error: publisher run failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Processed %d scheduled publications, published %d, failed %d\n",
				summary.Processed, summary.Published, len(summary.Failures))
			for _, id := range summary.Failures {
				fmt.Fprintf(os.Stdout, "- failed: %s\n", id)
			}
		},
	}

	listCmd := &cobra.Command{
		Use:   "list [collection]",
		Short: "List the content items of a collection",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			store := initStore(connStr(cmd, cfg))
			defer store.Close()
			caller, _ := cmd.Flags().GetString("as")
			svc := service.NewWorkflowService(store, service.NewStoreSink(store), log.GetLogger())
			items, err := svc.ListContent(args[0], caller)
			if err != nil {
				log.GetLogger().Errorf("Failed to list %s: %v", args[0], err)
				fmt.Fprintf(os.Stderr, "Error: failed to list %s: %v\n", args[0], err)
				os.Exit(1)
			}
			if len(items) == 0 {
				fmt.Fprintf(os.Stdout, "No items found.\n")
				return
			}
			for _, it := range items {
				fmt.Fprintf(os.Stdout, "- ID: %s, Title: %s, Status: %s, Updated: %s\n",
					it.ID, it.Title, it.Status, it.UpdatedAt.Format(time.RFC3339))
			}
		},
	}
	listCmd.Flags().String("as", "", "User ID to act as")

	createCmd := &cobra.Command{
		Use:   "create [collection] [title]",
		Short: "Create a draft content item",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig()
			store := initStore(connStr(cmd, cfg))
			defer store.Close()
			caller, _ := cmd.Flags().GetString("as")
			svc := service.NewWorkflowService(store, service.NewStoreSink(store), log.GetLogger())
			item, err := svc.CreateDraft(args[0], args[1], caller)
			if err != nil {
				log.GetLogger().Errorf("Failed to create draft: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to create draft: %v\n", err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Created %s draft '%s' with ID %s\n", args[0], item.Title, item.ID)
		},
	}
	createCmd.Flags().String("as", "", "User ID to act as")

	rootCmd.AddCommand(serveCmd, publishDueCmd, listCmd, createCmd)
}

func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.GetLogger().Errorf("Failed to load config: %v", err)
		os.Exit(1)
	}
	return cfg
}

func connStr(cmd *cobra.Command, cfg config.Config) string {
	if flag, err := cmd.Flags().GetString("db"); err == nil && flag != "" {
		return flag
	}
	return cfg.DBConnStr()
}

func buildSink(store *internal_storage.PostgresStore, cfg config.Config) service.Sink {
	sinks := service.MultiSink{service.NewStoreSink(store)}
	if cfg.RedisAddr != "" {
		log.GetLogger().Infof("Enabling Redis notification sink at %s", cfg.RedisAddr)
		sinks = append(sinks, notify.NewRedisSink(cfg.RedisAddr))
	}
	return sinks
}

func initStore(dbConnStr string) *internal_storage.PostgresStore {
	store, err := internal_storage.InitStore(dbConnStr)
	if err != nil {
		log.GetLogger().Errorf("Failed to initialize store: %v", err)
		os.Exit(1)
	}
	return store
}
