package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/uptwnp/deal-network-sub001/internal/api"
	"github.com/uptwnp/deal-network-sub001/internal/auth"
	"github.com/uptwnp/deal-network-sub001/internal/config"
	"github.com/uptwnp/deal-network-sub001/internal/database"
	"github.com/uptwnp/deal-network-sub001/internal/logging"
	"github.com/uptwnp/deal-network-sub001/internal/prefs"
	"github.com/uptwnp/deal-network-sub001/internal/property"
	"github.com/uptwnp/deal-network-sub001/internal/scope"
	"github.com/uptwnp/deal-network-sub001/internal/server"
	"github.com/uptwnp/deal-network-sub001/internal/store"
	"github.com/uptwnp/deal-network-sub001/internal/viewsync"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "dealsync",
		Short: "Property listing sync engine and deep-link server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	setupFlags(rootCmd)

	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newSearchCommand())
	rootCmd.AddCommand(newServeCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("api-base-url", defaults.GetString("api.base_url"), "Listing API base URL")
	cmd.PersistentFlags().String("api-token", "", "Dealer session token (overrides env)")
	cmd.PersistentFlags().Int("api-timeout-seconds", defaults.GetInt("api.timeout_seconds"), "API request timeout in seconds")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address for serve")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite preference database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("session-signing-secret", "", "Session signing secret for serve (overrides env)")

	bindFlag(cmd, "api.base_url", "api-base-url")
	bindFlag(cmd, "api.token", "api-token")
	bindFlag(cmd, "api.timeout_seconds", "api-timeout-seconds")
	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "session.signing_secret", "session-signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

// runtime bundles the collaborators every subcommand needs.
type runtime struct {
	config config.AppConfig
	logger *zap.Logger
	client *api.Client
	prefs  *prefs.Store
	close  func()
}

func newRuntime() (*runtime, error) {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return nil, err
	}

	client, err := api.NewClient(api.Config{
		BaseURL:      appConfig.APIBaseURL,
		SessionToken: appConfig.APISessionToken,
		HTTPClient:   &http.Client{Timeout: appConfig.APITimeout},
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	preferenceStore, err := prefs.NewStore(prefs.StoreConfig{Database: db, Logger: logger})
	if err != nil {
		return nil, err
	}

	return &runtime{
		config: appConfig,
		logger: logger,
		client: client,
		prefs:  preferenceStore,
		close: func() {
			sqlDB.Close() //nolint:errcheck
			logger.Sync() //nolint:errcheck
		},
	}, nil
}

// sessionOwner screens the configured token and returns the dealer id.
func sessionOwner(rt *runtime) (int64, error) {
	session, err := auth.ScreenToken(rt.config.APISessionToken, time.Now)
	if err != nil {
		return 0, fmt.Errorf("session token rejected: %w", err)
	}
	return session.OwnerID.Int64(), nil
}

func newListCommand() *cobra.Command {
	var scopeName string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Load and print the property list for a scope",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			ownerID, err := sessionOwner(rt)
			if err != nil {
				return err
			}

			current := scope.DefaultScope
			if scopeName != "" {
				current, err = scope.Parse(scopeName)
				if err != nil {
					return err
				}
			} else if saved, found := rt.prefs.ActiveScope(); found {
				current = saved
			}

			recordStore := store.NewRecordStore(ownerID)
			coordinator, err := viewsync.NewCoordinator(viewsync.CoordinatorConfig{
				Client: rt.client,
				Store:  recordStore,
				Logger: rt.logger,
			})
			if err != nil {
				return err
			}

			load, err := coordinator.FetchBase(cmd.Context(), ownerID, current)
			if err != nil {
				return err
			}
			if load.MineFetched {
				recordStore.SetMine(load.Mine)
			}
			if load.PublicFetched {
				recordStore.SetPublic(load.Public)
			}
			records := recordStore.DeriveBase(current)

			if err := rt.prefs.SetActiveScope(current); err != nil {
				rt.logger.Warn("failed to persist scope preference", zap.Error(err))
			}

			printRecords(cmd, records)
			return nil
		},
	}

	cmd.Flags().StringVar(&scopeName, "scope", "", "Scope to list (mine, public, all); defaults to the saved preference")
	return cmd
}

func newSearchCommand() *cobra.Command {
	var scopeName string
	var column string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a server-side search and print matches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			ownerID, err := sessionOwner(rt)
			if err != nil {
				return err
			}

			current, err := scope.Parse(scopeName)
			if err != nil {
				return err
			}

			recordStore := store.NewRecordStore(ownerID)
			coordinator, err := viewsync.NewCoordinator(viewsync.CoordinatorConfig{
				Client: rt.client,
				Store:  recordStore,
				Logger: rt.logger,
			})
			if err != nil {
				return err
			}

			records, err := coordinator.FetchQuery(cmd.Context(), viewsync.Query{
				Scope:        current,
				SearchQuery:  args[0],
				SearchColumn: column,
			})
			if err != nil {
				return err
			}

			printRecords(cmd, records)
			return nil
		},
	}

	cmd.Flags().StringVar(&scopeName, "scope", scope.DefaultScope.String(), "Scope to search (mine, public, all)")
	cmd.Flags().StringVar(&column, "column", "", "Restrict the search to one column")
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the inbound property deep links",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			secret := strings.TrimSpace(rt.config.SessionSigningSecret)
			if secret == "" {
				return fmt.Errorf("session.signing_secret is required for serve")
			}

			validator, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
				SigningSecret: []byte(secret),
				Issuer:        rt.config.SessionIssuer,
			})
			if err != nil {
				return err
			}

			handler, err := server.NewHTTPHandler(server.Dependencies{
				Records:  recordSource{client: rt.client},
				Sessions: validator,
				Logger:   rt.logger,
			})
			if err != nil {
				return err
			}

			return runServer(cmd.Context(), rt, handler)
		},
	}
}

// recordSource adapts the remote client to the server's typed lookup.
type recordSource struct {
	client *api.Client
}

func (s recordSource) GetProperty(ctx context.Context, id property.PropertyID) (property.Property, error) {
	return s.client.GetProperty(ctx, id.Int64())
}

func runServer(ctx context.Context, rt *runtime, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:    rt.config.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("server starting", zap.String("address", rt.config.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func printRecords(cmd *cobra.Command, records []property.Property) {
	if len(records) == 0 {
		cmd.Println("no properties")
		return
	}
	for _, record := range records {
		visibility := "private"
		if record.IsPublic {
			visibility = "public"
		}
		cmd.Printf("%d\t%s\t%s\t%s\t%s\n", record.ID, record.Type, record.City, record.Area, visibility)
	}
}
