package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/journify/core/internal/adapters/repository"
	"github.com/journify/core/internal/application/query"
	"github.com/journify/core/internal/domain/entities"
	"github.com/journify/core/internal/infrastructure/config"
	"github.com/journify/core/internal/infrastructure/database"
	"github.com/journify/core/internal/infrastructure/server"
)

// Build information, set with -ldflags at release time.
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "development"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Journify API server",
		Long:  "Restore the journal from its snapshot, start the sync worker and serve the HTTP API",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage the remote gateway schema (up, down, version)",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Run: func(cmd *cobra.Command, args []string) {
			steps, _ := cmd.Flags().GetInt("steps")
			runMigration("up", steps)
		},
	}
	upCmd.Flags().Int("steps", 0, "Number of migrations to apply (0 applies all)")

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Run: func(cmd *cobra.Command, args []string) {
			steps, _ := cmd.Flags().GetInt("steps")
			runMigration("down", steps)
		},
	}
	downCmd.Flags().Int("steps", 0, "Number of migrations to roll back (0 rolls back all)")

	migrateCmd.AddCommand(upCmd, downCmd, &cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		Run: func(cmd *cobra.Command, args []string) {
			showMigrationVersion()
		},
	})

	return migrateCmd
}

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long:  "Create journal owners in the remote gateway",
	}

	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		Run: func(cmd *cobra.Command, args []string) {
			id, _ := cmd.Flags().GetString("id")
			email, _ := cmd.Flags().GetString("email")
			name, _ := cmd.Flags().GetString("name")

			if email == "" || name == "" {
				log.Fatal("Email and name are required")
			}
			if id == "" {
				id = uuid.NewString()
			}

			createUser(entities.User{ID: id, Email: email, Name: name})
		},
	}

	createUserCmd.Flags().String("id", "", "User id (generated when empty)")
	createUserCmd.Flags().String("email", "", "User email (required)")
	createUserCmd.Flags().String("name", "", "Display name (required)")

	userCmd.AddCommand(createUserCmd)
	return userCmd
}

// NewSeedCommand creates the seed command
func NewSeedCommand() *cobra.Command {
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the sample journal",
		Long:  "Replace entries and tags with the sample journal and push it to the gateway when one is configured",
		Run: func(cmd *cobra.Command, args []string) {
			force, _ := cmd.Flags().GetBool("force")
			runSeed(force)
		},
	}
	seedCmd.Flags().Bool("force", false, "Replace an existing non-empty journal")
	return seedCmd
}

// NewStatsCommand creates the stats command
func NewStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print journal statistics",
		Run: func(cmd *cobra.Command, args []string) {
			runStats(cmd.OutOrStdout())
		},
	}
}

// NewExportCommand creates the export command
func NewExportCommand() *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export journal entries",
		Long:  "Write every entry, newest first, as json, yaml or markdown",
		Run: func(cmd *cobra.Command, args []string) {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			if !validExportFormat(format) {
				log.Fatalf("Unknown export format %q (json, yaml, markdown)", format)
			}
			runExport(cmd.OutOrStdout(), format, output)
		},
	}
	exportCmd.Flags().StringP("format", "f", formatMarkdown, "Output format: json, yaml or markdown")
	exportCmd.Flags().StringP("output", "o", "", "Output file (stdout when empty)")
	return exportCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print Journify version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Journify Core %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Build Date: %s\n", BuildDate)
			fmt.Fprintf(cmd.OutOrStdout(), "Git Commit: %s\n", GitCommit)
		},
	}
}

func runServer() {
	cfg, appLogger, err := loadConfigAndLogger()
	if err != nil {
		log.Fatal(err)
	}
	defer appLogger.Close()

	ctx := context.Background()
	a, err := newApp(ctx, cfg, appLogger, appOptions{withGateway: true, withStorage: true})
	if err != nil {
		appLogger.Fatalw("Failed to initialize journal", "error", err)
	}

	if a.sync != nil && cfg.Sync.Enabled {
		a.sync.Start()
	}

	srv, err := server.New(cfg, a.serverDependencies(), appLogger)
	if err != nil {
		appLogger.Fatalw("Failed to initialize server", "error", err)
	}

	appLogger.Infow("Starting Journify API server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"snapshot", cfg.Snapshot.Driver,
		"gateway", a.db != nil,
	)

	go func() {
		if err := srv.Start(server.Addr(cfg.Server)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatalw("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorw("Server shutdown failed", "error", err)
	}
	a.close(shutdownCtx)
	appLogger.Info("Server stopped")
}

func openDatabase() *database.DB {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}

func runMigration(direction string, steps int) {
	db := openDatabase()
	defer db.Close()

	m, err := db.Migrator()
	if err != nil {
		log.Fatal(err)
	}

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No migrations to run")
		return
	}
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	fmt.Printf("Migration %s completed successfully\n", direction)
}

func showMigrationVersion() {
	db := openDatabase()
	defer db.Close()

	m, err := db.Migrator()
	if err != nil {
		log.Fatal(err)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Println("No migrations applied")
		return
	}
	if err != nil {
		log.Fatalf("Failed to get migration version: %v", err)
	}

	fmt.Printf("Current migration version: %d\n", version)
	fmt.Printf("Dirty: %t\n", dirty)
}

func createUser(user entities.User) {
	db := openDatabase()
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := repository.NewUserRepository(db.DB).Create(ctx, &user); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("User created successfully:\n")
	fmt.Printf("  ID: %s\n", user.ID)
	fmt.Printf("  Email: %s\n", user.Email)
	fmt.Printf("  Name: %s\n", user.Name)
}

func runSeed(force bool) {
	cfg, appLogger, err := loadConfigAndLogger()
	if err != nil {
		log.Fatal(err)
	}
	defer appLogger.Close()

	ctx := context.Background()
	a, err := newApp(ctx, cfg, appLogger, appOptions{withGateway: true})
	if err != nil {
		log.Fatalf("Failed to initialize journal: %v", err)
	}
	defer a.close(ctx)

	if n := len(a.store.Entries()); n > 0 && !force {
		fmt.Printf("Journal already holds %d entries; use --force to replace them\n", n)
		return
	}

	if a.sync != nil {
		a.sync.Start()
	}
	a.store.InitializeSampleData()
	fmt.Printf("Loaded %d entries and %d tags\n", len(a.store.Entries()), len(a.store.Tags()))

	if a.sync != nil {
		a.sync.Stop()
		if entries, tags := a.sync.Pending(); entries+tags > 0 {
			fmt.Printf("%d entries and %d tags could not be pushed to the gateway\n", entries, tags)
		} else {
			fmt.Println("Sample data pushed to the gateway")
		}
	}
}

func runStats(w io.Writer) {
	cfg, appLogger, err := loadConfigAndLogger()
	if err != nil {
		log.Fatal(err)
	}
	defer appLogger.Close()

	ctx := context.Background()
	a, err := newApp(ctx, cfg, appLogger, appOptions{})
	if err != nil {
		log.Fatalf("Failed to initialize journal: %v", err)
	}
	defer a.close(ctx)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a.entries.Stats()); err != nil {
		log.Fatalf("Failed to write statistics: %v", err)
	}
}

func runExport(stdout io.Writer, format, output string) {
	cfg, appLogger, err := loadConfigAndLogger()
	if err != nil {
		log.Fatal(err)
	}
	defer appLogger.Close()

	ctx := context.Background()
	a, err := newApp(ctx, cfg, appLogger, appOptions{})
	if err != nil {
		log.Fatalf("Failed to initialize journal: %v", err)
	}
	defer a.close(ctx)

	st := a.store.State()
	views := query.ResolveEntries(query.SortNewestFirst(st.Entries), st.Tags)
	doc := buildExport(a.ownerID(), views, time.Now())

	w := stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", output, err)
		}
		defer f.Close()
		w = f
	}

	if err := writeExport(w, format, doc, a.entries.Location()); err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	if output != "" {
		fmt.Fprintf(stdout, "Exported %d entries to %s\n", len(doc.Entries), output)
	}
}
