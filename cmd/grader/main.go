// Package main is the command line entry point for the grading core.
//
// Subcommands:
//   - migrate: apply pending database migrations
//   - preview: compute live suggested grades for an evaluation
//   - list:    merged view of computed and saved grades
//   - save:    upsert draft or published grade overrides from a JSON file
//
// Results are printed as JSON on stdout; logs go to stderr.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/peergrade-hub/grading-core/config"
	"github.com/peergrade-hub/grading-core/internal/application/command"
	"github.com/peergrade-hub/grading-core/internal/application/query"
	"github.com/peergrade-hub/grading-core/internal/domain/grade"
	"github.com/peergrade-hub/grading-core/internal/domain/grading"
	"github.com/peergrade-hub/grading-core/internal/infrastructure/persistence/postgres"
	"github.com/peergrade-hub/grading-core/internal/infrastructure/persistence/redis"
	"github.com/peergrade-hub/grading-core/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage()
		return fmt.Errorf("missing subcommand")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION AND LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output:    os.Stderr,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	}).With(logger.Component("grader"))

	// ─────────────────────────────────────────────────────────────────────────
	// 2. DATABASE
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	if args[0] == "migrate" {
		return runMigrate(ctx, conn, log)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REPOSITORIES AND ENGINE
	// ─────────────────────────────────────────────────────────────────────────
	rosterRepo := postgres.NewRosterRepository(conn)
	evalRepo := postgres.NewEvaluationRepository(conn)
	gradeRepo := postgres.NewGradeRepository(conn)

	engine := grading.NewEngine(rosterRepo, evalRepo, grading.Options{
		ClampScores: cfg.Grading.ClampScores,
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 4. OPTIONAL PREVIEW CACHE
	// ─────────────────────────────────────────────────────────────────────────
	var previewCache grading.PreviewCache
	if !cfg.Redis.Disabled && cfg.Features.IsEnabled(config.FeatureGradingPreviewCache, nil) {
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		cache, err := redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("redis unavailable, preview cache disabled", logger.Err(err))
		} else {
			defer cache.Close()
			previewCache = redis.NewPreviewCache(cache)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. SUBCOMMAND DISPATCH
	// ─────────────────────────────────────────────────────────────────────────
	switch args[0] {
	case "preview":
		handler := query.NewPreviewGradesHandler(engine, previewCache, cfg.Grading.PreviewCacheTTL, log)
		return runPreview(ctx, handler, args[1:])
	case "list":
		handler := query.NewListGradesHandler(engine, gradeRepo, log)
		return runList(ctx, handler, args[1:])
	case "save":
		handler := command.NewSaveGradesHandler(engine, gradeRepo, log)
		return runSave(ctx, handler, args[1:])
	default:
		usage()
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBCOMMANDS
// ══════════════════════════════════════════════════════════════════════════════

func runMigrate(ctx context.Context, conn *postgres.Connection, log *logger.Logger) error {
	migrator := postgres.NewMigrator(conn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	status, err := migrator.Status(ctx)
	if err != nil {
		return err
	}
	for _, m := range status {
		log.Info("migration status",
			logger.Int("version", m.Version),
			logger.String("name", m.Name),
			logger.Bool("applied", m.IsApplied),
		)
	}
	return nil
}

func runPreview(ctx context.Context, handler *query.PreviewGradesHandler, args []string) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	evaluationID := fs.String("evaluation", "", "evaluation id (required)")
	courseID := fs.String("course", "", "course id override (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := handler.Handle(ctx, query.PreviewGradesQuery{
		EvaluationID: *evaluationID,
		CourseID:     *courseID,
	})
	if err != nil {
		return err
	}

	return printJSON(result)
}

func runList(ctx context.Context, handler *query.ListGradesHandler, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	evaluationID := fs.String("evaluation", "", "evaluation id (required)")
	courseID := fs.String("course", "", "course id override (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := handler.Handle(ctx, query.ListGradesQuery{
		EvaluationID: *evaluationID,
		CourseID:     *courseID,
	})
	if err != nil {
		return err
	}

	return printJSON(result)
}

// savePayload is the JSON shape accepted by the save subcommand.
type savePayload struct {
	GroupGrade *float64                 `json:"group_grade"`
	Overrides  map[string]overrideInput `json:"overrides"`
}

type overrideInput struct {
	Grade      *float64 `json:"grade"`
	Reason     *string  `json:"reason"`
	GroupGrade *float64 `json:"group_grade"`
}

func runSave(ctx context.Context, handler *command.SaveGradesHandler, args []string) error {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	evaluationID := fs.String("evaluation", "", "evaluation id (required)")
	courseID := fs.String("course", "", "course id override (optional)")
	input := fs.String("input", "", "path to JSON overrides file (required)")
	publish := fs.Bool("publish", false, "mark the save as published")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *input == "" {
		return fmt.Errorf("save: -input is required")
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	var payload savePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to parse input file: %w", err)
	}

	overrides := make(map[string]grade.Override, len(payload.Overrides))
	for id, ov := range payload.Overrides {
		overrides[id] = grade.Override{
			Grade:      ov.Grade,
			Reason:     ov.Reason,
			GroupGrade: ov.GroupGrade,
		}
	}

	result, err := handler.Handle(ctx, command.SaveGradesCommand{
		EvaluationID:      *evaluationID,
		CourseID:          *courseID,
		GroupGradeDefault: payload.GroupGrade,
		Overrides:         overrides,
		Publish:           *publish,
	})
	if err != nil {
		return err
	}

	return printJSON(result)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: grader <subcommand> [flags]

subcommands:
  migrate                          apply pending database migrations
  preview -evaluation ID [-course ID]
  list    -evaluation ID [-course ID]
  save    -evaluation ID -input FILE [-course ID] [-publish]`)
}
