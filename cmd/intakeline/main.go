package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/legalaidline/intakeline/internal/call"
	"github.com/legalaidline/intakeline/internal/classify"
	"github.com/legalaidline/intakeline/internal/flow"
	"github.com/legalaidline/intakeline/internal/genai"
	"github.com/legalaidline/intakeline/internal/legalserver"
	"github.com/legalaidline/intakeline/internal/prompts"
	"github.com/legalaidline/intakeline/internal/speech"
	"github.com/legalaidline/intakeline/internal/store"
	"github.com/legalaidline/intakeline/internal/telephony"
	"github.com/legalaidline/intakeline/internal/util"
	"github.com/legalaidline/intakeline/internal/validate"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for intakeline state data
	DefaultStateDir = "/var/lib/intakeline"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "intakeline.db"
	// DefaultDataDir is the default directory for prompt and eligibility data files
	DefaultDataDir = "./data"
	// DefaultAddr is the default HTTP listen address
	DefaultAddr = ":8080"
	// DefaultSubmitPollInterval is how often queued intake records are retried
	DefaultSubmitPollInterval = 10 * time.Second
)

func main() {
	initializeLogger()

	config := loadEnvironmentConfig()
	flags := parseCommandLineFlags(config)

	if err := run(flags); err != nil {
		slog.Error("intakeline failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("intakeline exited successfully")
}

// Config holds environment configuration
type Config struct {
	StateDir    string
	DataDir     string
	DatabaseURL string
	Addr        string
	Domain      string
	OpenAIKey   string
	OpenAIModel string
}

// Flags holds command line flag values
type Flags struct {
	stateDir    *string
	dataDir     *string
	dbDSN       *string
	addr        *string
	domain      *string
	openaiKey   *string
	openaiModel *string
}

// initializeLogger sets up structured logging, level taken from $LOG_LEVEL
func initializeLogger() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:    util.GetEnv("INTAKELINE_STATE_DIR", DefaultStateDir),
		DataDir:     util.GetEnv("INTAKELINE_DATA_DIR", DefaultDataDir),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Addr:        util.GetEnv("SERVER_ADDR", DefaultAddr),
		Domain:      os.Getenv("SERVER_DOMAIN"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: os.Getenv("OPENAI_MODEL"),
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"INTAKELINE_STATE_DIR", config.StateDir,
		"INTAKELINE_DATA_DIR", config.DataDir,
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"SERVER_ADDR", config.Addr,
		"SERVER_DOMAIN", config.Domain,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "")

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:    flag.String("state-dir", config.StateDir, "state directory for intakeline data (overrides $INTAKELINE_STATE_DIR)"),
		dataDir:     flag.String("data-dir", config.DataDir, "directory holding prompts and eligibility data (overrides $INTAKELINE_DATA_DIR)"),
		dbDSN:       flag.String("db-dsn", config.DatabaseURL, "database DSN for the intake-record queue (overrides $DATABASE_URL)"),
		addr:        flag.String("addr", config.Addr, "HTTP listen address (overrides $SERVER_ADDR)"),
		domain:      flag.String("domain", config.Domain, "public hostname for webhooks and media streams (overrides $SERVER_DOMAIN)"),
		openaiKey:   flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		openaiModel: flag.String("openai-model", config.OpenAIModel, "OpenAI chat model (overrides $OPENAI_MODEL)"),
	}
	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dataDir", *flags.dataDir,
		"dbDSN_set", *flags.dbDSN != "",
		"addr", *flags.addr,
		"domain", *flags.domain,
		"openaiKeySet", *flags.openaiKey != "")
	return flags
}

func run(flags Flags) error {
	if *flags.domain == "" {
		return errors.New("SERVER_DOMAIN must be set to the public hostname")
	}

	validator, err := buildValidator(*flags.dataDir)
	if err != nil {
		return err
	}

	lib, err := prompts.Load(filepath.Join(*flags.dataDir, "prompts.yaml"), flow.RequiredPrompts())
	if err != nil {
		return err
	}

	records, err := buildRecordStore(*flags.dbDSN)
	if err != nil {
		return err
	}
	defer records.Close()

	engine, err := flow.NewEngine(validator, lib,
		flow.WithRecordStore(records),
		flow.WithConfidenceThreshold(util.ParseFloatEnv("CLASSIFICATION_CONFIDENCE_THRESHOLD", flow.DefaultConfidenceThreshold)),
	)
	if err != nil {
		return err
	}

	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	if *flags.openaiModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(*flags.openaiModel))
	}
	genaiClient, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return err
	}

	transcriber, err := speech.NewTranscriber()
	if err != nil {
		return err
	}
	speaker, err := speech.NewSpeaker()
	if err != nil {
		return err
	}

	twilioClient, err := telephony.NewClient()
	if err != nil {
		return err
	}

	secret, err := telephony.ParseWebsocketSecret(os.Getenv("WEBSOCKET_SECRET"))
	if err != nil {
		return err
	}

	newPipeline := func(callSID, callerID string) (*call.Pipeline, error) {
		agent := call.NewAgent(engine, genaiClient, twilioClient, callSID, callerID)
		return call.NewPipeline(transcriber, speaker, agent), nil
	}

	mux := http.NewServeMux()
	mux.Handle("/", telephony.NewWebhookHandler(*flags.domain, "https", twilioClient.Validator(), secret))
	mux.Handle("/ws", telephony.NewMediaHandler(secret, newPipeline))

	server := &http.Server{
		Addr:    *flags.addr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startSubmitter(ctx, records)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("intakeline listening", "addr", *flags.addr, "domain", *flags.domain)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildValidator assembles the eligibility validators from the data directory
// and environment. The conflict checker and case-type classifier run against
// their live services when credentials are configured, and against local
// static lists otherwise.
func buildValidator(dataDir string) (*validate.IntakeValidator, error) {
	serviceAreas, err := validate.LoadServiceAreas(filepath.Join(dataDir, "service_areas.json"))
	if err != nil {
		return nil, err
	}
	poverty, err := validate.LoadPovertyScale(filepath.Join(dataDir, "federal_poverty_scale.json"))
	if err != nil {
		return nil, err
	}
	taxonomy, err := validate.LoadTaxonomy(filepath.Join(dataDir, "case_type_taxonomy.csv"))
	if err != nil {
		return nil, err
	}

	var caseTypes validate.CaseTypeClassifier
	if os.Getenv("FETCH_URL") != "" {
		classifier, err := classify.NewClient()
		if err != nil {
			return nil, err
		}
		caseTypes = validate.NewRemoteCaseTypeClassifier(classifier, taxonomy)
		slog.Info("using remote case-type classification")
	} else {
		caseTypes = validate.NewStaticCaseTypeClassifier(taxonomy)
		slog.Info("using static case-type classification")
	}

	var conflicts validate.ConflictChecker
	if os.Getenv("LEGAL_SERVER_SUBDOMAIN") != "" {
		client, err := legalserver.NewClient()
		if err != nil {
			return nil, err
		}
		conflicts = validate.NewRemoteConflictChecker(client)
		slog.Info("using LegalServer conflict checks")
	} else {
		denyList := splitList(os.Getenv("CONFLICT_DENY_LIST"))
		conflicts = validate.NewStaticConflictChecker(denyList)
		slog.Info("using static conflict checks", "denyListSize", len(denyList))
	}

	return validate.New(validate.Config{
		ServiceAreas:         serviceAreas,
		ServiceAreaCutoff:    util.ParseIntEnv("SERVICE_AREA_CUTOFF", validate.DefaultServiceAreaCutoff),
		Poverty:              poverty,
		AssetLimit:           util.ParseIntEnv("ASSET_LIMIT", 0),
		IncomeMultiplier:     util.ParseFloatEnv("INCOME_MULTIPLIER", validate.DefaultIncomeMultiplier),
		CaseTypes:            caseTypes,
		Conflicts:            conflicts,
		AlternativeProviders: splitList(os.Getenv("ALTERNATE_PROVIDERS")),
	})
}

// buildRecordStore opens the intake-record queue on the configured backend.
func buildRecordStore(dsn string) (store.RecordRepo, error) {
	if store.DetectDSNType(dsn) == "postgres" {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store")
		return store.NewPostgresStore(store.WithPostgresDSN(dsn))
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", dsn)
	return store.NewSQLiteStore(store.WithSQLiteDSN(dsn))
}

// startSubmitter launches the background sender that files queued intake
// records with LegalServer. Without credentials records stay queued locally.
func startSubmitter(ctx context.Context, records store.RecordRepo) {
	if os.Getenv("LEGAL_SERVER_SUBDOMAIN") == "" {
		slog.Info("LegalServer not configured, intake records will remain queued locally")
		return
	}
	client, err := legalserver.NewClient()
	if err != nil {
		slog.Error("failed to build LegalServer client for record submission", "error", err)
		return
	}
	sender := store.NewSender(records, client.CreateMatter, DefaultSubmitPollInterval)
	if err := sender.RecoverStaleRecords(); err != nil {
		slog.Error("failed to recover stale intake records", "error", err)
	}
	go sender.Run(ctx)
}

// splitList parses a comma-separated environment value into trimmed entries.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
