package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/insightdelivered/bank-transaction-extractor/internal/api"
	"github.com/insightdelivered/bank-transaction-extractor/internal/config"
	"github.com/insightdelivered/bank-transaction-extractor/internal/fields"
	"github.com/insightdelivered/bank-transaction-extractor/internal/logging"
	"github.com/insightdelivered/bank-transaction-extractor/internal/message"
	"github.com/insightdelivered/bank-transaction-extractor/internal/metrics"
	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
	"github.com/insightdelivered/bank-transaction-extractor/internal/parser"
	"github.com/insightdelivered/bank-transaction-extractor/internal/writer"
)

const version = "2.0.0"

func main() {
	bankFlag := flag.String("bank", "", "Bank code: bancolombia, nequi, davivienda (auto-detected if omitted)")
	outputFlag := flag.String("output", "", "Output CSV file path (defaults to input filename with .csv extension)")
	headerFlag := flag.Bool("header", true, "Include account metadata header rows in CSV")
	passwordFlag := flag.String("password", "", "Password for protected statements")
	messageFlag := flag.String("message", "", "Parse one bank SMS or push notification and print it as JSON")
	senderFlag := flag.String("sender", "", "Sender of the -message text")
	serveFlag := flag.Bool("serve", false, "Run the HTTP API")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Colombian Bank Transaction Extractor
by Insight Delivered

Extracts transactions from bank notifications and from Bancolombia,
Nequi and Davivienda statements (xlsx, xls, pdf).

Usage:
  bank-transaction-extractor [flags] <statement> [statement2 ...]
  bank-transaction-extractor -message "<text>" [-sender <name>]
  bank-transaction-extractor -serve

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Auto-detect bank and convert
  bank-transaction-extractor Movimientos_BC.xlsx

  # Protected statement with explicit bank
  bank-transaction-extractor --bank=nequi --password=1234 extracto.pdf

  # Parse a notification
  bank-transaction-extractor -message "Nequi: Pagaste $25.000 en RAPPI. Disponible: $125.000"

Environment (serve mode, also read from .env):
  PORT, LOG_LEVEL, LOG_FORMAT, LOG_DEV, MAX_UPLOAD_BYTES, PARSE_WORKERS,
  DECODE_TIMEOUT, PENDING_UPLOAD_TTL, RATE_LIMIT_RPS, RATE_LIMIT_BURST
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("bank-transaction-extractor v%s\n", version)
		os.Exit(0)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fatalf("Invalid configuration: %v\n", err)
	}
	logCfg := cfg.Logging()
	if !*serveFlag {
		// The CLI prints its own progress; only problems go to the log.
		logCfg.Format = "console"
		if logCfg.Level == "info" {
			logCfg.Level = "warn"
		}
	}
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		fatalf("Failed to create logger: %v\n", err)
	}
	defer logger.Sync()
	logging.SetGlobal(logger)

	switch {
	case *serveFlag:
		if err := serve(cfg, logger); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
		return
	case *messageFlag != "":
		if err := parseMessage(*messageFlag, *senderFlag, logger); err != nil {
			fatalf("Error: %v\n", err)
		}
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	var bank models.BankCode
	if *bankFlag != "" {
		code, ok := models.ParseBankCode(*bankFlag)
		if !ok {
			fatalf("Unknown bank %q. Supported: bancolombia, nequi, davivienda\n", *bankFlag)
		}
		bank = code
	}

	p := parser.NewStatementParser(
		parser.WithLogger(logger),
		parser.WithDecodeTimeout(cfg.DecodeTimeout),
		parser.WithWorkers(cfg.ParseWorkers),
	)
	if err := processFiles(p, flag.Args(), bank, *passwordFlag, *outputFlag, *headerFlag); err != nil {
		fatalf("%v\n", err)
	}
}

func processFiles(p *parser.StatementParser, paths []string, bank models.BankCode, password, outputPath string, includeHeader bool) error {
	if outputPath != "" && len(paths) > 1 {
		return fmt.Errorf("--output can only be used with a single input file")
	}

	inputs := make([]parser.Input, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("input file not found: %s", path)
		}
		meta := models.StatementMetadata{
			FileName: filepath.Base(path),
			FileType: models.InferFileType(path),
			BankCode: bank,
			Password: password,
		}
		if !p.CanParse(meta) {
			return fmt.Errorf("%s: unsupported file type %q", path, filepath.Ext(path))
		}
		fmt.Printf("Queued: %s (%s)\n", path, humanize.Bytes(uint64(len(data))))
		inputs = append(inputs, parser.Input{Data: data, Metadata: meta})
	}

	outcomes := p.ParseMultiple(context.Background(), inputs)
	failed := 0
	for i, out := range outcomes {
		path := paths[i]
		fmt.Printf("Processing: %s\n", path)
		if out.Err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "  Error: %v\n", out.Err)
			if models.IsPasswordError(out.Err) {
				fmt.Fprintln(os.Stderr, "  The file is protected. Pass its password with --password.")
			}
			continue
		}
		if err := writeResult(path, outputPath, out.Result, includeHeader); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "  Error: %v\n", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(paths))
	}
	return nil
}

func writeResult(inputPath, outputPath string, res *models.StatementResult, includeHeader bool) error {
	fmt.Printf("  Bank: %s\n", res.Bank.Name)
	fmt.Printf("  Found %d transaction(s)\n", len(res.Transactions))
	if len(res.Transactions) == 0 {
		fmt.Println("  Warning: No transactions found. The file may not match the expected layout.")
		fmt.Println("  Try specifying the bank explicitly with --bank flag if auto-detection was used.")
	}

	outPath := outputPath
	if outPath == "" {
		outPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".csv"
	}
	w := &writer.CSVWriter{IncludeHeader: includeHeader}
	if err := w.WriteToFile(outPath, res); err != nil {
		return fmt.Errorf("CSV write failed: %w", err)
	}
	fmt.Printf("  Output: %s\n", outPath)

	acct := res.Account
	if acct.HolderName != nil {
		fmt.Printf("  Account holder: %s\n", *acct.HolderName)
	}
	if acct.AccountNumber != "" {
		fmt.Printf("  Account number: %s\n", acct.AccountNumber)
	}
	if !acct.PeriodStart.IsZero() {
		fmt.Printf("  Period: %s to %s\n", acct.PeriodStart.Format("2006-01-02"), acct.PeriodEnd.Format("2006-01-02"))
	}
	if acct.Currency == "COP" {
		fmt.Printf("  Closing balance: %s\n", fields.FormatCOP(fields.RoundPesos(acct.ClosingBalance)))
	}
	fmt.Println("  Done.")
	return nil
}

func parseMessage(text, sender string, logger *zap.Logger) error {
	p := message.NewTransactionParser(nil, message.WithLogger(logger))
	res, err := p.Parse(text, sender)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func serve(cfg *config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewPrometheusRecorder("extractor")
	if err := rec.Register(reg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	h := api.New(api.Options{
		Messages: message.NewTransactionParser(nil,
			message.WithLogger(logger),
			message.WithRecorder(rec),
		),
		Statements: parser.NewStatementParser(
			parser.WithLogger(logger),
			parser.WithRecorder(rec),
			parser.WithDecodeTimeout(cfg.DecodeTimeout),
			parser.WithWorkers(cfg.ParseWorkers),
		),
		Logger:         logger,
		Gatherer:       reg,
		MaxUploadBytes: cfg.MaxUploadBytes,
		PendingTTL:     cfg.PendingUploadTTL,
		Limiter:        limiter,
	})
	app := h.App()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		_ = app.Shutdown()
	}()

	logger.Info("listening",
		zap.String("port", cfg.Port),
		zap.String("maxUpload", humanize.Bytes(uint64(cfg.MaxUploadBytes))),
	)
	return app.Listen(":" + cfg.Port)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}
