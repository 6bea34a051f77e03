package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/insightdelivered/bank-transaction-extractor/internal/message"
	"github.com/insightdelivered/bank-transaction-extractor/internal/models"
	"github.com/insightdelivered/bank-transaction-extractor/internal/parser"
	"github.com/insightdelivered/bank-transaction-extractor/internal/writer"
)

const version = "2.0.0"

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	// Code is the error class, e.g. "no_match" or "password_required".
	Code     string `json:"code"`
	RawText  string `json:"rawText,omitempty"`
	FileName string `json:"fileName,omitempty"`
	// UploadID names a held upload awaiting its password.
	UploadID string `json:"uploadId,omitempty"`
}

// MessageRequest is the body of POST /api/messages/parse.
type MessageRequest struct {
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

// MessageResponse is a parsed message.
type MessageResponse struct {
	Success bool            `json:"success"`
	Result  *message.Result `json:"result"`
}

// StatementResponse is a parsed statement.
type StatementResponse struct {
	Success bool                    `json:"success"`
	Result  *models.StatementResult `json:"result"`
	Count   int                     `json:"count"`
}

// DetectResponse answers POST /api/statements/detect.
type DetectResponse struct {
	Success   bool              `json:"success"`
	Detected  bool              `json:"detected"`
	Detection *parser.Detection `json:"detection,omitempty"`
	CanParse  bool              `json:"canParse"`
}

// Options wires the server to the engines.
type Options struct {
	Messages   *message.TransactionParser
	Statements *parser.StatementParser
	Logger     *zap.Logger
	// Gatherer backs GET /metrics; nil leaves the route out.
	Gatherer       prometheus.Gatherer
	MaxUploadBytes int64
	PendingTTL     time.Duration
	// Limiter throttles every /api request; nil disables throttling.
	Limiter *rate.Limiter
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	messages   *message.TransactionParser
	statements *parser.StatementParser
	logger     *zap.Logger
	gatherer   prometheus.Gatherer
	maxUpload  int64
	pending    *pendingUploads
	limiter    *rate.Limiter
	policy     *bluemonday.Policy
}

// New returns a Handler. Missing engines are built with their defaults.
func New(opts Options) *Handler {
	h := &Handler{
		messages:   opts.Messages,
		statements: opts.Statements,
		logger:     opts.Logger,
		gatherer:   opts.Gatherer,
		maxUpload:  opts.MaxUploadBytes,
		limiter:    opts.Limiter,
		policy:     bluemonday.StrictPolicy(),
	}
	if h.messages == nil {
		h.messages = message.NewTransactionParser(nil)
	}
	if h.statements == nil {
		h.statements = parser.NewStatementParser()
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.maxUpload <= 0 {
		h.maxUpload = 32 << 20
	}
	ttl := opts.PendingTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	h.pending = newPendingUploads(ttl)
	return h
}

// App builds the fiber application with every route registered.
func (h *Handler) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "bank-transaction-extractor",
		BodyLimit:             int(h.maxUpload) + 1<<20,
		DisableStartupMessage: true,
		ErrorHandler:          h.errorHandler,
	})
	app.Use(recover.New())
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/api/health", HandleHealth)

	api := app.Group("/api", h.rateLimit)
	api.Post("/messages/parse", h.handleParseMessage)
	api.Post("/statements/parse", h.handleParseStatement)
	api.Post("/statements/detect", h.handleDetect)
	api.Post("/statements/:uploadId/unlock", h.handleUnlock)

	if h.gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}
}

// HandleHealth reports liveness.
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": version,
	})
}

func (h *Handler) handleParseMessage(c *fiber.Ctx) error {
	var req MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "invalid_input", "Body must be JSON with a 'text' field.")
	}
	// Messages are pasted from web and mobile clients; strip any markup.
	text := strings.TrimSpace(h.stripMarkup(req.Text))
	if text == "" {
		return writeError(c, fiber.StatusBadRequest, "invalid_input", "Field 'text' is required.")
	}

	res, err := h.messages.Parse(text, h.stripMarkup(req.Sender))
	if err != nil {
		return c.Status(statusFor(err)).JSON(ErrorResponse{
			Error:   err.Error(),
			Code:    models.ClassifyError(err),
			RawText: text,
		})
	}
	return c.JSON(MessageResponse{Success: true, Result: res})
}

// stripMarkup removes tags but keeps the text as typed. The policy escapes
// its output for HTML, which would turn "H&M" into "H&amp;M".
func (h *Handler) stripMarkup(s string) string {
	return html.UnescapeString(h.policy.Sanitize(s))
}

func (h *Handler) handleParseStatement(c *fiber.Ctx) error {
	data, meta, err := h.readUpload(c)
	if err != nil {
		return err
	}
	return h.parseStatement(c, data, meta, "")
}

func (h *Handler) handleUnlock(c *fiber.Ctx) error {
	id := c.Params("uploadId")
	up, ok := h.pending.get(id)
	if !ok {
		return writeError(c, fiber.StatusNotFound, "not_found", "Upload not found or expired. Upload the file again.")
	}
	password := c.FormValue("password")
	if password == "" {
		var body struct {
			Password string `json:"password"`
		}
		if err := c.BodyParser(&body); err == nil {
			password = body.Password
		}
	}
	if password == "" {
		return writeError(c, fiber.StatusBadRequest, "invalid_input", "Field 'password' is required.")
	}
	up.meta.Password = password
	return h.parseStatement(c, up.data, up.meta, id)
}

// parseStatement runs the engine and answers. Password failures hold the
// upload so the client only resends the password; uploadID is set when the
// upload is already held.
func (h *Handler) parseStatement(c *fiber.Ctx, data []byte, meta models.StatementMetadata, uploadID string) error {
	res, err := h.statements.Parse(c.UserContext(), data, meta)
	if err != nil {
		resp := ErrorResponse{
			Error:    err.Error(),
			Code:     models.ClassifyError(err),
			FileName: meta.FileName,
		}
		if models.IsPasswordError(err) {
			if uploadID == "" {
				uploadID = h.pending.put(data, meta)
			}
			resp.UploadID = uploadID
		}
		h.logger.Info("statement rejected",
			zap.String("file", meta.FileName),
			zap.String("code", resp.Code),
		)
		return c.Status(statusFor(err)).JSON(resp)
	}
	if uploadID != "" {
		h.pending.remove(uploadID)
	}
	h.logger.Info("statement parsed",
		zap.String("file", meta.FileName),
		zap.String("bank", string(res.Bank.Code)),
		zap.Int("transactions", len(res.Transactions)),
	)

	includeHeader := c.FormValue("header") != "false"
	if c.Query("format", c.FormValue("format")) == "csv" {
		var buf bytes.Buffer
		if err := (&writer.CSVWriter{IncludeHeader: includeHeader}).Write(&buf, res); err != nil {
			return fmt.Errorf("CSV generation failed: %w", err)
		}
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", csvName(meta.FileName)))
		return c.Send(buf.Bytes())
	}

	if res.Transactions == nil {
		res.Transactions = []models.StatementTransaction{}
	}
	return c.JSON(StatementResponse{Success: true, Result: res, Count: len(res.Transactions)})
}

func (h *Handler) handleDetect(c *fiber.Ctx) error {
	meta := models.StatementMetadata{FileName: c.FormValue("fileName")}
	var data []byte
	if fh, err := c.FormFile("file"); err == nil {
		if meta.FileName == "" {
			meta.FileName = fh.Filename
		}
		if data, err = readFile(fh, h.maxUpload); err != nil {
			return writeError(c, fiber.StatusBadRequest, "invalid_input", err.Error())
		}
	}
	if meta.FileName == "" {
		return writeError(c, fiber.StatusBadRequest, "invalid_input", "Send a 'file' or a 'fileName'.")
	}
	meta.FileType = models.InferFileType(meta.FileName)
	meta.Password = c.FormValue("password")

	resp := DetectResponse{Success: true, CanParse: h.statements.CanParse(meta)}
	if d, ok := h.statements.DetectBank(c.UserContext(), meta, data); ok {
		resp.Detected = true
		resp.Detection = &d
		resp.CanParse = h.statements.CanParse(models.StatementMetadata{
			FileName: meta.FileName, FileType: meta.FileType, BankCode: d.Bank,
		})
	}
	return c.JSON(resp)
}

// readUpload reads the multipart "file" field and the optional "bank" and
// "password" fields.
func (h *Handler) readUpload(c *fiber.Ctx) ([]byte, models.StatementMetadata, error) {
	var meta models.StatementMetadata
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, meta, fiber.NewError(fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}
	data, err := readFile(fh, h.maxUpload)
	if err != nil {
		return nil, meta, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	meta.FileName = fh.Filename
	meta.FileType = models.InferFileType(fh.Filename)
	meta.Password = c.FormValue("password")
	if bank := c.FormValue("bank"); bank != "" {
		code, ok := models.ParseBankCode(bank)
		if !ok {
			return nil, meta, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Unknown bank: %q.", bank))
		}
		meta.BankCode = code
	}
	return data, meta, nil
}

func readFile(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file exceeds %d bytes", limit)
	}
	return data, nil
}

// rateLimit rejects requests beyond the configured rate.
func (h *Handler) rateLimit(c *fiber.Ctx) error {
	if h.limiter != nil && !h.limiter.Allow() {
		h.logger.Warn("rate limit exceeded", zap.String("path", c.Path()))
		return writeError(c, fiber.StatusTooManyRequests, "rate_limited", "Too many requests.")
	}
	return c.Next()
}

func (h *Handler) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return writeError(c, fe.Code, "invalid_input", fe.Message)
	}
	h.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return writeError(c, fiber.StatusInternalServerError, "internal_error", "Internal server error.")
}

// statusFor maps the engine's error classes to HTTP statuses.
func statusFor(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusGatewayTimeout
	}
	switch models.ClassifyError(err) {
	case "password_required", "password_invalid":
		return fiber.StatusUnauthorized
	case "invalid_input":
		return fiber.StatusBadRequest
	case "unsupported_file":
		return fiber.StatusUnsupportedMediaType
	case "no_match", "extraction_failed", "decode_error":
		return fiber.StatusUnprocessableEntity
	}
	return fiber.StatusInternalServerError
}

func writeError(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Error: msg, Code: code})
}

func csvName(fileName string) string {
	if i := strings.LastIndex(fileName, "."); i > 0 {
		fileName = fileName[:i]
	}
	return fileName + ".csv"
}
