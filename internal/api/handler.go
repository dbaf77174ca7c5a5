package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-insights/internal/buildinfo"
	"github.com/insightdelivered/statement-insights/internal/category"
	"github.com/insightdelivered/statement-insights/internal/detector"
	"github.com/insightdelivered/statement-insights/internal/extractor"
	"github.com/insightdelivered/statement-insights/internal/ingest"
	"github.com/insightdelivered/statement-insights/internal/logger"
	"github.com/insightdelivered/statement-insights/internal/models"
	"github.com/insightdelivered/statement-insights/internal/parser"
	"github.com/insightdelivered/statement-insights/internal/rules"
	"github.com/insightdelivered/statement-insights/internal/writer"
)

// AccountInfo holds account metadata for the JSON response.
type AccountInfo struct {
	Number   string            `json:"number,omitempty"`
	SortCode string            `json:"sortCode,omitempty"`
	Period   *models.DateRange `json:"period,omitempty"`
}

// ParseResponse is the JSON response from the parse endpoint.
type ParseResponse struct {
	Success      bool                 `json:"success"`
	Error        string               `json:"error,omitempty"`
	Bank         string               `json:"bank,omitempty"`
	AccountInfo  *AccountInfo         `json:"accountInfo,omitempty"`
	Transactions []models.Transaction `json:"transactions"`
	CSV          string               `json:"csv,omitempty"`
	TotalDebit   decimal.Decimal      `json:"totalDebit"`
	TotalCredit  decimal.Decimal      `json:"totalCredit"`
	Count        int                  `json:"count"`
	Rejected     int                  `json:"rejected"`
	Version      string               `json:"version,omitempty"`
}

// DetectRequest is the body of the detect and suggest endpoints. Rules, when
// given, replace the rule set the provider would supply for UserID.
type DetectRequest struct {
	UserID       string               `json:"userId"`
	Term         string               `json:"term"`
	Transactions []models.Transaction `json:"transactions"`
	Rules        *rules.File          `json:"rules"`
}

// DetectResponse carries recurring suggestions.
type DetectResponse struct {
	Success     bool                         `json:"success"`
	Error       string                       `json:"error,omitempty"`
	Suggestions []models.RecurringSuggestion `json:"suggestions"`
	Count       int                          `json:"count"`
}

// AnalyzeResponse is a parsed statement plus its recurring suggestions.
type AnalyzeResponse struct {
	Success     bool                         `json:"success"`
	Error       string                       `json:"error,omitempty"`
	Statement   *models.Statement            `json:"statement,omitempty"`
	Suggestions []models.RecurringSuggestion `json:"suggestions"`
	Count       int                          `json:"count"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	Ingestor   *ingest.Ingestor
	Detector   *detector.Detector
	Rules      rules.Provider
	Categories category.TreeProvider
	Logger     zerolog.Logger
}

// NewApp builds the fiber app with middleware and routes.
func NewApp(h *Handler, bodyLimitMB int) *fiber.App {
	if bodyLimitMB <= 0 {
		bodyLimitMB = 32
	}
	app := fiber.New(fiber.Config{
		AppName:      "statement-insights",
		BodyLimit:    bodyLimitMB << 20,
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	app.Use(h.requestLogger)
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api")
	api.Get("/health", h.HandleHealth)
	api.Post("/statements/parse", h.HandleParse)
	api.Post("/statements/analyze", h.HandleAnalyze)
	api.Post("/recurring/detect", h.HandleDetect)
	api.Post("/recurring/suggest", h.HandleSuggest)
}

// requestLogger attaches a request-scoped logger to the user context and
// logs each completed request.
func (h *Handler) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	log := logger.WithFields(h.Logger, map[string]interface{}{
		"request_id": uuid.NewString(),
		"method":     c.Method(),
		"path":       c.Path(),
	})
	c.SetUserContext(logger.WithContext(c.UserContext(), log))

	// errors are rendered here so the logged status is the one sent
	err := c.Next()
	if err != nil {
		err = errorHandler(c, err)
	}
	log.Info().Int("status", c.Response().StatusCode()).Dur("elapsed", time.Since(start)).Msg("request")
	return err
}

// HandleHealth reports liveness and the build version.
func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": buildinfo.Version,
		"engine":  "fiber",
	})
}

// HandleParse converts an uploaded statement into transactions.
// Form fields: file (required), bank (optional), header ("false" drops CSV
// metadata rows).
func (h *Handler) HandleParse(c *fiber.Ctx) error {
	st, err := h.ingestUpload(c)
	if err != nil {
		return err
	}

	var csvBuf bytes.Buffer
	csvWriter := &writer.CSVWriter{IncludeHeader: c.FormValue("header") != "false"}
	if err := csvWriter.Write(&csvBuf, st); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("CSV generation failed: %v", err))
	}

	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for _, txn := range st.Transactions {
		if txn.IsDebit() {
			totalDebit = totalDebit.Add(txn.Amount.Abs())
		} else {
			totalCredit = totalCredit.Add(txn.Amount)
		}
	}

	// nil marshals to JSON null, not []
	txns := st.Transactions
	if txns == nil {
		txns = []models.Transaction{}
	}

	resp := ParseResponse{
		Success:      true,
		Bank:         string(st.Bank),
		Transactions: txns,
		CSV:          csvBuf.String(),
		TotalDebit:   totalDebit,
		TotalCredit:  totalCredit,
		Count:        len(txns),
		Rejected:     st.Rejected,
		Version:      buildinfo.Version,
	}
	if md := st.Metadata; md.AccountNumberMasked != "" || md.SortCode != "" || md.StatementPeriod != nil {
		resp.AccountInfo = &AccountInfo{
			Number:   md.AccountNumberMasked,
			SortCode: md.SortCode,
			Period:   md.StatementPeriod,
		}
	}
	return c.JSON(resp)
}

// HandleDetect runs bulk detection over posted transactions.
func (h *Handler) HandleDetect(c *fiber.Ctx) error {
	req, rs, err := h.detectRequest(c)
	if err != nil {
		return err
	}
	out, err := h.Detector.Detect(c.UserContext(), req.Transactions, rs)
	if err != nil {
		return err
	}
	return c.JSON(DetectResponse{Success: true, Suggestions: out, Count: len(out)})
}

// HandleSuggest runs live suggestion for a search term.
func (h *Handler) HandleSuggest(c *fiber.Ctx) error {
	req, rs, err := h.detectRequest(c)
	if err != nil {
		return err
	}
	out, err := h.Detector.Suggest(c.UserContext(), req.Term, req.Transactions, rs)
	if err != nil {
		return err
	}
	return c.JSON(DetectResponse{Success: true, Suggestions: out, Count: len(out)})
}

// HandleAnalyze parses an upload and analyzes it for recurring payments,
// mapping suggestions onto the user's category tree when one exists.
func (h *Handler) HandleAnalyze(c *fiber.Ctx) error {
	st, err := h.ingestUpload(c)
	if err != nil {
		return err
	}
	ctx := c.UserContext()
	userID := c.FormValue("userId")

	rs, err := h.ruleSet(ctx, userID)
	if err != nil {
		return err
	}
	var tree []*models.CategoryNode
	if h.Categories != nil {
		if tree, err = h.Categories.Tree(ctx, userID); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("loading categories: %v", err))
		}
	}

	out, err := h.Detector.Analyze(ctx, st.Transactions, rs, tree)
	if err != nil {
		return err
	}
	return c.JSON(AnalyzeResponse{Success: true, Statement: st, Suggestions: out, Count: len(out)})
}

func (h *Handler) ingestUpload(c *fiber.Ctx) (*models.Statement, error) {
	bank, err := parser.ParseBankHint(c.FormValue("bank"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	header, err := c.FormFile("file")
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "No file uploaded. Use form field 'file'.")
	}
	f, err := header.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Failed to read uploaded file.")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Failed to read uploaded file.")
	}

	return h.Ingestor.Ingest(c.UserContext(), data, bank)
}

func (h *Handler) detectRequest(c *fiber.Ctx) (*DetectRequest, *models.RuleSet, error) {
	var req DetectRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
	}
	if req.Rules != nil {
		rs, err := req.Rules.RuleSet()
		if err != nil {
			return nil, nil, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid rules: %v", err))
		}
		return &req, rs, nil
	}
	rs, err := h.ruleSet(c.UserContext(), req.UserID)
	if err != nil {
		return nil, nil, err
	}
	return &req, rs, nil
}

// ruleSet asks the provider; no provider means no rules, which is not an error.
func (h *Handler) ruleSet(ctx context.Context, userID string) (*models.RuleSet, error) {
	if h.Rules == nil {
		return nil, nil
	}
	rs, err := h.Rules.RuleSet(ctx, userID)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("loading rules: %v", err))
	}
	return rs, nil
}

// errorHandler maps pipeline errors onto status codes: decode failures are
// 422, timeouts 504, abandoned requests 499.
func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := err.Error()

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		status = fe.Code
	case errors.Is(err, extractor.ErrTimeout):
		status = fiber.StatusGatewayTimeout
		msg = "Statement decoding timed out. Please try again or re-upload the file."
	case errors.Is(err, extractor.ErrDecodeFailure):
		status = fiber.StatusUnprocessableEntity
		msg = fmt.Sprintf("Statement could not be read: %v", err)
	case errors.Is(err, context.Canceled):
		status = 499
	}

	log := logger.FromContext(c.UserContext())
	log.Warn().Err(err).Int("status", status).Msg("request failed")
	if strings.HasPrefix(c.Path(), "/api/recurring") {
		return c.Status(status).JSON(DetectResponse{Error: msg, Suggestions: []models.RecurringSuggestion{}})
	}
	return c.Status(status).JSON(ParseResponse{Error: msg, Transactions: []models.Transaction{}})
}
