package api

import (
	"bytes"
	_ "embed"
	"errors"
	"html/template"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/insightdelivered/material-processor/internal/config"
	"github.com/insightdelivered/material-processor/internal/job"
	"github.com/insightdelivered/material-processor/internal/models"
	"github.com/insightdelivered/material-processor/internal/processor"
)

// BodyLimit caps multipart uploads (32MB).
const BodyLimit = 32 << 20

//go:embed form.html
var formHTML string

var formTemplate = template.Must(template.New("form").Parse(formHTML))

// RunResponse is the JSON response from the /api/run endpoint.
type RunResponse struct {
	Success      bool    `json:"success"`
	Error        string  `json:"error,omitempty"`
	RunID        string  `json:"runId,omitempty"`
	Task         string  `json:"task,omitempty"`
	Rows         int     `json:"rows"`
	Matched      int     `json:"matched,omitempty"`
	PurchaseRows int     `json:"purchaseRows,omitempty"`
	TotalCost    float64 `json:"totalCost,omitempty"`
	Output       string  `json:"output,omitempty"`
	Message      string  `json:"message,omitempty"`
}

// TaskInfo describes one task for the form and /api/tasks.
type TaskInfo struct {
	Name             string   `json:"name"`
	Title            string   `json:"title"`
	NeedsReference   bool     `json:"needsReference"`
	PrimaryColumns   []string `json:"primaryColumns"`
	ReferenceColumns []string `json:"referenceColumns,omitempty"`
}

// Handler holds the HTTP handlers for the web form.
type Handler struct {
	Labels  config.Labels
	Version string
}

// NewApp returns a fiber app with the handler's routes and middleware.
func NewApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "material-processor",
		BodyLimit:             BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	app.Use(requestLogger)
	h.RegisterRoutes(app)
	return app
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/", h.handleForm)
	app.Get("/api/health", h.handleHealth)
	app.Get("/api/tasks", h.handleTasks)
	app.Post("/api/run", h.handleRun)
}

func (h *Handler) tasks() []TaskInfo {
	infos := make([]TaskInfo, 0, len(models.Tasks()))
	for _, t := range models.Tasks() {
		p, r := processor.RequiredColumns(t, h.Labels)
		infos = append(infos, TaskInfo{
			Name:             string(t),
			Title:            t.Title(),
			NeedsReference:   t.NeedsReference(),
			PrimaryColumns:   p,
			ReferenceColumns: r,
		})
	}
	return infos
}

func (h *Handler) handleForm(c *fiber.Ctx) error {
	var buf bytes.Buffer
	err := formTemplate.Execute(&buf, map[string]interface{}{
		"Version": h.Version,
		"Tasks":   h.tasks(),
	})
	if err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

func (h *Handler) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"engine":  "fiber",
		"version": h.Version,
	})
}

func (h *Handler) handleTasks(c *fiber.Ctx) error {
	return c.JSON(h.tasks())
}

func (h *Handler) handleRun(c *fiber.Ctx) error {
	task, err := models.ParseTask(c.FormValue("task"))
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, err.Error())
	}

	qty := 1
	if raw := strings.TrimSpace(c.FormValue("production_qty")); raw != "" {
		if qty, err = strconv.Atoi(raw); err != nil {
			return writeError(c, fiber.StatusBadRequest, "production_qty must be a whole number")
		}
	}

	outcome, err := job.Run(c.UserContext(), job.Request{
		Task:          task,
		Primary:       job.UploadSource(formFile(c, "primary")),
		Reference:     job.UploadSource(formFile(c, "reference")),
		ProductionQty: qty,
		OutputPath:    c.FormValue("output_path"),
		Labels:        h.Labels,
	})
	if err != nil {
		return writeError(c, statusFor(err), err.Error())
	}

	resp := RunResponse{
		Success:      true,
		RunID:        outcome.RunID,
		Task:         string(outcome.Task),
		Rows:         outcome.Result.Rows,
		Matched:      outcome.Result.Matched,
		PurchaseRows: outcome.Result.PurchaseRows,
		Output:       outcome.Output,
		Message:      outcome.Message(),
	}
	if outcome.Result.TotalCost.Valid {
		resp.TotalCost = outcome.Result.TotalCost.Decimal.InexactFloat64()
	}
	return c.JSON(resp)
}

// formFile returns the named upload, or nil when the field is absent.
func formFile(c *fiber.Ctx, name string) *multipart.FileHeader {
	fh, err := c.FormFile(name)
	if err != nil {
		return nil
	}
	return fh
}

// statusFor maps run errors to HTTP status codes: missing inputs are the
// caller's fault; schema and detection problems are unprocessable uploads.
func statusFor(err error) int {
	var missing *models.MissingInputError
	switch {
	case errors.As(err, &missing):
		return fiber.StatusBadRequest
	case models.IsInputError(err):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(RunResponse{
		Success: false,
		Error:   msg,
	})
}

func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}
	return writeError(c, status, err.Error())
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	log.Debug().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("duration", time.Since(start)).
		Msg("HTTP request")
	return err
}
