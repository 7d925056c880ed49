package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/bharatbiz/bizagent/internal/application/port"
	"github.com/bharatbiz/bizagent/internal/domain/catalog"
	"github.com/bharatbiz/bizagent/internal/domain/entity"
	"github.com/bharatbiz/bizagent/internal/infrastructure/export"
	"github.com/bharatbiz/bizagent/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps   Deps
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Deps, logger Logger) *Handlers {
	return &Handlers{deps: deps, logger: logger}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ConversationResponse is the visible conversation state
type ConversationResponse struct {
	ID           string           `json:"id"`
	Transcript   []entity.Message `json:"transcript"`
	Draft        *entity.Invoice  `json:"draft,omitempty"`
	VoiceEnabled bool             `json:"voice_enabled"`
}

// MessageRequest is a user utterance
type MessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// VoiceRequest toggles spoken replies
type VoiceRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// ProductRequest installs a catalog product
type ProductRequest struct {
	Name     string          `json:"name" binding:"required"`
	Price    decimal.Decimal `json:"price"`
	Unit     string          `json:"unit"`
	Category string          `json:"category" binding:"required"`
}

// ReminderCompletion reports whether completing changed the reminder
type ReminderCompletion struct {
	Reminder *entity.Reminder `json:"reminder"`
	Changed  bool             `json:"changed"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// GetConversation handles GET /api/conversation
func (h *Handlers) GetConversation(c *gin.Context) {
	conv := h.deps.Conversation
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: ConversationResponse{
			ID:           conv.ID(),
			Transcript:   conv.Transcript(),
			Draft:        conv.Draft(),
			VoiceEnabled: conv.VoiceEnabled(),
		},
	})
}

// PostMessage handles POST /api/messages
func (h *Handlers) PostMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "text is required", err)
		return
	}

	reply := h.deps.Orchestrator.HandleMessage(c.Request.Context(), h.deps.Conversation, utils.SanitizeUtterance(req.Text))
	if reply == nil {
		h.badRequest(c, "message is empty", nil)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: reply})
}

// ConfirmDraft handles POST /api/draft/confirm
func (h *Handlers) ConfirmDraft(c *gin.Context) {
	reply := h.deps.Orchestrator.Confirm(c.Request.Context(), h.deps.Conversation)
	c.JSON(http.StatusOK, Response{Success: reply.Invoice != nil, Data: reply})
}

// DiscardDraft handles POST /api/draft/discard
func (h *Handlers) DiscardDraft(c *gin.Context) {
	reply := h.deps.Orchestrator.Discard(c.Request.Context(), h.deps.Conversation)
	c.JSON(http.StatusOK, Response{Success: true, Data: reply})
}

// SetVoice handles PUT /api/voice
func (h *Handlers) SetVoice(c *gin.Context) {
	var req VoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "enabled is required", err)
		return
	}

	h.deps.Conversation.SetVoice(*req.Enabled)
	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"voice_enabled": *req.Enabled}})
}

// GetSummary handles GET /api/summary
func (h *Handlers) GetSummary(c *gin.Context) {
	sum, err := h.deps.Queries.Summary(c.Request.Context())
	if err != nil {
		h.internalError(c, "failed to build summary", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: sum})
}

// ListInvoices handles GET /api/invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	invoices, err := h.deps.Queries.Invoices(c.Request.Context())
	if err != nil {
		h.internalError(c, "failed to retrieve invoices", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: invoices})
}

// GetInvoice handles GET /api/invoices/:id
func (h *Handlers) GetInvoice(c *gin.Context) {
	inv, ok := h.lookupInvoice(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: inv})
}

// ExportInvoices handles GET /api/invoices/export
func (h *Handlers) ExportInvoices(c *gin.Context) {
	invoices, err := h.deps.Queries.Invoices(c.Request.Context())
	if err != nil {
		h.internalError(c, "failed to retrieve invoices", err)
		return
	}
	h.writeWorkbook(c, export.FileName(""), invoices)
}

// ExportInvoice handles GET /api/invoices/:id/export
func (h *Handlers) ExportInvoice(c *gin.Context) {
	inv, ok := h.lookupInvoice(c)
	if !ok {
		return
	}
	h.writeWorkbook(c, export.FileName(inv.ID), []*entity.Invoice{inv})
}

// ListCustomers handles GET /api/customers
func (h *Handlers) ListCustomers(c *gin.Context) {
	customers, err := h.deps.Ledger.List(c.Request.Context())
	if err != nil {
		h.internalError(c, "failed to retrieve customers", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: customers})
}

// ListReminders handles GET /api/reminders
func (h *Handlers) ListReminders(c *gin.Context) {
	reminders, err := h.deps.Reminders.List(c.Request.Context())
	if err != nil {
		h.internalError(c, "failed to retrieve reminders", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: reminders})
}

// CompleteReminder handles POST /api/reminders/:id/complete
func (h *Handlers) CompleteReminder(c *gin.Context) {
	id := c.Param("id")
	r, changed, err := h.deps.Reminders.Complete(c.Request.Context(), id)
	if err != nil {
		h.internalError(c, "failed to complete reminder", err)
		return
	}
	if r == nil {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "reminder not found"})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: ReminderCompletion{Reminder: r, Changed: changed}})
}

// ListProducts handles GET /api/products
func (h *Handlers) ListProducts(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"products":  h.deps.Catalog.List(),
			"tax_rates": h.deps.Catalog.Taxes().Rates(),
		},
	})
}

// PutProduct handles PUT /api/products/:id
func (h *Handlers) PutProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid product", err)
		return
	}

	p := catalog.Product{
		ID:       c.Param("id"),
		Name:     req.Name,
		Price:    req.Price,
		Unit:     req.Unit,
		Category: catalog.TaxCategory(req.Category),
	}
	if err := h.deps.Catalog.Upsert(p); err != nil {
		if errors.Is(err, catalog.ErrInvalidProduct) {
			h.badRequest(c, err.Error(), nil)
			return
		}
		h.internalError(c, "failed to save product", err)
		return
	}

	h.logger.Info("Product saved", "product_id", p.ID, "price", p.Price.String())
	c.JSON(http.StatusOK, Response{Success: true, Data: p})
}

func (h *Handlers) lookupInvoice(c *gin.Context) (*entity.Invoice, bool) {
	id := c.Param("id")
	inv, err := h.deps.Queries.Invoice(c.Request.Context(), id)
	if errors.Is(err, port.ErrNotFound) {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "invoice not found"})
		return nil, false
	}
	if err != nil {
		h.internalError(c, "failed to retrieve invoice", err)
		return nil, false
	}
	return inv, true
}

func (h *Handlers) writeWorkbook(c *gin.Context, name string, invoices []*entity.Invoice) {
	var buf bytes.Buffer
	if err := h.deps.Exporter.Write(&buf, invoices); err != nil {
		h.internalError(c, "failed to export invoices", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

func (h *Handlers) badRequest(c *gin.Context, msg string, err error) {
	if err != nil {
		h.logger.Error("Invalid request", "path", c.FullPath(), "error", err)
	}
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

func (h *Handlers) internalError(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, "error", err)
	c.JSON(http.StatusInternalServerError, Response{Success: false, Error: msg})
}
