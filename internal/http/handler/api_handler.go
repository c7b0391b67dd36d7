package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sifan077/LinkDesk/internal/app/model"
	"github.com/sifan077/LinkDesk/internal/app/service"
	"go.uber.org/zap"
)

const maxImageBytes = 10 << 20

// UploadFailuresHeader reports how many attachments were committed without
// their image.
const UploadFailuresHeader = "X-Upload-Failures"

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger       *zap.Logger
	Store        *service.ModerationStore
	Uploader     service.ImageUploader
	UploadFolder string
}

// APIHandler implements the moderation console endpoints.
type APIHandler struct {
	logger       *zap.Logger
	store        *service.ModerationStore
	uploader     service.ImageUploader
	uploadFolder string
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:       logger,
		store:        deps.Store,
		uploader:     deps.Uploader,
		uploadFolder: deps.UploadFolder,
	}
}

// Register wires API routes onto the provided router.
func (h *APIHandler) Register(router fiber.Router) {
	urls := router.Group("/urls")
	{
		urls.Get("/", h.ListURLs)
		urls.Post("/", h.CreateURL)
		urls.Get("/:id", h.GetURL)
		urls.Post("/:id/approve", h.ApproveURL)
		urls.Post("/:id/reject", h.RejectURL)
		urls.Post("/:id/rejections", h.RejectWithAttachments)
		urls.Delete("/:id/errors/:index", h.RemoveError)
		urls.Post("/:id/visits", h.RecordVisit)
	}

	router.Get("/domains", h.ListDomains)
	router.Get("/domain-order", h.GetDomainOrder)
	router.Put("/domain-order", h.SaveDomainOrder)
}

// ListURLs handles GET /api/urls
//
// ?status= queries the store directly; otherwise the cache is reloaded.
// ?domain= narrows either result to one hostname.
func (h *APIHandler) ListURLs(c *fiber.Ctx) error {
	ctx := c.UserContext()
	status := c.Query("status")
	domain := strings.ToLower(strings.TrimSpace(c.Query("domain")))

	var (
		records []model.URLRecord
		err     error
	)
	switch {
	case status != "":
		records, err = h.store.ListByStatus(ctx, model.Status(status))
		if err == nil && domain != "" {
			records = onDomain(records, domain)
		}
	default:
		records, err = h.store.FetchAll(ctx)
		if err == nil && domain != "" {
			records = h.store.URLsByDomain(domain)
		}
	}
	if err != nil {
		return respondError(c, err)
	}

	response := make([]URLResponse, len(records))
	for i, rec := range records {
		response[i] = urlResponse(rec)
	}

	return c.JSON(fiber.Map{
		"urls":  response,
		"count": len(response),
	})
}

// CreateURL handles POST /api/urls
func (h *APIHandler) CreateURL(c *fiber.Ctx) error {
	var req CreateURLRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Original == "" {
		return badRequest(c, "original is required")
	}

	// Form-encoded values point into the request buffer; the store keeps them.
	id, err := h.store.Add(c.UserContext(), service.AddURLInput{
		Name:     utils.CopyString(req.Name),
		Original: utils.CopyString(req.Original),
		SiteName: utils.CopyString(req.SiteName),
	})
	if err != nil {
		return respondError(c, err)
	}

	rec, ok := h.store.URL(id)
	if !ok {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
	}
	return c.Status(fiber.StatusCreated).JSON(urlResponse(rec))
}

// GetURL handles GET /api/urls/:id
func (h *APIHandler) GetURL(c *fiber.Ctx) error {
	rec, err := h.store.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(urlResponse(*rec))
}

// ApproveURL handles POST /api/urls/:id/approve
func (h *APIHandler) ApproveURL(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.store.Approve(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return h.respondRecord(c, id)
}

// RejectURL handles POST /api/urls/:id/reject with a JSON list of reasons.
func (h *APIHandler) RejectURL(c *fiber.Ctx) error {
	var req RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	ctx := c.UserContext()
	id := c.Params("id")
	session := service.NewRejectionSession(h.store, h.uploader, h.uploadFolder)
	session.Open(id)
	for _, e := range req.Errors {
		text := utils.CopyString(e.Text)
		in := service.TextOnly(text)
		if e.ImageURL != "" {
			in = service.WithImageURL(text, utils.CopyString(e.ImageURL), utils.CopyString(e.ImagePreview))
		}
		// Blank reasons are skipped, like the console does.
		_ = session.Stage(ctx, in)
	}

	if err := session.Commit(ctx); err != nil {
		return respondError(c, err)
	}
	return h.respondRecord(c, id)
}

// RejectWithAttachments handles POST /api/urls/:id/rejections.
//
// The multipart form pairs the i-th "text" value with the i-th "image" file
// and the i-th "preview" value, when present.
func (h *APIHandler) RejectWithAttachments(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "invalid multipart form")
	}

	texts := form.Value["text"]
	previews := form.Value["preview"]
	images := form.File["image"]

	ctx := c.UserContext()
	id := c.Params("id")
	session := service.NewRejectionSession(h.store, h.uploader, h.uploadFolder)
	session.Open(id)

	for i, text := range texts {
		preview := ""
		if i < len(previews) {
			preview = previews[i]
		}

		in := service.TextOnly(text)
		if i < len(images) {
			img, err := readImage(images[i])
			if err != nil {
				h.logger.Warn("failed to read attachment", zap.String("id", id), zap.Error(err))
				return badRequest(c, "invalid image attachment")
			}
			in = service.WithRawImage(text, img, preview)
		}
		_ = session.Stage(ctx, in)
	}

	if err := session.Commit(ctx); err != nil {
		return respondError(c, err)
	}
	if n := session.UploadFailures(); n > 0 {
		c.Set(UploadFailuresHeader, strconv.Itoa(n))
	}
	return h.respondRecord(c, id)
}

// RemoveError handles DELETE /api/urls/:id/errors/:index
func (h *APIHandler) RemoveError(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return badRequest(c, "index must be an integer")
	}

	id := c.Params("id")
	if err := h.store.RemoveError(c.UserContext(), id, index); err != nil {
		return respondError(c, err)
	}
	return h.respondRecord(c, id)
}

// RecordVisit handles POST /api/urls/:id/visits. The body is optional
// visitor metadata.
func (h *APIHandler) RecordVisit(c *fiber.Ctx) error {
	var info *model.VisitorInfo
	if body := bytes.TrimSpace(c.Body()); len(body) > 0 {
		info = &model.VisitorInfo{}
		if err := json.Unmarshal(body, info); err != nil {
			return badRequest(c, "invalid visitor info")
		}
	}

	id := c.Params("id")
	if err := h.store.RecordVisit(c.UserContext(), id, info); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListDomains handles GET /api/domains
func (h *APIHandler) ListDomains(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"domains": h.store.UniqueDomains(),
	})
}

// GetDomainOrder handles GET /api/domain-order
func (h *APIHandler) GetDomainOrder(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"order": h.store.EnsureDomainOrder(c.UserContext()),
	})
}

// SaveDomainOrder handles PUT /api/domain-order
func (h *APIHandler) SaveDomainOrder(c *fiber.Ctx) error {
	var req DomainOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	order := make([]string, len(req.Order))
	for i, d := range req.Order {
		order[i] = utils.CopyString(d)
	}
	if err := h.store.SaveDomainOrder(c.UserContext(), order); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"order": h.store.DomainOrder(),
	})
}

func (h *APIHandler) respondRecord(c *fiber.Ctx, id string) error {
	if rec, ok := h.store.URL(id); ok {
		return c.JSON(urlResponse(rec))
	}
	rec, err := h.store.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(urlResponse(*rec))
}

func onDomain(records []model.URLRecord, domain string) []model.URLRecord {
	out := make([]model.URLRecord, 0, len(records))
	for _, rec := range records {
		if host, ok := service.Hostname(rec.Original); ok && host == domain {
			out = append(out, rec)
		}
	}
	return out
}

func urlResponse(rec model.URLRecord) URLResponse {
	domain, _ := service.Hostname(rec.Original)
	return toURLResponse(rec, domain)
}

func readImage(fh *multipart.FileHeader) (model.ImageFile, error) {
	f, err := fh.Open()
	if err != nil {
		return model.ImageFile{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes))
	if err != nil {
		return model.ImageFile{}, err
	}
	return model.ImageFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Data:        data,
	}, nil
}
