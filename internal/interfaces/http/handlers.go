package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/councilworks/finance-portal/internal/application/service"
	"github.com/councilworks/finance-portal/internal/domain/apperr"
	"github.com/councilworks/finance-portal/internal/domain/entity"
)

// Request size cap for multipart submissions.
const maxUploadBytes = 32 << 20

// Handlers contains all HTTP request handlers
type Handlers struct {
	documentService service.DocumentService
	approvalService service.ApprovalService
	voucherService  service.VoucherService
	logger          Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	documentService service.DocumentService,
	approvalService service.ApprovalService,
	voucherService service.VoucherService,
	logger Logger,
) *Handlers {
	return &Handlers{
		documentService: documentService,
		approvalService: approvalService,
		voucherService:  voucherService,
		logger:          logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Fields  []string    `json:"fields,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// DocumentResponse represents a reimbursement document in API responses.
// Amounts are decimal strings derived from the stored minor units.
type DocumentResponse struct {
	DocumentID       string               `json:"document_id"`
	StudentID        string               `json:"student_id"`
	EventDetails     entity.EventDetails  `json:"event_details"`
	Items            []ItemResponse       `json:"reimbursement_items"`
	TotalAmount      string               `json:"total_amount"`
	BankDetails      entity.BankDetails   `json:"bank_details"`
	StaffType        entity.StaffRole     `json:"staff_type"`
	StaffStatus      entity.StaffStatus   `json:"staff_status"`
	RejectionRemarks string               `json:"rejection_remarks,omitempty"`
	Version          int64                `json:"version"`
	CreatedAt        string               `json:"created_at"`
	UpdatedAt        string               `json:"updated_at"`
}

// ItemResponse represents one bill line item in API responses
type ItemResponse struct {
	BillID      string `json:"bill_id"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	FileURL     string `json:"file_url"`
}

// DecisionRequest is the body of POST /api/reimbursements/:documentId/decision
type DecisionRequest struct {
	Decision string `json:"decision" binding:"required"`
	Remarks  string `json:"remarks"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// CreateDocument handles POST /api/reimbursements. The request is
// multipart: a "document" JSON part plus one "files" part per bill
// item, in item order.
func (h *Handlers) CreateDocument(c *gin.Context) {
	studentID := c.GetHeader("X-Student-ID")
	if studentID == "" {
		h.respondError(c, apperr.Validation("X-Student-ID header is required", "student_id"))
		return
	}

	var in service.CreateInput
	files, err := h.parseMultipart(c, &in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	doc, err := h.documentService.Create(c.Request.Context(), studentID, in, files)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    toDocumentResponse(doc),
	})
}

// GetDocument handles GET /api/reimbursements/:documentId
func (h *Handlers) GetDocument(c *gin.Context) {
	doc, err := h.documentService.Get(c.Request.Context(), c.Param("documentId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toDocumentResponse(doc),
	})
}

// ListStudentDocuments handles GET /api/reimbursements/student/:studentId
func (h *Handlers) ListStudentDocuments(c *gin.Context) {
	docs, err := h.documentService.ListByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	responses := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		responses = append(responses, toDocumentResponse(doc))
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    responses,
	})
}

// updateDocumentBody is the "document" JSON part of a PATCH request.
type updateDocumentBody struct {
	Event            *service.EventInput `json:"event_details"`
	Bank             *service.BankInput  `json:"bank_details"`
	Items            []service.ItemInput `json:"reimbursement_items"`
	RejectionRemarks *string             `json:"rejection_remarks"`
}

// UpdateDocument handles PATCH /api/reimbursements/:documentId. The
// expected version comes from the If-Match header; replacing items
// requires the same multipart shape as creation.
func (h *Handlers) UpdateDocument(c *gin.Context) {
	expectedVersion, err := h.expectedVersion(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	var body updateDocumentBody
	files, err := h.parseMultipart(c, &body)
	if err != nil {
		h.respondError(c, err)
		return
	}

	in := service.UpdateInput{
		ExpectedVersion:  expectedVersion,
		Event:            body.Event,
		Bank:             body.Bank,
		Items:            body.Items,
		Files:            files,
		RejectionRemarks: body.RejectionRemarks,
	}

	doc, err := h.documentService.Update(c.Request.Context(), c.Param("documentId"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toDocumentResponse(doc),
	})
}

// DeleteDocument handles DELETE /api/reimbursements/:documentId
func (h *Handlers) DeleteDocument(c *gin.Context) {
	if err := h.documentService.Delete(c.Request.Context(), c.Param("documentId")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// RemoveBill handles DELETE /api/reimbursements/:documentId/bills/:billId
func (h *Handlers) RemoveBill(c *gin.Context) {
	expectedVersion, err := h.expectedVersion(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	doc, err := h.documentService.RemoveItem(c.Request.Context(), c.Param("documentId"), c.Param("billId"), expectedVersion)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toDocumentResponse(doc),
	})
}

// SubmitForReview handles POST /api/reimbursements/:documentId/submit
func (h *Handlers) SubmitForReview(c *gin.Context) {
	doc, err := h.approvalService.SubmitForReview(c.Request.Context(), c.Param("documentId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toDocumentResponse(doc),
	})
}

// Decide handles POST /api/reimbursements/:documentId/decision. The
// acting staff role comes from the X-Staff-Role header.
func (h *Handlers) Decide(c *gin.Context) {
	role := entity.StaffRole(c.GetHeader("X-Staff-Role"))
	if role == "" {
		h.respondError(c, apperr.Validation("X-Staff-Role header is required", "staff_role"))
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperr.Validation("invalid request body", "decision"))
		return
	}

	doc, err := h.approvalService.Decide(c.Request.Context(),
		c.Param("documentId"), role, entity.Decision(req.Decision), req.Remarks)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toDocumentResponse(doc),
	})
}

// GetHistory handles GET /api/reimbursements/:documentId/history
func (h *Handlers) GetHistory(c *gin.Context) {
	entries, err := h.approvalService.History(c.Request.Context(), c.Param("documentId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    entries,
	})
}

// ExportVoucher handles GET /api/reimbursements/:documentId/voucher
func (h *Handlers) ExportVoucher(c *gin.Context) {
	wb, filename, err := h.voucherService.Export(c.Request.Context(), c.Param("documentId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer wb.Close()

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := wb.Write(c.Writer); err != nil {
		h.logger.Error("Failed to stream voucher", "error", err, "filename", filename)
	}
}

// parseMultipart reads the "document" JSON part into dst and collects
// the "files" parts in submission order.
func (h *Handlers) parseMultipart(c *gin.Context, dst interface{}) ([]service.FileInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperr.Validation("expected multipart form data", "document")
	}

	docParts := form.Value["document"]
	if len(docParts) != 1 {
		return nil, apperr.Validation("exactly one document part is required", "document")
	}
	if err := json.Unmarshal([]byte(docParts[0]), dst); err != nil {
		return nil, apperr.Validation("document part is not valid JSON", "document")
	}

	var files []service.FileInput
	total := int64(0)
	for _, fh := range form.File["files"] {
		content, err := readFilePart(fh)
		if err != nil {
			return nil, err
		}
		total += int64(len(content))
		if total > maxUploadBytes {
			return nil, apperr.Validation("upload exceeds size limit", "files")
		}
		files = append(files, service.FileInput{Name: fh.Filename, Content: content})
	}
	return files, nil
}

func readFilePart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "failed to open uploaded file "+fh.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "failed to read uploaded file "+fh.Filename, err)
	}
	return content, nil
}

func (h *Handlers) expectedVersion(c *gin.Context) (int64, error) {
	raw := c.GetHeader("If-Match")
	if raw == "" {
		return 0, apperr.Validation("If-Match header with the document version is required", "version")
	}
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperr.Validation("If-Match header must be a version number", "version")
	}
	return version, nil
}

// respondError maps a classified error to an HTTP status. Internal
// details never leak to clients.
func (h *Handlers) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)

	status := http.StatusInternalServerError
	message := err.Error()
	var fields []string

	switch kind {
	case apperr.KindValidation, apperr.KindCountMismatch:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindUnauthorizedRole:
		status = http.StatusForbidden
	case apperr.KindInvalidState, apperr.KindStaleWrite:
		status = http.StatusConflict
	case apperr.KindUnsupportedFileType:
		status = http.StatusUnsupportedMediaType
	case apperr.KindFileUpload:
		status = http.StatusBadGateway
	default:
		h.logger.Error("Unhandled error", "error", err, "path", c.Request.URL.Path)
		message = "internal server error"
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		fields = appErr.Fields
	}

	c.JSON(status, Response{
		Success: false,
		Error:   message,
		Fields:  fields,
	})
}

// toDocumentResponse converts a domain entity to the API shape
func toDocumentResponse(doc *entity.ReimbursementDocument) DocumentResponse {
	items := make([]ItemResponse, 0, len(doc.Items))
	for _, it := range doc.Items {
		items = append(items, ItemResponse{
			BillID:      it.BillID,
			Description: it.Bill.Description,
			Date:        it.Bill.Date.Format("2006-01-02"),
			Amount:      entity.FormatPaise(it.Bill.AmountPaise),
			FileURL:     it.Bill.FileURL,
		})
	}

	return DocumentResponse{
		DocumentID:       doc.DocumentID,
		StudentID:        doc.StudentID,
		EventDetails:     doc.Event,
		Items:            items,
		TotalAmount:      doc.TotalAmount(),
		BankDetails:      doc.Bank,
		StaffType:        doc.StaffType,
		StaffStatus:      doc.StaffStatus,
		RejectionRemarks: doc.RejectionRemarks,
		Version:          doc.Version,
		CreatedAt:        doc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        doc.UpdatedAt.Format(time.RFC3339),
	}
}
