package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/middleware"
	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/pkg/logger"
	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/service"
)

// DocumentChecker runs the compliance pipeline over extracted text.
type DocumentChecker interface {
	CheckDocument(ctx context.Context, text string) (*service.CheckResult, error)
}

// SweepRunner refreshes the template library on demand.
type SweepRunner interface {
	RunSweep(ctx context.Context) *service.SweepResult
}

// UploadArchiver keeps a copy of uploaded contracts for audit.
type UploadArchiver interface {
	ArchiveUpload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
}

type ComplianceHandler struct {
	checker   DocumentChecker
	extractor service.TextExtractor
	library   service.TemplateLibrary
	sweeper   SweepRunner
	archiver  UploadArchiver
}

func NewComplianceHandler(checker DocumentChecker, extractor service.TextExtractor, library service.TemplateLibrary, sweeper SweepRunner, archiver UploadArchiver) *ComplianceHandler {
	return &ComplianceHandler{
		checker:   checker,
		extractor: extractor,
		library:   library,
		sweeper:   sweeper,
		archiver:  archiver,
	}
}

// Check handles a contract PDF upload and runs the full compliance review.
func (h *ComplianceHandler) Check(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pdf" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF files are allowed"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = "application/pdf"
	} else if !strings.Contains(contentType, "pdf") {
		// Try to detect from file header
		buffer := make([]byte, 512)
		if _, err := file.Read(buffer); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
			return
		}
		file.Seek(0, io.SeekStart)

		detectedType := http.DetectContentType(buffer)
		if !strings.Contains(detectedType, "pdf") && detectedType != "application/octet-stream" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type"})
			return
		}
		contentType = "application/pdf"
	}

	ctx := c.Request.Context()

	// Archival is best effort; a storage hiccup never blocks the review.
	if h.archiver != nil {
		objectName := fmt.Sprintf("%s/%s/%s", middleware.GetUsername(c), uuid.New().String(), header.Filename)
		if err := h.archiver.ArchiveUpload(ctx, objectName, file, header.Size, contentType); err != nil {
			logger.Warn(ctx, "failed to archive upload", "error", err)
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
			return
		}
	}

	text, err := h.extractor.ExtractText(ctx, file, header.Filename)
	if err != nil {
		logger.Error(ctx, "failed to extract text from upload", "error", err, "filename", header.Filename)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to extract text from PDF"})
		return
	}

	result, err := h.checker.CheckDocument(ctx, text)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No reference template for this document type"})
			return
		}
		logger.Error(ctx, "compliance check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Compliance check failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListTemplates reports the state of every reference template.
func (h *ComplianceHandler) ListTemplates(c *gin.Context) {
	ctx := c.Request.Context()

	templates := make([]gin.H, 0, len(model.AllAgreementTypes()))
	for _, agreementType := range model.AllAgreementTypes() {
		item := gin.H{
			"agreement_type": agreementType,
			"key":            agreementType.Key(),
			"present":        false,
		}

		entry, err := h.library.Get(ctx, agreementType)
		switch {
		case errors.Is(err, service.ErrEntryNotFound):
			// absent entry, defaults stand
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read template library"})
			return
		default:
			item["present"] = true
			item["clause_count"] = len(entry.Clauses)
			item["content_hash"] = entry.ContentHash
			item["source_url"] = entry.SourceURL
			item["updated_at"] = entry.UpdatedAt.Format("2006-01-02T15:04:05Z07:00")
		}

		templates = append(templates, item)
	}

	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// TriggerSweep runs a template update sweep synchronously.
func (h *ComplianceHandler) TriggerSweep(c *gin.Context) {
	result := h.sweeper.RunSweep(c.Request.Context())
	c.JSON(http.StatusOK, result)
}
