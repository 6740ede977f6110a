package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/service"
)

type fakeChecker struct {
	result *service.CheckResult
	err    error
	texts  []string
}

func (f *fakeChecker) CheckDocument(ctx context.Context, text string) (*service.CheckResult, error) {
	f.texts = append(f.texts, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractText(ctx context.Context, reader io.Reader, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeSweeper struct {
	result *service.SweepResult
	calls  int
}

func (f *fakeSweeper) RunSweep(ctx context.Context) *service.SweepResult {
	f.calls++
	return f.result
}

type fakeArchiver struct {
	err     error
	objects []string
}

func (f *fakeArchiver) ArchiveUpload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	f.objects = append(f.objects, objectName)
	if f.err != nil {
		return f.err
	}
	io.Copy(io.Discard, reader)
	return nil
}

func pdfUploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	fmt.Fprint(part, content)
	writer.Close()

	req := httptest.NewRequest("POST", "/check", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func newCheckRouter(h *ComplianceHandler) *gin.Engine {
	router := gin.New()
	router.POST("/check", h.Check)
	router.GET("/templates", h.ListTemplates)
	router.POST("/sweep", h.TriggerSweep)
	return router
}

func TestComplianceHandlerCheck(t *testing.T) {
	checker := &fakeChecker{
		result: &service.CheckResult{
			AgreementType: model.TypeDataProcessing,
			Report:        &model.ComplianceReport{RiskScore: 42, MissingClauses: []string{"Breach notification"}},
		},
	}
	archiver := &fakeArchiver{}
	h := NewComplianceHandler(checker, &fakeExtractor{text: "extracted contract text"}, service.NewMemoryLibrary(), &fakeSweeper{}, archiver)

	w := httptest.NewRecorder()
	newCheckRouter(h).ServeHTTP(w, pdfUploadRequest(t, "contract.pdf", "%PDF-1.4 fake content"))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var result service.CheckResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if result.AgreementType != model.TypeDataProcessing {
		t.Errorf("Unexpected agreement type: %s", result.AgreementType)
	}
	if result.Report.RiskScore != 42 {
		t.Errorf("Unexpected risk score: %d", result.Report.RiskScore)
	}

	if len(checker.texts) != 1 || checker.texts[0] != "extracted contract text" {
		t.Errorf("Checker should receive extracted text, got %v", checker.texts)
	}
	if len(archiver.objects) != 1 {
		t.Errorf("Expected one archived upload, got %d", len(archiver.objects))
	}
}

func TestComplianceHandlerCheckNoFile(t *testing.T) {
	h := NewComplianceHandler(&fakeChecker{}, &fakeExtractor{}, service.NewMemoryLibrary(), &fakeSweeper{}, nil)

	req := httptest.NewRequest("POST", "/check", nil)
	w := httptest.NewRecorder()
	newCheckRouter(h).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestComplianceHandlerCheckRejectsNonPDF(t *testing.T) {
	h := NewComplianceHandler(&fakeChecker{}, &fakeExtractor{}, service.NewMemoryLibrary(), &fakeSweeper{}, nil)

	w := httptest.NewRecorder()
	newCheckRouter(h).ServeHTTP(w, pdfUploadRequest(t, "contract.docx", "not a pdf"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for non-PDF upload, got %d", w.Code)
	}
}

func TestComplianceHandlerCheckMissingTemplate(t *testing.T) {
	checker := &fakeChecker{err: fmt.Errorf("%w: Processor-to-Subprocessor Agreement", service.ErrTemplateNotFound)}
	h := NewComplianceHandler(checker, &fakeExtractor{text: "text"}, service.NewMemoryLibrary(), &fakeSweeper{}, nil)

	w := httptest.NewRecorder()
	newCheckRouter(h).ServeHTTP(w, pdfUploadRequest(t, "contract.pdf", "%PDF-1.4"))

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected status 422, got %d", w.Code)
	}
}

func TestComplianceHandlerCheckPipelineFailure(t *testing.T) {
	checker := &fakeChecker{err: fmt.Errorf("%w: upstream timeout", service.ErrClassification)}
	h := NewComplianceHandler(checker, &fakeExtractor{text: "text"}, service.NewMemoryLibrary(), &fakeSweeper{}, nil)

	w := httptest.NewRecorder()
	newCheckRouter(h).ServeHTTP(w, pdfUploadRequest(t, "contract.pdf", "%PDF-1.4"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
}

func TestComplianceHandlerCheckExtractionFailure(t *testing.T) {
	h := NewComplianceHandler(&fakeChecker{}, &fakeExtractor{err: errors.New("corrupt pdf")}, service.NewMemoryLibrary(), &fakeSweeper{}, nil)

	w := httptest.NewRecorder()
	newCheckRouter(h).ServeHTTP(w, pdfUploadRequest(t, "contract.pdf", "garbage"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestComplianceHandlerCheckArchiveFailureIsNonFatal(t *testing.T) {
	checker := &fakeChecker{result: &service.CheckResult{
		AgreementType: model.TypeJointController,
		Report:        &model.ComplianceReport{},
	}}
	archiver := &fakeArchiver{err: errors.New("bucket unavailable")}
	h := NewComplianceHandler(checker, &fakeExtractor{text: "text"}, service.NewMemoryLibrary(), &fakeSweeper{}, archiver)

	w := httptest.NewRecorder()
	newCheckRouter(h).ServeHTTP(w, pdfUploadRequest(t, "contract.pdf", "%PDF-1.4"))

	if w.Code != http.StatusOK {
		t.Errorf("Archive failure should not block the check, got %d", w.Code)
	}
}

func TestComplianceHandlerListTemplates(t *testing.T) {
	library := service.NewMemoryLibrary()
	clauses := []model.ClauseRecord{{ClauseID: "1", Heading: "Security", Text: "Article 32 measures"}}
	err := library.Put(context.Background(), &model.TemplateEntry{
		AgreementType: model.TypeDataProcessing,
		Clauses:       clauses,
		ContentHash:   model.ClausesDigest(clauses),
		SourceURL:     "https://example.com/dpa.pdf",
	})
	if err != nil {
		t.Fatalf("Failed to seed library: %v", err)
	}

	h := NewComplianceHandler(&fakeChecker{}, &fakeExtractor{}, library, &fakeSweeper{}, nil)

	req := httptest.NewRequest("GET", "/templates", nil)
	w := httptest.NewRecorder()
	newCheckRouter(h).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Templates []struct {
			AgreementType string `json:"agreement_type"`
			Key           string `json:"key"`
			Present       bool   `json:"present"`
			ClauseCount   int    `json:"clause_count"`
		} `json:"templates"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if len(response.Templates) != len(model.AllAgreementTypes()) {
		t.Fatalf("Expected %d templates, got %d", len(model.AllAgreementTypes()), len(response.Templates))
	}

	presentCount := 0
	for _, tpl := range response.Templates {
		if tpl.Present {
			presentCount++
			if tpl.Key != "DPA" {
				t.Errorf("Expected DPA present, got %s", tpl.Key)
			}
			if tpl.ClauseCount != 1 {
				t.Errorf("Expected 1 clause, got %d", tpl.ClauseCount)
			}
		}
	}
	if presentCount != 1 {
		t.Errorf("Expected exactly one present template, got %d", presentCount)
	}
}

func TestComplianceHandlerTriggerSweep(t *testing.T) {
	sweeper := &fakeSweeper{result: &service.SweepResult{
		Changes: []string{"Data Processing Agreement: new template created"},
		Errors:  []string{},
	}}
	h := NewComplianceHandler(&fakeChecker{}, &fakeExtractor{}, service.NewMemoryLibrary(), sweeper, nil)

	req := httptest.NewRequest("POST", "/sweep", nil)
	w := httptest.NewRecorder()
	newCheckRouter(h).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if sweeper.calls != 1 {
		t.Errorf("Expected one sweep run, got %d", sweeper.calls)
	}

	var result service.SweepResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(result.Changes) != 1 {
		t.Errorf("Unexpected changes: %v", result.Changes)
	}
}
