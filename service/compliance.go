package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/pkg/logger"
)

// CheckResult is the outcome of one compliance check. Notified is nil when
// the risk score was 0 and no alert was attempted.
type CheckResult struct {
	AgreementType model.AgreementType     `json:"agreement_type"`
	Report        *model.ComplianceReport `json:"report"`
	RawAnalysis   string                  `json:"raw_analysis,omitempty"`
	Notified      map[Channel]bool        `json:"notified,omitempty"`
}

// ComplianceService runs the foreground review pipeline: classify, extract,
// look up the reference template, compare, parse, and conditionally alert.
type ComplianceService struct {
	analyzer DocumentAnalyzer
	library  TemplateLibrary
	notifier Notifier
}

func NewComplianceService(analyzer DocumentAnalyzer, library TemplateLibrary, notifier Notifier) *ComplianceService {
	return &ComplianceService{
		analyzer: analyzer,
		library:  library,
		notifier: notifier,
	}
}

// ExtractionModeFor picks the clause extraction mode for a type. Data
// Processing Agreements carry enough clause volume that summaries are used
// for comparison; everything else keeps verbatim text.
func ExtractionModeFor(t model.AgreementType) ExtractionMode {
	if t == model.TypeDataProcessing {
		return ModeSummarized
	}
	return ModeVerbatim
}

// CheckDocument reviews one document's extracted text. Any stage failure
// aborts the run and is returned to the caller; there are no partial
// results. A missing reference template surfaces as ErrTemplateNotFound so
// callers can present it as an unsupported document type.
func (s *ComplianceService) CheckDocument(ctx context.Context, text string) (*CheckResult, error) {
	agreementType, err := s.analyzer.ClassifyDocument(ctx, text)
	if err != nil {
		return nil, err
	}
	ctx = context.WithValue(ctx, logger.DocumentTypeKey, string(agreementType))
	logger.Info(ctx, "document classified")

	clauses, err := s.analyzer.ExtractClauses(ctx, text, ExtractionModeFor(agreementType))
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "clauses extracted", "count", len(clauses))

	entry, err := s.library.Get(ctx, agreementType)
	if err != nil {
		if errors.Is(err, ErrEntryNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, agreementType)
		}
		return nil, fmt.Errorf("failed to load reference template: %w", err)
	}

	rawAnalysis, err := s.analyzer.CompareAgreements(ctx, clauses, entry.Clauses)
	if err != nil {
		return nil, err
	}

	report := ParseComparisonReport(rawAnalysis)
	result := &CheckResult{
		AgreementType: agreementType,
		Report:        report,
		RawAnalysis:   rawAnalysis,
	}

	// Any nonzero risk triggers an alert; exactly zero means none needed.
	if report.RiskScore > 0 {
		payload := model.BuildNotificationPayload(agreementType, report, time.Now())
		result.Notified = s.notifier.SendComplianceAlert(ctx, payload)
		logger.Info(ctx, "compliance alert dispatched",
			"risk_score", report.RiskScore,
			"risk_level", RiskLevel(report.RiskScore),
		)
	}

	return result, nil
}
