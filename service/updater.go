package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/pkg/logger"
)

// SweepResult summarizes one pass of the template updater over all
// agreement types.
type SweepResult struct {
	Changes []string `json:"changes"`
	Errors  []string `json:"errors"`
}

// TemplateUpdater keeps the reference library current. Each sweep
// re-derives every template from its source URL and rewrites the stored
// entry only when the clause digest drifts, so a sweep against unchanged
// sources persists and notifies nothing.
type TemplateUpdater struct {
	analyzer   DocumentAnalyzer
	extractor  TextExtractor
	library    TemplateLibrary
	notifier   Notifier
	sources    map[model.AgreementType]string
	httpClient *http.Client

	cron *cron.Cron
	mu   sync.Mutex // one sweep at a time
}

func NewTemplateUpdater(analyzer DocumentAnalyzer, extractor TextExtractor, library TemplateLibrary, notifier Notifier, sources map[string]string) *TemplateUpdater {
	typed := make(map[model.AgreementType]string, len(sources))
	for key, url := range sources {
		agreementType, err := model.ParseAgreementType(key)
		if err != nil {
			logger.Warn(context.Background(), "ignoring source for unknown agreement type", "key", key)
			continue
		}
		typed[agreementType] = url
	}

	return &TemplateUpdater{
		analyzer:  analyzer,
		extractor: extractor,
		library:   library,
		notifier:  notifier,
		sources:   typed,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Start schedules sweeps on the given six-field cron spec. The updater owns
// its goroutine; Stop shuts it down.
func (u *TemplateUpdater) Start(spec string) error {
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(spec, func() {
		u.RunSweep(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule template sweep: %w", err)
	}
	c.Start()
	u.cron = c
	logger.Info(context.Background(), "template update scheduler started", "spec", spec)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (u *TemplateUpdater) Stop() {
	if u.cron != nil {
		<-u.cron.Stop().Done()
	}
}

// Bootstrap populates missing library entries only. Existing entries are
// never overwritten, so operator-curated templates survive restarts.
func (u *TemplateUpdater) Bootstrap(ctx context.Context) error {
	var errs []error
	for _, agreementType := range model.AllAgreementTypes() {
		exists, err := u.library.Exists(ctx, agreementType)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", agreementType, err))
			continue
		}
		if exists {
			logger.Debug(ctx, "template already present, skipping", "agreement_type", string(agreementType))
			continue
		}
		if _, err := u.refreshTemplate(ctx, agreementType); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", agreementType, err))
		}
	}
	return errors.Join(errs...)
}

// RunSweep processes every agreement type independently: one type failing
// never blocks the rest. A single summary notification goes out at the end
// iff anything changed or errored; a fully quiet sweep stays silent.
func (u *TemplateUpdater) RunSweep(ctx context.Context) *SweepResult {
	u.mu.Lock()
	defer u.mu.Unlock()

	logger.Info(ctx, "template update sweep started")
	result := &SweepResult{
		Changes: []string{},
		Errors:  []string{},
	}

	for _, agreementType := range model.AllAgreementTypes() {
		change, err := u.refreshTemplate(ctx, agreementType)
		if err != nil {
			logger.Error(ctx, "template refresh failed",
				"agreement_type", string(agreementType),
				"error", err,
			)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", agreementType, err))
			continue
		}
		if change != "" {
			result.Changes = append(result.Changes, change)
		}
	}

	logger.Info(ctx, "template update sweep finished",
		"changes", len(result.Changes),
		"errors", len(result.Errors),
	)

	if len(result.Changes) > 0 || len(result.Errors) > 0 {
		u.notifier.SendSweepSummary(ctx, result.Changes, result.Errors)
	}

	return result
}

// refreshTemplate re-derives one template and persists it when the content
// digest differs from the stored entry. The returned string describes the
// change, or is empty when nothing changed.
func (u *TemplateUpdater) refreshTemplate(ctx context.Context, agreementType model.AgreementType) (string, error) {
	url, ok := u.sources[agreementType]
	if !ok || url == "" {
		return "", fmt.Errorf("no source URL configured")
	}

	data, err := u.fetchDocument(ctx, url)
	if err != nil {
		return "", fmt.Errorf("failed to fetch source: %w", err)
	}

	text, err := u.extractor.ExtractText(ctx, bytes.NewReader(data), agreementType.Key()+".pdf")
	if err != nil {
		return "", err
	}

	clauses, err := u.analyzer.ExtractClauses(ctx, text, ExtractionModeFor(agreementType))
	if err != nil {
		return "", err
	}

	digest := model.ClausesDigest(clauses)

	var tag string
	existing, err := u.library.Get(ctx, agreementType)
	switch {
	case errors.Is(err, ErrEntryNotFound):
		tag = "new template created"
	case err != nil:
		return "", fmt.Errorf("failed to read stored template: %w", err)
	case existing.ContentHash == digest:
		// No drift, no write.
		return "", nil
	default:
		tag = "template updated with new clauses"
	}

	entry := &model.TemplateEntry{
		AgreementType: agreementType,
		Clauses:       clauses,
		ContentHash:   digest,
		SourceURL:     url,
		UpdatedAt:     time.Now(),
	}
	if err := u.library.Put(ctx, entry); err != nil {
		return "", fmt.Errorf("failed to persist template: %w", err)
	}

	logger.Info(ctx, "template refreshed",
		"agreement_type", string(agreementType),
		"change", tag,
	)
	return fmt.Sprintf("%s: %s", agreementType, tag), nil
}

func (u *TemplateUpdater) fetchDocument(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read document body: %w", err)
	}
	return data, nil
}
