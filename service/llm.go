package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/config"
	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
)

// ExtractionMode selects how much clause text the extractor keeps.
type ExtractionMode string

const (
	// ModeVerbatim preserves full clause text for downstream audit.
	ModeVerbatim ExtractionMode = "verbatim"
	// ModeSummarized compresses each clause to a short abstractive form.
	ModeSummarized ExtractionMode = "summarized"
)

// DocumentAnalyzer is the natural-language capability boundary: given text,
// it returns a classification, a clause set, or a free-form comparison.
type DocumentAnalyzer interface {
	ClassifyDocument(ctx context.Context, text string) (model.AgreementType, error)
	ExtractClauses(ctx context.Context, text string, mode ExtractionMode) ([]model.ClauseRecord, error)
	CompareAgreements(ctx context.Context, unseen, reference []model.ClauseRecord) (string, error)
}

const classifyPrompt = `You are a legal document classification assistant.

Task: Identify the type of contract from the list below:
1. Data Processing Agreement
2. Joint Controller Agreement
3. Controller-to-Controller Agreement
4. Processor-to-Subprocessor Agreement
5. Standard Contractual Clauses

Input:
%s

Respond ONLY in valid JSON format:
{"document_type": "<one_of_the_above_values>"}`

const extractVerbatimPrompt = `You are an expert in legal contract analysis.
Extract all clauses from the following contract text, keeping the full
clause text unchanged.

Respond ONLY in valid JSON format:
[
  {"clause_id": "<id>", "heading": "<heading>", "text": "<full clause text>"}
]

Input:
%s`

const extractSummarizedPrompt = `You are an expert in legal contract analysis.
Extract all clauses from the following contract text and provide a concise
summary of each clause instead of the full text.

Respond ONLY in valid JSON format:
[
  {"clause_id": "<id>", "heading": "<heading>", "text": "<summary>"}
]

Input:
%s`

const comparePrompt = `You are an AI legal assistant specialized in contract review and compliance.

Compare the two documents below:

Template (regulatory standard reference):
%s

New contract to review:
%s

### Tasks:
1. Identify missing or altered clauses compared to the template.
2. Flag potential compliance risks under GDPR.
3. Assign a risk score between 0 and 100 (0 = no risk, 100 = max risk).
4. Provide reasoning for the risk score.
5. Suggest amendments/recommendations for compliance.

### Response Format:
- Missing Clauses: [...]
- Potential Compliance Risks: [...]
- Risk Score: .../100
- Reasoning: [...]
- Recommendations: [...]`

// clauseListSchema validates extractor output before it is trusted.
var clauseListSchema = map[string]any{
	"type": "array",
	"items": map[string]any{
		"type":     "object",
		"required": []any{"clause_id", "heading", "text"},
		"properties": map[string]any{
			"clause_id": map[string]any{"type": "string"},
			"heading":   map[string]any{"type": "string"},
			"text":      map[string]any{"type": "string"},
		},
	},
}

// LLMService implements DocumentAnalyzer on top of a chat model.
type LLMService struct {
	chatModel     einomodel.BaseChatModel
	maxInputChars int
}

// NewChatModel creates the production chat model from config. The endpoint
// is OpenAI-compatible, so Gemini, OpenAI and local gateways all work.
func NewChatModel(ctx context.Context, cfg *config.LLMConfig) (einomodel.BaseChatModel, error) {
	temperature := float32(0)
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: &temperature,
		Timeout:     120 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return chatModel, nil
}

func NewLLMService(chatModel einomodel.BaseChatModel, cfg *config.LLMConfig) *LLMService {
	return &LLMService{
		chatModel:     chatModel,
		maxInputChars: cfg.MaxInputChars,
	}
}

// ClassifyDocument detects which of the five agreement types the text is.
func (s *LLMService) ClassifyDocument(ctx context.Context, text string) (model.AgreementType, error) {
	raw, err := s.generate(ctx, fmt.Sprintf(classifyPrompt, s.truncate(text)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrClassification, err)
	}

	cleaned := stripCodeFences(raw)

	var resp struct {
		DocumentType string `json:"document_type"`
	}
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		// Some models insist on wrapping the object in a list.
		var list []struct {
			DocumentType string `json:"document_type"`
		}
		if listErr := json.Unmarshal([]byte(cleaned), &list); listErr != nil || len(list) == 0 {
			return "", fmt.Errorf("%w: unparseable response: %s", ErrClassification, raw)
		}
		resp.DocumentType = list[0].DocumentType
	}

	agreementType, err := model.ParseAgreementType(resp.DocumentType)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrClassification, err)
	}
	return agreementType, nil
}

// ExtractClauses pulls an ordered clause sequence out of contract text.
// Output is schema-validated before unmarshalling; any malformed response
// fails the whole extraction.
func (s *LLMService) ExtractClauses(ctx context.Context, text string, mode ExtractionMode) ([]model.ClauseRecord, error) {
	prompt := extractVerbatimPrompt
	if mode == ModeSummarized {
		prompt = extractSummarizedPrompt
	}

	raw, err := s.generate(ctx, fmt.Sprintf(prompt, s.truncate(text)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	cleaned := stripCodeFences(raw)
	if err := validateAgainstSchema(clauseListSchema, []byte(cleaned)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	var clauses []model.ClauseRecord
	if err := json.Unmarshal([]byte(cleaned), &clauses); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	if len(clauses) == 0 {
		return nil, fmt.Errorf("%w: no clauses in response", ErrExtraction)
	}

	return dedupeClauseIDs(clauses), nil
}

// CompareAgreements sends both clause sets in full and asks for the fixed
// five-part report structure the result parser expects.
func (s *LLMService) CompareAgreements(ctx context.Context, unseen, reference []model.ClauseRecord) (string, error) {
	referenceJSON, err := json.MarshalIndent(reference, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrComparison, err)
	}
	unseenJSON, err := json.MarshalIndent(unseen, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrComparison, err)
	}

	raw, err := s.generate(ctx, fmt.Sprintf(comparePrompt, referenceJSON, unseenJSON))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrComparison, err)
	}
	return strings.TrimSpace(raw), nil
}

func (s *LLMService) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := s.chatModel.Generate(ctx, []*schema.Message{
		schema.UserMessage(prompt),
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (s *LLMService) truncate(text string) string {
	if s.maxInputChars > 0 && len(text) > s.maxInputChars {
		return text[:s.maxInputChars]
	}
	return text
}

// stripCodeFences removes markdown code fences some models wrap JSON in.
func stripCodeFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}

// validateAgainstSchema checks data against schemaMap before it is trusted.
func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := compiled.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// dedupeClauseIDs guarantees clause_id uniqueness within one document by
// suffixing repeats.
func dedupeClauseIDs(clauses []model.ClauseRecord) []model.ClauseRecord {
	seen := make(map[string]int, len(clauses))
	for i := range clauses {
		id := clauses[i].ClauseID
		seen[id]++
		if seen[id] > 1 {
			clauses[i].ClauseID = fmt.Sprintf("%s-%d", id, seen[id])
		}
	}
	return clauses
}
