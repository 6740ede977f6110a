package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// AgreementType is one of the five GDPR agreement categories the checker
// recognizes. Classification always resolves to exactly one of them.
type AgreementType string

const (
	TypeDataProcessing          AgreementType = "Data Processing Agreement"
	TypeJointController         AgreementType = "Joint Controller Agreement"
	TypeControllerToController  AgreementType = "Controller-to-Controller Agreement"
	TypeProcessorToSubprocessor AgreementType = "Processor-to-Subprocessor Agreement"
	TypeStandardContractual     AgreementType = "Standard Contractual Clauses"
)

// AllAgreementTypes returns the closed set in stable order.
func AllAgreementTypes() []AgreementType {
	return []AgreementType{
		TypeDataProcessing,
		TypeJointController,
		TypeControllerToController,
		TypeProcessorToSubprocessor,
		TypeStandardContractual,
	}
}

var typeKeys = map[AgreementType]string{
	TypeDataProcessing:          "DPA",
	TypeJointController:         "JCA",
	TypeControllerToController:  "CCA",
	TypeProcessorToSubprocessor: "PSA",
	TypeStandardContractual:     "SCC",
}

// Key returns the short stable key used for store object names (DPA, JCA,
// CCA, PSA, SCC).
func (t AgreementType) Key() string {
	return typeKeys[t]
}

// Valid reports whether t is a member of the closed set.
func (t AgreementType) Valid() bool {
	_, ok := typeKeys[t]
	return ok
}

// ParseAgreementType maps a string to an AgreementType, accepting either the
// full name or the short key.
func ParseAgreementType(s string) (AgreementType, error) {
	t := AgreementType(s)
	if t.Valid() {
		return t, nil
	}
	for at, key := range typeKeys {
		if key == s {
			return at, nil
		}
	}
	return "", fmt.Errorf("unknown agreement type: %q", s)
}

// ClauseRecord is one identified clause within a contract. ClauseID is
// unique within a single document's clause set, not globally. Text holds
// either the verbatim clause or a summary, depending on extraction mode.
type ClauseRecord struct {
	ClauseID string `json:"clause_id"`
	Heading  string `json:"heading"`
	Text     string `json:"text"`
}

// ClausesDigest computes the content digest of a clause set over its
// canonical JSON serialization. json.Marshal emits struct fields in
// declaration order, so identical content always yields the same digest.
func ClausesDigest(clauses []ClauseRecord) string {
	data, err := json.Marshal(clauses)
	if err != nil {
		// []ClauseRecord cannot fail to marshal; keep the signature simple.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// TemplateEntry is one stored reference template, at most one per agreement
// type.
type TemplateEntry struct {
	AgreementType AgreementType  `json:"agreement_type"`
	Clauses       []ClauseRecord `json:"clauses"`
	ContentHash   string         `json:"content_hash"`
	SourceURL     string         `json:"source_url,omitempty"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ComplianceReport is the structured result of comparing an uploaded
// document against its reference template. It is always well-formed: lists
// default to empty and RiskScore to 0 when the analysis text could not be
// fully parsed.
type ComplianceReport struct {
	MissingClauses  []string `json:"missing_clauses"`
	ComplianceRisks []string `json:"compliance_risks"`
	RiskScore       int      `json:"risk_score"`
	Reasoning       string   `json:"reasoning"`
	Recommendations []string `json:"recommendations"`
}

// NotificationPayload is the channel-independent alert content, derived from
// a ComplianceReport plus the classification result.
type NotificationPayload struct {
	DocumentType    string   `json:"document_type"`
	RiskScore       int      `json:"risk_score"`
	MissingClauses  []string `json:"missing_clauses"`
	ComplianceRisks []string `json:"compliance_risks"`
	Recommendations []string `json:"recommendations"`
	Timestamp       string   `json:"timestamp"`
}

// BuildNotificationPayload assembles the payload for a compliance alert.
func BuildNotificationPayload(t AgreementType, report *ComplianceReport, now time.Time) NotificationPayload {
	return NotificationPayload{
		DocumentType:    string(t),
		RiskScore:       report.RiskScore,
		MissingClauses:  report.MissingClauses,
		ComplianceRisks: report.ComplianceRisks,
		Recommendations: report.Recommendations,
		Timestamp:       now.Format("2006-01-02 15:04:05"),
	}
}
