package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nithamitabh/AI-Powered-Regulatory-Compliance-Checker-for-Contracts/model"
)

// The comparison output is natural language that tries to follow a five-part
// structure but carries no grammar guarantee. Each section is located by its
// heading keyword (case-insensitive, optional colon) and runs until the next
// recognized heading or end of text. RE2 has no lookahead, so the
// terminators are spelled out per section.
var (
	missingClausesRe  = regexp.MustCompile(`(?is)missing clauses?:?\s*(.*?)(?:potential compliance|compliance risks|risk score|reasoning|recommendations|\z)`)
	complianceRisksRe = regexp.MustCompile(`(?is)potential compliance risks?:?\s*(.*?)(?:risk score|reasoning|recommendations|\z)`)
	riskScoreRe       = regexp.MustCompile(`(?i)risk score(?:\s*\(0\s*-\s*100\))?[:\s]*\(?\s*(\d+)`)
	reasoningRe       = regexp.MustCompile(`(?is)reasoning:?\s*(.*?)(?:recommendations|\z)`)
	recommendationsRe = regexp.MustCompile(`(?is)recommendations?:?\s*(.*)`)

	// Entries are split on line-leading bullet or numbered-list markers.
	listMarkerRe = regexp.MustCompile(`[\n\r]+[ \t]*[-•*][ \t]*|[\n\r]+[ \t]*\d+\.[ \t]*`)
)

// ParseComparisonReport recovers the structured ComplianceReport from the
// free-text comparison output. It never fails: fields that cannot be located
// stay at their zero defaults, and if no section heading matches at all the
// entire input is preserved in Reasoning so nothing is silently lost.
func ParseComparisonReport(text string) *model.ComplianceReport {
	report := &model.ComplianceReport{
		MissingClauses:  []string{},
		ComplianceRisks: []string{},
		Recommendations: []string{},
	}

	matched := false

	if m := missingClausesRe.FindStringSubmatch(text); m != nil {
		matched = true
		report.MissingClauses = splitListItems(m[1])
	}

	if m := complianceRisksRe.FindStringSubmatch(text); m != nil {
		matched = true
		report.ComplianceRisks = splitListItems(m[1])
	}

	if m := riskScoreRe.FindStringSubmatch(text); m != nil {
		matched = true
		if score, err := strconv.Atoi(m[1]); err == nil {
			if score > 100 {
				score = 100
			}
			report.RiskScore = score
		}
	}

	if m := reasoningRe.FindStringSubmatch(text); m != nil {
		matched = true
		// A bullet marker belonging to the next heading may trail the run.
		report.Reasoning = strings.TrimRight(strings.TrimSpace(m[1]), "-•* \t\r\n")
	}

	if m := recommendationsRe.FindStringSubmatch(text); m != nil {
		matched = true
		report.Recommendations = splitListItems(m[1])
	}

	if !matched {
		report.Reasoning = text
	}

	return report
}

// splitListItems tokenizes a section body into list entries. Entries shorter
// than 4 characters after trimming are discarded as noise (empty bullets,
// stray punctuation, dangling brackets).
func splitListItems(text string) []string {
	items := []string{}
	for _, part := range listMarkerRe.Split(text, -1) {
		// The first entry keeps its marker when the heading regex already
		// consumed the preceding newline.
		part = strings.TrimSpace(strings.TrimLeft(part, "-•* \t"))
		if len(part) > 3 {
			items = append(items, part)
		}
	}
	return items
}
