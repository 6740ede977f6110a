package service

import "errors"

// Stage errors surfaced by the compliance pipeline. Callers branch with
// errors.Is; the wrapped message carries the underlying cause verbatim.
var (
	// ErrClassification means the classifier output did not resolve to
	// exactly one known agreement type.
	ErrClassification = errors.New("document classification failed")

	// ErrExtraction means the clause extraction output was malformed. A
	// failed extraction is fatal for the document; there are no partial
	// clause sets.
	ErrExtraction = errors.New("clause extraction failed")

	// ErrComparison means the external comparison call failed.
	ErrComparison = errors.New("agreement comparison failed")

	// ErrTemplateNotFound means the document classified fine but the
	// library has no reference template for its type.
	ErrTemplateNotFound = errors.New("no reference template for agreement type")

	// ErrEntryNotFound is returned by TemplateLibrary.Get for a missing key.
	ErrEntryNotFound = errors.New("template entry not found")
)
