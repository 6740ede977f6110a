package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	pdfparser "github.com/cloudwego/eino-ext/components/document/parser/pdf"
	"github.com/cloudwego/eino/components/document/parser"
)

// TextExtractor turns an uploaded or fetched document into plain text.
type TextExtractor interface {
	ExtractText(ctx context.Context, reader io.Reader, name string) (string, error)
}

// PDFTextExtractor extracts text from PDF documents.
type PDFTextExtractor struct {
	parser parser.Parser
}

func NewPDFTextExtractor(ctx context.Context) (*PDFTextExtractor, error) {
	p, err := pdfparser.NewPDFParser(ctx, &pdfparser.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("failed to create pdf parser: %w", err)
	}
	return &PDFTextExtractor{parser: p}, nil
}

func (e *PDFTextExtractor) ExtractText(ctx context.Context, reader io.Reader, name string) (string, error) {
	docs, err := e.parser.Parse(ctx, reader, parser.WithURI(name))
	if err != nil {
		return "", fmt.Errorf("failed to parse pdf: %w", err)
	}

	var sb strings.Builder
	for _, doc := range docs {
		sb.WriteString(doc.Content)
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("no text extracted from %s", name)
	}
	return text, nil
}
