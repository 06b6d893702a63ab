package extractor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mkravets/rag-assistant/internal/core/domain"
	"github.com/mkravets/rag-assistant/internal/infrastructure/extractor/pdf"
	"github.com/mkravets/rag-assistant/internal/infrastructure/extractor/plaintext"
	"github.com/mkravets/rag-assistant/internal/infrastructure/extractor/xlsx"
)

// Extractor converts an uploaded file into plain text for ingestion.
type Extractor interface {
	Extract(ctx context.Context, r io.Reader, filename string) (string, error)
}

// ForFilename picks an extractor by file extension.
func ForFilename(filename string) (Extractor, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return pdf.New(), nil
	case ".xlsx", ".xlsm":
		return xlsx.New(), nil
	case ".txt", ".md", ".markdown", ".csv", "":
		return plaintext.New(), nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidInput, "pick extractor",
			fmt.Errorf("unsupported file type: %s", filename))
	}
}
