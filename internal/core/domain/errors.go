package domain

import (
	"errors"
	"fmt"
)

// Error kinds for the pipeline. Structural and configuration failures
// (unsupported model, collection mismatch, citation parse) are fatal for
// the request; HyDE and rerank failures are recovered locally by the
// pipeline and never reach callers as these kinds.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrTemporary          = errors.New("temporary failure")
	ErrUnsupportedModel   = errors.New("unsupported embedding model")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrCollectionConfig   = errors.New("invalid collection configuration")
	ErrRerankProvider     = errors.New("rerank provider failure")
	ErrHydeGeneration     = errors.New("hyde generation failure")
	ErrCitationParse      = errors.New("citation parse failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
