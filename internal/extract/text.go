package extract

import (
	"context"
	"errors"
	"strings"
)

// TextExtractor returns the body as text after charset conversion.
type TextExtractor struct{}

func (TextExtractor) Extract(_ context.Context, res Resource) (string, error) {
	body, err := decodeToUTF8(res.Body, res.ContentType)
	if err != nil {
		return "", err
	}
	text := strings.ToValidUTF8(string(body), "\uFFFD")
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty document")
	}
	return text, nil
}
