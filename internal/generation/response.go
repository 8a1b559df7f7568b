package generation

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingPart is returned when the provider response lacks part of the
// candidates[0].content.parts[0].text chain.
var ErrMissingPart = errors.New("missing response part")

// MissingPartError names the first link of the response chain that was absent
type MissingPartError struct {
	Path string
}

func (e *MissingPartError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingPart, e.Path)
}

func (e *MissingPartError) Unwrap() error {
	return ErrMissingPart
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content *content `json:"content"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text *string `json:"text"`
}

// ExtractText parses a generateContent response body and returns the text of
// the first part of the first candidate. An empty text counts as missing.
func ExtractText(body []byte) (string, error) {
	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", &MissingPartError{Path: "candidates[0]"}
	}
	first := resp.Candidates[0]
	if first.Content == nil {
		return "", &MissingPartError{Path: "candidates[0].content"}
	}
	if len(first.Content.Parts) == 0 {
		return "", &MissingPartError{Path: "candidates[0].content.parts[0]"}
	}
	text := first.Content.Parts[0].Text
	if text == nil || *text == "" {
		return "", &MissingPartError{Path: "candidates[0].content.parts[0].text"}
	}

	return *text, nil
}
