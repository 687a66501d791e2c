// Package assistant holds the chat and certificate-reading backends used by
// the API. Both ship with canned implementations.
package assistant

import (
	"context"
	"io"
	"strings"
)

// ChatResponder answers a free-text operator message.
type ChatResponder interface {
	Respond(ctx context.Context, message string) (string, error)
}

// Keyword replies, matched in order against the lowercased message.
var keywordReplies = []struct {
	keyword string
	reply   string
}{
	{"hello", "Hello! I'm the Kochi Metro AI assistant. How can I help you today?"},
	{"trains", "I can help you with train information, maintenance schedules, and operational queries."},
	{"status", "You can check train status on the ranklist page. Red means critical issues, orange is minor maintenance, and green is ready for service."},
	{"help", "I can assist with: train status, maintenance queries, certificate verification, and general metro operations questions."},
}

// DefaultReply is returned when no keyword matches.
const DefaultReply = "I understand you're asking about metro operations. Could you be more specific about what information you need?"

// KeywordResponder replies with the first keyword found in the message.
type KeywordResponder struct{}

// Respond implements ChatResponder.
func (KeywordResponder) Respond(_ context.Context, message string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(message))
	for _, kr := range keywordReplies {
		if strings.Contains(lower, kr.keyword) {
			return kr.reply, nil
		}
	}
	return DefaultReply, nil
}

// Extraction is what a CertificateExtractor read from a document.
type Extraction struct {
	Data       map[string]any
	Confidence float64
}

// CertificateExtractor reads structured fields from an uploaded certificate.
type CertificateExtractor interface {
	Extract(ctx context.Context, fileName string, r io.Reader) (Extraction, error)
}

// StaticConfidence is the confidence StaticExtractor reports.
const StaticConfidence = 0.95

// StaticExtractor returns the same sample safety certificate for any file.
type StaticExtractor struct{}

// Extract implements CertificateExtractor. The document is not read.
func (StaticExtractor) Extract(_ context.Context, _ string, _ io.Reader) (Extraction, error) {
	return Extraction{
		Data: map[string]any{
			"certificate_type":   "Safety Compliance Certificate",
			"issued_to":          "Kochi Metro Rail Corporation",
			"issue_date":         "2024-01-15",
			"expiry_date":        "2025-01-15",
			"certificate_number": "KM-SAFETY-2024-001",
			"issuing_authority":  "Railway Safety Commissioner",
			"train_number":       "KM-001",
			"compliance_status":  "VALID",
			"extracted_fields": map[string]any{
				"safety_rating":   "A+",
				"last_inspection": "2024-01-10",
				"next_inspection": "2024-07-10",
			},
		},
		Confidence: StaticConfidence,
	}, nil
}
