package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

const DefaultModel = "gemini-2.5-flash"

type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	return newGemini(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}, model)
}

func newGemini(ctx context.Context, cc *genai.ClientConfig, model string) (*Gemini, error) {
	if cc.APIKey == "" {
		return nil, errors.New("missing GOOGLE_API_KEY")
	}
	if model == "" {
		model = DefaultModel
	}
	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Gemini{client: c, model: model}, nil
}

const extractPrompt = `You read prescriptions. Return ONLY valid JSON - no markdown code blocks, no explanations.

Output exactly this structure:
{"medications": [{"name": "Aspirin", "dosage": "100mg", "suggested_times": ["8:00 AM", "8:00 PM"]}]}

RULES:
- one entry per medication, in the order they appear
- name and dosage as written in the document
- suggested_times: only times written in the document, format H:MM AM or H:MM PM, morning then noon then evening
- no medications found: {"medications": []}

Prescription text:
`

func (g *Gemini) ExtractMedications(ctx context.Context, text string) ([]Medication, error) {
	if g.client == nil {
		return nil, errors.New("gemini not configured")
	}
	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(extractPrompt+text, genai.RoleUser),
	}, &genai.GenerateContentConfig{ResponseMIMEType: "application/json"})
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	return decodeMedications(res.Text())
}

func decodeMedications(js string) ([]Medication, error) {
	var out medicationList
	js = stripCodeFences(js)
	if err := json.Unmarshal([]byte(js), &out); err != nil {
		// Try to find first JSON object in the text
		s := findFirstJSON(js)
		if s == "" {
			return nil, fmt.Errorf("failed to parse Gemini response - no JSON found: %w", err)
		}
		if err2 := json.Unmarshal([]byte(s), &out); err2 != nil {
			return nil, fmt.Errorf("failed to parse Gemini response as JSON: %w (original error: %v)", err2, err)
		}
	}
	return out.Medications, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}

func findFirstJSON(s string) string {
	// naive scan for the first balanced {...}
	start := -1
	depth := 0
	for i, r := range s {
		switch r {
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start != -1 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
