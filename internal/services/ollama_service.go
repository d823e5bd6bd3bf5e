package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	ollamaDefaultBaseURL = "http://host.docker.internal:11434"
	ollamaDefaultModel   = "qwen3-vl:8b"
	ollamaTimeout        = 10 * time.Minute
	altTextAttempts      = 3

	imageTypeUnknown = "unbekannt"
	imageTypeError   = "fehler"

	defaultConfidence = "mittel"
)

const altTextPrompt = `Analysiere dieses Bild aus einem PDF-Dokument.

Kontext aus dem umgebenden Text: %s

Aufgaben:
1. BILDTYP bestimmen: Ist es ein Foto, Diagramm/Chart, Tabelle, Screenshot, Icon, Logo oder ein dekoratives Element?
2. ALT-TEXT generieren: Schreibe einen informativen, barrierefreien Alt-Text nach WCAG 2.2 Richtlinien.

Regeln fuer den Alt-Text:
- Bei Diagrammen/Charts: Nenne die dargestellten Daten, Trends und Werte
- Bei Fotos: Beschreibe was zu sehen ist und warum es relevant ist
- Bei Tabellen: Fasse die wichtigsten Daten zusammen
- Bei dekorativen Elementen: Antworte mit "dekorativ"
- Bei Logos: Nenne den Firmennamen
- Maximal 2-3 Saetze
- Deutsch

Antworte NUR in diesem JSON-Format:
{"bildtyp": "...", "alt_text": "...", "ist_dekorativ": true/false}`

type AltTextResult struct {
	ImageType  string `json:"bildtyp"`
	AltText    string `json:"alt_text"`
	Decorative bool   `json:"ist_dekorativ"`
	Confidence string `json:"konfidenz"`
	Raw        string `json:"-"`
}

type OllamaService struct {
	client     *http.Client
	baseURL    string
	model      string
	logService LogWriter
}

func NewOllamaService(baseURL string, modelName string, logService LogWriter, client *http.Client) (*OllamaService, error) {
	if logService == nil {
		return nil, errors.New("log service is nil")
	}
	if client == nil {
		client = &http.Client{Timeout: ollamaTimeout}
	}
	if baseURL == "" {
		baseURL = ollamaDefaultBaseURL
	}
	if modelName == "" {
		modelName = ollamaDefaultModel
	}

	return &OllamaService{
		client:     client,
		baseURL:    baseURL,
		model:      modelName,
		logService: logService,
	}, nil
}

// Generate asks the vision model for an alt-text. Model or transport
// failures yield a result of type "fehler" instead of an error so one bad
// image never aborts a whole run.
func (s *OllamaService) Generate(ctx context.Context, imagePath string, contextText string, eventID *string) (AltTextResult, error) {
	if s == nil {
		return AltTextResult{}, errors.New("ollama service is nil")
	}
	if s.client == nil {
		return AltTextResult{}, errors.New("http client is nil")
	}
	if s.logService == nil {
		return AltTextResult{}, errors.New("log service is nil")
	}
	if imagePath == "" {
		return AltTextResult{}, errors.New("image path is empty")
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return AltTextResult{}, fmt.Errorf("read image: %w", err)
	}

	prompt := buildAltTextPrompt(contextText)
	encoded := base64.StdEncoding.EncodeToString(data)

	var lastErr error
	for attempt := 1; attempt <= altTextAttempts; attempt++ {
		result, err := s.callOllama(ctx, prompt, encoded)
		if err != nil {
			lastErr = err
			msg := fmt.Sprintf("ollama attempt %d image=%s: %v", attempt, imagePath, err)
			_ = s.logService.CreateLog(ctx, eventID, LogActionAltTextCall, LogOutcomeFail, &msg)
			continue
		}

		msg := fmt.Sprintf("image=%s bildtyp=%s dekorativ=%t", imagePath, result.ImageType, result.Decorative)
		_ = s.logService.CreateLog(ctx, eventID, LogActionAltTextCall, LogOutcomeSuccess, &msg)
		return result, nil
	}

	return AltTextResult{
		ImageType:  imageTypeError,
		AltText:    fmt.Sprintf("Fehler bei der Analyse: %v", lastErr),
		Confidence: defaultConfidence,
		Raw:        lastErr.Error(),
	}, nil
}

func (s *OllamaService) callOllama(ctx context.Context, prompt string, imageB64 string) (AltTextResult, error) {
	requestBody := ollamaGenerateRequest{
		Model:  s.model,
		Prompt: prompt,
		Images: []string{imageB64},
		Stream: false,
		Options: ollamaOptions{
			Temperature: 0.3,
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(requestBody); err != nil {
		return AltTextResult{}, fmt.Errorf("encode request: %w", err)
	}

	endpoint := strings.TrimRight(s.baseURL, "/") + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return AltTextResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return AltTextResult{}, fmt.Errorf("send request: %w", err)
	}

	body, readErr := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if readErr != nil {
		return AltTextResult{}, fmt.Errorf("read response: %w", readErr)
	}
	if closeErr != nil {
		return AltTextResult{}, fmt.Errorf("close response: %w", closeErr)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return AltTextResult{}, fmt.Errorf("ollama status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response ollamaGenerateResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return AltTextResult{}, fmt.Errorf("decode response: %w", err)
	}

	text := strings.TrimSpace(response.Response)
	if text == "" {
		return AltTextResult{}, errors.New("ollama response is empty")
	}

	return parseAltTextResult(text), nil
}

func buildAltTextPrompt(contextText string) string {
	contextText = strings.TrimSpace(contextText)
	if contextText == "" {
		contextText = "Kein Kontext."
	}
	runes := []rune(contextText)
	if len(runes) > maxContextChars {
		contextText = string(runes[:maxContextChars])
	}
	return fmt.Sprintf(altTextPrompt, contextText)
}

// parseAltTextResult mines the model output for the JSON object it was asked
// for, tolerating code fences and surrounding prose. Unparseable output
// falls back to the raw text as alt-text.
func parseAltTextResult(text string) AltTextResult {
	candidate := stripCodeFence(text)

	start := strings.Index(candidate, "{")
	end := strings.LastIndex(candidate, "}")
	if start >= 0 && end > start {
		var result AltTextResult
		if err := json.Unmarshal([]byte(candidate[start:end+1]), &result); err == nil {
			if result.ImageType == "" {
				result.ImageType = imageTypeUnknown
			}
			if result.AltText == "" {
				result.AltText = text
			}
			if result.Confidence == "" {
				result.Confidence = defaultConfidence
			}
			result.Raw = text
			return result
		}
	}

	return AltTextResult{
		ImageType:  imageTypeUnknown,
		AltText:    strings.TrimSpace(text),
		Confidence: defaultConfidence,
		Raw:        text,
	}
}

func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	trimmed = strings.TrimPrefix(trimmed, "json")
	if idx := strings.LastIndex(trimmed, "```"); idx != -1 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Images  []string      `json:"images"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float32 `json:"temperature"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}
