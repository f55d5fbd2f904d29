// Package ai adapts the OpenAI API (Whisper transcription and chat-completion
// summarization) to the note pipeline. Callers decide what a failure means;
// this package only reports it.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"ai-scribe-server/internal/models"
)

// ErrNotConfigured is returned when no API key was provided at startup.
var ErrNotConfigured = errors.New("ai: OpenAI API key not configured")

// SummaryResult is a tagged result of a summarization call. Structured is true
// when the model returned the expected JSON shape; otherwise Summary carries
// the raw model output and SOAP is nil.
type SummaryResult struct {
	Structured bool
	Summary    string
	SOAP       *models.SOAPFormat
}

// AudioResult is the combined outcome of transcribing an audio file and
// summarizing the transcript. Summary is nil when summarization failed after
// a successful transcription.
type AudioResult struct {
	TranscribedText string
	Summary         *SummaryResult
}

// Client is the AI service consumed by the note orchestrator.
type Client interface {
	// TranscribeAudio converts the audio file at the given absolute path to text.
	TranscribeAudio(ctx context.Context, audioPath string) (string, error)

	// GenerateSummary produces a medical summary and SOAP breakdown of the text.
	GenerateSummary(ctx context.Context, text string, noteType models.NoteType) (*SummaryResult, error)

	// ProcessAudioNote transcribes the audio file and summarizes the transcript,
	// prepending existingText as context when present.
	ProcessAudioNote(ctx context.Context, audioPath, existingText string) (*AudioResult, error)
}

// OpenAIClient implements Client against the OpenAI API.
type OpenAIClient struct {
	api     *openai.Client // nil when unconfigured
	timeout time.Duration  // per-call cap; zero means no cap beyond the caller's context
	log     *zap.Logger
}

// NewOpenAIClient creates an OpenAIClient. An empty apiKey yields a client
// whose every call fails with ErrNotConfigured.
func NewOpenAIClient(apiKey string, timeout time.Duration, log *zap.Logger) *OpenAIClient {
	c := &OpenAIClient{timeout: timeout, log: log}
	if apiKey != "" {
		c.api = openai.NewClient(apiKey)
	}
	return c
}

func (c *OpenAIClient) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return ctx, func() {}
}

// TranscribeAudio runs Whisper over the audio file and returns the plain text.
func (c *OpenAIClient) TranscribeAudio(ctx context.Context, audioPath string) (string, error) {
	if c.api == nil {
		return "", ErrNotConfigured
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatText,
	})
	if err != nil {
		return "", fmt.Errorf("ai: transcription failed: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// GenerateSummary asks the chat model for a summary plus SOAP breakdown.
// An unparseable completion is not an error: the raw output becomes an
// unstructured summary.
func (c *OpenAIClient) GenerateSummary(ctx context.Context, text string, noteType models.NoteType) (*SummaryResult, error) {
	if c.api == nil {
		return nil, ErrNotConfigured
	}

	ctx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT3Dot5Turbo,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You are a medical AI assistant that helps create clinical notes summaries " +
					"and SOAP format documentation. Always respond with valid JSON format.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildSummaryPrompt(text, noteType),
			},
		},
		Temperature: 0.3,
		MaxTokens:   1000,
	})
	if err != nil {
		return nil, fmt.Errorf("ai: summary generation failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, errors.New("ai: empty response from service")
	}

	return parseSummaryResponse(resp.Choices[0].Message.Content), nil
}

// ProcessAudioNote transcribes, then summarizes. Transcription failure aborts;
// summarization failure after a good transcript degrades to transcript-only.
func (c *OpenAIClient) ProcessAudioNote(ctx context.Context, audioPath, existingText string) (*AudioResult, error) {
	transcript, err := c.TranscribeAudio(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	combined := transcript
	noteType := models.NoteTypeAudio
	if existingText != "" {
		combined = existingText + "\n\nTranscribed: " + transcript
		noteType = models.NoteTypeMixed
	}

	summary, err := c.GenerateSummary(ctx, combined, noteType)
	if err != nil {
		c.log.Warn("summary generation failed after transcription, keeping transcript",
			zap.String("audioPath", audioPath), zap.Error(err))
		return &AudioResult{TranscribedText: transcript}, nil
	}

	return &AudioResult{TranscribedText: transcript, Summary: summary}, nil
}

// parseSummaryResponse turns the model output into a tagged SummaryResult.
func parseSummaryResponse(raw string) *SummaryResult {
	var parsed struct {
		Summary string             `json:"summary"`
		SOAP    *models.SOAPFormat `json:"soap"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || parsed.Summary == "" {
		return &SummaryResult{Structured: false, Summary: raw}
	}
	return &SummaryResult{Structured: true, Summary: parsed.Summary, SOAP: parsed.SOAP}
}

func buildSummaryPrompt(text string, noteType models.NoteType) string {
	return fmt.Sprintf(`
Please analyze the following clinical note and provide:
1. A concise medical summary
2. A SOAP format breakdown

Note Type: %s
Note Content: %q

Please respond with a JSON object in this exact format:
{
  "summary": "Brief medical summary of the note content",
  "soap": {
    "subjective": "Patient-reported symptoms and concerns",
    "objective": "Observable findings and measurements",
    "assessment": "Clinical assessment and diagnosis",
    "plan": "Treatment plan and follow-up recommendations"
  }
}

If any SOAP section is not applicable, use "Not documented" as the value.
`, noteType, text)
}
