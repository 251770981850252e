package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"go.uber.org/zap"

	"github.com/justsurfingit/job-application-tracker/internal/domain"
	apperrors "github.com/justsurfingit/job-application-tracker/internal/errors"
)

// maxPostingBytes bounds how much of a posting is sent to the model.
const maxPostingBytes = 20000

const jobExtractionPrompt = `
You are an expert Job Data Extraction Agent. Your task is to analyze the provided raw HTML/Text from a job posting and extract structured data.

### INSTRUCTIONS:
1. **Analyze** the text to identify the core job details.
2. **Ignore** navigation menus, footers, "similar jobs" lists, and site advertisements.
3. **Extract** the following fields strictly.
4. **Format** the output as valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{
    "company_name": "Name of the company (e.g., Google, StartupInc)",
    "role_title": "Job title (e.g., Senior Backend Engineer)",
    "location": "Job location or 'Remote'",
    "job_type": "One of: full-time, part-time, contract, freelance, internship",
    "description": "A clean summary of the job. Focus on Responsibilities and Requirements. Remove HTML tags.",
    "tech_stack": ["Array", "of", "technologies", "mentioned", "e.g., Go, React, AWS"],
    "salary_range": "The salary string if explicitly mentioned (e.g., '$100k - $150k'), otherwise null"
}

### CONSTRAINT:
If a piece of information is missing, set the value to null. Do not hallucinate or guess.

### RAW CONTENT:
%s
`

type LLMService struct {
	Client llms.Model
	logger *zap.Logger
}

// NewLLMService connects to Gemini. Without an API key the service is built
// disabled and ExtractJob reports that extraction is unavailable.
func NewLLMService(ctx context.Context, apiKey, model string, logger *zap.Logger) (*LLMService, error) {
	if apiKey == "" {
		logger.Warn("GEMINI_API_KEY is empty, job extraction is disabled")
		return &LLMService{logger: logger}, nil
	}

	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &LLMService{Client: llm, logger: logger}, nil
}

type extraction struct {
	CompanyName *string  `json:"company_name"`
	RoleTitle   *string  `json:"role_title"`
	Location    *string  `json:"location"`
	JobType     *string  `json:"job_type"`
	Description *string  `json:"description"`
	TechStack   []string `json:"tech_stack"`
	SalaryRange *string  `json:"salary_range"`
}

// ExtractJob asks the model to turn a raw posting into a draft record.
func (s *LLMService) ExtractJob(ctx context.Context, rawHTML string) (domain.JobDraft, error) {
	ctx, span := tracer.Start(ctx, "LLMService.ExtractJob")
	defer span.End()

	if s.Client == nil {
		return domain.JobDraft{}, apperrors.Internal("job extraction is not configured", nil)
	}

	prompt := fmt.Sprintf(jobExtractionPrompt, truncate(rawHTML, maxPostingBytes))
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, prompt)
	if err != nil {
		span.RecordError(err)
		return domain.JobDraft{}, apperrors.Backend("AI extraction failed", err)
	}

	draft, err := parseDraft(resp)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("unparseable extraction", zap.Int("response_bytes", len(resp)), zap.Error(err))
		return domain.JobDraft{}, apperrors.Backend("AI extraction returned invalid JSON", err)
	}
	return draft, nil
}

func parseDraft(resp string) (domain.JobDraft, error) {
	var e extraction
	if err := json.Unmarshal([]byte(stripFences(resp)), &e); err != nil {
		return domain.JobDraft{}, err
	}

	draft := domain.JobDraft{
		CompanyName: value(e.CompanyName),
		Position:    value(e.RoleTitle),
		Location:    value(e.Location),
		Salary:      value(e.SalaryRange),
		Notes:       value(e.Description),
		Tags:        []string{},
	}
	if t := domain.JobType(strings.ToLower(value(e.JobType))); t.Valid() {
		draft.JobType = t
	}
	for _, tag := range e.TechStack {
		if tag = strings.TrimSpace(tag); tag != "" {
			draft.Tags = append(draft.Tags, tag)
		}
	}
	return draft, nil
}

// stripFences removes a markdown code fence the model may add anyway.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
