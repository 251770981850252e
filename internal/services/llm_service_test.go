package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"

	"github.com/justsurfingit/job-application-tracker/internal/domain"
	apperrors "github.com/justsurfingit/job-application-tracker/internal/errors"
)

// fakeModel answers every prompt with a canned response.
type fakeModel struct {
	response string
	err      error
	prompt   string
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, m := range messages {
		for _, part := range m.Parts {
			if text, ok := part.(llms.TextContent); ok {
				f.prompt += text.Text
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.response}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestExtractJob(t *testing.T) {
	model := &fakeModel{response: "```json\n" + `{
		"company_name": "Acme",
		"role_title": "Senior Backend Engineer",
		"location": "Remote",
		"job_type": "Full-Time",
		"description": "Build APIs.",
		"tech_stack": ["Go", " ", "Postgres"],
		"salary_range": "$150k - $180k"
	}` + "\n```"}
	svc := &LLMService{Client: model, logger: zap.NewNop()}

	draft, err := svc.ExtractJob(context.Background(), "<html><h1>Senior Backend Engineer</h1></html>")
	require.NoError(t, err)

	assert.Equal(t, domain.JobDraft{
		CompanyName: "Acme",
		Position:    "Senior Backend Engineer",
		Location:    "Remote",
		JobType:     domain.JobTypeFullTime,
		Salary:      "$150k - $180k",
		Notes:       "Build APIs.",
		Tags:        []string{"Go", "Postgres"},
	}, draft)
	assert.Contains(t, model.prompt, "<h1>Senior Backend Engineer</h1>")
}

func TestExtractJobNullsAndUnknownType(t *testing.T) {
	model := &fakeModel{response: `{"company_name":"Globex","role_title":null,"job_type":"gig","tech_stack":null,"salary_range":null}`}
	svc := &LLMService{Client: model, logger: zap.NewNop()}

	draft, err := svc.ExtractJob(context.Background(), "posting")
	require.NoError(t, err)
	assert.Equal(t, "Globex", draft.CompanyName)
	assert.Empty(t, draft.Position)
	assert.Empty(t, draft.JobType)
	assert.NotNil(t, draft.Tags)
	assert.Empty(t, draft.Salary)
}

func TestExtractJobFailures(t *testing.T) {
	ctx := context.Background()

	disabled := &LLMService{logger: zap.NewNop()}
	_, err := disabled.ExtractJob(ctx, "x")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInternal))

	broken := &LLMService{Client: &fakeModel{err: errors.New("quota exceeded")}, logger: zap.NewNop()}
	_, err = broken.ExtractJob(ctx, "x")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeBackend))

	chatty := &LLMService{Client: &fakeModel{response: "Sure! Here is the JSON you asked for."}, logger: zap.NewNop()}
	_, err = chatty.ExtractJob(ctx, "x")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeBackend))
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	s := strings.Repeat("a", 9) + "é"
	assert.Equal(t, strings.Repeat("a", 9), truncate(s, 10))
	assert.Equal(t, s, truncate(s, 11))
	assert.Len(t, truncate(strings.Repeat("x", maxPostingBytes+50), maxPostingBytes), maxPostingBytes)
}

func TestNewLLMServiceWithoutKeyIsDisabled(t *testing.T) {
	svc, err := NewLLMService(context.Background(), "", "gemini-2.5-flash", zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, svc.Client)
}
