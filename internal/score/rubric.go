package score

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// PlaceholderFeedback stands in whenever the grading service response is
// unusable. A failed grade must never block the user from recording their
// own self-assessment, so the grader degrades instead of erroring.
const PlaceholderFeedback = "Automatic grading was unavailable for this answer."

// RubricGrader grades answers by sending the question, reference answer and
// candidate answer to a chat-completion model with a fixed grading rubric.
type RubricGrader struct {
	client   *openai.Client
	model    string
	attempts int
	backoff  time.Duration
}

// NewRubricGrader creates a grader backed by the OpenAI API. An empty model
// selects the default.
func NewRubricGrader(apiKey, model string) *RubricGrader {
	g := NewRubricGraderWithClient(openai.NewClient(apiKey))
	if model != "" {
		g.model = model
	}
	return g
}

// NewRubricGraderWithClient is useful when the caller configures the client
// (custom base URL, test doubles).
func NewRubricGraderWithClient(client *openai.Client) *RubricGrader {
	return &RubricGrader{
		client:   client,
		model:    openai.GPT4o,
		attempts: 3,
		backoff:  2 * time.Second,
	}
}

// Score grades the candidate answer on a 0-100 scale with a short feedback
// line. Rate-limited calls are retried a bounded number of times with a
// fixed backoff; any other failure, including an unparsable response,
// degrades to a zero grade with placeholder feedback.
func (g *RubricGrader) Score(ctx context.Context, question, reference, candidate string) (int, string) {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a strict but fair study tutor. Grade the student's answer against the reference answer on a 0-100 scale and give one short line of feedback.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: g.buildPrompt(question, reference, candidate),
			},
		},
		Tools: []openai.Tool{
			{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        "grade_answer",
					Description: "Grade a student's answer against the reference answer",
					Parameters: map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"grade": map[string]interface{}{
								"type":        "integer",
								"description": "Grade from 0 to 100",
							},
							"feedback": map[string]interface{}{
								"type":        "string",
								"description": "One short line of feedback for the student",
							},
						},
						"required": []string{"grade", "feedback"},
					},
				},
			},
		},
		ToolChoice: openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: "grade_answer"},
		},
	}

	var resp openai.ChatCompletionResponse
	var err error
	for attempt := 0; attempt < g.attempts; attempt++ {
		resp, err = g.client.CreateChatCompletion(ctx, req)
		if err == nil {
			break
		}
		if !isRateLimited(err) || attempt == g.attempts-1 {
			return 0, PlaceholderFeedback
		}
		select {
		case <-time.After(g.backoff):
		case <-ctx.Done():
			return 0, PlaceholderFeedback
		}
	}
	if err != nil {
		return 0, PlaceholderFeedback
	}
	return parseGrade(resp)
}

func (g *RubricGrader) buildPrompt(question, reference, candidate string) string {
	return fmt.Sprintf(
		"Question:\n%s\n\nReference answer:\n%s\n\nStudent's answer:\n%s\n\nGrade the student's answer from 0 to 100 based on how well it covers the reference answer.",
		question, reference, candidate,
	)
}

func parseGrade(resp openai.ChatCompletionResponse) (int, string) {
	if len(resp.Choices) == 0 || len(resp.Choices[0].Message.ToolCalls) == 0 {
		return 0, PlaceholderFeedback
	}
	var args struct {
		Grade    float64 `json:"grade"`
		Feedback string  `json:"feedback"`
	}
	raw := resp.Choices[0].Message.ToolCalls[0].Function.Arguments
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return 0, PlaceholderFeedback
	}
	grade := int(args.Grade)
	if grade < 0 {
		grade = 0
	}
	if grade > 100 {
		grade = 100
	}
	feedback := strings.TrimSpace(args.Feedback)
	if feedback == "" {
		feedback = PlaceholderFeedback
	}
	return grade, feedback
}

func isRateLimited(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "rate limit")
}
