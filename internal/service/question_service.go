package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/bizgenius/api/internal/client"
	"github.com/bizgenius/api/internal/generation"
	"github.com/bizgenius/api/internal/model"
)

const (
	defaultQuestionCount  = 4
	questionTemperature   = 0.8
	questionMaxTokens     = 2000
)

// QuestionService generates clarifying questions for a business idea before a
// generation session is created. Unlike the pipeline, this is a single
// synchronous completion on the fast model, with a canned fallback so the
// questionnaire never blocks on provider trouble.
type QuestionService struct {
	ai        generation.ModelClient
	fastModel string
}

func NewQuestionService(ai generation.ModelClient, fastModel string) *QuestionService {
	return &QuestionService{
		ai:        ai,
		fastModel: fastModel,
	}
}

// Generate returns smart questions tailored to the business idea.
func (s *QuestionService) Generate(ctx context.Context, req *model.QuestionGenerateRequest) (*model.QuestionGenerateResponse, error) {
	count := req.Count
	if count == 0 {
		count = defaultQuestionCount
	}

	if s.ai == nil {
		return &model.QuestionGenerateResponse{Questions: cannedQuestions(count)}, nil
	}

	systemPrompt := fmt.Sprintf(`You are a sharp business strategist who asks the MOST IMPORTANT questions to understand a business idea deeply.

Your job is to generate %d highly specific, insightful questions that:
1. Are DIRECTLY relevant to THIS specific business idea (not generic)
2. Uncover critical information that will shape the business plan
3. Cover gaps NOT already addressed by these categories: %s
4. Feel like questions a savvy investor or experienced entrepreneur would ask`,
		count, strings.Join(req.ExistingCategories, ", "))

	userPrompt := fmt.Sprintf(`Business idea: %q

Generate %d highly specific questions for THIS business idea. NOT generic questions.

Return JSON with this EXACT structure:
{
  "questions": [
    {
      "id": "unique_snake_case_id",
      "question": "Specific question about THIS business?",
      "why_important": "Why this matters for THIS specific business idea",
      "category": "category_name",
      "mece_dimension": "financial|market|operational|human",
      "options": [
        { "value": "option_1", "label": "First realistic option" },
        { "value": "option_2", "label": "Second realistic option" },
        { "value": "option_3", "label": "Third realistic option" },
        { "value": "other", "label": "Other" }
      ],
      "allow_custom_input": true,
      "example_answer": "Example if free-form input is primary"
    }
  ]
}

Make questions SPECIFIC to %q. Reference the actual business in questions and options.
Include industry-specific terminology where relevant.
Options should reflect realistic scenarios for THIS type of business.`,
		req.BusinessIdea, count, req.BusinessIdea)

	raw, err := s.ai.CompleteJSON(ctx, client.ChatRequest{
		Model:       s.fastModel,
		System:      systemPrompt,
		User:        userPrompt,
		MaxTokens:   questionMaxTokens,
		Temperature: questionTemperature,
	})
	if err != nil {
		log.Printf("Smart question generation failed, using canned set: %v", err)
		return &model.QuestionGenerateResponse{Questions: cannedQuestions(count)}, nil
	}

	var resp model.QuestionGenerateResponse
	if err := json.Unmarshal(raw, &resp); err != nil || len(resp.Questions) == 0 {
		log.Printf("Smart question response unusable, using canned set")
		return &model.QuestionGenerateResponse{Questions: cannedQuestions(count)}, nil
	}

	if len(resp.Questions) > count {
		resp.Questions = resp.Questions[:count]
	}
	return &resp, nil
}

func cannedQuestions(count int) []model.SmartQuestion {
	questions := []model.SmartQuestion{
		{
			ID:            "target_customer",
			Question:      "Who is your primary target customer?",
			WhyImportant:  "The customer segment drives pricing, channels, and product scope",
			Category:      "market",
			MECEDimension: "market",
			Options: []model.QuestionOption{
				{Value: "consumers", Label: "Individual consumers"},
				{Value: "small_business", Label: "Small businesses"},
				{Value: "enterprise", Label: "Large enterprises"},
				{Value: "other", Label: "Other"},
			},
			AllowCustomInput: true,
		},
		{
			ID:            "revenue_model",
			Question:      "How do you plan to make money?",
			WhyImportant:  "The revenue model shapes unit economics and funding needs",
			Category:      "financial",
			MECEDimension: "financial",
			Options: []model.QuestionOption{
				{Value: "subscription", Label: "Recurring subscription"},
				{Value: "one_time", Label: "One-time purchases"},
				{Value: "commission", Label: "Commission or marketplace fees"},
				{Value: "other", Label: "Other"},
			},
			AllowCustomInput: true,
		},
		{
			ID:            "budget",
			Question:      "What is your starting budget?",
			WhyImportant:  "Available capital constrains the launch plan and hiring timeline",
			Category:      "financial",
			MECEDimension: "financial",
			Options: []model.QuestionOption{
				{Value: "under_10k", Label: "Under $10,000"},
				{Value: "10k_50k", Label: "$10,000 - $50,000"},
				{Value: "over_50k", Label: "Over $50,000"},
				{Value: "other", Label: "Other"},
			},
			AllowCustomInput: true,
		},
		{
			ID:            "experience",
			Question:      "What relevant experience do you bring to this business?",
			WhyImportant:  "Founder-market fit changes hiring priorities and credibility with investors",
			Category:      "team",
			MECEDimension: "human",
			Options: []model.QuestionOption{
				{Value: "industry_veteran", Label: "Years of industry experience"},
				{Value: "adjacent", Label: "Experience in an adjacent field"},
				{Value: "first_time", Label: "First venture in this space"},
				{Value: "other", Label: "Other"},
			},
			AllowCustomInput: true,
		},
	}

	if count < len(questions) {
		return questions[:count]
	}
	return questions
}
