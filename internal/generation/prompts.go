package generation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// GenerationContext is the accumulated input for prompt construction: the
// immutable session inputs plus every prior stage's payload, growing by one
// entry after each completed stage.
type GenerationContext struct {
	BusinessIdea string
	Answers      map[string]string
	PriorResults map[string]json.RawMessage
}

type promptDep struct {
	label   string
	stageID string
}

type stageTemplate struct {
	system string
	// deps are the earlier stage outputs this stage's prompt embeds, in the
	// order they appear in the prompt.
	deps []promptDep
	body string
}

// BuildPrompts produces the (system, user) prompt pair for a stage. It is a
// total function: a dependency missing from PriorResults serializes as "{}"
// rather than failing.
func BuildPrompts(stageID string, genCtx *GenerationContext) (systemPrompt, userPrompt string) {
	tpl := stageTemplates[stageID]

	var b strings.Builder
	b.WriteString("BUSINESS IDEA:\n")
	b.WriteString(genCtx.BusinessIdea)
	b.WriteString("\n")

	if len(genCtx.Answers) > 0 {
		b.WriteString("\nADDITIONAL BUSINESS DETAILS:\n")
		keys := make([]string, 0, len(genCtx.Answers))
		for k := range genCtx.Answers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, genCtx.Answers[k])
		}
	}

	for _, dep := range tpl.deps {
		b.WriteString("\n")
		b.WriteString(dep.label)
		b.WriteString(":\n")
		b.WriteString(indentJSON(genCtx.PriorResults[dep.stageID]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(tpl.body)

	return tpl.system, b.String()
}

// StageDependencies returns the ids of the earlier stages whose output the
// given stage's prompt embeds.
func StageDependencies(stageID string) []string {
	tpl := stageTemplates[stageID]
	ids := make([]string, 0, len(tpl.deps))
	for _, dep := range tpl.deps {
		ids = append(ids, dep.stageID)
	}
	return ids
}

func indentJSON(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "{}"
	}
	return buf.String()
}

// The JSON structures below are contract surfaces: downstream rendering depends
// on the exact field names, so they must not be reworded.
var stageTemplates = map[string]stageTemplate{
	"market": {
		system: `You are an expert market research analyst with deep expertise in TAM/SAM/SOM analysis.
Your job is to provide realistic, data-driven market analysis with specific numbers.
Always respond with valid JSON matching the exact structure requested.
Be specific with numbers and cite realistic market data based on industry benchmarks.`,
		body: `Analyze the market opportunity for this business idea.

Return JSON with this EXACT structure:
{
  "tam": { "value": "$X.XB", "label": "Description of total addressable market" },
  "sam": { "value": "$X.XB", "label": "Description of serviceable addressable market" },
  "som": { "value": "$X.XM", "label": "Year 1 achievable market share" },
  "trends": [
    { "name": "Trend name", "yoy": "+X%", "direction": "up" },
    { "name": "Trend name", "yoy": "-X%", "direction": "down" }
  ],
  "aiInsight": "A unique, AI-generated insight about this specific market opportunity that isn't obvious",
  "demographics": {
    "primaryAge": "XX-XX",
    "income": "$XXk-$XXXk",
    "urbanDensity": "High/Medium/Low (metro/suburban/rural areas)"
  }
}

Provide at least 4 trends. Be specific with numbers - don't use placeholders.`,
	},

	"customers": {
		system: `You are a customer research specialist who creates detailed buyer personas.
Your personas should feel like real people with names, specific demographics, and psychographic details.
Always respond with valid JSON. Include vivid "day in the life" narratives.
Create 3 distinct customer personas that represent different segments.`,
		deps: []promptDep{
			{label: "MARKET CONTEXT", stageID: "market"},
		},
		body: `Create 3 detailed customer personas for this business.

Return JSON with this EXACT structure:
{
  "profiles": [
    {
      "name": "Alliterative Name (e.g., 'Busy Brian')",
      "avatar": "emoji that represents them (e.g., '👨‍💼')",
      "tagline": "Short descriptor (e.g., 'The Busy Professional')",
      "demographics": {
        "age": "XX-XX",
        "income": "$XXk-$XXXk",
        "location": "Geographic description"
      },
      "psychographics": {
        "values": ["Value 1", "Value 2", "Value 3"],
        "painPoints": ["Pain point 1", "Pain point 2", "Pain point 3"],
        "buyingTriggers": ["Trigger 1", "Trigger 2", "Trigger 3"]
      },
      "dayInLife": "A 2-3 sentence narrative describing a typical day and how they encounter the problem this business solves"
    }
  ],
  "segmentSplit": {
    "Segment Name 1": 45,
    "Segment Name 2": 30,
    "Segment Name 3": 25
  }
}

Create 3 distinct personas. Segment percentages should sum to 100.`,
	},

	"competitors": {
		system: `You are a competitive intelligence analyst who creates thorough competitor landscapes.
You analyze positioning, identify gaps, and assess competitive dynamics.
Always respond with valid JSON. Include a 2x2 positioning matrix with realistic competitor placements.
Create a comprehensive SWOT analysis based on the market and competitive context.`,
		deps: []promptDep{
			{label: "MARKET RESEARCH", stageID: "market"},
			{label: "CUSTOMER PROFILES", stageID: "customers"},
		},
		body: `Analyze the competitive landscape for this business.

Return JSON with this EXACT structure:
{
  "positioning": {
    "xAxis": "Dimension 1 (e.g., 'Price Point')",
    "yAxis": "Dimension 2 (e.g., 'Quality/Experience')",
    "players": [
      { "name": "Competitor 1", "x": 0.3, "y": 0.7 },
      { "name": "Competitor 2", "x": 0.6, "y": 0.4 },
      { "name": "Competitor 3", "x": 0.8, "y": 0.8 },
      { "name": "Your Business", "x": 0.5, "y": 0.9, "isYou": true }
    ]
  },
  "list": [
    {
      "name": "Competitor Name",
      "type": "Type (e.g., 'Direct Competitor', 'Substitute')",
      "strengths": ["Strength 1", "Strength 2"],
      "weaknesses": ["Weakness 1", "Weakness 2"],
      "marketShare": "X%"
    }
  ],
  "swot": {
    "strengths": ["Your strength 1", "Your strength 2", "Your strength 3"],
    "weaknesses": ["Your weakness 1", "Your weakness 2"],
    "opportunities": ["Opportunity 1", "Opportunity 2", "Opportunity 3"],
    "threats": ["Threat 1", "Threat 2"]
  },
  "competitiveAdvantage": "One sentence describing your unique competitive edge"
}

X and Y values should be between 0 and 1. Include 3-4 competitors. SWOT should be about the user's business.`,
	},

	"businessPlan": {
		system: `You are a business strategist who creates executable business plans.
Focus on vision, mission, quarterly roadmaps, and operational details.
Always respond with valid JSON. Include realistic supply chain considerations.
Plans should be specific enough to execute, not generic platitudes.`,
		deps: []promptDep{
			{label: "MARKET", stageID: "market"},
			{label: "CUSTOMERS", stageID: "customers"},
			{label: "COMPETITORS", stageID: "competitors"},
		},
		body: `Create a comprehensive business plan.

Return JSON with this EXACT structure:
{
  "vision": "Inspiring long-term vision statement (1-2 sentences)",
  "mission": "Clear mission statement describing what you do and for whom",
  "roadmap": [
    {
      "quarter": "Q1 2025",
      "milestones": ["Milestone 1", "Milestone 2", "Milestone 3"],
      "focus": "Primary focus for this quarter"
    }
  ],
  "supplyChain": [
    {
      "category": "Category name (e.g., 'Technology', 'Suppliers')",
      "vendors": ["Vendor/Partner 1", "Vendor/Partner 2"],
      "strategy": "Sourcing strategy for this category"
    }
  ],
  "operations": {
    "model": "Operating model description",
    "hours": "Operating hours or availability",
    "locations": ["Location 1", "Location 2"],
    "staffing": "Staffing approach and requirements"
  }
}

Include 4 quarters in the roadmap. Include 2-3 supply chain categories.`,
	},

	"goToMarket": {
		system: `You are a go-to-market strategist who designs customer acquisition strategies.
Focus on CAC, LTV, channel strategy, and launch phases.
Always respond with valid JSON. Include viral mechanics and referral strategies.
Be specific about budgets, expected ROI, and timeline for each channel.`,
		deps: []promptDep{
			{label: "CUSTOMERS", stageID: "customers"},
			{label: "COMPETITORS", stageID: "competitors"},
			{label: "BUSINESS PLAN", stageID: "businessPlan"},
		},
		body: `Design a go-to-market strategy.

Return JSON with this EXACT structure:
{
  "metrics": {
    "cac": { "value": "$XX", "breakdown": "How CAC is spent (e.g., 'Social $X + Events $X')" },
    "ltv": { "value": "$XXX", "basis": "Calculation basis (e.g., '2yr avg customer value')" },
    "ltvCacRatio": "X:1"
  },
  "channels": [
    {
      "name": "Channel name",
      "strategy": "How you'll use this channel",
      "budget": "$X,XXX/month",
      "expectedROI": "X:1 or XX%"
    }
  ],
  "launchPhases": [
    {
      "phase": "Phase name (e.g., 'Soft Launch')",
      "duration": "X weeks/months",
      "activities": ["Activity 1", "Activity 2", "Activity 3"],
      "goals": ["Goal 1", "Goal 2"]
    }
  ],
  "viralMechanics": {
    "referralProgram": "Description of referral incentives",
    "socialProof": "How you'll generate and display social proof",
    "communityBuilding": "Community strategy"
  }
}

Include 3-4 channels. Include 3 launch phases (soft launch, public launch, growth).`,
	},

	"financial": {
		system: `You are a financial analyst who creates realistic 5-year financial projections.
Use industry benchmarks for margins, growth rates, and unit economics.
Always respond with valid JSON. Include detailed P&L projections.
Be conservative in Year 1, then show realistic growth trajectory.`,
		deps: []promptDep{
			{label: "MARKET", stageID: "market"},
			{label: "BUSINESS PLAN", stageID: "businessPlan"},
			{label: "GO-TO-MARKET", stageID: "goToMarket"},
		},
		body: `Create a 5-year financial model.

Return JSON with this EXACT structure:
{
  "summary": {
    "startupCost": "$XX,XXX",
    "monthlyBurnRate": "$X,XXX",
    "breakEvenMonths": 18,
    "yearOneRevenue": "$XXX,XXX"
  },
  "projections": [
    {
      "period": "Year 1",
      "revenue": 100000,
      "cogs": 30000,
      "grossProfit": 70000,
      "opex": 120000,
      "netProfit": -50000,
      "margin": "-50%"
    }
  ],
  "capex": [
    {
      "item": "Item name",
      "cost": 50000,
      "depreciation": "5 years straight-line"
    }
  ],
  "fundingNeeds": {
    "amount": "$XXX,XXX",
    "use": ["Use 1 (XX%)", "Use 2 (XX%)", "Use 3 (XX%)"],
    "runway": "XX months"
  }
}

Include 5 yearly projections. Revenue numbers should be integers. Provide realistic projections based on the market size.`,
	},

	"pitchDeck": {
		system: `You are a pitch deck consultant who has helped raise billions in funding.
Create compelling 10-slide investor narratives with speaker notes.
Always respond with valid JSON. Each slide should tell part of the story.
Include visual suggestions for each slide to guide presentation design.`,
		deps: []promptDep{
			{label: "MARKET", stageID: "market"},
			{label: "CUSTOMERS", stageID: "customers"},
			{label: "COMPETITORS", stageID: "competitors"},
			{label: "BUSINESS PLAN", stageID: "businessPlan"},
			{label: "GO-TO-MARKET", stageID: "goToMarket"},
			{label: "FINANCIAL", stageID: "financial"},
		},
		body: `Create a 10-slide investor pitch deck.

Return JSON with this EXACT structure:
{
  "slides": [
    {
      "number": 1,
      "title": "Title Slide",
      "content": "Company name and one-line pitch",
      "speakerNotes": "Introduction talking points",
      "visualSuggestion": "Logo centered, clean background"
    }
  ],
  "narrativeArc": "Brief description of the story arc (problem -> solution -> opportunity -> team -> ask)",
  "askAmount": "$XXX,XXX",
  "useOfFunds": ["Engineering (XX%)", "Sales & Marketing (XX%)", "Operations (XX%)"]
}

Include exactly 10 slides covering: title, problem, solution, market opportunity, business model, traction, competition, go-to-market, team, and the ask.
Each slide should tell part of a compelling narrative. Speaker notes should be 2-3 sentences.`,
	},

	"team": {
		system: `You are an organizational design consultant who plans optimal team structures.
Define founder roles, hiring priorities, and operational partnerships.
Always respond with valid JSON. Include realistic salary ranges.
Prioritize hires as critical, important, or nice-to-have.`,
		deps: []promptDep{
			{label: "BUSINESS PLAN", stageID: "businessPlan"},
			{label: "FINANCIAL", stageID: "financial"},
		},
		body: `Plan the team structure and operations.

Return JSON with this EXACT structure:
{
  "founders": [
    {
      "role": "CEO / [Specialty]",
      "responsibilities": ["Responsibility 1", "Responsibility 2", "Responsibility 3"],
      "skills": ["Skill 1", "Skill 2", "Skill 3"],
      "background": "Brief background description that makes them credible for this role"
    }
  ],
  "hires": [
    {
      "role": "Role title",
      "timeline": "Month X",
      "salary": "$XX,XXX-$XXX,XXX",
      "priority": "critical"
    }
  ],
  "partners": [
    {
      "type": "Partner type (e.g., 'Accountant', 'Legal')",
      "name": "Firm type or example",
      "service": "What they provide"
    }
  ],
  "advisors": ["Advisor type 1 (e.g., 'Industry Expert')", "Advisor type 2", "Advisor type 3"]
}

Include 1-2 founders. Include 4-6 hires with priorities critical, important, or nice-to-have. Include 3-4 partners.`,
	},
}
