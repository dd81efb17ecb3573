package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"reelpipe/internal/model"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

// Client talks to the evaluation/generation service. One client guards one
// external quota; all calls go through its Retrier.
type Client struct {
	api     *openai.Client
	model   string
	retrier *Retrier
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string // optional
	Retrier *Retrier
}

func New(cfg Config) *Client {
	var c *openai.Client
	if cfg.BaseURL != "" {
		cc := openai.DefaultConfig(cfg.APIKey)
		cc.BaseURL = cfg.BaseURL
		c = openai.NewClientWithConfig(cc)
	} else {
		c = openai.NewClient(cfg.APIKey)
	}
	model := cfg.Model
	if model == "" {
		panic("evaluation model must be specified")
	}
	retrier := cfg.Retrier
	if retrier == nil {
		retrier = NewRetrier(3, 4*time.Second, time.Minute, 5*time.Second)
	}
	return &Client{api: c, model: model, retrier: retrier}
}

// Model returns the configured model name, recorded on evaluated items.
func (c *Client) Model() string { return c.model }

// Session binds the client to one cycle's prompt snapshot. Empty prompts
// fall back to the built-in defaults.
func (c *Client) Session(scorePrompt, reelPrompt string) *Session {
	return &Session{c: c, scorePrompt: scorePrompt, reelPrompt: reelPrompt}
}

// Session evaluates and generates with a fixed pair of prompts.
type Session struct {
	c           *Client
	scorePrompt string
	reelPrompt  string
}

const defaultScorePrompt = `You are an expert content evaluator for AI influencers. Rate content from 0-100 based on relevance to AI/tech audiences and content creation potential.

Return ONLY a numeric score from 0-100. No explanations, just the number.

Example: 85`

const defaultReelPrompt = `You are an expert content creator specializing in viral social media reels. Create engaging reel concepts based on the raw idea provided by the user.

REQUIREMENTS:
1. Create exactly the requested number of reel concepts
2. Each reel should be unique and engaging
3. Focus on viral potential and audience engagement
4. Make content suitable for short-form video (15-60 seconds)
5. Include specific visual elements and hooks

OUTPUT FORMAT:
Return ONLY a JSON array. Each element must have these exact fields:
{"reel_title": "...", "target_audience": "...", "hook": "...", "concept": "...", "visuals": "...", "cta": "..."}`

// Score evaluates one item and returns a relevance score in 0..100.
// Exhausted retries and fatal errors surface as *CallError.
func (s *Session) Score(ctx context.Context, item model.CanonicalItem) (int, error) {
	prompt := s.scorePrompt
	if prompt == "" {
		prompt = defaultScorePrompt
	}
	var score int
	err := s.c.retrier.Do(ctx, "score", func(ctx context.Context) error {
		out, err := s.c.create(ctx, prompt, scorePayload(item), 120*time.Second)
		if err != nil {
			return err
		}
		n, err := parseScore(out)
		if err != nil {
			// The service answered but not with a usable score; retryable.
			return &CallError{Kind: KindTransient, Err: err}
		}
		score = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return score, nil
}

// Generate produces exactly n artifact concepts for an approved item.
// A response with fewer than n well-formed concepts fails the whole call.
func (s *Session) Generate(ctx context.Context, item model.CanonicalItem, n int) ([]model.Artifact, error) {
	prompt := s.reelPrompt
	if prompt == "" {
		prompt = defaultReelPrompt
	}
	var out []model.Artifact
	err := s.c.retrier.Do(ctx, "generate", func(ctx context.Context) error {
		raw, err := s.c.create(ctx, prompt, reelPayload(item, n), 300*time.Second)
		if err != nil {
			return err
		}
		concepts, err := parseReels(raw, n)
		if err != nil {
			return &CallError{Kind: KindTransient, Err: err}
		}
		out = buildArtifacts(item, concepts)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) create(ctx context.Context, system, user string, timeout time.Duration) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.4,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// scorePayload assembles the minimal text sent for evaluation: the title,
// plus the first non-empty content field.
func scorePayload(item model.CanonicalItem) string {
	for _, body := range []string{item.Content, item.Description} {
		if strings.TrimSpace(body) != "" {
			if len([]rune(body)) > 2000 {
				body = string([]rune(body)[:2000])
			}
			return fmt.Sprintf("Title: %s\n\nContent: %s", item.Title, body)
		}
	}
	return fmt.Sprintf("Title: %s", item.Title)
}

func reelPayload(item model.CanonicalItem, n int) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "Create exactly %d reel concepts for this raw idea.\n\n", n)
	fmt.Fprintf(b, "RAW IDEA DETAILS:\n")
	fmt.Fprintf(b, "- Title: %s\n", item.Title)
	content := item.Content
	if strings.TrimSpace(content) == "" {
		content = item.Description
	}
	fmt.Fprintf(b, "- Content: %s\n", content)
	fmt.Fprintf(b, "- Relevance Score: %d\n", item.RelevanceScore)
	fmt.Fprintf(b, "- Source URL: %s\n", item.SourceURL)
	return b.String()
}

var scorePattern = regexp.MustCompile(`\b(\d{1,3})\b`)

// parseScore extracts a 0..100 integer from the model's reply: a bare number
// first, then the first short number embedded in text.
func parseScore(raw string) (int, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return 0, fmt.Errorf("empty response")
	}
	if n, err := strconv.Atoi(text); err == nil {
		if n < 0 || n > 100 {
			return 0, fmt.Errorf("score out of range: %d", n)
		}
		return n, nil
	}
	if m := scorePattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n >= 0 && n <= 100 {
			return n, nil
		}
	}
	return 0, fmt.Errorf("no score in response: %q", text)
}

// reelConcept is the structured shape the service must return per concept.
type reelConcept struct {
	Title          string `json:"reel_title"`
	TargetAudience string `json:"target_audience"`
	Hook           string `json:"hook"`
	Concept        string `json:"concept"`
	Visuals        string `json:"visuals"`
	CTA            string `json:"cta"`
}

// parseReels decodes the generation reply and requires exactly want
// well-formed concepts; anything less fails the call.
func parseReels(raw string, want int) ([]reelConcept, error) {
	text := stripFences(raw)
	if text == "" {
		return nil, fmt.Errorf("empty response")
	}
	var concepts []reelConcept
	if err := json.Unmarshal([]byte(text), &concepts); err != nil {
		return nil, fmt.Errorf("unparseable response: %w", err)
	}
	if len(concepts) != want {
		return nil, fmt.Errorf("expected %d concepts, got %d", want, len(concepts))
	}
	for i, c := range concepts {
		if strings.TrimSpace(c.Title) == "" || strings.TrimSpace(c.Hook) == "" || strings.TrimSpace(c.Concept) == "" {
			return nil, fmt.Errorf("concept %d missing required fields", i)
		}
	}
	return concepts, nil
}

// stripFences removes a surrounding markdown code fence, which models add
// despite instructions.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```json") {
		text = text[len("```json"):]
	} else if strings.HasPrefix(text, "```") {
		text = text[len("```"):]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func buildArtifacts(item model.CanonicalItem, concepts []reelConcept) []model.Artifact {
	now := time.Now().UTC()
	out := make([]model.Artifact, 0, len(concepts))
	for _, c := range concepts {
		out = append(out, model.Artifact{
			ID:               uuid.NewString(),
			ParentItemID:     item.ID,
			Title:            c.Title,
			TargetAudience:   c.TargetAudience,
			Hook:             c.Hook,
			Concept:          c.Concept,
			Visuals:          c.Visuals,
			CTA:              c.CTA,
			RelevanceScore:   item.RelevanceScore,
			SourceURL:        item.SourceURL,
			ProductionStatus: model.ProductionPending,
			CreatedAt:        now,
		})
	}
	return out
}
