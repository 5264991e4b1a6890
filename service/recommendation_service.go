package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"officefruits/catalog"
	"officefruits/models"
)

// DefaultMood is used when the customer leaves the mood empty
const DefaultMood = "Productive & Creative"

// ErrRecommenderUnavailable is returned when no recommendation backend is configured
var ErrRecommenderUnavailable = errors.New("recommendation backend not configured")

// Recommender asks an external backend for a box suggestion
type Recommender interface {
	Recommend(ctx context.Context, teamSize int, mood string) (*models.Recommendation, error)
}

// ItemSource lists the catalog items hints are matched against
type ItemSource interface {
	Items() []models.Item
}

// GenAIRecommender asks Gemini for a suggestion constrained by a JSON response schema
type GenAIRecommender struct {
	client *genai.Client
	model  string
	names  []string
}

// NewGenAIRecommender creates a new GenAIRecommender offering the given fruit names
func NewGenAIRecommender(ctx context.Context, apiKey, model string, names []string) (*GenAIRecommender, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIRecommender{client: client, model: model, names: names}, nil
}

// Ensure GenAIRecommender implements Recommender
var _ Recommender = (*GenAIRecommender)(nil)

// recommendationSchema mirrors models.Recommendation
var recommendationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"guruMessage": {Type: genai.TypeString},
		"recommendations": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"fruitName": {Type: genai.TypeString},
					"quantity":  {Type: genai.TypeNumber},
				},
				Required: []string{"fruitName", "quantity"},
			},
		},
	},
	Required: []string{"guruMessage", "recommendations"},
}

// Recommend performs one GenerateContent call
func (g *GenAIRecommender) Recommend(ctx context.Context, teamSize int, mood string) (*models.Recommendation, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(BuildRecommendationPrompt(teamSize, mood, g.names), genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   recommendationSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("GenAI generate failed: %w", err)
	}

	return ParseRecommendation(resp.Text())
}

// BuildRecommendationPrompt renders the Fruit Guru prompt
func BuildRecommendationPrompt(teamSize int, mood string, names []string) string {
	var b strings.Builder
	b.WriteString("Act as a 'Fruit Guru' for a corporate office.\n")
	fmt.Fprintf(&b, "The team size is %d people.\n", teamSize)
	fmt.Fprintf(&b, "The office mood is currently: %q.\n", mood)
	fmt.Fprintf(&b, "Suggest a mix of fruits from the following available list: %s.\n", strings.Join(names, ", "))
	b.WriteString("Provide a JSON response containing an array of objects with 'fruitName' and 'quantity'.\n")
	b.WriteString("Also include a short, catchy, fruity 'guruMessage' describing why this mix is perfect.")
	return b.String()
}

// ParseRecommendation decodes the backend's JSON answer. Quantities may come back
// as fractional numbers and are rounded. An answer without suggestions is an error.
func ParseRecommendation(text string) (*models.Recommendation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty recommendation response")
	}

	var raw struct {
		GuruMessage     string `json:"guruMessage"`
		Recommendations []struct {
			FruitName string  `json:"fruitName"`
			Quantity  float64 `json:"quantity"`
		} `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode recommendation: %w", err)
	}
	if len(raw.Recommendations) == 0 {
		return nil, fmt.Errorf("recommendation has no suggestions")
	}

	rec := &models.Recommendation{
		Message:     strings.TrimSpace(raw.GuruMessage),
		Suggestions: make([]models.Suggestion, 0, len(raw.Recommendations)),
	}
	for _, r := range raw.Recommendations {
		rec.Suggestions = append(rec.Suggestions, models.Suggestion{
			FruitName: r.FruitName,
			Quantity:  int(math.Round(r.Quantity)),
		})
	}
	return rec, nil
}

type unavailableRecommender struct{}

func (unavailableRecommender) Recommend(ctx context.Context, teamSize int, mood string) (*models.Recommendation, error) {
	return nil, ErrRecommenderUnavailable
}

// NewUnavailableRecommender returns a Recommender that always fails.
// It stands in when no API key is configured.
func NewUnavailableRecommender() Recommender {
	return unavailableRecommender{}
}

// RecommendationService bounds recommendation calls and turns their answers into boxes
type RecommendationService struct {
	recommender Recommender
	items       ItemSource
	timeout     time.Duration
	defaultMood string
	logger      *zap.Logger
}

// NewRecommendationService creates a new RecommendationService
func NewRecommendationService(recommender Recommender, items ItemSource, timeout time.Duration, defaultMood string, logger *zap.Logger) *RecommendationService {
	if defaultMood == "" {
		defaultMood = DefaultMood
	}
	return &RecommendationService{
		recommender: recommender,
		items:       items,
		timeout:     timeout,
		defaultMood: defaultMood,
		logger:      logger,
	}
}

// Recommend asks the backend once. Every failure (transport, timeout, schema,
// or no suggestion matching the catalog) is logged and reported as ok == false.
func (s *RecommendationService) Recommend(ctx context.Context, teamSize int, mood string) (rec *models.Recommendation, ok bool) {
	if teamSize < 1 {
		teamSize = 1
	}
	mood = strings.TrimSpace(mood)
	if mood == "" {
		mood = s.defaultMood
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recommend: recommender panicked", zap.Any("panic", r))
			rec, ok = nil, false
		}
	}()

	started := time.Now()
	rec, err := s.recommender.Recommend(ctx, teamSize, mood)
	if err != nil {
		s.logger.Warn("Recommend: recommendation failed",
			zap.Error(err),
			zap.Int("team_size", teamSize),
			zap.Duration("elapsed", time.Since(started)),
		)
		return nil, false
	}
	if rec == nil || len(s.Resolve(rec)) == 0 {
		s.logger.Warn("Recommend: no suggestion matched the catalog", zap.Int("team_size", teamSize))
		return nil, false
	}

	s.logger.Info("Recommend: recommendation received",
		zap.Int("team_size", teamSize),
		zap.Int("suggestions", len(rec.Suggestions)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return rec, true
}

// Resolve maps suggestion hints to catalog ids. Unmatched hints and
// non-positive quantities are dropped; a later hint for the same item wins.
func (s *RecommendationService) Resolve(rec *models.Recommendation) map[string]int {
	mapping := make(map[string]int)
	if rec == nil {
		return mapping
	}
	items := s.items.Items()
	for _, sug := range rec.Suggestions {
		if sug.Quantity <= 0 {
			continue
		}
		item, ok := catalog.MatchHint(sug.FruitName, items)
		if !ok {
			s.logger.Debug("Resolve: dropping unmatched hint", zap.String("hint", sug.FruitName))
			continue
		}
		mapping[item.ID] = sug.Quantity
	}
	return mapping
}
