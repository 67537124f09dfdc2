// Package ai extracts transactions from statement text with a language model.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aqlanhadi/txnrecon/extractor/common"
	"github.com/aqlanhadi/txnrecon/logger"
	"google.golang.org/genai"
)

const (
	DefaultModelName = "gemini-2.5-flash"
	DefaultMaxInput  = 8000
	DefaultTimeout   = 60 * time.Second
)

var ErrEmptyResponse = errors.New("empty response from model")

// Completer sends one prompt and returns the raw model text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type GeminiCompleter struct {
	client *genai.Client
	model  string
}

func NewGeminiCompleter(ctx context.Context, apiKey, model string) (*GeminiCompleter, error) {
	if model == "" {
		model = DefaultModelName
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiCompleter{client: client, model: model}, nil
}

func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.1),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return resp.Text(), nil
}

// Strategy is a text strategy backed by a Completer.
type Strategy struct {
	completer Completer
	maxInput  int
	timeout   time.Duration
}

func NewStrategy(c Completer, maxInput int, timeout time.Duration) *Strategy {
	if maxInput <= 0 {
		maxInput = DefaultMaxInput
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Strategy{completer: c, maxInput: maxInput, timeout: timeout}
}

func (s *Strategy) Name() string {
	return "gemini"
}

func (s *Strategy) ExtractText(ctx context.Context, text string) (*common.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	input := common.Truncate(text, s.maxInput)
	log := logger.FromContext(ctx)
	log.Debug().Int("chars", len([]rune(input))).Msg("sending statement text to model")

	raw, err := s.completer.Complete(ctx, buildPrompt(input))
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyResponse
	}

	var parsed modelResponse
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal model JSON: %w", err)
	}
	return parsed.result(), nil
}

func buildPrompt(text string) string {
	return `Analyze this bank statement text and extract all transactions.

For each transaction, identify:
1. Description (merchant/payee name)
2. Amount (as a positive number)
3. Date (if visible, as written in the statement)
4. Type: "expense" for debits/purchases/payments, "income" for credits/deposits
5. Category: ` + categoryList() + `

Also detect the statement period (month and year) if mentioned.

Return ONLY valid JSON in this exact format:
{
  "transactions": [
    {"description": "Store Name", "amount": 25.99, "date": "Feb 15", "type": "expense", "category": "Shopping"}
  ],
  "detected_period": {"month": "February", "year": 2024}
}

Bank Statement Text:
` + text
}

func categoryList() string {
	names := make([]string, 0, len(common.Taxonomy))
	for _, c := range common.Taxonomy {
		names = append(names, string(c))
	}
	return strings.Join(names[:len(names)-1], ", ") + ", or " + names[len(names)-1]
}

// looseNumber accepts 12.5, "12.5" and "Rs. 1,250.00".
type looseNumber float64

func (n *looseNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == "" {
		*n = 0
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*n = looseNumber(f)
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	if v, ok := common.ParseAmount(str); ok {
		*n = looseNumber(v.InexactFloat64())
		return nil
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(str), 64); err == nil {
		*n = looseNumber(f)
	}
	return nil
}

type modelTransaction struct {
	Description string      `json:"description"`
	Amount      looseNumber `json:"amount"`
	Date        string      `json:"date"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
}

type modelPeriod struct {
	Month string      `json:"month"`
	Year  looseNumber `json:"year"`
}

type modelResponse struct {
	Transactions   []modelTransaction `json:"transactions"`
	DetectedPeriod *modelPeriod       `json:"detected_period"`
}

func (r modelResponse) result() *common.Result {
	res := &common.Result{Transactions: make([]common.Transaction, 0, len(r.Transactions))}
	for _, tx := range r.Transactions {
		amount := float64(tx.Amount)
		if amount < 0 {
			amount = -amount
		}
		res.Transactions = append(res.Transactions, common.Transaction{
			Description: tx.Description,
			Amount:      amount,
			Date:        tx.Date,
			Type:        common.Direction(tx.Type),
			Category:    common.Category(tx.Category),
		})
	}
	if p := r.DetectedPeriod; p != nil && strings.TrimSpace(p.Month) != "" {
		res.DetectedPeriod = &common.DetectedPeriod{
			Month: strings.TrimSpace(p.Month),
			Year:  int(p.Year),
		}
	}
	return res
}

// cleanModelJSON strips Markdown fences and any text around the outermost
// JSON object.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return s
}
