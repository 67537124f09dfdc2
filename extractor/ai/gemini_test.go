package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aqlanhadi/txnrecon/extractor/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	response string
	err      error
	prompt   string
	deadline bool
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	_, f.deadline = ctx.Deadline()
	return f.response, f.err
}

func TestExtractText_ParsesFencedJSON(t *testing.T) {
	fake := &fakeCompleter{response: "Here you go:\n```json\n" + `{
  "transactions": [
    {"description": "KFC Gulberg", "amount": 1250.5, "date": "Feb 15", "type": "expense", "category": "Food"},
    {"description": "Salary", "amount": "Rs. 85,000", "type": "income", "category": "Other"},
    {"description": "Refund", "amount": -300, "type": "income"}
  ],
  "detected_period": {"month": "February", "year": "2025"}
}` + "\n```"}

	res, err := NewStrategy(fake, 0, 0).ExtractText(context.Background(), "statement text")
	require.NoError(t, err)
	require.Len(t, res.Transactions, 3)

	assert.Equal(t, 1250.5, res.Transactions[0].Amount)
	assert.Equal(t, "Feb 15", res.Transactions[0].Date)
	assert.Equal(t, common.Category("Food"), res.Transactions[0].Category)
	assert.Equal(t, 85000.0, res.Transactions[1].Amount)
	assert.Equal(t, 300.0, res.Transactions[2].Amount)

	require.NotNil(t, res.DetectedPeriod)
	assert.Equal(t, "February", res.DetectedPeriod.Month)
	assert.Equal(t, 2025, res.DetectedPeriod.Year)
	assert.True(t, fake.deadline)
}

func TestExtractText_TruncatesInput(t *testing.T) {
	fake := &fakeCompleter{response: `{"transactions": []}`}
	text := strings.Repeat("a", 50) + "TAIL"

	res, err := NewStrategy(fake, 50, time.Second).ExtractText(context.Background(), text)
	require.NoError(t, err)
	assert.Empty(t, res.Transactions)
	assert.Nil(t, res.DetectedPeriod)
	assert.NotContains(t, fake.prompt, "TAIL")
	assert.Contains(t, fake.prompt, "Education, or Other")
}

func TestExtractText_Failures(t *testing.T) {
	_, err := NewStrategy(&fakeCompleter{err: errors.New("quota")}, 0, 0).ExtractText(context.Background(), "x")
	assert.EqualError(t, err, "quota")

	_, err = NewStrategy(&fakeCompleter{response: "  "}, 0, 0).ExtractText(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrEmptyResponse))

	_, err = NewStrategy(&fakeCompleter{response: "I could not find any"}, 0, 0).ExtractText(context.Background(), "x")
	assert.Error(t, err)
}

func TestCleanModelJSON(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                       `{"a":1}`,
		"```json\n{\"a\":1}\n```":       `{"a":1}`,
		"```\n{\"a\":1}```":             `{"a":1}`,
		"Sure! {\"a\":{\"b\":2}} done.": `{"a":{"b":2}}`,
	}
	for in, want := range cases {
		if got := cleanModelJSON(in); got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	}
}

func TestName(t *testing.T) {
	assert.Equal(t, "gemini", NewStrategy(&fakeCompleter{}, 0, 0).Name())
}
