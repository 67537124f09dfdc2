package text

import (
	"fmt"
	"strings"
	"testing"

	"github.com/aqlanhadi/txnrecon/extractor/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine_SecondToLastAmount(t *testing.T) {
	p := NewLineParser(Options{})

	c, ok := p.ParseLine("15-08-2025 Grocery Store Purchase 1,500.00 25,000.00")
	require.True(t, ok)

	if c.Amount != 1500 {
		t.Errorf("Expected amount 1500, got %v", c.Amount)
	}
	if c.Description != "Grocery Store Purchase" {
		t.Errorf("Expected description 'Grocery Store Purchase', got '%s'", c.Description)
	}
	if c.Date != "15-08-2025" {
		t.Errorf("Expected date '15-08-2025', got '%s'", c.Date)
	}
	assert.Equal(t, common.Expense, c.Type)
}

func TestParseLine_SingleAmountWithCurrency(t *testing.T) {
	p := NewLineParser(Options{})

	c, ok := p.ParseLine("Salary credited Rs. 85,000 01/03/2025")
	require.True(t, ok)
	assert.Equal(t, 85000.0, c.Amount)
	assert.Equal(t, "Salary credited", c.Description)
	assert.Equal(t, "01/03/2025", c.Date)
	assert.Equal(t, common.Income, c.Type)
}

func TestParseLine_PlainFourDigitAmount(t *testing.T) {
	p := NewLineParser(Options{})

	c, ok := p.ParseLine("ATM WITHDRAWAL 2000.00 DR")
	require.True(t, ok)
	assert.Equal(t, 2000.0, c.Amount)
	assert.Equal(t, "ATM WITHDRAWAL DR", c.Description)
	assert.Equal(t, common.Expense, c.Type)
	assert.Empty(t, c.Date)
}

func TestParseLine_Rejects(t *testing.T) {
	p := NewLineParser(Options{})

	for _, line := range []string{
		"",
		"short 1",
		"Opening Balance 10,000.00",
		"Page 1 of 3 printed",
		"Statement for March 2025",
		"no numbers in this line",
		"1234 5678 9012",
		"12-01-2025 a 500.00",
	} {
		if _, ok := p.ParseLine(line); ok {
			t.Errorf("Expected line %q to be rejected", line)
		}
	}
}

func TestParseLine_StrictMode(t *testing.T) {
	lenient := NewLineParser(Options{})
	strict := NewLineParser(Options{Strict: true})

	_, ok := lenient.ParseLine("Tip xy 250.00")
	assert.True(t, ok)
	_, ok = strict.ParseLine("Tip xy 250.00")
	assert.False(t, ok)
}

func TestDirection(t *testing.T) {
	assert.Equal(t, common.Income, Direction("Transfer in from Ali"))
	assert.Equal(t, common.Income, Direction("Cashback on card"))
	assert.Equal(t, common.Expense, Direction("Bill paid online"))
	assert.Equal(t, common.Expense, Direction("Address changed"))
	assert.Equal(t, common.Expense, Direction("Something else"))
}

func TestDirection_InflectedKeywords(t *testing.T) {
	assert.Equal(t, common.Income, Direction("Amount refunded to card"))
	assert.Equal(t, common.Income, Direction("Cash deposited at branch"))
	assert.Equal(t, common.Income, Direction("Fee reversals"))
	assert.Equal(t, common.Expense, Direction("Account debited for rent"))
	// short tokens stay whole words
	assert.Equal(t, common.Expense, Direction("Crane hire Drycleaners"))
}

func TestParseLine_InflectedIncome(t *testing.T) {
	p := NewLineParser(Options{})

	c, ok := p.ParseLine("Amount refunded to card 500.00 1200.00")
	require.True(t, ok)
	if c.Type != common.Income {
		t.Errorf("Expected type income, got %s", c.Type)
	}
	assert.Equal(t, 500.0, c.Amount)

	c, ok = p.ParseLine("Cash deposited at branch 500.00 1200.00")
	require.True(t, ok)
	if c.Type != common.Income {
		t.Errorf("Expected type income, got %s", c.Type)
	}
}

func TestParse_DeduplicatesAndCaps(t *testing.T) {
	var lines []string
	lines = append(lines, "Coffee shop visit 12.50", "Coffee shop visit 12.50")
	for i := 1; i <= 150; i++ {
		lines = append(lines, fmt.Sprintf("Bakery order number %d.00", i))
	}

	got := NewLineParser(Options{}).Parse(strings.Join(lines, "\n"))

	if len(got) != DefaultLimit {
		t.Fatalf("Expected %d transactions, got %d", DefaultLimit, len(got))
	}
	assert.Equal(t, "Coffee shop visit", got[0].Description)
	assert.Equal(t, "Bakery order number", got[1].Description)
	assert.Equal(t, 1.0, got[1].Amount)
}

func TestParse_CustomLimit(t *testing.T) {
	text := "Bakery order one 10.00\nBakery order two 20.00\nBakery order three 30.00"
	got := NewLineParser(Options{Limit: 2}).Parse(text)
	assert.Len(t, got, 2)
}
