package common

// RawRow is one row of extracted cells. Column position matters.
type RawRow []string

// Direction of money movement relative to the account holder.
type Direction string

const (
	Expense Direction = "expense"
	Income  Direction = "income"
)

type Category string

const (
	Food          Category = "Food"
	Shopping      Category = "Shopping"
	Transport     Category = "Transport"
	Utilities     Category = "Utilities"
	Transfer      Category = "Transfer"
	Entertainment Category = "Entertainment"
	Health        Category = "Health"
	Travel        Category = "Travel"
	Education     Category = "Education"
	Other         Category = "Other"
)

// Taxonomy lists every category a transaction may carry, Other last.
var Taxonomy = []Category{
	Food, Shopping, Transport, Utilities, Transfer,
	Entertainment, Health, Travel, Education, Other,
}

// Transaction is a finished, validated transaction. Amount is always positive.
type Transaction struct {
	Description string    `json:"description" csv:"description"`
	Amount      float64   `json:"amount" csv:"amount"`
	Date        string    `json:"date,omitempty" csv:"date"`
	Type        Direction `json:"type" csv:"type"`
	Category    Category  `json:"category" csv:"category"`
}

// DetectedPeriod is the statement month or date range, dates as YYYY-MM-DD.
type DetectedPeriod struct {
	Month     string `json:"month,omitempty"`
	Year      int    `json:"year,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Raw       string `json:"raw,omitempty"`
}

// Result is what one document yields.
type Result struct {
	Transactions   []Transaction   `json:"transactions"`
	DetectedPeriod *DetectedPeriod `json:"detected_period"`
}
