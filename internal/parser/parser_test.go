package parser

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-insights/internal/extractor"
	"github.com/insightdelivered/statement-insights/internal/models"
)

// linePages builds token pages with one token per non-empty line.
func linePages(pages ...string) []extractor.Page {
	out := make([]extractor.Page, 0, len(pages))
	for i, text := range pages {
		page := extractor.Page{Number: i + 1}
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				page.Tokens = append(page.Tokens, line)
			}
		}
		out = append(out, page)
	}
	return out
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func checkAmount(t *testing.T, field string, got decimal.Decimal, want string) {
	t.Helper()
	if s := got.StringFixed(2); s != want {
		t.Errorf("%s = %s, want %s", field, s, want)
	}
}

func checkBalance(t *testing.T, field string, got *decimal.Decimal, want string) {
	t.Helper()
	if got == nil {
		t.Errorf("%s = nil, want %s", field, want)
		return
	}
	checkAmount(t, field, *got, want)
}

func checkCount(t *testing.T, st *models.Statement, want int) {
	t.Helper()
	if len(st.Transactions) != want {
		t.Fatalf("expected %d transactions, got %d", want, len(st.Transactions))
	}
}

func TestIdentify(t *testing.T) {
	tests := []struct {
		name     string
		pages    []string
		expected models.BankType
	}{
		{
			name:     "detects NatWest",
			pages:    []string{"NatWest\nStatement\n15/01/2024"},
			expected: models.BankNatWest,
		},
		{
			name:     "detects National Westminster",
			pages:    []string{"National Westminster Bank Plc\nStatement"},
			expected: models.BankNatWest,
		},
		{
			name:     "detects HSBC",
			pages:    []string{"HSBC UK Bank plc\nYour Statement\n15 Jan 2024"},
			expected: models.BankHSBC,
		},
		{
			name:     "detects Barclays",
			pages:    []string{"Barclays Bank UK PLC\nStatement\n15/01/2024"},
			expected: models.BankBarclays,
		},
		{
			name:     "marker on a later page",
			pages:    []string{"", "Statement\nbarclays.co.uk"},
			expected: models.BankBarclays,
		},
		{
			name:     "unknown bank",
			pages:    []string{"Some Unknown Bank\nStatement"},
			expected: models.BankUnknown,
		},
		{
			name:     "first matching token wins",
			pages:    []string{"Payment to HSBC card\nBarclays Bank UK PLC"},
			expected: models.BankHSBC,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Identify(linePages(tt.pages...), 0); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIdentify_Limits(t *testing.T) {
	pages := linePages("one\ntwo\nthree\nHSBC")

	tests := []struct {
		name  string
		pages []extractor.Page
		limit int
		want  models.BankType
	}{
		{"no pages", nil, 10, models.BankUnknown},
		{"empty page", []extractor.Page{{Number: 1}}, 10, models.BankUnknown},
		{"marker past the scan limit", pages, 3, models.BankUnknown},
		{"marker at the scan limit", pages, 4, models.BankHSBC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Identify(tt.pages, tt.limit); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseBankHint(t *testing.T) {
	tests := []struct {
		hint    string
		want    models.BankType
		wantErr bool
	}{
		{"", models.BankUnknown, false},
		{"NatWest", models.BankNatWest, false},
		{"national westminster", models.BankNatWest, false},
		{" barclays ", models.BankBarclays, false},
		{"HSBC", models.BankHSBC, false},
		{"other", models.BankGeneric, false},
		{"metro", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			got, err := ParseBankHint(tt.hint)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProfileFor(t *testing.T) {
	tests := []struct {
		bank models.BankType
		want *Profile
	}{
		{models.BankHSBC, &HSBCProfile},
		{models.BankUnknown, &GenericProfile},
		{models.BankGeneric, &GenericProfile},
	}

	for _, tt := range tests {
		t.Run(string(tt.bank), func(t *testing.T) {
			if got := ProfileFor(tt.bank); got != tt.want {
				t.Errorf("ProfileFor(%q) returned the %q profile", tt.bank, got.Bank)
			}
		})
	}
}

func TestParse_Generic(t *testing.T) {
	pages := linePages(`Acme Credit Union
Account Number: 1234 5678
Sort Code: 12 34 56
Statement Period: 01/08/2023 to 31/10/2023
2023-08-15 BRITISH GAS DD -85.50 914.50
2023-09-15
BRITISH GAS DD
-85.50
829.00
15/10/2023 SALARY 2,000.00 2,829.00
16/10/2023 TESCO STORES (12.00) 2,817.00`)

	st := Parse(pages, models.BankUnknown)
	if st == nil {
		t.Fatal("expected a statement, got nil")
	}
	if st.Bank != models.BankGeneric {
		t.Errorf("bank = %q, want %q", st.Bank, models.BankGeneric)
	}
	checkCount(t, st, 4)

	first := st.Transactions[0]
	if !first.Date.Equal(date(2023, time.August, 15)) {
		t.Errorf("first date = %v", first.Date)
	}
	if first.Description != "BRITISH GAS DD" {
		t.Errorf("first description = %q", first.Description)
	}
	checkAmount(t, "first amount", first.Amount, "-85.50")
	checkBalance(t, "first balance", first.Balance, "914.50")
	if first.SourceBank != models.BankGeneric {
		t.Errorf("source bank = %q", first.SourceBank)
	}
	if want := "2023-08-15 BRITISH GAS DD -85.50 914.50"; first.OriginalText != want {
		t.Errorf("original text = %q, want %q", first.OriginalText, want)
	}

	second := st.Transactions[1]
	if !second.Date.Equal(date(2023, time.September, 15)) {
		t.Errorf("second date = %v", second.Date)
	}
	checkAmount(t, "second amount", second.Amount, "-85.50")
	checkAmount(t, "salary", st.Transactions[2].Amount, "2000.00")
	checkAmount(t, "tesco", st.Transactions[3].Amount, "-12.00")

	md := st.Metadata
	if md.AccountNumberMasked != "****5678" {
		t.Errorf("account number = %q", md.AccountNumberMasked)
	}
	if md.SortCode != "12-34-56" {
		t.Errorf("sort code = %q", md.SortCode)
	}
	if md.StatementPeriod == nil {
		t.Fatal("expected a statement period")
	}
	if !md.StatementPeriod.Start.Equal(date(2023, time.August, 1)) || !md.StatementPeriod.End.Equal(date(2023, time.October, 31)) {
		t.Errorf("period = %v to %v", md.StatementPeriod.Start, md.StatementPeriod.End)
	}
}

func TestParse_Rows(t *testing.T) {
	tests := []struct {
		name     string
		bank     models.BankType
		text     string
		want     []string
		rejected int
	}{
		{
			name: "incomplete rows are rejected",
			bank: models.BankGeneric,
			text: `15/08/2023
85.50
16/08/2023 NO AMOUNT HERE
17/08/2023 NETFLIX 9.99 100.00
18/08/2023`,
			want:     []string{"NETFLIX"},
			rejected: 3,
		},
		{
			name: "generic layout does not carry dates",
			bank: models.BankGeneric,
			text: `15/08/2023 TESCO 10.00 90.00
SAINSBURYS 5.00 85.00`,
			want: []string{"TESCO"},
		},
		{
			name: "no tokens",
			bank: models.BankUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pages []extractor.Page
			if tt.text != "" {
				pages = linePages(tt.text)
			}
			st := Parse(pages, tt.bank)
			checkCount(t, st, len(tt.want))
			for i, desc := range tt.want {
				if st.Transactions[i].Description != desc {
					t.Errorf("transaction %d description = %q, want %q", i, st.Transactions[i].Description, desc)
				}
			}
			if st.Rejected != tt.rejected {
				t.Errorf("rejected = %d, want %d", st.Rejected, tt.rejected)
			}
			if tt.text == "" && st.Metadata.StatementPeriod != nil {
				t.Errorf("expected no statement period, got %v", st.Metadata.StatementPeriod)
			}
		})
	}
}

func TestParse_Idempotent(t *testing.T) {
	text := `Barclays Bank UK PLC
15/01/2024 CARD PAYMENT TESCO STORES 25.99 1,234.56
DIRECT DEBIT SKY UK 45.00 1,189.56
17/01/2024 BGC SALARY EMPLOYER 2,500.00 3,689.56`

	a := Parse(linePages(text), models.BankBarclays)
	b := Parse(linePages(text), models.BankBarclays)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("parsing the same pages twice differed:\n%+v\n%+v", a, b)
	}
}

func TestProfile_ParseDate(t *testing.T) {
	tests := []struct {
		profile *Profile
		input   string
		want    time.Time
		ok      bool
	}{
		{&GenericProfile, "15/08/2023", date(2023, time.August, 15), true},
		{&GenericProfile, "15 Aug 2023", date(2023, time.August, 15), true},
		{&GenericProfile, "15 AUGUST 2023", date(2023, time.August, 15), true},
		{&GenericProfile, "2023-08-15", date(2023, time.August, 15), true},
		{&GenericProfile, "15/08/23", date(2023, time.August, 15), true},
		{&GenericProfile, "15-Aug-2023", date(2023, time.August, 15), true},
		{&HSBCProfile, "15 Aug 23", date(2023, time.August, 15), true},
		{&GenericProfile, "15 Aug 23", time.Time{}, false},
		{&NatWestProfile, "1 Feb 24", date(2024, time.February, 1), true},
		{&GenericProfile, "31/02/2023", time.Time{}, false},
		{&GenericProfile, "Aug 15 2023", time.Time{}, false},
		{&GenericProfile, "85.50", time.Time{}, false},
		{&GenericProfile, "", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.profile.Bank)+"/"+tt.input, func(t *testing.T) {
			got, ok := tt.profile.parseDate(tt.input)
			if ok != tt.ok {
				t.Fatalf("parseDate(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
