package parser

import (
	"reflect"
	"testing"
)

func TestParseAmountToken(t *testing.T) {
	tests := []struct {
		input    string
		value    string
		negative bool
		marker   Marker
		ok       bool
	}{
		{"25.99", "25.99", false, MarkerNone, true},
		{"1,234.56", "1234.56", false, MarkerNone, true},
		{"£25.99", "25.99", false, MarkerNone, true},
		{"-25.99", "25.99", true, MarkerNone, true},
		{"-£85.50", "85.50", true, MarkerNone, true},
		{"£-85.50", "85.50", true, MarkerNone, true},
		{"£1,234,567.89", "1234567.89", false, MarkerNone, true},
		{"(12.00)", "12.00", true, MarkerNone, true},
		{"20.00-", "20.00", true, MarkerNone, true},
		{"85.50 DR", "85.50", false, MarkerDebit, true},
		{"85.50CR", "85.50", false, MarkerCredit, true},
		{"1,234.56O/D", "1234.56", false, MarkerOverdrawn, true},
		{"1,234.56 OD", "1234.56", false, MarkerOverdrawn, true},
		{" 25.99 ", "25.99", false, MarkerNone, true},
		{"0.00", "0.00", false, MarkerNone, true},
		{"", "", false, MarkerNone, false},
		{"2024", "", false, MarkerNone, false},
		{"12,34.56", "", false, MarkerNone, false},
		{"TESCO", "", false, MarkerNone, false},
		{"15/01/2024", "", false, MarkerNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseAmountToken(tt.input)
			if ok != tt.ok {
				t.Fatalf("parseAmountToken(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if !ok {
				return
			}
			if v := got.Value.StringFixed(2); v != tt.value {
				t.Errorf("value = %s, want %s", v, tt.value)
			}
			if got.Negative != tt.negative {
				t.Errorf("negative = %v, want %v", got.Negative, tt.negative)
			}
			if got.Marker != tt.marker {
				t.Errorf("marker = %v, want %v", got.Marker, tt.marker)
			}
		})
	}
}

func TestSignRules(t *testing.T) {
	debit := debitDefault(isCreditDescription)

	tests := []struct {
		name  string
		rule  SignRule
		token string
		desc  string
		want  string
	}{
		{"literal keeps unsigned", literalSign, "85.50", "", "85.50"},
		{"literal keeps minus", literalSign, "-85.50", "", "-85.50"},
		{"DR forces negative", literalSign, "85.50 DR", "", "-85.50"},
		{"O/D forces negative", literalSign, "85.50O/D", "", "-85.50"},
		{"CR forces positive", debit, "85.50 CR", "CARD PAYMENT", "85.50"},
		{"debit default", debit, "85.50", "BRITISH GAS DD", "-85.50"},
		{"credit description", debit, "85.50", "DIRECT CREDIT FROM ACME", "85.50"},
		{"minus wins over credit description", debit, "-85.50", "REFUND", "-85.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok := parseAmountToken(tt.token)
			if !ok {
				t.Fatalf("parseAmountToken(%q) failed", tt.token)
			}
			if got := tt.rule(a, tt.desc).StringFixed(2); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBalanceValue(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"20.00 O/D", "-20.00"},
		{"20.00", "20.00"},
	}

	for _, tt := range tests {
		a, _ := parseAmountToken(tt.input)
		if got := balanceValue(a).StringFixed(2); got != tt.want {
			t.Errorf("balanceValue(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestSplitToken(t *testing.T) {
	tests := []struct {
		profile *Profile
		input   string
		want    []string
	}{
		{&GenericProfile, "15/01/2024 CARD PAYMENT TESCO 25.99 1,234.56",
			[]string{"15/01/2024", "CARD PAYMENT TESCO", "25.99", "1,234.56"}},
		{&GenericProfile, "15 Jan 2024 TESCO 25.99",
			[]string{"15 Jan 2024", "TESCO", "25.99"}},
		{&NatWestProfile, "02 Jan 2024 TESCO 40.00 20.00 O/D",
			[]string{"02 Jan 2024", "TESCO", "40.00", "20.00 O/D"}},
		{&GenericProfile, "BRITISH GAS DD",
			[]string{"BRITISH GAS DD"}},
		{&GenericProfile, "15/01/2024",
			[]string{"15/01/2024"}},
		{&GenericProfile, "1,234.56",
			[]string{"1,234.56"}},
		{&GenericProfile, "TESCO 1.00 2.00 3.00",
			[]string{"TESCO 1.00", "2.00", "3.00"}},
		{&GenericProfile, "99 Jan 2024 TESCO 5.00",
			[]string{"99 Jan 2024 TESCO", "5.00"}},
		{&HSBCProfile, "15 Jan 24 VIS AMAZON 10.00",
			[]string{"15 Jan 24", "VIS AMAZON", "10.00"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := tt.profile.splitToken(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitToken(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsSummaryToken(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"BALANCE BROUGHT FORWARD", true},
		{"Closing balance 1,234.56", true},
		{"Total paid out", true},
		{"BRITISH GAS DD", false},
	}

	for _, tt := range tests {
		if got := isSummaryToken(tt.input); got != tt.want {
			t.Errorf("isSummaryToken(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsHeaderToken(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"Date", true},
		{"Paid out (£)", true},
		{" BALANCE ", true},
		{"Balance transfer fee", false},
	}

	for _, tt := range tests {
		if got := isHeaderToken(tt.input); got != tt.want {
			t.Errorf("isHeaderToken(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsPageMarker(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"Page 2 of 5", true},
		{"page 3", true},
		{"Page turner books", false},
	}

	for _, tt := range tests {
		if got := isPageMarker(tt.input); got != tt.want {
			t.Errorf("isPageMarker(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestMaskAccountNumber(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"12345678", "****5678"},
		{"1234-5678", "****5678"},
		{"1234567890", "******7890"},
		{"1234", "****1234"},
		{"12", "****12"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := MaskAccountNumber(tt.input); got != tt.expected {
				t.Errorf("MaskAccountNumber(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
