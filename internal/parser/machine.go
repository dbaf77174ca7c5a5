package parser

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-insights/internal/models"
)

type state int

const (
	seekDate state = iota
	seekDescription
	seekAmount
	seekBalance
)

// row is a transaction in progress.
type row struct {
	date    time.Time
	desc    []string
	amount  *AmountToken
	balance *decimal.Decimal
	raw     []string
}

// machine walks tokens once, left to right. A row is either committed or
// discarded; nothing is revisited.
type machine struct {
	p     *Profile
	state state
	cur   *row

	// lastDate and carry support profiles that print a date once per day.
	lastDate time.Time
	carry    bool

	txns     []models.Transaction
	rejected int
}

func newMachine(p *Profile) *machine {
	return &machine{p: p, state: seekDate}
}

// feed splits a row-shaped token and steps each part. Noise and summary
// checks apply to the whole token so amounts inside them never reach a row.
func (m *machine) feed(tok string) {
	if m.filtered(tok) {
		return
	}
	for _, part := range m.p.splitToken(tok) {
		m.step(part)
	}
}

// filtered consumes skip and summary tokens.
func (m *machine) filtered(tok string) bool {
	if strings.TrimSpace(tok) == "" || m.p.skip(tok) {
		return true
	}
	if !isSummaryToken(tok) {
		return false
	}
	if m.state == seekBalance {
		m.commit()
	} else {
		m.reject()
	}
	m.carry = false
	return true
}

func (m *machine) step(tok string) {
	if m.filtered(tok) {
		return
	}

	date, isDate := m.p.parseDate(tok)
	amt, isAmount := parseAmountToken(tok)

	switch m.state {
	case seekDate:
		switch {
		case isDate:
			m.open(date, tok)
		case isAmount:
			// stray amount outside a row (summary figures, column totals)
		case m.p.CarryDate && m.carry && !m.lastDate.IsZero():
			m.cur = &row{date: m.lastDate}
			m.describe(tok)
		}

	case seekDescription:
		switch {
		case isDate:
			m.reject()
			m.open(date, tok)
		case isAmount:
			m.reject()
		default:
			m.describe(tok)
		}

	case seekAmount:
		switch {
		case isDate:
			m.reject()
			m.open(date, tok)
		case isAmount:
			m.cur.amount = &amt
			m.cur.raw = append(m.cur.raw, tok)
			if m.p.HasBalance {
				m.state = seekBalance
			} else {
				m.commit()
			}
		default:
			m.describe(tok)
		}

	case seekBalance:
		if isAmount {
			bal := balanceValue(amt)
			m.cur.balance = &bal
			m.cur.raw = append(m.cur.raw, tok)
			m.commit()
			return
		}
		m.commit()
		m.step(tok)
	}
}

// finish flushes the row in progress at end of stream.
func (m *machine) finish() {
	if m.state == seekBalance {
		m.commit()
		return
	}
	m.reject()
}

func (m *machine) open(date time.Time, tok string) {
	m.cur = &row{date: date, raw: []string{tok}}
	m.lastDate = date
	m.carry = true
	m.state = seekDescription
}

func (m *machine) describe(tok string) {
	m.cur.desc = append(m.cur.desc, tok)
	m.cur.raw = append(m.cur.raw, tok)
	m.state = seekAmount
}

// reject drops the row in progress, if any.
func (m *machine) reject() {
	if m.cur != nil {
		m.rejected++
		m.cur = nil
	}
	m.state = seekDate
}

func (m *machine) commit() {
	r := m.cur
	m.cur = nil
	m.state = seekDate
	if r == nil {
		return
	}

	desc := normalizeDescription(r.desc)
	if r.date.IsZero() || desc == "" || r.amount == nil {
		m.rejected++
		return
	}

	sign := m.p.Sign
	if sign == nil {
		sign = literalSign
	}
	m.txns = append(m.txns, models.Transaction{
		Date:         r.date,
		Description:  desc,
		Amount:       sign(*r.amount, desc),
		Balance:      r.balance,
		OriginalText: strings.Join(r.raw, " "),
		SourceBank:   m.p.Bank,
	})
	m.lastDate = r.date
	m.carry = true
}
