package types

import (
	"fmt"
	"strings"
	"time"
)

// Trade records one conversion step of a roundtrip. Amount is what the step
// yields in To; the input it consumed is Amount/Value. Limit is the worst
// book level the fill touched, i.e. the limit price an order executing this
// step would need. Value is the effective rate, output per unit of input.
type Trade struct {
	Exchange string  `json:"exchange"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Amount   float64 `json:"amount"`
	Limit    float64 `json:"limit"`
	Value    float64 `json:"value"`
}

// TradeKey identifies one conversion direction on one venue.
type TradeKey struct {
	Exchange string
	From     string
	To       string
}

// Key returns the direction triple of the trade.
func (t Trade) Key() TradeKey {
	return TradeKey{Exchange: t.Exchange, From: t.From, To: t.To}
}

// InverseKey returns the opposite direction on the same venue.
func (t Trade) InverseKey() TradeKey {
	return TradeKey{Exchange: t.Exchange, From: t.To, To: t.From}
}

func (t Trade) String() string {
	return fmt.Sprintf("{%s %s->%s amount=%.8f limit=%.8f value=%.8f}",
		t.Exchange, t.From, t.To, t.Amount, t.Limit, t.Value)
}

// Chain is an ordered sequence of trades forming a roundtrip candidate.
type Chain []Trade

// Profitability is the compounded rate of the whole chain minus one: 0.05
// means the chain ends with 5% more than it started with. Composing two
// chains multiplies their (1 + profitability) factors. An empty chain has
// profitability 0.
func (c Chain) Profitability() float64 {
	p := 1.0
	for _, t := range c {
		p *= t.Value
	}
	return p - 1
}

// Start is the currency the chain sets out from, empty for an empty chain.
func (c Chain) Start() string {
	if len(c) == 0 {
		return ""
	}
	return c[0].From
}

// Exchanges counts the distinct venues the chain touches.
func (c Chain) Exchanges() int {
	seen := make(map[string]struct{}, len(c))
	for _, t := range c {
		seen[t.Exchange] = struct{}{}
	}
	return len(seen)
}

// Output is the amount the final trade yields, zero for an empty chain.
func (c Chain) Output() float64 {
	if len(c) == 0 {
		return 0
	}
	return c[len(c)-1].Amount
}

// String renders the trades in order, space separated.
func (c Chain) String() string {
	var sb strings.Builder
	for i, t := range c {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

// Opportunity is a chain that cleared the scanner's profit threshold.
type Opportunity struct {
	ID         string    `json:"id,omitempty"`
	Chain      Chain     `json:"chain"`
	Profit     float64   `json:"profit"`
	DetectedAt time.Time `json:"detected_at"`
}

func (o Opportunity) String() string {
	return fmt.Sprintf("%s for %v%% profit", o.Chain, o.Profit*100)
}
