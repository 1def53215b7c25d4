// Package planner computes the output set of a raw transaction that spends a
// single unspent output: a payment output plus an optional change output.
package planner

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Output is one destination of a raw transaction.
type Output struct {
	Address string
	Amount  decimal.Decimal
}

// OutputPlan is the ordered output set handed to createrawtransaction.
// The payment output always comes first; change, when present, second.
type OutputPlan struct {
	outputs []Output
}

// Residual returns inputAmount - paymentAmount - fee.
func Residual(inputAmount, paymentAmount, fee decimal.Decimal) decimal.Decimal {
	return inputAmount.Sub(paymentAmount).Sub(fee)
}

// Plan builds the outputs for spending inputAmount: paymentAmount goes to
// paymentAddress and the residual, if strictly positive, returns to
// changeAddress. A zero or negative residual is dropped without error and the
// node is left to reject an underfunded transaction.
//
// When changeAddress equals paymentAddress the residual is folded into the
// payment output so addresses stay unique. That single output then carries
// paymentAmount plus the residual rather than paymentAmount alone.
func Plan(inputAmount decimal.Decimal, paymentAddress string, paymentAmount decimal.Decimal,
	changeAddress string, fee decimal.Decimal) OutputPlan {
	outputs := []Output{{Address: paymentAddress, Amount: paymentAmount}}
	residual := Residual(inputAmount, paymentAmount, fee)
	switch {
	case !residual.IsPositive():
	case changeAddress == paymentAddress:
		outputs[0].Amount = paymentAmount.Add(residual)
	default:
		outputs = append(outputs, Output{Address: changeAddress, Amount: residual})
	}
	return OutputPlan{outputs: outputs}
}

// Outputs returns a copy of the planned outputs in order.
func (p OutputPlan) Outputs() []Output {
	out := make([]Output, len(p.outputs))
	copy(out, p.outputs)
	return out
}

// Len returns the number of outputs.
func (p OutputPlan) Len() int { return len(p.outputs) }

// Payment returns the payment output. It is the zero Output for an empty plan.
func (p OutputPlan) Payment() Output {
	if len(p.outputs) == 0 {
		return Output{}
	}
	return p.outputs[0]
}

// Change returns the change output, if the plan has one.
func (p OutputPlan) Change() (Output, bool) {
	if len(p.outputs) < 2 {
		return Output{}, false
	}
	return p.outputs[1], true
}

// Amount looks up the amount paid to addr.
func (p OutputPlan) Amount(addr string) (decimal.Decimal, bool) {
	for _, o := range p.outputs {
		if o.Address == addr {
			return o.Amount, true
		}
	}
	return decimal.Zero, false
}

// Total returns the sum of all output amounts.
func (p OutputPlan) Total() decimal.Decimal {
	total := decimal.Zero
	for _, o := range p.outputs {
		total = total.Add(o.Amount)
	}
	return total
}

// MarshalJSON encodes the plan as the {"address": amount, ...} object that
// createrawtransaction takes, keeping plan order and writing amounts as
// JSON numbers with eight decimal places.
func (p OutputPlan) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, o := range p.outputs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(o.Address)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(FormatAmount(o.Amount))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
