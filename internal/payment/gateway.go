package payment

import (
	"math/rand"

	"sasabot/internal/config"
)

// FailureReasons are the outcomes a simulated M-Pesa push can fail with.
var FailureReasons = []string{
	"Insufficient funds in M-Pesa account",
	"Transaction cancelled by user",
	"M-Pesa service temporarily unavailable",
	"Transaction timeout - please try again",
}

const transactionIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const transactionIDLength = 10

// Gateway models the M-Pesa side of a payment: whether a completion
// attempt succeeds, the receipt code it yields, why it failed, and how
// long the customer-facing STK push is expected to take. Implementations
// must be safe for concurrent use.
type Gateway interface {
	Outcome() bool
	TransactionID() string
	FailureReason() string
	ProcessingDelaySec() int
}

// simulatedGateway draws outcomes from the configured success rate. It
// uses the shared math/rand source, which is concurrency-safe.
type simulatedGateway struct {
	successRate float64
	minDelaySec int
	maxDelaySec int
}

// NewSimulatedGateway creates a gateway that simulates M-Pesa behavior
// according to the payment configuration.
func NewSimulatedGateway(cfg config.PaymentConfig) Gateway {
	return &simulatedGateway{
		successRate: cfg.SuccessRate,
		minDelaySec: cfg.MinDelaySeconds,
		maxDelaySec: cfg.MaxDelaySeconds,
	}
}

func (g *simulatedGateway) Outcome() bool {
	return rand.Float64() < g.successRate
}

func (g *simulatedGateway) TransactionID() string {
	b := make([]byte, transactionIDLength)
	for i := range b {
		b[i] = transactionIDAlphabet[rand.Intn(len(transactionIDAlphabet))]
	}
	return string(b)
}

func (g *simulatedGateway) FailureReason() string {
	return FailureReasons[rand.Intn(len(FailureReasons))]
}

func (g *simulatedGateway) ProcessingDelaySec() int {
	if g.maxDelaySec <= g.minDelaySec {
		return g.minDelaySec
	}
	return g.minDelaySec + rand.Intn(g.maxDelaySec-g.minDelaySec+1)
}
