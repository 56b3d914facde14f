package budget

// Unlimited is reported as the limit and remaining tokens of a period without a cap.
const Unlimited int64 = -1

// Budget is a snapshot of one period's query embedding token budget.
type Budget struct {
	tokensLimit     int64
	tokensRemaining int64
	resetsAt        int64 // unix millis, converted to RFC 3339 at transport layer
}

// New creates a Budget snapshot. A limit of zero or less means the period is uncapped.
func New(limit, used int64, resetsAt int64) Budget {
	if limit <= 0 {
		return Budget{tokensLimit: Unlimited, tokensRemaining: Unlimited, resetsAt: resetsAt}
	}
	return Budget{
		tokensLimit:     limit,
		tokensRemaining: max(limit-used, 0),
		resetsAt:        resetsAt,
	}
}

// TokensLimit returns the token cap, or Unlimited.
func (b Budget) TokensLimit() int64 { return b.tokensLimit }

// TokensRemaining returns tokens left, or Unlimited.
func (b Budget) TokensRemaining() int64 { return b.tokensRemaining }

// IsExhausted reports whether a capped budget is spent.
func (b Budget) IsExhausted() bool { return b.tokensLimit != Unlimited && b.tokensRemaining == 0 }

// IsUnlimited reports whether the period has no cap.
func (b Budget) IsUnlimited() bool { return b.tokensLimit == Unlimited }

// ResetsAt returns the reset timestamp (unix millis).
func (b Budget) ResetsAt() int64 { return b.resetsAt }
