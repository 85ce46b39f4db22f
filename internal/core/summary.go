package core

// PersonBalance is the per-person row of the dashboard read model.
type PersonBalance struct {
	Person      string
	Owed        Money
	Paid        Money
	Remaining   Money // max(0, Owed-Paid); overpayment never goes negative
	PercentPaid int   // round(Paid/Owed*100), 0 when Owed is zero
}

// MonthTotal is one bucket of the payment timeline.
type MonthTotal struct {
	Month string // YYYY-MM
	Total Money
}

// Overview is the full read model handed to the presentation layer. It is
// recomputed fresh from storage on every render.
type Overview struct {
	TotalDebt Money
	TotalPaid Money
	// TotalRemaining is the sum of per-person clamped remainders, not
	// max(0, TotalDebt-TotalPaid): one person's overpayment cannot offset
	// another person's balance.
	TotalRemaining   Money
	PaidPercent      int // round(TotalPaid/TotalDebt*100), clamped to [0,100]
	RemainingPercent int // always 100-PaidPercent, so the pair sums to 100
	People           []PersonBalance
	Outstanding      []PersonBalance // People filtered to Remaining > 0, for the chart
	Timeline         []MonthTotal    // ascending by month
}
