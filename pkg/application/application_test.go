package application

import (
	"testing"

	"github.com/mchmarny/creditrisk/pkg/encoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_ExampleScenario(t *testing.T) {
	a := CreditApplication{
		Age:             30,
		Job:             "skilled",
		CreditAmount:    10000,
		Duration:        24,
		Sex:             "male",
		Housing:         "own",
		SavingAccounts:  "none",
		CheckingAccount: 0.0,
		Purpose:         "car",
	}

	r, err := a.Record()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Age", "Job", "Credit amount", "Duration", "Sex",
		"Housing", "Saving accounts", "Checking account", "Purpose",
	}, r.Columns)
	assert.Equal(t, []float64{30, 2, 10000, 24, 0, 0, -1, 0, 0}, r.Values)
}

func TestRecord_UnknownCategory(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreditApplication)
	}{
		{"job", func(a *CreditApplication) { a.Job = "manager" }},
		{"sex", func(a *CreditApplication) { a.Sex = "" }},
		{"housing", func(a *CreditApplication) { a.Housing = "Own" }},
		{"saving", func(a *CreditApplication) { a.SavingAccounts = "very rich" }},
		{"purpose", func(a *CreditApplication) { a.Purpose = "vacation" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Default()
			tt.mutate(&a)
			_, err := a.Record()
			assert.ErrorIs(t, err, encoding.ErrUnknownCategory)
		})
	}
}

func TestDefault(t *testing.T) {
	a := Default()
	assert.Equal(t, 30, a.Age)
	assert.Equal(t, "unskilled-nonresident", a.Job)
	assert.Equal(t, 10000.0, a.CreditAmount)
	assert.Equal(t, 24, a.Duration)
	assert.Equal(t, "male", a.Sex)
	assert.Equal(t, "own", a.Housing)
	assert.Equal(t, "none", a.SavingAccounts)
	assert.Equal(t, "car", a.Purpose)

	_, err := a.Record()
	assert.NoError(t, err)
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		in   CreditApplication
		want CreditApplication
	}{
		{
			name: "inside",
			in:   CreditApplication{Age: 40, CreditAmount: 2500, Duration: 12, CheckingAccount: 10},
			want: CreditApplication{Age: 40, CreditAmount: 2500, Duration: 12, CheckingAccount: 10},
		},
		{
			name: "inclusive bounds",
			in:   CreditApplication{Age: 18, CreditAmount: 500, Duration: 72, CheckingAccount: -1},
			want: CreditApplication{Age: 18, CreditAmount: 500, Duration: 72, CheckingAccount: -1},
		},
		{
			name: "upper bounds",
			in:   CreditApplication{Age: 100, CreditAmount: 50000, Duration: 6, CheckingAccount: 10000},
			want: CreditApplication{Age: 100, CreditAmount: 50000, Duration: 6, CheckingAccount: 10000},
		},
		{
			name: "below",
			in:   CreditApplication{Age: 3, CreditAmount: 499.99, Duration: 0, CheckingAccount: -500},
			want: CreditApplication{Age: 18, CreditAmount: 500, Duration: 6, CheckingAccount: -1},
		},
		{
			name: "above",
			in:   CreditApplication{Age: 130, CreditAmount: 50000.01, Duration: 100, CheckingAccount: 1e6},
			want: CreditApplication{Age: 100, CreditAmount: 50000, Duration: 72, CheckingAccount: 10000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Clamp())
		})
	}
}
