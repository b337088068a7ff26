// Package application defines the credit application submitted for scoring
// and its encoding into the model's input record.
package application

import (
	"github.com/mchmarny/creditrisk/pkg/encoding"
	"github.com/mchmarny/creditrisk/pkg/model"
	"github.com/pkg/errors"
)

// Model column names, in the order the preprocessor was fitted on.
const (
	ColumnAge             = "Age"
	ColumnJob             = "Job"
	ColumnCreditAmount    = "Credit amount"
	ColumnDuration        = "Duration"
	ColumnSex             = "Sex"
	ColumnHousing         = "Housing"
	ColumnSavingAccounts  = "Saving accounts"
	ColumnCheckingAccount = "Checking account"
	ColumnPurpose         = "Purpose"
)

// Numeric domains, inclusive.
const (
	AgeMin = 18
	AgeMax = 100

	CreditAmountMin = 500.0
	CreditAmountMax = 50000.0

	DurationMin = 6
	DurationMax = 72

	CheckingAccountMin = -1.0
	CheckingAccountMax = 10000.0
)

// Columns returns the fixed model column order.
func Columns() []string {
	return []string{
		ColumnAge,
		ColumnJob,
		ColumnCreditAmount,
		ColumnDuration,
		ColumnSex,
		ColumnHousing,
		ColumnSavingAccounts,
		ColumnCheckingAccount,
		ColumnPurpose,
	}
}

// CreditApplication holds the nine customer attributes in human-readable form.
type CreditApplication struct {
	Age             int     `json:"age" yaml:"age"`
	Job             string  `json:"job" yaml:"job"`
	CreditAmount    float64 `json:"credit_amount" yaml:"credit_amount"`
	Duration        int     `json:"duration" yaml:"duration"`
	Sex             string  `json:"sex" yaml:"sex"`
	Housing         string  `json:"housing" yaml:"housing"`
	SavingAccounts  string  `json:"saving_accounts" yaml:"saving_accounts"`
	CheckingAccount float64 `json:"checking_account" yaml:"checking_account"`
	Purpose         string  `json:"purpose" yaml:"purpose"`
}

// Default returns the application the form starts with.
func Default() CreditApplication {
	return CreditApplication{
		Age:             30,
		Job:             encoding.Job.Labels()[0],
		CreditAmount:    10000,
		Duration:        24,
		Sex:             encoding.Sex.Labels()[0],
		Housing:         encoding.Housing.Labels()[0],
		SavingAccounts:  encoding.SavingAccounts.Labels()[0],
		CheckingAccount: 0,
		Purpose:         encoding.Purpose.Labels()[0],
	}
}

// Record encodes the application into the single-row model input.
// Any label outside its table fails with encoding.ErrUnknownCategory.
func (a CreditApplication) Record() (model.Record, error) {
	codes := make(map[string]int, 5)
	for _, c := range []struct {
		table *encoding.Table
		label string
	}{
		{encoding.Job, a.Job},
		{encoding.Sex, a.Sex},
		{encoding.Housing, a.Housing},
		{encoding.SavingAccounts, a.SavingAccounts},
		{encoding.Purpose, a.Purpose},
	} {
		code, err := c.table.Encode(c.label)
		if err != nil {
			return model.Record{}, errors.Wrap(err, "encoding application")
		}
		codes[c.table.Field()] = code
	}

	return model.Record{
		Columns: Columns(),
		Values: []float64{
			float64(a.Age),
			float64(codes[ColumnJob]),
			a.CreditAmount,
			float64(a.Duration),
			float64(codes[ColumnSex]),
			float64(codes[ColumnHousing]),
			float64(codes[ColumnSavingAccounts]),
			a.CheckingAccount,
			float64(codes[ColumnPurpose]),
		},
	}, nil
}

// Clamp returns a copy with every numeric field forced into its domain.
func (a CreditApplication) Clamp() CreditApplication {
	a.Age = min(max(a.Age, AgeMin), AgeMax)
	a.CreditAmount = min(max(a.CreditAmount, CreditAmountMin), CreditAmountMax)
	a.Duration = min(max(a.Duration, DurationMin), DurationMax)
	a.CheckingAccount = min(max(a.CheckingAccount, CheckingAccountMin), CheckingAccountMax)
	return a
}
