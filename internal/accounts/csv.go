package accounts

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/cleared-dev/microerp/internal/model"
)

const (
	numFields         = 5
	colNumber         = 0
	colSubaccount     = 1
	colDescription    = 2
	colClassification = 3
	colExternalCode   = 4
)

var header = []string{"cuenta", "subcuenta", "descripcion", "clasificacion", "codigo_externo"}

// ReadAccounts reads an accounting plan CSV. Rows are not validated here;
// Service.Save does that.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for _, rec := range records[1:] {
		accounts = append(accounts, UnmarshalAccount(rec))
	}
	return accounts, nil
}

// WriteAccounts writes an accounting plan CSV.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colNumber] = acct.Number
	row[colSubaccount] = acct.Subaccount
	row[colDescription] = acct.Description
	row[colClassification] = string(acct.Classification)
	row[colExternalCode] = acct.ExternalCode
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) model.Account {
	return model.Account{
		Number:         record[colNumber],
		Subaccount:     record[colSubaccount],
		Description:    record[colDescription],
		Classification: model.Classification(record[colClassification]),
		ExternalCode:   record[colExternalCode],
	}
}
