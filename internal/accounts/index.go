package accounts

import "github.com/cleared-dev/microerp/internal/model"

// Index provides in-memory lookup over a snapshot of the accounting plan.
type Index struct {
	accounts []model.Account
	byID     map[int64]model.Account
	byCode   map[string]model.Account
}

// NewIndex creates an Index from a slice of accounts.
func NewIndex(accounts []model.Account) *Index {
	byID := make(map[int64]model.Account, len(accounts))
	byCode := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
		byCode[a.Code()] = a
	}
	return &Index{accounts: accounts, byID: byID, byCode: byCode}
}

// All returns all accounts.
func (x *Index) All() []model.Account {
	return x.accounts
}

// Get returns an account by ID.
func (x *Index) Get(id int64) (model.Account, bool) {
	a, ok := x.byID[id]
	return a, ok
}

// Exists reports whether an account ID exists.
func (x *Index) Exists(id int64) bool {
	_, ok := x.byID[id]
	return ok
}

// ByCode returns an account by its "NNNN-NNNN" code.
func (x *Index) ByCode(code string) (model.Account, bool) {
	a, ok := x.byCode[code]
	return a, ok
}

// ByClassification returns all accounts with the given classification.
func (x *Index) ByClassification(c model.Classification) []model.Account {
	var result []model.Account
	for _, a := range x.accounts {
		if a.Classification == c {
			result = append(result, a)
		}
	}
	return result
}
