package accounts

import "github.com/cleared-dev/microerp/internal/model"

// DefaultChart returns the accounts seeded into a new store.
func DefaultChart() []model.Account {
	return []model.Account{
		{Number: "5700", Subaccount: "0001", Description: "Caja General", Classification: model.ClassificationAsset},
		{Number: "4300", Subaccount: "0000", Description: "Clientes", Classification: model.ClassificationAsset},
		{Number: "7000", Subaccount: "0000", Description: "Venta de Mercaderías", Classification: model.ClassificationIncome},
	}
}
