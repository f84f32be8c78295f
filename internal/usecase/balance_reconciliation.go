package usecase

import (
	"github.com/samber/lo"

	"github.com/tari-project/tapplet-host/internal/domain/models"
)

// CalculateBalanceUpdates pairs the fungible vaults produced by a transaction
// with the wallet's current balances. Vaults the wallet does not track are
// dropped, and non-fungible or confidential containers are not reported.
// Output order follows up.
func CalculateBalanceUpdates(up []models.UpSubstate, balances *models.AccountBalances) []models.BalanceUpdate {
	current := make(map[string]models.BalanceEntry)
	if balances != nil {
		for _, b := range balances.Balances {
			if _, seen := current[b.VaultAddress.String()]; !seen {
				current[b.VaultAddress.String()] = b
			}
		}
	}

	return lo.FilterMap(up, func(u models.UpSubstate, _ int) (models.BalanceUpdate, bool) {
		if !u.ID.IsVault() || !u.Substate.Substate.IsVault() {
			return models.BalanceUpdate{}, false
		}
		container := &u.Substate.Substate.Vault.ResourceContainer
		if !container.IsFungible() {
			return models.BalanceUpdate{}, false
		}
		entry, ok := current[u.ID.String()]
		if !ok {
			return models.BalanceUpdate{}, false
		}
		return models.BalanceUpdate{
			VaultAddress:   u.ID.String(),
			TokenSymbol:    entry.TokenSymbol,
			CurrentBalance: entry.Balance,
			NewBalance:     container.Fungible.Amount,
		}, true
	})
}
