package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/AndersonTeodoro-hub/decentralized-raffle-protocol/internal/raffle"
)

// rulesFile espelha raffle.Rules em YAML; valores monetários vão como string
// para não passar por float.
type rulesFile struct {
	RoundMinutes        int    `yaml:"round_minutes,omitempty"`
	TicketPrice         string `yaml:"ticket_price,omitempty"`
	MaxTicketsPerWallet int    `yaml:"max_tickets_per_wallet,omitempty"`
	WinnerPercentage    string `yaml:"winner_percentage,omitempty"`
	PlatformPercentage  string `yaml:"platform_percentage,omitempty"`
	InitialBalance      string `yaml:"initial_balance,omitempty"`
	InitialPot          string `yaml:"initial_pot,omitempty"`
	DevWallets          int    `yaml:"dev_wallets,omitempty"`
	TokenSymbol         string `yaml:"token_symbol,omitempty"`
	CreditPolicy        string `yaml:"credit_policy,omitempty"`
	ResetPotOnRoundEnd  *bool  `yaml:"reset_pot_on_round_end,omitempty"`
}

func applyRulesFile(r *raffle.Rules, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read rules file: %w", err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("parse rules file %s: %w", path, err)
	}
	return f.apply(r)
}

func (f rulesFile) apply(r *raffle.Rules) error {
	if f.RoundMinutes > 0 {
		r.RoundDuration = time.Duration(f.RoundMinutes) * time.Minute
	}
	if f.MaxTicketsPerWallet != 0 {
		r.MaxTicketsPerWallet = f.MaxTicketsPerWallet
	}
	if f.DevWallets != 0 {
		r.DevWallets = f.DevWallets
	}
	if f.TokenSymbol != "" {
		r.TokenSymbol = f.TokenSymbol
	}
	if f.CreditPolicy != "" {
		r.CreditPolicy = raffle.CreditPolicy(f.CreditPolicy)
	}
	if f.ResetPotOnRoundEnd != nil {
		r.ResetPotOnRoundEnd = *f.ResetPotOnRoundEnd
	}

	amounts := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"ticket_price", f.TicketPrice, &r.TicketPrice},
		{"winner_percentage", f.WinnerPercentage, &r.WinnerPercentage},
		{"platform_percentage", f.PlatformPercentage, &r.PlatformPercentage},
		{"initial_balance", f.InitialBalance, &r.InitialBalance},
		{"initial_pot", f.InitialPot, &r.InitialPot},
	}
	for _, a := range amounts {
		if a.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(a.raw)
		if err != nil {
			return fmt.Errorf("incorrect '%s' param in rules file (must be a decimal): %w", a.name, err)
		}
		*a.dst = d
	}
	return nil
}
