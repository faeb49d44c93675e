package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"synthub/core/chain"
	"synthub/core/hub"
	"synthub/core/numerics"
	"synthub/core/strategy"
	"synthub/core/vault"
)

func vaultRegisterHandler(cmd *cobra.Command, args []string) error {
	admin, err := decodeAddr(args[0])
	if err != nil {
		return err
	}
	id := chain.VaultID(args[1])
	underlying := chain.Denom(args[2])
	synthetic := chain.Denom(args[3])
	maxLTVBps, err := strconv.ParseUint(args[4], 10, 64)
	if err != nil {
		return fmt.Errorf("parse max_ltv_bps: %w", err)
	}

	rate, err := strategy.NewRedemptionRate(numerics.FromInteger(1))
	if err != nil {
		return err
	}
	oracle := strategy.NewStaticRate(rate)
	strat := strategy.NewGenericLST(memStore, id, chain.Denom(string(id)+"-shares"), oracle, func() uint64 { return 0 })
	v := vault.New(memStore, id, strat, underlying)

	cfg := hub.VaultConfig{
		DepositsEnabled: true,
		AdvanceEnabled:  true,
		MaxLTVBps:       maxLTVBps,
		Synthetic:       synthetic,
	}
	if err := engine.RegisterVault(admin, v, cfg); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "registered", id)
	return nil
}

func vaultDepositHandler(cmd *cobra.Command, args []string) error {
	caller, err := decodeAddr(args[0])
	if err != nil {
		return err
	}
	id := chain.VaultID(args[1])
	asset := chain.Denom(args[2])
	amount, err := strconv.ParseUint(args[3], 10, 64)
	if err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}
	outcome, _, err := engine.Deposit(caller, id, asset, amount, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deposit_value=%d minted=%d\n", outcome.DepositValue, outcome.Minted)
	return nil
}

func vaultAdvanceHandler(cmd *cobra.Command, args []string) error {
	caller, err := decodeAddr(args[0])
	if err != nil {
		return err
	}
	id := chain.VaultID(args[1])
	amount, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}
	out, _, err := engine.Advance(caller, id, amount, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "amount_out=%d fee=%d\n", out.AmountOut, out.Fee)
	return nil
}

func vaultRedeemHandler(cmd *cobra.Command, args []string) error {
	caller, err := decodeAddr(args[0])
	if err != nil {
		return err
	}
	id := chain.VaultID(args[1])
	synthetic := chain.Denom(args[2])
	amount, err := strconv.ParseUint(args[3], 10, 64)
	if err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}
	out, _, err := engine.Redeem(caller, id, synthetic, amount, caller, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ready=%t from_credit=%d from_collateral=%d\n", out.Ready, out.FromCredit, out.FromCollateral)
	return nil
}

func vaultWithdrawHandler(cmd *cobra.Command, args []string) error {
	caller, err := decodeAddr(args[0])
	if err != nil {
		return err
	}
	id := chain.VaultID(args[1])
	amount, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}
	ready, _, err := engine.Withdraw(caller, id, amount, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ready=%t\n", ready)
	return nil
}

func vaultSelfLiquidateHandler(cmd *cobra.Command, args []string) error {
	caller, err := decodeAddr(args[0])
	if err != nil {
		return err
	}
	id := chain.VaultID(args[1])
	amount, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}
	repaid, err := engine.SelfLiquidate(caller, id, amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "repaid=%d\n", repaid)
	return nil
}

func vaultConvertCreditHandler(cmd *cobra.Command, args []string) error {
	caller, err := decodeAddr(args[0])
	if err != nil {
		return err
	}
	id := chain.VaultID(args[1])
	amount, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("parse amount: %w", err)
	}
	ready, _, err := engine.ConvertCredit(caller, id, amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ready=%t\n", ready)
	return nil
}

func vaultPositionHandler(cmd *cobra.Command, args []string) error {
	id := chain.VaultID(args[0])
	account, err := decodeAddr(args[1])
	if err != nil {
		return err
	}
	pos, err := engine.Position(id, account)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "collateral=%d debt=%d credit=%d\n", pos.Collateral, pos.Debt, pos.Credit)
	return nil
}

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Register vaults and run the deposit/advance/redeem/withdraw flows",
}

var vaultRegisterCmd = &cobra.Command{
	Use:   "register <admin> <vault_id> <underlying> <synthetic> <max_ltv_bps>",
	Short: "Register a 1:1 generic-LST vault against a synthetic",
	Args:  cobra.ExactArgs(5),
	RunE:  vaultRegisterHandler,
}

var vaultDepositCmd = &cobra.Command{
	Use:   "deposit <caller> <vault_id> <asset> <amount>",
	Short: "Deposit underlying collateral",
	Args:  cobra.ExactArgs(4),
	RunE:  vaultDepositHandler,
}

var vaultAdvanceCmd = &cobra.Command{
	Use:   "advance <caller> <vault_id> <amount>",
	Short: "Draw synthetic debt against deposited collateral",
	Args:  cobra.ExactArgs(3),
	RunE:  vaultAdvanceHandler,
}

var vaultRedeemCmd = &cobra.Command{
	Use:   "redeem <caller> <vault_id> <synthetic> <amount>",
	Short: "Redeem synthetic for underlying",
	Args:  cobra.ExactArgs(4),
	RunE:  vaultRedeemHandler,
}

var vaultWithdrawCmd = &cobra.Command{
	Use:   "withdraw <caller> <vault_id> <amount>",
	Short: "Withdraw collateral not required to back outstanding debt",
	Args:  cobra.ExactArgs(3),
	RunE:  vaultWithdrawHandler,
}

var vaultSelfLiquidateCmd = &cobra.Command{
	Use:   "self-liquidate <caller> <vault_id> <amount>",
	Short: "Cancel own debt using account credit then collateral",
	Args:  cobra.ExactArgs(3),
	RunE:  vaultSelfLiquidateHandler,
}

var vaultConvertCreditCmd = &cobra.Command{
	Use:   "convert-credit <caller> <vault_id> <amount>",
	Short: "Withdraw accrued account credit as underlying",
	Args:  cobra.ExactArgs(3),
	RunE:  vaultConvertCreditHandler,
}

var vaultPositionCmd = &cobra.Command{
	Use:   "position <vault_id> <account>",
	Short: "Print an account's collateral/debt/credit position",
	Args:  cobra.ExactArgs(2),
	RunE:  vaultPositionHandler,
}

func init() {
	vaultCmd.AddCommand(
		vaultRegisterCmd,
		vaultDepositCmd,
		vaultAdvanceCmd,
		vaultRedeemCmd,
		vaultWithdrawCmd,
		vaultSelfLiquidateCmd,
		vaultConvertCreditCmd,
		vaultPositionCmd,
	)
}
