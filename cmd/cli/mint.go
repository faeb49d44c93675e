package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"synthub/core/chain"
)

func mintCreateHandler(cmd *cobra.Command, args []string) error {
	admin, err := decodeAddr(args[0])
	if err != nil {
		return err
	}
	decimals, err := strconv.ParseUint(args[2], 10, 8)
	if err != nil {
		return fmt.Errorf("parse decimals: %w", err)
	}
	denom, err := mintRegistry.CreateSynthetic(admin, chain.NewTicker(args[1]), chain.Decimals(decimals))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), denom)
	return nil
}

func mintWhitelistHandler(cmd *cobra.Command, args []string) error {
	admin, err := decodeAddr(args[0])
	if err != nil {
		return err
	}
	minter, err := decodeAddr(args[1])
	if err != nil {
		return err
	}
	whitelisted, err := strconv.ParseBool(args[3])
	if err != nil {
		return fmt.Errorf("parse whitelisted: %w", err)
	}
	return mintRegistry.SetWhitelisted(admin, minter, chain.Denom(args[2]), whitelisted)
}

func mintStatusHandler(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), "exists:", mintRegistry.SyntheticExists(chain.Denom(args[0])))
	return nil
}

var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Manage synthetic assets",
}

var mintCreateCmd = &cobra.Command{
	Use:   "create <admin> <ticker> <decimals>",
	Short: "Create a synthetic denom",
	Args:  cobra.ExactArgs(3),
	RunE:  mintCreateHandler,
}

var mintWhitelistCmd = &cobra.Command{
	Use:   "whitelist <admin> <minter> <synthetic> <true|false>",
	Short: "Toggle a minter's whitelist status for a synthetic",
	Args:  cobra.ExactArgs(4),
	RunE:  mintWhitelistHandler,
}

var mintStatusCmd = &cobra.Command{
	Use:   "status <synthetic>",
	Short: "Report whether a synthetic denom exists",
	Args:  cobra.ExactArgs(1),
	RunE:  mintStatusHandler,
}

func init() {
	mintCmd.AddCommand(mintCreateCmd, mintWhitelistCmd, mintStatusCmd)
}
