package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func accessGrantHandler(cmd *cobra.Command, args []string) error {
	addr, err := decodeAddr(args[1])
	if err != nil {
		return err
	}
	return accessCtrl.Grant(addr, args[0])
}

func accessRevokeHandler(cmd *cobra.Command, args []string) error {
	addr, err := decodeAddr(args[1])
	if err != nil {
		return err
	}
	return accessCtrl.Revoke(addr, args[0])
}

func accessCheckHandler(cmd *cobra.Command, args []string) error {
	addr, err := decodeAddr(args[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), accessCtrl.Has(addr, args[0]))
	return nil
}

func accessListHandler(cmd *cobra.Command, args []string) error {
	addr, err := decodeAddr(args[0])
	if err != nil {
		return err
	}
	roles, err := accessCtrl.ListRoles(addr)
	if err != nil {
		return err
	}
	for _, r := range roles {
		fmt.Fprintln(cmd.OutOrStdout(), r)
	}
	return nil
}

var accessCmd = &cobra.Command{
	Use:   "access",
	Short: "Role based access control",
}

var acGrantCmd = &cobra.Command{Use: "grant <role> <addr>", Short: "Grant role", Args: cobra.ExactArgs(2), RunE: accessGrantHandler}
var acRevokeCmd = &cobra.Command{Use: "revoke <role> <addr>", Short: "Revoke role", Args: cobra.ExactArgs(2), RunE: accessRevokeHandler}
var acCheckCmd = &cobra.Command{Use: "check <role> <addr>", Short: "Check role", Args: cobra.ExactArgs(2), RunE: accessCheckHandler}
var acListCmd = &cobra.Command{Use: "list <addr>", Short: "List roles", Args: cobra.ExactArgs(1), RunE: accessListHandler}

func init() {
	accessCmd.AddCommand(acGrantCmd, acRevokeCmd, acCheckCmd, acListCmd)
}
