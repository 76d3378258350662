package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vaultmeter/vaultmeter/app"
	"github.com/vaultmeter/vaultmeter/domain/account"
	"github.com/vaultmeter/vaultmeter/domain/period"
	"github.com/vaultmeter/vaultmeter/domain/usage"
)

var accountsCmd = &cobra.Command{
	Use:     "accounts",
	Aliases: []string{"account"},
	Short:   "Manage metered accounts",
	Long: `Manage the accounts whose usage is metered.

Examples:
  vaultmeter accounts list
  vaultmeter accounts create --name="Gym" --policy=weekly --limit=3
  vaultmeter accounts show acc_123
  vaultmeter accounts update acc_123 --limit=5
  vaultmeter accounts update acc_123 --active=false
  vaultmeter accounts delete acc_123`,
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts with their current usage",
	Args:  cobra.NoArgs,
	RunE:  runAccountsList,
}

var accountsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE:  runAccountsCreate,
}

var accountsShowCmd = &cobra.Command{
	Use:   "show <account-id>",
	Short: "Show an account and its usage status",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsShow,
}

var accountsUpdateCmd = &cobra.Command{
	Use:   "update <account-id>",
	Short: "Update an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsUpdate,
}

var accountsDeleteCmd = &cobra.Command{
	Use:   "delete <account-id>",
	Short: "Delete an account (its events stay in the log)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsDelete,
}

var (
	accountName        string
	accountPolicy      string
	updatePolicy       string
	accountLimit       int64
	accountClearLimit  bool
	accountDescription string
	accountFolder      string
	accountTags        string
	accountActive      bool
)

func init() {
	rootCmd.AddCommand(accountsCmd)

	accountsCmd.AddCommand(accountsListCmd)
	accountsCmd.AddCommand(accountsCreateCmd)
	accountsCmd.AddCommand(accountsShowCmd)
	accountsCmd.AddCommand(accountsUpdateCmd)
	accountsCmd.AddCommand(accountsDeleteCmd)

	policies := make([]string, len(period.Policies))
	for i, p := range period.Policies {
		policies[i] = string(p)
	}
	policyHelp := "reset policy: " + strings.Join(policies, ", ")

	accountsCreateCmd.Flags().StringVar(&accountName, "name", "", "account name (required)")
	accountsCreateCmd.Flags().StringVar(&accountPolicy, "policy", string(period.Monthly), policyHelp)
	accountsCreateCmd.Flags().Int64Var(&accountLimit, "limit", 0, "usage limit per period (omit for no limit)")
	accountsCreateCmd.Flags().StringVar(&accountDescription, "description", "", "free-form description")
	accountsCreateCmd.Flags().StringVar(&accountFolder, "folder", "", "folder ID")
	accountsCreateCmd.Flags().StringVar(&accountTags, "tags", "", "comma separated tags")
	accountsCreateCmd.MarkFlagRequired("name")

	accountsUpdateCmd.Flags().StringVar(&accountName, "name", "", "new name")
	accountsUpdateCmd.Flags().StringVar(&updatePolicy, "policy", "", policyHelp)
	accountsUpdateCmd.Flags().Int64Var(&accountLimit, "limit", 0, "new usage limit")
	accountsUpdateCmd.Flags().BoolVar(&accountClearLimit, "clear-limit", false, "remove the usage limit")
	accountsUpdateCmd.Flags().StringVar(&accountDescription, "description", "", "new description")
	accountsUpdateCmd.Flags().StringVar(&accountFolder, "folder", "", "new folder ID")
	accountsUpdateCmd.Flags().StringVar(&accountTags, "tags", "", "replace tags (comma separated)")
	accountsUpdateCmd.Flags().BoolVar(&accountActive, "active", true, "activate or deactivate the account")
}

func runAccountsList(cmd *cobra.Command, args []string) error {
	core, owner, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	accounts, err := core.Accounts.List(context.Background(), owner)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(accounts) == 0 {
		fmt.Fprintln(out, "No accounts found.")
		return nil
	}

	now := core.Clock.Now()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPOLICY\tUSED\tLIMIT\tLEVEL\tACTIVE")
	fmt.Fprintln(w, "--\t----\t------\t----\t-----\t-----\t------")

	for _, a := range accounts {
		st := usage.StatusOf(a, now)
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%t\n",
			a.ID,
			a.Name,
			a.ResetPolicy,
			a.CurrentUsage,
			formatLimit(a.UsageLimit),
			st.Level,
			a.IsActive,
		)
	}

	w.Flush()
	return nil
}

func runAccountsCreate(cmd *cobra.Command, args []string) error {
	core, owner, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	in := app.CreateInput{
		FolderID:    accountFolder,
		Name:        accountName,
		Description: accountDescription,
		Tags:        splitTags(accountTags),
		ResetPolicy: accountPolicy,
	}
	if cmd.Flags().Changed("limit") {
		limit := accountLimit
		in.UsageLimit = &limit
	}

	a, err := core.Accounts.Create(context.Background(), owner, in)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Account created: %s\n", a.ID)
	return nil
}

func runAccountsShow(cmd *cobra.Command, args []string) error {
	core, owner, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	a, st, err := core.Usage.Status(context.Background(), owner, args[0])
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}

	printAccount(cmd.OutOrStdout(), a, st)
	return nil
}

func runAccountsUpdate(cmd *cobra.Command, args []string) error {
	core, owner, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	var p account.Patch
	flags := cmd.Flags()
	if flags.Changed("name") {
		p.Name = &accountName
	}
	if flags.Changed("description") {
		p.Description = &accountDescription
	}
	if flags.Changed("folder") {
		p.FolderID = &accountFolder
	}
	if flags.Changed("tags") {
		p.Tags = splitTags(accountTags)
		if p.Tags == nil {
			p.Tags = []string{}
		}
	}
	if flags.Changed("policy") {
		policy, err := period.ParsePolicy(updatePolicy)
		if err != nil {
			return err
		}
		p.ResetPolicy = &policy
	}
	if flags.Changed("limit") && accountClearLimit {
		return fmt.Errorf("--limit and --clear-limit are mutually exclusive")
	}
	if flags.Changed("limit") {
		p.UsageLimit = &accountLimit
	}
	p.ClearLimit = accountClearLimit
	if flags.Changed("active") {
		p.IsActive = &accountActive
	}

	a, err := core.Accounts.Update(context.Background(), owner, args[0], p)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	printAccount(cmd.OutOrStdout(), a, usage.StatusOf(a, core.Clock.Now()))
	return nil
}

func runAccountsDelete(cmd *cobra.Command, args []string) error {
	core, owner, err := openCore(cmd)
	if err != nil {
		return err
	}
	defer core.Close()

	if err := core.Accounts.Delete(context.Background(), owner, args[0]); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Account deleted: %s\n", args[0])
	return nil
}

func printAccount(out io.Writer, a account.Account, st usage.Status) {
	fmt.Fprintf(out, "ID:          %s\n", a.ID)
	fmt.Fprintf(out, "Name:        %s\n", a.Name)
	if a.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", a.Description)
	}
	if len(a.Tags) > 0 {
		fmt.Fprintf(out, "Tags:        %s\n", strings.Join(a.Tags, ", "))
	}
	fmt.Fprintf(out, "Policy:      %s\n", a.ResetPolicy)
	fmt.Fprintf(out, "Active:      %t\n", a.IsActive)
	fmt.Fprintf(out, "Used:        %d / %s\n", st.Used, formatLimit(st.Limit))
	if st.Limit != nil {
		fmt.Fprintf(out, "Percentage:  %.1f%%\n", st.Percent)
		fmt.Fprintf(out, "Warning:     %s\n", st.Level)
	}
	if st.Window != nil {
		fmt.Fprintf(out, "Period:      %s to %s\n",
			st.Window.Start.Format("2006-01-02 15:04"),
			st.Window.End.Format("2006-01-02 15:04"))
	}
	if st.ResetsAt != nil {
		fmt.Fprintf(out, "Resets at:   %s\n", st.ResetsAt.Format("2006-01-02 15:04 MST"))
	}
}

func formatLimit(limit *int64) string {
	if limit == nil {
		return "-"
	}
	return strconv.FormatInt(*limit, 10)
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
