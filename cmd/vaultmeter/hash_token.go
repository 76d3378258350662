package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vaultmeter/vaultmeter/adapters/hasher"
	"github.com/vaultmeter/vaultmeter/adapters/random"
)

var (
	hashCost     int
	hashGenerate bool
)

var hashTokenCmd = &cobra.Command{
	Use:   "hash-token [token]",
	Short: "Hash an API token for auth.tokens",
	Long: `Print the bcrypt hash of an API token.

The token is read from the argument or, when absent, from the first line
of standard input, or generated with --generate. Put the hash in
auth.tokens together with the owner the token acts as.

Examples:
  vaultmeter hash-token --generate
  vaultmeter hash-token s3cret
  echo s3cret | vaultmeter hash-token`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHashToken,
}

func init() {
	rootCmd.AddCommand(hashTokenCmd)

	hashTokenCmd.Flags().IntVar(&hashCost, "cost", 0, "bcrypt cost (0 uses the library default)")
	hashTokenCmd.Flags().BoolVar(&hashGenerate, "generate", false, "generate a random token and print it above its hash")
}

func runHashToken(cmd *cobra.Command, args []string) error {
	var token string
	switch {
	case hashGenerate && len(args) == 1:
		return errors.New("--generate takes no token argument")
	case hashGenerate:
		generated, err := random.New().Token(32)
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}
		token = generated
		fmt.Fprintf(cmd.OutOrStdout(), "token: %s\n", token)
	case len(args) == 1:
		token = args[0]
	default:
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return errors.New("no token given")
		}
		token = line
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token must not be empty")
	}

	hash, err := hasher.NewBcrypt(hashCost).Hash(token)
	if err != nil {
		return fmt.Errorf("hash token: %w", err)
	}
	if hashGenerate {
		fmt.Fprintf(cmd.OutOrStdout(), "hash:  %s\n", hash)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(hash))
	return nil
}
