package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hearthapi/hearth/internal/fixtures"
)

func newFixturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Seed the store from a fixture file",
	}

	cmd.AddCommand(newFixturesLoadCmd())

	return cmd
}

func newFixturesLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Load users and posts from a YAML fixture file",
		Example: `  hearth fixtures load fixtures.yaml

  # fixtures.yaml
  users:
    - ref: alice
      email: alice@example.com
      password: wonderland
  posts:
    - content: Hello, world
      author: alice`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFixturesLoad(args[0])
		},
	}

	return cmd
}

func runFixturesLoad(path string) error {
	st, err := openStore(loadConfig().Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	res, err := fixtures.Load(context.Background(), st, path)
	if err != nil {
		return err
	}

	fmt.Printf("Loaded %d users and %d posts from %s\n", res.Users, res.Posts, path)
	return nil
}
