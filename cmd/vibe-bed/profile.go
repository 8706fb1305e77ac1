package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/inodb/vibe-bed/internal/profile"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or change output profiles",
		Long:  "Show or change the padding and UTR settings of the data, sambamba, exomeDepth and cnv profiles.",
		Example: `  vibe-bed profile                          # show all profiles
  vibe-bed profile show sambamba            # show one profile
  vibe-bed profile set cnv padding_5 100    # pad cnv regions by 100 bp upstream
  vibe-bed profile set data include_5utr true`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileShow(cmd, nil)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show [name...]",
		Short: "Show profiles",
		RunE:  runProfileShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <name> <key> <value>",
		Short: "Set a profile value",
		Long:  fmt.Sprintf("Set a profile value. Keys: %v.", profile.Keys()),
		Args:  cobra.ExactArgs(3),
		RunE:  runProfileSet,
	})

	return cmd
}

func runProfileShow(cmd *cobra.Command, names []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	reg, err := store.Registry()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		names = reg.Names()
	}

	var list []profile.Settings
	for _, name := range names {
		s, err := reg.Get(name)
		if err != nil {
			return err
		}
		list = append(list, s)
	}

	out, err := yaml.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshaling profiles: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	name, key, value := args[0], args[1], args[2]

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	reg, err := store.Registry()
	if err != nil {
		return err
	}
	s, err := reg.Get(name)
	if err != nil {
		return err
	}
	s, err = s.With(key, value)
	if err != nil {
		return err
	}
	if err := store.SaveProfile(s); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s.%s = %s\n", name, key, value)
	return nil
}
