package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sibyllinesoft/valknut/internal/langs"
)

// NewListLanguagesCommand prints every registered language adapter's name.
func NewListLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-languages",
		Short: "Show registered language adapters",
		RunE: func(_ *cobra.Command, _ []string) error {
			names := langs.NewRegistry().Names()
			sort.Strings(names)

			for _, n := range names {
				fmt.Println(n)
			}

			return nil
		},
	}
}
