package cli

import (
	"fmt"

	"github.com/arthur-debert/dirstage/pkg/paths"
	"github.com/spf13/cobra"
)

func newNormCmd() *cobra.Command {
	var slash bool

	cmd := &cobra.Command{
		Use:   "norm <path>...",
		Short: "Print the normalized form of each path",
		Long: `Parses each argument into a normalized path (separators collapsed,
".." resolved) and prints the rendered result. A debugging aid for
manifest authors.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range args {
				p, err := paths.Parse(raw)
				if err != nil {
					return err
				}
				rendered := p.String()
				if slash {
					rendered = p.Slash()
				}
				fmt.Printf("%s\t(absolute: %t, name: %s, ext: %s)\n",
					rendered, p.IsAbsolute(), p.Name(), p.Ext())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&slash, "slash", false, "Render with forward slashes")
	return cmd
}
