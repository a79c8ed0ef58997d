package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/arthur-debert/dirstage/pkg/archive"
	"github.com/arthur-debert/dirstage/pkg/builder"
	"github.com/arthur-debert/dirstage/pkg/config"
	"github.com/arthur-debert/dirstage/pkg/logging"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <manifest.toml>",
		Short: "Stage the manifest's mutations and commit them as one batch",
		Long: `Reads a TOML manifest, stages every entry into a single builder
and commits the batch against the manifest's root directory. Relative
paths in the manifest are resolved against the manifest file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			manifestPath := args[0]
			dryRun, _ := cmd.Root().PersistentFlags().GetBool("dry-run")

			m, err := config.Load(manifestPath)
			if err != nil {
				pterm.Error.Println(err.Error())
				return err
			}

			base := filepath.Dir(manifestPath)
			root := m.Root
			if !filepath.IsAbs(root) {
				root = filepath.Join(base, root)
			}

			if dryRun {
				printPlan(m, root)
				return nil
			}

			b, err := builder.New(root, builder.Options{
				Policy: m.Policy(),
				Logger: logging.GetLogger("apply"),
			})
			if err != nil {
				return err
			}
			defer func() { _ = b.Close() }()

			if err := stageManifest(b, m, base); err != nil {
				pterm.Error.Println(err.Error())
				return err
			}

			if err := b.Build(context.Background()); err != nil {
				pterm.Error.Println(err.Error())
				return err
			}

			pterm.Success.Printfln("applied %s to %s", manifestPath, root)
			return nil
		},
	}
}

// stageManifest stages every manifest entry into the builder. The
// first staging error surfaces via b.Err(), matching the builder's
// fail-fast commit.
func stageManifest(b *builder.Builder, m config.Manifest, base string) error {
	for _, d := range m.Deletes {
		b.Delete(d.Path)
	}
	for _, d := range m.Dirs {
		b.AddDirectory(d.Path)
	}
	for _, f := range m.Files {
		if f.Content != "" {
			b.AddFile(f.Path, []byte(f.Content))
			continue
		}
		b.AddExisting(f.Path, resolveAgainst(base, f.Source))
	}
	for _, c := range m.Copies {
		b.AddExisting(c.Path, resolveAgainst(base, c.From))
	}
	for _, e := range m.Extracts {
		ar, err := archive.Open(resolveAgainst(base, e.Archive))
		if err != nil {
			return err
		}
		b.ExtractArchive(e.Path, ar)
	}
	return b.Err()
}

func resolveAgainst(base, path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// printPlan lists what the manifest would stage without touching the
// filesystem.
func printPlan(m config.Manifest, root string) {
	pterm.Info.Printfln("would commit to %s (on_conflict: %s)", root, m.Policy())
	for _, d := range m.Deletes {
		pterm.Info.Printfln("  delete  %s", d.Path)
	}
	for _, d := range m.Dirs {
		pterm.Info.Printfln("  dir     %s", d.Path)
	}
	for _, f := range m.Files {
		detail := fmt.Sprintf("%d bytes inline", len(f.Content))
		if f.Source != "" {
			detail = "from " + f.Source
		}
		pterm.Info.Printfln("  file    %s (%s)", f.Path, detail)
	}
	for _, c := range m.Copies {
		pterm.Info.Printfln("  copy    %s <- %s", c.Path, c.From)
	}
	for _, e := range m.Extracts {
		pterm.Info.Printfln("  extract %s <- %s", e.Path, e.Archive)
	}
}
