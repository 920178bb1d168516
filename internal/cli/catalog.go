package cli

import (
	"fmt"
	"io"

	"github.com/ralt/debcube/internal/export"
	"github.com/ralt/debcube/internal/models"
	"github.com/ralt/debcube/internal/pipeline"
	"github.com/ralt/debcube/internal/query"
	"github.com/ralt/debcube/internal/signer"
	"github.com/spf13/cobra"
)

func newScanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Build the catalog and report upgradable packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.scan(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSummary(out, result)
			for _, name := range result.Upgradable {
				pkg := result.Catalog.Available[name]
				fmt.Fprintf(out, "  %s %s -> %s\n", name, pkg.InstalledVersion, pkg.Version)
			}
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	var (
		section    string
		installed  bool
		upgradable bool
		sections   bool
		page       int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List packages as JSON, ten per page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.scan(cmd.Context())
			if err != nil {
				return err
			}

			if sections {
				return writeJSON(cmd.OutOrStdout(), result.Catalog.SectionNames())
			}

			q := query.New(result.Catalog)
			var p query.Page
			switch {
			case section != "":
				p = q.SectionPackages(section, page)
			case installed:
				p = q.InstalledPackages(page)
			case upgradable:
				p = q.UpgradablePackages(page)
			default:
				p = q.Packages(page)
			}

			return writeJSON(cmd.OutOrStdout(), p)
		},
	}

	cmd.Flags().StringVar(&section, "section", "", "Only packages of this section")
	cmd.Flags().BoolVar(&installed, "installed", false, "Only installed packages")
	cmd.Flags().BoolVar(&upgradable, "upgradable", false, "Only upgradable packages")
	cmd.Flags().BoolVar(&sections, "sections", false, "List section names instead of packages")
	cmd.Flags().IntVar(&page, "page", 1, "Page number, starting at 1")
	cmd.MarkFlagsMutuallyExclusive("section", "installed", "upgradable", "sections")

	return cmd
}

func newDepsCmd(a *app) *cobra.Command {
	var exportDir, gpgKey, gpgPassphrase string

	cmd := &cobra.Command{
		Use:   "deps <package>",
		Short: "Resolve the dependency closure of a package",
		Long: `Resolves Depends, Pre-Depends and Recommends recursively. Relations
already satisfied by an installed package are left out. With --export, the
records of the closure are written as a flat repository index.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.scan(cmd.Context())
			if err != nil {
				return err
			}

			closure, err := result.Resolver.ResolveName(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range closure.Order {
				pkg := closure.Packages[name]
				fmt.Fprintf(out, "%s %s (%s)\n", name, pkg.Version, pkg.Status)
			}
			for _, w := range closure.Warnings {
				fmt.Fprintf(out, "warning: %s\n", w)
			}

			if exportDir != "" {
				ws, err := a.openWorkspace()
				if err != nil {
					return err
				}

				var s signer.Signer
				if gpgKey != "" {
					gpg, err := signer.NewGPGSigner(gpgKey, gpgPassphrase)
					if err != nil {
						return &models.CubeError{Type: models.ErrInvalidConfig, Err: err}
					}
					s = gpg
				}

				info := export.ReleaseInfo{Origin: "debcube", Label: ws.Info.Name + "/" + args[0], Arch: a.cfg.Arch}
				if err := export.WriteClosure(exportDir, closure, info, s); err != nil {
					return err
				}
				fmt.Fprintf(out, "Exported %d packages to %s\n", len(closure.Packages), exportDir)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&exportDir, "export", "", "Write the closure as Packages, Packages.gz and Release into this directory")
	cmd.Flags().StringVarP(&gpgKey, "gpg-key", "k", "", "Path to GPG private key used to sign the exported Release")
	cmd.Flags().StringVarP(&gpgPassphrase, "gpg-passphrase", "p", "", "GPG key passphrase")

	return cmd
}

// packageDetail is the output of show
type packageDetail struct {
	query.PackageJSON
	Source         string            `json:"source,omitempty"`
	ReverseDepends map[string]string `json:"reverse_depends,omitempty"`
	Record         string            `json:"record"`
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <package>",
		Short: "Show a package and its index record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.scan(cmd.Context())
			if err != nil {
				return err
			}

			pkg, ok := result.Catalog.Available[args[0]]
			if !ok {
				pkg, ok = result.Catalog.Installed[args[0]]
			}
			if !ok {
				if providers := result.Catalog.Providers(args[0]); len(providers) > 0 {
					return fmt.Errorf("%s is a virtual package provided by %v", args[0], providers)
				}
				return fmt.Errorf("package %s not found", args[0])
			}

			raw, err := pkg.Raw()
			if err != nil {
				return err
			}

			detail := packageDetail{
				PackageJSON: query.Project(pkg),
				Record:      string(raw),
			}
			if pkg.Source != nil {
				detail.Source = pkg.Source.Link
			}
			if len(pkg.ReverseDepends) > 0 {
				detail.ReverseDepends = make(map[string]string)
				for _, edge := range pkg.ReverseDepends {
					detail.ReverseDepends[edge.Requester] = edge.Item.String()
				}
			}

			return writeJSON(cmd.OutOrStdout(), detail)
		},
	}
}

func printSummary(w io.Writer, result *pipeline.Result) {
	fmt.Fprintf(w, "Sources:    %d\n", len(result.Sources))
	fmt.Fprintf(w, "Available:  %d\n", len(result.Catalog.Available))
	fmt.Fprintf(w, "Installed:  %d\n", len(result.Catalog.Installed))
	fmt.Fprintf(w, "Sections:   %d\n", len(result.Catalog.SectionNames()))
	fmt.Fprintf(w, "Upgradable: %d\n", len(result.Upgradable))
	for _, d := range result.Diagnostics {
		fmt.Fprintf(w, "warning: %s\n", d)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := query.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
