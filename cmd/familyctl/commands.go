package main

import (
	"errors"
	"familycore/internal/core"
	"familycore/pkg/domain"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}
	root := &cobra.Command{
		Use:           "familyctl",
		Short:         "Normalize family tree documents and manage stored families",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setup()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "disable logging")

	root.AddCommand(
		newNormalizeCmd(a),
		newDuplicatesCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newHideCmd(a, true),
		newHideCmd(a, false),
		newRemoveCmd(a),
		newPhotoCmd(a),
		newWipeCmd(a),
		newStatsCmd(a),
	)
	return root
}

func newNormalizeCmd(a *app) *cobra.Command {
	var fromVersion int
	var markCore bool
	var format string
	cmd := &cobra.Command{
		Use:   "normalize FILE",
		Short: "Migrate and normalize a family document without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			doc, err := readDocument(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			f, err := core.NormalizeFamilyPipeline(doc, core.PipelineOptions{
				FromVersion: fromVersion,
				MarkCore:    markCore,
				Logger:      a.log,
			})
			if err != nil {
				return err
			}
			return writeFamily(a.out, format, f)
		},
	}
	cmd.Flags().IntVar(&fromVersion, "from-version", 0, "treat the document as this schema version")
	cmd.Flags().BoolVar(&markCore, "core", false, "mark the result as a seed family")
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json|yaml")
	return cmd
}

func newDuplicatesCmd(a *app) *cobra.Command {
	var fromStore bool
	cmd := &cobra.Command{
		Use:   "duplicates [FILE...]",
		Short: "Report persons sharing a fingerprint within each family",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromStore {
				return a.withStore(cmd.Context(), func(s *core.FamilyStore) error {
					printDuplicates(a.out, core.FindDuplicatesAcrossFamilies(s.Families()))
					return nil
				})
			}
			if len(args) == 0 {
				return errors.New("duplicates: pass FILE arguments or --store")
			}
			families := make([]*domain.Family, 0, len(args))
			for _, path := range args {
				doc, err := readDocument(cmd.InOrStdin(), path)
				if err != nil {
					return err
				}
				f, err := core.NormalizeFamilyPipeline(doc, core.PipelineOptions{Logger: a.log})
				if err != nil {
					return err
				}
				if f.Key == "" {
					f.Key = path
				}
				families = append(families, f)
			}
			printDuplicates(a.out, core.FindDuplicatesAcrossFamilies(families))
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStore, "store", false, "scan the stored families instead of files")
	return cmd
}

func printDuplicates(w io.Writer, groups []core.DuplicateGroup) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "no duplicates")
		return
	}
	for _, g := range groups {
		fmt.Fprintln(w, g.Fingerprint)
		for _, m := range g.Members {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", m.FamilyKey, m.Path, m.Person.ID, m.Person.Name)
		}
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored families, hidden ones included",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(s *core.FamilyStore) error {
				tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "KEY\tTITLE\tKIND\tHIDDEN\tPERSONS")
				for _, f := range s.Families() {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%d\n", f.Key, familyTitle(f), familyKind(f), f.Hidden, len(f.Persons))
				}
				return tw.Flush()
			})
		},
	}
}

func familyTitle(f *domain.Family) string {
	switch {
	case f.Title != "":
		return f.Title
	case f.FullRootPersonName != "":
		return f.FullRootPersonName
	case f.RootPerson != nil:
		return f.RootPerson.Name
	}
	return ""
}

func familyKind(f *domain.Family) string {
	if f.Core {
		return "core"
	}
	return "custom"
}

func newShowCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show KEY",
		Short: "Print a stored family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(s *core.FamilyStore) error {
				f, err := s.Family(args[0])
				if err != nil {
					return err
				}
				return writeFamily(a.out, format, f)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format: json|yaml")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Normalize a document and store it as a custom family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readDocument(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(s *core.FamilyStore) error {
				f, err := s.Import(doc)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "imported %s (%d persons)\n", f.Key, len(f.Persons))
				return nil
			})
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var stripPhotos bool
	var output string
	cmd := &cobra.Command{
		Use:   "export KEY",
		Short: "Export the sanitized JSON of a stored family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(s *core.FamilyStore) error {
				data, err := s.Export(args[0], stripPhotos)
				if err != nil {
					return err
				}
				if output != "" {
					return os.WriteFile(output, append(data, '\n'), 0o600)
				}
				_, err = fmt.Fprintln(a.out, string(data))
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&stripPhotos, "strip-photos", false, "drop inline data: photo payloads")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newHideCmd(a *app, hidden bool) *cobra.Command {
	use, short := "hide KEY", "Hide a family"
	if !hidden {
		use, short = "unhide KEY", "Show a hidden family again"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(s *core.FamilyStore) error {
				return s.SetHidden(args[0], hidden)
			})
		},
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove KEY",
		Short: "Delete a custom family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(s *core.FamilyStore) error {
				return s.Remove(args[0])
			})
		},
	}
}

func newPhotoCmd(a *app) *cobra.Command {
	var contentType string
	cmd := &cobra.Command{
		Use:   "photo KEY PERSON_ID IMAGE",
		Short: "Upload a person's photo to the blob store",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[2])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			ct := contentType
			if ct == "" {
				ct = http.DetectContentType(data)
			}
			return a.withStore(cmd.Context(), func(s *core.FamilyStore) error {
				patch, err := s.AttachPhoto(cmd.Context(), args[0], args[1], ct, data)
				if err != nil {
					return err
				}
				url, err := core.ResolvePhotoURL(cmd.Context(), a.blobs, patch.PhotoURL, a.cfg.PhotoTTL)
				if err != nil {
					// Not every blob driver can presign; the reference is still stored.
					url = patch.PhotoURL
				}
				fmt.Fprintf(a.out, "photo v%d %s\n", patch.PhotoVersion, url)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&contentType, "content-type", "", "image content type (detected when empty)")
	return cmd
}

func newWipeCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete stored families, seed meta and photos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to wipe without --yes")
			}
			return a.withStore(cmd.Context(), func(s *core.FamilyStore) error {
				if err := s.Wipe(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "wiped, %d seed families remain\n", len(s.Families()))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the wipe")
	return cmd
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Load the store and print its metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(*core.FamilyStore) error {
				return printMetrics(a)
			})
		},
	}
}

func printMetrics(a *app) error {
	families, err := a.reg.Gather()
	if err != nil {
		return err
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var v float64
			switch {
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				v = float64(m.GetHistogram().GetSampleCount())
			}
			labels := ""
			for _, lp := range m.GetLabel() {
				labels += fmt.Sprintf("{%s=%q}", lp.GetName(), lp.GetValue())
			}
			fmt.Fprintf(a.out, "%s%s %g\n", mf.GetName(), labels, v)
		}
	}
	return nil
}
