package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"stipendi/internal/cli"
	"stipendi/internal/core"
	"stipendi/internal/format"
	"stipendi/internal/ledger"
	"stipendi/internal/persistence"
	"stipendi/internal/tui"
	"stipendi/internal/view"
)

func showCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Mostra il riepilogo dell'anno selezionato",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStack(cmd.Context(), true, func(_ context.Context, s *cli.Stack) error {
				state, _ := s.Session.Snapshot()
				if asJSON {
					return a.printJSON(view.Build(state, a.now(), s.Session.Bounds()))
				}
				a.render(state, s.Session.Bounds())
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the dashboard projection as JSON")
	return cmd
}

func setCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <importo>",
		Short: "Registra l'importo del mese selezionato (vuoto per cancellarlo)",
		Example: `  stipendi set 2500,50
  stipendi set ""`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatch(cmd.Context(), ledger.SaveAmount(args[0]))
		},
	}
}

func monthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "month <codice>",
		Short: "Seleziona un mese (01-12, 13 o 14)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := core.MonthCode(strings.TrimSpace(args[0]))
			if len(code) == 1 {
				code = "0" + code
			}
			return a.dispatch(cmd.Context(), ledger.SelectMonth(code))
		},
	}
}

func stepMonthCmd(a *app, use, short string, dir int) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.dispatch(cmd.Context(), ledger.StepMonth(dir))
		},
	}
}

func yearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "year <anno>",
		Short: "Seleziona un anno",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := parseYear(args[0], a.cfg.Bounds())
			if err != nil {
				return err
			}
			return a.dispatch(cmd.Context(), ledger.SetYear(year))
		},
	}
}

func stepYearCmd(a *app, use, short string, dir int) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.dispatch(cmd.Context(), ledger.StepYear(dir))
		},
	}
}

func themeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "theme [light|dark]",
		Short: "Alterna il tema o ne imposta uno",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return a.dispatch(cmd.Context(), ledger.ToggleTheme())
			}
			switch t := core.Theme(strings.ToLower(args[0])); t {
			case core.ThemeLight, core.ThemeDark:
				return a.dispatch(cmd.Context(), ledger.SetTheme(t))
			default:
				return fmt.Errorf("tema non valido %q: usa light o dark", args[0])
			}
		},
	}
}

func compareCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "compare <anno> <anno>",
		Short: "Confronta due anni mese per mese",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := a.cfg.Bounds()
			ya, err := parseYear(args[0], b)
			if err != nil {
				return err
			}
			yb, err := parseYear(args[1], b)
			if err != nil {
				return err
			}
			return a.withStack(cmd.Context(), true, func(_ context.Context, s *cli.Stack) error {
				state, _ := s.Session.Snapshot()
				c := view.Compare(state, ya, yb)
				if asJSON {
					return a.printJSON(c)
				}
				fmt.Fprintln(a.out, tui.Comparison(tui.For(state.Theme), c))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the comparison as JSON")
	return cmd
}

func exportCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Esporta un backup JSON del registro",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStack(cmd.Context(), true, func(ctx context.Context, s *cli.Stack) error {
				res, err := s.Session.Dispatch(ctx, ledger.Export())
				if err != nil {
					return err
				}
				if output == "-" {
					_, err := a.out.Write(append(res.Export, '\n'))
					return err
				}
				if err := os.WriteFile(output, res.Export, 0o600); err != nil {
					return fmt.Errorf("write backup: %w", err)
				}
				fmt.Fprintf(a.out, "Backup salvato in %s\n", output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", persistence.ExportFileName, "destination file, - for stdout")
	return cmd
}

func importCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Sostituisce il registro con un backup JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}
			return a.dispatch(cmd.Context(), ledger.Import(data))
		},
	}
}

func refreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Ricarica il registro dal file remoto",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStack(cmd.Context(), false, func(ctx context.Context, s *cli.Stack) error {
				res, err := s.Session.Refresh(ctx)
				if err != nil {
					return err
				}
				if res.Source != persistence.SourceRemote {
					fmt.Fprintf(a.out, "File remoto non disponibile, dati caricati da: %s\n", res.Source)
				}
				a.render(res.State, s.Session.Bounds())
				return nil
			})
		},
	}
}

// syncHistory is implemented by both local stores.
type syncHistory interface {
	RecentSyncs(ctx context.Context, limit int) ([]core.SyncReport, error)
}

func historyCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Mostra gli ultimi salvataggi remoti",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStack(cmd.Context(), false, func(ctx context.Context, s *cli.Stack) error {
				h, ok := s.Local.(syncHistory)
				if !ok {
					return errors.New("sync history not available for this backend")
				}
				reports, err := h.RecentSyncs(ctx, limit)
				if err != nil {
					return err
				}
				if len(reports) == 0 {
					fmt.Fprintln(a.out, "Nessun salvataggio remoto registrato")
					return nil
				}
				for _, rep := range reports {
					line := fmt.Sprintf("%s  %-7s  stamp %d", rep.At.Local().Format("02/01/2006 15:04"), rep.Status, rep.Stamp)
					if rep.Revision != "" {
						line += "  " + shortRevision(rep.Revision)
					}
					if rep.Error != "" {
						line += "  " + string(rep.Kind) + ": " + rep.Error
					}
					fmt.Fprintln(a.out, line)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of entries")
	return cmd
}

func shortRevision(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

func loginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <url>",
		Short: "Salva il token di scrittura da un link con ?token=",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStack(cmd.Context(), false, func(ctx context.Context, s *cli.Stack) error {
				scrubbed, captured, err := s.Credentials.Bootstrap(ctx, args[0])
				if err != nil {
					return err
				}
				if !captured {
					return fmt.Errorf("nessun token trovato in %s", scrubbed)
				}
				fmt.Fprintln(a.out, "Token salvato")
				return nil
			})
		},
	}
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Dimentica il token di scrittura",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStack(cmd.Context(), false, func(ctx context.Context, s *cli.Stack) error {
				if err := s.Credentials.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "Token rimosso")
				return nil
			})
		},
	}
}

// totalLine is the one-line summary printed by serve on startup.
func totalLine(state core.LedgerState) string {
	k := view.KPIFor(state, state.View.Year)
	return fmt.Sprintf("%d: %s (%s)", k.Year, format.Euro(k.Total), format.Progress(k.Count, k.Slots))
}
