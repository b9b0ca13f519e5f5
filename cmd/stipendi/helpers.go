package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"stipendi/internal/cli"
	"stipendi/internal/core"
	"stipendi/internal/ledger"
	"stipendi/internal/log"
	"stipendi/internal/tui"
	"stipendi/internal/view"
)

// withStack builds the ledger stack, optionally runs the startup load, calls
// fn and then waits for background pushes before releasing the store.
func (a *app) withStack(ctx context.Context, open bool, fn func(ctx context.Context, s *cli.Stack) error) error {
	stack, err := cli.NewStack(ctx, a.cfg, a.logger, cli.StackOptions{
		Publish: true,
		Remote:  a.remote,
		Now:     a.now,
	})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if err := stack.Close(closeCtx); err != nil {
			a.logger.Warn("Failed to close ledger stack cleanly", log.FieldError, err)
		}
	}()

	if open {
		if _, err := stack.Open(ctx); err != nil {
			return fmt.Errorf("load ledger: %w", err)
		}
	}
	return fn(ctx, stack)
}

// dispatch runs cmd against a freshly opened session and renders the result.
func (a *app) dispatch(ctx context.Context, cmd ledger.Command) error {
	return a.withStack(ctx, true, func(ctx context.Context, s *cli.Stack) error {
		res, err := s.Session.Dispatch(ctx, cmd)
		if err != nil {
			return describe(err)
		}
		if res.Notice != "" {
			fmt.Fprintln(a.out, tui.For(res.State.Theme).Positive.Render(res.Notice))
		}
		a.render(res.State, s.Session.Bounds())
		return nil
	})
}

func (a *app) render(state core.LedgerState, b core.Bounds) {
	fmt.Fprintln(a.out, tui.Dashboard(view.Build(state, a.now(), b)))
}

func (a *app) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(b))
	return err
}

// describe turns domain errors into the Italian messages the user sees.
func describe(err error) error {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		return fmt.Errorf("%s non valido: %w", fieldLabel(ve.Field), err)
	}
	var fe *core.FormatError
	if errors.As(err, &fe) {
		return fmt.Errorf("file di backup non valido: %w", err)
	}
	return err
}

func fieldLabel(field string) string {
	switch field {
	case "amount":
		return "Importo"
	case "monthId":
		return "Mese"
	case "year":
		return "Anno"
	case "theme":
		return "Tema"
	}
	return "Valore"
}

func parseYear(raw string, b core.Bounds) (int, error) {
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("anno non valido %q: %w", raw, err)
	}
	if !b.Contains(year) {
		return 0, fmt.Errorf("anno %d fuori intervallo %d-%d: %w", year, b.Start, b.End, core.ErrYearOutOfBounds)
	}
	return year, nil
}
