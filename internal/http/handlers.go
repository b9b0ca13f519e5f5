package http

import (
	"errors"
	"net/http"
	"strconv"

	"stipendi/internal/core"
	"stipendi/internal/format"
	"stipendi/internal/ledger"
	"stipendi/internal/log"
	"stipendi/internal/persistence"
	"stipendi/internal/view"
)

type (
	displayKPI struct {
		Total    string `json:"total"`
		Average  string `json:"average"`
		Max      string `json:"max"`
		Progress string `json:"progress"`
	}

	displayRow struct {
		Label  string `json:"label"`
		Amount string `json:"amount"`
	}

	dashboardResponse struct {
		Stamp uint64 `json:"stamp"`
		view.Dashboard
		KPIText   displayKPI   `json:"kpiText"`
		TableText []displayRow `json:"tableText"`
	}

	stateResponse struct {
		Stamp uint64           `json:"stamp"`
		State core.LedgerState `json:"state"`
	}

	refreshResponse struct {
		dashboardResponse
		Source    persistence.Source `json:"source"`
		Fallbacks []string           `json:"fallbacks,omitempty"`
	}

	compareResponse struct {
		view.Comparison
		DeltaText string `json:"deltaText"`
	}
)

// dashboard returns the projection for state at stamp, cached per stamp and
// calendar month since the grid marks the real current month.
func (s *Server) dashboard(state core.LedgerState, stamp uint64) dashboardResponse {
	now := s.now()
	key := strconv.FormatUint(stamp, 10) + "|" + now.Format("2006-01")
	d := s.dashboards.GetOrCompute(key, func() view.Dashboard {
		return view.Build(state, now, s.session.Bounds())
	})

	resp := dashboardResponse{
		Stamp:     stamp,
		Dashboard: d,
		KPIText: displayKPI{
			Total:    format.Euro(d.KPI.Total),
			Average:  format.Euro(d.KPI.Average),
			Max:      format.Euro(d.KPI.Max),
			Progress: format.Progress(d.KPI.Count, d.KPI.Slots),
		},
		TableText: make([]displayRow, 0, len(d.Table)),
	}
	for _, row := range d.Table {
		resp.TableText = append(resp.TableText, displayRow{
			Label:  row.Month.Full,
			Amount: format.EuroOrMissing(row.Amount, row.HasData),
		})
	}
	return resp
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	state, stamp := s.session.Snapshot()
	NewResponse().JSON(s.dashboard(state, stamp)).Write(w)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	state, stamp := s.session.Snapshot()
	NewResponse().JSON(stateResponse{Stamp: stamp, State: state}).Write(w)
}

func (s *Server) handleSaveSalary(w http.ResponseWriter, r *http.Request) {
	cmd, err := ParseSalaryRequest(r)
	if err != nil {
		BadRequestError("Formato richiesta non valido").Write(w)
		return
	}
	s.dispatch(w, r, cmd)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	cmd, err := ParseNavigateRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.dispatch(w, r, cmd)
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	cmd, err := ParseThemeRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.dispatch(w, r, cmd)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := ReadImportBody(r)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Import body rejected", log.FieldError, err)
		BadRequestError("Nessun file di backup ricevuto").Write(w)
		return
	}
	s.dispatch(w, r, ledger.Import(data))
}

// dispatch runs cmd and answers with the refreshed dashboard.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, cmd ledger.Command) {
	res, err := s.session.Dispatch(r.Context(), cmd)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	b := NewResponse().JSON(s.dashboard(res.State, res.Stamp))
	if res.Changed {
		b.TriggerLedgerChanged(res.Stamp, res.State.View)
	}
	if cmd.Kind == ledger.CmdToggleTheme || cmd.Kind == ledger.CmdSetTheme {
		b.TriggerThemeChanged(res.State.Theme)
	}
	if res.Notice != "" {
		b.TriggerSuccessNotification(res.Notice)
	}
	b.Write(w)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	state, stamp := s.session.Snapshot()
	a, b, err := ParseComparePair(r.URL.Query(), state.View.Year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	bounds := s.session.Bounds()
	if !bounds.Contains(a) || !bounds.Contains(b) {
		UnprocessableEntityError("Anno fuori intervallo").Write(w)
		return
	}

	key := strconv.FormatUint(stamp, 10) + "|" + strconv.Itoa(a) + "|" + strconv.Itoa(b)
	c := s.comparisons.GetOrCompute(key, func() view.Comparison {
		return view.Compare(state, a, b)
	})
	NewResponse().JSON(compareResponse{Comparison: c, DeltaText: format.Euro(c.Delta.Value)}).Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	res, err := s.session.Dispatch(r.Context(), ledger.Export())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewResponse().
		Header("Content-Disposition", `attachment; filename="`+persistence.ExportFileName+`"`).
		Raw("application/json", res.Export).
		Write(w)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	res, err := s.session.Refresh(r.Context())
	if errors.Is(err, ledger.ErrStaleResult) {
		ErrorResponse(http.StatusConflict, "Dati modificati durante il caricamento, riprova").Write(w)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	state, stamp := s.session.Snapshot()
	out := refreshResponse{dashboardResponse: s.dashboard(state, stamp), Source: res.Source}
	for _, fb := range res.Fallbacks {
		out.Fallbacks = append(out.Fallbacks, fb.Error())
	}
	b := NewResponse().JSON(out).TriggerLedgerChanged(stamp, state.View)
	if res.Source != persistence.SourceRemote {
		b.TriggerNotification(NotificationWarning, "Dati remoti non disponibili, uso la copia locale", 4000)
	}
	b.Write(w)
}

// writeError maps domain errors to status codes and Italian toasts.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *core.ValidationError
		fe *core.FormatError
	)
	switch {
	case errors.As(err, &ve):
		ErrorResponse(http.StatusUnprocessableEntity, validationMessage(ve)).
			JSON(errorBody{Error: validationMessage(ve), Field: ve.Field}).
			Write(w)
	case errors.As(err, &fe):
		UnprocessableEntityError("File di backup non valido").Write(w)
	case errors.Is(err, ledger.ErrUnknownCommand):
		BadRequestError("Comando sconosciuto").Write(w)
	default:
		s.logger.ErrorContext(r.Context(), "Command failed", log.FieldError, err, log.FieldPath, r.URL.Path)
		InternalServerError("Errore durante il salvataggio").Write(w)
	}
}

func validationMessage(ve *core.ValidationError) string {
	switch ve.Field {
	case "amount":
		return "Importo non valido"
	case "monthId":
		return "Mese non valido"
	case "year", "a", "b":
		return "Anno non valido"
	case "theme":
		return "Tema non valido"
	case "action":
		return "Azione non valida"
	default:
		return "Richiesta non valida"
	}
}
