package ledger

import "stipendi/internal/core"

type CommandKind string

const (
	CmdSelectMonth CommandKind = "select_month"
	CmdStepMonth   CommandKind = "step_month"
	CmdSetYear     CommandKind = "set_year"
	CmdStepYear    CommandKind = "step_year"
	CmdSaveAmount  CommandKind = "save_amount"
	CmdToggleTheme CommandKind = "toggle_theme"
	CmdSetTheme    CommandKind = "set_theme"
	CmdImport      CommandKind = "import"
	CmdExport      CommandKind = "export"
)

// Command is one user action. Only the fields relevant to Kind are read.
type Command struct {
	Kind  CommandKind
	Month core.MonthCode
	Year  int
	Dir   int
	Raw   string
	Theme core.Theme
	Data  []byte
}

func SelectMonth(code core.MonthCode) Command { return Command{Kind: CmdSelectMonth, Month: code} }
func StepMonth(dir int) Command { return Command{Kind: CmdStepMonth, Dir: dir} }
func SetYear(year int) Command { return Command{Kind: CmdSetYear, Year: year} }
func StepYear(dir int) Command { return Command{Kind: CmdStepYear, Dir: dir} }

// SaveAmount stores raw for the cursor month; blank input clears it.
func SaveAmount(raw string) Command { return Command{Kind: CmdSaveAmount, Raw: raw} }
func ToggleTheme() Command { return Command{Kind: CmdToggleTheme} }
func SetTheme(t core.Theme) Command { return Command{Kind: CmdSetTheme, Theme: t} }
func Import(data []byte) Command { return Command{Kind: CmdImport, Data: data} }
func Export() Command { return Command{Kind: CmdExport} }

// Result is the state after a command.
type Result struct {
	State   core.LedgerState
	Stamp   uint64
	Changed bool
	// Notice is a short user-facing confirmation, empty for navigation.
	Notice string
	// Export holds the backup bytes for CmdExport.
	Export []byte
}
