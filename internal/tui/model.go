// Package tui provides the Bubble Tea statistics interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/tuistat/internal/app"
	"github.com/verte-zerg/tuistat/internal/chart"
	"github.com/verte-zerg/tuistat/internal/input"
	"github.com/verte-zerg/tuistat/internal/model"
	"github.com/verte-zerg/tuistat/internal/stats"
)

const appTitle = "Calculateur de Statistiques"

const (
	tabResults = iota
	tabCharts
	tabHistory
)

type focusArea int

const (
	focusInput focusArea = iota
	focusPanel
)

type computeMsg struct {
	resp app.Response
}

type expireMsg struct {
	gen uint64
}

type exportMsg struct {
	path string
	err  error
}

var exportKeys = map[string]model.ExportFormat{
	"p": model.FormatPDF,
	"x": model.FormatExcel,
	"w": model.FormatWord,
}

// Model implements the Bubble Tea statistics UI.
type Model struct {
	ctx  context.Context
	ctrl *app.Controller
	st   app.State

	history    []model.HistoryEntry
	historyErr string

	input       textinput.Model
	importMode  bool
	importInput textinput.Model
	spinner     spinner.Model
	focus       focusArea

	tabs      []string
	activeTab int
	viewports []viewport.Model

	width  int
	height int
}

// NewModel constructs the UI over ctrl. kinds is the initial chart selection.
func NewModel(ctx context.Context, ctrl *app.Controller, kinds []model.ChartKind) *Model {
	m := &Model{
		ctx:  ctx,
		ctrl: ctrl,
		st:   app.NewState(kinds...),
		tabs: []string{"Résultats", "Graphes", "Historique"},
	}
	m.input = newInput("Nombres : ", "ex. 12, 4.5, -3")
	m.input.Focus()
	m.importInput = newInput("Fichier : ", "donnees.csv ou donnees.xlsx")
	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(titleStyle))
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.refreshHistory()
	m.renderTabContents()
	return m
}

func newInput(prompt, placeholder string) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = 0
	in.Cursor.SetMode(cursor.CursorBlink)
	return in
}

// State returns the current session state.
func (m *Model) State() app.State {
	return m.st
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case computeMsg:
		m.st = m.ctrl.Apply(m.ctx, m.st, msg.resp)
		m.refreshHistory()
		m.renderTabContents()
		return m, m.expireCmd()
	case exportMsg:
		m.st = m.ctrl.ApplyExport(m.st, msg.path, msg.err)
		return m, m.expireCmd()
	case expireMsg:
		m.st = m.ctrl.Expire(m.st, msg.gen)
		return m, nil
	case spinner.TickMsg:
		if m.st.Phase != app.PhaseComputing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.ctrl.Cancel()
			return m, tea.Quit
		}
		if m.importMode {
			return m.updateImport(msg)
		}
		switch msg.String() {
		case "ctrl+o":
			return m.startImport()
		case "ctrl+r":
			m.st = m.ctrl.ResetHistory(m.ctx, m.st)
			m.refreshHistory()
			m.renderTabContents()
			return m, m.expireCmd()
		case "tab":
			return m, m.toggleFocus()
		}
		if m.focus == focusInput {
			return m.updateInput(msg)
		}
		return m.updatePanel(msg)
	}
	return m, nil
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		var req *app.Request
		m.st, req = m.ctrl.Submit(m.st, m.input.Value())
		return m, m.startCompute(req)
	case tea.KeyEsc:
		return m, m.toggleFocus()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updatePanel(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q":
		m.ctrl.Cancel()
		return m, tea.Quit
	case "left", "h":
		m.moveTab(-1)
		return m, tea.ClearScreen
	case "right", "l":
		m.moveTab(1)
		return m, tea.ClearScreen
	case "i", "enter":
		return m, m.toggleFocus()
	case "1", "2", "3", "4":
		kind := model.ChartKinds[int(key[0]-'1')]
		m.st = m.ctrl.ToggleChart(m.st, kind)
		m.renderTabContents()
		return m, nil
	case "v":
		m.st = m.ctrl.ShowCharts(m.st)
		if m.st.ChartsVisible {
			m.activeTab = tabCharts
		}
		m.renderTabContents()
		return m, m.expireCmd()
	case "g", "home":
		m.viewports[m.activeTab].GotoTop()
		return m, nil
	case "G", "end":
		m.viewports[m.activeTab].GotoBottom()
		return m, nil
	}
	if format, ok := exportKeys[key]; ok {
		return m, m.exportCmd(format)
	}
	var cmd tea.Cmd
	m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
	return m, cmd
}

func (m *Model) startImport() (tea.Model, tea.Cmd) {
	m.importMode = true
	m.importInput.SetValue("")
	m.input.Blur()
	return m, m.importInput.Focus()
}

func (m *Model) updateImport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, m.closeImport()
	case tea.KeyEnter:
		path := strings.TrimSpace(m.importInput.Value())
		focusCmd := m.closeImport()
		if path == "" {
			return m, focusCmd
		}
		var req *app.Request
		m.st, req = m.ctrl.Import(m.st, path)
		if req != nil {
			m.input.SetValue(m.st.Input)
		}
		return m, tea.Batch(focusCmd, m.startCompute(req))
	}
	var cmd tea.Cmd
	m.importInput, cmd = m.importInput.Update(msg)
	return m, cmd
}

func (m *Model) closeImport() tea.Cmd {
	m.importMode = false
	m.importInput.Blur()
	if m.focus == focusInput {
		return m.input.Focus()
	}
	return nil
}

func (m *Model) toggleFocus() tea.Cmd {
	if m.focus == focusInput {
		m.focus = focusPanel
		m.input.Blur()
		return nil
	}
	m.focus = focusInput
	return m.input.Focus()
}

// startCompute runs req off the update loop. A nil req only schedules the
// expiry of the banner the controller raised.
func (m *Model) startCompute(req *app.Request) tea.Cmd {
	m.renderTabContents()
	cmds := []tea.Cmd{m.expireCmd()}
	if req != nil {
		r := *req
		ctx, ctrl := m.ctx, m.ctrl
		cmds = append(cmds, func() tea.Msg {
			return computeMsg{resp: ctrl.Compute(ctx, r)}
		}, m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

func (m *Model) exportCmd(format model.ExportFormat) tea.Cmd {
	st := m.st
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		path, err := ctrl.Export(ctx, st, format)
		return exportMsg{path: path, err: err}
	}
}

func (m *Model) expireCmd() tea.Cmd {
	if m.st.Notice == nil {
		return nil
	}
	gen := m.st.Notice.Generation
	return tea.Tick(app.NotificationTTL, func(time.Time) tea.Msg {
		return expireMsg{gen: gen}
	})
}

func (m *Model) refreshHistory() {
	entries, err := m.ctrl.History(m.ctx)
	if err != nil {
		m.historyErr = err.Error()
		return
	}
	m.historyErr = ""
	m.history = entries
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	m.activeTab = (m.activeTab + delta + count) % count
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if m.importMode {
		return fitLines(m.renderImportModal(), m.width, m.height)
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.viewports[m.activeTab].View(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	headerHeight = lipgloss.Height(m.renderHeader())
	footerHeight = lipgloss.Height(m.renderFooter())
	bodyHeight = max(1, m.height-headerHeight-footerHeight)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.input.Width = max(10, m.width-lipgloss.Width(m.input.Prompt)-2)
	m.importInput.Width = max(10, modalInnerWidth(m.width)-lipgloss.Width(m.importInput.Prompt))
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	lines := []string{titleStyle.Render(appTitle), m.input.View()}
	if m.st.Phase == app.PhaseComputing {
		lines = append(lines, m.spinner.View()+mutedStyle.Render(" Calcul en cours..."))
	}
	if m.st.Error != "" {
		lines = append(lines, errorStyle.Render(truncateLine(m.st.Error, m.width)))
		var verr *input.ValidationError
		if _, err := input.ParseText(m.st.Input); errors.As(err, &verr) && !verr.Empty {
			lines = append(lines, wrapStyledRunes(buildStyledRunes(m.st.Input, verr.Tokens), m.width))
		}
	}
	lines = append(lines, padLines(m.renderTabs(), m.width))
	return strings.Join(lines, "\n")
}

func (m *Model) renderHelp() string {
	var help string
	switch {
	case m.focus == focusInput:
		help = "Calculer: enter  Importer: ctrl+o  Panneaux: tab  Réinitialiser: ctrl+r  Quitter: ctrl+c"
	case m.activeTab == tabCharts:
		help = "Graphes: 1-4  Afficher: v  Export: p/x/w  Nav: left/right  Saisie: tab  Quitter: q"
	default:
		help = "Nav: left/right  Défiler: up/down  Export: p/x/w  Saisie: tab  Réinitialiser: ctrl+r  Quitter: q"
	}
	return footerStyle.Render(truncateLine(help, m.width))
}

func (m *Model) renderFooter() string {
	footer := m.renderHelp()
	if n := m.st.Notice; n != nil {
		style := successStyle
		if n.Level == app.LevelError {
			style = errorStyle
		}
		footer += "\n" + style.Render(truncateLine(n.Message, m.width))
	}
	return footer
}

func (m *Model) renderImportModal() string {
	body := []string{
		titleStyle.Render("Importer un fichier"),
		m.importInput.View(),
		mutedStyle.Render("Formats acceptés : .csv, .xlsx"),
		mutedStyle.Render("Entrée pour importer / Échap pour annuler"),
	}
	box := modalStyle.Width(modalWidth(m.width)).Render(strings.Join(body, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabResults].SetContent(renderResults(m.st))
	m.viewports[tabCharts].SetContent(renderCharts(m.st, m.ctrl.Charts(m.st), width))
	m.viewports[tabHistory].SetContent(renderHistory(m.history, m.historyErr))
}

func renderResults(st app.State) string {
	if !st.HasResult() {
		return mutedStyle.Render("Aucun résultat. Saisissez des nombres séparés par des virgules.")
	}
	lines := append([]string{titleStyle.Render("Résultats :")}, stats.RecordLines(*st.Result)...)
	return strings.Join(lines, "\n")
}

func renderCharts(st app.State, charts []chart.Chart, width int) string {
	lines := make([]string, 0, len(model.ChartKinds)+2)
	for i, kind := range model.ChartKinds {
		mark := "[ ]"
		if st.Selection.Has(kind) {
			mark = "[x]"
		}
		lines = append(lines, fmt.Sprintf("%d %s %s", i+1, mark, kind))
	}
	switch {
	case !st.ChartsVisible:
		lines = append(lines, "", mutedStyle.Render("Appuyez sur v pour visualiser les graphes sélectionnés."))
	case len(charts) == 0:
		lines = append(lines, "", mutedStyle.Render("Aucun résultat à représenter."))
	default:
		lines = append(lines, "", chart.RenderText(charts, width))
	}
	return strings.Join(lines, "\n")
}

func renderHistory(entries []model.HistoryEntry, errMsg string) string {
	if errMsg != "" {
		return errorStyle.Render("Impossible de charger l'historique : " + errMsg)
	}
	if len(entries) == 0 {
		return mutedStyle.Render("Aucun calcul dans l'historique.")
	}
	lines := []string{titleStyle.Render(fmt.Sprintf("Historique des Calculs (%d) :", len(entries)))}
	for _, entry := range entries {
		lines = append(lines, stats.HistoryLine(entry))
	}
	if means := stats.HistoryMeans(entries); len(means) > 1 {
		lines = append(lines, "", mutedStyle.Render("Moyennes : ")+stats.Sparkline(means))
	}
	return strings.Join(lines, "\n")
}
