// Package tui implements the interactive transaction browser.
package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/edupay/internal/model"
	"github.com/Veraticus/edupay/internal/query"
	"github.com/Veraticus/edupay/internal/tui/themes"
	"github.com/Veraticus/edupay/internal/txview"
)

// mode is what the keyboard currently drives.
type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeDate
	modeDetail
	modeHelp
)

// errInvalidRange is shown when the date input cannot be parsed.
var errInvalidRange = errors.New("enter dates as YYYY-MM-DD..YYYY-MM-DD")

// Model holds the browser state.
type Model struct {
	ctx      context.Context
	source   Source
	err      error
	history  *query.History
	theme    themes.Theme
	config   Config
	keymap   KeyMap
	detail   model.Transaction
	help     help.Model
	input    textinput.Model
	table    table.Model
	view     txview.View
	state    query.State
	seq      int
	width    int
	height   int
	mode     mode
	loading  bool
	quitting bool
}

// New creates the browser model for source.
func New(ctx context.Context, source Source, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	keymap := DefaultKeyMap()

	t := table.New(
		table.WithColumns(columns(cfg.Initial, cfg.Width)),
		table.WithFocused(true),
		table.WithHeight(tableHeight(cfg.Height)),
	)
	t.KeyMap = table.KeyMap{LineUp: keymap.Up, LineDown: keymap.Down}
	styles := table.DefaultStyles()
	styles.Header = cfg.Theme.Header
	styles.Selected = cfg.Theme.Selected
	t.SetStyles(styles)

	input := textinput.New()
	input.CharLimit = 64

	return Model{
		ctx:     ctx,
		source:  source,
		history: query.NewHistory(cfg.Initial),
		theme:   cfg.Theme,
		config:  cfg,
		keymap:  keymap,
		help:    help.New(),
		input:   input,
		table:   t,
		state:   cfg.Initial,
		view:    txview.View{TotalPages: 1, CurrentPage: cfg.Initial.Page},
		width:   cfg.Width,
		height:  cfg.Height,
		seq:     1,
		loading: true,
	}
}

// Init loads the initial state.
func (m Model) Init() tea.Cmd {
	return fetchView(m.ctx, m.source, m.state, m.seq, m.config.Timeout)
}

// State returns the query state currently shown.
func (m Model) State() query.State {
	return m.state
}

// Err returns the error shown on the inline error line.
func (m Model) Err() error {
	return m.err
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table.SetHeight(tableHeight(msg.Height))
		m.table.SetColumns(columns(m.state, msg.Width))
		return m, nil

	case viewLoadedMsg:
		return m.handleLoaded(msg), nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.ForceQuit) {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch, modeDate:
			return m.updateInput(msg)
		case modeDetail, modeHelp:
			if key.Matches(msg, m.keymap.Quit, m.keymap.Select, m.keymap.Help) {
				m.mode = modeBrowse
			}
			return m, nil
		}
		return m.updateBrowse(msg)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleLoaded(msg viewLoadedMsg) Model {
	if msg.seq != m.seq {
		return m
	}
	m.loading = false
	m.err = msg.err

	if msg.err != nil {
		m.view = txview.View{TotalPages: 1, CurrentPage: msg.state.Page}
	} else {
		m.view = msg.view
	}

	m.table.SetColumns(columns(msg.state, m.width))
	m.table.SetRows(rows(m.view.Items))
	m.table.SetCursor(0)
	return m
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.state
	k := m.keymap

	switch {
	case key.Matches(msg, k.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, k.Help):
		m.mode = modeHelp
		return m, nil

	case key.Matches(msg, k.Select):
		if len(m.view.Items) == 0 {
			return m, nil
		}
		m.detail = m.view.Items[min(m.table.Cursor(), len(m.view.Items)-1)]
		m.mode = modeDetail
		return m, nil

	case key.Matches(msg, k.NextPage):
		if s.Page >= m.view.TotalPages {
			return m, nil
		}
		return m.navigate(s.WithPage(s.Page + 1))

	case key.Matches(msg, k.PrevPage):
		if s.Page <= 1 {
			return m, nil
		}
		return m.navigate(s.WithPage(s.Page - 1))

	case key.Matches(msg, k.FirstPage):
		return m.navigate(s.WithPage(1))

	case key.Matches(msg, k.LastPage):
		return m.navigate(s.WithPage(m.view.TotalPages))

	case key.Matches(msg, k.CycleLimit):
		return m.navigate(s.WithLimit(nextLimit(s.Limit)))

	case key.Matches(msg, k.CycleSort):
		return m.navigate(s.ToggleSort(nextSortKey(s.SortKey)))

	case key.Matches(msg, k.FlipOrder):
		return m.navigate(s.ToggleSort(s.SortKey))

	case key.Matches(msg, k.ToggleSuccess):
		return m.navigate(toggleStatus(s, model.StatusSuccess))

	case key.Matches(msg, k.TogglePending):
		return m.navigate(toggleStatus(s, model.StatusPending))

	case key.Matches(msg, k.ToggleFailed):
		return m.navigate(toggleStatus(s, model.StatusFailed))

	case key.Matches(msg, k.CycleSchool):
		return m.navigate(s.WithFilters(s.Statuses, nextSchool(s.Schools), s.From, s.To))

	case key.Matches(msg, k.Clear):
		return m.navigate(s.Cleared())

	case key.Matches(msg, k.Search):
		return m.startInput(modeSearch, "search: ", "collect id, order id or gateway", s.Search)

	case key.Matches(msg, k.DateRange):
		return m.startInput(modeDate, "dates: ", "2024-01-01..2024-01-31", formatRange(s))

	case key.Matches(msg, k.Back):
		if prev, ok := m.history.Back(); ok {
			return m.load(prev)
		}
		return m, nil

	case key.Matches(msg, k.Forward):
		if next, ok := m.history.Forward(); ok {
			return m.load(next)
		}
		return m, nil

	case key.Matches(msg, k.Refresh):
		if inv, ok := m.source.(invalidator); ok {
			inv.Invalidate()
		}
		return m.load(s)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) startInput(md mode, prompt, placeholder, value string) (tea.Model, tea.Cmd) {
	m.mode = md
	m.input.Prompt = prompt
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		md := m.mode
		m.mode = modeBrowse
		m.input.Blur()
		value := m.input.Value()

		if md == modeSearch {
			return m.navigate(m.state.WithSearch(value))
		}

		from, to, err := parseRange(value)
		if err != nil {
			m.err = err
			return m, nil
		}
		return m.navigate(m.state.WithFilters(m.state.Statuses, m.state.Schools, from, to))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// navigate records next in the history and loads it.
func (m Model) navigate(next query.State) (tea.Model, tea.Cmd) {
	m.history.Push(next)
	return m.load(next)
}

func (m Model) load(state query.State) (tea.Model, tea.Cmd) {
	m.state = state
	m.seq++
	m.loading = true
	return m, fetchView(m.ctx, m.source, state, m.seq, m.config.Timeout)
}

func nextLimit(current int) int {
	idx := slices.Index(query.AllowedLimits, current)
	return query.AllowedLimits[(idx+1)%len(query.AllowedLimits)]
}

func nextSortKey(current query.SortKey) query.SortKey {
	idx := slices.Index(query.SortKeys, current)
	return query.SortKeys[(idx+1)%len(query.SortKeys)]
}

func toggleStatus(s query.State, status model.Status) query.State {
	statuses := slices.Clone(s.Statuses)
	if i := slices.Index(statuses, status); i >= 0 {
		statuses = slices.Delete(statuses, i, i+1)
	} else {
		statuses = append(statuses, status)
	}
	return s.WithFilters(statuses, s.Schools, s.From, s.To)
}

// nextSchool steps a single-school filter through the school table and
// back to no filter.
func nextSchool(current []string) []string {
	idx := -1
	if len(current) > 0 {
		idx = slices.IndexFunc(model.Schools, func(s model.School) bool { return s.ID == current[0] })
	}
	if idx+1 >= len(model.Schools) {
		return nil
	}
	return []string{model.Schools[idx+1].ID}
}

// parseRange reads "from..to". Either side may be empty; an empty input
// clears both.
func parseRange(raw string) (time.Time, time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, time.Time{}, nil
	}

	fromRaw, toRaw, found := strings.Cut(raw, "..")
	if !found {
		toRaw = fromRaw
	}

	from, to := query.ParseDate(fromRaw), query.ParseDate(toRaw)
	if (strings.TrimSpace(fromRaw) != "" && from.IsZero()) || (strings.TrimSpace(toRaw) != "" && to.IsZero()) {
		return time.Time{}, time.Time{}, errInvalidRange
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("start date %s is after end date %s",
			from.Format(query.DateLayout), to.Format(query.DateLayout))
	}
	return from, to, nil
}

func formatRange(s query.State) string {
	if s.From.IsZero() && s.To.IsZero() {
		return ""
	}
	var from, to string
	if !s.From.IsZero() {
		from = s.From.Format(query.DateLayout)
	}
	if !s.To.IsZero() {
		to = s.To.Format(query.DateLayout)
	}
	return from + ".." + to
}
