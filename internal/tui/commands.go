package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/edupay/internal/query"
	"github.com/Veraticus/edupay/internal/txview"
)

// Source resolves a query state into a page of transactions.
type Source interface {
	Resolve(ctx context.Context, state query.State) (txview.View, error)
}

// invalidator is implemented by sources that cache rows.
type invalidator interface {
	Invalidate()
}

type schoolSource struct {
	controller *txview.SchoolController
	schoolID   string
}

// SchoolSource scopes a school controller to one school.
func SchoolSource(controller *txview.SchoolController, schoolID string) Source {
	return schoolSource{controller: controller, schoolID: schoolID}
}

func (s schoolSource) Resolve(ctx context.Context, state query.State) (txview.View, error) {
	return s.controller.Resolve(ctx, s.schoolID, state)
}

// fetchView resolves state in the background.
func fetchView(ctx context.Context, source Source, state query.State, seq int, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		view, err := source.Resolve(ctx, state)
		return viewLoadedMsg{
			state: state,
			view:  view,
			err:   err,
			seq:   seq,
		}
	}
}
