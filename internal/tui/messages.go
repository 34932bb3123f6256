package tui

import (
	"github.com/Veraticus/edupay/internal/query"
	"github.com/Veraticus/edupay/internal/txview"
)

// viewLoadedMsg carries the result of resolving a query state. seq lets the
// model drop results that a later navigation superseded.
type viewLoadedMsg struct {
	err   error
	state query.State
	view  txview.View
	seq   int
}
