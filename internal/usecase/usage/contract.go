package usage

import domusage "github.com/promptsgo/promptsgo/internal/domain/usage"

// WindowReader reports playground token counters. Month and total read the monthly window.
type WindowReader interface {
	Window(period domusage.Period) domusage.Window
}
