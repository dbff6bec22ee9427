package executor

import (
	"strconv"

	"github.com/Conceptual-Machines/magda-edit/internal/command"
)

// args reads command parameters, falling back to catalog defaults
type args struct {
	cmd *command.Command
}

func (a args) lookup(name string) (float64, bool) {
	return a.cmd.Float(name)
}

func (a args) float(name string) float64 {
	if v, ok := a.cmd.Float(name); ok {
		return v
	}
	if spec, ok := command.LookupParam(a.cmd.Kind, name); ok {
		if v, ok := spec.Default.AsFloat(); ok {
			return v
		}
	}
	return 0
}

func (a args) text(name string) string {
	if v, ok := a.cmd.Text(name); ok {
		return v
	}
	if spec, ok := command.LookupParam(a.cmd.Kind, name); ok {
		if v, ok := spec.Default.AsText(); ok {
			return v
		}
	}
	return ""
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func signed(v float64) string {
	if v > 0 {
		return "+" + num(v)
	}
	return num(v)
}
