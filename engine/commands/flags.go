package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/parachain-tools/xcm-automation/automation"
)

var (
	_ pflag.Value = (*routeValue)(nil)
	_ pflag.Value = (*sequenceValue)(nil)
	_ pflag.Value = (*statesValue)(nil)
)

// routeValue is the --route flag. Unknown routes are rejected while flags are parsed.
type routeValue automation.Route

func (v *routeValue) String() string { return automation.Route(*v).String() }
func (*routeValue) Type() string     { return "route" }

func (v *routeValue) Set(s string) error {
	r, err := automation.ParseRoute(s)
	if err != nil {
		return err
	}
	*v = routeValue(r)

	return nil
}

// sequenceValue is the --sequence flag.
type sequenceValue automation.InstructionSequence

func (v *sequenceValue) String() string { return automation.InstructionSequence(*v).String() }
func (*sequenceValue) Type() string     { return "sequence" }

func (v *sequenceValue) Set(s string) error {
	seq, err := automation.ParseInstructionSequence(s)
	if err != nil {
		return err
	}
	*v = sequenceValue(seq)

	return nil
}

// statesValue is a repeatable, comma separated list of task states.
type statesValue []automation.State

func (v *statesValue) String() string { return "[" + strings.Join(v.names(), ",") + "]" }
func (*statesValue) Type() string     { return "states" }

func (v *statesValue) Set(s string) error {
	for name := range strings.SplitSeq(s, ",") {
		state := automation.State(strings.TrimSpace(name))
		if !state.Valid() {
			return fmt.Errorf("unknown task state %q", name)
		}
		*v = append(*v, state)
	}

	return nil
}

// names returns the states as stored in the task store.
func (v statesValue) names() []string {
	out := make([]string, 0, len(v))
	for _, s := range v {
		out = append(out, string(s))
	}

	return out
}
