package cmdutil

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// StringEnumFlag defines a new string flag that only accepts the listed
// options, with shell completion for them.
func StringEnumFlag(cmd *cobra.Command, p *string, name, shorthand, defaultValue string, options []string, usage string) *pflag.Flag {
	*p = defaultValue
	val := &enumValue{target: p, options: options}
	f := cmd.Flags().VarPF(val, name, shorthand,
		fmt.Sprintf("%s: {%s}", usage, strings.Join(options, "|")))
	_ = cmd.RegisterFlagCompletionFunc(name, func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return options, cobra.ShellCompDirectiveNoFileComp
	})
	return f
}

type enumValue struct {
	target  *string
	options []string
}

func (v *enumValue) String() string { return *v.target }

func (v *enumValue) Set(s string) error {
	for _, opt := range v.options {
		if s == opt {
			*v.target = s
			return nil
		}
	}
	return fmt.Errorf("valid values are {%s}", strings.Join(v.options, "|"))
}

func (v *enumValue) Type() string { return "string" }
