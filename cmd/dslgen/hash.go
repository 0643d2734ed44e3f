package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dslgen/internal/model"
	"dslgen/internal/sighash"
	"dslgen/internal/types"
)

var hashCmd = &cobra.Command{
	Use:   "hash <decls.yaml> <pkg.function|pkg.Class.function>...",
	Short: "Print the structural identifier of functions",
	Long: `Prints the identifier generated DSLs are memoized by, together with the
canonical signature it is hashed from. Functions with the same shape get
the same identifier regardless of type parameter names and aliases.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := model.LoadFiles(args[0])
		if err != nil {
			return err
		}
		showSig, _ := cmd.Flags().GetBool("signature")
		for _, name := range args[1:] {
			fns, err := findFunctions(res.Universe, name)
			if err != nil {
				return err
			}
			for _, fn := range fns {
				id, sig := sighash.Function(res.Universe, fn)
				if showSig {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", id, fn.Describe(), sig)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", id, fn.Describe())
				}
			}
		}
		return nil
	},
}

func init() {
	hashCmd.Flags().Bool("signature", false, "also print the canonical signature")
}

// findFunctions resolves pkg.fn to top-level overloads, falling back to
// pkg.Class.fn for members and constructors.
func findFunctions(u *types.Universe, qualified string) ([]*types.Func, error) {
	i := strings.LastIndexByte(qualified, '.')
	if i <= 0 || i == len(qualified)-1 {
		return nil, fmt.Errorf("function %q must be package-qualified", qualified)
	}
	owner, name := qualified[:i], qualified[i+1:]
	if fns := u.FindFunctions(types.Scope{Package: owner}, name); len(fns) > 0 {
		return fns, nil
	}
	if c, ok := u.ClassByName(owner); ok {
		if name == "constructor" {
			name = types.ConstructorName
		}
		if fns := u.FindFunctions(types.Scope{Class: c}, name); len(fns) > 0 {
			return fns, nil
		}
	}
	if c, ok := u.ClassByName(qualified); ok && len(c.Constructors) > 0 {
		return c.Constructors, nil
	}
	return nil, fmt.Errorf("no function %s", qualified)
}
