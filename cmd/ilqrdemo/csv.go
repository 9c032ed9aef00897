package main

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
)

// writeTrace emits the collaborator-defined, informational CSV format:
// t, branch, x0..x_{n-1}, u0..u_{m-1}. No format is mandated by the
// solver itself; this exists purely for demo inspection.
func writeTrace(path string, branch int, states, controls []*mat.VecDense) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for t := 0; t < len(states); t++ {
		fmt.Fprintf(f, "%d,%d", t, branch)
		x := states[t]
		for i := 0; i < x.Len(); i++ {
			fmt.Fprintf(f, ",%g", x.AtVec(i))
		}
		if t < len(controls) {
			u := controls[t]
			for i := 0; i < u.Len(); i++ {
				fmt.Fprintf(f, ",%g", u.AtVec(i))
			}
		}
		fmt.Fprintln(f)
	}
	return nil
}
