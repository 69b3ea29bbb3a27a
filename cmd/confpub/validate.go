package main

import "fmt"

// Run executes the validate command.
func (c *ValidateCmd) Run(deps *Dependencies) error {
	if err := deps.Publisher.Validate(c.HTMLContent); err != nil {
		return err
	}
	fmt.Fprintln(deps.Stdout, "HTML is valid")
	return nil
}
