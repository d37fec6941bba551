package history

import "fmt"

// Command is a reversible edit.
type Command interface {
	// Apply performs (or re-performs) the edit.
	Apply() error

	// Revert undoes the edit. It is only called after a successful Apply.
	Revert() error

	// Description names the edit for history inspection.
	Description() string
}

// FuncCommand builds a command from a pair of closures.
type FuncCommand struct {
	Name   string
	Do     func() error
	UndoFn func() error
}

// Apply implements Command.
func (c *FuncCommand) Apply() error {
	if c.Do == nil {
		return nil
	}
	return c.Do()
}

// Revert implements Command.
func (c *FuncCommand) Revert() error {
	if c.UndoFn == nil {
		return nil
	}
	return c.UndoFn()
}

// Description implements Command.
func (c *FuncCommand) Description() string {
	return c.Name
}

// CompoundCommand groups multiple commands into one undo unit.
type CompoundCommand struct {
	Name     string
	Commands []Command
}

// Apply executes all commands in order. On failure, already-applied
// commands are reverted so the compound is all-or-nothing.
func (c *CompoundCommand) Apply() error {
	for i, cmd := range c.Commands {
		if err := cmd.Apply(); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = c.Commands[j].Revert()
			}
			return fmt.Errorf("compound %q command %d: %w", c.Name, i, err)
		}
	}
	return nil
}

// Revert undoes all commands in reverse order.
func (c *CompoundCommand) Revert() error {
	for i := len(c.Commands) - 1; i >= 0; i-- {
		if err := c.Commands[i].Revert(); err != nil {
			return fmt.Errorf("compound %q revert %d: %w", c.Name, i, err)
		}
	}
	return nil
}

// Description implements Command.
func (c *CompoundCommand) Description() string {
	return c.Name
}
