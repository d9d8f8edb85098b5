package core

import "errors"

// CommandHandler handles one console command.
// arg is the text after the keyword and its separating space, possibly empty.
type CommandHandler func(arg string)

// Command represents a console command
type Command struct {
	Name    string
	Usage   string // Help text shown by "help"
	Handler CommandHandler
}

// Match is the result of a successful keyword lookup
type Match struct {
	Command *Command
	Arg     string
	ArgLen  int
}

var ErrDuplicateCommand = errors.New("duplicate command")

// CommandRegistry holds the console commands in registration order.
// Registration order is part of the lookup contract: the first keyword
// that matches a line wins.
type CommandRegistry struct {
	commands []*Command
}

// NewCommandRegistry creates an empty registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{}
}

// Register appends a command. Re-registering a keyword is rejected.
func (r *CommandRegistry) Register(name, usage string, handler CommandHandler) error {
	if name == "" || handler == nil {
		return errors.New("command needs a name and a handler")
	}
	for _, c := range r.commands {
		if c.Name == name {
			return ErrDuplicateCommand
		}
	}
	r.commands = append(r.commands, &Command{Name: name, Usage: usage, Handler: handler})
	return nil
}

// Commands returns the commands in registration order
func (r *CommandRegistry) Commands() []*Command {
	return r.commands
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	return len(r.commands)
}

// Lookup finds the first command whose keyword matches line.
// A keyword matches when the line starts with it and either ends there
// or continues with a single space; the rest is the argument.
func (r *CommandRegistry) Lookup(line string) (Match, bool) {
	if len(line) == 0 {
		return Match{}, false
	}
	for _, c := range r.commands {
		n := len(c.Name)
		if len(line) < n || line[:n] != c.Name {
			continue
		}
		if len(line) == n {
			return Match{Command: c}, true
		}
		if line[n] == ' ' {
			arg := line[n+1:]
			return Match{Command: c, Arg: arg, ArgLen: len(arg)}, true
		}
	}
	return Match{}, false
}

// Dispatch runs the handler for line.
// handled is false for an empty line or when no keyword matches.
func (r *CommandRegistry) Dispatch(line string) (handled bool) {
	m, ok := r.Lookup(line)
	if !ok {
		return false
	}
	m.Command.Handler(m.Arg)
	return true
}
