package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App implements
// it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Add(ctx context.Context) error
	Delete(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Tags(ctx context.Context, args []string) error
	Ingredients(ctx context.Context, args []string) error
}

const (
	helpAnonymous = "Available commands: register, login, help, exit"
	helpLoggedIn  = "Available commands: (l)ist [tags=1,2] [ingredients=3], show <id>, add, delete <id>, " +
		"upload <id> <path>, tags [assigned], ingredients [assigned], logout, help, exit"
)

// runREPL reads commands from reader until EOF, "exit" or "quit".
//
// Commands other than register, login, help and exit need a logged-in
// session. Errors returned by handlers are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("rb%s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpAnonymous)
			}
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "logout", "l", "list", "show", "add", "delete", "upload", "tags", "ingredients":
			if !a.isLoggedIn() {
				printlnFn("Please login first")
				continue
			}
			cmdErr = dispatch(ctx, a, cmd, args)
		default:
			printlnFn("Unknown command:", cmd)
			continue
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "logout":
		return a.Logout(ctx)
	case "l", "list":
		return a.List(ctx, args)
	case "show":
		return a.Show(ctx, args)
	case "add":
		return a.Add(ctx)
	case "delete":
		return a.Delete(ctx, args)
	case "upload":
		return a.Upload(ctx, args)
	case "tags":
		return a.Tags(ctx, args)
	case "ingredients":
		return a.Ingredients(ctx, args)
	}
	return fmt.Errorf("unknown command %q", cmd)
}
