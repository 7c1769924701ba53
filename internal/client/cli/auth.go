package cli

import (
	"context"
	"fmt"
)

// Register prompts for email, password and name and creates the account.
// It does not log in.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	u, err := a.api.Register(ctx, email, password, name)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s, you can login now\n", u.Email)
	return nil
}

// Login prompts for credentials, obtains a token pair and remembers the
// account email for the prompt.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	if err := a.api.Login(ctx, email, password); err != nil {
		return err
	}
	u, err := a.api.Me(ctx)
	if err != nil {
		a.api.Logout()
		return err
	}

	a.email = u.Email
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

// Logout drops the tokens held by the client.
func (a *App) Logout(_ context.Context) error {
	a.api.Logout()
	a.email = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
