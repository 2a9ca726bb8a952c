package cli

import (
	"context"
	"fmt"
	"os"
)

// Tell prompts for a story idea and sends it to the story backend using the
// current session.
func (a *App) Tell(ctx context.Context) error {
	sess := a.currentSession()
	if !sess.Valid() {
		printlnFn("You need to sign in first.")
		return nil
	}

	prompt, err := GetMultiline(a.reader, "What should the story be about?", os.Stdout)
	if err != nil {
		return err
	}
	if prompt == "" {
		printlnFn("Nothing to tell.")
		return nil
	}

	text, err := a.story.Generate(ctx, sess, prompt)
	if err != nil {
		printlnFn("Error: " + err.Error())
		return err
	}

	printlnFn("")
	printlnFn(text)
	printlnFn("")
	return nil
}

// WhoAmI prints the signed-in account and session expiry.
func (a *App) WhoAmI(ctx context.Context) error {
	sess := a.currentSession()
	if !sess.Valid() {
		printlnFn("Not signed in.")
		return nil
	}

	name := sess.Username()
	if name == "" {
		name = "(unknown)"
	}
	if sess.ExpiresAt.IsZero() {
		printlnFn("Signed in as " + name)
	} else {
		printlnFn(fmt.Sprintf("Signed in as %s (session expires %s)", name, sess.ExpiresAt.Format("15:04:05")))
	}
	return nil
}
