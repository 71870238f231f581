package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Varda003/EmoTune/internal/auth"
	"github.com/Varda003/EmoTune/internal/repositories"
	"github.com/urfave/cli/v3"
)

// UserCreate registers an account. The session issued by registration is discarded.
func (r *Runner) UserCreate(ctx context.Context, cmd *cli.Command) error {
	a, err := r.services(ctx)
	if err != nil {
		return err
	}

	session, err := a.accounts.Register(ctx, auth.RegisterInput{
		Name:            cmd.String("name"),
		Email:           cmd.String("email"),
		Password:        cmd.String("password"),
		PreferredGenres: cmd.StringSlice("genre"),
	})
	if err != nil {
		return err
	}
	if err := a.tokens.Revoke(ctx, session.Token.JTI); err != nil {
		r.logger.Warn("failed to revoke registration session", "error", err)
	}

	r.writePlain("✓ Created %s <%s>\n", session.User.Name, session.User.Email)
	r.writePlain("  id: %s\n", session.User.ID)
	return nil
}

// UserList prints accounts in creation order.
func (r *Runner) UserList(ctx context.Context, cmd *cli.Command) error {
	a, err := r.services(ctx)
	if err != nil {
		return err
	}

	users, err := repositories.NewUserRepository(a.db).List(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(users, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Accounts (%d)", len(users)))
	for _, u := range users {
		r.writePlain("%s  %-24s %s\n", u.CreatedAt.Local().Format("2006-01-02"), u.Name, u.Email)
	}
	return nil
}

// UserSessions prints the token records of an account, newest first.
func (r *Runner) UserSessions(ctx context.Context, cmd *cli.Command) error {
	a, err := r.services(ctx)
	if err != nil {
		return err
	}
	user, err := r.lookupUser(ctx, a, cmd.String("user"))
	if err != nil {
		return err
	}

	sessions, err := a.tokens.Sessions(ctx, user.ID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(sessions, cmd.Bool("pretty"))
	}

	now := time.Now()
	r.writePlainHeader(fmt.Sprintf("Sessions of %s (%d)", user.Email, len(sessions)))
	for _, s := range sessions {
		state := "active"
		switch {
		case s.Revoked:
			state = "revoked"
		case !s.Active(now):
			state = "expired"
		}
		r.writePlain("%s  %-8s expires %s\n", s.JTI, state, s.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// UserRevokeSessions signs an account out everywhere.
func (r *Runner) UserRevokeSessions(ctx context.Context, cmd *cli.Command) error {
	a, err := r.services(ctx)
	if err != nil {
		return err
	}
	user, err := r.lookupUser(ctx, a, cmd.String("user"))
	if err != nil {
		return err
	}

	n, err := a.tokens.RevokeAllForUser(ctx, user.ID)
	if err != nil {
		return err
	}

	r.writePlain("✓ Revoked %d session(s) of %s\n", n, user.Email)
	return nil
}

// UserRequestReset issues a reset code through the configured mailer.
func (r *Runner) UserRequestReset(ctx context.Context, cmd *cli.Command) error {
	a, err := r.services(ctx)
	if err != nil {
		return err
	}

	email := cmd.String("user")
	if err := a.resets.RequestReset(ctx, email); err != nil {
		return err
	}

	r.writePlain("✓ If %s has an account, a reset code is on its way\n", email)
	return nil
}

// UserResetState prints where an account is in the password reset flow.
func (r *Runner) UserResetState(ctx context.Context, cmd *cli.Command) error {
	a, err := r.services(ctx)
	if err != nil {
		return err
	}

	email := cmd.String("user")
	state, err := a.resets.State(ctx, email)
	if err != nil {
		return err
	}

	r.writePlain("%s: %s\n", email, state)
	return nil
}
