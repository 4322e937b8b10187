package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/mrhat05/Doubtroom/core/account"
	"github.com/mrhat05/Doubtroom/core/catalog"
	"github.com/mrhat05/Doubtroom/core/user"
)

// verifyWait bounds how long `verify` waits for the session to catch up with the verified email.
var verifyWait = 30 * time.Second

var nextSteps = map[account.Stage]string{
	account.Unauthenticated:           "sign in with `login -email EMAIL`, or create an account with `signup`",
	account.AwaitingEmailVerification: "enter the code sent to your email with `verify -code CODE`",
	account.ProfileIncomplete:         "complete your profile with `profile`",
	account.ProfileComplete:           "browse questions with `questions`",
}

func (cli *commandLine) printStage(s account.Stage) {
	cli.printf("Stage: %s\n", s)
	cli.printf("Next: %s\n", nextSteps[s])
}

func (cli *commandLine) printStatus() {
	s := cli.machine.Stage()
	if s != account.Unauthenticated {
		p := cli.machine.Principal()
		cli.printf("Signed in as %s <%s>\n", p.DisplayName, p.Email)
	}
	if s == account.ProfileComplete {
		cli.printProfile(cli.machine.Profile())
	}
	cli.printStage(s)
}

func (cli *commandLine) printProfile(p user.Profile) {
	role, _ := catalog.Label(catalog.Roles, p.Role)
	branch, ok := catalog.Label(catalog.Branches, p.Branch)
	if !ok {
		branch = p.Branch
	}
	cli.printf("Role: %s\n", role)
	cli.printf("College: %s\n", p.CollegeName)
	cli.printf("Branch: %s\n", branch)
}

func (cli *commandLine) signup(ctx context.Context, name, email string) error {
	pwd, err := cli.promptPassword("Enter password")
	if err != nil {
		return err
	}
	confirm, err := cli.promptPassword("Confirm password")
	if err != nil {
		return err
	}

	_, err = cli.client.Signup(ctx, user.NewUser{
		DisplayName:     name,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: confirm,
	})
	if err != nil {
		return err
	}
	cli.printf("Account created, a verification code was sent to %s.\n", email)
	cli.printStage(account.Unauthenticated)
	return nil
}

func (cli *commandLine) login(ctx context.Context, email string, wait time.Duration) error {
	pwd, err := cli.promptPassword("Enter password")
	if err != nil {
		return err
	}
	stage, err := cli.machine.Login(ctx, email, pwd)
	if err != nil {
		return err
	}
	if stage == account.AwaitingEmailVerification && wait > 0 {
		cli.println("Waiting for the email to be verified...")
		if _, err = cli.waitVerified(ctx, wait); err != nil && !errors.Is(err, errWaitTimeout) {
			return err
		}
	}
	cli.printStatus()
	return nil
}

func (cli *commandLine) resend(ctx context.Context) error {
	if err := cli.machine.ResendVerification(ctx); err != nil {
		return err
	}
	cli.printf("A new verification code was sent to %s.\n", cli.machine.Principal().Email)
	return nil
}

// verify submits the code, then waits for the verification poll to move the session on.
func (cli *commandLine) verify(ctx context.Context, code string) error {
	if cli.machine.Stage() != account.AwaitingEmailVerification {
		return account.ErrInvalidTransition
	}
	if _, err := cli.client.VerifyEmail(ctx, cli.machine.Principal(), code); err != nil {
		return err
	}
	if _, err := cli.waitVerified(ctx, verifyWait); err != nil {
		return err
	}
	cli.printStatus()
	return nil
}

func (cli *commandLine) wait(ctx context.Context, timeout time.Duration) error {
	if cli.machine.Stage() != account.AwaitingEmailVerification {
		return account.ErrInvalidTransition
	}
	if _, err := cli.waitVerified(ctx, timeout); err != nil {
		return err
	}
	cli.printStatus()
	return nil
}

func (cli *commandLine) completeProfile(ctx context.Context, form user.ProfileForm) error {
	if _, err := cli.machine.CompleteProfile(ctx, form); err != nil {
		return err
	}
	cli.println("Profile saved.")
	cli.printStatus()
	return nil
}

func (cli *commandLine) resetPassword(ctx context.Context, email string) error {
	if err := cli.client.RequestPasswordReset(ctx, email); err != nil {
		return err
	}
	cli.printf("If %s has an account, a password reset link is on its way.\n", email)
	return nil
}

func (cli *commandLine) logout(ctx context.Context) error {
	if err := cli.machine.Logout(ctx); err != nil {
		return err
	}
	cli.println("Signed out.")
	return nil
}
