package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/mrhat05/Doubtroom/core/account"
	"github.com/mrhat05/Doubtroom/core/user"
	"github.com/mrhat05/Doubtroom/services/authclient"
)

var readPasswordFunc = term.ReadPassword // mockable

type commandLine struct {
	client  *authclient.Client
	machine *account.Machine
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	cli.println("Usage:")
	cli.println("  status - show who is signed in and what is left to do")
	cli.println("  signup -name NAME -email EMAIL - create an account")
	cli.println("  login -email EMAIL [-wait DURATION] - sign in, optionally waiting for the email to be verified")
	cli.println("  resend - send a new email verification code")
	cli.println("  verify -code CODE - verify the email with the code it received")
	cli.println("  wait [-timeout DURATION] - wait until the email is verified elsewhere")
	cli.println("  profile -role ROLE -college COLLEGE -branch BRANCH [...] - complete or edit the profile")
	cli.println("  questions [-branch BRANCH] - list questions, from the profile's branch by default")
	cli.println("  catalog - list roles, genders, study types, branches and colleges")
	cli.println("  password-reset -email EMAIL - email a password reset link")
	cli.println("  logout - sign out")
}

func (cli *commandLine) println(a ...interface{}) {
	_, _ = fmt.Fprintln(cli.out, a...)
}

func (cli *commandLine) printf(format string, a ...interface{}) {
	_, _ = fmt.Fprintf(cli.out, format, a...)
}

// promptPassword reads a password from the terminal without echoing it.
func (cli *commandLine) promptPassword(label string) (string, error) {
	cli.printf("%s:", label)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cli.println()
	return string(pwd), err
}

// restore resumes the persisted session and lets the client call the API as its user.
func (cli *commandLine) restore(ctx context.Context) error {
	if _, err := cli.machine.Restore(ctx); err != nil {
		return err
	}
	cli.client.SetToken(cli.machine.Principal().Token)
	return nil
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	if err := cli.restore(ctx); err != nil {
		return err
	}

	signupCmd := flag.NewFlagSet("signup", flag.ContinueOnError)
	signupName := signupCmd.String("name", "", "Your display name.")
	signupEmail := signupCmd.String("email", "", "Your email. The password will be prompted next.")

	loginCmd := flag.NewFlagSet("login", flag.ContinueOnError)
	loginEmail := loginCmd.String("email", "", "Your email. The password will be prompted next.")
	loginWait := loginCmd.Duration("wait", 0, "How long to wait for the email to be verified.")

	verifyCmd := flag.NewFlagSet("verify", flag.ContinueOnError)
	verifyCode := verifyCmd.String("code", "", "The code sent to your email.")

	waitCmd := flag.NewFlagSet("wait", flag.ContinueOnError)
	waitTimeout := waitCmd.Duration("timeout", 0, "Give up after this long (0 waits until interrupted).")

	profileCmd := flag.NewFlagSet("profile", flag.ContinueOnError)
	var form user.ProfileForm
	profileCmd.StringVar(&form.DisplayName, "name", "", "Display name.")
	profileCmd.StringVar(&form.Role, "role", "", "student or faculty.")
	profileCmd.StringVar(&form.CollegeName, "college", "", "College key, see catalog, or custom.")
	profileCmd.StringVar(&form.OtherCollege, "other-college", "", "College name when -college is custom.")
	profileCmd.StringVar(&form.Branch, "branch", "", "Branch key, see catalog, or custom.")
	profileCmd.StringVar(&form.OtherBranch, "other-branch", "", "Branch name when -branch is custom.")
	profileCmd.StringVar(&form.StudyType, "study", "", "Study type (students only).")
	profileCmd.StringVar(&form.Phone, "phone", "", "10 digit phone number.")
	profileCmd.StringVar(&form.Gender, "gender", "", "Gender.")
	profileCmd.StringVar(&form.DOB, "dob", "", "Date of birth, YYYY-MM-DD.")

	questionsCmd := flag.NewFlagSet("questions", flag.ContinueOnError)
	questionsBranch := questionsCmd.String("branch", "", "Branch key.")

	resetCmd := flag.NewFlagSet("password-reset", flag.ContinueOnError)
	resetEmail := resetCmd.String("email", "", "Your email.")

	for _, fs := range []*flag.FlagSet{signupCmd, loginCmd, verifyCmd, waitCmd, profileCmd, questionsCmd, resetCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "status":
		cli.printStatus()
		return nil
	case "signup":
		if err := signupCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *signupName == "" || *signupEmail == "" {
			signupCmd.Usage()
			return errHelp
		}
		return cli.signup(ctx, *signupName, *signupEmail)
	case "login":
		if err := loginCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *loginEmail == "" {
			loginCmd.Usage()
			return errHelp
		}
		return cli.login(ctx, *loginEmail, *loginWait)
	case "resend":
		return cli.resend(ctx)
	case "verify":
		if err := verifyCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *verifyCode == "" {
			verifyCmd.Usage()
			return errHelp
		}
		return cli.verify(ctx, *verifyCode)
	case "wait":
		if err := waitCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.wait(ctx, *waitTimeout)
	case "profile":
		if err := profileCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.completeProfile(ctx, form)
	case "questions":
		if err := questionsCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.listQuestions(ctx, *questionsBranch)
	case "catalog":
		return cli.printCatalog(ctx)
	case "password-reset":
		if err := resetCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetEmail == "" {
			resetCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(ctx, *resetEmail)
	case "logout":
		return cli.logout(ctx)
	default:
		cli.printUsage()
		return errHelp
	}
}

// waitVerified blocks until the machine leaves AwaitingEmailVerification.
// A zero timeout waits until ctx is done.
func (cli *commandLine) waitVerified(ctx context.Context, timeout time.Duration) (account.Stage, error) {
	changes := cli.machine.Subscribe()
	if s := cli.machine.Stage(); s != account.AwaitingEmailVerification {
		return s, nil
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}
	for {
		select {
		case s, ok := <-changes:
			if !ok {
				return cli.machine.Stage(), nil
			}
			if s != account.AwaitingEmailVerification {
				return s, nil
			}
		case <-expired:
			return account.AwaitingEmailVerification, errWaitTimeout
		case <-ctx.Done():
			return cli.machine.Stage(), ctx.Err()
		}
	}
}
