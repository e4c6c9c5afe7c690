package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/reshetovitsme/telegram-keyword-monitor/internal/di"
	authDomain "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/auth/domain"
	authRepo "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/auth/repository"
	authService "github.com/reshetovitsme/telegram-keyword-monitor/internal/modules/auth/service"
	sharedErrors "github.com/reshetovitsme/telegram-keyword-monitor/internal/shared/errors"
	"github.com/reshetovitsme/telegram-keyword-monitor/internal/transport/mtproto"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const maxLoginAttempts = 3

func newLoginCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log the account in from the terminal and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), opts, cmd.InOrStdin(), cmd.ErrOrStderr())
		},
	}
}

// consoleOperator prints operator prompts to the terminal.
type consoleOperator struct {
	out io.Writer
}

func (c consoleOperator) Operator(_ context.Context, text string) error {
	_, err := fmt.Fprintln(c.out, text)
	return err
}

func runLogin(ctx context.Context, opts *rootOptions, in io.Reader, out io.Writer) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	if err := cfg.ValidateAccount(); err != nil {
		return err
	}
	if cfg.PhoneNumber == "" {
		return sharedErrors.ErrMissingPhoneNumber
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	injector, err := di.Setup(cfg, logger)
	if err != nil {
		return err
	}
	repo, err := do.Invoke[authRepo.Repository](injector)
	if err != nil {
		return err
	}
	defer repo.Close(context.WithoutCancel(ctx))

	client, err := do.Invoke[*mtproto.Client](injector)
	if err != nil {
		return err
	}

	machine := authService.New(client, repo, consoleOperator{out: out}, authService.Options{
		Phone:    cfg.PhoneNumber,
		Code:     cfg.PhoneCode,
		Password: cfg.TwoFactorPassword,
	}, logger)

	console := newConsole(in, out)
	return client.Run(ctx, func(ctx context.Context) error {
		return interactiveLogin(ctx, machine, console)
	})
}

func interactiveLogin(ctx context.Context, machine *authService.Machine, c *console) error {
	state, err := machine.Authenticate(ctx)

	failures := 0
	for {
		retryable := state == authDomain.StateCodeRequested || state == authDomain.StateTwoFactorRequired
		if retryable && err != nil && !errors.Is(err, authDomain.ErrPasswordRequired) {
			fmt.Fprintln(c.out, err)
			if failures++; failures >= maxLoginAttempts {
				return oops.With("state", state).Wrapf(err, "giving up after %d attempts", maxLoginAttempts)
			}
		}

		switch state {
		case authDomain.StateAuthenticated:
			if account := machine.Account(); account != nil {
				fmt.Fprintf(c.out, "Logged in as %s. The session was saved.\n", account.DisplayName())
			}
			return nil

		case authDomain.StateCodeRequested:
			code, rerr := c.prompt("Login code: ")
			if rerr != nil {
				return rerr
			}
			state, err = machine.SubmitCode(ctx, code)

		case authDomain.StateTwoFactorRequired:
			password, rerr := c.secret("Two-factor password: ")
			if rerr != nil {
				return rerr
			}
			state, err = machine.SubmitPassword(ctx, password)

		default:
			if err == nil {
				err = oops.Errorf("login stopped in state %s", state)
			}
			return err
		}
	}
}

type console struct {
	in  *bufio.Reader
	out io.Writer
	// fd is the terminal to read secrets from without echo, or -1.
	fd int
}

func newConsole(in io.Reader, out io.Writer) *console {
	fd := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &console{in: bufio.NewReader(in), out: out, fd: fd}
}

func (c *console) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", oops.Wrapf(err, "reading input")
	}
	return strings.TrimSpace(line), nil
}

func (c *console) secret(label string) (string, error) {
	if c.fd < 0 {
		return c.prompt(label)
	}

	fmt.Fprint(c.out, label)
	password, err := term.ReadPassword(c.fd)
	fmt.Fprintln(c.out)
	if err != nil {
		return "", oops.Wrapf(err, "reading password")
	}
	return strings.TrimSpace(string(password)), nil
}
