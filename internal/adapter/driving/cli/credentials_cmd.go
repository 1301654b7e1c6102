package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ericfisherdev/surveybridge/internal/domain/port/driven"
)

func newCredentialsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage encrypted credentials in the local store",
	}
	cmd.AddCommand(newCredentialsSetPasswordCmd(a))
	cmd.AddCommand(newCredentialsListCmd(a))
	cmd.AddCommand(newCredentialsDeleteCmd(a))
	return cmd
}

func newCredentialsSetPasswordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-password",
		Short: "Store the survey-system password, read from the terminal or stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := a.credentials(cmd.Context())
			if err != nil {
				return err
			}
			password, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if password == "" {
				return errors.New("password must not be empty")
			}
			if err := creds.Set(cmd.Context(), driven.CredentialRPCPassword, password); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{
				"service": driven.CredentialRPCPassword,
				"status":  "stored",
			})
		},
	}
}

func newCredentialsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored credential names without their values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			creds, err := a.credentials(cmd.Context())
			if err != nil {
				return err
			}
			list, err := creds.List(cmd.Context())
			if err != nil {
				return err
			}

			out := make([]map[string]string, 0, len(list))
			for _, c := range list {
				out = append(out, map[string]string{
					"service":    c.Service,
					"updated_at": c.UpdatedAt.UTC().Format(time.RFC3339),
				})
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newCredentialsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <service>",
		Short: "Delete a stored credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := a.credentials(cmd.Context())
			if err != nil {
				return err
			}
			if err := creds.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"service": args[0], "status": "deleted"})
		},
	}
}

// readSecret prompts without echo when in is a terminal and otherwise reads one line.
func readSecret(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
