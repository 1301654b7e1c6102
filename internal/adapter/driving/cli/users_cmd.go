package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	sqliteadapter "github.com/ericfisherdev/surveybridge/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/surveybridge/internal/domain/model"
)

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Reconcile local users with survey-system users",
	}
	cmd.AddCommand(newUsersListCmd(a))
	cmd.AddCommand(newUsersGetCmd(a))
	cmd.AddCommand(newUsersLinkCmd(a))
	cmd.AddCommand(newUsersPutCmd(a))
	return cmd
}

func newUsersListCmd(a *app) *cobra.Command {
	var includeRemote bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List local users merged with their survey-system profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.identityService(cmd.Context())
			if err != nil {
				return err
			}
			users, err := svc.ListUsers(cmd.Context(), includeRemote)
			if err != nil {
				return err
			}

			out := make([]userJSON, 0, len(users))
			for _, u := range users {
				out = append(out, toUserJSON(u))
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&includeRemote, "include-remote", false, "Also list survey-system users with no local match")
	return cmd
}

func newUsersGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <principal>",
		Short: "Show one merged user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.identityService(cmd.Context())
			if err != nil {
				return err
			}
			u, err := svc.GetUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), toUserJSON(u))
		},
	}
}

func newUsersLinkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "link <principal> <survey-user>",
		Short: "Link a local principal to a survey-system username",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.identityService(cmd.Context())
			if err != nil {
				return err
			}
			u, err := svc.LinkUser(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), toUserJSON(u))
		},
	}
}

// newUsersPutCmd writes a local user without contacting the survey system.
func newUsersPutCmd(a *app) *cobra.Command {
	var (
		attrs []string
		roles []string
	)

	cmd := &cobra.Command{
		Use:   "put <principal>",
		Short: "Create or replace a local user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			user := model.User{
				PrincipalID: args[0],
				Attributes:  make(map[string]string, len(attrs)),
				Roles:       roles,
			}
			for _, kv := range attrs {
				k, v, ok := strings.Cut(kv, "=")
				if !ok || k == "" {
					return fmt.Errorf("invalid attribute %q: want key=value", kv)
				}
				user.Attributes[k] = v
			}

			db, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			repo := sqliteadapter.NewUserRepo(db)
			if existing, err := repo.GetUserDetails(cmd.Context(), user.PrincipalID); err != nil {
				return err
			} else if existing != nil {
				user.SurveyPrincipalID = existing.SurveyPrincipalID
			}
			if err := repo.UpdateUserDetails(cmd.Context(), user); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), toUserJSON(user))
		},
	}
	cmd.Flags().StringArrayVar(&attrs, "attr", nil, "Attribute as key=value (repeatable)")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "Role name (repeatable)")
	return cmd
}

func newRolesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage local roles",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List local roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			roles, err := sqliteadapter.NewRoleRepo(db).ListRoles(cmd.Context())
			if err != nil {
				return err
			}

			out := make([]map[string]string, 0, len(roles))
			for _, r := range roles {
				out = append(out, map[string]string{"name": r.Name, "description": r.Description})
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	})
	cmd.AddCommand(newRolesPutCmd(a))
	return cmd
}

func newRolesPutCmd(a *app) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "put <name>",
		Short: "Create or update a local role",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			role := model.Role{Name: args[0], Description: description}
			if err := sqliteadapter.NewRoleRepo(db).UpdateRoleDetails(cmd.Context(), role); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]string{"name": role.Name, "description": role.Description})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Role description")
	return cmd
}
