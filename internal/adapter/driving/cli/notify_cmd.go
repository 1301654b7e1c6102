package cli

import (
	"github.com/spf13/cobra"

	sqliteadapter "github.com/ericfisherdev/surveybridge/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/surveybridge/internal/application"
)

func newNotifyCmd(a *app) *cobra.Command {
	var (
		entityIDs []int64
		principal string
	)

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Mint and store a survey token for every email assessor",
		Long: `Mint one token per (survey, assessor) pair of each entity and store it.
Without --entity every entity in the local store is processed. Warnings for
entities without surveys or assessors do not fail the command; a failure to
mint or store any token aborts the batch with a non-zero exit code.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.notifyService(cmd.Context())
			if err != nil {
				return err
			}

			var result application.NotifyResult
			if len(entityIDs) == 0 {
				result, err = svc.NotifyAll(cmd.Context(), principal)
			} else {
				result, err = svc.NotifyByID(cmd.Context(), entityIDs, principal)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), toNotifyJSON(result))
		},
	}
	cmd.Flags().Int64SliceVar(&entityIDs, "entity", nil, "Entity id to notify (repeatable); default all")
	cmd.Flags().StringVar(&principal, "principal", "", "Local principal recorded as the token issuer (required)")
	_ = cmd.MarkFlagRequired("principal")
	return cmd
}

func newTokensCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Inspect issued survey tokens",
	}
	cmd.AddCommand(newTokensListCmd(a))
	cmd.AddCommand(newTokensRefreshCmd(a))
	return cmd
}

func newTokensListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <entity-id>",
		Short: "List the stored tokens of an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "entity id")
			if err != nil {
				return err
			}
			db, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			tokens, err := sqliteadapter.NewTokenRepo(db).ListTokensByEntity(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := make([]tokenJSON, 0, len(tokens))
			for _, t := range tokens {
				out = append(out, toTokenJSON(t))
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newTokensRefreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <entity-id>",
		Short: "Update token valid/completed flags from the survey participant tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "entity id")
			if err != nil {
				return err
			}
			svc, err := a.tokenService(cmd.Context())
			if err != nil {
				return err
			}
			result, err := svc.Refresh(cmd.Context(), id)
			if err != nil {
				return err
			}

			tokens := make([]tokenJSON, 0, len(result.Tokens))
			for _, t := range result.Tokens {
				tokens = append(tokens, toTokenJSON(t))
			}
			skipped := result.Skipped
			if skipped == nil {
				skipped = []int64{}
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"tokens":          tokens,
				"updated":         result.Updated,
				"skipped_surveys": skipped,
			})
		},
	}
}
