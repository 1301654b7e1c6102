package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	sqliteadapter "github.com/ericfisherdev/surveybridge/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/surveybridge/internal/domain/model"
)

func newEntitiesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Manage assessed entities",
	}
	cmd.AddCommand(newEntitiesListCmd(a))
	cmd.AddCommand(newEntitiesCreateCmd(a))
	return cmd
}

func newEntitiesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List entities with their assessors and surveys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			entities, err := sqliteadapter.NewEntityRepo(db).ListEntities(cmd.Context())
			if err != nil {
				return err
			}

			out := make([]entityJSON, 0, len(entities))
			for _, e := range entities {
				out = append(out, toEntityJSON(e))
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newEntitiesCreateCmd(a *app) *cobra.Command {
	var (
		name        string
		description string
		creator     string
		surveyIDs   []int64
		assessors   []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an entity",
		Example: `  surveybridge entities create --name "Team A" --survey 101 --survey 102 \
    --assessor email:lead@example.com --assessor email:peer@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entity := model.Entity{
				Name:        name,
				Description: description,
				Creator:     creator,
				SurveyIDs:   surveyIDs,
			}
			for _, arg := range assessors {
				assessor, err := parseAssessor(arg)
				if err != nil {
					return err
				}
				entity.Assessors = append(entity.Assessors, assessor)
			}

			db, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			created, err := sqliteadapter.NewEntityRepo(db).CreateEntity(cmd.Context(), entity)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), toEntityJSON(created))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Entity name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Entity description")
	cmd.Flags().StringVar(&creator, "creator", "", "Local principal creating the entity")
	cmd.Flags().Int64SliceVar(&surveyIDs, "survey", nil, "Survey id scheduled for the entity (repeatable)")
	cmd.Flags().StringArrayVar(&assessors, "assessor", nil, "Assessor as type:value, e.g. email:a@example.com (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// parseAssessor reads "type:value". The type is lower-cased; the value is kept verbatim.
func parseAssessor(arg string) (model.Assessor, error) {
	typ, value, ok := strings.Cut(arg, ":")
	typ = strings.ToLower(strings.TrimSpace(typ))
	if !ok || typ == "" || value == "" {
		return model.Assessor{}, fmt.Errorf("invalid assessor %q: want type:value", arg)
	}
	return model.Assessor{Type: model.AssessorType(typ), Value: value}, nil
}
