package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/surveybridge/internal/domain/model"
)

func newPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Authenticate against the survey system and count visible surveys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			remote, err := a.surveySystem(cmd.Context())
			if err != nil {
				return err
			}
			surveys, err := remote.ListSurveys(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"status":  "ok",
				"surveys": len(surveys),
			})
		},
	}
}

func newSurveysCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "surveys",
		Short: "Inspect and activate surveys",
	}
	cmd.AddCommand(newSurveysListCmd(a))
	cmd.AddCommand(newSurveysSetActiveCmd(a))
	return cmd
}

func newSurveysListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List surveys with their derived active flag",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			remote, err := a.surveySystem(cmd.Context())
			if err != nil {
				return err
			}
			surveys, err := remote.ListSurveys(cmd.Context())
			if err != nil {
				return err
			}

			out := make([]surveyJSON, 0, len(surveys))
			for _, s := range surveys {
				out = append(out, toSurveyJSON(s))
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newSurveysSetActiveCmd(a *app) *cobra.Command {
	var active bool

	cmd := &cobra.Command{
		Use:   "set-active <survey-id>",
		Short: "Activate or deactivate a survey",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "survey id")
			if err != nil {
				return err
			}
			remote, err := a.surveySystem(cmd.Context())
			if err != nil {
				return err
			}
			if err := remote.UpdateSurveyDetails(cmd.Context(), model.Survey{ID: id, Active: active}); err != nil {
				return fmt.Errorf("updating survey %d: %w", id, err)
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"id":     id,
				"active": active,
			})
		},
	}
	cmd.Flags().BoolVar(&active, "active", true, "Desired state; --active=false deactivates")
	return cmd
}

func newQuestionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "questions <survey-id>",
		Short: "List the questions of a survey",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "survey id")
			if err != nil {
				return err
			}
			remote, err := a.surveySystem(cmd.Context())
			if err != nil {
				return err
			}
			questions, err := remote.ListQuestions(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := make([]questionJSON, 0, len(questions))
			for _, q := range questions {
				out = append(out, questionJSON{
					ID:       q.ID,
					GroupID:  q.GroupID,
					ParentID: q.ParentID,
					Title:    q.Title,
					Text:     q.Text,
					Type:     q.Type,
				})
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newAnswersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "answers <survey-id>",
		Short: "Export the completed responses of a survey",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "survey id")
			if err != nil {
				return err
			}
			remote, err := a.surveySystem(cmd.Context())
			if err != nil {
				return err
			}
			answers, err := remote.ListAnswers(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := make([]answerJSON, 0, len(answers))
			for _, ans := range answers {
				out = append(out, answerJSON{
					ResponseID:  ans.ResponseID,
					Token:       ans.Token,
					SubmittedAt: ans.SubmittedAt,
					Answers:     ans.Answers,
				})
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}
