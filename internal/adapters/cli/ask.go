package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dealdesk/diligence-assistant/internal/core/usecase"
)

func newAskCommand(services Services, opts *options) *cobra.Command {
	var (
		chatID      string
		allProjects bool
	)
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from indexed documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := services.Chat.Send(cmd.Context(), usecase.SendRequest{
				OwnerID:     opts.owner,
				ChatID:      chatID,
				ProjectID:   opts.project,
				AllProjects: allProjects,
				Message:     args[0],
			})
			if err != nil {
				return fmt.Errorf("ask failed: %w", err)
			}
			if opts.asJSON {
				return printJSON(cmd, reply)
			}
			cmd.Println(reply.Response)
			cmd.Println()
			cmd.Printf("chat: %s, sources: %d\n", reply.ChatID, len(reply.Sources))
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.project, "project", "", "move the chat to one project id")
	cmd.Flags().BoolVar(&allProjects, "all-projects", false, "move the chat back to retrieval across every project")
	cmd.Flags().StringVar(&chatID, "chat", "", "continue an existing chat")
	return cmd
}
