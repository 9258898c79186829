package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newProjectsCommand(services Services, opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage the owner's projects",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List projects, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projects, err := services.Projects.ListProjects(cmd.Context(), opts.owner)
			if err != nil {
				return fmt.Errorf("list failed: %w", err)
			}
			if opts.asJSON {
				return printJSON(cmd, projects)
			}
			if len(projects) == 0 {
				cmd.Println("No projects.")
				return nil
			}
			for _, p := range projects {
				cmd.Printf("%s\t%s\t%s\n", p.ID, p.Type, p.Name)
			}
			return nil
		},
	}

	var description, projectType string
	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := services.Projects.CreateProject(cmd.Context(), opts.owner, args[0], description, projectType)
			if err != nil {
				return fmt.Errorf("create failed: %w", err)
			}
			if opts.asJSON {
				return printJSON(cmd, project)
			}
			cmd.Printf("created %s\t%s\n", project.ID, project.Name)
			return nil
		},
	}
	createCmd.Flags().StringVar(&description, "description", "", "project description")
	createCmd.Flags().StringVar(&projectType, "type", "", "project type (default portfolio_company)")

	var confirm bool
	deleteCmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project with its documents, chunks and chats",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to delete a project without --yes")
			}
			if err := services.Projects.DeleteProject(cmd.Context(), opts.owner, args[0]); err != nil {
				return fmt.Errorf("delete failed: %w", err)
			}
			cmd.Printf("deleted project %s\n", args[0])
			return nil
		},
	}
	deleteCmd.Flags().BoolVar(&confirm, "yes", false, "confirm deletion")

	cmd.AddCommand(listCmd, createCmd, deleteCmd)
	return cmd
}
