package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/koscakluka/vocablive/internal/watch"
	"github.com/spf13/cobra"
)

func newWatchCommand() *cobra.Command {
	var targetWords []string

	cmd := &cobra.Command{
		Use:   "watch <room-url>",
		Short: "Follow a practice room in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := watch.NewClient(args[0], nil)
			model := watch.New(client, targetWords)

			_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
	cmd.Flags().StringSliceVarP(&targetWords, "words", "w", nil, "target words to list up front")
	return cmd
}
