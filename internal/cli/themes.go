package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/markviz/markviz/pkg/style"
)

// themesCommand creates the themes command group.
func (c *CLI) themesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "themes",
		Short: "Inspect the built-in color themes",
	}

	cmd.AddCommand(c.themesListCommand())
	cmd.AddCommand(c.themesShowCommand())
	cmd.AddCommand(c.themesPickCommand())

	return cmd
}

// themesListCommand creates the "themes list" subcommand.
func (c *CLI) themesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available themes with color swatches",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range style.BuiltinNames() {
				t, err := style.Builtin(name)
				if err != nil {
					return err
				}
				marker := " "
				if name == style.DefaultThemeName {
					marker = "*"
				}
				fmt.Printf("%s %-18s %s\n", marker, name, themeSwatch(t))
			}
			printNewline()
			printDetail("* default theme")
			return nil
		},
	}
}

// themesShowCommand creates the "themes show" subcommand.
func (c *CLI) themesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Print the colors of a theme",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := style.Builtin(args[0])
			if err != nil {
				return err
			}
			s := t.Style()

			printKeyValue("background", t.Background)
			printKeyValue("text", t.Text)
			printKeyValue("panel", t.Panel)
			printNewline()
			printDetail("derived palette")
			printKeyValue("node fill", s.NodeFill)
			printKeyValue("node stroke", s.NodeStroke)
			printKeyValue("edge stroke", s.EdgeStroke)
			return nil
		},
	}
}

// themesPickCommand creates the interactive "themes pick" subcommand.
// The selected theme name is printed to stdout so it can be substituted
// into a render invocation.
func (c *CLI) themesPickCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Interactively pick a theme",
		RunE: func(cmd *cobra.Command, args []string) error {
			model := NewThemeListModel(style.BuiltinNames())
			final, err := tea.NewProgram(model).Run()
			if err != nil {
				return err
			}

			result, ok := final.(ThemeListModel)
			if !ok || result.Selected == "" {
				printInfo("No theme selected")
				return nil
			}

			fmt.Println(result.Selected)
			printNextStep("Render with it", "markviz render diagram.mmd --theme "+result.Selected)
			return nil
		},
	}
}
