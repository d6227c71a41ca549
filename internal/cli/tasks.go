package cli

import (
	"fmt"
	"scheduleBoard/internal/interaction"
	"scheduleBoard/internal/models/task"
	"scheduleBoard/internal/session"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Задачи расписания",
	}

	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksEditCmd(app))
	cmd.AddCommand(newTasksMoveCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	var channel string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Задачи в порядке доски: канал, номер сценария, начало",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context())
			if err != nil {
				return err
			}
			s.SetChannelFilter(channel)

			tasks := s.VisibleTasks()
			if app.JSON {
				return writeJSON(cmd, tasks)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tVERSION\tCHANNEL\tSCRIPT\tTYPE\tNAME\tSTATUS\tASSIGNEE\tSTART\tEND")
			for _, t := range tasks {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					t.ID, t.Version, t.Channel, t.ScriptNo, t.TaskType, t.TaskName, t.Status, t.Assignee, t.StartDate, t.EndDate)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&channel, "channel", session.ChannelAll, "канал или ALL")
	return cmd
}

type draftFlags struct {
	status, channel, assignee, scriptNo, taskType, taskName, start, end string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.status, "status", "", "статус")
	cmd.Flags().StringVar(&f.channel, "channel", "", "канал")
	cmd.Flags().StringVar(&f.assignee, "assignee", "", "исполнитель")
	cmd.Flags().StringVar(&f.scriptNo, "script", "", "номер сценария")
	cmd.Flags().StringVar(&f.taskType, "type", "", "тип задачи")
	cmd.Flags().StringVar(&f.taskName, "name", "", "название")
	cmd.Flags().StringVar(&f.start, "start", "", "дата начала YYYY-MM-DD")
	cmd.Flags().StringVar(&f.end, "end", "", "дата окончания YYYY-MM-DD")
}

// options - только явно заданные флаги
func (f *draftFlags) options(cmd *cobra.Command) []task.TaskOption {
	opts := []task.TaskOption{}
	set := func(name, value string, opt func(string) task.TaskOption) {
		if cmd.Flags().Changed(name) {
			opts = append(opts, opt(value))
		}
	}
	set("status", f.status, task.WithStatus)
	set("channel", f.channel, task.WithChannel)
	set("assignee", f.assignee, task.WithAssignee)
	set("script", f.scriptNo, task.WithScriptNo)
	set("type", f.taskType, task.WithTaskType)
	set("name", f.taskName, task.WithTaskName)

	if cmd.Flags().Changed("start") || cmd.Flags().Changed("end") {
		start, end := f.start, f.end
		if start == "" {
			start = end
		}
		if end == "" {
			end = start
		}
		opts = append(opts, task.WithDates(start, end))
	}
	return opts
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var flags draftFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Новая задача; незаданные поля заполняются как в форме",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context())
			if err != nil {
				return err
			}

			created, err := s.Create(cmd.Context(), s.NewDraft(flags.options(cmd)...))
			if err != nil {
				return err
			}
			return app.printTask(cmd, created)
		},
	}

	flags.register(cmd)
	return cmd
}

func newTasksEditCmd(app *App) *cobra.Command {
	var flags draftFlags

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Изменить поля задачи",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context())
			if err != nil {
				return err
			}

			draft, version, ok := s.EditDraft(args[0])
			if !ok {
				return fmt.Errorf("задача %s не найдена", args[0])
			}

			updated, err := s.Update(cmd.Context(), args[0], version, draft.Apply(flags.options(cmd)...))
			if err != nil {
				return err
			}
			return app.printTask(cmd, updated)
		},
	}

	flags.register(cmd)
	return cmd
}

func newTasksMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <start> [end]",
		Short: "Перенести задачу на другие даты; без end задача становится однодневной",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context())
			if err != nil {
				return err
			}

			intent := interaction.MoveIntent{TaskID: args[0], StartDate: args[1], EndDate: args[1]}
			if len(args) == 3 {
				intent.EndDate = args[2]
			}

			if err := s.MoveTask(cmd.Context(), intent); err != nil {
				return err
			}

			moved, ok := s.Task(intent.TaskID)
			if !ok {
				return nil
			}
			return app.printTask(cmd, moved)
		},
	}
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Удалить задачу",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "удалена", args[0])
			return nil
		},
	}
}

func (app *App) printTask(cmd *cobra.Command, t task.Task) error {
	if app.JSON {
		return writeJSON(cmd, t)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s v%d %s/%s %s %s..%s\n",
		t.ID, t.Version, t.Channel, t.ScriptNo, t.TaskName, t.StartDate, t.EndDate)
	return nil
}
