package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"taskQuest/internal/ai"
	"taskQuest/internal/gamification"

	"github.com/spf13/cobra"
)

// parseCmd прогоняет сырой ответ модели через разборщик и печатает черновики задач
func parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file]",
		Short: "Разобрать ответ модели из файла или stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("открытие файла: %w", err)
				}
				defer f.Close()
				in = f
			}

			raw, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("чтение ввода: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(ai.ParseTasks(string(raw)))
		},
	}
}

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Показать встроенный каталог достижений",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := gamification.DefaultCatalog()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tНАЗВАНИЕ\tУСЛОВИЕ\tXP")
			for _, a := range catalog {
				fmt.Fprintf(w, "%s\t%s %s\t%s >= %d\t%d\n",
					a.ID, a.Icon, a.Name, a.Requirement.Type, a.Requirement.Value, a.XPReward)
			}
			return w.Flush()
		},
	}
}
