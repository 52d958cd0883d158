package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/nerrad567/sqlite-integrated/database"
	"github.com/nerrad567/sqlite-integrated/internal/api"
)

func newOverviewCmd(opts *options) *cobra.Command {
	var more bool

	cmd := &cobra.Command{
		Use:   "overview",
		Short: "List tables and their columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, opts, func(s *session) error {
				return s.db.Overview(cmd.Context(), cmd.OutOrStdout(), more)
			})
		},
	}

	cmd.Flags().BoolVar(&more, "more", false, "include row counts and column details")
	return cmd
}

func newTableCmd(opts *options) *cobra.Command {
	var (
		maxLen int
		only   []string
	)

	cmd := &cobra.Command{
		Use:   "table NAME",
		Short: "Print the rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(s *session) error {
				n := s.cfg.Overview.MaxLen
				if cmd.Flags().Changed("max-len") {
					n = maxLen
				}
				return s.db.TableOverview(cmd.Context(), cmd.OutOrStdout(), args[0], n, only...)
			})
		},
	}

	cmd.Flags().IntVar(&maxLen, "max-len", database.DefaultOverviewRows, "shorten tables with at least this many rows (0 prints all)")
	cmd.Flags().StringSliceVar(&only, "only", nil, "columns to print")
	return cmd
}

func newGetCmd(opts *options) *cobra.Command {
	var field string

	cmd := &cobra.Command{
		Use:   "get TABLE ID",
		Short: "Print the entry with the given id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(s *session) error {
				e, err := s.db.GetEntryByID(cmd.Context(), args[0], parseArg(args[1]), field)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), e)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&field, "field", "", "id column to match (default: the table's id column)")
	return cmd
}

func newSQLCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sql STATEMENT [ARG...]",
		Short: "Run a SQL statement and print any rows",
		Long: `Run a SQL statement. Extra arguments bind to ? placeholders in order;
arguments that parse as integers or reals are bound as numbers.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(s *session) error {
				params := make([]any, len(args)-1)
				for i, a := range args[1:] {
					params[i] = parseArg(a)
				}
				rows, err := s.db.RunRawSQL(cmd.Context(), args[0], params...)
				if err != nil {
					return err
				}
				return printRows(cmd.OutOrStdout(), rows)
			})
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	var (
		sep    string
		tables []string
	)

	cmd := &cobra.Command{
		Use:   "export DIR",
		Short: "Write tables as delimited files, one per table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, size := utf8.DecodeRuneInString(sep)
			if size == 0 || size != len(sep) {
				return fmt.Errorf("--sep must be a single character, got %q", sep)
			}
			return withSession(cmd, opts, func(s *session) error {
				if err := s.db.ExportCSV(cmd.Context(), args[0], r, tables...); err != nil {
					return err
				}
				s.log.Info("tables exported", "dir", args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sep, "sep", string(database.DefaultSeparator), "field separator")
	cmd.Flags().StringSliceVar(&tables, "tables", nil, "tables to export (default: all)")
	return cmd
}

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only HTTP table browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withSession(cmd, opts, func(s *session) error {
				log := s.log.Component("api")
				srv, err := api.New(api.Deps{
					Config:   s.cfg.API,
					Overview: s.cfg.Overview,
					Logger:   log,
					DB:       s.db,
					Version:  version,
				})
				if err != nil {
					return fmt.Errorf("creating API server: %w", err)
				}
				if err := srv.Start(ctx); err != nil {
					return fmt.Errorf("starting API server: %w", err)
				}
				defer func() {
					if closeErr := srv.Close(); closeErr != nil {
						log.Error("error closing API server", "error", closeErr)
					}
				}()

				log.Info("initialisation complete, waiting for shutdown signal")
				<-ctx.Done()
				log.Info("shutdown signal received, cleaning up")
				return nil
			})
		},
	}
}

// printRows writes rows tab separated, NULL for missing values.
func printRows(w io.Writer, rows [][]any) error {
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			switch v := v.(type) {
			case nil:
				cells[i] = "NULL"
			case []byte:
				cells[i] = fmt.Sprintf("x'%x'", v)
			default:
				cells[i] = fmt.Sprint(v)
			}
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return nil
}

// parseArg types a command line value the way SQLite would read it.
func parseArg(a string) any {
	if n, err := strconv.ParseInt(a, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(a, 64); err == nil {
		return f
	}
	return a
}
