package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/marcelsud/bookcatalog/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultURL = "http://localhost:8000"

type app struct {
	in       *bufio.Reader
	out      io.Writer
	location *time.Location
	client   *client.Client
}

// NewRootCommand builds bookctl. The server URL comes from --url or BOOKCATALOG_URL.
func NewRootCommand(in io.Reader, out io.Writer, location *time.Location) *cobra.Command {
	a := &app{in: bufio.NewReader(in), out: out, location: location}
	v := viper.New()
	v.SetEnvPrefix("BOOKCATALOG")
	v.SetDefault("url", defaultURL)
	_ = v.BindEnv("url")

	root := &cobra.Command{
		Use:           "bookctl",
		Short:         "Manage the book catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.client = client.New(v.GetString("url"))
			return nil
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(out)
	root.PersistentFlags().String("url", defaultURL, "book catalog server")
	_ = v.BindPFlag("url", root.PersistentFlags().Lookup("url"))

	root.AddCommand(
		a.listCommand(),
		a.addCommand(),
		a.editCommand(),
		a.deleteCommand(),
	)
	return root
}

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show every book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.refresh(cmd.Context())
		},
	}
}

type formFlags struct {
	title, description, author, newField string
}

func (f *formFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "book title")
	cmd.Flags().StringVar(&f.description, "description", "", "book description")
	cmd.Flags().StringVar(&f.author, "author", "", "book author")
	cmd.Flags().StringVar(&f.newField, "new-field", "", "free text field")
}

// apply overrides only the fields the user actually passed
func (f *formFlags) apply(cmd *cobra.Command, form *client.Form) {
	if cmd.Flags().Changed("title") {
		form.Title = f.title
	}
	if cmd.Flags().Changed("description") {
		form.Description = f.description
	}
	if cmd.Flags().Changed("author") {
		form.Author = f.author
	}
	if cmd.Flags().Changed("new-field") {
		form.NewField = f.newField
	}
}

func (a *app) addCommand() *cobra.Command {
	var flags formFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var form client.Form
			flags.apply(cmd, &form)
			b, err := a.client.Save(cmd.Context(), form)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Created book %d\n", b.ID)
			return a.refresh(cmd.Context())
		},
	}
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func (a *app) editCommand() *cobra.Command {
	var flags formFlags
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Update a book; fields not given keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			current, err := a.client.Find(cmd.Context(), id)
			if err != nil {
				return err
			}
			form := client.FormFor(current)
			flags.apply(cmd, &form)
			if _, err := a.client.Save(cmd.Context(), form); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Updated book %d\n", id)
			return a.refresh(cmd.Context())
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) deleteCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a book after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes && !a.confirm("Delete this book?") {
				fmt.Fprintln(a.out, "Nothing deleted")
				return nil
			}
			if err := a.client.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted book %d\n", id)
			return a.refresh(cmd.Context())
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *app) confirm(question string) bool {
	fmt.Fprintf(a.out, "%s [y/N] ", question)
	answer, err := a.in.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func (a *app) refresh(ctx context.Context) error {
	books, err := a.client.List(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, RenderTable(books, a.location))
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid book id %q", s)
	}
	return id, nil
}
