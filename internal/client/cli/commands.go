package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/beanfeed/internal/bean"
	"github.com/dmitrijs2005/beanfeed/internal/client/proxy"
	"github.com/dmitrijs2005/beanfeed/internal/feed"
	"github.com/dmitrijs2005/beanfeed/internal/profile"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func parseID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", arg, err)
	}
	return id, nil
}

func (a *App) getCommand() *cobra.Command {
	var (
		id     string
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "List visible profiles",
		Long: `Get lists the profiles the caller may see, oldest first.

Example:
  beanfeed get --limit 10
  beanfeed get --style short --offset 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := proxy.Query{Limit: limit, Offset: offset}
			if id != "" {
				parsed, err := parseID(id)
				if err != nil {
					return err
				}
				q.ID = parsed
			}

			items, err := a.reader.Get(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("get profiles: %w", err)
			}
			return printSummary(a.out, items)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "only the profile with this id")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of profiles")
	cmd.Flags().IntVar(&offset, "offset", 0, "profiles to skip")
	return cmd
}

func (a *App) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.reader.GetByID(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("show profile %s: %w", id, err)
			}
			return printProfile(a.out, p)
		},
	}
}

func (a *App) insertCommand() *cobra.Command {
	var (
		fields profileFlags
		slug   string
	)

	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Create a profile",
		Long: `Insert creates a profile owned by --email, which must be the caller.

Example:
  beanfeed insert --email ann@example.com --name Ann --tz Europe/Riga
  beanfeed insert --email ann@example.com --slug 0192f1c4-6a1e-7c8e-9d55-3a2b1c0d9e8f`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := &profile.Profile{}
			fields.apply(cmd.Flags(), p)

			created, err := a.writer.Insert(cmd.Context(), p, slug)
			if err != nil {
				return fmt.Errorf("insert profile: %w", err)
			}
			return printProfile(a.out, created)
		},
	}
	fields.register(cmd.Flags())
	cmd.Flags().StringVar(&slug, "slug", "", "requested profile id (UUID)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *App) updateCommand() *cobra.Command {
	var fields profileFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a profile",
		Long: `Update reads the profile, applies the given flags and writes it back
with the token it was read with. A concurrent change makes it fail.

Example:
  beanfeed update 0192f1c4-6a1e-7c8e-9d55-3a2b1c0d9e8f --bio "Gopher"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, err := a.writer.GetByID(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("read profile %s: %w", id, err)
			}

			fields.apply(cmd.Flags(), p)

			updated, err := a.writer.Update(cmd.Context(), p)
			if err != nil {
				return fmt.Errorf("update profile %s: %w", id, err)
			}
			return printProfile(a.out, updated)
		},
	}
	fields.register(cmd.Flags())
	return cmd
}

func (a *App) deleteCommand() *cobra.Command {
	var etag string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a profile",
		Long: `Delete removes the profile if it still carries the given token. Without
--etag the current token is fetched first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			token := bean.ParseETag(etag)
			if token.IsZero() {
				current, err := a.writer.GetByID(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("read profile %s: %w", id, err)
				}
				token = current.Token
			}

			if err := a.writer.Delete(cmd.Context(), id, token); err != nil {
				return fmt.Errorf("delete profile %s: %w", id, err)
			}
			_, err = fmt.Fprintf(a.out, "Deleted profile: %s\n", id)
			return err
		},
	}
	cmd.Flags().StringVar(&etag, "etag", "", "token the profile must still carry")
	return cmd
}

func (a *App) batchCommand() *cobra.Command {
	var each bool

	cmd := &cobra.Command{
		Use:   "batch <feed.xml>",
		Short: "Create every profile of an Atom feed file",
		Long: `Batch creates the profiles listed as entries of an Atom feed document.
By default one request carries the whole feed; --each sends one request
per entry, running --parallelism of them at once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := readProfiles(args[0])
			if err != nil {
				return err
			}

			insert := a.writer.InsertBatch
			if each {
				insert = a.writer.InsertEach
			}
			results, err := insert(cmd.Context(), items)
			if err != nil && !errors.Is(err, proxy.ErrPartialBatch) {
				return fmt.Errorf("batch insert: %w", err)
			}

			for i, r := range results {
				if r.Err != nil {
					fmt.Fprintf(a.out, "%d\tfailed\t%v\n", i, r.Err)
					continue
				}
				fmt.Fprintf(a.out, "%d\tcreated\t%s\n", i, r.Bean.ID)
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&each, "each", false, "one request per entry")
	return cmd
}

// readProfiles decodes every entry of the feed file at path.
func readProfiles(path string) ([]*profile.Profile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	f, err := feed.ReadFeed(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	codec := profile.Codec{}
	items := make([]*profile.Profile, 0, len(f.Entries))
	for _, e := range f.Entries {
		items = append(items, codec.Decode(e))
	}
	return items, nil
}
