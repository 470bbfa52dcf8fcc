package cli

import (
	"io"
	"net/http"

	"github.com/dmitrijs2005/beanfeed/internal/bean"
	"github.com/dmitrijs2005/beanfeed/internal/client/config"
	"github.com/dmitrijs2005/beanfeed/internal/client/proxy"
	"github.com/dmitrijs2005/beanfeed/internal/profile"
	"github.com/dmitrijs2005/beanfeed/internal/transport"
	"github.com/spf13/cobra"
)

const askTokenFlag = "ask-token"

// App holds what the commands share once the flags are parsed.
type App struct {
	config *config.Config
	out    io.Writer

	// reader fetches at the configured style; writer always at Full so an
	// update never drops fields the reader would not see.
	reader *proxy.Proxy[*profile.Profile]
	writer *proxy.Proxy[*profile.Profile]
}

// setup loads the configuration and builds the proxies.
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	ask, err := cmd.Flags().GetBool(askTokenFlag)
	if err != nil {
		return err
	}
	if ask {
		if cfg.AccessToken, err = PromptToken(cmd.ErrOrStderr()); err != nil {
			return err
		}
	}

	style, err := bean.ParseStyle(cfg.Style)
	if err != nil {
		return err
	}
	enc, err := transport.ParseEncoding(cfg.Compression)
	if err != nil {
		return err
	}

	opts := []proxy.Option{
		proxy.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		proxy.WithCompression(enc),
		proxy.WithParallelism(cfg.Parallelism),
	}
	if cfg.AccessToken != "" {
		opts = append(opts, proxy.WithBearerToken(cfg.AccessToken))
	}

	a.config = cfg
	a.reader = proxy.New(cfg.ServerURL, profile.Codec{}, append(opts, proxy.WithStyle(style))...)
	a.writer = proxy.New(cfg.ServerURL, profile.Codec{}, append(opts, proxy.WithStyle(bean.Full))...)
	return nil
}

// NewRootCommand returns the client command tree writing its results to
// out.
func NewRootCommand(out io.Writer) *cobra.Command {
	a := &App{out: out}

	root := &cobra.Command{
		Use:   "beanfeed",
		Short: "Client for beanfeed profile resources",
		Long: `beanfeed reads and writes profile records on a beanfeed server.

Records travel as Atom entries; every write is guarded by the record's
concurrency token.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(out)

	config.RegisterFlags(root.PersistentFlags())
	root.PersistentFlags().Bool(askTokenFlag, false, "read the access token from the terminal")

	root.AddCommand(
		a.getCommand(),
		a.showCommand(),
		a.insertCommand(),
		a.updateCommand(),
		a.deleteCommand(),
		a.batchCommand(),
	)
	return root
}
