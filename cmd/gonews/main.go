package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datallboy/gonews/internal/infra/config"
	"github.com/datallboy/gonews/internal/infra/logger"
	"github.com/datallboy/gonews/internal/news"
	"github.com/datallboy/gonews/internal/store"
)

var exampleUsage = strings.TrimSpace(`
  gonews list 'comp.lang.*'
  gonews newgroups --since 72h --match 'alt.*,!alt.binaries.*'
  gonews article comp.lang.python 42
  gonews save alt.binaries.test '<part1@poster>' ./out.bin --yenc
  NNTPSERVER=news.example.com gonews serve
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// cli carries the persistent flags and the state built from them.
type cli struct {
	cfgPath  string
	host     string
	port     int
	user     string
	password string

	cfg *config.Config
	log *logger.Logger
}

func main() {
	c := &cli{}

	root := &cobra.Command{
		Use:     "gonews",
		Short:   "Browse, fetch and archive Usenet articles over NNTP",
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),

		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.log.Close()
		},
	}

	root.PersistentFlags().StringVar(&c.cfgPath, "config", "", "path to config file (default: ./config.yaml when present)")
	root.PersistentFlags().StringVar(&c.host, "host", "", "news server host (overrides server.host, GONEWS_SERVER_HOST and NNTPSERVER)")
	root.PersistentFlags().IntVar(&c.port, "port", 0, "news server port")
	root.PersistentFlags().StringVar(&c.user, "user", "", "AUTHINFO username")
	root.PersistentFlags().StringVar(&c.password, "password", "", "AUTHINFO password")

	root.AddCommand(
		c.listCmd(),
		c.newGroupsCmd(),
		c.groupCmd(),
		c.retrieveCmd("head", "Print the headers of an article"),
		c.retrieveCmd("body", "Print the body of an article"),
		c.retrieveCmd("article", "Print a whole article"),
		c.saveCmd(),
		c.archiveCmd(),
		c.serveCmd(),
	)

	if err := root.Execute(); err != nil {
		if c.log != nil {
			c.log.Error("gonews: %v", err)
		}
		os.Exit(1)
	}
}

// setup loads the config, applies flag overrides and opens the log.
func (c *cli) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = c.host
	}
	if flags.Changed("port") {
		cfg.Server.Port = c.port
	}
	if flags.Changed("user") {
		cfg.Server.Username = c.user
	}
	if flags.Changed("password") {
		cfg.Server.Password = c.password
	}

	log, err := logger.New(cfg.Log.Path, logger.ParseLevel(cfg.Log.Level), cfg.Log.IncludeStdout)
	if err != nil {
		return fmt.Errorf("open log %s: %w", cfg.Log.Path, err)
	}

	c.cfg = cfg
	c.log = log
	return nil
}

func (c *cli) serverOptions() news.Options {
	return news.Options{
		Host:     c.cfg.Server.Host,
		Port:     c.cfg.Server.Port,
		Username: c.cfg.Server.Username,
		Password: c.cfg.Server.Password,
		Timeout:  c.cfg.Server.Timeout,
		Logger:   c.log,
	}
}

// connect opens a server for a one-shot command.
func (c *cli) connect(ctx context.Context) (*news.Server, error) {
	if err := c.cfg.RequireHost(); err != nil {
		return nil, err
	}
	return news.Connect(ctx, c.serverOptions())
}

// withServer runs fn on a fresh connection and always says goodbye.
func (c *cli) withServer(ctx context.Context, fn func(*news.Server) error) error {
	s, err := c.connect(ctx)
	if err != nil {
		return err
	}

	err = fn(s)
	if qerr := s.Quit(); qerr != nil {
		c.log.Warn("QUIT failed: %v", qerr)
	}
	return err
}

func (c *cli) openStore(ctx context.Context) (*store.PersistentStore, error) {
	st := c.cfg.Store
	return store.NewPersistentStore(ctx, st.Driver, st.DSN, st.BlobDir)
}
