package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v5"
	"github.com/spf13/cobra"

	"github.com/datallboy/gonews/internal/api"
	"github.com/datallboy/gonews/internal/app"
	"github.com/datallboy/gonews/internal/decoding"
	"github.com/datallboy/gonews/internal/news"
)

func (c *cli) listCmd() *cobra.Command {
	var keyword string

	cmd := &cobra.Command{
		Use:   "list [wildmat]",
		Short: "List newsgroups (LIST ACTIVE, or another LIST keyword)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := news.ListOptions{Keyword: keyword}
			if len(args) == 1 {
				opts.Wildmat = args[0]
			}

			return c.withServer(cmd.Context(), func(s *news.Server) error {
				listing, err := s.List(opts)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, g := range listing.Groups {
					fmt.Fprintln(out, formatGroupResult(g))
				}
				for _, l := range listing.Lines {
					fmt.Fprintln(out, l)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&keyword, "keyword", "", "LIST keyword, e.g. NEWSGROUPS or OVERVIEW.FMT (default ACTIVE)")
	return cmd
}

func (c *cli) newGroupsCmd() *cobra.Command {
	var since, match string

	cmd := &cobra.Command{
		Use:   "newgroups",
		Short: "List groups created since a point in time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := parseSince(since)
			if err != nil {
				return err
			}

			var w *news.Wildmat
			if match != "" {
				if w, err = news.CompileWildmat(match); err != nil {
					return err
				}
			}

			return c.withServer(cmd.Context(), func(s *news.Server) error {
				groups, err := s.NewGroups(spec)
				if err != nil {
					return err
				}
				if w != nil {
					groups = news.FilterGroups(groups, w)
				}
				for _, g := range groups {
					fmt.Fprintln(cmd.OutOrStdout(), formatGroupResult(g))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&since, "since", "24h", `duration back from now, or "yyyymmdd hhmmss"`)
	cmd.Flags().StringVar(&match, "match", "", "wildmat filter applied to the result")
	return cmd
}

func (c *cli) groupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "group <name>",
		Short: "Select a group and show its article range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withServer(cmd.Context(), func(s *news.Server) error {
				g, err := s.Group(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s articles, %d-%d\n",
					g.Name, humanize.Comma(g.Count), g.Low, g.High)
				return nil
			})
		},
	}
}

// retrieveCmd builds head, body and article, which differ only in the verb.
func (c *cli) retrieveCmd(kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:   kind + " <group> <number|message-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := news.ParseRef(args[1])

			return c.withServer(cmd.Context(), func(s *news.Server) error {
				g, err := s.Group(args[0])
				if err != nil {
					return err
				}

				var a *news.Article
				switch kind {
				case "head":
					a, err = g.Head(ref)
				case "body":
					a, err = g.Body(ref)
				default:
					a, err = g.Article(ref)
				}
				if err != nil {
					return err
				}

				printArticle(cmd.OutOrStdout(), a)
				return nil
			})
		},
	}
}

func (c *cli) saveCmd() *cobra.Command {
	var yenc bool

	cmd := &cobra.Command{
		Use:   "save <group> <number|message-id> <path>",
		Short: "Write an article body to a file",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := news.ParseRef(args[1])
			path := args[2]

			var a *news.Article
			err := c.withServer(cmd.Context(), func(s *news.Server) error {
				g, err := s.Group(args[0])
				if err != nil {
					return err
				}
				a, err = g.Body(ref)
				return err
			})
			if err != nil {
				return err
			}

			if !yenc {
				if err := a.Save(path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s to %s (%s)\n",
					ref, path, humanize.Bytes(uint64(len(a.Body()))))
				return nil
			}

			h, n, err := saveDecoded(a, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Decoded %s from %s to %s (%s)\n",
				h.Name, ref, path, humanize.Bytes(uint64(n)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&yenc, "yenc", false, "decode a yEnc encoded body before writing")
	return cmd
}

// saveDecoded writes the yEnc decoded body to path, expanding "~" the way
// Article.Save does. A failed decode leaves no file behind.
func saveDecoded(a *news.Article, path string) (decoding.Header, int64, error) {
	path, err := news.ExpandHome(path)
	if err != nil {
		return decoding.Header{}, 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return decoding.Header{}, 0, err
	}

	h, n, err := decoding.DecodeBody(strings.NewReader(a.Body()), f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
	}
	return h, n, err
}

func (c *cli) archiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <group> <number|message-id>",
		Short: "Fetch an article and keep it in the local archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ref := news.ParseRef(args[1])

			var a *news.Article
			err := c.withServer(ctx, func(s *news.Server) error {
				g, err := s.Group(args[0])
				if err != nil {
					return err
				}
				a, err = g.Article(ref)
				return err
			})
			if err != nil {
				return err
			}

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			saved, err := st.SaveArticle(ctx, args[0], a)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Archived <%s> as %s (%s)\n",
				saved.MessageID, saved.ID, humanize.Bytes(uint64(saved.BodySize)))
			return nil
		},
	}
}

func (c *cli) serveCmd() *cobra.Command {
	var listen string
	var noStore bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.cfg.RequireHost(); err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				c.cfg.API.Listen = listen
			}

			// Setup Signal Handling for Graceful Shutdown
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			appCtx := app.NewContext(c.cfg, c.log)
			appCtx.Session = app.NewSession(func(ctx context.Context) (*news.Server, error) {
				return news.Connect(ctx, c.serverOptions())
			}, c.log)

			if !noStore {
				st, err := c.openStore(ctx)
				if err != nil {
					return err
				}
				appCtx.Store = st
			}
			defer appCtx.Close()

			e := echo.New()
			api.RegisterRoutes(e, appCtx)

			srv := &http.Server{
				Addr:              c.cfg.API.Listen,
				Handler:           e,
				ReadHeaderTimeout: 10 * time.Second,
				// accept and TLS errors go to the application log
				ErrorLog: log.New(c.log, "http: ", 0),
			}

			errCh := make(chan error, 1)
			go func() {
				c.log.Info("Gateway listening on %s for %s", srv.Addr, c.cfg.Server.Host)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				c.log.Info("Shutting down gateway...")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (default api.listen)")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "serve live reads only, without the archive")
	return cmd
}
