package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/justestif/spotify-remote/internal/auth"
	"github.com/justestif/spotify-remote/internal/client"
	"github.com/justestif/spotify-remote/internal/config"
	"github.com/justestif/spotify-remote/internal/player"
	"github.com/justestif/spotify-remote/internal/search"
	"github.com/justestif/spotify-remote/internal/web"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *config.Config
	sessions   client.Sessions
	httpClient *http.Client
	logger     *log.Logger
	input      io.Reader
	output     io.Writer
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *config.Config
	Sessions   client.Sessions
	HTTPClient *http.Client
	Logger     *log.Logger
	Input      io.Reader
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = NewLogger(nil)
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		sessions:   opts.Sessions,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		input:      opts.Input,
		output:     opts.Output,
		now:        time.Now,
	}
}

// setup loads the configuration and applies the log level before any command runs.
func (r *Runner) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level, err := log.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return ctx, fmt.Errorf("parsing log level: %w", err)
	}
	r.logger.SetLevel(level)

	if r.config == nil {
		cfg, err := config.Load(cmd.String("config"))
		if err != nil {
			return ctx, err
		}
		r.config = cfg
	}
	return ctx, nil
}

// newClient builds a proxy client backed by the session file.
func (r *Runner) newClient() (*client.Client, error) {
	if r.sessions == nil {
		if path := r.config.Client.SessionPath; path != "" {
			r.sessions = auth.NewSessionCache(path)
		} else {
			cache, err := auth.DefaultSessionCache()
			if err != nil {
				return nil, err
			}
			r.sessions = cache
		}
	}

	opts := []client.Option{client.WithLogger(r.logger.With("component", "client"))}
	if r.httpClient != nil {
		opts = append(opts, client.WithHTTPClient(r.httpClient))
	}
	return client.New(r.config.Client.BackendURL, r.sessions, opts...)
}

func (r *Runner) newPoller(c *client.Client, opts ...player.Option) *player.Poller {
	base := []player.Option{
		player.WithLogger(r.logger.With("component", "player")),
		player.WithInterval(r.config.Client.PollInterval.Duration),
	}
	return player.NewPoller(c, append(base, opts...)...)
}

// Serve runs the proxy server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.ValidateServer(); err != nil {
		return err
	}

	spotifyCfg := r.config.Spotify
	flow := auth.NewFlow(spotifyCfg.ClientID, spotifyCfg.ClientSecret, spotifyCfg.RedirectURI)
	tokens := auth.NewTokenStore(spotifyCfg.ClientID, spotifyCfg.ClientSecret,
		auth.WithStoreLogger(r.logger.With("component", "tokens")))

	server := web.NewServer(web.ServerConfig{
		Addr:        r.config.Server.Addr(),
		FrontendURI: r.config.Server.FrontendURI,
		Flow:        flow,
		Tokens:      tokens,
		Logger:      r.logger,
	})

	r.logger.Info("starting proxy", "addr", r.config.Server.Addr(), "frontend", r.config.Server.FrontendURI)
	return server.Run(ctx)
}

// Login prints the proxy login URL and stores the session from the pasted redirect URL.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	c, err := r.newClient()
	if err != nil {
		return err
	}

	fmt.Fprintf(r.output, "Open this URL in your browser:\n\n  %s\n\n", c.LoginURL())
	fmt.Fprint(r.output, "After approving, paste the URL you were redirected to: ")

	scanner := bufio.NewScanner(r.input)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading redirect URL: %w", err)
		}
		return errors.New("no redirect URL entered")
	}

	session, err := auth.SessionFromFragment(strings.TrimSpace(scanner.Text()), r.now())
	if err != nil {
		return err
	}
	if err := c.SaveSession(session); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	fmt.Fprintln(r.output, "Logged in.")
	return nil
}

// Logout removes the stored session.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	c, err := r.newClient()
	if err != nil {
		return err
	}
	if err := c.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(r.output, "Logged out.")
	return nil
}

// Refresh rotates the stored access token.
func (r *Runner) Refresh(ctx context.Context, cmd *cli.Command) error {
	c, err := r.newClient()
	if err != nil {
		return err
	}

	session, err := c.Refresh(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.output, "Access token refreshed, valid until %s\n", session.ExpiresAt.Local().Format(time.Kitchen))
	return nil
}

// Status prints the current user and playback.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	c, err := r.newClient()
	if err != nil {
		return err
	}

	session, err := c.Session()
	if err != nil {
		return err
	}
	if session.Expired(r.now()) {
		fmt.Fprintf(r.output, "Access token expired at %s, run spotify-remote refresh\n",
			session.ExpiresAt.Local().Format(time.Kitchen))
		return nil
	}

	me, err := c.Me(ctx)
	if err != nil {
		return err
	}
	state, err := c.PlayerState(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.output, "Logged in as %s (%s)\n", me.DisplayName, me.ID)
	fmt.Fprintln(r.output, formatSnapshot(player.FromState(state)))
	return nil
}

// Playlists lists the user's playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	c, err := r.newClient()
	if err != nil {
		return err
	}

	playlists, err := c.Playlists(ctx)
	if err != nil {
		return err
	}
	if len(playlists) == 0 {
		fmt.Fprintln(r.output, "No playlists")
		return nil
	}
	for _, pl := range playlists {
		fmt.Fprintf(r.output, "%-24s %s (%s)\n", pl.ID, pl.Name, pl.Owner.DisplayName)
	}
	return nil
}

// Watch follows playback and prints a line whenever the track or play state changes.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	c, err := r.newClient()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var last player.Snapshot
	printed := false
	p := r.newPoller(c,
		player.WithInterval(cmd.Duration("interval")),
		player.WithOnChange(func(s player.Snapshot) {
			if printed && s.TrackID == last.TrackID && s.IsPlaying == last.IsPlaying {
				return
			}
			printed = true
			last = s
			fmt.Fprintln(r.output, formatSnapshot(s))
		}),
	)
	return p.Run(ctx)
}

// Search runs one query, or reads queries from input until EOF.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	c, err := r.newClient()
	if err != nil {
		return err
	}

	var lastErr error
	session := search.NewSession(c,
		search.WithLimit(int(cmd.Int("limit"))),
		search.WithDebounce(r.config.Client.SearchDebounce.Duration),
		search.WithTTL(r.config.Client.SearchTTL.Duration),
		search.WithLogger(r.logger.With("component", "search")),
		search.WithOnChange(func(u search.Update) {
			lastErr = u.Err
			switch u.State {
			case search.Searching:
				r.logger.Debug("searching", "query", u.Query)
			case search.Empty:
				fmt.Fprintf(r.output, "No results for %q\n", u.Query)
			case search.Error:
				fmt.Fprintf(r.output, "Search for %q failed: %v\n", u.Query, u.Err)
			case search.Results:
				printResults(r.output, u.Results)
			}
		}),
	)
	defer session.Close()

	if query := cmd.StringArg("query"); query != "" {
		session.Submit(query)
		session.Wait()
		return lastErr
	}

	scanner := bufio.NewScanner(r.input)
	for {
		fmt.Fprint(r.output, "search> ")
		if !scanner.Scan() {
			break
		}
		session.Submit(scanner.Text())
		session.Wait()
	}
	return scanner.Err()
}

// Play starts a track on the active device.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	trackID := cmd.StringArg("track-id")
	if trackID == "" {
		return errors.New("usage: player play <track-id>")
	}

	c, err := r.newClient()
	if err != nil {
		return err
	}
	return c.Play(ctx, trackID)
}

// Toggle pauses or resumes playback.
func (r *Runner) Toggle(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, (*player.Poller).Toggle)
}

// Next skips forward.
func (r *Runner) Next(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, (*player.Poller).Next)
}

// Previous skips back.
func (r *Runner) Previous(ctx context.Context, cmd *cli.Command) error {
	return r.control(ctx, (*player.Poller).Previous)
}

// Seek moves the playback position.
func (r *Runner) Seek(ctx context.Context, cmd *cli.Command) error {
	positionMs, err := parsePosition(cmd.StringArg("position"))
	if err != nil {
		return err
	}

	return r.control(ctx, func(p *player.Poller, ctx context.Context) error {
		if err := p.Poll(ctx); err != nil {
			return err
		}
		p.BeginSeek()
		return p.CommitSeek(ctx, positionMs)
	})
}

// Volume sets the device volume.
func (r *Runner) Volume(ctx context.Context, cmd *cli.Command) error {
	percent, err := strconv.Atoi(cmd.StringArg("percent"))
	if err != nil {
		return fmt.Errorf("volume must be a whole number: %w", err)
	}

	return r.control(ctx, func(p *player.Poller, ctx context.Context) error {
		if err := p.Poll(ctx); err != nil {
			return err
		}
		return p.SetVolume(ctx, percent)
	})
}

// Like toggles the liked flag of the current track.
func (r *Runner) Like(ctx context.Context, cmd *cli.Command) error {
	c, err := r.newClient()
	if err != nil {
		return err
	}
	p := r.newPoller(c)

	if err := p.Poll(ctx); err != nil {
		return err
	}
	snap := p.Snapshot()
	if !snap.Active() {
		return player.ErrNoTrack
	}
	if err := p.LoadLiked(ctx, []string{snap.TrackID}); err != nil {
		return err
	}
	if err := p.ToggleLike(ctx); err != nil {
		return err
	}
	p.Wait()
	if err := p.LastErr(); err != nil {
		return err
	}

	if p.Liked(snap.TrackID) {
		fmt.Fprintf(r.output, "Added %q to liked songs\n", snap.Name)
	} else {
		fmt.Fprintf(r.output, "Removed %q from liked songs\n", snap.Name)
	}
	return nil
}

// control runs one poller gesture and prints the resulting state.
func (r *Runner) control(ctx context.Context, fn func(*player.Poller, context.Context) error) error {
	c, err := r.newClient()
	if err != nil {
		return err
	}
	p := r.newPoller(c)

	if err := fn(p, ctx); err != nil {
		return err
	}
	fmt.Fprintln(r.output, formatSnapshot(p.Snapshot()))
	return nil
}

// parsePosition accepts a duration such as "1m30s" or a plain number of seconds.
func parsePosition(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("usage: player seek <position>")
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		raw = strconv.Itoa(secs) + "s"
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q: %w", raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("position %s must not be negative", d)
	}
	return int(d.Milliseconds()), nil
}

func formatSnapshot(s player.Snapshot) string {
	if !s.Active() {
		return "Nothing playing"
	}

	status := "Paused"
	if s.IsPlaying {
		status = "Playing"
	}

	line := fmt.Sprintf("%s: %s - %s [%s / %s]", status, s.Name, s.Artists,
		formatMs(s.ProgressMs), formatMs(s.DurationMs))
	if s.DeviceName != "" {
		line += " on " + s.DeviceName
	}
	if s.HasVolume {
		line += fmt.Sprintf(" (volume %d%%)", s.DeviceVolume)
	}
	return line
}

func formatMs(ms int) string {
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func printResults(w io.Writer, results *client.SearchResults) {
	if results.Tracks != nil && len(results.Tracks.Items) > 0 {
		fmt.Fprintln(w, "Tracks:")
		for _, t := range results.Tracks.Items {
			artists := make([]string, len(t.Artists))
			for i, a := range t.Artists {
				artists[i] = a.Name
			}
			fmt.Fprintf(w, "  %-24s %s - %s\n", t.ID, t.Name, strings.Join(artists, ", "))
		}
	}
	if results.Artists != nil && len(results.Artists.Items) > 0 {
		fmt.Fprintln(w, "Artists:")
		for _, a := range results.Artists.Items {
			fmt.Fprintf(w, "  %-24s %s\n", a.ID, a.Name)
		}
	}
	if results.Albums != nil && len(results.Albums.Items) > 0 {
		fmt.Fprintln(w, "Albums:")
		for _, a := range results.Albums.Items {
			fmt.Fprintf(w, "  %-24s %s (%s)\n", a.ID, a.Name, a.ReleaseDate)
		}
	}
	if results.Playlists != nil && len(results.Playlists.Items) > 0 {
		fmt.Fprintln(w, "Playlists:")
		for _, p := range results.Playlists.Items {
			fmt.Fprintf(w, "  %-24s %s by %s\n", p.ID, p.Name, p.Owner.DisplayName)
		}
	}
}
