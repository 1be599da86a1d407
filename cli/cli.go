// Package cli provides command-line interface functionality for the
// Bitmask client. It allows querying Encrypted Internet and working with
// the local mail store without launching the GUI.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/yllada/bitmask-client/common"
	"github.com/yllada/bitmask-client/config"
	"github.com/yllada/bitmask-client/eip"
	"github.com/yllada/bitmask-client/keymanager"
	"github.com/yllada/bitmask-client/mail/imap"
	"github.com/yllada/bitmask-client/services"
	"github.com/yllada/bitmask-client/statuspanel"
)

var headerStyle = lipgloss.NewStyle().Bold(true).TabWidth(lipgloss.NoTabConversion)

// CLI represents the command-line interface.
type CLI struct {
	config *config.Config
	keys   *keymanager.Manager
	out    io.Writer

	// Overridable for tests.
	readPassword func() (string, error)
	newFetcher   func(userID, password string) imap.Fetcher
}

// New creates a new CLI instance.
func New(cfg *config.Config, keys *keymanager.Manager) *CLI {
	c := &CLI{
		config: cfg,
		keys:   keys,
		out:    os.Stdout,
	}
	c.readPassword = promptPassword
	c.newFetcher = func(userID, password string) imap.Fetcher {
		return imap.NewRemoteFetcher(cfg.Mail.IMAPHost, cfg.Mail.IMAPPort, cfg.Mail.TLS, userID, password)
	}
	return c
}

// Status queries the OpenVPN management interface once and prints the
// Encrypted Internet state.
func (c *CLI) Status(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, common.ManagementTimeout)
	defer cancel()

	data, err := eip.QueryState(ctx, c.config.EIP.ManagementAddr)
	if err != nil {
		if errors.Is(err, common.ErrManagement) {
			fmt.Fprintln(c.out, "Encrypted Internet is not running.")
			return nil
		}
		return err
	}

	step := data.Step()
	localIP := data[eip.LocalIPKey]
	if localIP == "" {
		localIP = "-"
	}
	provider := c.config.EIP.Provider
	if provider == "" {
		provider = "-"
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, headerStyle.Render("STATE\tSTATUS\tPROVIDER\tIP ADDRESS\tSENT\tRECEIVED"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		step,
		statuspanel.MapStatus(step).TrayMessage,
		provider,
		localIP,
		humanizeCounter(data[eip.TunTapWriteKey]),
		humanizeCounter(data[eip.TunTapReadKey]),
	)
	return w.Flush()
}

// Fetch runs one incoming mail cycle for the configured account.
func (c *CLI) Fetch(ctx context.Context) error {
	userID, err := c.userID()
	if err != nil {
		return err
	}
	password, err := c.keys.IMAPPassword(userID)
	if err != nil {
		return fmt.Errorf("no IMAP password stored for %s, run with --set-password first: %w", userID, err)
	}

	svc, err := services.OpenWithKeys(c.config, c.keys)
	if err != nil {
		return err
	}
	defer svc.Close(common.MailStopTimeout)

	incoming := imap.NewIncomingMail(c.newFetcher(userID, password), svc.Store, imap.DefaultMailbox, c.config.Mail.FetchInterval)
	fmt.Fprintf(c.out, "Fetching new mail for %s...\n", userID)

	count, err := incoming.FetchOnce(ctx)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	fmt.Fprintf(c.out, "✓ %d new message(s)\n", count)
	return nil
}

// ListMail prints up to limit stored messages, newest first.
func (c *CLI) ListMail(ctx context.Context, limit int) error {
	svc, err := services.OpenWithKeys(c.config, c.keys)
	if err != nil {
		return err
	}
	defer svc.Close(common.MailStopTimeout)

	docs, err := svc.Store.List(ctx, imap.DefaultMailbox, limit)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Fprintln(c.out, "No messages stored.")
		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, headerStyle.Render("UID\tDATE\tFROM\tSUBJECT\tSIZE"))

	for _, doc := range docs {
		msg, err := imap.DecodeStoredMessage(doc.Content)
		if err != nil {
			common.LogWarn("Skipping undecodable document %s: %v", doc.ID, err)
			continue
		}

		date := "-"
		if !msg.Date.IsZero() {
			date = humanize.Time(msg.Date)
		}
		subject := msg.Subject
		if subject == "" {
			subject = "(no subject)"
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			doc.UID, date, truncate(msg.From, 32), truncate(subject, 48), humanize.Bytes(uint64(msg.Size)))
	}
	return w.Flush()
}

// SetPassword prompts for the IMAP password and stores it.
func (c *CLI) SetPassword() error {
	userID, err := c.userID()
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "IMAP password for %s: ", userID)
	password, err := c.readPassword()
	fmt.Fprintln(c.out)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}

	if err := c.keys.Store(userID, keymanager.SecretIMAPPassword, password); err != nil {
		return err
	}

	where := "system keyring"
	if c.keys.IsLocal() {
		where = "encrypted local file"
	}
	fmt.Fprintf(c.out, "✓ Password stored in the %s\n", where)
	return nil
}

func (c *CLI) userID() (string, error) {
	if c.config.Mail.UserID == "" {
		return "", fmt.Errorf("no mail account configured, set mail.user_id in %s", c.config.Path())
	}
	return c.config.Mail.UserID, nil
}

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		return string(b), err
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func humanizeCounter(value string) string {
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return "-"
	}
	return humanize.Bytes(n)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// PrintHelp prints CLI usage help.
func PrintHelp() {
	fmt.Println(`Bitmask - Command Line Interface

Usage:
  bitmask [OPTIONS]

Options:
  --version         Show version and exit
  --verbose         Enable verbose logging
  --tui             Run the status panel in the terminal
  --status          Show the Encrypted Internet state
  --fetch           Fetch new mail once and exit
  --list-mail       List stored messages
  --limit N         Number of messages to list (default 20)
  --set-password    Store the IMAP password for the configured account
  --help            Show this help message

Examples:
  bitmask --status
  bitmask --set-password
  bitmask --fetch
  bitmask --list-mail --limit 5

Notes:
  - The mail account is read from mail.user_id in the config file
  - Run without options to launch the GUI`)
}
