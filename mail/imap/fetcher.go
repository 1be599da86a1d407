package imap

import (
	"context"
	"fmt"
	"net"
	"strconv"

	retry "github.com/StirlingMarketingGroup/go-retry"
	goimap "github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/yllada/bitmask-client/common"
)

// Fetcher pulls messages newer than a UID from a mailbox.
type Fetcher interface {
	FetchNew(ctx context.Context, mailbox string, after uint32) ([]RawMessage, error)
}

// RemoteFetcher fetches from the provider with go-imap.
type RemoteFetcher struct {
	addr     string
	tls      bool
	username string
	password string
}

// NewRemoteFetcher creates a fetcher logging in as username.
func NewRemoteFetcher(host string, port int, useTLS bool, username, password string) *RemoteFetcher {
	return &RemoteFetcher{
		addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		tls:      useTLS,
		username: username,
		password: password,
	}
}

func (f *RemoteFetcher) connect(ctx context.Context) (*imapclient.Client, error) {
	var client *imapclient.Client
	err := retry.Retry(func() error {
		var err error
		if f.tls {
			client, err = imapclient.DialTLS(f.addr, nil)
		} else {
			client, err = imapclient.DialStartTLS(f.addr, nil)
		}
		return err
	}, common.DialRetries, func(err error) error {
		log.Warn("Connecting to %s failed, retrying: %v", f.addr, err)
		return ctx.Err()
	}, func() error {
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrConnectionFailed, f.addr, err)
	}

	// No retry for auth failures.
	if err := client.Login(f.username, f.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("authentication failed for %s: %w", f.username, err)
	}
	return client, nil
}

// FetchNew returns the messages in mailbox with a UID above after.
func (f *RemoteFetcher) FetchNew(ctx context.Context, mailbox string, after uint32) ([]RawMessage, error) {
	client, err := f.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select(mailbox, nil).Wait(); err != nil {
		return nil, fmt.Errorf("selecting %s: %w", mailbox, err)
	}

	uidSet := goimap.UIDSet{}
	uidSet.AddRange(goimap.UID(after+1), 0)
	searchData, err := client.UIDSearch(&goimap.SearchCriteria{UID: []goimap.UIDSet{uidSet}}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", mailbox, err)
	}

	var uids []goimap.UID
	for _, uid := range searchData.AllUIDs() {
		// N:* always matches the last message, even below N.
		if uint32(uid) > after {
			uids = append(uids, uid)
		}
	}
	if len(uids) == 0 {
		return nil, nil
	}

	bodySection := &goimap.FetchItemBodySection{Peek: true}
	fetchCmd := client.Fetch(goimap.UIDSetNum(uids...), &goimap.FetchOptions{
		UID:         true,
		BodySection: []*goimap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	var messages []RawMessage
	for {
		if err := ctx.Err(); err != nil {
			return messages, err
		}
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		buf, err := msg.Collect()
		if err != nil {
			log.Warn("Collecting message: %v", err)
			continue
		}
		raw := buf.FindBodySection(bodySection)
		if raw == nil {
			continue
		}
		messages = append(messages, RawMessage{UID: uint32(buf.UID), Raw: raw})
	}

	if err := fetchCmd.Close(); err != nil {
		return messages, fmt.Errorf("fetching messages: %w", err)
	}
	return messages, nil
}
