package ai

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/meridiancrm/core/internal/db"
)

// Source tags where a merged record came from.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
	SourceMerged Source = "merged"
)

// ContactRecord is a natural-key-addressable contact, tagged with its
// origin after a composite read-through merge.
type ContactRecord struct {
	Contact db.Contact
	Source  Source
}

// RemoteContactFetcher fetches a contact from an external CRM by natural
// key (email, then name as fallback). Implementations live alongside the
// per-integration sync dispatchers; this package only consumes the
// interface (spec §9 "composite read-through integrations").
type RemoteContactFetcher interface {
	FetchContactByEmail(ctx context.Context, email string) (db.Contact, error)
	FetchContactByName(ctx context.Context, firstName, lastName string) (db.Contact, error)
}

// FetchContactComposite queries the local store and a remote CRM in
// parallel, tolerating either source's individual failure, then merges by
// case-insensitive natural key (email, name fallback) with the local
// record winning ties (spec §9).
func FetchContactComposite(ctx context.Context, q *db.Queries, remote RemoteContactFetcher, email, firstName, lastName string) (ContactRecord, error) {
	var (
		wg                   sync.WaitGroup
		local, remoteContact db.Contact
		localErr, remoteErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		local, localErr = q.GetContactByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	}()
	go func() {
		defer wg.Done()
		if remote == nil {
			remoteErr = errors.New("no remote source configured")
			return
		}
		remoteContact, remoteErr = remote.FetchContactByEmail(ctx, email)
		if remoteErr != nil && firstName != "" {
			remoteContact, remoteErr = remote.FetchContactByName(ctx, firstName, lastName)
		}
	}()
	wg.Wait()

	localOK := localErr == nil
	remoteOK := remoteErr == nil

	switch {
	case localOK && remoteOK:
		if sameContact(local, remoteContact) {
			return ContactRecord{Contact: local, Source: SourceMerged}, nil
		}
		// Local wins on tie (both resolved, identities disagree): the
		// internal store is the reconciliation system of record.
		return ContactRecord{Contact: local, Source: SourceLocal}, nil
	case localOK:
		return ContactRecord{Contact: local, Source: SourceLocal}, nil
	case remoteOK:
		return ContactRecord{Contact: remoteContact, Source: SourceRemote}, nil
	default:
		if errors.Is(localErr, pgx.ErrNoRows) {
			return ContactRecord{}, remoteErr
		}
		return ContactRecord{}, localErr
	}
}

func sameContact(a, b db.Contact) bool {
	return strings.EqualFold(a.Email, b.Email) ||
		(strings.EqualFold(a.FirstName, b.FirstName) && strings.EqualFold(a.LastName, b.LastName))
}
