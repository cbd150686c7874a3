// Package client implements C1: the typed façade over the wire protocol
// internal/coordinator speaks. Every call (1) checks the matching
// permission, (2) assigns a fresh request id, (3) opens a unique ephemeral
// reply subscription, (4) publishes the command, (5) waits on the reply or
// a timeout, correlating the reply's request id back to the request
// (spec.md §4.1).
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hashmap-kz/govreg/internal/bus"
	"github.com/hashmap-kz/govreg/internal/coordinator"
	"github.com/hashmap-kz/govreg/internal/entry"
)

// DefaultTimeout is the reply-wait deadline a call uses when Options carries
// no "timeout_seconds" override (spec.md §4.1 "default 600 s").
const DefaultTimeout = 600 * time.Second

// Client is C1. Bus and Permissions are external collaborators reached
// only through their interfaces.
type Client struct {
	Bus         bus.Bus
	Permissions PermissionChecker
	// Timeout overrides DefaultTimeout when non-zero.
	Timeout time.Duration
}

// New builds a Client. checker may be nil, in which case every call is
// granted (see StaticChecker's zero value).
func New(b bus.Bus, checker PermissionChecker) *Client {
	if checker == nil {
		checker = NewAllowAll()
	}
	return &Client{Bus: b, Permissions: checker}
}

func (c *Client) timeout(options map[string]any) time.Duration {
	if options != nil {
		if secs, ok := options["timeout_seconds"]; ok {
			switch v := secs.(type) {
			case int:
				return time.Duration(v) * time.Second
			case float64:
				return time.Duration(v * float64(time.Second))
			}
		}
	}
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// GetState implements spec.md §4.1's get_state. It still checks
// registry.request.read (spec.md §6 "Permissions") even though the
// coordinator answers it synchronously off the busy flag.
func (c *Client) GetState(ctx context.Context, userID string) (*coordinator.StateInfo, error) {
	rep, err := c.call(ctx, userID, PermRead, coordinator.CommandEnvelope{Operation: coordinator.OpGetState}, 0)
	if err != nil {
		return nil, err
	}
	if !rep.Success {
		return nil, replyError(rep)
	}
	return rep.State, nil
}

// RequestChanges implements request_changes. cs may be a raw
// entry.Changeset or anything implementing entry.Builder, per spec.md
// §4.1 "If the caller supplies a changeset as an opaque builder object
// exposing an ops() accessor, the client extracts the raw operation list;
// otherwise it validates shape and forwards."
func (c *Client) RequestChanges(ctx context.Context, userID string, cs any, options map[string]any) (*coordinator.ReplyEnvelope, error) {
	ops, err := unwrapChangeset(cs)
	if err != nil {
		return nil, err
	}
	env := coordinator.CommandEnvelope{
		Operation: coordinator.OpApplyChanges,
		Changeset: ops,
		Options:   options,
	}
	return c.call(ctx, userID, PermWrite, env, 0)
}

// RequestVersion implements request_version.
func (c *Client) RequestVersion(ctx context.Context, userID, versionID string, options map[string]any) (*coordinator.ReplyEnvelope, error) {
	env := coordinator.CommandEnvelope{
		Operation: coordinator.OpApplyVersion,
		VersionID: versionID,
		Options:   options,
	}
	return c.call(ctx, userID, PermVersion, env, 0)
}

// RequestDownload implements request_download.
func (c *Client) RequestDownload(ctx context.Context, userID string, options map[string]any) (*coordinator.ReplyEnvelope, error) {
	env := coordinator.CommandEnvelope{Operation: coordinator.OpDownload, Options: options}
	return c.call(ctx, userID, PermSync, env, 0)
}

// RequestUpload implements request_upload. A successful upload is chained
// by the coordinator into the change pipeline server-side; this call waits
// for that single logical reply (spec.md §2 "the client sees one logical
// response for the pair").
func (c *Client) RequestUpload(ctx context.Context, userID string, options map[string]any) (*coordinator.ReplyEnvelope, error) {
	env := coordinator.CommandEnvelope{Operation: coordinator.OpUpload, Options: options}
	return c.call(ctx, userID, PermSync, env, 0)
}

// unwrapChangeset accepts a raw entry.Changeset, an entry.Builder, or nil.
func unwrapChangeset(cs any) (entry.Changeset, error) {
	switch v := cs.(type) {
	case nil:
		return nil, nil
	case entry.Changeset:
		return v, nil
	case []entry.ChangeOp:
		return entry.Changeset(v), nil
	case entry.Builder:
		return v.Ops(), nil
	default:
		return nil, fmt.Errorf("client: unsupported changeset value of type %T", cs)
	}
}

func replyError(rep *coordinator.ReplyEnvelope) error {
	if rep.Error != "" {
		return fmt.Errorf("%s", rep.Error)
	}
	return fmt.Errorf("%s", rep.Message)
}

// call implements steps (1)-(5) of spec.md §4.1. extraTimeout, when
// nonzero, overrides the options-derived timeout (used internally; public
// methods always pass 0 and rely on options["timeout_seconds"]).
func (c *Client) call(ctx context.Context, userID, permission string, env coordinator.CommandEnvelope, extraTimeout time.Duration) (*coordinator.ReplyEnvelope, error) {
	if err := c.Permissions.Check(userID, permission); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	replyTopic := "reply:" + requestID

	env.ID = requestID
	env.UserID = userID
	env.Timestamp = time.Now().Unix()
	env.RespondTo = replyTopic

	msgs, unsubscribe, err := c.Bus.Subscribe(ctx, replyTopic)
	if err != nil {
		return nil, fmt.Errorf("client: subscribe to reply topic: %w", err)
	}
	defer unsubscribe()

	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("client: marshal command: %w", err)
	}
	if err := c.Bus.Publish(ctx, bus.CommandTopic, payload); err != nil {
		return nil, fmt.Errorf("client: publish command: %w", err)
	}

	d := extraTimeout
	if d == 0 {
		d = c.timeout(env.Options)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, fmt.Errorf("client: timed out waiting for reply to request %s", requestID)
		case msg, ok := <-msgs:
			if !ok {
				return nil, fmt.Errorf("client: reply channel closed before a reply arrived")
			}
			var rep coordinator.ReplyEnvelope
			if err := json.Unmarshal(msg.Data, &rep); err != nil {
				continue
			}
			if rep.RequestID != requestID {
				return nil, fmt.Errorf("client: response for a different request")
			}
			return &rep, nil
		}
	}
}
