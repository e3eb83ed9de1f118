package gateway

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jkobber/bubble-quiz/domain"
	"github.com/jkobber/bubble-quiz/game"
	"golang.org/x/time/rate"
)

// client is one websocket connection. code and token are the room session
// bound to it; only the read pump touches them.
type client struct {
	id          string
	socket      WebsocketConnection
	identity    *domain.Identity
	rateLimiter *rate.Limiter
	inbox       chan []byte
	done        chan struct{}
	closeOnce   sync.Once

	code  string
	token string
}

func newClient(id string, socket WebsocketConnection, identity *domain.Identity, opts Options) *client {
	return &client{
		id:          id,
		socket:      socket,
		identity:    identity,
		rateLimiter: rate.NewLimiter(opts.RateLimit, opts.RateBurst),
		inbox:       make(chan []byte, opts.SendBuffer),
		done:        make(chan struct{}),
	}
}

// enqueue never blocks; a full buffer drops the message.
func (cl *client) enqueue(data []byte) bool {
	select {
	case <-cl.done:
		return false
	case cl.inbox <- data:
		return true
	default:
		return false
	}
}

func (cl *client) close() {
	cl.closeOnce.Do(func() { close(cl.done) })
}

const userTokenPrefix = "user:"

// playerToken prefers the signed-in identity over a client supplied token.
// Anonymous clients cannot claim a token of the signed-in namespace; they get
// a fresh one instead.
func (cl *client) playerToken(supplied string) string {
	if cl.identity != nil {
		return userTokenPrefix + cl.identity.UserId
	}
	if strings.HasPrefix(supplied, userTokenPrefix) {
		return ""
	}
	return supplied
}

func (cl *client) defaultName(name string) string {
	if name == "" && cl.identity != nil {
		return sanitizeName(cl.identity.Username)
	}
	return name
}

// tokenFor returns the session token if code is the bound room.
func (cl *client) tokenFor(code string) string {
	if cl.code != "" && strings.EqualFold(strings.TrimSpace(code), cl.code) {
		return cl.token
	}
	return ""
}

func (cl *client) bind(session game.Session) {
	cl.code = session.Code
	cl.token = session.Token
}

func (cl *client) unbind() {
	cl.code = ""
	cl.token = ""
}

func (cl *client) ReadPump(ctx context.Context, g *Gateway) {
	defer func() {
		g.hub.unregister(cl.id)
		if cl.code != "" {
			g.coord.Disconnect(cl.code, cl.token, cl.id)
		}
		cl.close()
	}()

	for {
		data, err := cl.socket.Read()
		if err != nil {
			return
		}

		if !cl.rateLimiter.Allow() {
			g.sendError(cl, ErrRateLimited)
			continue
		}

		eventCtx, cancel := context.WithTimeout(ctx, g.opts.EventTimeout)
		g.dispatch(eventCtx, cl, data)
		cancel()
	}
}

func (cl *client) WritePump(pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer cl.socket.Close("bye")

	for {
		select {
		case <-cl.done:
			return
		case data := <-cl.inbox:
			if err := cl.socket.Write(data); err != nil {
				cl.close()
				return
			}
		case <-ticker.C:
			if err := cl.socket.Ping(); err != nil {
				cl.close()
				return
			}
		}
	}
}
