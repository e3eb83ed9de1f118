package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jkobber/bubble-quiz/auth"
	"github.com/jkobber/bubble-quiz/domain"
	"github.com/jkobber/bubble-quiz/game"
	"github.com/jkobber/bubble-quiz/storage"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"
)

const maxImportBytes = 5 << 20

// Coordinator is the room authority the gateway drives.
type Coordinator interface {
	CreateRoom(m game.Member) (game.Session, error)
	JoinRoom(code string, m game.Member) (game.Session, error)
	StartGame(ctx context.Context, code, token string, cfg game.GameConfig) error
	UpdateSettings(code, token string, patch game.SettingsPatch) error
	SubmitAnswer(code, token string, choice int) error
	UsePowerUp(code, token string, kind game.PowerUp) error
	Pause(code, token string) error
	Resume(code, token string) error
	SkipPhase(ctx context.Context, code, token string) error
	DeleteRoom(code, token string) (bool, error)
	ForceDeleteRoom(code string) bool
	Disconnect(code, token, connID string)
	Snapshot(code string) (game.RoomSnapshot, error)
	ListPublic() []game.RoomSummary
}

// QuestionCatalog is the persistent question store behind the HTTP routes.
type QuestionCatalog interface {
	ImportQuestions(ctx context.Context, collection string, tags []string, questions []domain.Question) (int, error)
	DeleteQuestion(ctx context.Context, id int64) error
	ListCollections(ctx context.Context) ([]domain.Collection, error)
	ListTags(ctx context.Context) ([]domain.Tag, error)
}

type Options struct {
	PingInterval time.Duration
	EventTimeout time.Duration
	RateLimit    rate.Limit
	RateBurst    int
	SendBuffer   int
	PublicURL    string
}

func DefaultOptions() Options {
	return Options{
		PingInterval: 30 * time.Second,
		EventTimeout: 5 * time.Second,
		RateLimit:    5,
		RateBurst:    5,
		SendBuffer:   64,
	}
}

type Gateway struct {
	coord    Coordinator
	hub      *Hub
	catalog  QuestionCatalog
	opts     Options
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func New(coord Coordinator, hub *Hub, catalog QuestionCatalog, opts Options, log zerolog.Logger) *Gateway {
	return &Gateway{
		coord:    coord,
		hub:      hub,
		catalog:  catalog,
		opts:     opts,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// origins are enforced by the server middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and runs the connection until it closes. A
// valid session cookie, if any, was resolved by the auth middleware.
func (g *Gateway) ServeWS(ctx *gin.Context) {
	conn, err := g.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		g.log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}

	var identity *domain.Identity
	if id, ok := auth.IdentityFrom(ctx); ok {
		identity = &id
	}

	cl := newClient(uuid.NewString(), NewWebsocketConnection(conn), identity, g.opts)
	g.hub.register(cl)
	g.log.Debug().Str("conn", cl.id).Msg("connection opened")

	go cl.WritePump(g.opts.PingInterval)
	cl.ReadPump(context.Background(), g)
	g.log.Debug().Str("conn", cl.id).Msg("connection closed")
}

func (g *Gateway) ListRoomsHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"rooms": g.coord.ListPublic()})
}

// RoomQRHandler renders a PNG QR code pointing at the room's join link.
func (g *Gateway) RoomQRHandler(ctx *gin.Context) {
	snap, err := g.coord.Snapshot(ctx.Param("code"))
	if err != nil {
		ctx.String(http.StatusNotFound, game.ErrRoomNotFound.Error())
		return
	}

	link := g.opts.PublicURL + "/?room=" + url.QueryEscape(snap.Code)
	png, err := qrcode.Encode(link, qrcode.Medium, 320)
	if err != nil {
		g.log.Error().Err(err).Str("room", snap.Code).Msg("qr encoding failed")
		ctx.String(http.StatusInternalServerError, unknownErrorCode)
		return
	}
	ctx.Data(http.StatusOK, "image/png", png)
}

func (g *Gateway) AdminDeleteRoomHandler(ctx *gin.Context) {
	if !g.coord.ForceDeleteRoom(ctx.Param("code")) {
		ctx.String(http.StatusNotFound, game.ErrRoomNotFound.Error())
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ImportQuestionsHandler reads a semicolon separated CSV body into a
// collection, optionally tagging every row with the comma separated tags.
func (g *Gateway) ImportQuestionsHandler(ctx *gin.Context) {
	collection := strings.TrimSpace(ctx.DefaultQuery("collection", storage.DefaultCollection))
	if collection == "" {
		collection = storage.DefaultCollection
	}
	tags := parseTags(ctx.Query("tags"))

	questions, err := storage.ParseQuestionsCSV(http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxImportBytes))
	if err != nil {
		ctx.String(http.StatusBadRequest, err.Error())
		return
	}

	n, err := g.catalog.ImportQuestions(ctx.Request.Context(), collection, tags, questions)
	if err != nil {
		g.storeError(ctx, err, "question import failed")
		return
	}

	g.log.Info().Str("collection", collection).Strs("tags", tags).Int("questions", n).Msg("questions imported")
	ctx.JSON(http.StatusCreated, gin.H{"collection": collection, "imported": n})
}

func (g *Gateway) DeleteQuestionHandler(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.String(http.StatusBadRequest, auth.ErrInvalidRequestFormatStr)
		return
	}
	if err := g.catalog.DeleteQuestion(ctx.Request.Context(), id); err != nil {
		g.storeError(ctx, err, "question delete failed")
		return
	}
	ctx.Status(http.StatusNoContent)
}

func (g *Gateway) ListCollectionsHandler(ctx *gin.Context) {
	collections, err := g.catalog.ListCollections(ctx.Request.Context())
	if err != nil {
		g.storeError(ctx, err, "listing collections failed")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"collections": collections})
}

func (g *Gateway) ListTagsHandler(ctx *gin.Context) {
	tags, err := g.catalog.ListTags(ctx.Request.Context())
	if err != nil {
		g.storeError(ctx, err, "listing tags failed")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"tags": tags})
}

func (g *Gateway) storeError(ctx *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuestion):
		ctx.String(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrQuestionNotFound):
		ctx.String(http.StatusNotFound, domain.ErrQuestionNotFound.Error())
	case errors.Is(err, context.DeadlineExceeded):
		ctx.String(http.StatusGatewayTimeout, auth.ErrServerTimeoutStr)
	case errors.Is(err, context.Canceled):
		ctx.Status(499)
	default:
		g.log.Error().Err(err).Str("path", ctx.FullPath()).Msg(msg)
		ctx.String(http.StatusInternalServerError, unknownErrorCode)
	}
}

func parseTags(raw string) []string {
	tags := make([]string, 0)
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" && !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}
