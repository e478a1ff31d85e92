package view

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/parley-chat/parley/pkg/models"
	"github.com/parley-chat/parley/pkg/service"
	"github.com/yuin/goldmark"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var md = goldmark.New()

var pageTmpl = template.Must(template.New("pages").Funcs(template.FuncMap{
	"markdown": renderMarkdown,
	"ago":      func(t time.Time) string { return humanize.Time(t) },
	"imageSrc": imageSrc,
}).ParseFS(templateFS, "templates/*.tmpl"))

// renderMarkdown converts message text to HTML. Raw HTML in the source is
// not passed through.
func renderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// imageSrc trusts only inline image data. Linked URLs stay plain strings
// so html/template filters unsafe schemes.
func imageSrc(img models.ImageAttachment) any {
	if img.Data != "" {
		mt := img.MediaType
		if mt == "" {
			mt = "image/png"
		}
		if strings.HasPrefix(mt, "image/") && !strings.ContainsAny(mt, ";,\"") {
			return template.URL("data:" + mt + ";base64," + img.Data)
		}
		return "data:" + mt + ";base64," + img.Data
	}
	return img.URL
}

// section renders one named template with data.
func section(name string, data any) View {
	return Named(name, Func(func(w io.Writer) error {
		return pageTmpl.ExecuteTemplate(w, name, data)
	}))
}

// failed is a view that reports err when rendered, so load failures
// surface through the boundary like any other render fault.
func failed(name string, err error) View {
	return Named(name, Func(func(io.Writer) error { return err }))
}

func page(title string, body ...View) View {
	views := append([]View{section("head", title)}, body...)
	return Named("page", Sequence(append(views, section("foot", nil))...))
}

// IndexPage lists live, unarchived conversations.
func IndexPage(conversations []models.Conversation) View {
	return page("Conversations", section("index", conversations))
}

// ConversationPage shows a conversation with its messages and latest artifacts.
func ConversationPage(conv *models.Conversation, messages []models.Message, artifacts []models.Artifact) View {
	return page(conv.Title,
		section("title", conv),
		section("messages", messages),
		section("artifacts", artifacts),
	)
}

// SharedPage is the read-only page behind a share link.
func SharedPage(v *models.SharedConversationView) View {
	return page(v.Conversation.Title,
		section("title", &v.Conversation),
		section("shared-banner", v.ViewCount),
		section("messages", v.Messages),
		section("artifacts", v.Artifacts),
	)
}

// NotFoundPage is rendered with status 404.
func NotFoundPage(msg string) View {
	return page("Not found", section("notfound", msg))
}

// Pages serves the HTML routes.
type Pages struct {
	svcs   *service.Services
	logger *slog.Logger
}

// NewPages creates the page handlers
func NewPages(svcs *service.Services, logger *slog.Logger) *Pages {
	return &Pages{svcs: svcs, logger: logger}
}

// RegisterRoutes registers page routes under r (normally /view)
func (p *Pages) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/", p.Index)
	r.GET("/c/:id", p.Conversation)
	r.GET("/s/:token", p.Shared)
}

// Serve renders v inside a boundary and writes the result with a status
// matching the boundary state.
func Serve(c *gin.Context, name string, status int, v View, logger *slog.Logger) {
	b := NewBoundary(name, v, logger)
	var buf bytes.Buffer
	if err := b.Render(&buf); err != nil {
		logger.Error("write page", "page", name, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if b.State() == Faulted {
		status = http.StatusInternalServerError
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

// Index handles GET /view/
func (p *Pages) Index(c *gin.Context) {
	convs, err := p.svcs.Conversations.List(c.Request.Context(), service.DefaultUserID, models.ConversationFilter{})
	if err != nil {
		Serve(c, "index", http.StatusOK, page("Conversations", failed("load-conversations", err)), p.logger)
		return
	}
	Serve(c, "index", http.StatusOK, IndexPage(convs), p.logger)
}

// Conversation handles GET /view/c/:id
func (p *Pages) Conversation(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		Serve(c, "conversation", http.StatusNotFound, NotFoundPage("No such conversation."), p.logger)
		return
	}
	ctx := c.Request.Context()
	userID := service.DefaultUserID

	conv, err := p.svcs.Conversations.Get(ctx, userID, uint(id))
	if errors.Is(err, service.ErrNotFound) {
		Serve(c, "conversation", http.StatusNotFound, NotFoundPage("No such conversation."), p.logger)
		return
	}
	if err != nil {
		Serve(c, "conversation", http.StatusOK, page("Conversation", failed("load-conversation", err)), p.logger)
		return
	}
	messages, err := p.svcs.Messages.List(ctx, userID, conv.ID)
	if err != nil {
		Serve(c, "conversation", http.StatusOK, page(conv.Title, failed("load-messages", err)), p.logger)
		return
	}
	artifacts, err := p.svcs.Artifacts.ListByConversation(ctx, userID, conv.ID, false)
	if err != nil {
		Serve(c, "conversation", http.StatusOK, page(conv.Title, failed("load-artifacts", err)), p.logger)
		return
	}
	Serve(c, "conversation", http.StatusOK, ConversationPage(conv, messages, artifacts), p.logger)
}

// Shared handles GET /view/s/:token
func (p *Pages) Shared(c *gin.Context) {
	v, err := p.svcs.Shares.View(c.Request.Context(), c.Param("token"))
	if errors.Is(err, service.ErrNotFound) {
		Serve(c, "shared", http.StatusNotFound, NotFoundPage("This link is invalid or has expired."), p.logger)
		return
	}
	if err != nil {
		Serve(c, "shared", http.StatusOK, page("Shared conversation", failed("load-share", err)), p.logger)
		return
	}
	Serve(c, "shared", http.StatusOK, SharedPage(v), p.logger)
}
