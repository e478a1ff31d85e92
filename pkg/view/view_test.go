package view

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/parley-chat/parley/pkg/db"
	"github.com/parley-chat/parley/pkg/event"
	"github.com/parley-chat/parley/pkg/models"
	"github.com/parley-chat/parley/pkg/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func text(s string) View {
	return Func(func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func TestBoundary_NormalPassesOutputThrough(t *testing.T) {
	b := NewBoundary("root", Named("body", text("<p>ok</p>")), discard)
	var buf bytes.Buffer
	require.NoError(t, b.Render(&buf))
	assert.Equal(t, Normal, b.State())
	assert.Nil(t, b.Fault())
	assert.Equal(t, "<p>ok</p>", buf.String())
}

func TestBoundary_ErrorShowsFallbackWithPath(t *testing.T) {
	root := Named("page", Sequence(
		text("partial output"),
		Named("messages", Func(func(io.Writer) error { return errors.New("boom") })),
	))
	b := NewBoundary("conversation", root, discard)

	var buf bytes.Buffer
	require.NoError(t, b.Render(&buf))
	assert.Equal(t, Faulted, b.State())
	require.NotNil(t, b.Fault())
	assert.Equal(t, "boom", b.Fault().Summary)
	assert.Equal(t, []string{"conversation", "page", "messages"}, b.Fault().Path)

	out := buf.String()
	assert.NotContains(t, out, "partial output")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "Reload page")
	assert.Contains(t, out, "<details>")
	assert.Contains(t, out, "conversation &gt; page &gt; messages")
}

func TestBoundary_PanicCapturesStack(t *testing.T) {
	var conv *models.Conversation
	root := Named("page", Named("title", Func(func(w io.Writer) error {
		_, err := io.WriteString(w, conv.Title) // nil dereference
		return err
	})))
	b := NewBoundary("conversation", root, discard)

	var buf bytes.Buffer
	require.NoError(t, b.Render(&buf))
	assert.Equal(t, Faulted, b.State())
	f := b.Fault()
	require.NotNil(t, f)
	assert.True(t, strings.HasPrefix(f.Summary, "panic: "), f.Summary)
	assert.Equal(t, []string{"conversation", "page", "title"}, f.Path)
	assert.Contains(t, f.Stack, "goroutine")
	assert.Contains(t, buf.String(), "Technical details")
}

func TestBoundary_UnnamedPanic(t *testing.T) {
	b := NewBoundary("root", Func(func(io.Writer) error { panic("raw") }), discard)
	var buf bytes.Buffer
	require.NoError(t, b.Render(&buf))
	assert.Equal(t, "panic: raw", b.Fault().Summary)
	assert.Equal(t, []string{"root"}, b.Fault().Path)
}

func TestRenderMarkdown_DropsRawHTML(t *testing.T) {
	out, err := renderMarkdown("**bold** <script>alert(1)</script>")
	require.NoError(t, err)
	assert.Contains(t, string(out), "<strong>bold</strong>")
	assert.NotContains(t, string(out), "<script>")
}

func newPagesRouter(t *testing.T) (*gin.Engine, *service.Services) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	gdb, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "view.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, db.Migrate(gdb))

	svcs, err := service.New(gdb, event.NewEmitter(), "")
	require.NoError(t, err)
	_, err = svcs.Users.EnsureDefault(context.Background())
	require.NoError(t, err)

	r := gin.New()
	NewPages(svcs, discard).RegisterRoutes(r.Group("/view"))
	return r, svcs
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestPages_RenderConversationAndShare(t *testing.T) {
	r, svcs := newPagesRouter(t)
	ctx := context.Background()
	uid := service.DefaultUserID

	conv, err := svcs.Conversations.Create(ctx, uid, &models.CreateConversationRequest{Title: "Diagram chat"})
	require.NoError(t, err)
	msg, err := svcs.Messages.Create(ctx, uid, conv.ID, &models.CreateMessageRequest{Role: models.RoleAssistant, Content: "Here is a *flowchart*"})
	require.NoError(t, err)
	_, err = svcs.Artifacts.Create(ctx, uid, conv.ID, &models.CreateArtifactRequest{
		MessageID: msg.ID, Type: models.ArtifactTypeMermaid, Title: "Flow", Content: "graph TD; A-->B",
	})
	require.NoError(t, err)

	w := get(r, "/view/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Diagram chat")

	w = get(r, "/view/c/"+strconv.FormatUint(uint64(conv.ID), 10))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Contains(t, body, "<em>flowchart</em>")
	assert.Contains(t, body, `class="mermaid"`)
	assert.Contains(t, body, "A--&gt;B")

	assert.Equal(t, http.StatusNotFound, get(r, "/view/c/999").Code)
	assert.Equal(t, http.StatusNotFound, get(r, "/view/c/abc").Code)

	share, err := svcs.Shares.Create(ctx, uid, conv.ID, &models.CreateShareRequest{})
	require.NoError(t, err)
	w = get(r, "/view/s/"+share.ShareToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "viewed 1 times")
	assert.Equal(t, http.StatusNotFound, get(r, "/view/s/nope").Code)
}

func TestServe_FaultedPageIs500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/broken", func(c *gin.Context) {
		Serve(c, "broken", http.StatusOK, page("Broken", failed("load", errors.New("database is locked"))), discard)
	})
	w := get(r, "/broken")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "database is locked")
	assert.Contains(t, w.Body.String(), "Reload page")
}

func TestMessages_ImageSourcesAreFiltered(t *testing.T) {
	msgs := []models.Message{{
		Role:    models.RoleUser,
		Content: "look",
		Images: models.ImageAttachments{
			{Name: "ok", URL: "https://example.com/a.png"},
			{Name: "script", URL: "javascript:alert(1)"},
			{Name: "inline", MediaType: "image/jpeg", Data: "QUJD"},
			{Name: "html", MediaType: "text/html", Data: "PGI+"},
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, pageTmpl.ExecuteTemplate(&buf, "messages", msgs))
	out := buf.String()

	assert.Contains(t, out, `alt="ok" src="https://example.com/a.png"`)
	assert.Contains(t, out, `alt="script" src="#ZgotmplZ"`)
	assert.NotContains(t, out, "javascript:")
	assert.Contains(t, out, `alt="inline" src="data:image/jpeg;base64,QUJD"`)
	assert.Contains(t, out, `alt="html" src="#ZgotmplZ"`)
}
