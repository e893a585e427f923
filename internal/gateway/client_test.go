package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avunu/commchat/internal/domain"
)

// procedureServer answers named-procedure calls with canned envelopes and
// records the last request for inspection.
type procedureServer struct {
	t         *testing.T
	responses map[string]string
	status    map[string]int

	lastPath string
	lastAuth string
	lastForm map[string]string
}

func (p *procedureServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(p.t, http.MethodPost, r.Method)
		require.NoError(p.t, r.ParseForm())

		p.lastPath = r.URL.Path
		p.lastAuth = r.Header.Get("Authorization")
		p.lastForm = make(map[string]string)
		for k := range r.PostForm {
			p.lastForm[k] = r.PostForm.Get(k)
		}

		procedure := r.URL.Path[strings.LastIndex(r.URL.Path, ".")+1:]
		if code, ok := p.status[procedure]; ok {
			w.WriteHeader(code)
		}
		body, ok := p.responses[procedure]
		if !ok {
			body = `{"message": null}`
		}
		w.Write([]byte(body))
	}
}

func newTestClient(t *testing.T, ps *procedureServer) (*Client, *httptest.Server) {
	ps.t = t
	srv := httptest.NewServer(ps.handler())
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "k", "s"), srv
}

func TestCallAddressesDottedProcedurePath(t *testing.T) {
	ps := &procedureServer{responses: map[string]string{
		"get_rooms": `{"message": {"rooms": [], "total": 0, "page": 1, "hasMore": false}}`,
	}}
	c, _ := newTestClient(t, ps)

	_, err := c.GetRooms(context.Background(), 1, 20, "ali", domain.MediumEmail)
	require.NoError(t, err)

	assert.Equal(t, "/api/method/messaging.messaging.api.chat.api.get_rooms", ps.lastPath)
	assert.Equal(t, "token k:s", ps.lastAuth)
	assert.Equal(t, "1", ps.lastForm["page"])
	assert.Equal(t, "20", ps.lastForm["limit"])
	assert.Equal(t, "ali", ps.lastForm["search"])
	assert.Equal(t, "Email", ps.lastForm["medium"])
}

func TestCustomMethodPrefix(t *testing.T) {
	ps := &procedureServer{responses: map[string]string{
		"get_unread_count": `{"message": 0}`,
	}}
	ps.t = t
	srv := httptest.NewServer(ps.handler())
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "k", "s", WithMethodPrefix("custom.api."))
	_, err := c.GetUnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/method/custom.api.get_unread_count", ps.lastPath)
}

func TestGetRoomsDecodesPage(t *testing.T) {
	ps := &procedureServer{responses: map[string]string{
		"get_rooms": `{"message": {
			"rooms": [{"roomId": "Email:alice@example.com", "roomName": "Alice", "unreadCount": 2}],
			"total": 41, "page": 1, "hasMore": true}}`,
	}}
	c, _ := newTestClient(t, ps)

	page, err := c.GetRooms(context.Background(), 1, 20, "", domain.MediumAll)
	require.NoError(t, err)
	assert.Equal(t, 41, page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Rooms, 1)
	assert.Equal(t, "Email:alice@example.com", page.Rooms[0].RoomID)
	assert.Equal(t, 2, page.Rooms[0].UnreadCount)
}

func TestGetCurrentUserRejectsMissingID(t *testing.T) {
	ps := &procedureServer{responses: map[string]string{
		"get_current_user": `{"message": {"username": "Someone"}}`,
	}}
	c, _ := newTestClient(t, ps)

	_, err := c.GetCurrentUser(context.Background())
	var shape *ShapeError
	require.ErrorAs(t, err, &shape)
	assert.Equal(t, "get_current_user", shape.Procedure)
}

func TestNullPayloadIsShapeError(t *testing.T) {
	ps := &procedureServer{responses: map[string]string{
		"get_messages": `{"message": null}`,
	}}
	c, _ := newTestClient(t, ps)

	_, err := c.GetMessages(context.Background(), "Chat:bob", 1, 50, "")
	var shape *ShapeError
	require.ErrorAs(t, err, &shape)
}

func TestServerErrorSurfacesException(t *testing.T) {
	ps := &procedureServer{
		responses: map[string]string{
			"archive_room": `{"exception": "PermissionError: not allowed", "exc_type": "PermissionError"}`,
		},
		status: map[string]int{"archive_room": http.StatusForbidden},
	}
	c, _ := newTestClient(t, ps)

	_, err := c.ArchiveRoom(context.Background(), "Email:a@x.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PermissionError")
	var shape *ShapeError
	assert.False(t, errors.As(err, &shape), "a declared server error is not a shape error")
}

func TestSendMessageEncodesOptions(t *testing.T) {
	ps := &procedureServer{responses: map[string]string{
		"send_message": `{"message": {"success": true, "message": {"_id": "COMM-0042", "content": "hi"}}}`,
	}}
	c, _ := newTestClient(t, ps)

	result, err := c.SendMessage(context.Background(), "Email:a@x.com", "hi", &SendOptions{
		Files:          []domain.MessageFile{{Name: "a.pdf", URL: "/private/files/a.pdf"}},
		ReplyMessageID: "COMM-0001",
		Subject:        "Re: quote",
	})
	require.NoError(t, err)
	assert.Equal(t, "COMM-0042", result.Message.ID)

	assert.Equal(t, "Email:a@x.com", ps.lastForm["room_id"])
	assert.Equal(t, "hi", ps.lastForm["content"])
	assert.Equal(t, "COMM-0001", ps.lastForm["reply_message_id"])
	assert.Equal(t, "Re: quote", ps.lastForm["subject"])

	var files []domain.MessageFile
	require.NoError(t, json.Unmarshal([]byte(ps.lastForm["files"]), &files))
	require.Len(t, files, 1)
	assert.Equal(t, "a.pdf", files[0].Name)
}

func TestSendMessageSuccessRequiresMessage(t *testing.T) {
	ps := &procedureServer{responses: map[string]string{
		"send_message": `{"message": {"success": true}}`,
	}}
	c, _ := newTestClient(t, ps)

	_, err := c.SendMessage(context.Background(), "Email:a@x.com", "hi", nil)
	var shape *ShapeError
	require.ErrorAs(t, err, &shape)
}

func TestSendMessageFailurePassesThrough(t *testing.T) {
	ps := &procedureServer{responses: map[string]string{
		"send_message": `{"message": {"success": false, "error": "recipient disabled"}}`,
	}}
	c, _ := newTestClient(t, ps)

	result, err := c.SendMessage(context.Background(), "Email:a@x.com", "hi", nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "recipient disabled", result.Error)
}

func TestGetUnreadCountDecodesBareInt(t *testing.T) {
	ps := &procedureServer{responses: map[string]string{
		"get_unread_count": `{"message": 7}`,
	}}
	c, _ := newTestClient(t, ps)

	count, err := c.GetUnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestSearchRoomsDecodesList(t *testing.T) {
	ps := &procedureServer{responses: map[string]string{
		"search_rooms": `{"message": [{"roomId": "SMS:+15550001111", "roomName": "+1 555 000 1111"}]}`,
	}}
	c, _ := newTestClient(t, ps)

	rooms, err := c.SearchRooms(context.Background(), "555", 10)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "SMS:+15550001111", rooms[0].RoomID)
	assert.Equal(t, "555", ps.lastForm["query"])
	assert.Equal(t, "10", ps.lastForm["limit"])
}

func TestUploadFilePostsMultipart(t *testing.T) {
	var gotPath, gotAuth, gotPrivate, gotFileName, gotContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		gotPrivate = r.FormValue("is_private")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFileName = header.Filename
		data, err := io.ReadAll(file)
		require.NoError(t, err)
		gotContent = string(data)

		w.Write([]byte(`{"message": {
			"name": "f0001",
			"file_name": "report.pdf",
			"file_url": "/private/files/report.pdf",
			"file_size": 4,
			"file_type": "PDF"}}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "k", "s")
	file, err := c.UploadFile(context.Background(), "report.pdf", strings.NewReader("%PDF"), "", "")
	require.NoError(t, err)

	assert.Equal(t, "/api/method/upload_file", gotPath)
	assert.Equal(t, "token k:s", gotAuth)
	assert.Equal(t, "1", gotPrivate, "uploads are always private")
	assert.Equal(t, "report.pdf", gotFileName)
	assert.Equal(t, "%PDF", gotContent)

	assert.Equal(t, "report.pdf", file.Name)
	assert.Equal(t, "pdf", file.Extension)
	assert.Equal(t, srv.URL+"/private/files/report.pdf", file.URL)
	assert.Equal(t, int64(4), file.Size)
}

func TestUploadFileRequiresFileURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": {"name": "f0001"}}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "k", "s")
	_, err := c.UploadFile(context.Background(), "report.pdf", strings.NewReader("x"), "", "")
	var shape *ShapeError
	require.ErrorAs(t, err, &shape)
}
