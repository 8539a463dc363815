package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anoixa/image-gallery/cache/memory"
	"github.com/anoixa/image-gallery/config"
	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/database/testdb"
	"github.com/anoixa/image-gallery/internal/app"
	"github.com/anoixa/image-gallery/storage"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testSecret = strings.Repeat("s", 32)

type envelope struct {
	Status string          `json:"status"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
}

type testServer struct {
	router http.Handler
	db     *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testdb.Open(t)
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	mem, err := memory.NewMemory(memory.DefaultConfig(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })

	cfg := &config.Config{
		ServerDomain:        "http://gallery.test",
		JWTSecret:           testSecret,
		ServerMaxInFlight:   4,
		RateLimitApiRPS:     1000,
		RateLimitApiBurst:   1000,
		RateLimitImageRPS:   1000,
		RateLimitImageBurst: 1000,
		UploadMaxSizeMB:     1,
	}

	container, err := app.NewContainerWith(cfg, db, mem, local)
	require.NoError(t, err)

	router, cleanup := NewRouter(cfg, container)
	t.Cleanup(cleanup)
	return &testServer{router: router, db: db}
}

func tokenFor(t *testing.T, user *models.User, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(time.Hour).Unix(),
	}
	if role != "" {
		claims["role"] = role
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *testServer) doJSON(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, req, token)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil), "")
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, map[string]string{"database": "ok", "cache": "ok", "storage": "ok"}, body.Checks)

	w, env := s.do(t, httptest.NewRequest(http.MethodGet, "/version", nil), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "success", env.Status)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestImageLifecycle(t *testing.T) {
	s := newTestServer(t)
	alice := testdb.SeedUser(t, s.db, "alice")
	bob := testdb.SeedUser(t, s.db, "bob")
	aliceToken := tokenFor(t, alice, "")
	bobToken := tokenFor(t, bob, "")

	// 上传
	w, env := s.do(t, uploadRequest(t, "sunset.png", pngBytes(t, 320, 200), map[string]string{
		"title":       "Sunset",
		"description": "over the sea",
		"tags":        "Sea, sky",
	}), aliceToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var uploaded struct {
		ImageID      string   `json:"image_id"`
		Title        string   `json:"title"`
		Owner        string   `json:"owner"`
		ThumbnailURL string   `json:"thumbnail_url"`
		Tags         []string `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &uploaded))
	assert.Len(t, uploaded.ImageID, 16)
	assert.Equal(t, "Sunset", uploaded.Title)
	assert.Equal(t, "alice", uploaded.Owner)
	assert.Equal(t, "http://gallery.test/thumbnails/"+uploaded.ImageID, uploaded.ThumbnailURL)
	assert.ElementsMatch(t, []string{"sea", "sky"}, uploaded.Tags)
	id := uploaded.ImageID

	// 原图与缩略图
	w, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/images/"+id, nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/thumbnails/"+id, nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	thumb, err := png.DecodeConfig(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 240, thumb.Width)
	assert.Equal(t, 240, thumb.Height)

	// 投票与撤销
	path := fmt.Sprintf("/api/v1/images/%s/vote", id)
	w, env = s.doJSON(t, http.MethodPost, path, bobToken, gin.H{"direction": "up"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, fmt.Sprintf(`{"image_id":%q,"outcome":"recorded","metrics":{"total":1,"upvotes":1,"downvotes":0}}`, id), string(env.Data))

	w, env = s.doJSON(t, http.MethodPost, path, bobToken, gin.H{"direction": "down"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"outcome":"switched"`)

	w, env = s.doJSON(t, http.MethodGet, "/api/v1/images/"+id+"/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"total":-1`)

	// 图库
	w, env = s.doJSON(t, http.MethodGet, "/api/v1/gallery?sort_by=score&order=desc&user=alice", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Items []struct {
			ImageID string `json:"image_id"`
		} `json:"items"`
		Total int64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Items, 1)
	assert.Equal(t, id, list.Items[0].ImageID)

	// 编辑
	w, _ = s.doJSON(t, http.MethodPatch, "/api/v1/images/"+id, bobToken, gin.H{"title": "Mine"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.doJSON(t, http.MethodPatch, "/api/v1/images/"+id, aliceToken, gin.H{"title": "Dusk"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"title":"Dusk"`)

	w, env = s.doJSON(t, http.MethodGet, "/api/v1/images/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"title":"Dusk"`)

	// 删除
	w, _ = s.doJSON(t, http.MethodDelete, "/api/v1/images/"+id, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.doJSON(t, http.MethodDelete, "/api/v1/images/"+id, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"title":"Dusk"`)

	for _, p := range []string{"/api/v1/images/" + id, "/api/v1/images/" + id + "/metrics", "/images/" + id, "/thumbnails/" + id} {
		w, _ = s.doJSON(t, http.MethodGet, p, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, p)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)
	alice := testdb.SeedUser(t, s.db, "alice")

	w, env := s.do(t, uploadRequest(t, "a.png", pngBytes(t, 10, 10), map[string]string{"title": "A"}), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "error", env.Status)

	w, _ = s.doJSON(t, http.MethodPost, "/api/v1/images/0000000000000001/vote", "", gin.H{"direction": "up"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := tokenFor(t, alice, "")
	w, _ = s.doJSON(t, http.MethodPost, "/api/v1/images/0000000000000001/vote", token, gin.H{"direction": "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.doJSON(t, http.MethodPost, "/api/v1/images/0000000000000001/vote", token, gin.H{"direction": "up"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadValidation(t *testing.T) {
	s := newTestServer(t)
	alice := testdb.SeedUser(t, s.db, "alice")
	token := tokenFor(t, alice, "")

	tests := []struct {
		name     string
		filename string
		data     []byte
		fields   map[string]string
		status   int
	}{
		{"missing file", "", nil, map[string]string{"title": "A"}, http.StatusBadRequest},
		{"missing title", "a.png", pngBytes(t, 10, 10), nil, http.StatusBadRequest},
		{"extension not allowed", "a.gif", pngBytes(t, 10, 10), map[string]string{"title": "A"}, http.StatusBadRequest},
		{"content mismatch", "a.png", []byte("plain text, not an image"), map[string]string{"title": "A"}, http.StatusBadRequest},
		{"too many tags", "a.png", pngBytes(t, 10, 10), map[string]string{"title": "A", "tags": "a,b,c,d,e,f,g,h,i"}, http.StatusBadRequest},
		{"too large", "a.png", make([]byte, 3<<19), map[string]string{"title": "A"}, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := s.do(t, uploadRequest(t, tt.filename, tt.data, tt.fields), token)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, "error", env.Status)
		})
	}

	var count int64
	require.NoError(t, s.db.Model(&models.ImageContent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGalleryQueryErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		query  string
		status int
	}{
		{"", http.StatusOK},
		{"?page=abc", http.StatusBadRequest},
		{"?page=0", http.StatusBadRequest},
		{"?sort_by=title", http.StatusBadRequest},
		{"?order=up", http.StatusBadRequest},
		{"?page=2", http.StatusNotFound},
		{"?user=nobody", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w, _ := s.doJSON(t, http.MethodGet, "/api/v1/gallery"+tt.query, "", nil)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w, _ := s.doJSON(t, http.MethodGet, "/api/v1/images/bad.id", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminSettings(t *testing.T) {
	s := newTestServer(t)
	user := testdb.SeedUser(t, s.db, "alice")
	root := testdb.SeedUser(t, s.db, "root")
	userToken := tokenFor(t, user, "")
	adminToken := tokenFor(t, root, "admin")

	w, _ := s.doJSON(t, http.MethodGet, "/api/v1/admin/settings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.doJSON(t, http.MethodGet, "/api/v1/admin/settings", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.doJSON(t, http.MethodGet, "/api/v1/admin/settings", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"page_size":20`)

	w, _ = s.doJSON(t, http.MethodPut, "/api/v1/admin/settings", adminToken, gin.H{"thumbnail_size": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.doJSON(t, http.MethodPut, "/api/v1/admin/settings", adminToken, gin.H{
		"page_size":          2,
		"allowed_extensions": []string{"png", ".GIF"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), `"allowed_extensions":[".png",".gif"]`)

	// 新配置立即生效
	w, env = s.doJSON(t, http.MethodGet, "/api/v1/gallery", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"page_size":2`)
}
