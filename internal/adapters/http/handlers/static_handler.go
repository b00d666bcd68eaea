// Package handlers - HTTP handlers dev-сервера.
//
// StaticHandler раздаёт файлы из базового каталога. Все маршруты,
// не занятые служебными endpoints, попадают сюда через NoRoute.
package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"slices"
	"strings"
	"syscall"

	"github.com/Haleralex/tokenforge-devserver/internal/adapters/http/common"
	"github.com/Haleralex/tokenforge-devserver/internal/adapters/http/middleware"
	domainerrors "github.com/Haleralex/tokenforge-devserver/internal/domain/errors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

// AllowedMethods - значение заголовка Allow для 405.
const AllowedMethods = "GET, HEAD, POST, OPTIONS"

// Причины отказа для метрик.
const (
	reasonNotFound         = "not_found"
	reasonForbidden        = "forbidden"
	reasonMethodNotAllowed = "method_not_allowed"
	reasonInternal         = "internal"
)

var listingTemplate = template.Must(template.New("listing").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Directory listing for {{.Path}}</title>
</head>
<body>
<h1>Directory listing for {{.Path}}</h1>
<hr>
<ul>
{{range .Entries}}<li><a href="{{.Href}}">{{.Name}}</a></li>
{{end}}</ul>
<hr>
</body>
</html>
`))

// ============================================
// Static Handler
// ============================================

// StaticHandler раздаёт файлы из одного каталога.
//
// Доступ к файловой системе идёт через os.Root: ни "..", ни symlink
// не выводят за пределы каталога.
type StaticHandler struct {
	root   *os.Root
	dir    string
	index  string
	logger *slog.Logger
}

// listingEntry - строка в HTML-листинге каталога.
type listingEntry struct {
	Name string
	Href string
}

// NewStaticHandler открывает каталог dir и создаёт handler.
func NewStaticHandler(dir, index string, logger *slog.Logger) (*StaticHandler, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open static dir %s: %w", dir, err)
	}
	if index == "" {
		index = "index.html"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StaticHandler{
		root:   root,
		dir:    dir,
		index:  index,
		logger: logger,
	}, nil
}

// Dir возвращает раздаваемый каталог.
func (h *StaticHandler) Dir() string {
	return h.dir
}

// Index возвращает имя index-файла каталогов.
func (h *StaticHandler) Index() string {
	return h.index
}

// Close освобождает дескриптор каталога.
func (h *StaticHandler) Close() error {
	return h.root.Close()
}

// Serve обрабатывает запрос к файлу.
//
// GET, HEAD и POST читают файл (тело POST игнорируется),
// остальные методы получают 405. OPTIONS сюда не доходит: его
// завершает CORS middleware.
func (h *StaticHandler) Serve(c *gin.Context) {
	urlPath := c.Request.URL.Path

	switch c.Request.Method {
	case http.MethodGet, http.MethodHead, http.MethodPost:
	default:
		c.Header("Allow", AllowedMethods)
		h.fail(c, reasonMethodNotAllowed, domainerrors.MethodNotAllowed(urlPath, c.Request.Method))
		return
	}

	if containsDotDot(urlPath) {
		h.fail(c, reasonForbidden, domainerrors.Forbidden(urlPath))
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		name = "."
	}

	f, err := h.root.Open(name)
	if err != nil {
		h.openFailed(c, urlPath, err)
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		h.fail(c, reasonInternal, fmt.Errorf("stat %s: %w", name, err))
		return
	}

	if !fi.IsDir() {
		h.serveFile(c, f, fi)
		return
	}

	// Каталог без "/" в конце: относительные ссылки index.html иначе сломаются
	if !strings.HasSuffix(urlPath, "/") {
		h.redirectToDir(c, name)
		return
	}

	if idx, err := h.root.Open(path.Join(name, h.index)); err == nil {
		defer idx.Close()
		if ifi, err := idx.Stat(); err == nil && !ifi.IsDir() {
			h.serveFile(c, idx, ifi)
			return
		}
	}

	h.serveListing(c, f, urlPath)
}

// redirectToDir отправляет 301 на форму пути со слэшем.
//
// Location относительный и экранированный: имя каталога может содержать
// "?", "%" или начинаться как хост ("//evil.example").
func (h *StaticHandler) redirectToDir(c *gin.Context, name string) {
	target := "./" + (&url.URL{Path: path.Base(name)}).EscapedPath() + "/"
	if q := c.Request.URL.RawQuery; q != "" {
		target += "?" + q
	}
	c.Header("Location", target)
	c.AbortWithStatus(http.StatusMovedPermanently)
}

// serveFile отдаёт содержимое файла. Content-Type, Range, HEAD
// и conditional requests обрабатывает http.ServeContent.
func (h *StaticHandler) serveFile(c *gin.Context, f *os.File, fi fs.FileInfo) {
	http.ServeContent(c.Writer, c.Request, fi.Name(), fi.ModTime(), f)
	middleware.RecordFileServed(fi.Name())
}

func (h *StaticHandler) serveListing(c *gin.Context, dir *os.File, urlPath string) {
	entries, err := dir.ReadDir(-1)
	if err != nil {
		h.fail(c, reasonInternal, fmt.Errorf("read dir %s: %w", urlPath, err))
		return
	}

	slices.SortFunc(entries, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})

	items := make([]listingEntry, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			name += "/"
		}
		href := (&url.URL{Path: name}).String()
		items = append(items, listingEntry{Name: name, Href: href})
	}

	c.Render(http.StatusOK, render.HTML{
		Template: listingTemplate,
		Name:     "listing",
		Data: gin.H{
			"Path":    urlPath,
			"Entries": items,
		},
	})
}

// openFailed различает отсутствующий файл и путь, который os.Root
// отказался открыть (выход за пределы каталога, нет прав).
func (h *StaticHandler) openFailed(c *gin.Context, urlPath string, err error) {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		h.fail(c, reasonNotFound, domainerrors.NotFound(urlPath, err))
		return
	}
	h.logger.WarnContext(c.Request.Context(), "Refused to open path",
		slog.String("path", urlPath),
		slog.String("error", err.Error()),
	)
	h.fail(c, reasonForbidden, domainerrors.Forbidden(urlPath))
}

func (h *StaticHandler) fail(c *gin.Context, reason string, err error) {
	middleware.RecordFileError(reason)
	h.logger.DebugContext(c.Request.Context(), "File request failed",
		slog.String("reason", reason),
		slog.String("error", err.Error()),
	)
	common.HandleError(c, err)
}

// containsDotDot сообщает, есть ли в пути сегмент "..".
func containsDotDot(p string) bool {
	if !strings.Contains(p, "..") {
		return false
	}
	for _, seg := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}
