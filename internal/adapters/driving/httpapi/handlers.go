package httpapi

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/brightlyhq/brightly/internal/core/domain"
	"github.com/brightlyhq/brightly/internal/logger"
)

// FileNode is one entry in the document tree returned by /files.
type FileNode struct {
	Name     string     `json:"name"`
	Type     string     `json:"type"`
	Path     string     `json:"path"`
	Children []FileNode `json:"children,omitempty"`
}

type askRequest struct {
	Question string `json:"question"`
}

type createFileRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type updateFileRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type authCheckRequest struct {
	Password string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (s *Server) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	reply, err := s.assistant.Ask(c.Request.Context(), req.Question)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Question required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to answer question"})
		return
	}

	c.JSON(http.StatusOK, reply)
}

func (s *Server) adminRefresh(c *gin.Context) {
	if err := s.index.Refresh(c.Request.Context(), true); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Refresh failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}

func (s *Server) listFiles(c *gin.Context) {
	objects, err := s.remote.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list files"})
		return
	}

	paths := make([]string, 0, len(objects))
	for _, obj := range objects {
		paths = append(paths, obj.Path)
	}
	c.JSON(http.StatusOK, buildFileTree(paths))
}

func (s *Server) readFile(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")

	obj, err := s.remote.Get(c.Request.Context(), path)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"filename": obj.Path, "content": obj.Content})
}

func (s *Server) createFile(c *gin.Context) {
	var req createFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title required"})
		return
	}

	filename := normalizeFilename(req.Title)
	if err := s.remote.Put(c.Request.Context(), filename, req.Content); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create file"})
		return
	}

	s.refreshIndex(c)
	c.JSON(http.StatusOK, gin.H{"status": "created", "file": filename})
}

func (s *Server) updateFile(c *gin.Context) {
	var req updateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Filename) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Filename required"})
		return
	}

	filename := normalizeFilename(req.Filename)
	if err := s.remote.Put(c.Request.Context(), filename, req.Content); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update file"})
		return
	}

	s.refreshIndex(c)
	c.JSON(http.StatusOK, gin.H{"status": "updated", "file": filename})
}

func (s *Server) deleteFile(c *gin.Context) {
	path := normalizeFilename(strings.TrimPrefix(c.Param("path"), "/"))

	if err := s.remote.Delete(c.Request.Context(), path); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete file"})
		return
	}

	s.refreshIndex(c)
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "file": path})
}

// refreshIndex rebuilds the snapshot after a document mutation. A
// failed rebuild does not fail the mutation; the next sync catches up.
func (s *Server) refreshIndex(c *gin.Context) {
	if err := s.index.Refresh(c.Request.Context(), true); err != nil {
		logger.Warn("index refresh after file change failed: %v", err)
	}
}

func (s *Server) authCheck(c *gin.Context) {
	var req authCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": s.verifyPassword(req.Password) == nil})
}

func (s *Server) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := s.verifyPassword(req.OldPassword); errors.Is(err, domain.ErrInvalidPassword) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Current password is incorrect"})
		return
	}
	if len(req.NewPassword) < 4 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "New password must be at least 4 characters"})
		return
	}

	if err := s.config.Set("dashboard.password", req.NewPassword); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to save password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) currentPassword() string {
	if pw := s.config.GetString("dashboard.password"); pw != "" {
		return pw
	}
	return DefaultPassword
}

// verifyPassword checks a supplied password against the configured one.
func (s *Server) verifyPassword(password string) error {
	if password != s.currentPassword() {
		return domain.ErrInvalidPassword
	}
	return nil
}

// normalizeFilename maps a user-supplied title or path to a canonical
// document key: lowercase, underscores for spaces, a single .txt suffix.
func normalizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "%2F", "/")
	name = strings.ReplaceAll(name, "%5C", "/")
	if strings.HasSuffix(strings.ToLower(name), ".txt") {
		name = name[:len(name)-len(".txt")]
	}
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name) + ".txt"
}

// buildFileTree arranges flat object paths into a folder hierarchy.
// Folders sort before files, each level alphabetically.
func buildFileTree(paths []string) []FileNode {
	root := &treeFolder{children: map[string]*treeFolder{}}

	for _, path := range paths {
		parts := strings.Split(path, "/")
		node := root
		for i, part := range parts {
			if part == "" {
				continue
			}
			if i == len(parts)-1 {
				node.files = append(node.files, FileNode{
					Name: part,
					Type: "file",
					Path: path,
				})
				continue
			}
			child, ok := node.children[part]
			if !ok {
				child = &treeFolder{
					name:     part,
					path:     strings.Join(parts[:i+1], "/"),
					children: map[string]*treeFolder{},
				}
				node.children[part] = child
			}
			node = child
		}
	}

	return root.toNodes()
}

type treeFolder struct {
	name     string
	path     string
	children map[string]*treeFolder
	files    []FileNode
}

func (f *treeFolder) toNodes() []FileNode {
	names := make([]string, 0, len(f.children))
	for name := range f.children {
		names = append(names, name)
	}
	sort.Strings(names)

	nodes := make([]FileNode, 0, len(names)+len(f.files))
	for _, name := range names {
		child := f.children[name]
		nodes = append(nodes, FileNode{
			Name:     child.name,
			Type:     "folder",
			Path:     child.path,
			Children: child.toNodes(),
		})
	}

	files := make([]FileNode, len(f.files))
	copy(files, f.files)
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return append(nodes, files...)
}
