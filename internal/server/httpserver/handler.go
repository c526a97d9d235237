package httpserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/profilekeeper/internal/common"
	"github.com/dmitrijs2005/profilekeeper/internal/server/auth"
	"github.com/dmitrijs2005/profilekeeper/internal/server/models"
	"github.com/dmitrijs2005/profilekeeper/internal/server/services"
	"github.com/gin-gonic/gin"
)

const profilePicField = "profilePic"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Image    string `json:"image"`
	ID       string `json:"id"`
}

type authResponse struct {
	Message string               `json:"message"`
	Token   string               `json:"token"`
	User    models.PublicProfile `json:"user"`
	Success bool                 `json:"success"`
}

type userResponse struct {
	User    models.PublicProfile `json:"user"`
	Message string               `json:"message,omitempty"`
	Success bool                 `json:"success"`
}

func (s *Server) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if !s.bindJSON(c, &req) {
		return
	}

	res, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{Message: "Login successful", Token: res.Token, User: res.User, Success: true})
}

func (s *Server) register(c *gin.Context) {
	if !s.parseMultipart(c) {
		return
	}

	pic, err := readUpload(c, profilePicField)
	if err != nil {
		s.writeError(c, err)
		return
	}

	in := services.RegisterInput{
		FullName:   c.PostForm("fullName"),
		UserName:   c.PostForm("userName"),
		Email:      c.PostForm("email"),
		Password:   c.PostForm("password"),
		ProfilePic: pic,
	}

	if _, err := s.users.Register(c.Request.Context(), in); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User registered successfully", "success": true})
}

func (s *Server) googleLogin(c *gin.Context) {
	var req googleLoginRequest
	if !s.bindJSON(c, &req) {
		return
	}

	res, err := s.users.GoogleLogin(c.Request.Context(), services.GoogleLoginInput{
		Email:    req.Email,
		FullName: req.FullName,
		Image:    req.Image,
		GoogleID: req.ID,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	msg := "Login successful"
	if res.Created {
		msg = "Account Created && Login successful"
	}

	c.JSON(http.StatusOK, authResponse{Message: msg, Token: res.Token, User: res.User, Success: true})
}

func (s *Server) updateSettings(c *gin.Context) {
	identity, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		s.writeError(c, common.ErrMissingToken)
		return
	}

	if !s.parseMultipart(c) {
		return
	}

	pic, err := readUpload(c, profilePicField)
	if err != nil {
		s.writeError(c, err)
		return
	}

	in := services.UpdateSettingsInput{
		FullName:   c.PostForm("fullName"),
		UserName:   c.PostForm("userName"),
		About:      c.PostForm("about"),
		Email:      c.PostForm("email"),
		ProfilePic: pic,
	}

	profile, err := s.users.UpdateSettings(c.Request.Context(), identity.ID, in)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, userResponse{User: *profile, Message: "Profile updated successfully", Success: true})
}

func (s *Server) verify(c *gin.Context) {
	identity, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		s.writeError(c, common.ErrMissingToken)
		return
	}

	c.JSON(http.StatusOK, userResponse{User: *identity, Success: true})
}

// bindJSON decodes the body into dst. An empty body leaves dst zero so the
// service reports the missing fields.
func (s *Server) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(c, common.ErrInvalidRequestBody)
		return false
	}
	return true
}

// parseMultipart parses the form within the upload limit. A request that is
// not multipart at all is left with an empty form.
func (s *Server) parseMultipart(c *gin.Context) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadSize)

	err := c.Request.ParseMultipartForm(s.opts.MaxUploadSize)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.writeError(c, common.ErrUploadTooLarge)
		return false
	}

	s.writeError(c, common.ErrInvalidRequestBody)
	return false
}

// readUpload returns the named file, or nil when the form has none.
func readUpload(c *gin.Context, field string) (*services.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, common.ErrInvalidRequestBody
	}

	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	return &services.Upload{FileName: fh.Filename, ContentType: contentType, Data: data}, nil
}
