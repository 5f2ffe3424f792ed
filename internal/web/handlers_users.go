package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aleister1102/releasewatch/internal/common"
	"github.com/aleister1102/releasewatch/internal/users"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleUsers(c *gin.Context) {
	list, err := s.users.List()
	if err != nil {
		_ = c.Error(err)
		s.render(c, http.StatusInternalServerError, "error.html", gin.H{"error": "Users could not be loaded."})
		return
	}
	s.render(c, http.StatusOK, "users.html", gin.H{"users": list})
}

func (s *Server) handleUsersAction(c *gin.Context) {
	action := c.PostForm("action")
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	switch action {
	case "add":
		if _, err := s.users.Add(username, password); err != nil {
			setFlash(c, flashDanger, userErrorMessage(err))
		} else {
			setFlash(c, flashSuccess, "User "+username+" added.")
		}
	case "delete":
		if err := s.users.Delete(username); err != nil {
			setFlash(c, flashDanger, userErrorMessage(err))
		} else {
			setFlash(c, flashSuccess, "User "+username+" deleted.")
		}
	case "change_password":
		if err := s.users.ChangePassword(username, password); err != nil {
			setFlash(c, flashDanger, userErrorMessage(err))
		} else {
			setFlash(c, flashSuccess, "Password for "+username+" changed.")
		}
	default:
		setFlash(c, flashDanger, "Unknown action.")
	}

	c.Redirect(http.StatusFound, "/users")
}

func userErrorMessage(err error) string {
	var validationErr *common.ValidationError
	switch {
	case errors.Is(err, users.ErrUserExists):
		return "User already exists."
	case errors.Is(err, users.ErrUserNotFound):
		return "User not found."
	case errors.Is(err, users.ErrAdminUndeletable):
		return "The admin user cannot be deleted."
	case errors.As(err, &validationErr):
		return "Username and password are required."
	default:
		return "The users file could not be updated."
	}
}
