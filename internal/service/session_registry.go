package service

import (
	"math/rand"

	"collabnote-be/internal/dto"
	"collabnote-be/internal/entity"
	"collabnote-be/internal/pkg/logger"
	"collabnote-be/internal/repository/memory"
)

// Palette a user color is drawn from when the login payload carries none.
var userColors = []string{
	"#FF5733", "#33FF57", "#3357FF", "#F033FF", "#FF33F0",
	"#33FFF0", "#F0FF33", "#FF8033", "#8033FF", "#33FF80",
}

// ISessionRegistry binds each live connection to an in-process identity.
// Identity is self-asserted: the id and name are taken from the client as-is
// and there is no collision check against other logged-in sessions.
type ISessionRegistry interface {
	Login(connId string, req *dto.LoginRequest) entity.User
	Logout(connId string)
	WhoIs(connId string) (*entity.User, bool)
}

type sessionRegistry struct {
	sessions *memory.SessionRepository
	logger   logger.ILogger
}

func NewSessionRegistry(sessions *memory.SessionRepository, log logger.ILogger) ISessionRegistry {
	return &sessionRegistry{
		sessions: sessions,
		logger:   log,
	}
}

func (s *sessionRegistry) Login(connId string, req *dto.LoginRequest) entity.User {
	color := req.Color
	if color == "" {
		color = userColors[rand.Intn(len(userColors))]
	}

	user := entity.User{
		Id:    req.Id,
		Name:  req.Name,
		Color: color,
	}
	s.sessions.Save(connId, &user)

	s.logger.Info("SessionRegistry", "User logged in", map[string]interface{}{
		"conn_id": connId,
		"user_id": user.Id,
		"name":    user.Name,
	})
	return user
}

func (s *sessionRegistry) Logout(connId string) {
	if user, ok := s.sessions.Get(connId); ok {
		s.logger.Info("SessionRegistry", "User logged out", map[string]interface{}{
			"conn_id": connId,
			"user_id": user.Id,
		})
	}
	s.sessions.Delete(connId)
}

func (s *sessionRegistry) WhoIs(connId string) (*entity.User, bool) {
	return s.sessions.Get(connId)
}
