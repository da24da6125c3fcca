// Package account handles login, tenant creation and school users.
package account

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/config"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/models"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/school"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/transport/auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already exists")
)

const (
	DefaultAdminUsername = "admin"
	schoolIDAttempts     = 20
)

type TokenIssuer interface {
	Issue(p auth.Principal) (string, time.Time, error)
}

type Session struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	Principal auth.Principal `json:"user"`
}

type Service struct {
	schools *school.Service
	issuer  TokenIssuer
	master  config.Master
	log     logrus.FieldLogger
}

func NewService(schools *school.Service, issuer TokenIssuer, master config.Master, log logrus.FieldLogger) *Service {
	return &Service{schools: schools, issuer: issuer, master: master, log: log}
}

// Login authenticates a school user, or the master user when schoolID is
// empty.
func (s *Service) Login(ctx context.Context, schoolID, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if schoolID == "" {
		return s.loginMaster(username, password)
	}

	sc, err := s.schools.Get(ctx, schoolID)
	if errors.Is(err, ports.ErrSchoolNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}

	idx := slices.IndexFunc(sc.Users, func(u models.User) bool { return strings.EqualFold(u.Username, username) })
	if idx < 0 || !PasswordMatches(sc.Users[idx].Password, password) {
		s.log.WithFields(logrus.Fields{"school": schoolID, "username": username}).Warn("[AUTH][LOGIN] rejected")
		return Session{}, ErrInvalidCredentials
	}
	u := sc.Users[idx]
	return s.session(auth.Principal{UserID: u.ID, Username: u.Username, SchoolID: sc.ID, Role: u.Role})
}

func (s *Service) loginMaster(username, password string) (Session, error) {
	if s.master.PasswordHash == "" || username != s.master.Username {
		return Session{}, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(s.master.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(auth.Principal{UserID: "master", Username: username, Role: models.RoleMasterAdmin})
}

func (s *Service) session(p auth.Principal) (Session, error) {
	tok, exp, err := s.issuer.Issue(p)
	if err != nil {
		return Session{}, err
	}
	s.log.WithFields(logrus.Fields{"school": p.SchoolID, "user": p.Username, "role": p.Role}).Info("[AUTH][LOGIN]")
	return Session{Token: tok, ExpiresAt: exp, Principal: p}, nil
}

// PasswordMatches accepts bcrypt hashes and, for snapshots restored from
// older backups, plain stored passwords.
func PasswordMatches(stored, given string) bool {
	if stored == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

type NewSchool struct {
	Name          string
	AdminName     string
	AdminPassword string
}

// CreateSchool opens a tenant under a random free 4-digit id with one admin
// user.
func (s *Service) CreateSchool(ctx context.Context, in NewSchool) (models.School, error) {
	hash, err := HashPassword(in.AdminPassword)
	if err != nil {
		return models.School{}, err
	}
	admin := models.User{
		ID:       uuid.NewString(),
		Name:     firstNonEmpty(in.AdminName, "Administrador"),
		Username: DefaultAdminUsername,
		Password: hash,
		Role:     models.RoleAdmin,
	}

	settings := s.schools.Defaults()
	for range schoolIDAttempts {
		sc := models.School{
			ID:       fmt.Sprintf("%04d", rand.IntN(10000)),
			Name:     in.Name,
			Users:    []models.User{admin},
			Students: []models.Student{},
			Expenses: []models.Expense{},
			Settings: &settings,
		}
		err := s.schools.Create(ctx, sc)
		if err == nil {
			s.log.WithFields(logrus.Fields{"school": sc.ID, "name": sc.Name}).Info("[TENANT][CREATE]")
			return sc, nil
		}
		if ctx.Err() != nil {
			return models.School{}, ctx.Err()
		}
	}
	return models.School{}, errors.New("no free school id")
}

// AddUser creates a school user with a hashed password.
func (s *Service) AddUser(ctx context.Context, schoolID string, u models.User) (models.User, error) {
	if u.Username == "" || u.Password == "" {
		return models.User{}, errors.New("username and password are required")
	}
	hash, err := HashPassword(u.Password)
	if err != nil {
		return models.User{}, err
	}
	u.ID = uuid.NewString()
	u.Password = hash
	if u.Role == "" {
		u.Role = models.RoleCoordinator
	}

	_, err = s.schools.Update(ctx, schoolID, func(sc *models.School) error {
		for _, cur := range sc.Users {
			if strings.EqualFold(cur.Username, u.Username) {
				return ErrUsernameTaken
			}
		}
		sc.Users = append(slices.Clone(sc.Users), u)
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	u.Password = ""
	return u, nil
}

// Users lists school users without their password.
func (s *Service) Users(ctx context.Context, schoolID string) ([]models.User, error) {
	sc, err := s.schools.Get(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, len(sc.Users))
	for i, u := range sc.Users {
		u.Password = ""
		out[i] = u
	}
	return out, nil
}

type SchoolSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Students int    `json:"students"`
	Users    int    `json:"users"`
}

func (s *Service) Schools(ctx context.Context) ([]SchoolSummary, error) {
	list, err := s.schools.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SchoolSummary, 0, len(list))
	for _, sc := range list {
		out = append(out, SchoolSummary{ID: sc.ID, Name: sc.Name, Students: len(sc.Students), Users: len(sc.Users)})
	}
	return out, nil
}

func firstNonEmpty(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
