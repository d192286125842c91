package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/metrobox/forestry-pots/internal/clock"
	"github.com/metrobox/forestry-pots/internal/config"
	identitydomain "github.com/metrobox/forestry-pots/internal/identity/domain"
	"github.com/metrobox/forestry-pots/internal/mailer"
	"github.com/metrobox/forestry-pots/pkg/db/pagination"
	"github.com/metrobox/forestry-pots/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Cfg    config.Config
	Clock  clock.Clock
	Mailer mailer.Mailer
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID     *snowflake.Node
	cfg       config.Config
	clock     clock.Clock
	mail      mailer.Mailer
	users     repository.Repository[identitydomain.User]
	accessReq repository.Repository[identitydomain.AccessRequest]
}

func NewService(p ServiceParam) identitydomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("identity.service"),

		genID:     p.GenID,
		cfg:       p.Cfg,
		clock:     p.Clock,
		mail:      p.Mailer,
		users:     repository.ProvideStore[identitydomain.User](p.DB),
		accessReq: repository.ProvideStore[identitydomain.AccessRequest](p.DB),
	}
}

type sessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (*identitydomain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, identitydomain.ErrInvalidCredentials
	}

	user, err := s.users.FindOne(ctx, "email = ?", email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, identitydomain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, identitydomain.ErrInvalidCredentials
	}

	token, err := s.issueToken(*user)
	if err != nil {
		return nil, err
	}
	return &identitydomain.Session{Token: token, User: *user}, nil
}

func (s *Service) issueToken(user identitydomain.User) (string, error) {
	now := s.clock.Now()
	claims := sessionClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.cfg.JWT.ExpiryMinutes) * time.Minute)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWT.Secret))
}

func (s *Service) VerifyToken(raw string) (*identitydomain.TokenClaims, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWT.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, identitydomain.ErrInvalidToken
	}

	userID, err := snowflake.ParseString(claims.Subject)
	if err != nil {
		return nil, identitydomain.ErrInvalidToken
	}
	return &identitydomain.TokenClaims{UserID: userID, Role: claims.Role}, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*identitydomain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, identitydomain.ErrNotFound
	}
	return user, err
}

func (s *Service) ListUsers(ctx context.Context, req identitydomain.ListUsersRequest) ([]identitydomain.User, pagination.Result, error) {
	page := req.Pagination.Normalize()

	query := s.db.WithContext(ctx).Model(&identitydomain.User{})
	if search := strings.TrimSpace(req.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR company LIKE ? OR email LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, pagination.Result{}, err
	}

	var users []identitydomain.User
	if err := query.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset()).Find(&users).Error; err != nil {
		return nil, pagination.Result{}, err
	}
	return users, pagination.NewResult(page, total), nil
}

func (s *Service) CreateUser(ctx context.Context, req identitydomain.CreateUserRequest) (*identitydomain.User, error) {
	if err := validateCreateUser(req); err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	if _, err := s.users.FindOne(ctx, "email = ?", email); err == nil {
		return nil, identitydomain.ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = identitydomain.RoleUser
	}

	now := s.clock.Now()
	user := &identitydomain.User{
		ID:           s.genID.Generate(),
		Name:         strings.TrimSpace(req.Name),
		Company:      strings.TrimSpace(req.Company),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user created", zap.String("user_id", user.ID.String()), zap.String("role", user.Role))
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, req identitydomain.UpdateUserRequest) (*identitydomain.User, error) {
	user, err := s.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, identitydomain.ErrInvalidName
		}
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Company != nil {
		if strings.TrimSpace(*req.Company) == "" {
			return nil, identitydomain.ErrInvalidCompany
		}
		user.Company = strings.TrimSpace(*req.Company)
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email == "" {
			return nil, identitydomain.ErrInvalidEmail
		}
		if email != user.Email {
			if _, err := s.users.FindOne(ctx, "email = ?", email); err == nil {
				return nil, identitydomain.ErrEmailTaken
			} else if !errors.Is(err, repository.ErrNotFound) {
				return nil, err
			}
		}
		user.Email = email
	}
	if req.Password != nil {
		if len(*req.Password) < 6 {
			return nil, identitydomain.ErrInvalidPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if req.Role != nil {
		if *req.Role != identitydomain.RoleUser && *req.Role != identitydomain.RoleAdmin {
			return nil, identitydomain.ErrInvalidRole
		}
		user.Role = *req.Role
	}
	if req.ProfilePhoto != nil {
		user.ProfilePhoto = req.ProfilePhoto
	}

	user.UpdatedAt = s.clock.Now()
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, id snowflake.ID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}

func (s *Service) SubmitAccessRequest(ctx context.Context, req identitydomain.AccessRequestInput) (*identitydomain.AccessRequest, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.CompanyName) == "" {
		return nil, identitydomain.ErrInvalidAccessReq
	}
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, identitydomain.ErrInvalidEmail
	}

	record := &identitydomain.AccessRequest{
		ID:          s.genID.Generate(),
		Name:        strings.TrimSpace(req.Name),
		CompanyName: strings.TrimSpace(req.CompanyName),
		Email:       email,
		Phone:       req.Phone,
		Notes:       req.Notes,
		Status:      identitydomain.AccessRequestPending,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.accessReq.Create(ctx, record); err != nil {
		return nil, err
	}

	if err := s.mail.SendAccessRequestNotice(ctx, record.Name, record.CompanyName, record.Email); err != nil {
		s.log.Warn("access request notice mail failed", zap.Error(err))
	}
	return record, nil
}

func (s *Service) ListAccessRequests(ctx context.Context, status string) ([]identitydomain.AccessRequest, error) {
	if status = strings.TrimSpace(status); status != "" {
		return s.accessReq.Find(ctx, "status = ?", status)
	}
	return s.accessReq.Find(ctx)
}

func (s *Service) ApproveAccessRequest(ctx context.Context, id snowflake.ID) (*identitydomain.User, error) {
	request, err := s.accessReq.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, identitydomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if request.Status != identitydomain.AccessRequestPending {
		return nil, identitydomain.ErrRequestNotPending
	}

	tempPassword, err := randomPassword()
	if err != nil {
		return nil, err
	}

	user, err := s.CreateUser(ctx, identitydomain.CreateUserRequest{
		Name:     request.Name,
		Company:  request.CompanyName,
		Email:    request.Email,
		Password: tempPassword,
		Role:     identitydomain.RoleUser,
	})
	if err != nil {
		return nil, err
	}

	request.Status = identitydomain.AccessRequestApproved
	if err := s.accessReq.Save(ctx, request); err != nil {
		return nil, err
	}

	if err := s.mail.SendAccessApproved(ctx, user.Email, user.Name, tempPassword); err != nil {
		s.log.Warn("access approval mail failed", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	return user, nil
}

func (s *Service) RejectAccessRequest(ctx context.Context, id snowflake.ID) error {
	request, err := s.accessReq.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return identitydomain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if request.Status != identitydomain.AccessRequestPending {
		return identitydomain.ErrRequestNotPending
	}
	request.Status = identitydomain.AccessRequestRejected
	return s.accessReq.Save(ctx, request)
}

func validateCreateUser(req identitydomain.CreateUserRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return identitydomain.ErrInvalidName
	}
	if strings.TrimSpace(req.Company) == "" {
		return identitydomain.ErrInvalidCompany
	}
	if normalizeEmail(req.Email) == "" {
		return identitydomain.ErrInvalidEmail
	}
	if len(req.Password) < 6 {
		return identitydomain.ErrInvalidPassword
	}
	if req.Role != "" && req.Role != identitydomain.RoleUser && req.Role != identitydomain.RoleAdmin {
		return identitydomain.ErrInvalidRole
	}
	return nil
}

func normalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strings.Contains(email, "@") {
		return ""
	}
	return email
}

func randomPassword() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
