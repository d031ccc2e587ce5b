package service

import (
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/repository"
	jwtutil "github.com/shatlykos/cafe-management-system/pkg/jwt"
)

const (
	defaultAccessTokenTTL  = 2 * time.Hour
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
	minPasswordLength      = 8
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrRefreshTokenInvalid = errors.New("refresh token invalid")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrStaffNotFound       = errors.New("staff not found")
	ErrInvalidStaffInput   = errors.New("invalid staff input")
	ErrUsernameTaken       = errors.New("username already taken")
)

type AuthService struct {
	staffRepo  repository.StaffRepository
	pool       *pgxpool.Pool
	privateKey *rsa.PrivateKey
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(
	staffRepo repository.StaffRepository,
	pool *pgxpool.Pool,
	privateKey *rsa.PrivateKey,
) *AuthService {
	return &AuthService{
		staffRepo:  staffRepo,
		pool:       pool,
		privateKey: privateKey,
		accessTTL:  defaultAccessTokenTTL,
		refreshTTL: defaultRefreshTokenTTL,
	}
}

func (s *AuthService) Login(ctx context.Context, username, password string) (accessToken, refreshToken string, err error) {
	if s.privateKey == nil {
		return "", "", errors.New("private key is nil")
	}

	staff, err := s.staffRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)) != nil {
		return "", "", ErrInvalidCredentials
	}

	return s.issueTokens(ctx, staff)
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (newAccessToken, newRefreshToken string, err error) {
	if s.privateKey == nil {
		return "", "", errors.New("private key is nil")
	}
	if refreshToken == "" {
		return "", "", ErrRefreshTokenInvalid
	}

	tokenHash := hashToken(refreshToken)

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", "", err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var staffID uuid.UUID
	var username string
	var role string
	var expiresAt time.Time

	query := `
		SELECT rt.staff_id, rt.expires_at, st.username, st.role
		FROM refresh_tokens rt
		JOIN staff st ON st.id = rt.staff_id
		WHERE rt.token_hash = $1
		FOR UPDATE
	`
	err = tx.QueryRow(ctx, query, tokenHash).Scan(
		&staffID,
		&expiresAt,
		&username,
		&role,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", ErrRefreshTokenInvalid
		}
		return "", "", err
	}

	now := time.Now().UTC()
	if !expiresAt.After(now) {
		if _, delErr := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, tokenHash); delErr != nil {
			return "", "", delErr
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			return "", "", commitErr
		}
		return "", "", ErrRefreshTokenExpired
	}

	claims := jwtutil.NewClaims(staffID.String(), username, role, s.accessTTL)
	newAccessToken, err = jwtutil.GenerateAccessToken(claims, s.privateKey)
	if err != nil {
		return "", "", err
	}

	newRefreshToken, err = jwtutil.GenerateRefreshToken()
	if err != nil {
		return "", "", err
	}

	newHash := hashToken(newRefreshToken)

	if _, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, tokenHash); err != nil {
		return "", "", err
	}

	if _, err := tx.Exec(
		ctx,
		`INSERT INTO refresh_tokens (token_hash, staff_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`,
		newHash,
		staffID,
		now.Add(s.refreshTTL),
		now,
	); err != nil {
		return "", "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", "", err
	}

	return newAccessToken, newRefreshToken, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrRefreshTokenInvalid
	}

	_, err := s.pool.Exec(
		ctx,
		`DELETE FROM refresh_tokens WHERE token_hash = $1`,
		hashToken(refreshToken),
	)
	return err
}

func (s *AuthService) ChangePassword(ctx context.Context, staffID, oldPwd, newPwd string) error {
	sid, err := uuid.Parse(strings.TrimSpace(staffID))
	if err != nil {
		return ErrStaffNotFound
	}

	if len(newPwd) < minPasswordLength {
		return ErrInvalidStaffInput
	}

	staff, err := s.staffRepo.FindByID(ctx, sid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrStaffNotFound
		}
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(oldPwd)) != nil {
		return ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if _, err := s.pool.Exec(
		ctx,
		`UPDATE staff SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		sid,
		string(hashed),
		time.Now().UTC(),
	); err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE staff_id = $1`, sid)
	return err
}

func (s *AuthService) CreateStaff(ctx context.Context, username, password, role string) (*model.Staff, error) {
	name := strings.TrimSpace(username)
	if name == "" || len(password) < minPasswordLength {
		return nil, ErrInvalidStaffInput
	}
	if role != model.RoleAdmin && role != model.RoleBarista {
		return nil, ErrInvalidStaffInput
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	staff := &model.Staff{
		ID:           uuid.New(),
		Username:     name,
		PasswordHash: string(hashed),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.staffRepo.Create(ctx, staff); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	return staff, nil
}

func (s *AuthService) GetStaff(ctx context.Context, staffID string) (*model.Staff, error) {
	sid, err := uuid.Parse(strings.TrimSpace(staffID))
	if err != nil {
		return nil, ErrStaffNotFound
	}

	staff, err := s.staffRepo.FindByID(ctx, sid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	return staff, nil
}

func (s *AuthService) issueTokens(ctx context.Context, staff *model.Staff) (string, string, error) {
	if staff == nil {
		return "", "", ErrStaffNotFound
	}

	claims := jwtutil.NewClaims(staff.ID.String(), staff.Username, staff.Role, s.accessTTL)
	accessToken, err := jwtutil.GenerateAccessToken(claims, s.privateKey)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := jwtutil.GenerateRefreshToken()
	if err != nil {
		return "", "", err
	}

	now := time.Now().UTC()
	if _, err := s.pool.Exec(
		ctx,
		`INSERT INTO refresh_tokens (token_hash, staff_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`,
		hashToken(refreshToken),
		staff.ID,
		now.Add(s.refreshTTL),
		now,
	); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
