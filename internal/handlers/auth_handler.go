package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/vibely-app/backend/internal/models"
	"github.com/vibely-app/backend/internal/repositories"
	"golang.org/x/crypto/bcrypt"
)

const tokenLifetime = 7 * 24 * time.Hour

// AuthHandler handles authentication, profile and follow-graph HTTP requests
type AuthHandler struct {
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
	jwtSecret        string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo repositories.UserRepository, followRepo repositories.FollowRepository, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		userRepository:   userRepo,
		followRepository: followRepo,
		jwtSecret:        jwtSecret,
	}
}

// RegisterPublicRoutes registers the unauthenticated auth routes
func (h *AuthHandler) RegisterPublicRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/login", h.Login)
	g.POST("/logout", h.Logout)
}

// RegisterProtectedRoutes registers routes that require a valid session
func (h *AuthHandler) RegisterProtectedRoutes(g *echo.Group) {
	g.GET("/user", h.CurrentUser)
	g.GET("/profile/:username", h.Profile)
	g.PUT("/update-profile", h.UpdateProfile)
	g.GET("/search", h.SearchUsers)
	g.POST("/follow/:userId", h.FollowUser)
	g.POST("/unfollow/:userId", h.UnfollowUser)
}

func (h *AuthHandler) issueCookie(c echo.Context, userID uint) error {
	claims := &models.JwtCustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     "token",
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(tokenLifetime.Seconds()),
		SameSite: http.SameSiteNoneMode,
	})
	return nil
}

// Signup creates a new account and issues a session cookie
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := h.userRepository.CreateUser(user); err != nil {
		return httpError(err)
	}

	if err := h.issueCookie(c, user.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "User created successfully", "user": user})
}

// Login verifies credentials and issues a session cookie
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByEmail(req.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid credentials")
	}

	if err := h.issueCookie(c, user.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged in", "user": user})
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
		SameSite: http.SameSiteNoneMode,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out"})
}

// CurrentUser returns the authenticated user
func (h *AuthHandler) CurrentUser(c echo.Context) error {
	user, err := h.userRepository.GetUserByID(getUserIDFromContext(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// Profile returns a user's public profile with the viewer's follow relation
func (h *AuthHandler) Profile(c echo.Context) error {
	viewerID := getUserIDFromContext(c)

	user, err := h.userRepository.GetUserByUsername(c.Param("username"))
	if err != nil {
		return httpError(err)
	}
	isFollowing, err := h.followRepository.IsFollowing(viewerID, user.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":        user,
		"isFollowing": isFollowing,
	})
}

// UpdateProfile updates username, bio or profile picture
func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	viewerID := getUserIDFromContext(c)

	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByID(viewerID)
	if err != nil {
		return httpError(err)
	}

	if req.Username != "" && req.Username != user.Username {
		if _, err := h.userRepository.GetUserByUsername(req.Username); err == nil {
			return httpError(repositories.ErrUsernameTaken)
		}
		user.Username = req.Username
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if req.ProfilePicture != "" {
		user.ProfilePicture = req.ProfilePicture
	}

	if err := h.userRepository.UpdateUser(user); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Profile updated", "user": user})
}

// SearchUsers searches users by username
func (h *AuthHandler) SearchUsers(c echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing search query")
	}
	users, err := h.userRepository.SearchUsers(query)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, users)
}

// FollowUser adds a follow edge from the viewer to the target user
func (h *AuthHandler) FollowUser(c echo.Context) error {
	viewerID := getUserIDFromContext(c)

	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	if viewerID == uint(targetID) {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}

	target, err := h.userRepository.GetUserByID(uint(targetID))
	if err != nil {
		return httpError(err)
	}
	if err := h.followRepository.Follow(viewerID, uint(targetID)); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Followed", "username": target.Username})
}

// UnfollowUser removes the follow edge from the viewer to the target user
func (h *AuthHandler) UnfollowUser(c echo.Context) error {
	viewerID := getUserIDFromContext(c)

	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	target, err := h.userRepository.GetUserByID(uint(targetID))
	if err != nil {
		return httpError(err)
	}
	if err := h.followRepository.Unfollow(viewerID, uint(targetID)); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Unfollowed", "username": target.Username})
}
