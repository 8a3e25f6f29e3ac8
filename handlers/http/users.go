package httpHandler

import (
	"net/http"

	"energy-server/entities"
	"energy-server/middleware"
	"energy-server/usecases"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	useCase *usecases.UserUseCase
}

func NewUserHandler(useCase *usecases.UserUseCase) *UserHandler {
	return &UserHandler{useCase: useCase}
}

// Signup handles POST /api/users/signup
func (h *UserHandler) Signup(c *gin.Context) {
	var in usecases.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "All fields (full_name, email, password, phone) are required.")
		return
	}

	user, err := h.useCase.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully. Please check your email to verify your account.",
		"userId":  user.ID,
	})
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signin handles POST /api/users/signin
func (h *UserHandler) Signin(c *gin.Context) {
	var req signinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Email and password are required.")
		return
	}

	res, err := h.useCase.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Signed in successfully.",
		"token":   res.Token,
		"user":    res.User.Profile(),
	})
}

// GetProfile handles GET /api/users/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.useCase.Profile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Profile())
}

// UpdateProfile handles PUT /api/users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var patch entities.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid request body.")
		return
	}

	if err := h.useCase.UpdateProfile(c.Request.Context(), middleware.UserID(c), patch); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully."})
}
