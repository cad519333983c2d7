package controllers

import (
	"net/http"
	"strconv"

	"github.com/anoiana/soa-version1/middlewares"
	"github.com/anoiana/soa-version1/models"
	"github.com/anoiana/soa-version1/services"
	"github.com/anoiana/soa-version1/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

// UserController issues access tokens to administrators (through the
// identity provider) and to employees (through the shift secret code).
type UserController struct {
	Identity services.IdentityProvider
	// Accounts is nil unless the local identity provider is configured.
	Accounts *services.LocalIdentity
	Shifts   *services.ShiftService
	Tokens   *utils.TokenManager
	Log      *logrus.Logger
}

func NewUserController(identity services.IdentityProvider, accounts *services.LocalIdentity, shifts *services.ShiftService, tokens *utils.TokenManager, log *logrus.Logger) *UserController {
	return &UserController{Identity: identity, Accounts: accounts, Shifts: shifts, Tokens: tokens, Log: log}
}

// AdminLogin -> email and password checked by the identity provider, returns JWT
func (uc *UserController) AdminLogin(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &input) {
		return
	}

	identity, err := uc.Identity.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	claims := utils.CustomClaims{
		Email:            identity.Email,
		Role:             identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{Subject: identity.UserID},
	}
	if id, err := strconv.ParseUint(identity.UserID, 10, 64); err == nil {
		claims.UserID = uint(id)
	}
	token, err := uc.Tokens.GenerateToken(claims)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	uc.Log.WithFields(logrus.Fields{"email": identity.Email, "role": identity.Role}).Info("Admin logged in")
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token": token,
		"user":  identity,
	})
}

func (uc *UserController) SendPasswordReset(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required,email"`
	}
	if !bindJSON(c, &input) {
		return
	}

	if err := uc.Identity.SendPasswordReset(c.Request.Context(), input.Email); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Password reset email sent", nil)
}

// EmployeeLogin -> secret code of the active shift, returns JWT bound to the shift
func (uc *UserController) EmployeeLogin(c *gin.Context) {
	var input struct {
		SecretCode string `json:"secret_code" binding:"required"`
	}
	if !bindJSON(c, &input) {
		return
	}

	shift, err := uc.Shifts.LoginEmployee(c.Request.Context(), input.SecretCode)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	token, err := uc.Tokens.GenerateToken(utils.CustomClaims{
		Role:    models.RoleEmployee,
		ShiftID: shift.ShiftID,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	uc.Log.WithField("shift_id", shift.ShiftID).Info("Employee logged in")
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token": token,
		"shift": shift,
	})
}

// Logout -> revokes the token used for this request
func (uc *UserController) Logout(c *gin.Context) {
	claims, ok := middlewares.ClaimsFrom(c)
	if !ok {
		utils.RespondError(c, utils.Unauthorized("unauthorized"))
		return
	}
	uc.Tokens.Revoke(c.GetString(middlewares.ContextToken), claims)
	utils.RespondJSON(c, http.StatusOK, "Logged out", nil)
}

// GetProfile -> the identity carried by the token
func (uc *UserController) GetProfile(c *gin.Context) {
	claims, ok := middlewares.ClaimsFrom(c)
	if !ok {
		utils.RespondError(c, utils.Unauthorized("unauthorized"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Profile", gin.H{
		"user_id":  claims.Subject,
		"email":    claims.Email,
		"role":     claims.Role,
		"shift_id": claims.ShiftID,
	})
}

// Register -> creates another administrator, local accounts only
func (uc *UserController) Register(c *gin.Context) {
	if uc.Accounts == nil {
		utils.RespondError(c, utils.Validation("registration is only available with the local identity provider"))
		return
	}

	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	user, err := uc.Accounts.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "User registered", user)
}
