package controller

import (
	"errors"
	"langquiz_backend/internal/service"
	"langquiz_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AccountController struct {
	Accounts          *service.AccountService
	Lifecycle         *service.LifecycleService
	MinPasswordLength int
}

func NewAccountController(accounts *service.AccountService, lifecycle *service.LifecycleService, minPasswordLength int) *AccountController {
	return &AccountController{
		Accounts:          accounts,
		Lifecycle:         lifecycle,
		MinPasswordLength: minPasswordLength,
	}
}

// SignupRequest defines model for registration
// swagger:model SignupRequest
type SignupRequest struct {
	Username        string `json:"username" binding:"required,min=5,max=150,alphanum"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" binding:"required,eqfield=Password"`
}

// swagger:model LoginRequest
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type DeactivateRequest struct {
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	OldPassword        string `json:"old_password" binding:"required"`
	NewPassword        string `json:"new_password" binding:"required,min=8"`
	NewPasswordConfirm string `json:"new_password_confirm" binding:"required,eqfield=NewPassword"`
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Token              string `json:"token" binding:"required,uuid"`
	NewPassword        string `json:"new_password" binding:"required,min=8"`
	NewPasswordConfirm string `json:"new_password_confirm" binding:"required,eqfield=NewPassword"`
}

func (c *AccountController) passwordTooShort(ctx *gin.Context, password string) bool {
	if len(password) < c.MinPasswordLength {
		util.BadRequest(ctx, "password is too short")
		return true
	}
	return false
}

// Signup godoc
// @Summary 注册新用户
// @Tags 账户
// @Accept  json
// @Produce  json
// @Param   body body SignupRequest true "用户注册信息"
// @Success 201 {object} util.Response{data=object} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 409 {object} util.Response "用户名或邮箱已被注册"
// @Router /api/accounts/signup [post]
func (c *AccountController) Signup(ctx *gin.Context) {
	var req SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if c.passwordTooShort(ctx, req.Password) {
		return
	}

	user, err := c.Accounts.Signup(ctx.Request.Context(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}, ctx.Request.Host)
	if err != nil {
		if errors.Is(err, util.ErrEmailRegistered) || errors.Is(err, util.ErrUsernameTaken) {
			util.Conflict(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{"id": user.ID, "message": util.MsgSignupMailSent})
}

// Activate godoc
// @Summary 激活账户
// @Tags 账户
// @Produce  json
// @Param   user path string true "用户名"
// @Param   token path string true "激活令牌"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 410 {object} util.Response "链接已过期，账户已删除"
// @Router /api/accounts/profile/{user}/activate/{token} [get]
func (c *AccountController) Activate(ctx *gin.Context) {
	if util.GetUserFromContext(ctx) != nil {
		util.Success(ctx, gin.H{"message": util.MsgActivatedEarlier})
		return
	}

	token := ctx.Param("token")
	if _, err := uuid.Parse(token); err != nil {
		util.NotFound(ctx)
		return
	}

	_, err := c.Lifecycle.Activate(ctx.Request.Context(), token)
	switch {
	case err == nil:
		util.Success(ctx, gin.H{"message": util.MsgActivated})
	case errors.Is(err, util.ErrTokenNotFound):
		util.Error(ctx, http.StatusNotFound, util.MsgActivationFailed)
	case errors.Is(err, util.ErrTokenExpired):
		util.Error(ctx, http.StatusGone, util.MsgActivationFailed)
	default:
		util.LogInternalError(ctx, err)
	}
}

// Login godoc
// @Summary 用户登录
// @Tags 账户
// @Accept  json
// @Produce  json
// @Param   body body LoginRequest true "登录凭证"
// @Success 200 {object} util.Response{data=object} "登录成功"
// @Success 202 {object} util.Response "已发送重新激活邮件"
// @Failure 401 {object} util.Response "认证失败"
// @Failure 403 {object} util.Response "邮箱未确认"
// @Router /api/accounts/login [post]
func (c *AccountController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, err := c.Accounts.Login(ctx.Request.Context(), req.Username, req.Password, ctx.Request.Host)
	switch {
	case err == nil:
		util.Success(ctx, gin.H{"token": token})
	case errors.Is(err, util.ErrInvalidCredentials):
		util.Error(ctx, http.StatusUnauthorized, err.Error())
	case errors.Is(err, util.ErrUnconfirmedEmail):
		util.Error(ctx, http.StatusForbidden, err.Error())
	case errors.Is(err, util.ErrAccountDeactivated):
		util.Accepted(ctx, util.MsgReactivationSent)
	default:
		util.LogInternalError(ctx, err)
	}
}

func (c *AccountController) Logout(ctx *gin.Context) {
	if err := c.Accounts.Logout(ctx.Request.Context(), util.GetUserFromContext(ctx)); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": util.MsgLoggedOut})
}

// Profile godoc
// @Summary 获取当前用户资料
// @Tags 账户
// @Security ApiKeyAuth
// @Produce  json
// @Param   user path string true "用户名"
// @Success 200 {object} util.Response{data=service.Profile}
// @Success 302 "重定向到自己的资料页"
// @Router /api/accounts/profile/{user} [get]
func (c *AccountController) Profile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if ctx.Param("user") != claims.Username {
		ctx.Redirect(http.StatusFound, "/api/accounts/profile/"+claims.Username)
		return
	}

	profile, err := c.Accounts.Profile(ctx.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, profile)
}

func (c *AccountController) Deactivate(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if ctx.Param("user") != claims.Username {
		util.Forbidden(ctx)
		return
	}

	var req DeactivateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	err := c.Accounts.RequestDeactivation(ctx.Request.Context(), claims, req.Password)
	switch {
	case err == nil:
		util.Accepted(ctx, util.MsgDeactivating)
	case errors.Is(err, util.ErrWrongPassword):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrUserNotFound):
		util.NotFound(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

func (c *AccountController) ChangePassword(ctx *gin.Context) {
	var req ChangePasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if c.passwordTooShort(ctx, req.NewPassword) {
		return
	}

	claims := util.GetUserFromContext(ctx)
	err := c.Accounts.ChangePassword(ctx.Request.Context(), claims.UserID, req.OldPassword, req.NewPassword)
	switch {
	case err == nil:
		util.Success(ctx, gin.H{"message": util.MsgPasswordChanged})
	case errors.Is(err, util.ErrWrongPassword):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrUserNotFound):
		util.NotFound(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

func (c *AccountController) RequestPasswordReset(ctx *gin.Context) {
	var req PasswordResetRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.Accounts.RequestPasswordReset(ctx.Request.Context(), req.Email, ctx.Request.Host); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": util.MsgPasswordResetSent})
}

func (c *AccountController) ConfirmPasswordReset(ctx *gin.Context) {
	var req PasswordResetConfirmRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if c.passwordTooShort(ctx, req.NewPassword) {
		return
	}

	err := c.Accounts.ConfirmPasswordReset(ctx.Request.Context(), req.Token, req.NewPassword)
	switch {
	case err == nil:
		util.Success(ctx, gin.H{"message": util.MsgPasswordChanged})
	case errors.Is(err, util.ErrResetTokenInvalid):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
