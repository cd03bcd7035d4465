package handlers

import (
	"time"

	"github.com/docman/backend/internal/middleware"
	"github.com/docman/backend/internal/models"
	"github.com/docman/backend/pkg/logger"
	"github.com/docman/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/pquerna/otp/totp"
	"gorm.io/gorm"
)

const totpIssuer = "DocMan"

type MFAHandler struct {
	DB *gorm.DB
}

func NewMFAHandler(db *gorm.DB) *MFAHandler {
	return &MFAHandler{DB: db}
}

func (h *MFAHandler) Status(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var cfg models.MFAConfig
	enrolled := h.DB.First(&cfg, "user_id = ?", user.ID).Error == nil

	var verifiedAt *time.Time
	if enrolled {
		verifiedAt = cfg.TOTPVerifiedAt
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"totpEnabled":    enrolled && cfg.TOTPEnabled,
		"totpVerifiedAt": verifiedAt,
	})
}

// SetupTOTP provisions a secret and returns the otpauth URL. The enrolment
// stays inactive until the first code is verified; repeating setup before
// verification rotates the secret.
func (h *MFAHandler) SetupTOTP(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var existing models.MFAConfig
	if err := h.DB.First(&existing, "user_id = ?", user.ID).Error; err == nil && existing.TOTPEnabled {
		return utils.Error(c, fiber.StatusConflict, "TOTP already enabled")
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating TOTP secret")
	}

	encrypted, err := utils.EncryptAESGCM(key.Secret())
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed protecting TOTP secret")
	}

	cfg := models.MFAConfig{
		UserID:      user.ID,
		TOTPSecret:  encrypted,
		TOTPEnabled: false,
	}
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.MFAConfig{}, "user_id = ?", user.ID).Error; err != nil {
			return err
		}
		return tx.Create(&cfg).Error
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed storing TOTP config")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"secret":     key.Secret(),
		"otpauthURL": key.URL(),
	})
}

type totpCodeRequest struct {
	Code string `json:"code"`
}

func (h *MFAHandler) VerifyTOTP(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req totpCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	var cfg models.MFAConfig
	if err := h.DB.First(&cfg, "user_id = ?", user.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusNotFound, "TOTP not provisioned")
	}

	secret, err := utils.DecryptAESGCM(cfg.TOTPSecret)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed reading TOTP secret")
	}

	if !totp.Validate(req.Code, secret) {
		return utils.Error(c, fiber.StatusBadRequest, "invalid code")
	}

	now := time.Now()
	updates := map[string]interface{}{
		"totp_enabled":     true,
		"totp_verified_at": now,
	}
	if err := h.DB.Model(&models.MFAConfig{}).Where("user_id = ?", user.ID).Updates(updates).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed enabling TOTP")
	}

	logger.InfoWithUser(user.ID.String(), "totp_enabled", nil)

	return utils.Success(c, fiber.StatusOK, fiber.Map{"totpEnabled": true})
}

type disableTOTPRequest struct {
	Password string `json:"password"`
	Code     string `json:"code"`
}

func (h *MFAHandler) DisableTOTP(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req disableTOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		return utils.Error(c, fiber.StatusBadRequest, "password is incorrect")
	}

	var cfg models.MFAConfig
	if err := h.DB.First(&cfg, "user_id = ?", user.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusNotFound, "TOTP not provisioned")
	}

	secret, err := utils.DecryptAESGCM(cfg.TOTPSecret)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed reading TOTP secret")
	}
	if cfg.TOTPEnabled && !totp.Validate(req.Code, secret) {
		return utils.Error(c, fiber.StatusBadRequest, "invalid code")
	}

	if err := h.DB.Delete(&models.MFAConfig{}, "user_id = ?", user.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed disabling TOTP")
	}

	logger.InfoWithUser(user.ID.String(), "totp_disabled", nil)

	return utils.Success(c, fiber.StatusOK, fiber.Map{"totpEnabled": false})
}

type mfaLoginRequest struct {
	MFAToken string `json:"mfaToken"`
	Code     string `json:"code"`
}

// LoginMFA exchanges a pending MFA challenge token plus a valid code for a
// real bearer token.
func (h *MFAHandler) LoginMFA(c *fiber.Ctx) error {
	var req mfaLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	claims, err := utils.ValidateMFAToken(req.MFAToken)
	if err != nil {
		return utils.Error(c, fiber.StatusUnauthorized, "invalid or expired MFA token")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", claims.UserID).Error; err != nil {
		return utils.Error(c, fiber.StatusUnauthorized, "user not found")
	}
	if !user.IsActive {
		return utils.Error(c, fiber.StatusUnauthorized, "inactive user")
	}

	var cfg models.MFAConfig
	if err := h.DB.First(&cfg, "user_id = ? AND totp_enabled = ?", user.ID, true).Error; err != nil {
		return utils.Error(c, fiber.StatusUnauthorized, "TOTP not enabled")
	}

	secret, err := utils.DecryptAESGCM(cfg.TOTPSecret)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed reading TOTP secret")
	}
	if !totp.Validate(req.Code, secret) {
		return utils.Error(c, fiber.StatusUnauthorized, "invalid code")
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	logger.InfoWithUser(user.ID.String(), "user_login_mfa", map[string]interface{}{
		"ip": c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}
