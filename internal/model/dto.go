package model

import "time"

// ========== Auth DTOs ==========

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ========== OTP DTOs ==========

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

type ResendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type OTPSentResponse struct {
	Message   string `json:"message"`
	Email     string `json:"email"`
	ExpiresIn int    `json:"expires_in"` // seconds until code expires
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// ========== Meal DTOs ==========

type CreateMealRequest struct {
	Name     string     `json:"name" binding:"required,max=200"`
	Period   MealPeriod `json:"period" binding:"required,oneof=breakfast lunch dinner snack"`
	Calories int        `json:"calories" binding:"min=0"`
	Protein  int        `json:"protein" binding:"min=0"`
	Carbs    int        `json:"carbs" binding:"min=0"`
	Fat      int        `json:"fat" binding:"min=0"`
	PhotoURL string     `json:"photo_url" binding:"omitempty,max=500"`
	LoggedAt *time.Time `json:"logged_at"` // defaults to now when omitted
}

type AnalyzeMealResponse struct {
	Message       string `json:"message"`
	RemainingUses int    `json:"remaining_uses"`
}

// ========== Notification DTOs ==========

type UpdateSettingsRequest struct {
	ReminderEnabled  *bool   `json:"reminder_enabled"`
	ImportantEnabled *bool   `json:"important_enabled"`
	QuietHoursStart  *int    `json:"quiet_hours_start" binding:"omitempty,min=0,max=1439"`
	QuietHoursEnd    *int    `json:"quiet_hours_end" binding:"omitempty,min=0,max=1439"`
	DailyCap         *int    `json:"daily_cap" binding:"omitempty,min=1"`
	Timezone         *string `json:"timezone" binding:"omitempty,max=64"`
}

type RegisterDeviceRequest struct {
	PushToken string         `json:"push_token" binding:"required"`
	Platform  DevicePlatform `json:"platform" binding:"required,oneof=android ios"`
	Locale    string         `json:"locale" binding:"omitempty,max=10"`
}

// ========== Upload DTOs ==========

type UploadResponse struct {
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`
}

// ========== Common DTOs ==========

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
