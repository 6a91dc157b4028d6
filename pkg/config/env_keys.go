package config

// EnvPrefix is passed to envconfig; every key carries the full name in its
// struct tag so the prefix stays empty-compatible.
const EnvPrefix = "shopline"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "SHOPLINE_APP_ENV"
	EnvAppPort      = "SHOPLINE_APP_PORT"
	EnvLogLevel     = "SHOPLINE_LOG_LEVEL"
	EnvLogWarnStack = "SHOPLINE_LOG_WARN_STACK"

	EnvAPIBaseURL = "SHOPLINE_API_BASE_URL"
	EnvAPITimeout = "SHOPLINE_API_TIMEOUT"

	EnvTaxRate               = "SHOPLINE_CHECKOUT_TAX_RATE"
	EnvFreeShippingThreshold = "SHOPLINE_CHECKOUT_FREE_SHIPPING_THRESHOLD"
	EnvFlatShippingCost      = "SHOPLINE_CHECKOUT_FLAT_SHIPPING_COST"
	EnvOTPResendCooldown     = "SHOPLINE_CHECKOUT_OTP_RESEND_COOLDOWN"
	EnvSuccessRedirectDelay  = "SHOPLINE_CHECKOUT_SUCCESS_REDIRECT_DELAY"
	EnvNotesMaxLen           = "SHOPLINE_CHECKOUT_NOTES_MAX_LEN"

	EnvStoragePath = "SHOPLINE_STORAGE_PATH"
)
