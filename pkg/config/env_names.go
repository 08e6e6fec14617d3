package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "SHOPLANE"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv           = "SHOPLANE_APP_ENV"
	EnvPort             = "SHOPLANE_APP_PORT"
	EnvRedisURL         = "SHOPLANE_REDIS_URL"
	EnvCartTTL          = "SHOPLANE_CART_TTL"
	EnvCartTaxRate      = "SHOPLANE_CART_TAX_RATE"
	EnvCatalogBaseURL   = "SHOPLANE_CATALOG_BASE_URL"
	EnvInventoryBaseURL = "SHOPLANE_INVENTORY_BASE_URL"
	EnvSalesBaseURL     = "SHOPLANE_SALES_BASE_URL"
	EnvJWTSecret        = "SHOPLANE_JWT_SECRET"
	EnvJWTIssuer        = "SHOPLANE_JWT_ISSUER"
)
