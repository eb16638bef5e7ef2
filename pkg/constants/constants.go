package constants

type ContextKey string

const (
	AppKey      ContextKey = "app"
	PoolKey     ContextKey = "pool"
	TxKey       ContextKey = "tx"
	LoggerKey   ContextKey = "logger"
	ParamsKey   ContextKey = "params"
	TenantKey   ContextKey = "tenant"
	StrategyKey ContextKey = "tenant-strategy"
	UserIDKey   ContextKey = "user-id"

	RequestStart ContextKey = "request-start"
)
