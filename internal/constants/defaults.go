package constants

// Default connection configuration values
const (
	DefaultKeepaliveIntervalSec   = 30
	DefaultControlWriteTimeoutSec = 10
	DefaultControlReadLimitBytes  = 1 << 20
)

// Default platform API values
const (
	DefaultGraphAPIBaseURL = "https://graph.facebook.com"
	DefaultHTTPTimeoutSec  = 30
)

// Default server values
const (
	DefaultServerPort            = 3000
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 10
	ServerErrorChannelSize       = 1
)
