package providers

import "time"

// shutdownTimeout bounds how long each handle waits during graceful shutdown.
const shutdownTimeout = 30 * time.Second
