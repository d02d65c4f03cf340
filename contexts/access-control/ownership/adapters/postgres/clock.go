package postgresadapter

import "time"

// SystemClock satisfies the module Clock port with wall-clock time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
