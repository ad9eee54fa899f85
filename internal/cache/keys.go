package cache

import (
	"fmt"

	"github.com/google/uuid"
)

const keyPrefix = "translator"

func JobStatusKey(jobID uuid.UUID) string {
	return fmt.Sprintf("%s:job:%s", keyPrefix, jobID)
}

// RateLimitKey scopes a request counter to one client (usually its IP).
func RateLimitKey(client string) string {
	return fmt.Sprintf("%s:ratelimit:%s", keyPrefix, client)
}

// ModelListKey holds the provider's model list.
func ModelListKey(provider string) string {
	return fmt.Sprintf("%s:models:%s", keyPrefix, provider)
}
