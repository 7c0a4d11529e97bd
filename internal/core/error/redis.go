package errx

import (
	"errors"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// WrapRedis maps Redis errors to AppError with appropriate status codes.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, redis.Nil) {
		return New(err, http.StatusNotFound, RedisNotFoundMessage)
	}

	return New(err, http.StatusBadGateway, RedisErrorMessage)
}

// WrapContent marks a curated content store failure. Retrieval treats it as
// "no curated content" rather than failing the turn.
func WrapContent(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusServiceUnavailable, ContentErrorMessage)
}
