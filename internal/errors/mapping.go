package errors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Rule maps a service sentinel to an HTTP status, code and message.
type Rule struct {
	Target  error
	Status  int
	Code    string
	Message string
}

// Rules is an ordered mapping table; the first matching rule wins.
type Rules []Rule

// Match returns the first rule whose Target is in err's chain.
func (r Rules) Match(err error) (Rule, bool) {
	for _, rule := range r {
		if errors.Is(err, rule.Target) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Respond writes the matching rule, or falls back to ParseError with a 500.
// Unmatched errors never leak their text to the client.
func (r Rules) Respond(c *gin.Context, err error, context string) {
	if rule, ok := r.Match(err); ok {
		message := rule.Message
		if message == "" {
			message = err.Error()
		}
		RespondWithError(c, rule.Status, rule.Code, message)
		return
	}

	info := ParseError(err, context)
	status := http.StatusInternalServerError
	switch info.Code {
	case ResourceNotFound:
		status = http.StatusNotFound
	case ResourceAlreadyExists, ResourceConflict:
		status = http.StatusConflict
	case ValidationRequired, ValidationInvalidInput, ValidationInvalidRange:
		status = http.StatusBadRequest
	}
	RespondWithError(c, status, info.Code, info.Message)
}
