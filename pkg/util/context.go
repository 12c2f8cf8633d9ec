package util

import (
	"github.com/gin-gonic/gin"
)

// Operator is the identity forwarded by the gateway.
type Operator struct {
	ID    string
	Name  string
	Email string
}

// GetOperatorID extracts the operator id from the X-Operator-Id header
func GetOperatorID(c *gin.Context) (string, bool) {
	id := c.GetHeader("X-Operator-Id")
	if id == "" {
		return "", false
	}
	return id, true
}

// GetOperator extracts the full forwarded identity
func GetOperator(c *gin.Context) (Operator, bool) {
	id, ok := GetOperatorID(c)
	if !ok {
		return Operator{}, false
	}
	return Operator{
		ID:    id,
		Name:  c.GetHeader("X-Operator-Name"),
		Email: c.GetHeader("X-Operator-Email"),
	}, true
}
